// audio.go
//
// Haven, a mental health support backend: AI chat, intake, community and therapist matching
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of haven.
// haven is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// haven is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with haven.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/haven/internal/services"
)

const maxUploadBytes = 25 * 1024 * 1024

// AudioHandler handles chunked voice recordings, speech synthesis and transcription
type AudioHandler struct {
	Audio *services.AudioService
	Voice *services.VoiceService
}

// UploadChunk handles POST /api/audio/:sessionId/chunks
// @Summary Upload a recording chunk
// @Description Store one chunk of a recording session. Re-uploading an index replaces it.
// @Tags Audio
// @Accept multipart/form-data
// @Produce json
// @Param sessionId path string true "Recording session UUID"
// @Param index formData int true "Chunk index, from 0"
// @Param chunk formData file true "Audio bytes"
// @Success 201 {object} services.ChunkReceipt
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /audio/{sessionId}/chunks [post]
func (h *AudioHandler) UploadChunk(c *fiber.Ctx) error {
	index, err := strconv.Atoi(c.FormValue("index"))
	if err != nil {
		return respondError(c, &services.ValidationError{Fields: map[string]string{"index": "must be an integer"}}, "audio")
	}
	data, header, err := readUpload(c, "chunk", maxUploadBytes)
	if err != nil {
		return respondError(c, err, "audio")
	}

	receipt, err := h.Audio.UploadChunk(userID(c), c.Params("sessionId"), index, header.Header.Get(fiber.HeaderContentType), data)
	if err != nil {
		return respondError(c, err, "audio")
	}
	return c.Status(fiber.StatusCreated).JSON(receipt)
}

// Combine handles POST /api/audio/:sessionId/combine
// @Summary Combine a recording session
// @Description Queue combination of the session's chunks into one recording
// @Tags Audio
// @Produce json
// @Param sessionId path string true "Recording session UUID"
// @Success 202 {object} map[string]string
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 503 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /audio/{sessionId}/combine [post]
func (h *AudioHandler) Combine(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	taskID, err := h.Audio.RequestCombine(c.UserContext(), userID(c), sessionID)
	if err != nil {
		return respondError(c, err, "audio")
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"taskId": taskID, "sessionId": sessionID})
}

// GetRecording handles GET /api/audio/:sessionId
// @Summary Get a combined recording
// @Description The combined audio bytes, 404 until the session is combined. Status and transcript are on the /meta route.
// @Tags Audio
// @Produce octet-stream
// @Param sessionId path string true "Recording session UUID"
// @Success 200 {file} binary
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /audio/{sessionId} [get]
func (h *AudioHandler) GetRecording(c *fiber.Ctx) error {
	recording, err := h.Audio.GetRecording(userID(c), c.Params("sessionId"))
	if err != nil {
		return respondError(c, err, "audio")
	}
	c.Set("X-Recording-Status", recording.Status)
	c.Set(fiber.HeaderContentType, recording.ContentType)
	return c.Send(recording.Data)
}

// GetRecordingMeta handles GET /api/audio/:sessionId/meta
// @Summary Get recording status and transcript
// @Tags Audio
// @Produce json
// @Param sessionId path string true "Recording session UUID"
// @Success 200 {object} models.AudioRecording
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /audio/{sessionId}/meta [get]
func (h *AudioHandler) GetRecordingMeta(c *fiber.Ctx) error {
	recording, err := h.Audio.RecordingMeta(userID(c), c.Params("sessionId"))
	if err != nil {
		return respondError(c, err, "audio")
	}
	return c.JSON(recording)
}

// Speech handles POST /api/voice/speech
// @Summary Text to speech
// @Description Synthesize speech. The voice comes from voiceId, then the conversation's specialist, then the default.
// @Tags Voice
// @Accept json
// @Produce audio/mpeg
// @Param body body object true "text, voiceId and conversationId"
// @Success 200 {file} binary
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 502 {object} utils.ErrorResponseStruct
// @Failure 503 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /voice/speech [post]
func (h *AudioHandler) Speech(c *fiber.Ctx) error {
	var body struct {
		Text           string `json:"text"`
		VoiceID        string `json:"voiceId"`
		ConversationID string `json:"conversationId"`
	}
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c, "voice")
	}

	audio, err := h.Voice.Synthesize(c.UserContext(), userID(c), body.Text, body.VoiceID, body.ConversationID)
	if err != nil {
		return respondError(c, err, "voice")
	}
	c.Set(fiber.HeaderContentType, "audio/mpeg")
	return c.Send(audio)
}

// Transcribe handles POST /api/voice/transcribe
// @Summary Speech to text
// @Tags Voice
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Recording"
// @Success 200 {object} map[string]string
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 502 {object} utils.ErrorResponseStruct
// @Failure 503 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /voice/transcribe [post]
func (h *AudioHandler) Transcribe(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return respondError(c, &services.ValidationError{Fields: map[string]string{"file": "file is required"}}, "voice")
	}
	if header.Size > maxUploadBytes {
		return respondError(c, &services.ValidationError{Fields: map[string]string{"file": "file is too large"}}, "voice")
	}
	f, err := header.Open()
	if err != nil {
		return respondError(c, err, "voice")
	}
	defer f.Close()

	text, err := h.Voice.Transcribe(c.UserContext(), header.Filename, f)
	if err != nil {
		return respondError(c, err, "voice")
	}
	return c.JSON(fiber.Map{"text": text})
}
