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

package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/haven/internal/ai"
	"github.com/localnerve/haven/internal/models"
	"github.com/localnerve/haven/internal/queue"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const (
	defaultMaxChunkBytes = 5 * 1024 * 1024
	defaultSilenceBytes  = 2048
	defaultAudioType     = "audio/webm"
)

// CombinePayload is the audio:combine task payload
type CombinePayload struct {
	SessionID string `json:"sessionId"`
}

// ChunkReceipt acknowledges a stored chunk
type ChunkReceipt struct {
	SessionID string `json:"sessionId"`
	Index     int    `json:"index"`
	Size      int    `json:"size"`
	Silent    bool   `json:"silent"`
}

// AudioService stores recorded chunks and combines them into one recording per session
type AudioService struct {
	DB            *gorm.DB
	Queue         queue.Client
	Transcriber   ai.Transcriber
	MaxChunkBytes int
	SilenceBytes  int
}

func (s *AudioService) maxChunk() int {
	if s.MaxChunkBytes > 0 {
		return s.MaxChunkBytes
	}
	return defaultMaxChunkBytes
}

func (s *AudioService) silence() int {
	if s.SilenceBytes > 0 {
		return s.SilenceBytes
	}
	return defaultSilenceBytes
}

func checkSessionID(sessionID string) error {
	if _, err := uuid.Parse(sessionID); err != nil {
		return &ValidationError{Fields: map[string]string{"sessionId": "must be a UUID"}}
	}
	return nil
}

// sessionOwner returns the user who first uploaded to the session, or "" for a new session
func (s *AudioService) sessionOwner(db *gorm.DB, sessionID string) (string, error) {
	var chunk models.AudioChunk
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Select("user_id").Where("session_id = ?", sessionID).
		Order("created_at").First(&chunk).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return chunk.UserID, err
}

// UploadChunk stores one chunk of a recording session, replacing a chunk with the same index.
// Chunks under the silence threshold are kept but flagged so combining skips them.
func (s *AudioService) UploadChunk(userID, sessionID string, index int, contentType string, data []byte) (*ChunkReceipt, error) {
	if err := checkSessionID(sessionID); err != nil {
		return nil, err
	}
	errs := fieldErrors{}
	if index < 0 {
		errs.add("index", "must not be negative")
	}
	if len(data) == 0 {
		errs.add("chunk", "required")
	} else if len(data) > s.maxChunk() {
		errs.add("chunk", fmt.Sprintf("must be at most %d bytes", s.maxChunk()))
	}
	if err := errs.err(); err != nil {
		return nil, err
	}
	if contentType == "" || !strings.HasPrefix(contentType, "audio/") {
		contentType = defaultAudioType
	}

	chunk := models.AudioChunk{
		SessionID:   sessionID,
		ChunkIndex:  index,
		UserID:      userID,
		ContentType: contentType,
		Data:        data,
		Size:        len(data),
		Silent:      len(data) < s.silence(),
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		owner, err := s.sessionOwner(tx, sessionID)
		if err != nil {
			return err
		}
		if owner != "" && owner != userID {
			return fmt.Errorf("audio session %s: %w", sessionID, ErrForbidden)
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "chunk_index"}},
			DoUpdates: clause.AssignmentColumns([]string{"content_type", "data", "size", "silent", "updated_at"}),
		}).Create(&chunk).Error
	})
	if err != nil {
		return nil, err
	}

	return &ChunkReceipt{SessionID: sessionID, Index: index, Size: chunk.Size, Silent: chunk.Silent}, nil
}

// RequestCombine queues combination of the session's chunks and returns the task id
func (s *AudioService) RequestCombine(ctx context.Context, userID, sessionID string) (string, error) {
	if err := checkSessionID(sessionID); err != nil {
		return "", err
	}
	owner, err := s.sessionOwner(s.DB, sessionID)
	if err != nil {
		return "", err
	}
	if owner == "" {
		return "", fmt.Errorf("audio session %s: %w", sessionID, ErrNotFound)
	}
	if owner != userID {
		return "", fmt.Errorf("audio session %s: %w", sessionID, ErrForbidden)
	}
	if s.Queue == nil {
		return "", fmt.Errorf("audio combine queue: %w", ErrUnavailable)
	}

	task, err := queue.NewJSONTask(queue.TypeAudioCombine, CombinePayload{SessionID: sessionID})
	if err != nil {
		return "", err
	}

	var previous models.AudioRecording
	hadPrevious := true
	if err := s.DB.Where("session_id = ?", sessionID).First(&previous).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
		hadPrevious = false
	}

	// The pending row goes in before the enqueue, since an inline queue may combine right away.
	recording := models.AudioRecording{
		SessionID:   sessionID,
		UserID:      userID,
		ContentType: defaultAudioType,
		Status:      models.RecordingPending,
	}
	if err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(&recording).Error; err != nil {
		return "", err
	}

	taskID, err := s.Queue.Enqueue(ctx, task, queue.Options{
		Queue:    queue.QueueDefault,
		MaxRetry: 3,
		Timeout:  5 * time.Minute,
	})
	if err != nil {
		s.restorePending(sessionID, hadPrevious, previous.Status)
		return "", err
	}
	return taskID, nil
}

// restorePending undoes the pending mark of a combine that was never queued. A row the
// task already moved past pending is left alone.
func (s *AudioService) restorePending(sessionID string, hadPrevious bool, previousStatus string) {
	scope := s.DB.Where("session_id = ? AND status = ?", sessionID, models.RecordingPending)
	var err error
	if hadPrevious {
		err = scope.Model(&models.AudioRecording{}).Update("status", previousStatus).Error
	} else {
		err = scope.Delete(&models.AudioRecording{}).Error
	}
	if err != nil {
		log.Printf("Failed to restore audio session %s after enqueue failure: %v", sessionID, err)
	}
}

// CombineSession concatenates the session's usable chunks in index order into its recording.
// Running it again for the same session rewrites the same result.
func (s *AudioService) CombineSession(ctx context.Context, sessionID string) (*models.AudioRecording, error) {
	var chunks []models.AudioChunk
	if err := s.DB.Where("session_id = ?", sessionID).Order("chunk_index ASC").Find(&chunks).Error; err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("audio session %s: %w", sessionID, ErrNotFound)
	}

	var buf bytes.Buffer
	used, skipped := 0, 0
	for _, c := range chunks {
		if c.Silent || len(c.Data) == 0 {
			skipped++
			continue
		}
		buf.Write(c.Data)
		used++
	}

	recording := models.AudioRecording{
		SessionID:     sessionID,
		UserID:        chunks[0].UserID,
		ContentType:   chunks[0].ContentType,
		Data:          buf.Bytes(),
		Size:          buf.Len(),
		ChunkCount:    used,
		SkippedChunks: skipped,
		Status:        models.RecordingCombined,
	}
	if used == 0 {
		recording.Status = models.RecordingFailed
		recording.Data = nil
	}

	if used > 0 && s.Transcriber != nil {
		text, err := s.Transcriber.Transcribe(ctx, "recording"+audioExtension(recording.ContentType), bytes.NewReader(recording.Data))
		if err != nil {
			log.Printf("Transcription of audio session %s failed: %v", sessionID, err)
		} else {
			recording.Transcript = strings.TrimSpace(text)
		}
	}

	if err := s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"content_type", "data", "size", "chunk_count", "skipped_chunks", "status", "transcript", "updated_at",
		}),
	}).Create(&recording).Error; err != nil {
		return nil, err
	}

	log.Printf("Combined audio session %s: %d chunks used, %d skipped, %d bytes", sessionID, used, skipped, recording.Size)
	return &recording, nil
}

// HandleCombineTask is the audio:combine task handler
func (s *AudioService) HandleCombineTask(ctx context.Context, task queue.Task) error {
	var payload CombinePayload
	if err := task.Decode(&payload); err != nil {
		return err
	}
	_, err := s.CombineSession(ctx, payload.SessionID)
	if errors.Is(err, ErrNotFound) {
		log.Printf("Audio combine skipped, session %s has no chunks", payload.SessionID)
		return nil
	}
	return err
}

// GetRecording returns the user's combined recording. Pending and failed recordings are
// not found here; RecordingMeta reports them.
func (s *AudioService) GetRecording(userID, sessionID string) (*models.AudioRecording, error) {
	recording, err := s.RecordingMeta(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if recording.Status != models.RecordingCombined {
		return nil, fmt.Errorf("recording %s is %s: %w", sessionID, recording.Status, ErrNotFound)
	}
	return recording, nil
}

// RecordingMeta returns the user's recording in whatever state it is in
func (s *AudioService) RecordingMeta(userID, sessionID string) (*models.AudioRecording, error) {
	if err := checkSessionID(sessionID); err != nil {
		return nil, err
	}
	var recording models.AudioRecording
	if err := s.DB.Session(&gorm.Session{Logger: s.DB.Logger.LogMode(logger.Silent)}).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		First(&recording).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("recording %s: %w", sessionID, ErrNotFound)
		}
		return nil, err
	}
	return &recording, nil
}

func audioExtension(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	switch strings.TrimSpace(base) {
	case "audio/ogg":
		return ".ogg"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return ".m4a"
	}
	return ".webm"
}
