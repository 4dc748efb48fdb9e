// audio_test.go
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

package handlers_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/localnerve/haven/internal/ai"
	"github.com/localnerve/haven/internal/handlers"
	"github.com/localnerve/haven/internal/queue"
	"github.com/localnerve/haven/internal/services"
	"github.com/localnerve/haven/internal/testutil"
)

func uploadChunk(t *testing.T, app *fiber.App, sessionID, index string, data []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if index != "" {
		if err := w.WriteField("index", index); err != nil {
			t.Fatalf("WriteField failed: %v", err)
		}
	}
	if data != nil {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="chunk"; filename="chunk.ogg"`)
		header.Set("Content-Type", "audio/ogg")
		part, err := w.CreatePart(header)
		if err != nil {
			t.Fatalf("CreatePart failed: %v", err)
		}
		part.Write(data)
	}
	w.Close()

	req := httptest.NewRequest("POST", "/api/audio/"+sessionID+"/chunks", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	return resp
}

// TestAudioRoutes tests chunk upload, combine and recording download
func TestAudioRoutes(t *testing.T) {
	q := queue.NewInline(true)
	audio := &services.AudioService{
		DB:            testutil.SetupTestDB(t),
		Queue:         q,
		Transcriber:   &ai.FakeTranscriber{Text: "hello"},
		MaxChunkBytes: 64,
		SilenceBytes:  2,
	}
	q.Register(queue.TypeAudioCombine, audio.HandleCombineTask)

	h := &handlers.AudioHandler{Audio: audio}
	app := newApp(testutil.Identity("user-1"))
	app.Post("/api/audio/:sessionId/chunks", h.UploadChunk)
	app.Post("/api/audio/:sessionId/combine", h.Combine)
	app.Get("/api/audio/:sessionId/meta", h.GetRecordingMeta)
	app.Get("/api/audio/:sessionId", h.GetRecording)

	session := uuid.NewString()

	resp := uploadChunk(t, app, session, "", []byte("AAAA"))
	assertStatus(t, resp, 400)

	resp = uploadChunk(t, app, session, "0", nil)
	assertStatus(t, resp, 400)

	resp = uploadChunk(t, app, "not-a-uuid", "0", []byte("AAAA"))
	assertStatus(t, resp, 400)

	resp = uploadChunk(t, app, session, "1", []byte("BBBB"))
	assertStatus(t, resp, 201)
	resp = uploadChunk(t, app, session, "0", []byte("AAAA"))
	assertStatus(t, resp, 201)
	var receipt services.ChunkReceipt
	parseJSON(t, resp, &receipt)
	if receipt.Index != 0 || receipt.Size != 4 {
		t.Errorf("Unexpected receipt %+v", receipt)
	}

	resp = doJSON(t, app, "GET", "/api/audio/"+session, nil)
	assertStatus(t, resp, 404)

	resp = doJSON(t, app, "POST", "/api/audio/"+session+"/combine", nil)
	assertStatus(t, resp, 202)

	resp = doJSON(t, app, "GET", "/api/audio/"+session, nil)
	assertStatus(t, resp, 200)
	if ct := resp.Header.Get("Content-Type"); ct != "audio/ogg" {
		t.Errorf("Expected audio/ogg, got %s", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "AAAABBBB" {
		t.Errorf("Expected chunks in index order, got %q", string(body))
	}

	resp = doJSON(t, app, "GET", "/api/audio/"+session+"/meta", nil)
	assertStatus(t, resp, 200)
	var meta map[string]interface{}
	parseJSON(t, resp, &meta)
	if meta["transcript"] != "hello" || meta["status"] != "combined" {
		t.Errorf("Unexpected recording meta %v", meta)
	}

	other := newApp(testutil.Identity("user-2"))
	other.Post("/api/audio/:sessionId/combine", h.Combine)
	resp = doJSON(t, other, "POST", "/api/audio/"+session+"/combine", nil)
	assertStatus(t, resp, 403)
}

// TestVoiceDisabled tests that speech routes answer 503 when no vendor is configured
func TestVoiceDisabled(t *testing.T) {
	h := &handlers.AudioHandler{Voice: &services.VoiceService{DB: testutil.SetupTestDB(t)}}
	app := newApp(testutil.Identity("user-1"))
	app.Post("/api/voice/speech", h.Speech)

	resp := doJSON(t, app, "POST", "/api/voice/speech", map[string]string{"text": "Hello"})
	assertStatus(t, resp, 503)
	var errBody map[string]interface{}
	parseJSON(t, resp, &errBody)
	if errBody["type"] != "vendor.unavailable" {
		t.Errorf("Expected vendor.unavailable, got %v", errBody["type"])
	}
}
