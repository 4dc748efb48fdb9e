// voice_test.go
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

package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/localnerve/haven/internal/ai"
	"github.com/localnerve/haven/internal/config"
	"github.com/localnerve/haven/internal/queue"
	"github.com/localnerve/haven/internal/services"
	"github.com/localnerve/haven/internal/testutil"
	"github.com/localnerve/haven/internal/vendors"
)

type fakeTTS struct {
	voice string
	err   error
}

func (f *fakeTTS) Synthesize(text, voiceID string) ([]byte, error) {
	f.voice = voiceID
	if f.err != nil {
		return nil, f.err
	}
	return []byte("ID3" + text), nil
}

// TestSynthesizeVoiceSelection tests voice resolution from the conversation's specialist
func TestSynthesizeVoiceSelection(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	tts := &fakeTTS{}
	svc := &services.VoiceService{DB: f.svc.DB, Catalog: f.svc.Catalog, TTS: tts}

	if _, err := f.svc.Catalog.UpdateSpecialist(ctx, "sleep", services.SpecialistInput{Name: "Luna", PromptKey: "sleep_chat", Keywords: []string{"sleep"}, VoiceID: "voice-luna"}); err != nil {
		t.Fatalf("UpdateSpecialist failed: %v", err)
	}
	conv, _ := f.svc.CreateConversation("user-1", "", "voice")
	if _, err := f.svc.SendMessage(ctx, "user-1", conv.ID, "I need sleep"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	audio, err := svc.Synthesize(ctx, "user-1", "Rest well", "", conv.ID)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if tts.voice != "voice-luna" || !strings.HasPrefix(string(audio), "ID3") {
		t.Errorf("Expected specialist voice, got %q", tts.voice)
	}

	if _, err := svc.Synthesize(ctx, "user-1", "Rest well", "explicit", conv.ID); err != nil || tts.voice != "explicit" {
		t.Errorf("Expected explicit voice to win, got %q, %v", tts.voice, err)
	}
	if _, err := svc.Synthesize(ctx, "user-2", "Rest well", "", conv.ID); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for another user's conversation, got %v", err)
	}
	if _, err := svc.Synthesize(ctx, "user-1", strings.Repeat("a", 2501), "", ""); !errors.Is(err, services.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for long text, got %v", err)
	}

	tts.err = vendors.ErrNotConfigured
	if _, err := svc.Synthesize(ctx, "user-1", "hi", "", ""); !errors.Is(err, services.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
	tts.err = &vendors.UpstreamError{Vendor: "elevenlabs", Status: 500}
	if _, err := svc.Synthesize(ctx, "user-1", "hi", "", ""); !errors.Is(err, services.ErrUpstream) {
		t.Errorf("Expected ErrUpstream, got %v", err)
	}
}

// TestTranscribe tests the speech to text path
func TestTranscribe(t *testing.T) {
	ctx := context.Background()
	svc := &services.VoiceService{}
	if _, err := svc.Transcribe(ctx, "a.webm", strings.NewReader("x")); !errors.Is(err, services.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}

	svc.Transcriber = &ai.FakeTranscriber{Text: "  I slept badly \n"}
	text, err := svc.Transcribe(ctx, "", strings.NewReader("audio"))
	if err != nil || text != "I slept badly" {
		t.Errorf("Expected trimmed transcript, got %q, %v", text, err)
	}
}

// TestRegisterTasks tests that both task types reach their handlers
func TestRegisterTasks(t *testing.T) {
	ctx := context.Background()
	q := queue.NewInline(true)
	audio, _ := newAudioService(t)
	audio.Queue = q
	sms := &fakeSMS{}
	services.RegisterTasks(q, audio, &services.Notifier{SMS: sms, AlertPhone: "+15550100"})

	task, _ := queue.NewJSONTask(queue.TypeCrisisNotify, services.CrisisAlert{ConversationID: "c-1", Level: services.CrisisAcute})
	if _, err := q.Enqueue(ctx, task, queue.Options{}); err != nil {
		t.Fatalf("Enqueue crisis task failed: %v", err)
	}
	if len(sms.sent) != 1 {
		t.Errorf("Expected one sms, got %d", len(sms.sent))
	}

	// A combine for a session with no chunks is dropped rather than retried
	task, _ = queue.NewJSONTask(queue.TypeAudioCombine, services.CombinePayload{SessionID: uuid.NewString()})
	if _, err := q.Enqueue(ctx, task, queue.Options{}); err != nil {
		t.Errorf("Expected empty session combine to succeed, got %v", err)
	}
}

// TestHealthCheck tests a healthy database and cache
func TestHealthCheck(t *testing.T) {
	cfg := &config.Config{DBType: "sqlite", DBDatabase: "test"}
	result := services.HealthCheck(context.Background(), cfg, testutil.SetupTestDB(t), testutil.NewMemoryCache())
	if result.Status != "healthy" || result.Database != "ok" || result.Cache != "ok" || result.Authorizer != "disabled" {
		t.Errorf("Unexpected health result %+v", result)
	}

	result = services.HealthCheck(context.Background(), cfg, testutil.SetupTestDB(t), nil)
	if result.Cache != "disabled" {
		t.Errorf("Expected disabled cache, got %s", result.Cache)
	}
}
