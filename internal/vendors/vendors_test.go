// vendors_test.go
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

package vendors

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestElevenLabsSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/text-to-speech/voice-1" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "key" {
			t.Errorf("Expected api key header, got %q", r.Header.Get("xi-api-key"))
		}
		var body ttsRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Text != "hello" {
			t.Errorf("Expected text hello, got %q", body.Text)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3audio"))
	}))
	defer srv.Close()

	client := &ElevenLabs{APIKey: "key", BaseURL: srv.URL, VoiceID: "voice-1"}
	audio, err := client.Synthesize("hello", "")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if string(audio) != "ID3audio" {
		t.Errorf("Unexpected audio %q", audio)
	}
}

func TestElevenLabsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"bad key"}`))
	}))
	defer srv.Close()

	client := &ElevenLabs{APIKey: "key", BaseURL: srv.URL, VoiceID: "v"}
	_, err := client.Synthesize("hello", "")
	var upstream *UpstreamError
	if !errors.As(err, &upstream) || upstream.Status != http.StatusUnauthorized {
		t.Fatalf("Expected 401 upstream error, got %v", err)
	}
}

func TestNotConfigured(t *testing.T) {
	var e *ElevenLabs
	if _, err := e.Synthesize("x", ""); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured from nil client, got %v", err)
	}
	if _, err := (&Resend{}).Send(Email{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured from keyless resend, got %v", err)
	}
	if _, err := (&Twilio{AccountSID: "a"}).SendSMS("+1", "x"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured from partial twilio, got %v", err)
	}
}

func TestResendSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer re_key" {
			t.Errorf("Unexpected auth header %q", r.Header.Get("Authorization"))
		}
		var body resendRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.From != "Haven <a@b.c>" || len(body.To) != 1 || body.To[0] != "t@example.com" {
			t.Errorf("Unexpected body %+v", body)
		}
		_, _ = w.Write([]byte(`{"id":"email-1"}`))
	}))
	defer srv.Close()

	client := &Resend{APIKey: "re_key", BaseURL: srv.URL, From: "Haven <a@b.c>"}
	id, err := client.Send(Email{To: []string{"t@example.com"}, Subject: "Hi", HTML: "<p>Hi</p>"})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if id != "email-1" {
		t.Errorf("Expected id email-1, got %q", id)
	}
}

func TestTwilioSendSMS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/Accounts/AC1/Messages.json") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC1" || pass != "token" {
			t.Errorf("Unexpected basic auth %q %q", user, pass)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if r.PostForm.Get("To") != "+15550001" || r.PostForm.Get("Body") != "alert" {
			t.Errorf("Unexpected form %v", r.PostForm)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1"}`))
	}))
	defer srv.Close()

	client := &Twilio{AccountSID: "AC1", AuthToken: "token", From: "+15559999", BaseURL: srv.URL}
	sid, err := client.SendSMS("+15550001", "alert")
	if err != nil {
		t.Fatalf("SendSMS failed: %v", err)
	}
	if sid != "SM1" {
		t.Errorf("Expected SM1, got %q", sid)
	}
}

func TestMathpixExtractText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("app_id") != "id" || r.Header.Get("app_key") != "key" {
			t.Errorf("Missing mathpix headers")
		}
		raw, _ := io.ReadAll(r.Body)
		var body mathpixRequest
		_ = json.Unmarshal(raw, &body)
		if !strings.HasPrefix(body.Src, "data:image/jpeg;base64,") {
			t.Errorf("Unexpected src prefix %q", body.Src)
		}
		_, _ = w.Write([]byte(`{"text":"LICENSE NO. AB-12345"}`))
	}))
	defer srv.Close()

	client := &Mathpix{AppID: "id", AppKey: "key", BaseURL: srv.URL}
	text, err := client.ExtractText([]byte{0xff, 0xd8}, "image/jpeg")
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}
	if text != "LICENSE NO. AB-12345" {
		t.Errorf("Unexpected text %q", text)
	}
}
