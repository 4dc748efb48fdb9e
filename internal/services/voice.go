// voice.go
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
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/localnerve/haven/internal/ai"
	"github.com/localnerve/haven/internal/models"
	"github.com/localnerve/haven/internal/vendors"
	"gorm.io/gorm"
)

const maxSpeechChars = 2500

// Synthesizer turns text into speech audio
type Synthesizer interface {
	Synthesize(text, voiceID string) ([]byte, error)
}

// VoiceService handles text-to-speech and speech-to-text for voice conversations
type VoiceService struct {
	DB          *gorm.DB
	Catalog     *Catalog
	TTS         Synthesizer
	Transcriber ai.Transcriber
}

// Synthesize returns MPEG audio for text. The voice comes from voiceID, then the
// specialist of the given conversation, then the provider default.
func (s *VoiceService) Synthesize(ctx context.Context, userID, text, voiceID, conversationID string) ([]byte, error) {
	text = strings.TrimSpace(text)
	n := utf8.RuneCountInString(text)
	if n == 0 || n > maxSpeechChars {
		return nil, &ValidationError{Fields: map[string]string{"text": fmt.Sprintf("must be 1 to %d characters", maxSpeechChars)}}
	}
	if s.TTS == nil {
		return nil, fmt.Errorf("text to speech: %w", ErrUnavailable)
	}

	if voiceID == "" && conversationID != "" {
		var conv models.Conversation
		if err := s.DB.Select("specialist_key").
			Where("id = ? AND user_id = ?", conversationID, userID).First(&conv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
			}
			return nil, err
		}
		if conv.SpecialistKey != "" && s.Catalog != nil {
			if specialist, err := s.Catalog.SpecialistByKey(conv.SpecialistKey); err == nil {
				voiceID = specialist.VoiceID
			}
		}
	}

	audio, err := s.TTS.Synthesize(text, voiceID)
	if err != nil {
		if errors.Is(err, vendors.ErrNotConfigured) {
			return nil, fmt.Errorf("text to speech: %w", ErrUnavailable)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return audio, nil
}

// Transcribe converts an uploaded recording to text
func (s *VoiceService) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	if s.Transcriber == nil {
		return "", fmt.Errorf("speech to text: %w", ErrUnavailable)
	}
	if filename == "" {
		filename = "recording.webm"
	}
	text, err := s.Transcriber.Transcribe(ctx, filename, audio)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return strings.TrimSpace(text), nil
}
