// elevenlabs.go
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
	"fmt"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ElevenLabs synthesizes speech
type ElevenLabs struct {
	APIKey  string
	BaseURL string
	VoiceID string
	ModelID string
}

type ttsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id,omitempty"`
}

// Enabled reports whether the client can make calls
func (e *ElevenLabs) Enabled() bool {
	return e != nil && e.APIKey != ""
}

// Synthesize returns MPEG audio for text. An empty voiceID uses the configured voice.
func (e *ElevenLabs) Synthesize(text, voiceID string) ([]byte, error) {
	if !e.Enabled() {
		return nil, ErrNotConfigured
	}
	if voiceID == "" {
		voiceID = e.VoiceID
	}
	if voiceID == "" {
		return nil, fmt.Errorf("elevenlabs: no voice id")
	}

	endpoint := strings.TrimRight(e.BaseURL, "/") + "/v1/text-to-speech/" + url.PathEscape(voiceID)
	agent := fiber.Post(endpoint).
		Set("xi-api-key", e.APIKey).
		Set(fiber.HeaderAccept, "audio/mpeg").
		JSON(ttsRequest{Text: text, ModelID: e.ModelID}).
		Timeout(defaultTimeout)

	return do("elevenlabs", agent)
}
