// ai.go
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

// Package ai wraps the LLM, moderation and speech-to-text providers behind small interfaces.
package ai

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrUnavailable is returned when a capability has no configured provider
var ErrUnavailable = errors.New("ai: provider not configured")

// ErrEmptyResponse is returned when a provider answers without text
var ErrEmptyResponse = errors.New("ai: empty response")

// ChatMessage is one turn of a conversation sent to a model
type ChatMessage struct {
	Role    string // user or assistant
	Content string
}

// CompletionRequest describes one completion call. Zero Model, Temperature and MaxTokens
// use the provider defaults.
type CompletionRequest struct {
	System      string
	Messages    []ChatMessage
	Model       string
	Temperature *float64
	MaxTokens   int
}

// Completer produces an assistant reply
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ModerationVerdict is a provider's classification of a piece of text
type ModerationVerdict struct {
	Flagged    bool
	Categories []string
}

// Has reports whether the verdict carries any of the named categories
func (v ModerationVerdict) Has(categories ...string) bool {
	for _, c := range v.Categories {
		for _, want := range categories {
			if c == want || strings.HasPrefix(c, want+"/") {
				return true
			}
		}
	}
	return false
}

// Moderator classifies user generated text
type Moderator interface {
	Moderate(ctx context.Context, text string) (ModerationVerdict, error)
}

// Transcriber converts recorded speech to text
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// RenderPrompt replaces {{name}} placeholders with vars. Unknown placeholders are left as is.
func RenderPrompt(template string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(template, "{{") {
		return template
	}
	pairs := make([]string, 0, len(vars)*4)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v, "{{ "+k+" }}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
