// router.go
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

package ai

import (
	"context"
	"strings"
)

// Router sends each request to the provider that serves its model
type Router struct {
	Anthropic Completer
	OpenAI    Completer
	Default   string // anthropic or openai, used when the request names no model
}

var _ Completer = (*Router)(nil)

// Complete implements Completer
func (r *Router) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	target := r.pick(req.Model)
	if target == nil {
		return "", ErrUnavailable
	}
	return target.Complete(ctx, req)
}

// Available reports whether any provider is configured
func (r *Router) Available() bool {
	return r != nil && (r.Anthropic != nil || r.OpenAI != nil)
}

func (r *Router) pick(model string) Completer {
	provider := r.Default
	if model != "" {
		provider = "anthropic"
		if isOpenAIModel(model) {
			provider = "openai"
		}
	}
	if provider == "openai" {
		return r.OpenAI
	}
	return r.Anthropic
}

func isOpenAIModel(model string) bool {
	m := strings.ToLower(model)
	if strings.HasPrefix(m, "gpt-") || strings.HasPrefix(m, "chatgpt-") {
		return true
	}
	// o1, o3-mini, o4-mini ...
	return len(m) > 1 && m[0] == 'o' && m[1] >= '0' && m[1] <= '9'
}
