// fake.go
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
	"io"
	"sync"
)

// FakeCompleter returns canned replies and records requests
type FakeCompleter struct {
	Reply string
	Err   error

	mu       sync.Mutex
	Requests []CompletionRequest
}

// Complete implements Completer
func (f *FakeCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	f.mu.Lock()
	f.Requests = append(f.Requests, req)
	f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	return f.Reply, nil
}

// Last returns the most recent request
func (f *FakeCompleter) Last() CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Requests) == 0 {
		return CompletionRequest{}
	}
	return f.Requests[len(f.Requests)-1]
}

// FakeModerator returns a fixed verdict
type FakeModerator struct {
	Verdict ModerationVerdict
	Err     error
}

// Moderate implements Moderator
func (f *FakeModerator) Moderate(ctx context.Context, text string) (ModerationVerdict, error) {
	return f.Verdict, f.Err
}

// FakeTranscriber returns a fixed transcript and records the audio size
type FakeTranscriber struct {
	Text string
	Err  error

	Bytes int
}

// Transcribe implements Transcriber
func (f *FakeTranscriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	b, _ := io.ReadAll(audio)
	f.Bytes = len(b)
	return f.Text, f.Err
}
