// queue.go
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

// Package queue runs background tasks, on asynq when Redis is configured and inline otherwise.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Task types
const (
	TypeAudioCombine = "audio:combine"
	TypeCrisisNotify = "notify:crisis"
)

// Task is a background job with a type and an opaque payload
type Task struct {
	Type    string
	Payload []byte
}

// NewJSONTask builds a task with a JSON payload
func NewJSONTask(taskType string, payload interface{}) (Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Task{}, fmt.Errorf("queue: encode %s payload: %w", taskType, err)
	}
	return Task{Type: taskType, Payload: b}, nil
}

// Decode unmarshals the payload into target
func (t Task) Decode(target interface{}) error {
	if err := json.Unmarshal(t.Payload, target); err != nil {
		return fmt.Errorf("queue: decode %s payload: %w", t.Type, err)
	}
	return nil
}

// Handler processes a task. Returning an error requests a retry. Handlers must be idempotent.
type Handler func(ctx context.Context, task Task) error

// Options control enqueue behaviour. Zero values mean unspecified.
type Options struct {
	Queue     string
	ProcessIn time.Duration
	MaxRetry  int
	UniqueTTL time.Duration
	Timeout   time.Duration
}

// Client enqueues tasks
type Client interface {
	Enqueue(ctx context.Context, t Task, opts Options) (id string, err error)
	Close() error
}

// Registrar binds task types to handlers
type Registrar interface {
	Register(taskType string, h Handler)
}

// ErrNoHandler is returned by the inline queue when a task type was never registered
var ErrNoHandler = errors.New("queue: no handler registered")
