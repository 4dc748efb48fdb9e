// inline.go
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

package queue

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Inline runs tasks in-process. It serves deployments without Redis and tests.
// With Sync set, Enqueue runs the handler before returning and reports its error.
type Inline struct {
	Sync bool

	mu       sync.RWMutex
	handlers map[string]Handler
	wg       sync.WaitGroup
}

var (
	_ Client    = (*Inline)(nil)
	_ Registrar = (*Inline)(nil)
)

// NewInline returns an inline queue
func NewInline(sync bool) *Inline {
	return &Inline{Sync: sync, handlers: make(map[string]Handler)}
}

// Register implements Registrar
func (q *Inline) Register(taskType string, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[taskType] = h
}

// Enqueue implements Client
func (q *Inline) Enqueue(ctx context.Context, t Task, opts Options) (string, error) {
	q.mu.RLock()
	h, ok := q.handlers[t.Type]
	q.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoHandler, t.Type)
	}

	id := uuid.NewString()
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	if q.Sync {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		return id, h(runCtx, t)
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		if opts.ProcessIn > 0 {
			time.Sleep(opts.ProcessIn)
		}
		attempts := max(opts.MaxRetry, 0) + 1
		for attempt := 1; attempt <= attempts; attempt++ {
			runCtx, cancel := context.WithTimeout(context.Background(), timeout)
			err := h(runCtx, t)
			cancel()
			if err == nil {
				return
			}
			log.Printf("Inline task %s (%s) attempt %d/%d failed: %v", t.Type, id, attempt, attempts, err)
		}
	}()

	return id, nil
}

// Wait blocks until every asynchronous task has finished
func (q *Inline) Wait() {
	q.wg.Wait()
}

// Close waits for in-flight tasks
func (q *Inline) Close() error {
	q.wg.Wait()
	return nil
}
