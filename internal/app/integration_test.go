// integration_test.go
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

package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/localnerve/haven/internal/app"
	"github.com/localnerve/haven/internal/config"
	"github.com/localnerve/haven/internal/queue"
	"github.com/localnerve/haven/internal/services"
	"github.com/localnerve/haven/internal/testutil"
)

// TestWithContainers builds the full dependency graph against a real database and Redis.
// Set HAVEN_INTEGRATION=1 (and optionally DB_TYPE=mariadb) with Docker available.
func TestWithContainers(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if os.Getenv("HAVEN_INTEGRATION") == "" {
		t.Skip("HAVEN_INTEGRATION not set")
	}

	containers, err := testutil.StartContainers(t, testutil.ContainerOptions{})
	if err != nil {
		t.Fatalf("Failed to start containers: %v", err)
	}

	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("JWT_SECRET", "integration-secret")
	for k, v := range containers.Env() {
		t.Setenv(k, v)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	deps, err := app.Build(cfg)
	if err != nil {
		t.Fatalf("Failed to build app: %v", err)
	}
	defer deps.Close()

	if deps.Cache == nil {
		t.Fatal("Expected redis cache to be configured")
	}
	if deps.Inline != nil {
		t.Fatal("Expected asynq queue with REDIS_URL set")
	}

	t.Run("PromptVersionContention", func(t *testing.T) {
		testPromptVersionContention(t, deps)
	})

	t.Run("RedisCache", func(t *testing.T) {
		ctx := t.Context()
		if err := deps.Cache.Set(ctx, "integration", "value", time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, err := deps.Cache.Get(ctx, "integration")
		if err != nil || got != "value" {
			t.Fatalf("Expected cached value, got %q (%v)", got, err)
		}
		if n, err := deps.Cache.Del(ctx, "integration"); err != nil || n != 1 {
			t.Errorf("Expected one key deleted, got %d (%v)", n, err)
		}
	})

	t.Run("QueueRoundTrip", func(t *testing.T) {
		testQueueRoundTrip(t, cfg, deps)
	})

	if cfg.AuthzURL != "" {
		t.Run("AuthorizerAccount", func(t *testing.T) {
			token := testutil.AcquireAccount(t, cfg.AuthzURL, cfg.AuthzClientID,
				"integration@haven.local", testutil.GeneratePassword(), []string{"user"})
			if token == "" {
				t.Error("Expected an access token")
			}
		})
	}

	t.Run("Health", func(t *testing.T) {
		result := services.HealthCheck(t.Context(), cfg, deps.DB, deps.Cache)
		if result.Status != "healthy" {
			t.Errorf("Expected healthy, got %+v", result)
		}
	})
}

func testPromptVersionContention(t *testing.T, deps *app.App) {
	ctx := t.Context()
	in := services.PromptInput{Name: "Triage", Content: "You route conversations."}

	version, _, err := deps.Catalog.SetPrompt(ctx, "integration-triage", 0, in, "admin")
	if err != nil {
		t.Fatalf("Initial SetPrompt failed: %v", err)
	}
	if version != 1 {
		t.Fatalf("Expected version 1, got %d", version)
	}

	const writers = 5
	var wg sync.WaitGroup
	results := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			next := in
			next.Content = in.Content + " Revision " + string(rune('A'+i))
			_, _, err := deps.Catalog.SetPrompt(ctx, "integration-triage", version, next, "admin")
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var won, conflicts int
	for err := range results {
		switch {
		case err == nil:
			won++
		case errors.Is(err, services.ErrVersion):
			conflicts++
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if won != 1 || conflicts != writers-1 {
		t.Errorf("Expected 1 winner and %d conflicts, got %d and %d", writers-1, won, conflicts)
	}

	revisions, err := deps.Catalog.ListRevisions("integration-triage")
	if err != nil {
		t.Fatalf("ListRevisions failed: %v", err)
	}
	if len(revisions) != 2 {
		t.Errorf("Expected 2 revisions, got %d", len(revisions))
	}
}

func testQueueRoundTrip(t *testing.T, cfg *config.Config, deps *app.App) {
	server, err := queue.NewAsynqServer(cfg.RedisURL, 2, nil)
	if err != nil {
		t.Fatalf("Failed to create worker: %v", err)
	}

	received := make(chan string, 1)
	server.Register("integration:ping", func(ctx context.Context, task queue.Task) error {
		var payload struct {
			Message string `json:"message"`
		}
		if err := task.Decode(&payload); err != nil {
			return err
		}
		received <- payload.Message
		return nil
	})

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- server.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	task, err := queue.NewJSONTask("integration:ping", map[string]string{"message": "pong"})
	if err != nil {
		t.Fatalf("NewJSONTask failed: %v", err)
	}
	if _, err := deps.Queue.Enqueue(t.Context(), task, queue.Options{Queue: queue.QueueDefault}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	select {
	case msg := <-received:
		if msg != "pong" {
			t.Errorf("Expected pong, got %q", msg)
		}
	case <-time.After(30 * time.Second):
		t.Fatal("Timed out waiting for task")
	}
}
