// main.go
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

package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/localnerve/haven/internal/app"
	"github.com/localnerve/haven/internal/config"
	"github.com/localnerve/haven/internal/queue"
	"github.com/localnerve/haven/internal/services"
)

// The worker processes audio combination and crisis notification tasks enqueued by the server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.RedisURL == "" {
		log.Fatal("REDIS_URL is required to run the worker")
	}

	deps, err := app.Build(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer deps.Close()

	server, err := queue.NewAsynqServer(cfg.RedisURL, cfg.QueueConcurrency, nil)
	if err != nil {
		log.Fatalf("Failed to create worker: %v", err)
	}
	services.RegisterTasks(server, deps.Audio, deps.Notifier)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Worker running with concurrency %d", cfg.QueueConcurrency)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("Worker failed: %v", err)
	}
	log.Println("Worker stopped")
}
