// tasks.go
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

	"github.com/localnerve/haven/internal/metrics"
	"github.com/localnerve/haven/internal/queue"
)

// RegisterTasks binds every background task type to its handler
func RegisterTasks(r queue.Registrar, audio *AudioService, notifier *Notifier) {
	r.Register(queue.TypeAudioCombine, observed(queue.TypeAudioCombine, audio.HandleCombineTask))
	r.Register(queue.TypeCrisisNotify, observed(queue.TypeCrisisNotify, notifier.HandleCrisisTask))
}

func observed(taskType string, h queue.Handler) queue.Handler {
	return func(ctx context.Context, task queue.Task) error {
		err := h(ctx, task)
		metrics.ObserveTask(taskType, err)
		return err
	}
}
