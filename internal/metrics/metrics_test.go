// metrics_test.go
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

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveTask(t *testing.T) {
	before := testutil.ToFloat64(TasksProcessed.WithLabelValues("audio:combine", "error"))
	ObserveTask("audio:combine", errors.New("boom"))
	after := testutil.ToFloat64(TasksProcessed.WithLabelValues("audio:combine", "error"))

	if after-before != 1 {
		t.Errorf("Expected error counter to grow by 1, got %v", after-before)
	}
}

func TestObserveLLM(t *testing.T) {
	ObserveLLM("anthropic", time.Now().Add(-time.Second), nil)
	if n := testutil.CollectAndCount(LLMLatency); n == 0 {
		t.Error("Expected at least one LLM latency series")
	}
}
