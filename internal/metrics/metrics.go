// metrics.go
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

// Package metrics holds the service's Prometheus collectors. They register on the default
// registry, which fiberprometheus serves at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CrisisDetections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "haven",
		Name:      "crisis_detections_total",
		Help:      "Chat messages classified above crisis level none, by level.",
	}, []string{"level"})

	ModerationDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "haven",
		Name:      "moderation_decisions_total",
		Help:      "Community moderation decisions, by action and source.",
	}, []string{"action", "source"})

	LLMLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "haven",
		Name:      "llm_request_duration_seconds",
		Help:      "LLM completion latency, by provider and outcome.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	}, []string{"provider", "outcome"})

	TasksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "haven",
		Name:      "tasks_processed_total",
		Help:      "Background tasks handled, by type and outcome.",
	}, []string{"type", "outcome"})
)

// ObserveLLM records one completion call
func ObserveLLM(provider string, start time.Time, err error) {
	LLMLatency.WithLabelValues(provider, outcome(err)).Observe(time.Since(start).Seconds())
}

// ObserveTask records one background task run
func ObserveTask(taskType string, err error) {
	TasksProcessed.WithLabelValues(taskType, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
