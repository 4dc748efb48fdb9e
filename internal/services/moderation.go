// moderation.go
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
	"log"

	"github.com/localnerve/haven/internal/ai"
	"github.com/localnerve/haven/internal/metrics"
)

// Moderation actions
const (
	ModerationAllow  = "allow"
	ModerationReview = "review"
	ModerationBlock  = "block"
)

// DefaultBlocklist holds phrases never allowed in community posts. Matching is on
// normalized text and word boundaries.
var DefaultBlocklist = []string{
	"kill yourself",
	"kys",
	"go die",
	"pro ana",
	"proana",
	"thinspo",
	"thinspiration",
	"how to cut deeper",
	"best way to overdose",
	"buy followers",
	"crypto giveaway",
	"dm me for pills",
}

// ModerationDecision is the outcome of screening one submission
type ModerationDecision struct {
	Action  string   `json:"action"`
	Crisis  bool     `json:"crisis"`
	Reasons []string `json:"reasons,omitempty"`
	Source  string   `json:"source"`
}

// ContentModerator screens community submissions: a local blocklist and crisis phrases
// first, then the provider's classification when one is configured.
type ContentModerator struct {
	Moderator ai.Moderator
	Blocklist []string
}

// Moderate decides whether text is allowed, held for review or blocked
func (m *ContentModerator) Moderate(ctx context.Context, text string) ModerationDecision {
	d := m.decide(ctx, text)
	metrics.ModerationDecisions.WithLabelValues(d.Action, d.Source).Inc()
	return d
}

func (m *ContentModerator) decide(ctx context.Context, text string) ModerationDecision {
	normalized := " " + NormalizeText(text) + " "

	blocklist := DefaultBlocklist
	if m != nil && m.Blocklist != nil {
		blocklist = m.Blocklist
	}
	for _, phrase := range blocklist {
		if containsPhrase(normalized, []string{NormalizeText(phrase)}) {
			return ModerationDecision{Action: ModerationBlock, Reasons: []string{"blocked_phrase"}, Source: "keyword"}
		}
	}

	// A crisis phrase always holds for review with resources, whatever the provider says.
	if crisisLevel(text) != CrisisNone {
		return ModerationDecision{Action: ModerationReview, Crisis: true, Reasons: []string{"crisis_language"}, Source: "keyword"}
	}

	if m == nil || m.Moderator == nil {
		return ModerationDecision{Action: ModerationAllow, Source: "keyword"}
	}

	verdict, err := m.Moderator.Moderate(ctx, text)
	if err != nil {
		log.Printf("Moderation provider failed, using keyword decision: %v", err)
		return ModerationDecision{Action: ModerationAllow, Source: "fallback"}
	}

	switch {
	case verdict.Has("self-harm"):
		return ModerationDecision{Action: ModerationReview, Crisis: true, Reasons: verdict.Categories, Source: "provider"}
	case verdict.Has("hate", "harassment", "violence", "sexual"):
		return ModerationDecision{Action: ModerationBlock, Reasons: verdict.Categories, Source: "provider"}
	case verdict.Flagged:
		reasons := verdict.Categories
		if len(reasons) == 0 {
			reasons = []string{"flagged"}
		}
		return ModerationDecision{Action: ModerationReview, Reasons: reasons, Source: "provider"}
	}

	return ModerationDecision{Action: ModerationAllow, Source: "provider"}
}
