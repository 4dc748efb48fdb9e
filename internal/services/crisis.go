// crisis.go
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
	"strings"
	"unicode"

	"github.com/localnerve/haven/internal/metrics"
)

// Crisis levels
const (
	CrisisNone     = "none"
	CrisisElevated = "elevated"
	CrisisAcute    = "acute"
)

// Phrases are matched against normalized text on word boundaries.
var acutePhrases = []string{
	"kill myself",
	"killing myself",
	"end my life",
	"ending my life",
	"take my own life",
	"want to die",
	"going to die tonight",
	"suicide plan",
	"plan to kill",
	"commit suicide",
	"overdose tonight",
	"jump off",
	"hang myself",
	"shoot myself",
	"better off dead",
	"no reason to live",
	"goodbye forever",
}

var elevatedPhrases = []string{
	"suicidal",
	"suicide",
	"self harm",
	"selfharm",
	"cutting myself",
	"hurt myself",
	"hurting myself",
	"cant go on",
	"cannot go on",
	"hopeless",
	"worthless",
	"no way out",
	"give up on everything",
	"disappear forever",
	"dont want to be here",
	"do not want to be here",
	"wish i was dead",
	"wish i were dead",
}

// NormalizeText lower-cases text, drops punctuation and collapses whitespace
func NormalizeText(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	space := true
	for _, r := range strings.ToLower(text) {
		switch {
		case r == '\'' || r == '’':
			// contractions collapse: can't -> cant
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			sb.WriteRune(r)
			space = false
		case unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r):
			if !space {
				sb.WriteByte(' ')
				space = true
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

// DetectCrisis classifies a chat message as none, elevated or acute and counts detections
func DetectCrisis(text string) string {
	level := crisisLevel(text)
	if level != CrisisNone {
		metrics.CrisisDetections.WithLabelValues(level).Inc()
	}
	return level
}

func crisisLevel(text string) string {
	normalized := " " + NormalizeText(text) + " "
	switch {
	case containsPhrase(normalized, acutePhrases):
		return CrisisAcute
	case containsPhrase(normalized, elevatedPhrases):
		return CrisisElevated
	}
	return CrisisNone
}

// containsPhrase expects normalized text padded with a space on each side
func containsPhrase(normalized string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(normalized, " "+p+" ") {
			return true
		}
	}
	return false
}
