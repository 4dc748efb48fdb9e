// triage.go
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

	"github.com/localnerve/haven/internal/models"
)

// CrisisSpecialistKey is the specialist considered whenever a message reads as elevated risk
const CrisisSpecialistKey = "crisis_support"

const crisisBonus = 2

// SelectSpecialist picks the specialist for a message. Each active specialist scores one
// point per keyword found in the message; the highest score wins and ties go to the higher
// priority. With no hits the current specialist is kept, falling back to the default.
func SelectSpecialist(specialists []models.Specialist, message, currentKey, crisisLevel string) *models.Specialist {
	normalized := " " + NormalizeText(message) + " "

	var best *models.Specialist
	bestScore := 0
	for i := range specialists {
		s := &specialists[i]
		if !s.Active {
			continue
		}
		score := 0
		for _, kw := range s.Keywords {
			kw = NormalizeText(kw)
			if kw != "" && strings.Contains(normalized, " "+kw+" ") {
				score++
			}
		}
		if crisisLevel == CrisisElevated && s.Key == CrisisSpecialistKey {
			score += crisisBonus
		}
		if score == 0 {
			continue
		}
		if best == nil || score > bestScore || (score == bestScore && s.Priority > best.Priority) {
			best, bestScore = s, score
		}
	}
	if best != nil {
		return best
	}

	var fallback *models.Specialist
	for i := range specialists {
		s := &specialists[i]
		if !s.Active {
			continue
		}
		if currentKey != "" && s.Key == currentKey {
			return s
		}
		if s.IsDefault && fallback == nil {
			fallback = s
		}
	}
	if fallback == nil {
		for i := range specialists {
			if specialists[i].Active {
				return &specialists[i]
			}
		}
	}
	return fallback
}
