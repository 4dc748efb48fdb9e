// crisis_test.go
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

package services_test

import (
	"testing"

	"github.com/localnerve/haven/internal/models"
	"github.com/localnerve/haven/internal/services"
)

// TestDetectCrisis checks the three crisis levels and normalization
func TestDetectCrisis(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"I had a rough day at work", services.CrisisNone},
		{"I feel HOPELESS lately...", services.CrisisElevated},
		{"I can't go on like this", services.CrisisElevated},
		{"I want to   KILL myself!!", services.CrisisAcute},
		{"I've been thinking I'd be better off dead.", services.CrisisAcute},
		{"the skill myself is something", services.CrisisNone},
	}
	for _, tt := range tests {
		if got := services.DetectCrisis(tt.text); got != tt.want {
			t.Errorf("DetectCrisis(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

// TestNormalizeText checks punctuation and whitespace handling
func TestNormalizeText(t *testing.T) {
	got := services.NormalizeText("  Don't   STOP—now!\n")
	if got != "dont stop now" {
		t.Errorf("Unexpected normalization %q", got)
	}
}

func specialistFixtures() []models.Specialist {
	return []models.Specialist{
		{Key: "general", Name: "Companion", PromptKey: "general", IsDefault: true, Active: true},
		{Key: "sleep", Name: "Sleep Coach", PromptKey: "sleep", Keywords: models.StringList{"sleep", "insomnia", "tired"}, Priority: 1, Active: true},
		{Key: "anxiety", Name: "Anxiety Guide", PromptKey: "anxiety", Keywords: models.StringList{"anxious", "panic", "tired"}, Priority: 5, Active: true},
		{Key: services.CrisisSpecialistKey, Name: "Crisis Support", PromptKey: "crisis", Keywords: models.StringList{"crisis"}, Priority: 10, Active: true},
		{Key: "retired", Name: "Old", PromptKey: "old", Keywords: models.StringList{"sleep"}, Priority: 99, Active: false},
	}
}

// TestSelectSpecialist checks scoring, tie breaking and fallbacks
func TestSelectSpecialist(t *testing.T) {
	specialists := specialistFixtures()

	tests := []struct {
		name    string
		message string
		current string
		level   string
		want    string
	}{
		{"keyword hits win", "I can't sleep, insomnia every night", "", services.CrisisNone, "sleep"},
		{"tie goes to priority", "I am so tired", "", services.CrisisNone, "anxiety"},
		{"no hits keeps current", "hello there", "sleep", services.CrisisNone, "sleep"},
		{"no hits uses default", "hello there", "", services.CrisisNone, "general"},
		{"unknown current uses default", "hello there", "gone", services.CrisisNone, "general"},
		{"elevated favors crisis support", "I feel hopeless and anxious", "", services.CrisisElevated, services.CrisisSpecialistKey},
		{"inactive ignored", "sleep", "", services.CrisisNone, "sleep"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := services.SelectSpecialist(specialists, tt.message, tt.current, tt.level)
			if got == nil || got.Key != tt.want {
				t.Errorf("Expected %s, got %+v", tt.want, got)
			}
		})
	}
}

// TestSelectSpecialistEmpty returns nil without specialists
func TestSelectSpecialistEmpty(t *testing.T) {
	if got := services.SelectSpecialist(nil, "sleep", "", services.CrisisNone); got != nil {
		t.Errorf("Expected nil, got %+v", got)
	}
}
