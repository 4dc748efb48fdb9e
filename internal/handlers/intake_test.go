// intake_test.go
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

package handlers_test

import (
	"testing"

	"github.com/localnerve/haven/internal/handlers"
	"github.com/localnerve/haven/internal/models"
	"github.com/localnerve/haven/internal/services"
	"github.com/localnerve/haven/internal/testutil"
)

// TestIntakeRoutes tests the next question, answer and progress routes
func TestIntakeRoutes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	question := models.IntakeQuestion{Kind: models.IntakePatient, Key: "goals", Prompt: "What brings you here?", InputType: "text", Position: 1, Active: true}
	if err := db.Create(&question).Error; err != nil {
		t.Fatalf("Failed to seed question: %v", err)
	}

	h := &handlers.IntakeHandler{DB: db, Profiles: &services.ProfileService{DB: db}}
	app := newApp(testutil.Identity("user-1"))
	app.Get("/api/intake/progress", h.Progress)
	app.Get("/api/intake/:kind/next", h.NextQuestion)
	app.Post("/api/intake/:kind/answers", h.SubmitAnswer)
	app.Get("/api/intake/:kind/answers", h.ListAnswers)

	resp := doJSON(t, app, "GET", "/api/intake/patient/next", nil)
	assertStatus(t, resp, 200)
	var next map[string]interface{}
	parseJSON(t, resp, &next)
	if next["key"] != "goals" {
		t.Errorf("Expected goals question, got %v", next)
	}

	resp = doJSON(t, app, "GET", "/api/intake/visitor/next", nil)
	assertStatus(t, resp, 400)

	resp = doJSON(t, app, "POST", "/api/intake/patient/answers", map[string]interface{}{"questionId": itoa(question.ID), "answer": ""})
	assertStatus(t, resp, 400)

	resp = doJSON(t, app, "POST", "/api/intake/patient/answers", map[string]interface{}{"questionId": 9999, "answer": "x"})
	assertStatus(t, resp, 404)

	// questionId accepted as a string
	resp = doJSON(t, app, "POST", "/api/intake/patient/answers", map[string]interface{}{"questionId": itoa(question.ID), "answer": "Stress"})
	assertStatus(t, resp, 200)

	resp = doJSON(t, app, "GET", "/api/intake/patient/next", nil)
	assertStatus(t, resp, 204)

	resp = doJSON(t, app, "GET", "/api/intake/progress?kind=patient&kind=patient,provider", nil)
	assertStatus(t, resp, 200)
	var progress []services.IntakeProgressResult
	parseJSON(t, resp, &progress)
	if len(progress) != 2 {
		t.Fatalf("Expected progress for 2 kinds, got %d", len(progress))
	}
	if progress[0].Kind != "patient" || !progress[0].Complete || progress[0].Answered != 1 {
		t.Errorf("Unexpected patient progress %+v", progress[0])
	}
	if progress[1].Kind != "provider" || progress[1].Total != 0 {
		t.Errorf("Unexpected provider progress %+v", progress[1])
	}
}

// TestProfileRoutes tests profile read and the shallow merge fallback
func TestProfileRoutes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := &handlers.IntakeHandler{DB: db, Profiles: &services.ProfileService{DB: db}}
	app := newApp(testutil.Identity("user-1"))
	app.Get("/api/profile", h.GetProfile)
	app.Patch("/api/profile", h.MergeProfile)

	resp := doJSON(t, app, "PATCH", "/api/profile", map[string]interface{}{
		"displayName": "Jo",
		"updates":     map[string]interface{}{"goals": []string{"sleep"}, "pronouns": "they/them"},
	})
	assertStatus(t, resp, 200)

	resp = doJSON(t, app, "PATCH", "/api/profile", map[string]interface{}{
		"updates": map[string]interface{}{"pronouns": nil},
	})
	assertStatus(t, resp, 200)

	resp = doJSON(t, app, "GET", "/api/profile", nil)
	assertStatus(t, resp, 200)
	var profile map[string]interface{}
	parseJSON(t, resp, &profile)
	if profile["displayName"] != "Jo" {
		t.Errorf("Expected display name Jo, got %v", profile["displayName"])
	}
	doc, _ := profile["profile"].(map[string]interface{})
	if _, ok := doc["pronouns"]; ok {
		t.Errorf("Expected pronouns removed, got %v", doc)
	}
	if doc["goals"] == nil {
		t.Errorf("Expected goals kept, got %v", doc)
	}
}
