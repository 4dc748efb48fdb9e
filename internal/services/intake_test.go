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

package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/localnerve/haven/internal/ai"
	"github.com/localnerve/haven/internal/models"
	"github.com/localnerve/haven/internal/services"
	"github.com/localnerve/haven/internal/testutil"
	"gorm.io/gorm"
)

func seedQuestions(t *testing.T, db *gorm.DB) []models.IntakeQuestion {
	t.Helper()
	questions := []models.IntakeQuestion{
		{Kind: models.IntakePatient, Key: "goals", Prompt: "What brings you here?", InputType: "text", Position: 1, Active: true},
		{Kind: models.IntakePatient, Key: "sleep", Prompt: "How is your sleep?", InputType: "choice", Options: models.StringList{"Good", "Poor"}, Position: 2, Active: true},
		{Kind: models.IntakePatient, Key: "retired", Prompt: "Old question", InputType: "text", Position: 3, Active: false},
		{Kind: models.IntakeProvider, Key: "license", Prompt: "License state?", InputType: "text", Position: 1, Active: true},
	}
	if err := db.Create(&questions).Error; err != nil {
		t.Fatalf("Failed to seed questions: %v", err)
	}
	return questions
}

// TestIntakeFlow tests next question, answer upsert and progress
func TestIntakeFlow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	questions := seedQuestions(t, db)
	defer services.SetRandIntN(func(int) int { return 0 })()

	q, err := services.NextQuestion(db, "user-1", models.IntakePatient)
	if err != nil {
		t.Fatalf("NextQuestion failed: %v", err)
	}
	if q.Key != "goals" {
		t.Errorf("Expected goals first, got %s", q.Key)
	}

	if _, err := services.SubmitAnswer(db, "user-1", models.IntakePatient, questions[0].ID, "Stress at work", ""); err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}
	answer, err := services.SubmitAnswer(db, "user-1", models.IntakePatient, questions[0].ID, "Stress at home", "")
	if err != nil {
		t.Fatalf("SubmitAnswer upsert failed: %v", err)
	}
	if answer.Answer != "Stress at home" {
		t.Errorf("Expected replaced answer, got %q", answer.Answer)
	}

	answers, _ := services.ListAnswers(db, "user-1", models.IntakePatient)
	if len(answers) != 1 {
		t.Errorf("Expected a single stored answer, got %d", len(answers))
	}

	progress, err := services.IntakeProgress(db, "user-1", models.IntakePatient)
	if err != nil {
		t.Fatalf("IntakeProgress failed: %v", err)
	}
	if progress.Answered != 1 || progress.Total != 2 || progress.Complete {
		t.Errorf("Unexpected progress %+v", progress)
	}

	q, err = services.NextQuestion(db, "user-1", models.IntakePatient)
	if err != nil || q.Key != "sleep" {
		t.Fatalf("Expected sleep question next, got %+v, %v", q, err)
	}

	if _, err := services.SubmitAnswer(db, "user-1", models.IntakePatient, q.ID, "Terrible", ""); !errors.Is(err, services.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for an unknown option, got %v", err)
	}
	if _, err := services.SubmitAnswer(db, "user-1", models.IntakePatient, q.ID, "poor", ""); err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}

	if _, err := services.NextQuestion(db, "user-1", models.IntakePatient); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected ErrNotFound when complete, got %v", err)
	}
	progress, _ = services.IntakeProgress(db, "user-1", models.IntakePatient)
	if !progress.Complete {
		t.Errorf("Expected complete progress, got %+v", progress)
	}
}

// TestSubmitAnswerValidation tests kind checks
func TestSubmitAnswerValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	questions := seedQuestions(t, db)

	if _, err := services.NextQuestion(db, "user-1", "astronaut"); !errors.Is(err, services.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for kind, got %v", err)
	}
	if _, err := services.SubmitAnswer(db, "user-1", models.IntakePatient, questions[3].ID, "CA", ""); !errors.Is(err, services.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for a provider question, got %v", err)
	}
	if _, err := services.SubmitAnswer(db, "user-1", models.IntakePatient, questions[2].ID, "x", ""); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for an inactive question, got %v", err)
	}
	if _, err := services.SubmitAnswer(db, "user-1", models.IntakePatient, questions[0].ID, "  ", ""); !errors.Is(err, services.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for a blank answer, got %v", err)
	}
}

// TestMergeProfileByModel tests a fenced model reply
func TestMergeProfileByModel(t *testing.T) {
	db := testutil.SetupTestDB(t)
	completer := &ai.FakeCompleter{Reply: "```json\n{\"name\":\"Ana\",\"goals\":[\"sleep\",\"focus\"]}\n```"}
	svc := &services.ProfileService{DB: db, Completer: completer}

	name := " Ana "
	res, err := svc.MergeProfile(context.Background(), "user-1", &name, map[string]interface{}{"goals": []string{"focus"}})
	if err != nil {
		t.Fatalf("MergeProfile failed: %v", err)
	}
	if res.Strategy != services.MergeByModel {
		t.Errorf("Expected model strategy, got %s", res.Strategy)
	}
	if res.Profile.DisplayName != "Ana" {
		t.Errorf("Expected trimmed display name, got %q", res.Profile.DisplayName)
	}
	obj, _ := res.Profile.Profile.Object()
	if goals, ok := obj["goals"].([]interface{}); !ok || len(goals) != 2 {
		t.Errorf("Expected merged goals, got %v", obj["goals"])
	}
	if len(completer.Last().Messages) != 1 {
		t.Errorf("Expected a single user message to the model, got %d", len(completer.Last().Messages))
	}
}

// TestMergeProfileFallback tests the shallow merge used when the model reply is unusable
func TestMergeProfileFallback(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := &services.ProfileService{DB: db, Completer: &ai.FakeCompleter{Reply: "I can't do that"}}

	if _, err := svc.MergeProfile(ctx, "user-1", nil, map[string]interface{}{"mood": "low", "pets": "cat"}); err != nil {
		t.Fatalf("MergeProfile failed: %v", err)
	}
	res, err := svc.MergeProfile(ctx, "user-1", nil, map[string]interface{}{"mood": "better", "pets": nil})
	if err != nil {
		t.Fatalf("MergeProfile failed: %v", err)
	}
	if res.Strategy != services.MergeByFallback {
		t.Errorf("Expected fallback strategy, got %s", res.Strategy)
	}
	obj, _ := res.Profile.Profile.Object()
	if obj["mood"] != "better" {
		t.Errorf("Expected mood to be replaced, got %v", obj["mood"])
	}
	if _, ok := obj["pets"]; ok {
		t.Error("Expected nil update to delete the key")
	}

	if _, err := svc.MergeProfile(ctx, "user-1", nil, nil); !errors.Is(err, services.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty updates, got %v", err)
	}

	empty, err := svc.GetProfile("user-2")
	if err != nil || empty.UserID != "user-2" {
		t.Errorf("Expected empty profile for a new user, got %+v, %v", empty, err)
	}
}

// TestExtractJSONObject tests tolerant parsing of model replies
func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		reply string
		ok    bool
	}{
		{`{"a":1}`, true},
		{"```json\n{\"a\":1}\n```", true},
		{"```\n{\"a\":{\"b\":2}}\n```", true},
		{`Here you go: {"a":1} hope that helps`, false},
		{`[1,2]`, false},
		{`[{"a":1}]`, false},
		{"```json\n[{\"a\":1}]\n```", false},
		{`{"a":1} {"b":2}`, false},
		{`nothing`, false},
	}
	for _, tt := range tests {
		_, err := services.ExtractJSONObject(tt.reply)
		if (err == nil) != tt.ok {
			t.Errorf("ExtractJSONObject(%q) error = %v, want ok %v", tt.reply, err, tt.ok)
		}
	}
}
