// app_test.go
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

package app_test

import (
	"path/filepath"
	"testing"

	"github.com/localnerve/haven/internal/app"
	"github.com/localnerve/haven/internal/config"
	"github.com/localnerve/haven/internal/models"
)

func TestBuildWithoutOptionalBackends(t *testing.T) {
	cfg := &config.Config{
		DBType:            "sqlite-pure",
		DBDatabase:        filepath.Join(t.TempDir(), "haven.db"),
		DBConnectionLimit: 1,
		DBAutoMigrate:     true,
		JWTSecret:         "secret",
		LLMProvider:       "anthropic",
	}

	deps, err := app.Build(cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer deps.Close()

	if deps.Inline == nil || deps.Queue == nil {
		t.Fatal("Expected the inline queue without REDIS_URL")
	}
	if deps.Cache != nil {
		t.Error("Expected no cache without REDIS_URL")
	}
	if deps.Bearer == nil || deps.Session != nil {
		t.Error("Expected only the JWT validator")
	}
	if deps.Voice.TTS != nil || deps.Voice.Transcriber != nil {
		t.Error("Expected voice vendors to be disabled")
	}
	if deps.Therapists.OCR != nil || deps.Therapists.Mailer != nil {
		t.Error("Expected therapist vendors to be disabled")
	}
	if deps.Notifier.Enabled() {
		t.Error("Expected crisis notifications to be disabled")
	}

	if !deps.DB.Migrator().HasTable(&models.AIPrompt{}) {
		t.Error("Expected migrations to run")
	}
}
