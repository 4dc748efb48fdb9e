// catalog_test.go
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

	"github.com/localnerve/haven/internal/services"
	"github.com/localnerve/haven/internal/testutil"
)

func newCatalog(t *testing.T) (*services.Catalog, *testutil.MemoryCache) {
	t.Helper()
	c := testutil.NewMemoryCache()
	return &services.Catalog{DB: testutil.SetupTestDB(t), Cache: c}, c
}

// TestSetPromptVersioning checks create, update, no-op and stale writes
func TestSetPromptVersioning(t *testing.T) {
	ctx := context.Background()
	catalog, _ := newCatalog(t)

	v, rows, err := catalog.SetPrompt(ctx, "sleep", 0, services.PromptInput{Content: "You help with sleep."}, "admin-1")
	if err != nil {
		t.Fatalf("SetPrompt create failed: %v", err)
	}
	if v != 1 || rows != 1 {
		t.Errorf("Expected version 1 and 1 row, got %d and %d", v, rows)
	}

	// Unchanged content keeps the version
	v, rows, err = catalog.SetPrompt(ctx, "sleep", 1, services.PromptInput{Content: "You help with sleep."}, "admin-1")
	if err != nil {
		t.Fatalf("SetPrompt no-op failed: %v", err)
	}
	if v != 1 || rows != 0 {
		t.Errorf("Expected version 1 and 0 rows for a no-op, got %d and %d", v, rows)
	}

	v, _, err = catalog.SetPrompt(ctx, "sleep", 1, services.PromptInput{Content: "You help with rest."}, "admin-2")
	if err != nil {
		t.Fatalf("SetPrompt update failed: %v", err)
	}
	if v != 2 {
		t.Errorf("Expected version 2, got %d", v)
	}

	if _, _, err := catalog.SetPrompt(ctx, "sleep", 1, services.PromptInput{Content: "stale"}, "admin-3"); !errors.Is(err, services.ErrVersion) {
		t.Errorf("Expected ErrVersion for stale version, got %v", err)
	}
	if _, _, err := catalog.SetPrompt(ctx, "fresh", 3, services.PromptInput{Content: "x"}, "admin-3"); !errors.Is(err, services.ErrVersion) {
		t.Errorf("Expected ErrVersion for a new key with non-zero version, got %v", err)
	}

	revisions, err := catalog.ListRevisions("sleep")
	if err != nil {
		t.Fatalf("ListRevisions failed: %v", err)
	}
	if len(revisions) != 2 || revisions[0].PromptVersion != 2 || revisions[0].UpdatedBy != "admin-2" {
		t.Errorf("Unexpected revisions %+v", revisions)
	}

	prompt, err := catalog.GetPrompt("sleep")
	if err != nil {
		t.Fatalf("GetPrompt failed: %v", err)
	}
	if prompt.Temperature != 0.7 || !prompt.Active {
		t.Errorf("Expected default temperature and active, got %v %v", prompt.Temperature, prompt.Active)
	}
}

// TestSetPromptValidation rejects empty content
func TestSetPromptValidation(t *testing.T) {
	catalog, _ := newCatalog(t)
	_, _, err := catalog.SetPrompt(context.Background(), "k", 0, services.PromptInput{}, "admin")
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

// TestActivePromptCache checks cached reads and invalidation on write
func TestActivePromptCache(t *testing.T) {
	ctx := context.Background()
	catalog, c := newCatalog(t)

	if _, err := catalog.ActivePrompt(ctx, "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	if _, _, err := catalog.SetPrompt(ctx, "triage", 0, services.PromptInput{Content: "v1"}, "a"); err != nil {
		t.Fatalf("SetPrompt failed: %v", err)
	}
	p, err := catalog.ActivePrompt(ctx, "triage")
	if err != nil || p.Content != "v1" {
		t.Fatalf("Expected v1, got %+v, %v", p, err)
	}
	if !c.Has("prompt:triage") {
		t.Fatal("Expected prompt to be cached")
	}

	if _, _, err := catalog.SetPrompt(ctx, "triage", 1, services.PromptInput{Content: "v2"}, "a"); err != nil {
		t.Fatalf("SetPrompt failed: %v", err)
	}
	if c.Has("prompt:triage") {
		t.Error("Expected cache entry to be invalidated")
	}
	p, _ = catalog.ActivePrompt(ctx, "triage")
	if p.Content != "v2" {
		t.Errorf("Expected v2 after invalidation, got %q", p.Content)
	}

	inactive := false
	if _, _, err := catalog.SetPrompt(ctx, "triage", 2, services.PromptInput{Content: "v2", Active: &inactive}, "a"); err != nil {
		t.Fatalf("SetPrompt failed: %v", err)
	}
	if _, err := catalog.ActivePrompt(ctx, "triage"); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected inactive prompt to be not found, got %v", err)
	}
}

// TestDeletePrompt checks version enforcement on delete
func TestDeletePrompt(t *testing.T) {
	ctx := context.Background()
	catalog, _ := newCatalog(t)

	if _, _, err := catalog.SetPrompt(ctx, "gone", 0, services.PromptInput{Content: "x"}, "a"); err != nil {
		t.Fatalf("SetPrompt failed: %v", err)
	}
	if _, err := catalog.DeletePrompt(ctx, "gone", 0); !errors.Is(err, services.ErrVersion) {
		t.Errorf("Expected ErrVersion, got %v", err)
	}
	if _, err := catalog.DeletePrompt(ctx, "gone", 1); err != nil {
		t.Fatalf("DeletePrompt failed: %v", err)
	}
	if _, err := catalog.DeletePrompt(ctx, "gone", 1); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

// TestSingleDefaultSpecialist checks that setting a default clears the previous one
func TestSingleDefaultSpecialist(t *testing.T) {
	ctx := context.Background()
	catalog, _ := newCatalog(t)

	if _, err := catalog.CreateSpecialist(ctx, services.SpecialistInput{Key: "a", Name: "A", PromptKey: "a", IsDefault: true}); err != nil {
		t.Fatalf("CreateSpecialist a failed: %v", err)
	}
	if _, err := catalog.CreateSpecialist(ctx, services.SpecialistInput{Key: "b", Name: "B", PromptKey: "b", IsDefault: true}); err != nil {
		t.Fatalf("CreateSpecialist b failed: %v", err)
	}
	if _, err := catalog.CreateSpecialist(ctx, services.SpecialistInput{Key: "a", Name: "Dup", PromptKey: "a"}); !errors.Is(err, services.ErrConflict) {
		t.Errorf("Expected ErrConflict for duplicate key, got %v", err)
	}

	all, err := catalog.ListSpecialists()
	if err != nil {
		t.Fatalf("ListSpecialists failed: %v", err)
	}
	defaults := 0
	for _, s := range all {
		if s.IsDefault {
			defaults++
			if s.Key != "b" {
				t.Errorf("Expected b to be default, got %s", s.Key)
			}
		}
	}
	if defaults != 1 {
		t.Errorf("Expected exactly one default, got %d", defaults)
	}

	if _, err := catalog.UpdateSpecialist(ctx, "a", services.SpecialistInput{Name: "A", PromptKey: "a", IsDefault: true}); err != nil {
		t.Fatalf("UpdateSpecialist failed: %v", err)
	}
	b, _ := catalog.SpecialistByKey("b")
	if b.IsDefault {
		t.Error("Expected b to lose default")
	}

	if err := catalog.DeleteSpecialist(ctx, "zzz"); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
