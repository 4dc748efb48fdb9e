// errors_test.go
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
	"errors"
	"testing"

	"github.com/localnerve/haven/internal/services"
)

// TestValidationErrorMessage tests that field problems are listed in name order
func TestValidationErrorMessage(t *testing.T) {
	err := &services.ValidationError{Fields: map[string]string{
		"title":   "required",
		"body":    "too long",
		"circle":  "unknown",
		"version": "must be a number",
	}}

	want := "invalid input: body: too long; circle: unknown; title: required; version: must be a number"
	for i := 0; i < 20; i++ {
		if got := err.Error(); got != want {
			t.Fatalf("Expected %q, got %q", want, got)
		}
	}
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Error("Expected ValidationError to match ErrInvalidInput")
	}
}
