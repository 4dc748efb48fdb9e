// flex_test.go
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

package types

import (
	"encoding/json"
	"testing"
)

func TestFlexListSingleAndArray(t *testing.T) {
	var single FlexList[string]
	if err := json.Unmarshal([]byte(`"one"`), &single); err != nil {
		t.Fatalf("Unmarshal single failed: %v", err)
	}
	if len(single) != 1 || single[0] != "one" {
		t.Errorf("Expected [one], got %v", single)
	}

	var many FlexList[string]
	if err := json.Unmarshal([]byte(`["a","b"]`), &many); err != nil {
		t.Fatalf("Unmarshal array failed: %v", err)
	}
	if len(many.Slice()) != 2 {
		t.Errorf("Expected 2 items, got %v", many)
	}

	var empty FlexList[string]
	if err := json.Unmarshal([]byte(`null`), &empty); err != nil {
		t.Fatalf("Unmarshal null failed: %v", err)
	}
	if empty != nil {
		t.Errorf("Expected nil list, got %v", empty)
	}
}

func TestFlexUint64(t *testing.T) {
	var body struct {
		Version FlexUint64 `json:"version"`
	}

	if err := json.Unmarshal([]byte(`{"version":"7"}`), &body); err != nil {
		t.Fatalf("Unmarshal string failed: %v", err)
	}
	if body.Version.Uint64() != 7 {
		t.Errorf("Expected 7, got %d", body.Version)
	}

	if err := json.Unmarshal([]byte(`{"version":12}`), &body); err != nil {
		t.Fatalf("Unmarshal number failed: %v", err)
	}
	if body.Version.Uint64() != 12 {
		t.Errorf("Expected 12, got %d", body.Version)
	}

	if err := json.Unmarshal([]byte(`{"version":"-1"}`), &body); err == nil {
		t.Error("Expected error for negative version")
	}
}

func TestFlexInt(t *testing.T) {
	var v FlexInt
	if err := json.Unmarshal([]byte(`"-1"`), &v); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if v.Int() != -1 {
		t.Errorf("Expected -1, got %d", v)
	}
	if err := json.Unmarshal([]byte(`"abc"`), &v); err == nil {
		t.Error("Expected error for non-numeric string")
	}
}
