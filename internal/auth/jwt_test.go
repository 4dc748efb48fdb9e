// jwt_test.go
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

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTValidatorRoundTrip(t *testing.T) {
	v := NewJWTValidator("test-secret", "")
	token, err := v.Sign(&Identity{UserID: "user-1", Email: "u@example.com", Roles: []string{RoleTherapist}}, time.Hour)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	identity, err := v.Validate(context.Background(), token, []string{RoleTherapist})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if identity.UserID != "user-1" || identity.Email != "u@example.com" {
		t.Errorf("Unexpected identity %+v", identity)
	}
	if !identity.HasRole(RoleUser) {
		t.Error("Expected authenticated tokens to carry the user role")
	}

	if _, err := v.Validate(context.Background(), token, []string{RoleAdmin}); !errors.Is(err, ErrMissingRole) {
		t.Errorf("Expected ErrMissingRole, got %v", err)
	}
}

func TestJWTValidatorRejectsBadTokens(t *testing.T) {
	v := NewJWTValidator("test-secret", "haven")
	other := NewJWTValidator("other-secret", "haven")

	token, _ := other.Sign(&Identity{UserID: "user-1"}, time.Hour)
	if _, err := v.Validate(context.Background(), token, nil); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("Expected ErrInvalidCredential for wrong secret, got %v", err)
	}

	expired, _ := v.Sign(&Identity{UserID: "user-1"}, -time.Minute)
	if _, err := v.Validate(context.Background(), expired, nil); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("Expected ErrInvalidCredential for expired token, got %v", err)
	}

	noAud := NewJWTValidator("test-secret", "")
	token, _ = noAud.Sign(&Identity{UserID: "user-1"}, time.Hour)
	if _, err := v.Validate(context.Background(), token, nil); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("Expected ErrInvalidCredential for missing audience, got %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(time.Hour).Unix()})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := v.Validate(context.Background(), unsigned, nil); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("Expected ErrInvalidCredential for alg none, got %v", err)
	}
}

func TestAdminHoldsEveryRole(t *testing.T) {
	identity := &Identity{UserID: "a", Roles: normalizeRoles([]string{"admin"})}
	for _, role := range []string{RoleUser, RoleTherapist, RoleAdmin} {
		if !identity.HasRole(role) {
			t.Errorf("Expected admin to hold %s", role)
		}
	}

	var nobody *Identity
	if nobody.HasRole(RoleUser) {
		t.Error("Expected nil identity to hold no roles")
	}
}

func TestNormalizeRoles(t *testing.T) {
	roles := normalizeRoles([]string{"authenticated", "", "anon", "therapist", "therapist"})
	if len(roles) != 2 || roles[0] != RoleUser || roles[1] != RoleTherapist {
		t.Errorf("Unexpected roles %v", roles)
	}
	if got := normalizeRoles(nil); len(got) != 0 {
		t.Errorf("Expected no roles, got %v", got)
	}
}
