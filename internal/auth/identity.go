// identity.go
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

// Package auth validates bearer tokens and session cookies into identities.
package auth

import (
	"context"
	"errors"
	"slices"
)

// Roles understood by route guards
const (
	RoleUser      = "user"
	RoleTherapist = "therapist"
	RoleAdmin     = "admin"
)

// ErrInvalidCredential is returned for any token or session that fails validation
var ErrInvalidCredential = errors.New("invalid credential")

// ErrMissingRole is returned when a valid identity lacks a required role
var ErrMissingRole = errors.New("missing required role")

// Identity is the authenticated caller
type Identity struct {
	UserID string   `json:"id"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
}

// HasRole reports whether the identity holds role. Admins hold every role.
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	return slices.Contains(i.Roles, role) || slices.Contains(i.Roles, RoleAdmin)
}

// HasAnyRole reports whether the identity holds at least one of roles.
// An empty list is satisfied by any identity.
func (i *Identity) HasAnyRole(roles []string) bool {
	if len(roles) == 0 {
		return i != nil
	}
	for _, r := range roles {
		if i.HasRole(r) {
			return true
		}
	}
	return false
}

// Validator turns a raw credential into an Identity holding one of roles
type Validator interface {
	Validate(ctx context.Context, credential string, roles []string) (*Identity, error)
}

func normalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles)+1)
	for _, r := range roles {
		switch r {
		case "", "anon":
			continue
		case "authenticated":
			r = RoleUser
		}
		if !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	if len(out) > 0 && !slices.Contains(out, RoleUser) {
		out = append(out, RoleUser)
	}
	return out
}
