// errors.go
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
	"errors"
	"maps"
	"slices"
	"strings"
)

// Sentinel errors returned by services. Handlers map them to status codes with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrVersion      = errors.New("E_VERSION")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("capability not configured")
	ErrUpstream     = errors.New("upstream provider failed")
	ErrBlocked      = errors.New("content blocked by moderation")
)

// ValidationError carries per-field problems and matches ErrInvalidInput
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, field+": "+e.Fields[field])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrInvalidInput) match
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ModerationError carries the reasons a submission was blocked and matches ErrBlocked
type ModerationError struct {
	Reasons []string
}

func (e *ModerationError) Error() string {
	return "content blocked by moderation: " + strings.Join(e.Reasons, ", ")
}

// Is lets errors.Is(err, ErrBlocked) match
func (e *ModerationError) Is(target error) bool {
	return target == ErrBlocked
}

type fieldErrors map[string]string

func (f fieldErrors) add(field, problem string) {
	if _, ok := f[field]; !ok {
		f[field] = problem
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}
