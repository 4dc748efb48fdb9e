// common.go
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

package handlers

import (
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/haven/internal/auth"
	"github.com/localnerve/haven/internal/middleware"
	"github.com/localnerve/haven/internal/services"
)

// parseList extracts values for key from query parameters,
// supporting both repeated keys and comma-separated values.
// Order of first appearance is kept and duplicates are dropped.
func parseList(c *fiber.Ctx, key string) []string {
	seen := make(map[string]struct{})
	var out []string

	// Visit all query arguments to collect repeated keys
	args := c.Context().QueryArgs()
	for k, value := range args.All() {
		if string(k) != key {
			continue
		}
		// Split by comma in case the value itself is comma-separated
		for _, v := range strings.Split(string(value), ",") {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}

	return out
}

// userID returns the authenticated user's id, or "" on public routes
func userID(c *fiber.Ctx) string {
	if identity := middleware.CurrentIdentity(c); identity != nil {
		return identity.UserID
	}
	return ""
}

// viewer describes the caller to the community service
func viewer(c *fiber.Ctx) services.Viewer {
	identity := middleware.CurrentIdentity(c)
	if identity == nil {
		return services.Viewer{}
	}
	return services.Viewer{UserID: identity.UserID, Admin: identity.HasRole(auth.RoleAdmin)}
}

// paramUint parses a numeric path parameter
func paramUint(c *fiber.Ctx, name string) (uint64, error) {
	v, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || v == 0 {
		return 0, &services.ValidationError{Fields: map[string]string{name: "must be a positive integer"}}
	}
	return v, nil
}

// queryInt reads an integer query parameter, falling back to def
func queryInt(c *fiber.Ctx, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}

// readUpload reads a multipart file field into memory, refusing more than limit bytes
func readUpload(c *fiber.Ctx, field string, limit int64) ([]byte, *multipart.FileHeader, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, nil, &services.ValidationError{Fields: map[string]string{field: "file is required"}}
	}
	if header.Size > limit {
		return nil, nil, &services.ValidationError{Fields: map[string]string{field: "file is too large"}}
	}
	f, err := header.Open()
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, nil, err
	}
	if int64(len(data)) > limit {
		return nil, nil, &services.ValidationError{Fields: map[string]string{field: "file is too large"}}
	}
	return data, header, nil
}
