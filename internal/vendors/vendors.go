// vendors.go
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

// Package vendors holds thin REST clients for the voice, email, SMS and OCR providers.
// They use Fiber's fasthttp Agent so the whole service shares one HTTP stack.
package vendors

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// ErrNotConfigured is returned by a nil or keyless client
var ErrNotConfigured = errors.New("vendor not configured")

// UpstreamError is a non-2xx answer from a vendor
type UpstreamError struct {
	Vendor string
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("%s: upstream status %d: %s", e.Vendor, e.Status, body)
}

const defaultTimeout = 30 * time.Second

// do sends the agent request and turns transport errors and non-2xx codes into errors
func do(vendor string, agent *fiber.Agent) ([]byte, error) {
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", vendor, errors.Join(errs...))
	}
	if code < 200 || code >= 300 {
		return nil, &UpstreamError{Vendor: vendor, Status: code, Body: string(body)}
	}
	return body, nil
}
