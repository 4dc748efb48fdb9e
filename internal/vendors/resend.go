// resend.go
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

package vendors

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Resend sends transactional email
type Resend struct {
	APIKey  string
	BaseURL string
	From    string
}

// Email is one outgoing message
type Email struct {
	To      []string
	Subject string
	HTML    string
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Enabled reports whether the client can make calls
func (r *Resend) Enabled() bool {
	return r != nil && r.APIKey != ""
}

// Send delivers the email and returns the provider message id
func (r *Resend) Send(email Email) (string, error) {
	if !r.Enabled() {
		return "", ErrNotConfigured
	}

	agent := fiber.Post(strings.TrimRight(r.BaseURL, "/")+"/emails").
		Set(fiber.HeaderAuthorization, "Bearer "+r.APIKey).
		JSON(resendRequest{From: r.From, To: email.To, Subject: email.Subject, HTML: email.HTML}).
		Timeout(defaultTimeout)

	body, err := do("resend", agent)
	if err != nil {
		return "", err
	}

	var out struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &out)
	return out.ID, nil
}
