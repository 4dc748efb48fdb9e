// twilio.go
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
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Twilio sends SMS
type Twilio struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
}

// Enabled reports whether the client can make calls
func (t *Twilio) Enabled() bool {
	return t != nil && t.AccountSID != "" && t.AuthToken != "" && t.From != ""
}

// SendSMS texts body to the number and returns the message sid
func (t *Twilio) SendSMS(to, body string) (string, error) {
	if !t.Enabled() {
		return "", ErrNotConfigured
	}

	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	args.Set("To", to)
	args.Set("From", t.From)
	args.Set("Body", body)

	endpoint := strings.TrimRight(t.BaseURL, "/") + "/2010-04-01/Accounts/" + url.PathEscape(t.AccountSID) + "/Messages.json"
	agent := fiber.Post(endpoint).
		BasicAuth(t.AccountSID, t.AuthToken).
		Form(args).
		Timeout(defaultTimeout)

	resp, err := do("twilio", agent)
	if err != nil {
		return "", err
	}

	var out struct {
		SID string `json:"sid"`
	}
	_ = json.Unmarshal(resp, &out)
	return out.SID, nil
}
