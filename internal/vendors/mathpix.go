// mathpix.go
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
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Mathpix extracts text from images
type Mathpix struct {
	AppID   string
	AppKey  string
	BaseURL string
}

type mathpixRequest struct {
	Src     string   `json:"src"`
	Formats []string `json:"formats"`
}

type mathpixResponse struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

// Enabled reports whether the client can make calls
func (m *Mathpix) Enabled() bool {
	return m != nil && m.AppID != "" && m.AppKey != ""
}

// ExtractText runs OCR on an image
func (m *Mathpix) ExtractText(image []byte, contentType string) (string, error) {
	if !m.Enabled() {
		return "", ErrNotConfigured
	}
	if contentType == "" {
		contentType = "image/png"
	}

	src := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(image)
	agent := fiber.Post(strings.TrimRight(m.BaseURL, "/")+"/v3/text").
		Set("app_id", m.AppID).
		Set("app_key", m.AppKey).
		JSON(mathpixRequest{Src: src, Formats: []string{"text"}}).
		Timeout(defaultTimeout)

	body, err := do("mathpix", agent)
	if err != nil {
		return "", err
	}

	var out mathpixResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("mathpix: decode response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("mathpix: %s", out.Error)
	}
	return out.Text, nil
}
