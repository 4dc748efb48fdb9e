// therapists_test.go
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

package handlers_test

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/localnerve/haven/internal/auth"
	"github.com/localnerve/haven/internal/handlers"
	"github.com/localnerve/haven/internal/services"
	"github.com/localnerve/haven/internal/testutil"
)

type staticOCR struct{ text string }

func (o staticOCR) ExtractText(image []byte, contentType string) (string, error) {
	return o.text, nil
}

// TestTherapistRoutes tests profile upsert, credential upload and public visibility
func TestTherapistRoutes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := &services.TherapistService{DB: db, OCR: staticOCR{text: "State Board License No. PSY-12345"}}
	h := &handlers.TherapistHandler{Therapists: svc}

	app := newApp(testutil.Identity("doc-1", auth.RoleTherapist))
	app.Get("/api/therapist/profile", h.GetOwnProfile)
	app.Put("/api/therapist/profile", h.PutOwnProfile)
	app.Post("/api/therapist/credential", h.UploadCredential)
	app.Get("/api/therapists/:id", h.GetTherapist)

	resp := doJSON(t, app, "GET", "/api/therapist/profile", nil)
	assertStatus(t, resp, 404)

	resp = doJSON(t, app, "PUT", "/api/therapist/profile", map[string]interface{}{"fullName": "Dr. Avery"})
	assertStatus(t, resp, 400)
	var errBody map[string]interface{}
	parseJSON(t, resp, &errBody)
	fields, _ := errBody["fields"].(map[string]interface{})
	if fields["licenseNumber"] == nil || fields["specialties"] == nil {
		t.Errorf("Expected field errors, got %v", errBody)
	}

	resp = doJSON(t, app, "PUT", "/api/therapist/profile", map[string]interface{}{
		"fullName":      "Dr. Avery",
		"licenseNumber": "psy 12345",
		"licenseState":  "ca",
		"specialties":   "anxiety",
		"languages":     []string{"English", "Spanish"},
	})
	assertStatus(t, resp, 200)
	var profile map[string]interface{}
	parseJSON(t, resp, &profile)
	if profile["email"] != "doc-1@example.com" || profile["verificationStatus"] != "pending" {
		t.Errorf("Unexpected profile %v", profile)
	}
	if specialties, _ := profile["specialties"].([]interface{}); len(specialties) != 1 {
		t.Errorf("Expected a single specialty from a string value, got %v", profile["specialties"])
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="license.png"`)
	header.Set("Content-Type", "image/png")
	part, _ := w.CreatePart(header)
	part.Write([]byte("png-bytes"))
	w.Close()
	req := httptest.NewRequest("POST", "/api/therapist/credential", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	assertStatus(t, resp, 200)
	parseJSON(t, resp, &profile)
	if profile["verificationStatus"] != "pending_review" {
		t.Errorf("Expected pending_review after a license match, got %v", profile["verificationStatus"])
	}

	// Not public until verified
	id := uint64(profile["id"].(float64))
	resp = doJSON(t, app, "GET", "/api/therapists/"+itoa(id), nil)
	assertStatus(t, resp, 404)
}
