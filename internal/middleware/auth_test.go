// auth_test.go
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

package middleware_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/haven/internal/auth"
	"github.com/localnerve/haven/internal/middleware"
)

func newAuthApp(t *testing.T) (*fiber.App, *auth.JWTValidator) {
	t.Helper()
	validator := auth.NewJWTValidator("middleware-secret", "")
	authn := &middleware.Authenticator{Bearer: validator}

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Use(middleware.VersionMiddleware())
	app.Get("/me", authn.AuthUser(), func(c *fiber.Ctx) error {
		return c.JSON(middleware.CurrentIdentity(c))
	})
	app.Get("/admin", authn.AuthAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/public", authn.Optional(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"signedIn": middleware.CurrentIdentity(c) != nil})
	})
	app.Use(middleware.NotFound)

	return app, validator
}

func TestAuthMissingCredential(t *testing.T) {
	app, _ := newAuthApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", resp.StatusCode)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["type"] != "auth.missing" || body["ok"] != false {
		t.Errorf("Unexpected error body %v", body)
	}
}

func TestAuthBearerToken(t *testing.T) {
	app, validator := newAuthApp(t)
	token, _ := validator.Sign(&auth.Identity{UserID: "user-42", Email: "u@example.com"}, time.Hour)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var identity auth.Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if identity.UserID != "user-42" {
		t.Errorf("Expected user-42, got %s", identity.UserID)
	}
	if resp.Header.Get(middleware.APIVersionHeader) != "1.0.0" {
		t.Errorf("Expected default API version header, got %q", resp.Header.Get(middleware.APIVersionHeader))
	}
}

func TestAuthRoleForbidden(t *testing.T) {
	app, validator := newAuthApp(t)
	token, _ := validator.Sign(&auth.Identity{UserID: "user-42"}, time.Hour)

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("Expected 403, got %d", resp.StatusCode)
	}
}

func TestAuthSessionCookieWithoutValidator(t *testing.T) {
	app, _ := newAuthApp(t)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Cookie", middleware.SessionCookie+"=abc")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("Expected 401 for unsupported credential, got %d", resp.StatusCode)
	}
}

func TestOptionalAuth(t *testing.T) {
	app, validator := newAuthApp(t)

	resp, _ := app.Test(httptest.NewRequest("GET", "/public", nil))
	var body map[string]bool
	json.NewDecoder(resp.Body).Decode(&body)
	if body["signedIn"] {
		t.Error("Expected anonymous request")
	}

	token, _ := validator.Sign(&auth.Identity{UserID: "user-1"}, time.Hour)
	req := httptest.NewRequest("GET", "/public", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, _ = app.Test(req)
	body = map[string]bool{}
	json.NewDecoder(resp.Body).Decode(&body)
	if !body["signedIn"] {
		t.Error("Expected signed in request")
	}
}

func TestNotFoundAndVersion(t *testing.T) {
	app, _ := newAuthApp(t)

	req := httptest.NewRequest("GET", "/missing", nil)
	req.Header.Set(middleware.APIVersionHeader, "v2")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
	if resp.Header.Get(middleware.APIVersionHeader) != "2.0.0" {
		t.Errorf("Expected normalized version 2.0.0, got %q", resp.Header.Get(middleware.APIVersionHeader))
	}
}
