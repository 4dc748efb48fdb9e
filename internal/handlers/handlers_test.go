// handlers_test.go
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
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/haven/internal/auth"
	"github.com/localnerve/haven/internal/config"
	"github.com/localnerve/haven/internal/handlers"
	"github.com/localnerve/haven/internal/middleware"
	"github.com/localnerve/haven/internal/services"
	"github.com/localnerve/haven/internal/testutil"
)

// newApp creates a Fiber app with the production error handler. A non-nil identity is
// attached to every request in place of token validation.
func newApp(identity *auth.Identity) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	if identity != nil {
		app.Use(middleware.WithIdentity(identity))
	}
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	return resp
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		t.Errorf("Expected status %d, got %d: %s", expected, resp.StatusCode, string(body))
	}
}

func parseJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	if err := json.Unmarshal(body, target); err != nil {
		t.Fatalf("Failed to decode JSON: %v. Body: %s", err, string(body))
	}
}

func itoa(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// TestPublicRoutes tests the unauthenticated catalog routes
func TestPublicRoutes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	catalog := &services.Catalog{DB: db, Cache: testutil.NewMemoryCache()}
	ctx := context.Background()

	if _, err := catalog.CreateSpecialist(ctx, services.SpecialistInput{Key: "general", Name: "Sam", IsDefault: true}); err != nil {
		t.Fatalf("CreateSpecialist failed: %v", err)
	}
	if _, err := services.CreateResource(db, services.ResourceInput{
		Name: "988 Lifeline", Category: "hotline", Phone: "988", Crisis: true, Available247: true,
	}); err != nil {
		t.Fatalf("CreateResource failed: %v", err)
	}
	if _, err := services.CreateResource(db, services.ResourceInput{Name: "Sleep Hygiene Guide", Category: "article"}); err != nil {
		t.Fatalf("CreateResource failed: %v", err)
	}

	h := &handlers.PublicHandler{DB: db, Catalog: catalog}
	app := newApp(nil)
	app.Get("/api/specialists", h.ListSpecialists)
	app.Get("/api/resources", h.SearchResources)
	app.Get("/api/resources/crisis", h.CrisisResources)
	app.Get("/api/greetings/random", h.RandomGreeting)
	app.Get("/api/content/:slug", h.GetContent)

	t.Run("specialists", func(t *testing.T) {
		resp := doJSON(t, app, "GET", "/api/specialists", nil)
		assertStatus(t, resp, 200)
		var out []map[string]interface{}
		parseJSON(t, resp, &out)
		if len(out) != 1 || out[0]["key"] != "general" {
			t.Errorf("Unexpected specialists %v", out)
		}
	})

	t.Run("crisis filter", func(t *testing.T) {
		resp := doJSON(t, app, "GET", "/api/resources?crisis=true", nil)
		assertStatus(t, resp, 200)
		var out []map[string]interface{}
		parseJSON(t, resp, &out)
		if len(out) != 1 || out[0]["name"] != "988 Lifeline" {
			t.Errorf("Expected only the crisis line, got %v", out)
		}
	})

	t.Run("crisis resources", func(t *testing.T) {
		resp := doJSON(t, app, "GET", "/api/resources/crisis", nil)
		assertStatus(t, resp, 200)
	})

	t.Run("no greeting", func(t *testing.T) {
		resp := doJSON(t, app, "GET", "/api/greetings/random?context=morning", nil)
		assertStatus(t, resp, 204)
	})

	t.Run("missing content", func(t *testing.T) {
		resp := doJSON(t, app, "GET", "/api/content/nope", nil)
		assertStatus(t, resp, 404)
		var out map[string]interface{}
		parseJSON(t, resp, &out)
		if out["ok"] != false || out["type"] != "not_found" {
			t.Errorf("Expected not_found envelope, got %v", out)
		}
	})
}

// TestHealthHandler tests the health route against a reachable database and no cache
func TestHealthHandler(t *testing.T) {
	cfg := &config.Config{DBType: "sqlite", DBDatabase: "test"}
	h := &handlers.HealthHandler{Config: cfg, DB: testutil.SetupTestDB(t)}
	app := newApp(nil)
	app.Get("/health", h.Health)

	resp := doJSON(t, app, "GET", "/health", nil)
	assertStatus(t, resp, 200)

	var result services.HealthCheckResult
	parseJSON(t, resp, &result)
	if result.Status != "healthy" || result.Database != "ok" || result.Cache != "disabled" {
		t.Errorf("Unexpected health result %+v", result)
	}
}
