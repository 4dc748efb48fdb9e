// response.go
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

package utils

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// ErrorResponse sends the standard error envelope
func ErrorResponse(c *fiber.Ctx, message string, status int, errorType string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"error":     message,
		"ok":        false,
		"timestamp": timestamp(),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}

// ServerErrorResponse sends a 500 carrying the underlying error as details
func ServerErrorResponse(c *fiber.Ctx, err error, errorType string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"status":    fiber.StatusInternalServerError,
		"message":   "Internal server error",
		"error":     "Internal server error",
		"details":   err.Error(),
		"ok":        false,
		"timestamp": timestamp(),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}

// ValidationErrorResponse sends a 400 with per-field problems
func ValidationErrorResponse(c *fiber.Ctx, message string, fields map[string]string, errorType string) error {
	body := fiber.Map{
		"status":    fiber.StatusBadRequest,
		"message":   message,
		"error":     message,
		"ok":        false,
		"timestamp": timestamp(),
		"url":       c.OriginalURL(),
		"type":      errorType,
	}
	if len(fields) > 0 {
		body["fields"] = fields
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}

// VersionErrorResponse sends a version conflict error (409)
func VersionErrorResponse(c *fiber.Ctx) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{
		"status":       fiber.StatusConflict,
		"message":      "E_VERSION - Refresh and reconcile with current version and retry.",
		"error":        "E_VERSION",
		"ok":           false,
		"versionError": true,
		"timestamp":    timestamp(),
		"url":          c.OriginalURL(),
		"type":         "version",
	})
}

// BlockedResponse sends a 422 for content rejected by moderation
func BlockedResponse(c *fiber.Ctx, reasons []string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"status":    fiber.StatusUnprocessableEntity,
		"message":   "Content was blocked by moderation",
		"error":     "Content was blocked by moderation",
		"reasons":   reasons,
		"ok":        false,
		"timestamp": timestamp(),
		"url":       c.OriginalURL(),
		"type":      "community.moderation",
	})
}

// NotFoundResponse sends a 404 not found response
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return ErrorResponse(c, message, fiber.StatusNotFound, "not_found")
}

// CreatedResponse sends a 201 with the created resource
func CreatedResponse(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(data)
}

// MutationSuccessResponse sends a success response for versioned document mutations
func MutationSuccessResponse(c *fiber.Ctx, newVersion uint64, affectedRows int64) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":      "Success",
		"ok":           true,
		"newVersion":   fmt.Sprintf("%d", newVersion),
		"timestamp":    timestamp(),
		"affectedRows": affectedRows,
	})
}

// ErrorResponseStruct defines the schema for error responses
type ErrorResponseStruct struct {
	Status       int               `json:"status"`
	Message      string            `json:"message"`
	Error        string            `json:"error"`
	Details      string            `json:"details,omitempty"`
	Fields       map[string]string `json:"fields,omitempty"`
	Reasons      []string          `json:"reasons,omitempty"`
	Ok           bool              `json:"ok"`
	Timestamp    string            `json:"timestamp"`
	URL          string            `json:"url"`
	Type         string            `json:"type,omitempty"`
	VersionError bool              `json:"versionError,omitempty"`
}

// SuccessResponseStruct defines the schema for mutation success responses
type SuccessResponseStruct struct {
	Message      string `json:"message"`
	Ok           bool   `json:"ok"`
	NewVersion   string `json:"newVersion"`
	Timestamp    string `json:"timestamp"`
	AffectedRows int64  `json:"affectedRows"`
}
