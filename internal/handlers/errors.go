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

package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/haven/internal/services"
	"github.com/localnerve/haven/internal/utils"
)

// respondError maps service errors onto the error envelope. area prefixes the error type,
// e.g. "chat" yields "chat.validation".
func respondError(c *fiber.Ctx, err error, area string) error {
	var validationErr *services.ValidationError
	var moderationErr *services.ModerationError

	switch {
	case errors.As(err, &validationErr):
		return utils.ValidationErrorResponse(c, "Invalid input", validationErr.Fields, area+".validation")
	case errors.As(err, &moderationErr):
		return utils.BlockedResponse(c, moderationErr.Reasons)
	case errors.Is(err, services.ErrInvalidInput):
		return utils.ValidationErrorResponse(c, err.Error(), nil, area+".validation")
	case errors.Is(err, services.ErrVersion):
		return utils.VersionErrorResponse(c)
	case errors.Is(err, services.ErrNotFound):
		return utils.NotFoundResponse(c, err.Error())
	case errors.Is(err, services.ErrForbidden):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, area+".forbidden")
	case errors.Is(err, services.ErrConflict):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusConflict, area+".conflict")
	case errors.Is(err, services.ErrUnavailable):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusServiceUnavailable, "vendor.unavailable")
	case errors.Is(err, services.ErrUpstream):
		log.Printf("Upstream failure on %s %s: %v", c.Method(), c.OriginalURL(), err)
		errorType := "vendor.upstream"
		if area == "chat" || area == "profile" {
			errorType = "ai.upstream"
		}
		return utils.ErrorResponse(c, "Upstream provider failed", fiber.StatusBadGateway, errorType)
	}

	log.Printf("Request %s %s failed: %v", c.Method(), c.OriginalURL(), err)
	return utils.ServerErrorResponse(c, err, area)
}

// invalidBody answers an unparseable request body
func invalidBody(c *fiber.Ctx, area string) error {
	return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, area+".validation")
}
