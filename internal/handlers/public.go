// public.go
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

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/haven/internal/services"
	"gorm.io/gorm"
)

// PublicHandler serves the unauthenticated catalog routes
type PublicHandler struct {
	DB      *gorm.DB
	Catalog *services.Catalog
}

// ListSpecialists handles GET /api/specialists
// @Summary List specialists
// @Description List the active chat specialists by priority
// @Tags Public
// @Produce json
// @Success 200 {array} models.Specialist
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /specialists [get]
func (h *PublicHandler) ListSpecialists(c *fiber.Ctx) error {
	specialists, err := h.Catalog.ActiveSpecialists(c.UserContext())
	if err != nil {
		return respondError(c, err, "specialists")
	}
	return c.JSON(specialists)
}

// SearchResources handles GET /api/resources
// @Summary Search support resources
// @Description Case-insensitive search over name, description and tags. Crisis resources sort first.
// @Tags Public
// @Produce json
// @Param q query string false "Search text"
// @Param category query string false "Category"
// @Param region query string false "Region"
// @Param crisis query bool false "Crisis resources only"
// @Param limit query int false "Result limit, default 20, max 100"
// @Success 200 {array} models.Resource
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /resources [get]
func (h *PublicHandler) SearchResources(c *fiber.Ctx) error {
	resources, err := services.SearchResources(h.DB, services.ResourceQuery{
		Q:          c.Query("q"),
		Category:   c.Query("category"),
		Region:     c.Query("region"),
		CrisisOnly: c.QueryBool("crisis", false),
		Limit:      queryInt(c, "limit", 0),
	})
	if err != nil {
		return respondError(c, err, "resources")
	}
	return c.JSON(resources)
}

// CrisisResources handles GET /api/resources/crisis
// @Summary Crisis resources
// @Description Crisis resources, or the 988 Lifeline when none are configured
// @Tags Public
// @Produce json
// @Success 200 {array} models.Resource
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /resources/crisis [get]
func (h *PublicHandler) CrisisResources(c *fiber.Ctx) error {
	resources, err := services.CrisisResources(h.DB)
	if err != nil {
		return respondError(c, err, "resources")
	}
	return c.JSON(resources)
}

// RandomGreeting handles GET /api/greetings/random
// @Summary Random greeting
// @Description Weighted random pick among active greetings of a context
// @Tags Public
// @Produce json
// @Param context query string false "Greeting context, default general"
// @Success 200 {object} models.Greeting
// @Success 204
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /greetings/random [get]
func (h *PublicHandler) RandomGreeting(c *fiber.Ctx) error {
	greeting, err := services.RandomGreeting(h.DB, c.Query("context"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return respondError(c, err, "greetings")
	}
	return c.JSON(greeting)
}

// GetContent handles GET /api/content/:slug
// @Summary Get a content page
// @Tags Public
// @Produce json
// @Param slug path string true "Page slug"
// @Success 200 {object} models.ContentPage
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /content/{slug} [get]
func (h *PublicHandler) GetContent(c *fiber.Ctx) error {
	page, err := services.GetPublishedContent(h.DB, c.Params("slug"))
	if err != nil {
		return respondError(c, err, "content")
	}
	return c.JSON(page)
}
