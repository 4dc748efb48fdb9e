// admin.go
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
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/haven/internal/middleware"
	"github.com/localnerve/haven/internal/services"
	"github.com/localnerve/haven/internal/types"
	"github.com/localnerve/haven/internal/utils"
	"gorm.io/gorm"
)

// AdminHandler serves the admin console: prompts, greetings, content, specialists,
// resources, circles, moderation and therapist verification
type AdminHandler struct {
	DB         *gorm.DB
	Catalog    *services.Catalog
	Community  *services.CommunityService
	Therapists *services.TherapistService
}

func editor(c *fiber.Ctx) string {
	identity := middleware.CurrentIdentity(c)
	if identity == nil {
		return ""
	}
	if identity.Email != "" {
		return identity.Email
	}
	return identity.UserID
}

// ListPrompts handles GET /api/admin/prompts
// @Summary List AI prompts
// @Tags Admin
// @Produce json
// @Success 200 {array} models.AIPrompt
// @Security BearerAuth
// @Router /admin/prompts [get]
func (h *AdminHandler) ListPrompts(c *fiber.Ctx) error {
	prompts, err := h.Catalog.ListPrompts()
	if err != nil {
		return respondError(c, err, "admin")
	}
	return c.JSON(prompts)
}

// GetPrompt handles GET /api/admin/prompts/:key
// @Summary Get an AI prompt
// @Tags Admin
// @Produce json
// @Param key path string true "Prompt key"
// @Success 200 {object} models.AIPrompt
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /admin/prompts/{key} [get]
func (h *AdminHandler) GetPrompt(c *fiber.Ctx) error {
	prompt, err := h.Catalog.GetPrompt(c.Params("key"))
	if err != nil {
		return respondError(c, err, "admin")
	}
	return c.JSON(prompt)
}

// ListPromptRevisions handles GET /api/admin/prompts/:key/revisions
// @Summary List prompt revisions
// @Description Previous versions of a prompt, newest first
// @Tags Admin
// @Produce json
// @Param key path string true "Prompt key"
// @Success 200 {array} models.PromptRevision
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /admin/prompts/{key}/revisions [get]
func (h *AdminHandler) ListPromptRevisions(c *fiber.Ctx) error {
	revisions, err := h.Catalog.ListRevisions(c.Params("key"))
	if err != nil {
		return respondError(c, err, "admin")
	}
	return c.JSON(revisions)
}

// SetPrompt handles PUT /api/admin/prompts/:key
// @Summary Create or update an AI prompt
// @Description version must match the stored version, 0 for a new prompt. A stale version returns E_VERSION.
// @Tags Admin
// @Accept json
// @Produce json
// @Param key path string true "Prompt key"
// @Param body body object true "version plus prompt fields"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /admin/prompts/{key} [put]
func (h *AdminHandler) SetPrompt(c *fiber.Ctx) error {
	var body struct {
		Version types.FlexUint64 `json:"version"`
		services.PromptInput
	}
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c, "admin")
	}

	newVersion, affected, err := h.Catalog.SetPrompt(c.UserContext(), c.Params("key"), body.Version.Uint64(), body.PromptInput, editor(c))
	if err != nil {
		return respondError(c, err, "admin")
	}
	return utils.MutationSuccessResponse(c, newVersion, affected)
}

// DeletePrompt handles DELETE /api/admin/prompts/:key
// @Summary Delete an AI prompt
// @Tags Admin
// @Accept json
// @Produce json
// @Param key path string true "Prompt key"
// @Param body body object true "version"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /admin/prompts/{key} [delete]
func (h *AdminHandler) DeletePrompt(c *fiber.Ctx) error {
	var body struct {
		Version types.FlexUint64 `json:"version"`
	}
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c, "admin")
	}

	affected, err := h.Catalog.DeletePrompt(c.UserContext(), c.Params("key"), body.Version.Uint64())
	if err != nil {
		return respondError(c, err, "admin")
	}
	return utils.MutationSuccessResponse(c, 0, affected)
}

// ListGreetings handles GET /api/admin/greetings
// @Summary List greetings
// @Tags Admin
// @Produce json
// @Param context query string false "Greeting context"
// @Success 200 {array} models.Greeting
// @Security BearerAuth
// @Router /admin/greetings [get]
func (h *AdminHandler) ListGreetings(c *fiber.Ctx) error {
	greetings, err := services.ListGreetings(h.DB, c.Query("context"))
	if err != nil {
		return respondError(c, err, "admin")
	}
	return c.JSON(greetings)
}

// CreateGreeting handles POST /api/admin/greetings
// @Summary Create a greeting
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body services.GreetingInput true "Greeting"
// @Success 201 {object} models.Greeting
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /admin/greetings [post]
func (h *AdminHandler) CreateGreeting(c *fiber.Ctx) error {
	var body services.GreetingInput
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c, "admin")
	}
	greeting, err := services.CreateGreeting(h.DB, body)
	if err != nil {
		return respondError(c, err, "admin")
	}
	return utils.CreatedResponse(c, greeting)
}

// UpdateGreeting handles PUT /api/admin/greetings/:id
// @Summary Update a greeting
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Greeting ID"
// @Param body body services.GreetingInput true "Greeting"
// @Success 200 {object} models.Greeting
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /admin/greetings/{id} [put]
func (h *AdminHandler) UpdateGreeting(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return respondError(c, err, "admin")
	}
	var body services.GreetingInput
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c, "admin")
	}
	greeting, err := services.UpdateGreeting(h.DB, id, body)
	if err != nil {
		return respondError(c, err, "admin")
	}
	return c.JSON(greeting)
}

// DeleteGreeting handles DELETE /api/admin/greetings/:id
// @Summary Delete a greeting
// @Tags Admin
// @Param id path int true "Greeting ID"
// @Success 204
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /admin/greetings/{id} [delete]
func (h *AdminHandler) DeleteGreeting(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return respondError(c, err, "admin")
	}
	if err := services.DeleteGreeting(h.DB, id); err != nil {
		return respondError(c, err, "admin")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListContent handles GET /api/admin/content
// @Summary List content pages, including drafts
// @Tags Admin
// @Produce json
// @Success 200 {array} models.ContentPage
// @Security BearerAuth
// @Router /admin/content [get]
func (h *AdminHandler) ListContent(c *fiber.Ctx) error {
	pages, err := services.ListContent(h.DB)
	if err != nil {
		return respondError(c, err, "admin")
	}
	return c.JSON(pages)
}

// CreateContent handles POST /api/admin/content
// @Summary Create a content page
// @Description The slug is derived from the title when not given
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body services.ContentInput true "Page"
// @Success 201 {object} models.ContentPage
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /admin/content [post]
func (h *AdminHandler) CreateContent(c *fiber.Ctx) error {
	var body services.ContentInput
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c, "admin")
	}
	page, err := services.CreateContent(h.DB, body)
	if err != nil {
		return respondError(c, err, "admin")
	}
	return utils.CreatedResponse(c, page)
}

// UpdateContent handles PUT /api/admin/content/:id
// @Summary Update a content page
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Page ID"
// @Param body body services.ContentInput true "Page"
// @Success 200 {object} models.ContentPage
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /admin/content/{id} [put]
func (h *AdminHandler) UpdateContent(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return respondError(c, err, "admin")
	}
	var body services.ContentInput
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c, "admin")
	}
	page, err := services.UpdateContent(h.DB, id, body)
	if err != nil {
		return respondError(c, err, "admin")
	}
	return c.JSON(page)
}

// DeleteContent handles DELETE /api/admin/content/:id
// @Summary Delete a content page
// @Tags Admin
// @Param id path int true "Page ID"
// @Success 204
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /admin/content/{id} [delete]
func (h *AdminHandler) DeleteContent(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return respondError(c, err, "admin")
	}
	if err := services.DeleteContent(h.DB, id); err != nil {
		return respondError(c, err, "admin")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListSpecialists handles GET /api/admin/specialists
// @Summary List all specialists, including inactive ones
// @Tags Admin
// @Produce json
// @Success 200 {array} models.Specialist
// @Security BearerAuth
// @Router /admin/specialists [get]
func (h *AdminHandler) ListSpecialists(c *fiber.Ctx) error {
	specialists, err := h.Catalog.ListSpecialists()
	if err != nil {
		return respondError(c, err, "admin")
	}
	return c.JSON(specialists)
}

// CreateSpecialist handles POST /api/admin/specialists
// @Summary Create a specialist
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body services.SpecialistInput true "Specialist"
// @Success 201 {object} models.Specialist
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /admin/specialists [post]
func (h *AdminHandler) CreateSpecialist(c *fiber.Ctx) error {
	var body services.SpecialistInput
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c, "admin")
	}
	specialist, err := h.Catalog.CreateSpecialist(c.UserContext(), body)
	if err != nil {
		return respondError(c, err, "admin")
	}
	return utils.CreatedResponse(c, specialist)
}

// UpdateSpecialist handles PUT /api/admin/specialists/:key
// @Summary Update a specialist
// @Tags Admin
// @Accept json
// @Produce json
// @Param key path string true "Specialist key"
// @Param body body services.SpecialistInput true "Specialist"
// @Success 200 {object} models.Specialist
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /admin/specialists/{key} [put]
func (h *AdminHandler) UpdateSpecialist(c *fiber.Ctx) error {
	var body services.SpecialistInput
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c, "admin")
	}
	specialist, err := h.Catalog.UpdateSpecialist(c.UserContext(), c.Params("key"), body)
	if err != nil {
		return respondError(c, err, "admin")
	}
	return c.JSON(specialist)
}

// DeleteSpecialist handles DELETE /api/admin/specialists/:key
// @Summary Delete a specialist
// @Tags Admin
// @Param key path string true "Specialist key"
// @Success 204
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /admin/specialists/{key} [delete]
func (h *AdminHandler) DeleteSpecialist(c *fiber.Ctx) error {
	if err := h.Catalog.DeleteSpecialist(c.UserContext(), c.Params("key")); err != nil {
		return respondError(c, err, "admin")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateResource handles POST /api/admin/resources
// @Summary Create a resource
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body services.ResourceInput true "Resource"
// @Success 201 {object} models.Resource
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /admin/resources [post]
func (h *AdminHandler) CreateResource(c *fiber.Ctx) error {
	var body services.ResourceInput
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c, "admin")
	}
	resource, err := services.CreateResource(h.DB, body)
	if err != nil {
		return respondError(c, err, "admin")
	}
	return utils.CreatedResponse(c, resource)
}

// UpdateResource handles PUT /api/admin/resources/:id
// @Summary Update a resource
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Resource ID"
// @Param body body services.ResourceInput true "Resource"
// @Success 200 {object} models.Resource
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /admin/resources/{id} [put]
func (h *AdminHandler) UpdateResource(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return respondError(c, err, "admin")
	}
	var body services.ResourceInput
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c, "admin")
	}
	resource, err := services.UpdateResource(h.DB, id, body)
	if err != nil {
		return respondError(c, err, "admin")
	}
	return c.JSON(resource)
}

// DeleteResource handles DELETE /api/admin/resources/:id
// @Summary Delete a resource
// @Tags Admin
// @Param id path int true "Resource ID"
// @Success 204
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /admin/resources/{id} [delete]
func (h *AdminHandler) DeleteResource(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return respondError(c, err, "admin")
	}
	if err := services.DeleteResource(h.DB, id); err != nil {
		return respondError(c, err, "admin")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateCircle handles POST /api/admin/circles
// @Summary Create a circle
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body object true "name and description"
// @Success 201 {object} models.Circle
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /admin/circles [post]
func (h *AdminHandler) CreateCircle(c *fiber.Ctx) error {
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c, "admin")
	}
	circle, err := h.Community.CreateCircle(userID(c), body.Name, body.Description)
	if err != nil {
		return respondError(c, err, "admin")
	}
	return utils.CreatedResponse(c, circle)
}

// ModerationQueue handles GET /api/admin/moderation
// @Summary Posts held for review
// @Tags Admin
// @Produce json
// @Success 200 {array} services.QueueItem
// @Security BearerAuth
// @Router /admin/moderation [get]
func (h *AdminHandler) ModerationQueue(c *fiber.Ctx) error {
	items, err := h.Community.ModerationQueue()
	if err != nil {
		return respondError(c, err, "admin")
	}
	return c.JSON(items)
}

// ResolvePost handles POST /api/admin/moderation/posts/:id
// @Summary Approve or remove a held post
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param body body object true "action: approve or remove"
// @Success 200 {object} models.CommunityPost
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /admin/moderation/posts/{id} [post]
func (h *AdminHandler) ResolvePost(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return respondError(c, err, "admin")
	}
	var body struct {
		Action string `json:"action"`
	}
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c, "admin")
	}
	post, err := h.Community.ResolvePost(id, body.Action)
	if err != nil {
		return respondError(c, err, "admin")
	}
	return c.JSON(post)
}

// CommentQueue handles GET /api/admin/moderation/comments
// @Summary Comments held for review
// @Tags Admin
// @Produce json
// @Success 200 {array} services.CommentQueueItem
// @Security BearerAuth
// @Router /admin/moderation/comments [get]
func (h *AdminHandler) CommentQueue(c *fiber.Ctx) error {
	items, err := h.Community.CommentQueue()
	if err != nil {
		return respondError(c, err, "admin")
	}
	return c.JSON(items)
}

// ResolveComment handles POST /api/admin/moderation/comments/:id
// @Summary Approve or remove a held comment
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Comment ID"
// @Param body body object true "action: approve or remove"
// @Success 200 {object} models.CommunityComment
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /admin/moderation/comments/{id} [post]
func (h *AdminHandler) ResolveComment(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return respondError(c, err, "admin")
	}
	var body struct {
		Action string `json:"action"`
	}
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c, "admin")
	}
	comment, err := h.Community.ResolveComment(id, body.Action)
	if err != nil {
		return respondError(c, err, "admin")
	}
	return c.JSON(comment)
}

// ListTherapists handles GET /api/admin/therapists
// @Summary List therapist profiles
// @Tags Admin
// @Produce json
// @Param status query string false "Verification status"
// @Success 200 {array} services.OwnTherapistProfile
// @Security BearerAuth
// @Router /admin/therapists [get]
func (h *AdminHandler) ListTherapists(c *fiber.Ctx) error {
	therapists, err := h.Therapists.ListTherapists(c.Query("status"))
	if err != nil {
		return respondError(c, err, "admin")
	}
	return c.JSON(therapists)
}

// SetVerification handles PUT /api/admin/therapists/:id/verification
// @Summary Record a verification decision
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Therapist profile ID"
// @Param body body object true "status: verified, rejected or pending"
// @Success 200 {object} services.OwnTherapistProfile
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /admin/therapists/{id}/verification [put]
func (h *AdminHandler) SetVerification(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return respondError(c, err, "admin")
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c, "admin")
	}
	profile, err := h.Therapists.SetVerification(c.UserContext(), id, body.Status)
	if err != nil {
		return respondError(c, err, "admin")
	}
	return c.JSON(profile)
}
