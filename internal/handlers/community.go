// community.go
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
	"github.com/localnerve/haven/internal/models"
	"github.com/localnerve/haven/internal/services"
	"github.com/localnerve/haven/internal/types"
)

// CommunityHandler handles peer support circles
type CommunityHandler struct {
	Community *services.CommunityService
}

// ListCircles handles GET /api/circles
// @Summary List circles
// @Tags Community
// @Produce json
// @Success 200 {array} models.Circle
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /circles [get]
func (h *CommunityHandler) ListCircles(c *fiber.Ctx) error {
	circles, err := h.Community.ListCircles()
	if err != nil {
		return respondError(c, err, "community")
	}
	return c.JSON(circles)
}

// GetCircle handles GET /api/circles/:slug
// @Summary Get a circle
// @Tags Community
// @Produce json
// @Param slug path string true "Circle slug"
// @Success 200 {object} models.Circle
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /circles/{slug} [get]
func (h *CommunityHandler) GetCircle(c *fiber.Ctx) error {
	circle, err := h.Community.GetCircle(c.Params("slug"))
	if err != nil {
		return respondError(c, err, "community")
	}
	return c.JSON(circle)
}

// JoinCircle handles POST /api/circles/:slug/members
// @Summary Join a circle
// @Tags Community
// @Produce json
// @Param slug path string true "Circle slug"
// @Success 200 {object} models.Circle
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /circles/{slug}/members [post]
func (h *CommunityHandler) JoinCircle(c *fiber.Ctx) error {
	circle, err := h.Community.JoinCircle(userID(c), c.Params("slug"))
	if err != nil {
		return respondError(c, err, "community")
	}
	return c.JSON(circle)
}

// LeaveCircle handles DELETE /api/circles/:slug/members
// @Summary Leave a circle
// @Tags Community
// @Produce json
// @Param slug path string true "Circle slug"
// @Success 200 {object} models.Circle
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /circles/{slug}/members [delete]
func (h *CommunityHandler) LeaveCircle(c *fiber.Ctx) error {
	circle, err := h.Community.LeaveCircle(userID(c), c.Params("slug"))
	if err != nil {
		return respondError(c, err, "community")
	}
	return c.JSON(circle)
}

// ListPosts handles GET /api/circles/:slug/posts
// @Summary List circle posts
// @Description Published posts, newest first by default
// @Tags Community
// @Produce json
// @Param slug path string true "Circle slug"
// @Param sort query string false "new or top"
// @Param page query int false "Page, from 1"
// @Param pageSize query int false "Page size, up to 50"
// @Success 200 {object} services.PostPage
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /circles/{slug}/posts [get]
func (h *CommunityHandler) ListPosts(c *fiber.Ctx) error {
	page, err := h.Community.ListPosts(c.Params("slug"), c.Query("sort"), queryInt(c, "page", 1), queryInt(c, "pageSize", 0))
	if err != nil {
		return respondError(c, err, "community")
	}
	return c.JSON(page)
}

// CreatePost handles POST /api/circles/:slug/posts
// @Summary Create a post
// @Description Members only. Blocked content returns 422, held content 202 with status pending.
// @Tags Community
// @Accept json
// @Produce json
// @Param slug path string true "Circle slug"
// @Param body body services.PostInput true "Post"
// @Success 201 {object} services.SubmissionResult
// @Success 202 {object} services.SubmissionResult
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 422 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /circles/{slug}/posts [post]
func (h *CommunityHandler) CreatePost(c *fiber.Ctx) error {
	var body services.PostInput
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c, "community")
	}

	result, err := h.Community.CreatePost(c.UserContext(), viewer(c), c.Params("slug"), body)
	if err != nil {
		return respondError(c, err, "community")
	}
	return c.Status(submissionStatus(result)).JSON(result)
}

// GetPost handles GET /api/posts/:id
// @Summary Get a post with comments
// @Tags Community
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} services.PostDetail
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /posts/{id} [get]
func (h *CommunityHandler) GetPost(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return respondError(c, err, "community")
	}
	post, err := h.Community.GetPost(viewer(c), id)
	if err != nil {
		return respondError(c, err, "community")
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post
// @Description Authors and admins only
// @Tags Community
// @Param id path int true "Post ID"
// @Success 204
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /posts/{id} [delete]
func (h *CommunityHandler) DeletePost(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return respondError(c, err, "community")
	}
	if err := h.Community.DeletePost(viewer(c), id); err != nil {
		return respondError(c, err, "community")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddComment handles POST /api/posts/:id/comments
// @Summary Comment on a post
// @Tags Community
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param body body object true "body and anonymous"
// @Success 201 {object} services.SubmissionResult
// @Success 202 {object} services.SubmissionResult
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 422 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /posts/{id}/comments [post]
func (h *CommunityHandler) AddComment(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return respondError(c, err, "community")
	}
	var body struct {
		Body      string `json:"body"`
		Anonymous bool   `json:"anonymous"`
	}
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c, "community")
	}

	result, err := h.Community.AddComment(c.UserContext(), viewer(c), id, body.Body, body.Anonymous)
	if err != nil {
		return respondError(c, err, "community")
	}
	return c.Status(submissionStatus(result)).JSON(result)
}

// Vote handles PUT /api/posts/:id/vote
// @Summary Vote on a post
// @Description value is 1, -1, or 0 to clear the vote. Returns the new score.
// @Tags Community
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param body body object true "value"
// @Success 200 {object} map[string]int64
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /posts/{id}/vote [put]
func (h *CommunityHandler) Vote(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return respondError(c, err, "community")
	}
	var body struct {
		Value types.FlexInt `json:"value"`
	}
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c, "community")
	}

	score, err := h.Community.Vote(userID(c), id, body.Value.Int())
	if err != nil {
		return respondError(c, err, "community")
	}
	return c.JSON(fiber.Map{"postId": id, "score": score})
}

// ReportPost handles POST /api/posts/:id/reports
// @Summary Report a post
// @Tags Community
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param body body object true "reason"
// @Success 201 {object} services.ReportResult
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /posts/{id}/reports [post]
func (h *CommunityHandler) ReportPost(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return respondError(c, err, "community")
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c, "community")
	}

	result, err := h.Community.ReportPost(userID(c), id, body.Reason)
	if err != nil {
		return respondError(c, err, "community")
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func submissionStatus(result *services.SubmissionResult) int {
	if result.Status == models.PostPublished {
		return fiber.StatusCreated
	}
	return fiber.StatusAccepted
}
