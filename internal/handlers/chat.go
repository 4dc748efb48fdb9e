// chat.go
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
	"github.com/localnerve/haven/internal/services"
	"github.com/localnerve/haven/internal/utils"
)

// ChatHandler handles conversation routes
type ChatHandler struct {
	Chat *services.ChatService
}

// CreateConversation handles POST /api/conversations
// @Summary Start a conversation
// @Description Create a conversation for the current user. Title defaults to "New conversation", mode to text.
// @Tags Chat
// @Accept json
// @Produce json
// @Param body body object false "title and mode (text or voice)"
// @Success 201 {object} models.Conversation
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /conversations [post]
func (h *ChatHandler) CreateConversation(c *fiber.Ctx) error {
	var body struct {
		Title string `json:"title"`
		Mode  string `json:"mode"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return invalidBody(c, "chat")
		}
	}

	conv, err := h.Chat.CreateConversation(userID(c), body.Title, body.Mode)
	if err != nil {
		return respondError(c, err, "chat")
	}
	return utils.CreatedResponse(c, conv)
}

// ListConversations handles GET /api/conversations
// @Summary List conversations
// @Description List the current user's conversations, newest first
// @Tags Chat
// @Produce json
// @Success 200 {array} models.Conversation
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /conversations [get]
func (h *ChatHandler) ListConversations(c *fiber.Ctx) error {
	convs, err := h.Chat.ListConversations(userID(c))
	if err != nil {
		return respondError(c, err, "chat")
	}
	return c.JSON(convs)
}

// GetConversation handles GET /api/conversations/:id
// @Summary Get a conversation
// @Description Get one of the current user's conversations with its messages in order
// @Tags Chat
// @Produce json
// @Param id path string true "Conversation ID"
// @Success 200 {object} models.Conversation
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /conversations/{id} [get]
func (h *ChatHandler) GetConversation(c *fiber.Ctx) error {
	conv, err := h.Chat.GetConversation(userID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err, "chat")
	}
	return c.JSON(conv)
}

// DeleteConversation handles DELETE /api/conversations/:id
// @Summary Delete a conversation
// @Tags Chat
// @Param id path string true "Conversation ID"
// @Success 204
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /conversations/{id} [delete]
func (h *ChatHandler) DeleteConversation(c *fiber.Ctx) error {
	if err := h.Chat.DeleteConversation(userID(c), c.Params("id")); err != nil {
		return respondError(c, err, "chat")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SendMessage handles POST /api/conversations/:id/messages
// @Summary Send a chat message
// @Description Store the message, screen it for crisis language and reply as the selected specialist.
// @Description Acute crisis messages get a fixed response with crisis resources and no model call.
// @Tags Chat
// @Accept json
// @Produce json
// @Param id path string true "Conversation ID"
// @Param body body object true "content"
// @Success 200 {object} services.SendResult
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 502 {object} utils.ErrorResponseStruct
// @Failure 503 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /conversations/{id}/messages [post]
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	var body struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c, "chat")
	}

	result, err := h.Chat.SendMessage(c.UserContext(), userID(c), c.Params("id"), body.Content)
	if err != nil {
		return respondError(c, err, "chat")
	}
	return c.JSON(result)
}
