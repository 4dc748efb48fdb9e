// intake.go
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
	"github.com/localnerve/haven/internal/models"
	"github.com/localnerve/haven/internal/services"
	"github.com/localnerve/haven/internal/types"
	"gorm.io/gorm"
)

// IntakeHandler handles onboarding questions and the user profile
type IntakeHandler struct {
	DB       *gorm.DB
	Profiles *services.ProfileService
}

// NextQuestion handles GET /api/intake/:kind/next
// @Summary Next intake question
// @Description A random active question of the kind the user has not answered yet
// @Tags Intake
// @Produce json
// @Param kind path string true "patient or provider"
// @Success 200 {object} models.IntakeQuestion
// @Success 204
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /intake/{kind}/next [get]
func (h *IntakeHandler) NextQuestion(c *fiber.Ctx) error {
	question, err := services.NextQuestion(h.DB, userID(c), c.Params("kind"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return respondError(c, err, "intake")
	}
	return c.JSON(question)
}

// SubmitAnswer handles POST /api/intake/:kind/answers
// @Summary Answer an intake question
// @Description Store or replace the user's answer to a question
// @Tags Intake
// @Accept json
// @Produce json
// @Param kind path string true "patient or provider"
// @Param body body object true "questionId, answer and optional audioSessionId"
// @Success 200 {object} models.IntakeAnswer
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /intake/{kind}/answers [post]
func (h *IntakeHandler) SubmitAnswer(c *fiber.Ctx) error {
	var body struct {
		QuestionID     types.FlexUint64 `json:"questionId"`
		Answer         string           `json:"answer"`
		AudioSessionID string           `json:"audioSessionId"`
	}
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c, "intake")
	}

	answer, err := services.SubmitAnswer(h.DB, userID(c), c.Params("kind"), body.QuestionID.Uint64(), body.Answer, body.AudioSessionID)
	if err != nil {
		return respondError(c, err, "intake")
	}
	return c.JSON(answer)
}

// ListAnswers handles GET /api/intake/:kind/answers
// @Summary List intake answers
// @Tags Intake
// @Produce json
// @Param kind path string true "patient or provider"
// @Success 200 {array} models.IntakeAnswer
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /intake/{kind}/answers [get]
func (h *IntakeHandler) ListAnswers(c *fiber.Ctx) error {
	answers, err := services.ListAnswers(h.DB, userID(c), c.Params("kind"))
	if err != nil {
		return respondError(c, err, "intake")
	}
	return c.JSON(answers)
}

// Progress handles GET /api/intake/progress?kind=...
// @Summary Intake progress
// @Description Answered and total counts per intake kind. Kinds may repeat or be comma-separated; both kinds by default.
// @Tags Intake
// @Produce json
// @Param kind query string false "patient, provider or both"
// @Success 200 {array} services.IntakeProgressResult
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /intake/progress [get]
func (h *IntakeHandler) Progress(c *fiber.Ctx) error {
	kinds := parseList(c, "kind")
	if len(kinds) == 0 {
		kinds = []string{models.IntakePatient, models.IntakeProvider}
	}

	out := make([]*services.IntakeProgressResult, 0, len(kinds))
	for _, kind := range kinds {
		progress, err := services.IntakeProgress(h.DB, userID(c), kind)
		if err != nil {
			return respondError(c, err, "intake")
		}
		out = append(out, progress)
	}
	return c.JSON(out)
}

// GetProfile handles GET /api/profile
// @Summary Get the user profile
// @Tags Profile
// @Produce json
// @Success 200 {object} models.UserProfile
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /profile [get]
func (h *IntakeHandler) GetProfile(c *fiber.Ctx) error {
	profile, err := h.Profiles.GetProfile(userID(c))
	if err != nil {
		return respondError(c, err, "profile")
	}
	return c.JSON(profile)
}

// MergeProfile handles PATCH /api/profile
// @Summary Merge profile updates
// @Description Reconcile updates with the stored profile through the model, or a shallow merge when it is unavailable. A null value removes a key.
// @Tags Profile
// @Accept json
// @Produce json
// @Param body body object true "updates object and optional displayName"
// @Success 200 {object} services.ProfileMergeResult
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /profile [patch]
func (h *IntakeHandler) MergeProfile(c *fiber.Ctx) error {
	var body struct {
		DisplayName *string                `json:"displayName"`
		Updates     map[string]interface{} `json:"updates"`
	}
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c, "profile")
	}

	result, err := h.Profiles.MergeProfile(c.UserContext(), userID(c), body.DisplayName, body.Updates)
	if err != nil {
		return respondError(c, err, "profile")
	}
	return c.JSON(result)
}
