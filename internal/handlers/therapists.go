// therapists.go
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
)

const maxCredentialUpload = 10 * 1024 * 1024

// TherapistHandler handles therapist onboarding and patient matching
type TherapistHandler struct {
	Therapists *services.TherapistService
}

// GetOwnProfile handles GET /api/therapist/profile
// @Summary Get the therapist's own profile
// @Tags Therapists
// @Produce json
// @Success 200 {object} services.OwnTherapistProfile
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /therapist/profile [get]
func (h *TherapistHandler) GetOwnProfile(c *fiber.Ctx) error {
	profile, err := h.Therapists.GetTherapistProfile(userID(c))
	if err != nil {
		return respondError(c, err, "therapist")
	}
	return c.JSON(profile)
}

// PutOwnProfile handles PUT /api/therapist/profile
// @Summary Create or replace the therapist's profile
// @Description Changing the license sends the profile back to pending verification
// @Tags Therapists
// @Accept json
// @Produce json
// @Param body body services.TherapistInput true "Profile"
// @Success 200 {object} services.OwnTherapistProfile
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /therapist/profile [put]
func (h *TherapistHandler) PutOwnProfile(c *fiber.Ctx) error {
	var body services.TherapistInput
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c, "therapist")
	}

	email := ""
	if identity := middleware.CurrentIdentity(c); identity != nil {
		email = identity.Email
	}
	profile, err := h.Therapists.UpsertTherapistProfile(userID(c), email, body)
	if err != nil {
		return respondError(c, err, "therapist")
	}
	return c.JSON(profile)
}

// UploadCredential handles POST /api/therapist/credential
// @Summary Upload a license image
// @Description The image is read by OCR. A license number match moves the profile to pending review.
// @Tags Therapists
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "License image"
// @Success 200 {object} services.OwnTherapistProfile
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 502 {object} utils.ErrorResponseStruct
// @Failure 503 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /therapist/credential [post]
func (h *TherapistHandler) UploadCredential(c *fiber.Ctx) error {
	data, header, err := readUpload(c, "file", maxCredentialUpload)
	if err != nil {
		return respondError(c, err, "therapist")
	}

	profile, err := h.Therapists.VerifyCredential(userID(c), data, header.Header.Get(fiber.HeaderContentType))
	if err != nil {
		return respondError(c, err, "therapist")
	}
	return c.JSON(profile)
}

// GetTherapist handles GET /api/therapists/:id
// @Summary Get a verified therapist
// @Tags Therapists
// @Produce json
// @Param id path int true "Therapist profile ID"
// @Success 200 {object} models.TherapistProfile
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /therapists/{id} [get]
func (h *TherapistHandler) GetTherapist(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return respondError(c, err, "therapist")
	}
	therapist, err := h.Therapists.GetPublicTherapist(id)
	if err != nil {
		return respondError(c, err, "therapist")
	}
	return c.JSON(therapist)
}

// Matches handles GET /api/matches
// @Summary Match therapists to the user
// @Description Verified therapists accepting clients, ranked against the user's intake profile
// @Tags Therapists
// @Produce json
// @Param limit query int false "Number of matches, up to 20"
// @Success 200 {array} services.TherapistMatch
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security BearerAuth
// @Router /matches [get]
func (h *TherapistHandler) Matches(c *fiber.Ctx) error {
	matches, err := h.Therapists.MatchTherapists(userID(c), queryInt(c, "limit", 0))
	if err != nil {
		return respondError(c, err, "therapist")
	}
	return c.JSON(matches)
}
