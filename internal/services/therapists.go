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

package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/localnerve/haven/internal/models"
	"github.com/localnerve/haven/internal/types"
	"github.com/localnerve/haven/internal/vendors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const (
	defaultMatchLimit = 5
	maxMatchLimit     = 20
	maxCredentialSize = 10 * 1024 * 1024
)

// CredentialReader extracts text from a license image
type CredentialReader interface {
	ExtractText(image []byte, contentType string) (string, error)
}

// Mailer sends transactional email
type Mailer interface {
	Send(email vendors.Email) (string, error)
}

// TherapistInput is a therapist's editable profile
type TherapistInput struct {
	FullName         string                 `json:"fullName"`
	LicenseNumber    string                 `json:"licenseNumber"`
	LicenseState     string                 `json:"licenseState"`
	Specialties      types.FlexList[string] `json:"specialties"`
	Modalities       types.FlexList[string] `json:"modalities"`
	Languages        types.FlexList[string] `json:"languages"`
	SessionFormats   types.FlexList[string] `json:"sessionFormats"`
	Bio              string                 `json:"bio"`
	AcceptingClients *bool                  `json:"acceptingClients"`
}

func (in *TherapistInput) normalize() error {
	errs := fieldErrors{}
	in.FullName = strings.TrimSpace(in.FullName)
	in.LicenseNumber = strings.TrimSpace(in.LicenseNumber)
	in.LicenseState = strings.ToUpper(strings.TrimSpace(in.LicenseState))
	in.Specialties = cleanList(in.Specialties)
	in.Modalities = cleanList(in.Modalities)
	in.Languages = cleanList(in.Languages)
	in.SessionFormats = cleanList(in.SessionFormats)

	if in.FullName == "" {
		errs.add("fullName", "required")
	}
	if in.LicenseNumber == "" {
		errs.add("licenseNumber", "required")
	}
	if len(in.LicenseState) != 2 || !isLetters(in.LicenseState) {
		errs.add("licenseState", "must be a 2 letter state code")
	}
	if len(in.Specialties) == 0 {
		errs.add("specialties", "at least one is required")
	}
	return errs.err()
}

// OwnTherapistProfile is the therapist's own view, including private license fields
type OwnTherapistProfile struct {
	models.TherapistProfile
	LicenseNumber string `json:"licenseNumber"`
	Email         string `json:"email"`
}

// TherapistMatch is one ranked therapist for a patient
type TherapistMatch struct {
	Therapist models.TherapistProfile `json:"therapist"`
	Score     int                     `json:"score"`
	Reasons   []string                `json:"reasons"`
}

// TherapistService manages therapist onboarding, verification and matching
type TherapistService struct {
	DB     *gorm.DB
	OCR    CredentialReader
	Mailer Mailer
}

func (s *TherapistService) silent() *gorm.DB {
	return s.DB.Session(&gorm.Session{Logger: s.DB.Logger.LogMode(logger.Silent)})
}

func ownView(p *models.TherapistProfile) *OwnTherapistProfile {
	return &OwnTherapistProfile{TherapistProfile: *p, LicenseNumber: p.LicenseNumber, Email: p.Email}
}

// UpsertTherapistProfile creates or replaces the therapist's profile. Changing the license
// number or state sends the profile back to pending verification.
func (s *TherapistService) UpsertTherapistProfile(userID, email string, in TherapistInput) (*OwnTherapistProfile, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var profile models.TherapistProfile
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&profile).Error
		exists := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		licenseChanged := !exists ||
			!strings.EqualFold(profile.LicenseNumber, in.LicenseNumber) ||
			profile.LicenseState != in.LicenseState

		profile.UserID = userID
		if email != "" {
			profile.Email = email
		}
		profile.FullName = in.FullName
		profile.LicenseNumber = in.LicenseNumber
		profile.LicenseState = in.LicenseState
		profile.Specialties = models.StringList(in.Specialties)
		profile.Modalities = models.StringList(in.Modalities)
		profile.Languages = models.StringList(in.Languages)
		profile.SessionFormats = models.StringList(in.SessionFormats)
		profile.Bio = in.Bio
		switch {
		case in.AcceptingClients != nil:
			profile.AcceptingClients = *in.AcceptingClients
		case !exists:
			profile.AcceptingClients = true
		}
		if licenseChanged {
			profile.VerificationStatus = models.VerificationPending
			profile.CredentialMatch = nil
			profile.CredentialText = ""
			profile.VerifiedAt = nil
		}

		if !exists {
			return tx.Create(&profile).Error
		}
		return tx.Save(&profile).Error
	})
	if err != nil {
		return nil, err
	}
	return ownView(&profile), nil
}

// GetTherapistProfile returns the therapist's own profile
func (s *TherapistService) GetTherapistProfile(userID string) (*OwnTherapistProfile, error) {
	var profile models.TherapistProfile
	if err := s.silent().Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("therapist profile: %w", ErrNotFound)
		}
		return nil, err
	}
	return ownView(&profile), nil
}

// GetPublicTherapist returns a verified therapist
func (s *TherapistService) GetPublicTherapist(id uint64) (*models.TherapistProfile, error) {
	var profile models.TherapistProfile
	if err := s.silent().Where("id = ? AND verification_status = ?", id, models.VerificationVerified).
		First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("therapist %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &profile, nil
}

// ListTherapists returns profiles for the admin console, optionally by verification status
func (s *TherapistService) ListTherapists(status string) ([]OwnTherapistProfile, error) {
	query := s.silent().Order("created_at ASC")
	if status != "" {
		query = query.Where("verification_status = ?", status)
	}
	var profiles []models.TherapistProfile
	if err := query.Find(&profiles).Error; err != nil {
		return nil, err
	}
	out := make([]OwnTherapistProfile, 0, len(profiles))
	for i := range profiles {
		out = append(out, *ownView(&profiles[i]))
	}
	return out, nil
}

// VerifyCredential reads the license image and checks that the license number appears in
// it. A match moves a pending profile to pending_review; the extracted text is kept for
// the reviewing admin either way.
func (s *TherapistService) VerifyCredential(userID string, image []byte, contentType string) (*OwnTherapistProfile, error) {
	if len(image) == 0 || len(image) > maxCredentialSize {
		return nil, &ValidationError{Fields: map[string]string{"file": "an image up to 10MB is required"}}
	}
	if contentType != "" && !strings.HasPrefix(contentType, "image/") && contentType != "application/pdf" {
		return nil, &ValidationError{Fields: map[string]string{"file": "must be an image"}}
	}

	current, err := s.GetTherapistProfile(userID)
	if err != nil {
		return nil, err
	}
	if s.OCR == nil {
		return nil, fmt.Errorf("credential OCR: %w", ErrUnavailable)
	}

	text, err := s.OCR.ExtractText(image, contentType)
	if err != nil {
		if errors.Is(err, vendors.ErrNotConfigured) {
			return nil, fmt.Errorf("credential OCR: %w", ErrUnavailable)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	match := LicenseAppears(current.LicenseNumber, text)
	updates := map[string]interface{}{
		"credential_match": match,
		"credential_text":  text,
	}
	if match && (current.VerificationStatus == models.VerificationPending || current.VerificationStatus == models.VerificationRejected) {
		updates["verification_status"] = models.VerificationPendingReview
	}
	if err := s.DB.Model(&models.TherapistProfile{}).Where("id = ?", current.ID).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetTherapistProfile(userID)
}

// LicenseAppears compares alphanumerics only, ignoring case
func LicenseAppears(licenseNumber, text string) bool {
	needle := alphanumeric(licenseNumber)
	return needle != "" && strings.Contains(alphanumeric(text), needle)
}

// SetVerification records the admin decision and emails the therapist when mail is configured
func (s *TherapistService) SetVerification(ctx context.Context, id uint64, status string) (*OwnTherapistProfile, error) {
	switch status {
	case models.VerificationVerified, models.VerificationRejected, models.VerificationPending:
	default:
		return nil, &ValidationError{Fields: map[string]string{"status": "must be verified, rejected or pending"}}
	}

	var profile models.TherapistProfile
	if err := s.DB.First(&profile, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("therapist %d: %w", id, ErrNotFound)
		}
		return nil, err
	}

	updates := map[string]interface{}{"verification_status": status, "verified_at": nil}
	if status == models.VerificationVerified {
		updates["verified_at"] = time.Now().UTC()
	}
	if err := s.DB.Model(&profile).Updates(updates).Error; err != nil {
		return nil, err
	}
	if err := s.DB.First(&profile, id).Error; err != nil {
		return nil, err
	}

	if s.Mailer != nil && profile.Email != "" && status != models.VerificationPending {
		if _, err := s.Mailer.Send(verificationEmail(profile)); err != nil {
			log.Printf("Verification email to therapist %d failed: %v", profile.ID, err)
		}
	}
	return ownView(&profile), nil
}

func verificationEmail(p models.TherapistProfile) vendors.Email {
	name := html.EscapeString(p.FullName)
	if p.VerificationStatus == models.VerificationVerified {
		return vendors.Email{
			To:      []string{p.Email},
			Subject: "Your Haven therapist profile is verified",
			HTML:    "<p>Hi " + name + ",</p><p>Your license has been verified and your profile is now visible to people looking for support.</p>",
		}
	}
	return vendors.Email{
		To:      []string{p.Email},
		Subject: "We could not verify your Haven therapist profile",
		HTML:    "<p>Hi " + name + ",</p><p>We were unable to verify your license. Please check your license details and upload a clear image of your credential.</p>",
	}
}

// MatchTherapists ranks verified therapists who accept clients against the patient's profile.
// Score is 3 per shared concern, 2 per shared language, 1 per shared modality and 1 for a
// session format match. A known patient state must match the license state.
func (s *TherapistService) MatchTherapists(userID string, limit int) ([]TherapistMatch, error) {
	if limit <= 0 {
		limit = defaultMatchLimit
	}
	limit = min(limit, maxMatchLimit)

	var up models.UserProfile
	patient := map[string]interface{}{}
	if err := s.silent().Where("user_id = ?", userID).First(&up).Error; err == nil {
		if obj, err := up.Profile.Object(); err == nil {
			patient = obj
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	concerns := toStringList(patient["concerns"])
	languages := toStringList(patient["languages"])
	modalities := toStringList(patient["modalities"])
	formats := toStringList(patient["session_format"])
	state := ""
	if st := toStringList(patient["state"]); len(st) > 0 {
		state = strings.ToUpper(st[0])
	}

	query := s.silent().Where("verification_status = ? AND accepting_clients = ?", models.VerificationVerified, true)
	if state != "" {
		query = query.Where("license_state = ?", state)
	}
	var therapists []models.TherapistProfile
	if err := query.Find(&therapists).Error; err != nil {
		return nil, err
	}

	matches := make([]TherapistMatch, 0, len(therapists))
	for _, t := range therapists {
		m := TherapistMatch{Therapist: t, Reasons: []string{}}
		if shared := intersectFold(concerns, t.Specialties); len(shared) > 0 {
			m.Score += 3 * len(shared)
			m.Reasons = append(m.Reasons, "specializes in "+strings.Join(shared, ", "))
		}
		if shared := intersectFold(languages, t.Languages); len(shared) > 0 {
			m.Score += 2 * len(shared)
			m.Reasons = append(m.Reasons, "speaks "+strings.Join(shared, ", "))
		}
		if shared := intersectFold(modalities, t.Modalities); len(shared) > 0 {
			m.Score += len(shared)
			m.Reasons = append(m.Reasons, "practices "+strings.Join(shared, ", "))
		}
		if shared := intersectFold(formats, t.SessionFormats); len(shared) > 0 {
			m.Score++
			m.Reasons = append(m.Reasons, "offers "+shared[0]+" sessions")
		}
		if state != "" {
			m.Reasons = append(m.Reasons, "licensed in "+state)
		}
		matches = append(matches, m)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return strings.ToLower(matches[i].Therapist.FullName) < strings.ToLower(matches[j].Therapist.FullName)
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// toStringList reads a profile value that may be a string, comma separated or not, or a list
func toStringList(v interface{}) []string {
	switch val := v.(type) {
	case string:
		return cleanList(strings.Split(val, ","))
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return cleanList(out)
	case []string:
		return cleanList(val)
	}
	return nil
}

// intersectFold returns the items of a found in b, ignoring case, in a's order
func intersectFold(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(b))
	for _, item := range b {
		set[strings.ToLower(strings.TrimSpace(item))] = struct{}{}
	}
	var out []string
	for _, item := range a {
		if _, ok := set[strings.ToLower(item)]; ok {
			out = append(out, item)
		}
	}
	return out
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, item := range in {
		item = strings.TrimSpace(item)
		key := strings.ToLower(item)
		if item == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

func alphanumeric(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToUpper(r))
		}
	}
	return sb.String()
}

func isLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
