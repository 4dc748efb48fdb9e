// profile.go
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

package models

import "time"

// Intake kinds
const (
	IntakePatient  = "patient"
	IntakeProvider = "provider"
)

// Therapist verification states
const (
	VerificationPending       = "pending"
	VerificationPendingReview = "pending_review"
	VerificationVerified      = "verified"
	VerificationRejected      = "rejected"
)

// UserProfile stores the free-form profile document built up through intake and chat
type UserProfile struct {
	UserID      string    `gorm:"type:varchar(64);primaryKey" json:"userId"`
	DisplayName string    `gorm:"size:255" json:"displayName"`
	Profile     JSON      `json:"profile"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IntakeQuestion is one onboarding question for patients or providers
type IntakeQuestion struct {
	ID        uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind      string     `gorm:"size:16;not null;index" json:"kind"`
	Key       string     `gorm:"column:question_key;size:64;not null;uniqueIndex" json:"key"`
	Prompt    string     `gorm:"type:text;not null" json:"prompt"`
	InputType string     `gorm:"size:16;not null;default:text" json:"inputType"`
	Options   StringList `json:"options"`
	Position  int        `gorm:"not null;default:0" json:"position"`
	Active    bool       `gorm:"not null" json:"active"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// IntakeAnswer is a user's answer to an intake question
type IntakeAnswer struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_intake_user_question" json:"userId"`
	QuestionID     uint64    `gorm:"not null;uniqueIndex:idx_intake_user_question" json:"questionId"`
	Kind           string    `gorm:"size:16;not null" json:"kind"`
	Answer         string    `gorm:"type:text;not null" json:"answer"`
	AudioSessionID string    `gorm:"size:36" json:"audioSessionId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TherapistProfile is a provider's onboarding and matching record
type TherapistProfile struct {
	ID                 uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID             string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	FullName           string     `gorm:"size:255;not null" json:"fullName"`
	Email              string     `gorm:"size:255" json:"-"`
	LicenseNumber      string     `gorm:"size:64;not null" json:"-"`
	LicenseState       string     `gorm:"size:2;not null;index" json:"licenseState"`
	Specialties        StringList `json:"specialties"`
	Modalities         StringList `json:"modalities"`
	Languages          StringList `json:"languages"`
	SessionFormats     StringList `json:"sessionFormats"`
	Bio                string     `gorm:"type:text" json:"bio"`
	AcceptingClients   bool       `gorm:"not null" json:"acceptingClients"`
	VerificationStatus string     `gorm:"size:32;not null;default:pending;index" json:"verificationStatus"`
	CredentialMatch    *bool      `json:"credentialMatch,omitempty"`
	CredentialText     string     `gorm:"type:text" json:"-"`
	VerifiedAt         *time.Time `json:"verifiedAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// TableName overrides the table name for UserProfile
func (UserProfile) TableName() string {
	return "user_profiles"
}

// TableName overrides the table name for IntakeQuestion
func (IntakeQuestion) TableName() string {
	return "intake_questions"
}

// TableName overrides the table name for IntakeAnswer
func (IntakeAnswer) TableName() string {
	return "intake_answers"
}

// TableName overrides the table name for TherapistProfile
func (TherapistProfile) TableName() string {
	return "therapist_profiles"
}
