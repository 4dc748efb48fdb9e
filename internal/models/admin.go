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

package models

import "time"

// AIPrompt is a versioned prompt document managed from the admin console
type AIPrompt struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Key           string    `gorm:"column:prompt_key;size:64;uniqueIndex;not null" json:"key"`
	Name          string    `gorm:"size:255" json:"name"`
	Description   string    `gorm:"type:text" json:"description"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	Model         string    `gorm:"size:128" json:"model"`
	Temperature   float64   `gorm:"not null" json:"temperature"`
	MaxTokens     int       `gorm:"not null;default:0" json:"maxTokens"`
	Active        bool      `gorm:"not null" json:"active"`
	PromptVersion uint64    `gorm:"not null;default:0" json:"version"`
	UpdatedBy     string    `gorm:"size:64" json:"updatedBy"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// PromptRevision is an immutable snapshot written on every prompt change
type PromptRevision struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	PromptKey     string    `gorm:"size:64;not null;index" json:"key"`
	PromptVersion uint64    `gorm:"not null" json:"version"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	Model         string    `gorm:"size:128" json:"model"`
	Temperature   float64   `json:"temperature"`
	UpdatedBy     string    `gorm:"size:64" json:"updatedBy"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Greeting is an opening line offered to a user in a given context
type Greeting struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Context   string    `gorm:"size:32;not null;index" json:"context"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Weight    int       `gorm:"not null;default:1" json:"weight"`
	Active    bool      `gorm:"not null" json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ContentPage is editorial content served by slug
type ContentPage struct {
	ID          uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Slug        string     `gorm:"size:191;uniqueIndex;not null" json:"slug"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Summary     string     `gorm:"type:text" json:"summary"`
	Body        string     `gorm:"type:text;not null" json:"body"`
	Published   bool       `gorm:"not null;default:false" json:"published"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Resource is a support resource surfaced by search and crisis responses
type Resource struct {
	ID           uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string     `gorm:"size:255;not null" json:"name"`
	Category     string     `gorm:"size:32;not null;index" json:"category"`
	Description  string     `gorm:"type:text" json:"description"`
	Phone        string     `gorm:"size:64" json:"phone,omitempty"`
	SMS          string     `gorm:"size:64" json:"sms,omitempty"`
	URL          string     `gorm:"size:512" json:"url,omitempty"`
	Region       string     `gorm:"size:64;index" json:"region,omitempty"`
	Tags         StringList `json:"tags"`
	Crisis       bool       `gorm:"not null;default:false" json:"crisis"`
	Available247 bool       `gorm:"column:available_24_7;not null;default:false" json:"available247"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// TableName overrides the table name for AIPrompt
func (AIPrompt) TableName() string {
	return "ai_prompts"
}

// TableName overrides the table name for PromptRevision
func (PromptRevision) TableName() string {
	return "prompt_revisions"
}

// TableName overrides the table name for Greeting
func (Greeting) TableName() string {
	return "greetings"
}

// TableName overrides the table name for ContentPage
func (ContentPage) TableName() string {
	return "content_pages"
}

// TableName overrides the table name for Resource
func (Resource) TableName() string {
	return "resources"
}
