// conversation.go
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

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation modes
const (
	ModeText  = "text"
	ModeVoice = "voice"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Conversation is a chat thread owned by one user
type Conversation struct {
	ID              string         `gorm:"type:char(36);primaryKey" json:"id"`
	UserID          string         `gorm:"type:varchar(64);not null;index" json:"userId"`
	Title           string         `gorm:"size:255;not null" json:"title"`
	Mode            string         `gorm:"size:16;not null;default:text" json:"mode"`
	SpecialistKey   string         `gorm:"size:64" json:"specialistKey"`
	CrisisLevel     string         `gorm:"size:16;not null;default:none" json:"crisisLevel"`
	CrisisFlaggedAt *time.Time     `json:"crisisFlaggedAt,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
	Messages        []Message      `gorm:"constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// BeforeCreate assigns a UUID when none is set
func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Message is a single turn in a conversation
type Message struct {
	ID             string    `gorm:"type:char(36);primaryKey" json:"id"`
	ConversationID string    `gorm:"type:char(36);not null;index" json:"conversationId"`
	Role           string    `gorm:"size:16;not null" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	SpecialistKey  string    `gorm:"size:64" json:"specialistKey,omitempty"`
	CrisisLevel    string    `gorm:"size:16;not null;default:none" json:"crisisLevel"`
	Metadata       JSON      `json:"metadata,omitempty"`
	CreatedAt      time.Time `gorm:"index" json:"createdAt"`
}

// BeforeCreate assigns a UUID when none is set
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Specialist is a named AI persona selected by triage
type Specialist struct {
	ID          uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Key         string     `gorm:"column:specialist_key;size:64;uniqueIndex;not null" json:"key"`
	Name        string     `gorm:"size:255;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	PromptKey   string     `gorm:"size:64;not null" json:"promptKey"`
	Keywords    StringList `json:"keywords"`
	Priority    int        `gorm:"not null;default:0" json:"priority"`
	IsDefault   bool       `gorm:"not null;default:false" json:"isDefault"`
	Active      bool       `gorm:"not null" json:"active"`
	VoiceID     string     `gorm:"size:64" json:"voiceId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TableName overrides the table name for Conversation
func (Conversation) TableName() string {
	return "conversations"
}

// TableName overrides the table name for Message
func (Message) TableName() string {
	return "messages"
}

// TableName overrides the table name for Specialist
func (Specialist) TableName() string {
	return "specialists"
}
