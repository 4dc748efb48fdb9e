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

package models

import (
	"time"

	"gorm.io/gorm"
)

// Post statuses
const (
	PostPublished = "published"
	PostPending   = "pending"
	PostRemoved   = "removed"
)

// Circle is a community sub-forum
type Circle struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Slug        string    `gorm:"size:191;uniqueIndex;not null" json:"slug"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	MemberCount int64     `gorm:"not null;default:0" json:"memberCount"`
	CreatedBy   string    `gorm:"type:varchar(64)" json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CircleMembership links a user to a circle
type CircleMembership struct {
	ID       uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CircleID uint64    `gorm:"not null;uniqueIndex:idx_circle_member" json:"circleId"`
	UserID   string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_circle_member;index" json:"userId"`
	Role     string    `gorm:"size:16;not null;default:member" json:"role"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joinedAt"`
}

// CommunityPost is a post within a circle
type CommunityPost struct {
	ID                uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	CircleID          uint64         `gorm:"not null;index" json:"circleId"`
	AuthorID          string         `gorm:"type:varchar(64);not null;index" json:"-"`
	Anonymous         bool           `gorm:"not null;default:false" json:"anonymous"`
	Title             string         `gorm:"size:255;not null" json:"title"`
	Body              string         `gorm:"type:text;not null" json:"body"`
	Status            string         `gorm:"size:16;not null;default:published;index" json:"status"`
	Score             int64          `gorm:"not null;default:0" json:"score"`
	CommentCount      int64          `gorm:"not null;default:0" json:"commentCount"`
	ModerationReasons StringList     `json:"-"`
	CreatedAt         time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// CommunityComment is a reply to a post
type CommunityComment struct {
	ID                uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID            uint64         `gorm:"not null;index" json:"postId"`
	AuthorID          string         `gorm:"type:varchar(64);not null" json:"-"`
	Anonymous         bool           `gorm:"not null;default:false" json:"anonymous"`
	Body              string         `gorm:"type:text;not null" json:"body"`
	Status            string         `gorm:"size:16;not null;default:published" json:"status"`
	ModerationReasons StringList     `json:"-"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// CommunityVote is one user's vote on a post
type CommunityVote struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	PostID    uint64 `gorm:"not null;uniqueIndex:idx_vote_post_user"`
	UserID    string `gorm:"type:varchar(64);not null;uniqueIndex:idx_vote_post_user"`
	Value     int    `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PostReport is a user report against a post
type PostReport struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID     uint64    `gorm:"not null;uniqueIndex:idx_report_post_user" json:"postId"`
	ReporterID string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_report_post_user" json:"-"`
	Reason     string    `gorm:"type:text;not null" json:"reason"`
	Resolved   bool      `gorm:"not null;default:false;index" json:"resolved"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TableName overrides the table name for Circle
func (Circle) TableName() string {
	return "circles"
}

// TableName overrides the table name for CircleMembership
func (CircleMembership) TableName() string {
	return "circle_memberships"
}

// TableName overrides the table name for CommunityPost
func (CommunityPost) TableName() string {
	return "community_posts"
}

// TableName overrides the table name for CommunityComment
func (CommunityComment) TableName() string {
	return "community_comments"
}

// TableName overrides the table name for CommunityVote
func (CommunityVote) TableName() string {
	return "community_votes"
}

// TableName overrides the table name for PostReport
func (PostReport) TableName() string {
	return "post_reports"
}
