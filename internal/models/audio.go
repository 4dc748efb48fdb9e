// audio.go
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

// Recording statuses
const (
	RecordingPending  = "pending"
	RecordingCombined = "combined"
	RecordingFailed   = "failed"
)

// AudioChunk is one uploaded slice of a voice recording session
type AudioChunk struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	SessionID   string `gorm:"type:char(36);not null;uniqueIndex:idx_audio_session_chunk"`
	ChunkIndex  int    `gorm:"not null;uniqueIndex:idx_audio_session_chunk"`
	UserID      string `gorm:"type:varchar(64);not null;index"`
	ContentType string `gorm:"size:64;not null"`
	Data        []byte `gorm:"not null"`
	Size        int    `gorm:"not null"`
	Silent      bool   `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AudioRecording is the combined result of a chunk session
type AudioRecording struct {
	SessionID     string    `gorm:"type:char(36);primaryKey" json:"sessionId"`
	UserID        string    `gorm:"type:varchar(64);not null;index" json:"-"`
	ContentType   string    `gorm:"size:64;not null" json:"contentType"`
	Data          []byte    `json:"-"`
	Size          int       `gorm:"not null;default:0" json:"size"`
	ChunkCount    int       `gorm:"not null;default:0" json:"chunkCount"`
	SkippedChunks int       `gorm:"not null;default:0" json:"skippedChunks"`
	Status        string    `gorm:"size:16;not null;default:pending" json:"status"`
	Transcript    string    `gorm:"type:text" json:"transcript,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// TableName overrides the table name for AudioChunk
func (AudioChunk) TableName() string {
	return "audio_chunks"
}

// TableName overrides the table name for AudioRecording
func (AudioRecording) TableName() string {
	return "audio_recordings"
}
