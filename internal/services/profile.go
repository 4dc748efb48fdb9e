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

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/localnerve/haven/internal/ai"
	"github.com/localnerve/haven/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ProfileMergePromptKey names the prompt that reconciles profile updates
const ProfileMergePromptKey = "profile_merge"

// Merge strategies reported by MergeProfile
const (
	MergeByModel    = "model"
	MergeByFallback = "fallback"
)

const fallbackMergePrompt = "You maintain a JSON profile for a person using a mental health support app. " +
	"Merge the updates into the existing profile. Keep existing facts unless an update replaces them, " +
	"merge lists without duplicates and drop keys whose update is null. " +
	"Reply with the merged JSON object only."

// ProfileMergeResult is the outcome of MergeProfile
type ProfileMergeResult struct {
	Profile  *models.UserProfile `json:"profile"`
	Strategy string              `json:"strategy"`
}

// ProfileService stores the free-form profile chat personalizes with
type ProfileService struct {
	DB        *gorm.DB
	Catalog   *Catalog
	Completer ai.Completer
}

// GetProfile returns the user's profile, or an empty one
func (s *ProfileService) GetProfile(userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.DB.Session(&gorm.Session{Logger: s.DB.Logger.LogMode(logger.Silent)}).
		Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		empty, _ := models.NewJSON(map[string]interface{}{})
		return &models.UserProfile{UserID: userID, Profile: empty}, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// MergeProfile folds updates into the stored profile. The model reconciles the two when it
// is available and answers with a JSON object; otherwise a shallow merge is applied.
func (s *ProfileService) MergeProfile(ctx context.Context, userID string, displayName *string, updates map[string]interface{}) (*ProfileMergeResult, error) {
	if len(updates) == 0 && displayName == nil {
		return nil, &ValidationError{Fields: map[string]string{"updates": "must be a non-empty object"}}
	}

	current, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}
	existing, err := current.Profile.Object()
	if err != nil {
		log.Printf("Stored profile for %s is not an object, starting over: %v", userID, err)
		existing = map[string]interface{}{}
	}

	merged, strategy := existing, MergeByFallback
	if len(updates) > 0 {
		merged = nil
		if s.Completer != nil {
			merged, err = s.mergeWithModel(ctx, existing, updates)
			if err != nil {
				log.Printf("Profile merge by model failed for %s, using shallow merge: %v", userID, err)
				merged = nil
			} else {
				strategy = MergeByModel
			}
		}
		if merged == nil {
			merged = ShallowMerge(existing, updates)
		}
	}

	profileJSON, err := models.NewJSON(merged)
	if err != nil {
		return nil, err
	}
	current.Profile = profileJSON
	columns := []string{"profile", "updated_at"}
	if displayName != nil {
		current.DisplayName = strings.TrimSpace(*displayName)
		columns = append(columns, "display_name")
	}

	if err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(current).Error; err != nil {
		return nil, err
	}

	stored, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}
	return &ProfileMergeResult{Profile: stored, Strategy: strategy}, nil
}

func (s *ProfileService) mergeWithModel(ctx context.Context, existing, updates map[string]interface{}) (map[string]interface{}, error) {
	req := ai.CompletionRequest{System: fallbackMergePrompt}
	if s.Catalog != nil {
		prompt, err := s.Catalog.ActivePrompt(ctx, ProfileMergePromptKey)
		switch {
		case err == nil:
			req.System = prompt.Content
			req.Model = prompt.Model
			req.MaxTokens = prompt.MaxTokens
			temperature := prompt.Temperature
			req.Temperature = &temperature
		case !errors.Is(err, ErrNotFound):
			return nil, err
		}
	}

	payload, err := json.Marshal(map[string]interface{}{"existing": existing, "updates": updates})
	if err != nil {
		return nil, err
	}
	req.Messages = []ai.ChatMessage{{Role: models.RoleUser, Content: string(payload)}}

	reply, err := s.Completer.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	return ExtractJSONObject(reply)
}

// ExtractJSONObject decodes a model reply that is a single JSON object, optionally inside a
// code fence
func ExtractJSONObject(reply string) (map[string]interface{}, error) {
	text := strings.TrimSpace(reply)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			text = text[nl+1:]
		}
		text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "```"))
	}

	if !strings.HasPrefix(text, "{") {
		return nil, fmt.Errorf("no JSON object in reply")
	}

	var out map[string]interface{}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("reply is not a JSON object: %w", err)
	}
	return out, nil
}

// ShallowMerge overlays updates on existing at the top level. A nil update deletes the key.
func ShallowMerge(existing, updates map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(existing)+len(updates))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range updates {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}
