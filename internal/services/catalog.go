// catalog.go
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
	"log"
	"strings"
	"time"

	"github.com/localnerve/haven/internal/cache"
	"github.com/localnerve/haven/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const (
	promptCachePrefix     = "prompt:"
	specialistsCacheKey   = "specialists:active"
	defaultPromptTemp     = 0.7
	maxPromptContentBytes = 64 * 1024
)

// Catalog owns the admin-managed documents chat depends on: versioned AI prompts and
// specialists. Active reads go through the cache when one is configured.
type Catalog struct {
	DB    *gorm.DB
	Cache cache.Cache
	TTL   time.Duration
}

// PromptInput is the editable part of an AI prompt
type PromptInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   int      `json:"maxTokens"`
	Active      *bool    `json:"active"`
}

func (in PromptInput) validate() error {
	errs := fieldErrors{}
	if strings.TrimSpace(in.Content) == "" {
		errs.add("content", "required")
	} else if len(in.Content) > maxPromptContentBytes {
		errs.add("content", "too long")
	}
	if in.Temperature != nil && (*in.Temperature < 0 || *in.Temperature > 2) {
		errs.add("temperature", "must be between 0 and 2")
	}
	if in.MaxTokens < 0 {
		errs.add("maxTokens", "must not be negative")
	}
	return errs.err()
}

func (c *Catalog) silent() *gorm.DB {
	return c.DB.Session(&gorm.Session{Logger: c.DB.Logger.LogMode(logger.Silent)})
}

// ListPrompts returns every prompt ordered by key
func (c *Catalog) ListPrompts() ([]models.AIPrompt, error) {
	var prompts []models.AIPrompt
	if err := c.silent().Order("prompt_key").Find(&prompts).Error; err != nil {
		return nil, err
	}
	return prompts, nil
}

// GetPrompt returns one prompt by key
func (c *Catalog) GetPrompt(key string) (*models.AIPrompt, error) {
	var prompt models.AIPrompt
	if err := c.silent().Where("prompt_key = ?", key).First(&prompt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("prompt %q: %w", key, ErrNotFound)
		}
		return nil, err
	}
	return &prompt, nil
}

// ActivePrompt returns an active prompt by key, from the cache when possible
func (c *Catalog) ActivePrompt(ctx context.Context, key string) (*models.AIPrompt, error) {
	var prompt models.AIPrompt
	if err := cache.GetJSON(ctx, c.Cache, promptCachePrefix+key, &prompt); err == nil {
		return &prompt, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Printf("Prompt cache read for %s failed: %v", key, err)
	}

	if err := c.silent().Where("prompt_key = ? AND active = ?", key, true).First(&prompt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("active prompt %q: %w", key, ErrNotFound)
		}
		return nil, err
	}

	if err := cache.SetJSON(ctx, c.Cache, promptCachePrefix+key, &prompt, c.TTL); err != nil {
		log.Printf("Prompt cache write for %s failed: %v", key, err)
	}
	return &prompt, nil
}

// ListRevisions returns the revision history of a prompt, newest first
func (c *Catalog) ListRevisions(key string) ([]models.PromptRevision, error) {
	var revisions []models.PromptRevision
	if err := c.silent().Where("prompt_key = ?", key).
		Order("prompt_version DESC").Find(&revisions).Error; err != nil {
		return nil, err
	}
	if len(revisions) == 0 {
		if _, err := c.GetPrompt(key); err != nil {
			return nil, err
		}
	}
	return revisions, nil
}

// SetPrompt upserts a prompt. version must equal the stored version (0 for a new key).
// The version is bumped, and a revision written, only when something changed.
func (c *Catalog) SetPrompt(ctx context.Context, key string, version uint64, in PromptInput, editor string) (uint64, int64, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return 0, 0, &ValidationError{Fields: map[string]string{"key": "required"}}
	}
	if err := in.validate(); err != nil {
		return 0, 0, err
	}

	var newVersion uint64
	var affectedRows int64

	err := c.DB.Transaction(func(tx *gorm.DB) error {
		// Lock and check version
		var prompt models.AIPrompt
		exists := true
		if err := tx.Session(&gorm.Session{Logger: tx.Logger.LogMode(logger.Silent)}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("prompt_key = ?", key).
			First(&prompt).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			exists = false
		}

		if prompt.PromptVersion != version {
			return ErrVersion
		}

		next := prompt
		next.Key = key
		next.Content = in.Content
		if in.Name != "" || !exists {
			next.Name = in.Name
		}
		if in.Description != "" || !exists {
			next.Description = in.Description
		}
		next.Model = in.Model
		next.MaxTokens = in.MaxTokens
		switch {
		case in.Temperature != nil:
			next.Temperature = *in.Temperature
		case !exists:
			next.Temperature = defaultPromptTemp
		}
		switch {
		case in.Active != nil:
			next.Active = *in.Active
		case !exists:
			next.Active = true
		}

		if exists && !promptChanged(prompt, next) {
			newVersion = prompt.PromptVersion
			return nil
		}

		newVersion = prompt.PromptVersion + 1
		next.UpdatedBy = editor

		if !exists {
			next.PromptVersion = newVersion
			result := tx.Create(&next)
			if result.Error != nil {
				return result.Error
			}
			affectedRows = result.RowsAffected
		} else {
			result := tx.Model(&models.AIPrompt{}).
				Where("id = ? AND prompt_version = ?", prompt.ID, prompt.PromptVersion).
				Updates(map[string]interface{}{
					"name":           next.Name,
					"description":    next.Description,
					"content":        next.Content,
					"model":          next.Model,
					"temperature":    next.Temperature,
					"max_tokens":     next.MaxTokens,
					"active":         next.Active,
					"prompt_version": newVersion,
					"updated_by":     editor,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("%w - Failed to update prompt due to concurrent modification", ErrVersion)
			}
			affectedRows = result.RowsAffected
		}

		return tx.Create(&models.PromptRevision{
			PromptKey:     key,
			PromptVersion: newVersion,
			Content:       next.Content,
			Model:         next.Model,
			Temperature:   next.Temperature,
			UpdatedBy:     editor,
		}).Error
	})
	if err != nil {
		return 0, 0, err
	}

	if affectedRows > 0 {
		c.invalidate(ctx, promptCachePrefix+key)
	}
	return newVersion, affectedRows, nil
}

func promptChanged(a, b models.AIPrompt) bool {
	return a.Name != b.Name || a.Description != b.Description || a.Content != b.Content ||
		a.Model != b.Model || a.Temperature != b.Temperature || a.MaxTokens != b.MaxTokens ||
		a.Active != b.Active
}

// DeletePrompt removes a prompt and its revisions after a version check
func (c *Catalog) DeletePrompt(ctx context.Context, key string, version uint64) (int64, error) {
	var affectedRows int64

	err := c.DB.Transaction(func(tx *gorm.DB) error {
		var prompt models.AIPrompt
		if err := tx.Session(&gorm.Session{Logger: tx.Logger.LogMode(logger.Silent)}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("prompt_key = ?", key).
			First(&prompt).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("prompt %q: %w", key, ErrNotFound)
			}
			return err
		}

		if prompt.PromptVersion != version {
			return ErrVersion
		}

		result := tx.Delete(&prompt)
		if result.Error != nil {
			return result.Error
		}
		affectedRows = result.RowsAffected

		return tx.Where("prompt_key = ?", key).Delete(&models.PromptRevision{}).Error
	})
	if err != nil {
		return 0, err
	}

	c.invalidate(ctx, promptCachePrefix+key)
	return affectedRows, nil
}

// SpecialistInput is the editable part of a specialist
type SpecialistInput struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PromptKey   string   `json:"promptKey"`
	Keywords    []string `json:"keywords"`
	Priority    int      `json:"priority"`
	IsDefault   bool     `json:"isDefault"`
	Active      *bool    `json:"active"`
	VoiceID     string   `json:"voiceId"`
}

func (in SpecialistInput) validate() error {
	errs := fieldErrors{}
	if strings.TrimSpace(in.Key) == "" {
		errs.add("key", "required")
	}
	if strings.TrimSpace(in.Name) == "" {
		errs.add("name", "required")
	}
	if strings.TrimSpace(in.PromptKey) == "" {
		errs.add("promptKey", "required")
	}
	return errs.err()
}

// ActiveSpecialists returns active specialists ordered by priority, from the cache when possible
func (c *Catalog) ActiveSpecialists(ctx context.Context) ([]models.Specialist, error) {
	var specialists []models.Specialist
	if err := cache.GetJSON(ctx, c.Cache, specialistsCacheKey, &specialists); err == nil {
		return specialists, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Printf("Specialist cache read failed: %v", err)
	}

	if err := c.silent().Where("active = ?", true).
		Order("priority DESC").Order("specialist_key").Find(&specialists).Error; err != nil {
		return nil, err
	}

	if err := cache.SetJSON(ctx, c.Cache, specialistsCacheKey, specialists, c.TTL); err != nil {
		log.Printf("Specialist cache write failed: %v", err)
	}
	return specialists, nil
}

// ListSpecialists returns every specialist, including inactive ones
func (c *Catalog) ListSpecialists() ([]models.Specialist, error) {
	var specialists []models.Specialist
	err := c.silent().Order("priority DESC").Order("specialist_key").Find(&specialists).Error
	return specialists, err
}

// SpecialistByKey returns one specialist
func (c *Catalog) SpecialistByKey(key string) (*models.Specialist, error) {
	var s models.Specialist
	if err := c.silent().Where("specialist_key = ?", key).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("specialist %q: %w", key, ErrNotFound)
		}
		return nil, err
	}
	return &s, nil
}

// CreateSpecialist inserts a specialist. A new default clears the previous one.
func (c *Catalog) CreateSpecialist(ctx context.Context, in SpecialistInput) (*models.Specialist, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	s := models.Specialist{Key: strings.TrimSpace(in.Key), Active: true}
	applySpecialistInput(&s, in)

	err := c.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Specialist{}).Where("specialist_key = ?", s.Key).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("specialist %q: %w", s.Key, ErrConflict)
		}
		if s.IsDefault {
			if err := clearDefaultSpecialist(tx); err != nil {
				return err
			}
		}
		return tx.Create(&s).Error
	})
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx, specialistsCacheKey)
	return &s, nil
}

// UpdateSpecialist replaces the editable fields of a specialist. The key cannot change.
func (c *Catalog) UpdateSpecialist(ctx context.Context, key string, in SpecialistInput) (*models.Specialist, error) {
	in.Key = key
	if err := in.validate(); err != nil {
		return nil, err
	}

	var s models.Specialist
	err := c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("specialist_key = ?", key).First(&s).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("specialist %q: %w", key, ErrNotFound)
			}
			return err
		}
		applySpecialistInput(&s, in)
		if s.IsDefault {
			if err := clearDefaultSpecialist(tx); err != nil {
				return err
			}
		}
		return tx.Save(&s).Error
	})
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx, specialistsCacheKey)
	return &s, nil
}

// DeleteSpecialist removes a specialist
func (c *Catalog) DeleteSpecialist(ctx context.Context, key string) error {
	result := c.DB.Where("specialist_key = ?", key).Delete(&models.Specialist{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("specialist %q: %w", key, ErrNotFound)
	}
	c.invalidate(ctx, specialistsCacheKey)
	return nil
}

func applySpecialistInput(s *models.Specialist, in SpecialistInput) {
	s.Name = strings.TrimSpace(in.Name)
	s.Description = in.Description
	s.PromptKey = strings.TrimSpace(in.PromptKey)
	s.Keywords = models.StringList(in.Keywords)
	s.Priority = in.Priority
	s.IsDefault = in.IsDefault
	s.VoiceID = in.VoiceID
	if in.Active != nil {
		s.Active = *in.Active
	}
}

func clearDefaultSpecialist(tx *gorm.DB) error {
	return tx.Model(&models.Specialist{}).Where("is_default = ?", true).Update("is_default", false).Error
}

func (c *Catalog) invalidate(ctx context.Context, keys ...string) {
	if err := cache.Invalidate(ctx, c.Cache, keys...); err != nil {
		log.Printf("Cache invalidation of %v failed: %v", keys, err)
	}
}

// InvalidateSpecialists drops the cached active specialist list after out-of-band writes
func (c *Catalog) InvalidateSpecialists(ctx context.Context) {
	c.invalidate(ctx, specialistsCacheKey)
}
