// content.go
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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/localnerve/haven/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ContentInput is the editable part of a content page
type ContentInput struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Body      string `json:"body"`
	Published bool   `json:"published"`
}

func (in *ContentInput) normalize() error {
	errs := fieldErrors{}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		errs.add("title", "required")
	}
	if strings.TrimSpace(in.Body) == "" {
		errs.add("body", "required")
	}
	if in.Slug == "" {
		in.Slug = slug.Make(in.Title)
	} else {
		in.Slug = slug.Make(in.Slug)
	}
	if in.Slug == "" && in.Title != "" {
		errs.add("slug", "could not derive a slug from title")
	}
	return errs.err()
}

// ListContent returns every page for the admin console
func ListContent(db *gorm.DB) ([]models.ContentPage, error) {
	var pages []models.ContentPage
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Order("slug").Find(&pages).Error
	return pages, err
}

// GetPublishedContent returns a published page by slug
func GetPublishedContent(db *gorm.DB, pageSlug string) (*models.ContentPage, error) {
	var page models.ContentPage
	if err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Where("slug = ? AND published = ?", pageSlug, true).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("content %q: %w", pageSlug, ErrNotFound)
		}
		return nil, err
	}
	return &page, nil
}

// CreateContent inserts a page. The slug comes from the title when not given.
func CreateContent(db *gorm.DB, in ContentInput) (*models.ContentPage, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	page := models.ContentPage{Slug: in.Slug}
	applyContentInput(&page, in)

	err := db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ContentPage{}).Where("slug = ?", page.Slug).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("content %q: %w", page.Slug, ErrConflict)
		}
		return tx.Create(&page).Error
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdateContent replaces a page's fields. Changing the slug checks uniqueness.
func UpdateContent(db *gorm.DB, id uint64, in ContentInput) (*models.ContentPage, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var page models.ContentPage
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&page, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("content %d: %w", id, ErrNotFound)
			}
			return err
		}
		if in.Slug != page.Slug {
			var count int64
			if err := tx.Model(&models.ContentPage{}).Where("slug = ? AND id <> ?", in.Slug, id).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return fmt.Errorf("content %q: %w", in.Slug, ErrConflict)
			}
			page.Slug = in.Slug
		}
		applyContentInput(&page, in)
		return tx.Save(&page).Error
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// DeleteContent removes a page
func DeleteContent(db *gorm.DB, id uint64) error {
	result := db.Delete(&models.ContentPage{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("content %d: %w", id, ErrNotFound)
	}
	return nil
}

// applyContentInput sets PublishedAt on first publish and keeps it afterwards
func applyContentInput(page *models.ContentPage, in ContentInput) {
	page.Title = in.Title
	page.Summary = in.Summary
	page.Body = in.Body
	page.Published = in.Published
	if in.Published && page.PublishedAt == nil {
		now := time.Now().UTC()
		page.PublishedAt = &now
	}
}
