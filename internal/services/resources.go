// resources.go
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
	"sort"
	"strings"

	"github.com/localnerve/haven/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	defaultResourceLimit = 20
	maxResourceLimit     = 100
)

// fallbackCrisisResource is served when no crisis resources are configured
var fallbackCrisisResource = models.Resource{
	Name:         "988 Suicide & Crisis Lifeline",
	Category:     "crisis",
	Description:  "Free, confidential support for people in distress, 24/7. Call or text 988.",
	Phone:        "988",
	SMS:          "988",
	URL:          "https://988lifeline.org",
	Region:       "US",
	Tags:         models.StringList{"suicide", "crisis", "hotline"},
	Crisis:       true,
	Available247: true,
}

// ResourceQuery filters SearchResources
type ResourceQuery struct {
	Q          string
	Category   string
	Region     string
	CrisisOnly bool
	Limit      int
}

// SearchResources matches a case-insensitive substring of q against name, description and
// tags. Crisis resources sort first.
func SearchResources(db *gorm.DB, q ResourceQuery) ([]models.Resource, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultResourceLimit
	}
	limit = min(limit, maxResourceLimit)

	query := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).Model(&models.Resource{})
	if q.Category != "" {
		query = query.Where("category = ?", strings.ToLower(q.Category))
	}
	if q.Region != "" {
		query = query.Where("region = ? OR region = '' OR region IS NULL", q.Region)
	}
	if q.CrisisOnly {
		query = query.Where("crisis = ?", true)
	}

	var candidates []models.Resource
	if err := query.Order("name").Find(&candidates).Error; err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(q.Q))
	results := make([]models.Resource, 0, len(candidates))
	for _, r := range candidates {
		if needle == "" || resourceMatches(r, needle) {
			results = append(results, r)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Crisis && !results[j].Crisis
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func resourceMatches(r models.Resource, needle string) bool {
	if strings.Contains(strings.ToLower(r.Name), needle) ||
		strings.Contains(strings.ToLower(r.Description), needle) {
		return true
	}
	for _, tag := range r.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// CrisisResources returns the configured crisis resources, or the 988 Lifeline
func CrisisResources(db *gorm.DB) ([]models.Resource, error) {
	resources, err := SearchResources(db, ResourceQuery{CrisisOnly: true, Limit: maxResourceLimit})
	if err != nil {
		return nil, err
	}
	if len(resources) == 0 {
		return []models.Resource{fallbackCrisisResource}, nil
	}
	return resources, nil
}

// ResourceInput is the editable part of a resource
type ResourceInput struct {
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Description  string   `json:"description"`
	Phone        string   `json:"phone"`
	SMS          string   `json:"sms"`
	URL          string   `json:"url"`
	Region       string   `json:"region"`
	Tags         []string `json:"tags"`
	Crisis       bool     `json:"crisis"`
	Available247 bool     `json:"available247"`
}

func (in *ResourceInput) normalize() error {
	errs := fieldErrors{}
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	if in.Name == "" {
		errs.add("name", "required")
	}
	if in.Category == "" {
		errs.add("category", "required")
	}
	if in.Phone == "" && in.SMS == "" && in.URL == "" {
		errs.add("contact", "one of phone, sms or url is required")
	}
	return errs.err()
}

func (in ResourceInput) apply(r *models.Resource) {
	r.Name = in.Name
	r.Category = in.Category
	r.Description = in.Description
	r.Phone = in.Phone
	r.SMS = in.SMS
	r.URL = in.URL
	r.Region = in.Region
	r.Tags = models.StringList(in.Tags)
	r.Crisis = in.Crisis
	r.Available247 = in.Available247
}

// CreateResource inserts a resource
func CreateResource(db *gorm.DB, in ResourceInput) (*models.Resource, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	var r models.Resource
	in.apply(&r)
	if err := db.Create(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateResource replaces a resource's fields
func UpdateResource(db *gorm.DB, id uint64, in ResourceInput) (*models.Resource, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	var r models.Resource
	if err := db.First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("resource %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	in.apply(&r)
	if err := db.Save(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteResource removes a resource
func DeleteResource(db *gorm.DB, id uint64) error {
	result := db.Delete(&models.Resource{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("resource %d: %w", id, ErrNotFound)
	}
	return nil
}
