// greetings.go
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
	"math/rand/v2"
	"strings"

	"github.com/localnerve/haven/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// randIntN is swapped in tests for deterministic picks
var randIntN = rand.IntN

// GreetingInput is the editable part of a greeting
type GreetingInput struct {
	Context string `json:"context"`
	Message string `json:"message"`
	Weight  int    `json:"weight"`
	Active  *bool  `json:"active"`
}

func (in *GreetingInput) normalize() error {
	errs := fieldErrors{}
	in.Context = strings.ToLower(strings.TrimSpace(in.Context))
	if in.Context == "" {
		in.Context = "general"
	}
	if strings.TrimSpace(in.Message) == "" {
		errs.add("message", "required")
	}
	if in.Weight == 0 {
		in.Weight = 1
	}
	if in.Weight < 1 || in.Weight > 100 {
		errs.add("weight", "must be between 1 and 100")
	}
	return errs.err()
}

// ListGreetings returns every greeting, optionally for one context
func ListGreetings(db *gorm.DB, context string) ([]models.Greeting, error) {
	var greetings []models.Greeting
	query := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).Order("context").Order("id")
	if context != "" {
		query = query.Where("context = ?", context)
	}
	err := query.Find(&greetings).Error
	return greetings, err
}

// CreateGreeting inserts a greeting
func CreateGreeting(db *gorm.DB, in GreetingInput) (*models.Greeting, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	g := models.Greeting{Context: in.Context, Message: in.Message, Weight: in.Weight, Active: true}
	if in.Active != nil {
		g.Active = *in.Active
	}
	if err := db.Create(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// UpdateGreeting replaces a greeting's fields
func UpdateGreeting(db *gorm.DB, id uint64, in GreetingInput) (*models.Greeting, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	var g models.Greeting
	if err := db.First(&g, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("greeting %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	g.Context, g.Message, g.Weight = in.Context, in.Message, in.Weight
	if in.Active != nil {
		g.Active = *in.Active
	}
	if err := db.Save(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// DeleteGreeting removes a greeting
func DeleteGreeting(db *gorm.DB, id uint64) error {
	result := db.Delete(&models.Greeting{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("greeting %d: %w", id, ErrNotFound)
	}
	return nil
}

// RandomGreeting picks an active greeting for context, weighted by Weight.
// It returns ErrNotFound when the context has none.
func RandomGreeting(db *gorm.DB, context string) (*models.Greeting, error) {
	context = strings.ToLower(strings.TrimSpace(context))
	if context == "" {
		context = "general"
	}

	var greetings []models.Greeting
	if err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Where("context = ? AND active = ?", context, true).
		Order("id").Find(&greetings).Error; err != nil {
		return nil, err
	}

	picked := pickWeighted(greetings)
	if picked == nil {
		return nil, fmt.Errorf("greeting for %q: %w", context, ErrNotFound)
	}
	return picked, nil
}

func pickWeighted(greetings []models.Greeting) *models.Greeting {
	total := 0
	for _, g := range greetings {
		total += max(g.Weight, 0)
	}
	if total == 0 {
		return nil
	}
	n := randIntN(total)
	for i := range greetings {
		w := max(greetings[i].Weight, 0)
		if n < w {
			return &greetings[i]
		}
		n -= w
	}
	return nil
}
