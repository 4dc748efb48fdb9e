// seed.go
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

// Package seed loads reference data (prompts, specialists, greetings, intake questions and
// resources) from YAML and upserts it by natural key.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"path"
	"slices"
	"sort"
	"strings"

	"github.com/localnerve/haven/internal/models"
	"github.com/localnerve/haven/internal/services"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sections in application order. Prompts precede specialists that reference them.
const (
	SectionPrompts     = "prompts"
	SectionSpecialists = "specialists"
	SectionGreetings   = "greetings"
	SectionIntake      = "intake"
	SectionResources   = "resources"
)

// AllSections lists every section in application order
var AllSections = []string{SectionPrompts, SectionSpecialists, SectionGreetings, SectionIntake, SectionResources}

const seedEditor = "seed"

// Prompt is a seeded AI prompt
type Prompt struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Content     string   `yaml:"content"`
	Model       string   `yaml:"model"`
	Temperature *float64 `yaml:"temperature"`
	MaxTokens   int      `yaml:"maxTokens"`
}

// Specialist is a seeded triage specialist
type Specialist struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	PromptKey   string   `yaml:"promptKey"`
	Keywords    []string `yaml:"keywords"`
	Priority    int      `yaml:"priority"`
	IsDefault   bool     `yaml:"isDefault"`
	VoiceID     string   `yaml:"voiceId"`
}

// Greeting is a seeded greeting, keyed by context and message
type Greeting struct {
	Context string `yaml:"context"`
	Message string `yaml:"message"`
	Weight  int    `yaml:"weight"`
}

// Question is a seeded intake question
type Question struct {
	Kind      string   `yaml:"kind"`
	Key       string   `yaml:"key"`
	Prompt    string   `yaml:"prompt"`
	InputType string   `yaml:"inputType"`
	Options   []string `yaml:"options"`
	Position  int      `yaml:"position"`
}

// Bundle is the union of every seed file. Any section may be empty.
type Bundle struct {
	Prompts     []Prompt                 `yaml:"prompts"`
	Specialists []Specialist             `yaml:"specialists"`
	Greetings   []Greeting               `yaml:"greetings"`
	Intake      []Question               `yaml:"intake"`
	Resources   []services.ResourceInput `yaml:"resources"`
}

// Merge appends the sections of other
func (b *Bundle) Merge(other Bundle) {
	b.Prompts = append(b.Prompts, other.Prompts...)
	b.Specialists = append(b.Specialists, other.Specialists...)
	b.Greetings = append(b.Greetings, other.Greetings...)
	b.Intake = append(b.Intake, other.Intake...)
	b.Resources = append(b.Resources, other.Resources...)
}

// Parse decodes one YAML document
func Parse(data []byte) (Bundle, error) {
	var b Bundle
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil && !errors.Is(err, io.EOF) {
		return Bundle{}, err
	}
	return b, nil
}

// LoadFS reads and merges every *.yaml file under dir, in name order
func LoadFS(fsys fs.FS, dir string) (Bundle, error) {
	matches, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return Bundle{}, err
	}
	sort.Strings(matches)

	var bundle Bundle
	for _, name := range matches {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return Bundle{}, err
		}
		b, err := Parse(data)
		if err != nil {
			return Bundle{}, fmt.Errorf("%s: %w", name, err)
		}
		bundle.Merge(b)
	}
	return bundle, nil
}

// Result counts rows written per section
type Result map[string]int

// Seeder applies bundles to a database
type Seeder struct {
	DB      *gorm.DB
	Catalog *services.Catalog
}

// Apply upserts the named sections of bundle. Re-applying the same bundle is a no-op for
// prompts and leaves one row per natural key everywhere else.
func (s *Seeder) Apply(ctx context.Context, bundle Bundle, sections ...string) (Result, error) {
	if len(sections) == 0 {
		sections = AllSections
	}
	for _, section := range sections {
		if !slices.Contains(AllSections, section) {
			return nil, fmt.Errorf("unknown seed section %q", section)
		}
	}

	result := Result{}
	for _, section := range AllSections {
		if !slices.Contains(sections, section) {
			continue
		}
		var (
			n   int
			err error
		)
		switch section {
		case SectionPrompts:
			n, err = s.prompts(ctx, bundle.Prompts)
		case SectionSpecialists:
			n, err = s.specialists(bundle.Specialists)
			if err == nil && n > 0 {
				s.Catalog.InvalidateSpecialists(ctx)
			}
		case SectionGreetings:
			n, err = s.greetings(bundle.Greetings)
		case SectionIntake:
			n, err = s.intake(bundle.Intake)
		case SectionResources:
			n, err = s.resources(bundle.Resources)
		}
		if err != nil {
			return result, fmt.Errorf("seed %s: %w", section, err)
		}
		result[section] = n
		log.Printf("Seeded %d %s", n, section)
	}
	return result, nil
}

// prompts go through the catalog so every change is versioned and leaves a revision
func (s *Seeder) prompts(ctx context.Context, prompts []Prompt) (int, error) {
	written := 0
	for _, p := range prompts {
		var version uint64
		current, err := s.Catalog.GetPrompt(p.Key)
		switch {
		case err == nil:
			version = current.PromptVersion
		case errors.Is(err, services.ErrNotFound):
		default:
			return written, err
		}

		_, affected, err := s.Catalog.SetPrompt(ctx, p.Key, version, services.PromptInput{
			Name:        p.Name,
			Description: p.Description,
			Content:     p.Content,
			Model:       p.Model,
			Temperature: p.Temperature,
			MaxTokens:   p.MaxTokens,
		}, seedEditor)
		if err != nil {
			return written, fmt.Errorf("prompt %s: %w", p.Key, err)
		}
		written += int(affected)
	}
	return written, nil
}

func (s *Seeder) specialists(specialists []Specialist) (int, error) {
	if len(specialists) == 0 {
		return 0, nil
	}
	rows := make([]models.Specialist, 0, len(specialists))
	for _, sp := range specialists {
		if sp.Key == "" || sp.PromptKey == "" {
			return 0, fmt.Errorf("specialist %q: key and promptKey are required", sp.Key)
		}
		rows = append(rows, models.Specialist{
			Key:         sp.Key,
			Name:        sp.Name,
			Description: sp.Description,
			PromptKey:   sp.PromptKey,
			Keywords:    models.StringList(normalizeKeywords(sp.Keywords)),
			Priority:    sp.Priority,
			IsDefault:   sp.IsDefault,
			Active:      true,
			VoiceID:     sp.VoiceID,
		})
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if hasDefault(specialists) {
			if err := tx.Model(&models.Specialist{}).Where("is_default = ?", true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "specialist_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "description", "prompt_key", "keywords", "priority", "is_default", "active", "voice_id", "updated_at",
			}),
		}).Create(&rows).Error
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *Seeder) greetings(greetings []Greeting) (int, error) {
	written := 0
	for _, g := range greetings {
		if g.Context == "" {
			g.Context = "general"
		}
		if g.Weight <= 0 {
			g.Weight = 1
		}
		var existing models.Greeting
		err := s.DB.Where("context = ? AND message = ?", g.Context, g.Message).First(&existing).Error
		switch {
		case err == nil:
			if existing.Weight == g.Weight && existing.Active {
				continue
			}
			err = s.DB.Model(&existing).Updates(map[string]interface{}{"weight": g.Weight, "active": true}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			err = s.DB.Create(&models.Greeting{Context: g.Context, Message: g.Message, Weight: g.Weight, Active: true}).Error
		}
		if err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

func (s *Seeder) intake(questions []Question) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}
	rows := make([]models.IntakeQuestion, 0, len(questions))
	for _, q := range questions {
		if q.Kind != models.IntakePatient && q.Kind != models.IntakeProvider {
			return 0, fmt.Errorf("question %q: unknown kind %q", q.Key, q.Kind)
		}
		if q.InputType == "" {
			q.InputType = "text"
		}
		rows = append(rows, models.IntakeQuestion{
			Kind:      q.Kind,
			Key:       q.Key,
			Prompt:    q.Prompt,
			InputType: q.InputType,
			Options:   models.StringList(q.Options),
			Position:  q.Position,
			Active:    true,
		})
	}
	err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "question_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind", "prompt", "input_type", "options", "position", "active", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// resources are keyed by name and category and validated like admin writes
func (s *Seeder) resources(resources []services.ResourceInput) (int, error) {
	written := 0
	for _, in := range resources {
		var existing models.Resource
		err := s.DB.Where("name = ? AND category = ?", strings.TrimSpace(in.Name), strings.ToLower(strings.TrimSpace(in.Category))).
			First(&existing).Error
		switch {
		case err == nil:
			_, err = services.UpdateResource(s.DB, existing.ID, in)
		case errors.Is(err, gorm.ErrRecordNotFound):
			_, err = services.CreateResource(s.DB, in)
		}
		if err != nil {
			return written, fmt.Errorf("resource %q: %w", in.Name, err)
		}
		written++
	}
	return written, nil
}

func normalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = services.NormalizeText(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

func hasDefault(specialists []Specialist) bool {
	for _, sp := range specialists {
		if sp.IsDefault {
			return true
		}
	}
	return false
}
