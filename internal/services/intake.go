// intake.go
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
	"unicode/utf8"

	"github.com/localnerve/haven/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const maxAnswerChars = 4000

// IntakeProgressResult counts answered questions of one kind
type IntakeProgressResult struct {
	Kind     string `json:"kind"`
	Answered int64  `json:"answered"`
	Total    int64  `json:"total"`
	Complete bool   `json:"complete"`
}

// ValidIntakeKind reports whether kind names an intake flow
func ValidIntakeKind(kind string) bool {
	return kind == models.IntakePatient || kind == models.IntakeProvider
}

func checkKind(kind string) error {
	if !ValidIntakeKind(kind) {
		return &ValidationError{Fields: map[string]string{"kind": "must be patient or provider"}}
	}
	return nil
}

// NextQuestion picks, at random, an active question of kind the user has not answered.
// It returns ErrNotFound when every question is answered.
func NextQuestion(db *gorm.DB, userID, kind string) (*models.IntakeQuestion, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	silent := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)})

	var answered []uint64
	if err := silent.Model(&models.IntakeAnswer{}).
		Where("user_id = ? AND kind = ?", userID, kind).
		Pluck("question_id", &answered).Error; err != nil {
		return nil, err
	}

	query := silent.Where("kind = ? AND active = ?", kind, true)
	if len(answered) > 0 {
		query = query.Where("id NOT IN ?", answered)
	}
	var candidates []models.IntakeQuestion
	if err := query.Order("position").Order("id").Find(&candidates).Error; err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("next %s question: %w", kind, ErrNotFound)
	}

	q := candidates[randIntN(len(candidates))]
	return &q, nil
}

// SubmitAnswer stores the user's answer, replacing any earlier answer to the same question
func SubmitAnswer(db *gorm.DB, userID, kind string, questionID uint64, answer, audioSessionID string) (*models.IntakeAnswer, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	answer = strings.TrimSpace(answer)
	errs := fieldErrors{}
	if questionID == 0 {
		errs.add("questionId", "required")
	}
	if answer == "" {
		errs.add("answer", "required")
	} else if utf8.RuneCountInString(answer) > maxAnswerChars {
		errs.add("answer", fmt.Sprintf("must be at most %d characters", maxAnswerChars))
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	var question models.IntakeQuestion
	if err := db.Where("id = ? AND active = ?", questionID, true).First(&question).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("question %d: %w", questionID, ErrNotFound)
		}
		return nil, err
	}
	if question.Kind != kind {
		return nil, &ValidationError{Fields: map[string]string{"questionId": "question belongs to the " + question.Kind + " intake"}}
	}
	if question.InputType == "choice" && len(question.Options) > 0 {
		if !containsFold(question.Options, answer) {
			return nil, &ValidationError{Fields: map[string]string{"answer": "must be one of the question options"}}
		}
	}

	record := models.IntakeAnswer{
		UserID:         userID,
		QuestionID:     questionID,
		Kind:           kind,
		Answer:         answer,
		AudioSessionID: audioSessionID,
	}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"answer", "audio_session_id", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return nil, err
	}

	if err := db.Where("user_id = ? AND question_id = ?", userID, questionID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// IntakeProgress counts the user's answers against active questions of kind
func IntakeProgress(db *gorm.DB, userID, kind string) (*IntakeProgressResult, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	silent := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)})

	result := &IntakeProgressResult{Kind: kind}
	if err := silent.Model(&models.IntakeQuestion{}).
		Where("kind = ? AND active = ?", kind, true).Count(&result.Total).Error; err != nil {
		return nil, err
	}
	if err := silent.Model(&models.IntakeAnswer{}).
		Joins("JOIN intake_questions ON intake_questions.id = intake_answers.question_id").
		Where("intake_answers.user_id = ? AND intake_questions.kind = ? AND intake_questions.active = ?", userID, kind, true).
		Count(&result.Answered).Error; err != nil {
		return nil, err
	}
	result.Complete = result.Total > 0 && result.Answered >= result.Total
	return result, nil
}

// ListAnswers returns the user's answers of kind
func ListAnswers(db *gorm.DB, userID, kind string) ([]models.IntakeAnswer, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	var answers []models.IntakeAnswer
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Where("user_id = ? AND kind = ?", userID, kind).Order("id").Find(&answers).Error
	return answers, err
}

func containsFold(list []string, value string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), value) {
			return true
		}
	}
	return false
}
