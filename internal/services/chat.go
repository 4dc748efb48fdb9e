// chat.go
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
	"unicode/utf8"

	"github.com/localnerve/haven/internal/ai"
	"github.com/localnerve/haven/internal/models"
	"github.com/localnerve/haven/internal/queue"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DefaultConversationTitle = "New conversation"
	MaxMessageChars          = 4000
	CrisisResponsePromptKey  = "crisis_response"
	DefaultChatPromptKey     = "default_chat"
	defaultHistorySize       = 20
	autoTitleChars           = 60
)

const fallbackChatPrompt = "You are {{specialist}}, a warm and careful mental health support companion. " +
	"You are not a therapist and do not diagnose. Keep replies brief and kind. " +
	"The person you are talking with is {{display_name}}. What they have shared about themselves: {{profile}}"

const fallbackCrisisResponse = "I'm really glad you told me, {{display_name}}. What you're feeling sounds serious, " +
	"and you deserve support right now from a person who can help. If you are in immediate danger, " +
	"call your local emergency number. You can call or text 988 to reach the Suicide & Crisis Lifeline, " +
	"any time, day or night. The resources below are available now."

var crisisRank = map[string]int{CrisisNone: 0, CrisisElevated: 1, CrisisAcute: 2}

// CrisisAlert is the notify:crisis task payload. It never carries message content.
type CrisisAlert struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	Level          string `json:"level"`
}

// CrisisInfo accompanies a reply whenever risk was detected
type CrisisInfo struct {
	Level     string            `json:"level"`
	Resources []models.Resource `json:"resources"`
}

// SendResult is the outcome of SendMessage
type SendResult struct {
	UserMessage models.Message     `json:"userMessage"`
	Reply       models.Message     `json:"reply"`
	Specialist  *models.Specialist `json:"specialist,omitempty"`
	Crisis      *CrisisInfo        `json:"crisis,omitempty"`
}

// ChatService runs conversations: persistence, crisis screening, triage and completion
type ChatService struct {
	DB          *gorm.DB
	Catalog     *Catalog
	Completer   ai.Completer
	Queue       queue.Client
	HistorySize int
}

func (s *ChatService) silent() *gorm.DB {
	return s.DB.Session(&gorm.Session{Logger: s.DB.Logger.LogMode(logger.Silent)})
}

// CreateConversation starts a conversation for userID
func (s *ChatService) CreateConversation(userID, title, mode string) (*models.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultConversationTitle
	}
	if utf8.RuneCountInString(title) > 255 {
		return nil, &ValidationError{Fields: map[string]string{"title": "must be at most 255 characters"}}
	}
	switch mode {
	case "":
		mode = models.ModeText
	case models.ModeText, models.ModeVoice:
	default:
		return nil, &ValidationError{Fields: map[string]string{"mode": "must be text or voice"}}
	}

	conv := models.Conversation{UserID: userID, Title: title, Mode: mode, CrisisLevel: CrisisNone}
	if err := s.DB.Create(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations returns the user's conversations, newest first
func (s *ChatService) ListConversations(userID string) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := s.silent().Where("user_id = ?", userID).
		Order("updated_at DESC").Order("created_at DESC").Find(&convs).Error
	return convs, err
}

// GetConversation returns one of the user's conversations with its messages in order
func (s *ChatService) GetConversation(userID, id string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.silent().
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("id = ? AND user_id = ?", id, userID).
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &conv, nil
}

// DeleteConversation soft-deletes one of the user's conversations
func (s *ChatService) DeleteConversation(userID, id string) error {
	result := s.DB.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Conversation{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	return nil
}

// SendMessage stores the user's message, screens it for crisis language and produces a reply.
// An acute message gets the fixed crisis response without calling the model. A model failure
// leaves the user's message stored and returns ErrUpstream.
func (s *ChatService) SendMessage(ctx context.Context, userID, conversationID, content string) (*SendResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &ValidationError{Fields: map[string]string{"content": "required"}}
	}
	if utf8.RuneCountInString(content) > MaxMessageChars {
		return nil, &ValidationError{Fields: map[string]string{"content": fmt.Sprintf("must be at most %d characters", MaxMessageChars)}}
	}

	var conv models.Conversation
	if err := s.silent().Where("id = ? AND user_id = ?", conversationID, userID).First(&conv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
		}
		return nil, err
	}

	level := DetectCrisis(content)
	userMsg := models.Message{
		ConversationID: conv.ID,
		Role:           models.RoleUser,
		Content:        content,
		CrisisLevel:    level,
	}
	if err := s.DB.Create(&userMsg).Error; err != nil {
		return nil, err
	}

	displayName, profileText := s.personalization(userID)
	result := &SendResult{UserMessage: userMsg}

	if level != CrisisNone {
		resources, err := CrisisResources(s.DB)
		if err != nil {
			log.Printf("Crisis resources lookup failed for conversation %s: %v", conv.ID, err)
		}
		result.Crisis = &CrisisInfo{Level: level, Resources: resources}
	}

	if level == CrisisAcute {
		text := fallbackCrisisResponse
		if prompt, err := s.Catalog.ActivePrompt(ctx, CrisisResponsePromptKey); err == nil {
			text = prompt.Content
		} else if !errors.Is(err, ErrNotFound) {
			log.Printf("Crisis prompt lookup failed, using built-in response: %v", err)
		}

		reply := models.Message{
			ConversationID: conv.ID,
			Role:           models.RoleAssistant,
			Content:        ai.RenderPrompt(text, map[string]string{"display_name": displayName}),
			SpecialistKey:  CrisisSpecialistKey,
			CrisisLevel:    level,
		}
		if err := s.finishTurn(&conv, &reply, CrisisSpecialistKey, level, content); err != nil {
			return nil, err
		}
		result.Reply = reply
		s.enqueueCrisisAlert(ctx, conv, level)
		return result, nil
	}

	specialists, err := s.Catalog.ActiveSpecialists(ctx)
	if err != nil {
		return nil, err
	}
	specialist := SelectSpecialist(specialists, content, conv.SpecialistKey, level)

	promptKey, specialistName, specialistKey := DefaultChatPromptKey, "a supportive companion", ""
	if specialist != nil {
		promptKey, specialistName, specialistKey = specialist.PromptKey, specialist.Name, specialist.Key
		result.Specialist = specialist
	}

	req := ai.CompletionRequest{System: fallbackChatPrompt}
	prompt, err := s.Catalog.ActivePrompt(ctx, promptKey)
	switch {
	case err == nil:
		req.System = prompt.Content
		req.Model = prompt.Model
		req.MaxTokens = prompt.MaxTokens
		temperature := prompt.Temperature
		req.Temperature = &temperature
	case errors.Is(err, ErrNotFound):
		log.Printf("Prompt %s not found, using built-in chat prompt", promptKey)
	default:
		return nil, err
	}
	req.System = ai.RenderPrompt(req.System, map[string]string{
		"specialist":   specialistName,
		"display_name": displayName,
		"profile":      profileText,
	})

	req.Messages, err = s.history(conv.ID)
	if err != nil {
		return nil, err
	}

	if s.Completer == nil {
		return nil, fmt.Errorf("chat completion: %w", ErrUnavailable)
	}
	text, err := s.Completer.Complete(ctx, req)
	if err != nil {
		if errors.Is(err, ai.ErrUnavailable) {
			return nil, fmt.Errorf("chat completion: %w", ErrUnavailable)
		}
		log.Printf("Completion failed for conversation %s: %v", conv.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	reply := models.Message{
		ConversationID: conv.ID,
		Role:           models.RoleAssistant,
		Content:        strings.TrimSpace(text),
		SpecialistKey:  specialistKey,
		CrisisLevel:    level,
	}
	if err := s.finishTurn(&conv, &reply, specialistKey, level, content); err != nil {
		return nil, err
	}
	result.Reply = reply
	return result, nil
}

// finishTurn stores the reply and updates the conversation's specialist, crisis flag and title
func (s *ChatService) finishTurn(conv *models.Conversation, reply *models.Message, specialistKey, level, userContent string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reply).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{"updated_at": time.Now().UTC()}
		if specialistKey != "" && specialistKey != conv.SpecialistKey {
			updates["specialist_key"] = specialistKey
			conv.SpecialistKey = specialistKey
		}
		if crisisRank[level] > crisisRank[conv.CrisisLevel] {
			now := time.Now().UTC()
			updates["crisis_level"] = level
			updates["crisis_flagged_at"] = now
			conv.CrisisLevel = level
			conv.CrisisFlaggedAt = &now
		}
		if conv.Title == DefaultConversationTitle && level == CrisisNone {
			conv.Title = autoTitle(userContent)
			updates["title"] = conv.Title
		}
		return tx.Model(&models.Conversation{}).Where("id = ?", conv.ID).Updates(updates).Error
	})
}

// history returns the latest messages of the conversation in chronological order
func (s *ChatService) history(conversationID string) ([]ai.ChatMessage, error) {
	size := s.HistorySize
	if size <= 0 {
		size = defaultHistorySize
	}

	var recent []models.Message
	if err := s.silent().
		Where("conversation_id = ? AND role IN ?", conversationID, []string{models.RoleUser, models.RoleAssistant}).
		Order("created_at DESC").Limit(size).Find(&recent).Error; err != nil {
		return nil, err
	}

	out := make([]ai.ChatMessage, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		out = append(out, ai.ChatMessage{Role: recent[i].Role, Content: recent[i].Content})
	}
	return out, nil
}

// personalization returns the display name and a compact profile rendering for prompts
func (s *ChatService) personalization(userID string) (string, string) {
	displayName, profileText := "there", "nothing yet"

	var profile models.UserProfile
	if err := s.silent().Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Profile lookup for %s failed: %v", userID, err)
		}
		return displayName, profileText
	}
	if profile.DisplayName != "" {
		displayName = profile.DisplayName
	}
	if len(profile.Profile.JSON) > 2 {
		profileText = string(profile.Profile.JSON)
	}
	return displayName, profileText
}

func (s *ChatService) enqueueCrisisAlert(ctx context.Context, conv models.Conversation, level string) {
	if s.Queue == nil {
		log.Printf("Crisis detected in conversation %s, no queue configured for alerts", conv.ID)
		return
	}
	task, err := queue.NewJSONTask(queue.TypeCrisisNotify, CrisisAlert{
		ConversationID: conv.ID,
		UserID:         conv.UserID,
		Level:          level,
	})
	if err == nil {
		_, err = s.Queue.Enqueue(ctx, task, queue.Options{
			Queue:     queue.QueueCritical,
			MaxRetry:  5,
			UniqueTTL: 10 * time.Minute,
		})
	}
	if err != nil {
		log.Printf("Failed to enqueue crisis alert for conversation %s: %v", conv.ID, err)
	}
}

func autoTitle(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(content) <= autoTitleChars {
		return content
	}
	runes := []rune(content)
	return strings.TrimSpace(string(runes[:autoTitleChars])) + "…"
}
