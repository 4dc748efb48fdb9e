// openai.go
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

package ai

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/localnerve/haven/internal/metrics"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements Completer, Moderator and Transcriber on the OpenAI API
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
}

var (
	_ Completer   = (*OpenAIClient)(nil)
	_ Moderator   = (*OpenAIClient)(nil)
	_ Transcriber = (*OpenAIClient)(nil)
)

// NewOpenAIClient constructs a client. baseURL may be empty.
func NewOpenAIClient(apiKey, baseURL, model string, maxTokens int) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		maxTokens: maxTokens,
	}
}

// Complete implements Completer
func (o *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (reply string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveLLM("openai", start, err) }()

	model := req.Model
	if model == "" {
		model = o.model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = o.maxTokens
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	chatReq := openai.ChatCompletionRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	if req.Temperature != nil {
		chatReq.Temperature = float32(*req.Temperature)
	}

	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// Moderate implements Moderator
func (o *OpenAIClient) Moderate(ctx context.Context, text string) (ModerationVerdict, error) {
	resp, err := o.client.Moderations(ctx, openai.ModerationRequest{Input: text})
	if err != nil {
		return ModerationVerdict{}, fmt.Errorf("openai moderation: %w", err)
	}

	var verdict ModerationVerdict
	for _, r := range resp.Results {
		verdict.Flagged = verdict.Flagged || r.Flagged
		c := r.Categories
		for name, hit := range map[string]bool{
			"hate":                   c.Hate,
			"hate/threatening":       c.HateThreatening,
			"harassment":             c.Harassment,
			"harassment/threatening": c.HarassmentThreatening,
			"self-harm":              c.SelfHarm,
			"self-harm/intent":       c.SelfHarmIntent,
			"self-harm/instructions": c.SelfHarmInstructions,
			"sexual":                 c.Sexual,
			"sexual/minors":          c.SexualMinors,
			"violence":               c.Violence,
			"violence/graphic":       c.ViolenceGraphic,
		} {
			if hit {
				verdict.Categories = append(verdict.Categories, name)
			}
		}
	}
	sort.Strings(verdict.Categories)
	return verdict, nil
}

// Transcribe implements Transcriber
func (o *OpenAIClient) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: filename,
		Reader:   audio,
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}
	return resp.Text, nil
}
