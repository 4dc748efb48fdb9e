// app.go
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

// Package app wires configuration, storage, queues, providers and services together for
// the server and worker binaries.
package app

import (
	"log"

	"github.com/localnerve/haven/internal/ai"
	"github.com/localnerve/haven/internal/auth"
	"github.com/localnerve/haven/internal/cache"
	"github.com/localnerve/haven/internal/config"
	"github.com/localnerve/haven/internal/database"
	"github.com/localnerve/haven/internal/queue"
	"github.com/localnerve/haven/internal/services"
	"github.com/localnerve/haven/internal/vendors"
	"gorm.io/gorm"
)

// CachePrefix namespaces every Redis cache key written by haven processes
const CachePrefix = "haven:"

// App holds the long-lived dependencies of a running process
type App struct {
	Config *config.Config
	DB     *gorm.DB
	Cache  cache.Cache
	Queue  queue.Client
	// Inline is set when no Redis is configured; tasks then run in this process.
	Inline *queue.Inline

	Catalog    *services.Catalog
	Chat       *services.ChatService
	Profiles   *services.ProfileService
	Audio      *services.AudioService
	Voice      *services.VoiceService
	Community  *services.CommunityService
	Therapists *services.TherapistService
	Notifier   *services.Notifier

	Bearer  auth.Validator
	Session auth.Validator
}

// Build connects to the database and constructs every service. Optional backends that are
// not configured are left nil and the features behind them report unavailable.
func Build(cfg *config.Config) (*App, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.DBAutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			database.Close(db)
			return nil, err
		}
	}

	a := &App{Config: cfg, DB: db}

	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(cfg.RedisURL, CachePrefix)
		if err != nil {
			log.Printf("Redis cache unavailable, continuing without cache: %v", err)
		} else {
			a.Cache = redisCache
		}

		client, err := queue.NewAsynqClient(cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Queue = client
	} else {
		log.Printf("REDIS_URL not set, running background tasks inline")
		a.Inline = queue.NewInline(false)
		a.Queue = a.Inline
	}

	router := &ai.Router{Default: cfg.LLMProvider}
	var openai *ai.OpenAIClient
	if cfg.AnthropicAPIKey != "" {
		router.Anthropic = ai.NewAnthropicClient(cfg.AnthropicAPIKey, "", cfg.AnthropicModel, cfg.LLMMaxTokens)
	}
	if cfg.OpenAIAPIKey != "" {
		openai = ai.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.LLMMaxTokens)
		router.OpenAI = openai
	}
	if !router.Available() {
		log.Printf("No LLM provider configured, chat replies will answer 503 vendor.unavailable")
	}

	tts := &vendors.ElevenLabs{
		APIKey:  cfg.ElevenLabsAPIKey,
		BaseURL: cfg.ElevenLabsBaseURL,
		VoiceID: cfg.ElevenLabsVoiceID,
		ModelID: cfg.ElevenLabsModelID,
	}
	mail := &vendors.Resend{APIKey: cfg.ResendAPIKey, BaseURL: cfg.ResendBaseURL, From: cfg.EmailFrom}
	sms := &vendors.Twilio{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		From:       cfg.TwilioFrom,
		BaseURL:    cfg.TwilioBaseURL,
	}
	ocr := &vendors.Mathpix{AppID: cfg.MathpixAppID, AppKey: cfg.MathpixAppKey, BaseURL: cfg.MathpixBaseURL}

	a.Catalog = &services.Catalog{DB: db, Cache: a.Cache, TTL: cfg.CacheTTL}
	a.Chat = &services.ChatService{
		DB:          db,
		Catalog:     a.Catalog,
		Completer:   router,
		Queue:       a.Queue,
		HistorySize: cfg.ChatHistorySize,
	}
	a.Profiles = &services.ProfileService{DB: db, Catalog: a.Catalog}
	if router.Available() {
		a.Profiles.Completer = router
	}
	a.Audio = &services.AudioService{
		DB:            db,
		Queue:         a.Queue,
		MaxChunkBytes: cfg.AudioMaxChunkBytes,
		SilenceBytes:  cfg.AudioSilenceBytes,
	}
	a.Voice = &services.VoiceService{DB: db, Catalog: a.Catalog}
	moderator := &services.ContentModerator{}
	if openai != nil {
		a.Audio.Transcriber = openai
		a.Voice.Transcriber = openai
		moderator.Moderator = openai
	}
	if tts.Enabled() {
		a.Voice.TTS = tts
	}
	a.Community = &services.CommunityService{DB: db, Moderation: moderator}

	a.Therapists = &services.TherapistService{DB: db}
	a.Notifier = &services.Notifier{
		AlertEmail: cfg.CrisisAlertEmail,
		AlertPhone: cfg.CrisisAlertPhone,
		AdminURL:   cfg.AdminURL,
	}
	if ocr.Enabled() {
		a.Therapists.OCR = ocr
	}
	if mail.Enabled() {
		a.Therapists.Mailer = mail
		a.Notifier.Mailer = mail
	}
	if sms.Enabled() {
		a.Notifier.SMS = sms
	}

	if a.Inline != nil {
		services.RegisterTasks(a.Inline, a.Audio, a.Notifier)
	}

	if cfg.JWTSecret != "" {
		a.Bearer = auth.NewJWTValidator(cfg.JWTSecret, "")
	}
	if cfg.AuthzURL != "" {
		a.Session = auth.NewAuthorizerValidator(cfg.AuthzURL, cfg.AuthzClientID, cfg.AdminURL)
	}

	return a, nil
}

// Close releases the queue client, cache and database pool
func (a *App) Close() {
	if a.Queue != nil {
		if err := a.Queue.Close(); err != nil {
			log.Printf("Failed to close queue client: %v", err)
		}
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			log.Printf("Failed to close cache: %v", err)
		}
	}
	if err := database.Close(a.DB); err != nil {
		log.Printf("Failed to close database: %v", err)
	}
}
