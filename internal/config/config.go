// config.go
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

package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port        string
	CORSOrigins string
	RateLimit   int // requests per minute per IP on chat and community writes

	// Database configuration
	DBType            string // postgres, mysql, sqlite, sqlite-pure, sqlserver
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBConnectionLimit int
	DBAutoMigrate     bool

	// Auth configuration
	JWTSecret     string
	AuthzURL      string
	AuthzClientID string

	// Redis backs the cache and the task queue. Empty disables both.
	RedisURL         string
	CacheTTL         time.Duration
	QueueConcurrency int

	// AI providers
	LLMProvider     string // anthropic or openai
	AnthropicAPIKey string
	AnthropicModel  string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	LLMMaxTokens    int
	ChatHistorySize int

	// Voice and vendors
	ElevenLabsAPIKey  string
	ElevenLabsBaseURL string
	ElevenLabsVoiceID string
	ElevenLabsModelID string
	ResendAPIKey      string
	ResendBaseURL     string
	EmailFrom         string
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioFrom        string
	TwilioBaseURL     string
	MathpixAppID      string
	MathpixAppKey     string
	MathpixBaseURL    string

	// Crisis alerting
	CrisisAlertEmail string
	CrisisAlertPhone string
	AdminURL         string

	// Audio
	AudioMaxChunkBytes int
	AudioSilenceBytes  int
}

// Load loads configuration from the environment, after applying an optional .env file
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	} else {
		log.Printf("Loaded environment from %s", envFile)
	}

	cfg := &Config{
		Port:        getEnv("PORT", "3000"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		RateLimit:   getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),

		DBType:            getEnv("DB_TYPE", "postgres"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBDatabase:        getEnv("DB_DATABASE", ""),
		DBUser:            getEnv("DB_USER", ""),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBSSLMode:         getEnv("DB_SSLMODE", "require"),
		DBConnectionLimit: getEnvAsInt("DB_CONNECTION_LIMIT", 10),
		DBAutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", true),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		AuthzURL:      getEnv("AUTHZ_URL", ""),
		AuthzClientID: getEnv("AUTHZ_CLIENT_ID", ""),

		RedisURL:         getEnv("REDIS_URL", ""),
		CacheTTL:         getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		QueueConcurrency: getEnvAsInt("QUEUE_CONCURRENCY", 10),

		LLMProvider:     strings.ToLower(getEnv("LLM_PROVIDER", "anthropic")),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-5"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		LLMMaxTokens:    getEnvAsInt("LLM_MAX_TOKENS", 1024),
		ChatHistorySize: getEnvAsInt("CHAT_HISTORY_SIZE", 20),

		ElevenLabsAPIKey:  getEnv("ELEVENLABS_API_KEY", ""),
		ElevenLabsBaseURL: getEnv("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io"),
		ElevenLabsVoiceID: getEnv("ELEVENLABS_VOICE_ID", ""),
		ElevenLabsModelID: getEnv("ELEVENLABS_MODEL_ID", "eleven_multilingual_v2"),
		ResendAPIKey:      getEnv("RESEND_API_KEY", ""),
		ResendBaseURL:     getEnv("RESEND_BASE_URL", "https://api.resend.com"),
		EmailFrom:         getEnv("EMAIL_FROM", "Haven <no-reply@haven.local>"),
		TwilioAccountSID:  getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:   getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFrom:        getEnv("TWILIO_FROM", ""),
		TwilioBaseURL:     getEnv("TWILIO_BASE_URL", "https://api.twilio.com"),
		MathpixAppID:      getEnv("MATHPIX_APP_ID", ""),
		MathpixAppKey:     getEnv("MATHPIX_APP_KEY", ""),
		MathpixBaseURL:    getEnv("MATHPIX_BASE_URL", "https://api.mathpix.com"),

		CrisisAlertEmail: getEnv("CRISIS_ALERT_EMAIL", ""),
		CrisisAlertPhone: getEnv("CRISIS_ALERT_PHONE", ""),
		AdminURL:         getEnv("ADMIN_URL", ""),

		AudioMaxChunkBytes: getEnvAsInt("AUDIO_MAX_CHUNK_BYTES", 5*1024*1024),
		AudioSilenceBytes:  getEnvAsInt("AUDIO_SILENCE_BYTES", 2048),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required fields are present
func (cfg *Config) Validate() error {
	if cfg.DBDatabase == "" {
		return fmt.Errorf("DB_DATABASE is required")
	}
	if !strings.HasPrefix(cfg.DBType, "sqlite") && cfg.DBUser == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if cfg.JWTSecret == "" && cfg.AuthzURL == "" {
		return fmt.Errorf("JWT_SECRET or AUTHZ_URL is required")
	}
	if cfg.AuthzURL != "" && cfg.AuthzClientID == "" {
		return fmt.Errorf("AUTHZ_CLIENT_ID is required when AUTHZ_URL is set")
	}
	if cfg.LLMProvider != "anthropic" && cfg.LLMProvider != "openai" {
		return fmt.Errorf("LLM_PROVIDER must be anthropic or openai, got %q", cfg.LLMProvider)
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
