// main.go
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

package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	swagger "github.com/gofiber/swagger"
	"github.com/localnerve/haven/internal/app"
	"github.com/localnerve/haven/internal/config"
	"github.com/localnerve/haven/internal/handlers"
	"github.com/localnerve/haven/internal/middleware"
	"github.com/localnerve/haven/internal/utils"

	_ "github.com/localnerve/haven/docs/api" // Swagger docs
)

// @title Haven API
// @version 1.0.0
// @description Mental health support service: AI chat with crisis handling, intake, voice, community circles and therapist matching
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/haven
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to the database and build services
	deps, err := app.Build(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer deps.Close()

	// Create Fiber app
	server := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler,
		BodyLimit:    32 * 1024 * 1024,
	})

	// Global middleware
	server.Use(recover.New())
	server.Use(requestid.New())
	server.Use(logger.New())
	server.Use(compress.New())
	server.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, " + middleware.APIVersionHeader,
		AllowCredentials: cfg.CORSOrigins != "*",
	}))

	// Prometheus metrics
	prometheus := fiberprometheus.New("haven")
	prometheus.RegisterAt(server, "/metrics")
	server.Use(prometheus.Middleware)

	// Swagger documentation
	server.Get("/swagger/*", swagger.HandlerDefault)

	health := &handlers.HealthHandler{Config: cfg, DB: deps.DB, Cache: deps.Cache}
	server.Get("/health", health.Health)

	registerRoutes(server, cfg, deps)

	// 404 handler
	server.Use(middleware.NotFound)

	if deps.Session != nil {
		log.Printf("Authorizer will be initialized on first cookie authenticated request")
	}

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		_ = server.ShutdownWithTimeout(30 * time.Second)
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := server.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}

func registerRoutes(server *fiber.App, cfg *config.Config, deps *app.App) {
	authn := &middleware.Authenticator{Bearer: deps.Bearer, Session: deps.Session}

	// Chat and community writes are rate limited per user, or per IP when anonymous
	writeLimit := limiter.New(limiter.Config{
		Max:        max(cfg.RateLimit, 1),
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			if identity := middleware.CurrentIdentity(c); identity != nil {
				return "user:" + identity.UserID
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.ErrorResponse(c, "Too many requests, slow down", fiber.StatusTooManyRequests, "rate_limit")
		},
	})

	// API routes under /api
	api := server.Group("/api")
	api.Use(middleware.VersionMiddleware())

	public := &handlers.PublicHandler{DB: deps.DB, Catalog: deps.Catalog}
	chat := &handlers.ChatHandler{Chat: deps.Chat}
	intake := &handlers.IntakeHandler{DB: deps.DB, Profiles: deps.Profiles}
	audio := &handlers.AudioHandler{Audio: deps.Audio, Voice: deps.Voice}
	community := &handlers.CommunityHandler{Community: deps.Community}
	therapists := &handlers.TherapistHandler{Therapists: deps.Therapists}
	admin := &handlers.AdminHandler{
		DB:         deps.DB,
		Catalog:    deps.Catalog,
		Community:  deps.Community,
		Therapists: deps.Therapists,
	}
	health := &handlers.HealthHandler{Config: cfg, DB: deps.DB, Cache: deps.Cache}

	// Public routes
	api.Get("/health", health.Health)
	api.Get("/specialists", public.ListSpecialists)
	api.Get("/resources", public.SearchResources)
	api.Get("/resources/crisis", public.CrisisResources)
	api.Get("/greetings/random", public.RandomGreeting)
	api.Get("/content/:slug", public.GetContent)
	api.Get("/circles", community.ListCircles)
	api.Get("/circles/:slug", community.GetCircle)
	api.Get("/circles/:slug/posts", community.ListPosts)
	api.Get("/posts/:id", authn.Optional(), community.GetPost)
	api.Get("/therapists/:id", therapists.GetTherapist)

	// Conversations
	conversations := api.Group("/conversations", authn.AuthUser())
	conversations.Post("/", chat.CreateConversation)
	conversations.Get("/", chat.ListConversations)
	conversations.Get("/:id", chat.GetConversation)
	conversations.Delete("/:id", chat.DeleteConversation)
	conversations.Post("/:id/messages", writeLimit, chat.SendMessage)

	// Intake and profile
	api.Get("/intake/progress", authn.AuthUser(), intake.Progress)
	api.Get("/intake/:kind/next", authn.AuthUser(), intake.NextQuestion)
	api.Get("/intake/:kind/answers", authn.AuthUser(), intake.ListAnswers)
	api.Post("/intake/:kind/answers", authn.AuthUser(), intake.SubmitAnswer)
	api.Get("/profile", authn.AuthUser(), intake.GetProfile)
	api.Patch("/profile", authn.AuthUser(), intake.MergeProfile)

	// Audio and voice
	api.Post("/audio/:sessionId/chunks", authn.AuthUser(), audio.UploadChunk)
	api.Post("/audio/:sessionId/combine", authn.AuthUser(), audio.Combine)
	api.Get("/audio/:sessionId/meta", authn.AuthUser(), audio.GetRecordingMeta)
	api.Get("/audio/:sessionId", authn.AuthUser(), audio.GetRecording)
	api.Post("/voice/speech", authn.AuthUser(), writeLimit, audio.Speech)
	api.Post("/voice/transcribe", authn.AuthUser(), writeLimit, audio.Transcribe)

	// Community writes
	api.Post("/circles/:slug/members", authn.AuthUser(), community.JoinCircle)
	api.Delete("/circles/:slug/members", authn.AuthUser(), community.LeaveCircle)
	api.Post("/circles/:slug/posts", authn.AuthUser(), writeLimit, community.CreatePost)
	api.Delete("/posts/:id", authn.AuthUser(), community.DeletePost)
	api.Post("/posts/:id/comments", authn.AuthUser(), writeLimit, community.AddComment)
	api.Put("/posts/:id/vote", authn.AuthUser(), community.Vote)
	api.Post("/posts/:id/reports", authn.AuthUser(), community.ReportPost)

	// Therapists
	api.Get("/matches", authn.AuthUser(), therapists.Matches)
	api.Get("/therapist/profile", authn.AuthTherapist(), therapists.GetOwnProfile)
	api.Put("/therapist/profile", authn.AuthTherapist(), therapists.PutOwnProfile)
	api.Post("/therapist/credential", authn.AuthTherapist(), therapists.UploadCredential)

	// Admin-only routes
	adm := api.Group("/admin", authn.AuthAdmin())
	adm.Get("/prompts", admin.ListPrompts)
	adm.Get("/prompts/:key", admin.GetPrompt)
	adm.Get("/prompts/:key/revisions", admin.ListPromptRevisions)
	adm.Put("/prompts/:key", admin.SetPrompt)
	adm.Delete("/prompts/:key", admin.DeletePrompt)
	adm.Get("/greetings", admin.ListGreetings)
	adm.Post("/greetings", admin.CreateGreeting)
	adm.Put("/greetings/:id", admin.UpdateGreeting)
	adm.Delete("/greetings/:id", admin.DeleteGreeting)
	adm.Get("/content", admin.ListContent)
	adm.Post("/content", admin.CreateContent)
	adm.Put("/content/:id", admin.UpdateContent)
	adm.Delete("/content/:id", admin.DeleteContent)
	adm.Get("/specialists", admin.ListSpecialists)
	adm.Post("/specialists", admin.CreateSpecialist)
	adm.Put("/specialists/:key", admin.UpdateSpecialist)
	adm.Delete("/specialists/:key", admin.DeleteSpecialist)
	adm.Post("/resources", admin.CreateResource)
	adm.Put("/resources/:id", admin.UpdateResource)
	adm.Delete("/resources/:id", admin.DeleteResource)
	adm.Post("/circles", admin.CreateCircle)
	adm.Get("/moderation", admin.ModerationQueue)
	adm.Post("/moderation/posts/:id", admin.ResolvePost)
	adm.Get("/moderation/comments", admin.CommentQueue)
	adm.Post("/moderation/comments/:id", admin.ResolveComment)
	adm.Get("/therapists", admin.ListTherapists)
	adm.Put("/therapists/:id/verification", admin.SetVerification)
}
