// @title         ThinkThread API
// @version       1.0
// @description   Chatbot backend that answers over local (Ollama) or cloud (OpenRouter) language models, with conversation history, intents, feedback and admin controls.
// @BasePath      /api/v1
// @schemes       http
// @host          localhost:8080
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token. Both "Bearer <JWT>" and a bare "<JWT>" are accepted.
package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	_ "github.com/thinkthread/thinkthread/docs"

	// internal imports
	apihttp "github.com/thinkthread/thinkthread/api/http"
	"github.com/thinkthread/thinkthread/api/http/handlers"
	"github.com/thinkthread/thinkthread/pkg/audit"
	"github.com/thinkthread/thinkthread/pkg/auth"
	"github.com/thinkthread/thinkthread/pkg/cache"
	"github.com/thinkthread/thinkthread/pkg/catalog"
	"github.com/thinkthread/thinkthread/pkg/chat"
	"github.com/thinkthread/thinkthread/pkg/config"
	"github.com/thinkthread/thinkthread/pkg/feedback"
	"github.com/thinkthread/thinkthread/pkg/health"
	"github.com/thinkthread/thinkthread/pkg/health/checkers"
	"github.com/thinkthread/thinkthread/pkg/intent"
	"github.com/thinkthread/thinkthread/pkg/llm"
	"github.com/thinkthread/thinkthread/pkg/llm/ollama"
	"github.com/thinkthread/thinkthread/pkg/llm/openrouter"
	mongorepo "github.com/thinkthread/thinkthread/pkg/repository/mongo"
	"github.com/thinkthread/thinkthread/pkg/security/jwt"
	"github.com/thinkthread/thinkthread/pkg/settings"
	"github.com/thinkthread/thinkthread/pkg/storage/mongodb"
)

func main() {
	// Load configuration from env/.env
	cfg := config.Load()

	app := fiber.New(fiber.Config{AppName: "thinkthread"})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	// Connect to MongoDB
	if cfg.MongoURI == "" {
		log.Fatal("MONGO_URI is not set: e.g. mongodb://localhost:27017")
	}
	client, err := mongodb.Connect(context.Background(), cfg.MongoURI)
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	db := client.Database(cfg.MongoDB)

	// Initialize domain repositories (also ensures indexes for each domain).
	userRepo, err := mongorepo.NewUserRepository(db)
	if err != nil {
		log.Fatalf("init user repo: %v", err)
	}
	conversationRepo, err := mongorepo.NewConversationRepository(db)
	if err != nil {
		log.Fatalf("init conversation repo: %v", err)
	}
	messageRepo, err := mongorepo.NewMessageRepository(db)
	if err != nil {
		log.Fatalf("init message repo: %v", err)
	}
	feedbackRepo, err := mongorepo.NewFeedbackRepository(db)
	if err != nil {
		log.Fatalf("init feedback repo: %v", err)
	}
	intentRepo, err := mongorepo.NewIntentRepository(db)
	if err != nil {
		log.Fatalf("init intent repo: %v", err)
	}
	auditRepo, err := mongorepo.NewAuditRepository(db)
	if err != nil {
		log.Fatalf("init audit repo: %v", err)
	}
	settingsRepo := mongorepo.NewSettingsRepository(db)

	// Cache: shared Redis when configured, in-process otherwise
	readinessChecks := []health.Checker{checkers.NewMongoChecker(client)}
	var store cache.Store
	if cfg.RedisAddr != "" {
		redisStore, err := cache.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("redis connect: %v", err)
		}
		defer redisStore.Close()
		store = redisStore
		readinessChecks = append(readinessChecks, checkers.NewRedisChecker(redisStore))
	} else {
		store = cache.NewMemoryStore()
	}

	// Model providers; auto mode prefers the first registered one
	var providers []llm.Provider
	if cfg.OllamaBaseURL != "" {
		providers = append(providers, ollama.New(cfg.OllamaBaseURL, cfg.OllamaModel))
	}
	if cfg.OpenRouterAPIKey != "" {
		providers = append(providers, openrouter.New(
			cfg.OpenRouterAPIKey,
			cfg.OpenRouterBase,
			cfg.OpenRouterModel,
			cfg.OpenRouterAppTitle,
			cfg.OpenRouterReferer,
		))
	}
	router, err := llm.NewRouter(providers...)
	if err != nil {
		log.Fatalf("model providers: %v", err)
	}

	// Token generator
	jwtGen := jwt.NewGenerator(cfg.JWTSecret, cfg.JWTIssuer, time.Duration(cfg.JWTTTLMinutes)*time.Minute)

	// Wire dependencies (Clean Architecture)
	auditUC := audit.NewService(auditRepo)
	authUC := auth.NewAuthService(userRepo, jwtGen, auditUC)
	settingsUC := settings.NewService(settingsRepo, auditUC, settings.Defaults(cfg.DefaultProvider, defaultModelFor(cfg)))
	intentUC := intent.NewService(intentRepo, store, auditUC)
	chatUC := chat.NewService(conversationRepo, messageRepo, router, settingsUC, intentUC, feedbackRepo, auditUC)
	feedbackUC := feedback.NewService(feedbackRepo, conversationRepo, messageRepo)
	catalogUC := catalog.NewService(router, store, time.Duration(cfg.CatalogTTLSeconds)*time.Second)
	readiness := health.NewService(readinessChecks...)

	authHandler := handlers.NewAuthHandler(authUC)
	healthHandler := handlers.NewHealthHandler(readiness)
	conversationHandler := handlers.NewConversationHandler(chatUC)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackUC)
	catalogHandler := handlers.NewCatalogHandler(catalogUC)
	settingsHandler := handlers.NewSettingsHandler(settingsUC)
	intentHandler := handlers.NewIntentHandler(intentUC)
	adminHandler := handlers.NewAdminHandler(auditUC, chatUC)

	// JWT auth middleware for protected routes
	authMW := jwt.NewAuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer)

	// Register routes
	apihttp.Register(
		app,
		authMW,
		jwt.RequireAdmin(),
		authHandler,
		healthHandler,
		conversationHandler,
		feedbackHandler,
		catalogHandler,
		settingsHandler,
		intentHandler,
		adminHandler,
	)

	// Swagger UI
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Start server
	port := cfg.Port
	log.Printf("HTTP server listening on :%s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

// defaultModelFor picks the settings default model matching the configured
// default provider.
func defaultModelFor(cfg config.Config) string {
	if cfg.DefaultProvider == llm.ProviderOpenRouter {
		return cfg.OpenRouterModel
	}
	return cfg.OllamaModel
}
