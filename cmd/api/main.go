package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/sportsiq/backend/internal/api/handlers"
	"github.com/sportsiq/backend/internal/cache/redis"
	"github.com/sportsiq/backend/internal/entity"
	"github.com/sportsiq/backend/internal/intent"
	"github.com/sportsiq/backend/internal/learning"
	"github.com/sportsiq/backend/internal/llm"
	"github.com/sportsiq/backend/internal/metrics"
	"github.com/sportsiq/backend/internal/middleware/ratelimit"
	"github.com/sportsiq/backend/internal/middleware/security"
	"github.com/sportsiq/backend/internal/middleware/validation"
	"github.com/sportsiq/backend/internal/mismatch"
	"github.com/sportsiq/backend/internal/query"
	"github.com/sportsiq/backend/internal/storage/sqlite"
	"github.com/sportsiq/backend/internal/tracker"
	"github.com/sportsiq/backend/pkg/config"
	appLogger "github.com/sportsiq/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting SportsIQ query intelligence API")

	metrics.Init()

	store, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer store.Close()

	if err := store.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	// The response cache is an optimization; classification and tracking
	// work without it.
	var responseCache *redis.Client
	responseCache, err = redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		appLogger.Warn("Redis unavailable, running without response cache", zap.Error(err))
		responseCache = nil
	} else {
		defer responseCache.Close()
	}

	registry := entity.NewRegistry()
	if err := entity.LoadDir(registry, cfg.Lexicons.Dir); err != nil {
		appLogger.Fatal("Failed to load lexicons", zap.Error(err))
	}
	for _, roster := range cfg.Lexicons.Rosters {
		if err := entity.LoadRosterFile(registry, roster.Domain, roster.Path, roster.Selector); err != nil {
			appLogger.Fatal("Failed to load roster lexicon",
				zap.String("domain", roster.Domain),
				zap.Error(err),
			)
		}
	}

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
		cfg.LLM.TimeoutSec,
	)

	classifier := intent.NewClassifier(
		intent.DefaultPatterns(),
		llmClient,
		time.Duration(cfg.LLM.TimeoutSec)*time.Second,
	)
	detector := mismatch.NewDetector(registry)

	trk := tracker.New(store)
	defer trk.Close()

	learningService := learning.NewService(store, cfg.Learning)

	engine := query.NewEngine(
		registry,
		classifier,
		detector,
		trk,
		query.NewLLMGenerator(llmClient),
		responseCache,
		time.Duration(cfg.Redis.ResponseTTLSec)*time.Second,
	)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: 120,
		Logger:               appLogger.GetLogger(),
	})
	app.Use(limiter.Middleware())
	app.Use(validation.Middleware(validation.Config{
		Logger: appLogger.GetLogger(),
	}))

	queryHandler := handlers.NewQueryHandler(engine)
	feedbackHandler := handlers.NewFeedbackHandler(trk)
	learningHandler := handlers.NewLearningHandler(
		learningService,
		time.Duration(cfg.Learning.CacheTTLSec)*time.Second,
	)
	wsHandler := handlers.NewWebSocketHandler(trk)

	api := app.Group("/api/v1")

	api.Post("/query", queryHandler.HandleQuery)
	api.Post("/classify", queryHandler.HandleClassify)
	api.Post("/feedback", feedbackHandler.HandleFeedback)
	api.Get("/stats", learningHandler.HandleStats)
	api.Get("/insights", learningHandler.HandleInsights)
	api.Get("/suggestions", learningHandler.HandleSuggestions)

	api.Post("/cache/invalidate", func(c *fiber.Ctx) error {
		if responseCache == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "response cache is not configured",
			})
		}
		if err := responseCache.InvalidateResponses(c.Context()); err != nil {
			appLogger.Error("Failed to invalidate response cache", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to invalidate cache",
			})
		}
		return c.JSON(fiber.Map{"success": true})
	})

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/queries", websocket.New(wsHandler.HandleConnection))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
