package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/phishsim/backend/internal/config"
	"github.com/phishsim/backend/internal/db"
	"github.com/phishsim/backend/internal/events"
	apphttp "github.com/phishsim/backend/internal/http"
	"github.com/phishsim/backend/internal/http/handlers"
	"github.com/phishsim/backend/internal/repositories"
	"github.com/phishsim/backend/internal/selection"
	"github.com/phishsim/backend/internal/services"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	targetRepo := repositories.NewTargetRepo(pool)
	campaignRepo := repositories.NewCampaignRepo(pool)
	employeeRepo := repositories.NewEmployeeRepo(pool)
	activityRepo := repositories.NewActivityRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Selection engine
	catalog := selection.DefaultCatalog()
	suggester := selection.NewSuggesterClient(cfg.SuggesterURL, cfg.SuggesterTimeout, log)
	selectionCache := selection.NewRedisCache(rdb, cfg.SelectionCacheTTL, log)
	engine := selection.NewEngine(catalog, suggester, selectionCache, log)

	// Services
	trackService := services.NewTrackService(targetRepo, campaignRepo, activityRepo, publisher, cfg, log)
	trainingService := services.NewTrainingService(targetRepo, employeeRepo, activityRepo, publisher, cfg, log)
	targetService := services.NewTargetService(targetRepo, campaignRepo, activityRepo, publisher, log)
	selectionService := services.NewSelectionService(engine, catalog, targetRepo, activityRepo, cfg, log)

	// Handlers
	trackHandler := handlers.NewTrackHandler(trackService, log)
	trainingHandler := handlers.NewTrainingHandler(trainingService, log)
	selectionHandler := handlers.NewSelectionHandler(selectionService, log)
	targetHandler := handlers.NewTargetHandler(targetService, targetRepo, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, trackHandler, trainingHandler, selectionHandler, targetHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
