package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/phishsim/backend/internal/config"
	"github.com/phishsim/backend/internal/http/handlers"
	"github.com/phishsim/backend/internal/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	trackHandler *handlers.TrackHandler,
	trainingHandler *handlers.TrainingHandler,
	selectionHandler *handlers.SelectionHandler,
	targetHandler *handlers.TargetHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Tracked links: public by nature, no auth, no rate limiting (a whole
	// office clicking at once must never be throttled).
	// Fiber registers HEAD alongside GET, so HEAD probes reach the
	// classifier too.
	app.Get("/t/:token", trackHandler.HandleToken)
	app.Post("/t/:token/confirm", trackHandler.ConfirmToken)

	// Admin/config surface
	api := app.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(rdb, 100, time.Minute))
	api.Use(middleware.AuthMiddleware(cfg, log))

	api.Post("/training/complete", trainingHandler.CompleteTraining)
	api.Post("/selection", selectionHandler.Select)
	api.Post("/campaigns", targetHandler.CreateCampaign)
	api.Delete("/campaigns/:id", targetHandler.DeleteCampaign)
	api.Post("/campaigns/:id/targets", targetHandler.CreateTargets)
	api.Get("/employees/:id/selection-history", targetHandler.GetSelectionHistory)
	api.Get("/employees/:id/training-history", trainingHandler.GetTrainingHistory)

	// WebSocket activity feed
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
