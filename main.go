package main

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"

	"postpilot/config"
	"postpilot/database"
	"postpilot/dto"
	"postpilot/internal/gateway"
	"postpilot/internal/onboarding"
	"postpilot/internal/routes"
	"postpilot/internal/session"
	"postpilot/internal/store"
)

// @title        postpilot gateway
// @version      1.0
// @description  Tenant-context gateway for the postpilot scheduling backend
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	// --- MongoDB (persisted workspace selections) ---
	client := database.ConnectMongo(cfg.MongoURI)
	defer database.DisconnectMongo(client)
	db := client.Database(cfg.DBName)

	// --- Redis (session cache) ---
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer rdb.Close()

	gw := gateway.New(cfg.BackendURL)
	sessions := session.NewProvider(cfg.SessionURL, session.NewCache(rdb))
	selections := store.NewSelectionRepository(db)

	// --- Fiber App Setup ---
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler(cfg.LoginURL),
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())
	app.Get("/docs/*", swagger.HandlerDefault)

	routes.Register(app, routes.Deps{
		Gateway:         gw,
		Sessions:        sessions,
		Store:           selections,
		Planner:         onboarding.NewPlanner(gw),
		PollInterval:    cfg.PollInterval,
		PollMaxAttempts: cfg.PollMaxAttempts,
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}

// errorHandler turns the login-redirect sentinel into a 302 and everything
// else into the uniform error envelope.
func errorHandler(loginURL string) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if errors.Is(err, gateway.ErrLoginRedirect) {
			return c.Redirect(loginURL, fiber.StatusFound)
		}
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(dto.ErrorResponse{Message: fe.Message})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Message: "internal server error"})
	}
}
