package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/dukex/swf-backend/pkg/persistence"
	"github.com/dukex/swf-backend/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	engine      web.Engine
	catalog     web.Catalog
	status      web.EngineStatus
	validate    *validator.Validate
	app         *fiber.App
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	engine web.Engine,
	catalog web.Catalog,
	status web.EngineStatus,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		engine:      engine,
		catalog:     catalog,
		status:      status,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.persistence, a.engine, a.catalog, a.status, a.validate, a.logger)

	app := fiber.New(fiber.Config{
		AppName:      "swf-backend",
		ErrorHandler: web.ErrorHandler,
	})
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			return a.status.Handle().Ready && a.persistence.HealthCheck(c.Context()) == nil
		},
	}))

	handlers.Register(app)

	return app
}

// Start serves HTTP until ctx is cancelled.
func (a *API) Start(ctx context.Context, port int) error {
	a.app = a.App()

	go func() {
		<-ctx.Done()

		if err := a.app.Shutdown(); err != nil {
			a.logger.Error("Failed to shut down HTTP server", "error", err)
		}
	}()

	return a.app.Listen(":"+strconv.Itoa(port), fiber.ListenConfig{DisableStartupMessage: true})
}
