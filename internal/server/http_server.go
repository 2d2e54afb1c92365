package server

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/unimeet/match-core/internal/app"
)

const readinessTimeout = 2 * time.Second

// Check reports whether one dependency is usable.
type Check func(ctx context.Context) error

// ReadinessChecks pings the store and Redis of appCtx.
func ReadinessChecks(appCtx *app.AppContext) map[string]Check {
	checks := map[string]Check{
		"db": func(ctx context.Context) error {
			sqlDB, err := appCtx.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if appCtx.RedisCache != nil {
		checks["redis"] = appCtx.RedisCache.Ping
	}
	return checks
}

// NewHTTPServer serves liveness (/healthz) and readiness (/readyz) probes.
func NewHTTPServer(checks map[string]Check) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/readyz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
		defer cancel()

		failed := fiber.Map{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "checks": failed})
		}
		return c.JSON(fiber.Map{"status": "ready"})
	})

	return app
}

// StartHTTPServer serves the probes on the configured port until Shutdown.
func StartHTTPServer(port string, app *fiber.App) error {
	if err := app.Listen(":" + port); err != nil {
		return fmt.Errorf("http server on :%s: %w", port, err)
	}
	return nil
}
