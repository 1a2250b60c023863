package bootstrap

import (
	"context"

	"birthpad-backend/internal/app"
	"birthpad-backend/internal/config"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for serverless runtimes (the api handler imports this package, not internal).
// The settlement applier runs for the lifetime of the instance.
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg)
	if err != nil {
		return nil, err
	}
	a.Start(context.Background())
	return a.Fiber, nil
}
