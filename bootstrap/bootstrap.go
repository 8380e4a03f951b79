package bootstrap

import (
	"greenpulse-backend/internal/config"
	"greenpulse-backend/internal/interfaces/router"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// New builds the app for serverless hosts, which import this package instead of internal/.
// Connections are opened lazily, so no startup pings or migrations run here.
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)
	app, _, _, err := router.CreateApp(cfg)
	return app, err
}
