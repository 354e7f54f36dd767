package web

import (
	"time"

	"github.com/bilgisen/s13core/internal/article"
	"github.com/bilgisen/s13core/internal/asset"
	"github.com/bilgisen/s13core/internal/auth"
	"github.com/bilgisen/s13core/internal/config"
	"github.com/bilgisen/s13core/internal/feed"
	"github.com/bilgisen/s13core/internal/messaging"
	"github.com/bilgisen/s13core/internal/middleware"
	"github.com/bilgisen/s13core/internal/setting"
	"github.com/bilgisen/s13core/internal/socmed"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// Deps are the services the handlers work with.
type Deps struct {
	Config    *config.Config
	Sessions  *session.Store
	Articles  *article.Repository
	Assets    *asset.Service
	Settings  *setting.Repository
	Socmed    *socmed.Repository
	Collector *feed.Collector
	Messages  *messaging.Repository
	Users     *auth.Service
	Views     *Views
	Validator *middleware.Validator
}

type Handlers struct {
	config    *config.Config
	sessions  *session.Store
	articles  *article.Repository
	assets    *asset.Service
	settings  *setting.Repository
	socmed    *socmed.Repository
	collector *feed.Collector
	messages  *messaging.Repository
	users     *auth.Service
	views     *Views
	validator *middleware.Validator
}

func NewHandlers(d Deps) *Handlers {
	if d.Validator == nil {
		d.Validator = middleware.NewValidator()
	}
	return &Handlers{
		config:    d.Config,
		sessions:  d.Sessions,
		articles:  d.Articles,
		assets:    d.Assets,
		settings:  d.Settings,
		socmed:    d.Socmed,
		collector: d.Collector,
		messages:  d.Messages,
		users:     d.Users,
		views:     d.Views,
		validator: d.Validator,
	}
}

// HealthCheck handles the /health endpoint
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": config.Version,
		"time":    time.Now().Format(time.RFC3339),
	})
}
