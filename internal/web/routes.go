package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/bilgisen/s13core/internal/config"
	"github.com/bilgisen/s13core/internal/metrics"
	"github.com/bilgisen/s13core/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// NewSessionStore returns the cookie session store backed by storage.
func NewSessionStore(cfg *config.Config, storage fiber.Storage) *session.Store {
	return session.New(session.Config{
		Storage:        storage,
		Expiration:     cfg.SessionTTL,
		KeyLookup:      "cookie:s13session",
		CookieHTTPOnly: true,
		CookieSecure:   cfg.SessionSecure,
		CookieSameSite: "Lax",
	})
}

// NewApp creates the fiber application with every route registered.
func NewApp(cfg *config.Config, h *Handlers) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "S13Core " + config.Version,
		Views:                 h.views,
		ReadTimeout:           cfg.HTTPTimeout,
		WriteTimeout:          cfg.HTTPTimeout,
		IdleTimeout:           120 * time.Second,
		BodyLimit:             int(cfg.MaxFileSize) + 1<<20,
		ErrorHandler:          middleware.ErrorHandler,
		DisableStartupMessage: true,
	})
	SetupRoutes(app, h, cfg)
	return app
}

// SetupRoutes configures all the routes for the application
func SetupRoutes(app *fiber.App, h *Handlers, cfg *config.Config) {
	// Middleware
	app.Use(recover.New())
	if cfg.MetricsEnabled {
		app.Use(metrics.Middleware())
	}
	app.Use(middleware.RequestLogger())
	app.Use("/static", filesystem.New(filesystem.Config{
		Root:       http.FS(embedded),
		PathPrefix: "static",
		MaxAge:     3600,
	}))
	app.Get(strings.TrimSuffix(cfg.MediaURL, "/")+"/*", h.Media)

	// Loads the signed in user, if any, for every page below.
	app.Use(middleware.NewAuth(middleware.AuthConfig{
		Next:   middleware.SkipAssets,
		Store:  h.sessions,
		Lookup: h.users.Get,
	}))

	app.Get("/health", h.HealthCheck)
	if cfg.MetricsEnabled {
		app.Get("/metrics", metrics.Handler())
	}

	// Administration
	admin := app.Group("/s13admin")
	{
		admin.Get("/login/", h.LoginPage)
		admin.Post("/login/", h.Login)
		admin.Get("/logout/", h.Logout)
	}

	admin.Use(middleware.NewAuth(middleware.AuthConfig{
		Store:    h.sessions,
		Lookup:   h.users.Get,
		Required: true,
	}))
	{
		admin.Get("/", h.Dashboard)
		admin.Post("/update-password/", h.UpdatePassword)
		admin.Post("/update-user-info/", h.UpdateUserInfo)
		admin.Get("/update-password/", toDashboard)
		admin.Get("/update-user-info/", toDashboard)

		admin.Get("/articles/detail/:pk<int>/", h.ArticleDetail)
		admin.Get("/articles/detail/:pk<int>/:mode/", h.ArticleDetail)
		admin.Post("/articles/:action/:mode/:pk<int>/:xpk<int>/", h.ArticleAssociate)
		h.articleResource().register(admin, h)

		admin.Get("/fileassets/detail/:pk<int>/", h.FileAssetDetail)
		h.fileAssetResource().register(admin, h)

		h.settingResource().register(admin, h)
		h.contactResource().register(admin, h)
		h.copyrightResource().register(admin, h)
		h.disclaimerResource().register(admin, h)

		admin.Post("/socmed/feeds/retrieve/:pk<int>/", h.RetrieveFeed)
		admin.Post("/socmed/feeds/process/:pk<int>/", h.ProcessFeed)
		h.apiKeyResource().register(admin, h)
		h.processorResource().register(admin, h)
		h.feedResource().register(admin, h)

		h.questionResource().register(admin, h)
		admin.Get("/messages/:pk<int>/", h.MessageDetail)
		admin.Post("/messages/:pk<int>/sent/", h.MarkMessage)
		h.messageResource().register(admin, h)
	}

	// Contact form
	app.Get("/s13msgs/sitemessages/", h.SiteMessageForm)
	app.Post("/s13msgs/sitemessages/", h.SiteMessageCreate)

	// Public site
	app.Get("/", h.Homepage)
	app.Get("/keyword-search/", h.KeywordSearch)
	app.Get("/:section/", h.Section)
	app.Get("/:section/:article/", h.Article)

	// 404 Handler
	app.Use(func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})
}

func toDashboard(c *fiber.Ctx) error {
	return c.Redirect("/s13admin/")
}
