package middleware

import (
	"context"
	"errors"

	"github.com/bilgisen/s13core/internal/logger"
	"github.com/bilgisen/s13core/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const (
	// UserKey is the Locals key holding the signed in *models.User.
	UserKey = "user"
	// SessionUserKey is the session key holding the user id.
	SessionUserKey = "uid"
)

// AuthConfig defines the config for the auth middleware
type AuthConfig struct {
	// Skip defines a function to skip middleware.
	// Optional. Default: nil
	Next func(c *fiber.Ctx) bool

	// Store holds the sessions.
	// Required.
	Store *session.Store

	// Lookup loads the user stored in the session.
	// Required.
	Lookup func(ctx context.Context, id int64) (*models.User, error)

	// Required rejects anonymous requests with ErrorHandler.
	// Optional. Default: false
	Required bool

	// ErrorHandler is executed for anonymous requests when Required is set.
	// Optional. Default: redirect to LoginURL
	ErrorHandler fiber.ErrorHandler

	// LoginURL is where anonymous users are sent.
	// Optional. Default: "/s13admin/login/"
	LoginURL string
}

var errNoUser = errors.New("login required")

// NewAuth loads the signed in user into Locals and optionally requires one.
func NewAuth(cfg AuthConfig) fiber.Handler {
	if cfg.LoginURL == "" {
		cfg.LoginURL = "/s13admin/login/"
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			logger.Get().Warn().
				Str("method", c.Method()).
				Str("path", c.Path()).
				Str("ip", c.IP()).
				Err(err).
				Msg("Anonymous access to protected page")
			return c.Redirect(cfg.LoginURL)
		}
	}

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		if CurrentUser(c) == nil {
			if u := loadUser(c, cfg); u != nil {
				c.Locals(UserKey, u)
			}
		}

		if cfg.Required && CurrentUser(c) == nil {
			return cfg.ErrorHandler(c, errNoUser)
		}
		return c.Next()
	}
}

func loadUser(c *fiber.Ctx, cfg AuthConfig) *models.User {
	sess, err := cfg.Store.Get(c)
	if err != nil {
		logger.Get().Error().Err(err).Msg("Error loading session")
		return nil
	}
	id, ok := sess.Get(SessionUserKey).(int64)
	if !ok || id == 0 {
		return nil
	}
	u, err := cfg.Lookup(c.UserContext(), id)
	if err != nil {
		logger.Get().Warn().Err(err).Int64("user_id", id).Msg("Session user not found")
		return nil
	}
	return u
}

// CurrentUser returns the signed in user or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(UserKey).(*models.User)
	return u
}
