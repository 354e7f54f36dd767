package web

import (
	"errors"
	"strings"

	"github.com/bilgisen/s13core/internal/article"
	"github.com/bilgisen/s13core/internal/asset"
	"github.com/bilgisen/s13core/internal/auth"
	"github.com/bilgisen/s13core/internal/config"
	"github.com/bilgisen/s13core/internal/logger"
	"github.com/bilgisen/s13core/internal/messaging"
	"github.com/bilgisen/s13core/internal/middleware"
	"github.com/bilgisen/s13core/internal/setting"
	"github.com/bilgisen/s13core/internal/socmed"
	"github.com/gofiber/fiber/v2"
)

var notFoundErrors = []error{
	article.ErrNotFound,
	asset.ErrNotFound,
	setting.ErrNotFound,
	socmed.ErrNotFound,
	messaging.ErrNotFound,
	auth.ErrNotFound,
}

// admin renders an admin page with the values every admin page needs.
func (h *Handlers) admin(c *fiber.Ctx, page string, data map[string]any) error {
	data["User"] = middleware.CurrentUser(c)
	data["Flashes"] = h.flashes(c)
	data["Version"] = config.Version
	data["Path"] = c.Path()
	if _, ok := data["Nav"]; !ok {
		data["Nav"] = "dashboard"
	}
	return c.Render("admin/"+page, data)
}

type loginForm struct {
	Username string `form:"username" validate:"required,max=150"`
	Password string `form:"password" validate:"required"`
}

// LoginPage handles GET /s13admin/login/
func (h *Handlers) LoginPage(c *fiber.Ctx) error {
	if middleware.CurrentUser(c) != nil {
		return c.Redirect("/s13admin/")
	}
	return h.admin(c, "login", map[string]any{
		"Title":       "Log In",
		"Description": "Log in to the administration interface.",
		"Nav":         "login",
	})
}

// Login handles POST /s13admin/login/
func (h *Handlers) Login(c *fiber.Ctx) error {
	form := &loginForm{}
	if errs := h.validator.Form(c, form); len(errs) > 0 {
		for _, e := range errs {
			h.failure(c, e)
		}
		return c.Redirect("/s13admin/login/")
	}

	u, err := h.users.Authenticate(c.UserContext(), form.Username, form.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		logger.Get().Warn().Str("username", form.Username).Str("ip", c.IP()).Msg("Failed login")
		h.failure(c, err.Error())
		return c.Redirect("/s13admin/login/")
	}
	if err != nil {
		return err
	}
	if err := h.login(c, u, "Welcome back, "+u.Username+"!"); err != nil {
		return err
	}
	logger.Get().Info().Int64("user_id", u.ID).Str("username", u.Username).Msg("User logged in")
	return c.Redirect("/s13admin/")
}

// Logout handles GET /s13admin/logout/
func (h *Handlers) Logout(c *fiber.Ctx) error {
	if err := h.logout(c); err != nil {
		return err
	}
	h.success(c, "Thank you for using S13Core. Goodbye.")
	return c.Redirect("/s13admin/login/")
}

// Dashboard handles GET /s13admin/
func (h *Handlers) Dashboard(c *fiber.Ctx) error {
	ctx := c.UserContext()
	articles, err := h.articles.Stats(ctx)
	if err != nil {
		return err
	}
	assets, err := h.assets.Stats(ctx)
	if err != nil {
		return err
	}
	unsent, err := h.messages.Unsent(ctx)
	if err != nil {
		return err
	}
	return h.admin(c, "dashboard", map[string]any{
		"Title":       "Dashboard",
		"Description": "Shows some interesting information about the website.",
		"Articles":    articles,
		"Assets":      assets,
		"Unsent":      unsent,
	})
}

type passwordForm struct {
	Current string `form:"current_password" validate:"required"`
	New     string `form:"new_password" validate:"required"`
	Confirm string `form:"confirm_password" validate:"required"`
}

// UpdatePassword handles POST /s13admin/update-password/
func (h *Handlers) UpdatePassword(c *fiber.Ctx) error {
	u := middleware.CurrentUser(c)
	form := &passwordForm{}
	if errs := h.validator.Form(c, form); len(errs) > 0 {
		for _, e := range errs {
			h.failure(c, e)
		}
		return c.Redirect("/s13admin/")
	}
	if err := h.users.ChangePassword(c.UserContext(), u, form.Current, form.New, form.Confirm); err != nil {
		if errors.Is(err, auth.ErrWrongPassword) || errors.Is(err, auth.ErrPasswordMismatch) || errors.Is(err, auth.ErrEmptyPassword) {
			h.failure(c, err.Error())
			return c.Redirect("/s13admin/")
		}
		return err
	}
	// A new password invalidates the old session.
	if err := h.login(c, u, "Password changed."); err != nil {
		return err
	}
	return c.Redirect("/s13admin/")
}

type infoForm struct {
	FirstName string `form:"first_name" validate:"max=30"`
	LastName  string `form:"last_name" validate:"max=150"`
	Email     string `form:"email" validate:"omitempty,email"`
}

// UpdateUserInfo handles POST /s13admin/update-user-info/
func (h *Handlers) UpdateUserInfo(c *fiber.Ctx) error {
	u := middleware.CurrentUser(c)
	form := &infoForm{}
	if errs := h.validator.Form(c, form); len(errs) > 0 {
		for _, e := range errs {
			h.failure(c, e)
		}
		return c.Redirect("/s13admin/")
	}
	u.FirstName = strings.TrimSpace(form.FirstName)
	u.LastName = strings.TrimSpace(form.LastName)
	u.Email = strings.TrimSpace(form.Email)
	if err := h.users.UpdateInfo(c.UserContext(), u); err != nil {
		return err
	}
	h.success(c, "User information changed.")
	return c.Redirect("/s13admin/")
}
