package middleware

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/bilgisen/s13core/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookup(ctx context.Context, id int64) (*models.User, error) {
	if id == 7 {
		return &models.User{ID: 7, Username: "admin"}, nil
	}
	return nil, errors.New("no such user")
}

func newAuthApp(store *session.Store) *fiber.App {
	app := fiber.New()
	app.Get("/login", func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return err
		}
		sess.Set(SessionUserKey, int64(7))
		return sess.Save()
	})
	app.Use(NewAuth(AuthConfig{Store: store, Lookup: lookup}))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		if u := CurrentUser(c); u != nil {
			return c.SendString(u.Username)
		}
		return c.SendString("anonymous")
	})
	admin := app.Group("/admin", NewAuth(AuthConfig{Store: store, Lookup: lookup, Required: true}))
	admin.Get("/", func(c *fiber.Ctx) error { return c.SendString("dashboard") })
	return app
}

func body(t *testing.T, app *fiber.App, target, cookie string) (int, string, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, target, nil)
	if cookie != "" {
		req.Header.Set("Cookie", "session_id="+cookie)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data), resp.Header.Get("Location")
}

func TestAuthLoadsSessionUser(t *testing.T) {
	store := session.New()
	app := newAuthApp(store)

	_, got, _ := body(t, app, "/whoami", "")
	assert.Equal(t, "anonymous", got)

	code, _, location := body(t, app, "/admin/", "")
	assert.Equal(t, fiber.StatusFound, code)
	assert.Equal(t, "/s13admin/login/", location)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/login", nil))
	require.NoError(t, err)
	var cookie string
	for _, c := range resp.Cookies() {
		if c.Name == "session_id" {
			cookie = c.Value
		}
	}
	require.NotEmpty(t, cookie)

	_, got, _ = body(t, app, "/whoami", cookie)
	assert.Equal(t, "admin", got)
	code, got, _ = body(t, app, "/admin/", cookie)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "dashboard", got)
}

func TestAuthSkip(t *testing.T) {
	called := false
	app := fiber.New()
	app.Use(NewAuth(AuthConfig{
		Next:     SkipAssets,
		Store:    session.New(),
		Required: true,
		Lookup: func(context.Context, int64) (*models.User, error) {
			called = true
			return nil, errors.New("unexpected")
		},
	}))
	app.Get("/static/app.css", func(c *fiber.Ctx) error { return c.SendString("css") })

	code, got, _ := body(t, app, "/static/app.css", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "css", got)
	assert.False(t, called)
}

type contactForm struct {
	Name  string `form:"sender_name" validate:"required,max=5"`
	Email string `form:"sender_email" validate:"required,email"`
}

func TestValidatorFormMessages(t *testing.T) {
	v := NewValidator()
	app := fiber.New()
	var errs []string
	app.Post("/", func(c *fiber.Ctx) error {
		errs = v.Form(c, &contactForm{})
		return nil
	})

	form := url.Values{"sender_name": {"Juan Dela Cruz"}, "sender_email": {"nope"}}
	req := httptest.NewRequest(fiber.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	_, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Ensure this value has at most 5 characters.: sender_name",
		"Enter a valid email address.: sender_email",
	}, errs)
	assert.Nil(t, v.Messages(nil))
}

func TestValidatorVar(t *testing.T) {
	v := NewValidator()
	assert.Nil(t, v.Var("weight", "12", "required,number,max=9"))
	assert.Equal(t, []string{"This field is required.: weight"}, v.Var("weight", "", "required,number"))
	assert.Equal(t, []string{"Enter a whole number.: weight"}, v.Var("weight", "-1", "required,number"))
	assert.Equal(t, []string{"Enter a valid date/time.: date_made"},
		v.Var("date_made", "2024-13-01T10:00", "omitempty,datetime=2006-01-02T15:04"))
	assert.Nil(t, v.Var("date_made", "", "omitempty,datetime=2006-01-02T15:04"))
	assert.Nil(t, v.Var("sort", "-date_edit", "oneof=pk -pk -date_edit"))
	assert.Equal(t, []string{"Select a valid choice. weight is not one of the available choices.: sort"},
		v.Var("sort", "weight", "oneof=pk -pk -date_edit"))
}

func TestErrorHandlerFallsBackToText(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/", func(c *fiber.Ctx) error { return fiber.ErrNotFound })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("boom") })

	code, got, _ := body(t, app, "/", "")
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, "Not Found", got)

	code, got, _ = body(t, app, "/boom", "")
	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.Equal(t, "Internal Server Error", got)
}

func TestSkipAssets(t *testing.T) {
	app := fiber.New()
	app.Get("/*", func(c *fiber.Ctx) error {
		if SkipAssets(c) {
			return c.SendString("skip")
		}
		return c.SendString("log")
	})
	for path, want := range map[string]string{
		"/static/css/admin.css": "skip",
		"/media/photo.png":      "skip",
		"/news/":                "log",
	} {
		_, got, _ := body(t, app, path, "")
		assert.Equal(t, want, got, path)
	}
}
