package web

import (
	"encoding/json"

	"github.com/bilgisen/s13core/internal/logger"
	"github.com/bilgisen/s13core/internal/middleware"
	"github.com/bilgisen/s13core/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const flashKey = "flashes"

// Flash levels, used as css classes.
const (
	levelSuccess = "success"
	levelInfo    = "info"
	levelError   = "error"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// flash queues a message in the session.
func (h *Handlers) flash(c *fiber.Ctx, level, text string) {
	sess, err := h.sessions.Get(c)
	if err != nil {
		logger.Get().Error().Err(err).Msg("Error loading session")
		return
	}
	queue(sess, level, text)
	if err := sess.Save(); err != nil {
		logger.Get().Error().Err(err).Msg("Error saving session")
	}
}

func queue(sess *session.Session, level, text string) {
	var queued []Flash
	if raw, ok := sess.Get(flashKey).(string); ok {
		_ = json.Unmarshal([]byte(raw), &queued)
	}
	queued = append(queued, Flash{Level: level, Text: text})
	data, _ := json.Marshal(queued)
	sess.Set(flashKey, string(data))
}

func (h *Handlers) success(c *fiber.Ctx, text string) { h.flash(c, levelSuccess, text) }
func (h *Handlers) info(c *fiber.Ctx, text string)    { h.flash(c, levelInfo, text) }
func (h *Handlers) failure(c *fiber.Ctx, text string) { h.flash(c, levelError, text) }

// flashes pops the queued messages.
func (h *Handlers) flashes(c *fiber.Ctx) []Flash {
	sess, err := h.sessions.Get(c)
	if err != nil {
		return nil
	}
	raw, ok := sess.Get(flashKey).(string)
	if !ok {
		return nil
	}
	var queued []Flash
	if err := json.Unmarshal([]byte(raw), &queued); err != nil {
		logger.Get().Warn().Err(err).Msg("Dropping unreadable flash messages")
	}
	sess.Delete(flashKey)
	if err := sess.Save(); err != nil {
		logger.Get().Error().Err(err).Msg("Error saving session")
	}
	return queued
}

// login binds u to a fresh session and queues welcome in it. The request
// still carries the old session cookie, so the message cannot be flashed
// separately afterwards.
func (h *Handlers) login(c *fiber.Ctx, u *models.User, welcome string) error {
	sess, err := h.sessions.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(middleware.SessionUserKey, u.ID)
	if welcome != "" {
		queue(sess, levelSuccess, welcome)
	}
	c.Locals(middleware.UserKey, u)
	return sess.Save()
}

// logout drops the session. Pending flashes survive in the new one.
func (h *Handlers) logout(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Destroy(); err != nil {
		return err
	}
	c.Locals(middleware.UserKey, nil)
	return nil
}
