package web

import (
	"context"
	"strconv"
	"strings"

	"github.com/bilgisen/s13core/internal/models"
	"github.com/bilgisen/s13core/internal/utils"
	"github.com/gofiber/fiber/v2"
)

func messageDetailURL(id int64) string {
	return "/s13admin/messages/" + strconv.FormatInt(id, 10) + "/"
}

func (h *Handlers) messageResource() *resource[*models.SiteMessage] {
	return &resource[*models.SiteMessage]{
		Name:        "Message",
		Plural:      "Site Messages",
		Description: "Messages sent through the contact form.",
		Path:        "/s13admin/messages/",
		Nav:         "messages",
		Columns:     []string{"Sender", "Email", "Message", "Sent", "Date"},
		PerPage:     adminPageSize,
		List: func(ctx context.Context, _ string) ([]*models.SiteMessage, error) {
			return h.messages.List(ctx)
		},
		Get:    h.messages.Get,
		Delete: h.messages.Delete,
		Row: func(m *models.SiteMessage) Row {
			return Row{ID: m.ID, URL: messageDetailURL(m.ID),
				Cells: []string{m.SenderName, m.SenderEmail, utils.Truncate(m.MessageBody, 48), yesNo(m.IsSent),
					m.DateSent.Format(models.DateFormat)}}
		},
	}
}

// MessageDetail handles GET /s13admin/messages/:pk/
func (h *Handlers) MessageDetail(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("pk"), 10, 64)
	if err != nil {
		return fiber.ErrNotFound
	}
	m, err := h.messages.Get(c.UserContext(), id)
	if err != nil {
		return notFoundOr(err)
	}
	return h.admin(c, "message", map[string]any{
		"Title":       "Site Message",
		"Description": "Message from " + m.SenderName + ".",
		"Nav":         "messages",
		"Message":     m,
		"ListURL":     "/s13admin/messages/",
	})
}

// MarkMessage handles POST /s13admin/messages/:pk/sent/ and toggles the
// sent flag.
func (h *Handlers) MarkMessage(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := strconv.ParseInt(c.Params("pk"), 10, 64)
	if err != nil {
		return fiber.ErrNotFound
	}
	m, err := h.messages.Get(ctx, id)
	if err != nil {
		return notFoundOr(err)
	}
	if err := h.messages.MarkSent(ctx, id, !m.IsSent); err != nil {
		return err
	}
	if m.IsSent {
		h.success(c, "Message marked as not sent.")
	} else {
		h.success(c, "Message marked as sent.")
	}
	return c.Redirect(messageDetailURL(id))
}

func (h *Handlers) questionResource() *resource[*models.QuestionAnswerPair] {
	return &resource[*models.QuestionAnswerPair]{
		Name:        "Question",
		Plural:      "Challenge Questions",
		Description: "Questions a sender must answer before a message is accepted.",
		Path:        "/s13admin/messages/questions/",
		Nav:         "messages",
		Columns:     []string{"Question", "Answers"},
		List: func(ctx context.Context, _ string) ([]*models.QuestionAnswerPair, error) {
			return h.messages.Questions(ctx)
		},
		Get: h.messages.Question,
		New: func(*fiber.Ctx) (*models.QuestionAnswerPair, error) {
			return &models.QuestionAnswerPair{}, nil
		},
		Fields: func(_ context.Context, q *models.QuestionAnswerPair) ([]*Field, error) {
			answers := &Field{Name: "answers", Label: "Answers", Type: inputTextarea, Required: true,
				Value: strings.Join(q.Answers(), "\n"), Help: "One accepted answer per line.",
				set: func(v string) {
					q.SetAnswers(strings.Split(strings.ReplaceAll(v, "\r\n", "\n"), "\n")...)
				}}
			return []*Field{
				textField("question", "Question", &q.Question).required().max(128),
				answers,
			}, nil
		},
		Save: func(c *fiber.Ctx, q *models.QuestionAnswerPair) error {
			return h.messages.SaveQuestion(c.UserContext(), q)
		},
		Delete: h.messages.DeleteQuestion,
		Row: func(q *models.QuestionAnswerPair) Row {
			return Row{ID: q.ID, URL: "/s13admin/messages/questions/" + strconv.FormatInt(q.ID, 10) + "/update/",
				Cells: []string{q.Question, strings.Join(q.Answers(), ", ")}}
		},
	}
}
