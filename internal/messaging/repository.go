// Package messaging stores contact form messages and the challenge
// questions that guard the form.
package messaging

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bilgisen/s13core/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	ErrNotFound    = errors.New("message not found")
	ErrNoQuestions = errors.New("no challenge questions defined")
	ErrWrongAnswer = errors.New("Incorrect answer to the challenge question.")
)

// messageInput mirrors the validation rules of a SiteMessage.
type messageInput struct {
	SenderName  string `validate:"required,max=128"`
	SenderEmail string `validate:"required,email"`
	MessageBody string `validate:"required"`
}

type Repository struct {
	db       *sql.DB
	validate *validator.Validate
	now      func() time.Time
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, validate: validator.New(), now: time.Now}
}

// Validate checks the fields a sender fills in.
func (r *Repository) Validate(m *models.SiteMessage) error {
	m.SenderName = strings.TrimSpace(m.SenderName)
	m.SenderEmail = strings.TrimSpace(m.SenderEmail)
	return r.validate.Struct(messageInput{
		SenderName:  m.SenderName,
		SenderEmail: m.SenderEmail,
		MessageBody: strings.TrimSpace(m.MessageBody),
	})
}

// Create validates and stores m, stamping DateSent.
func (r *Repository) Create(ctx context.Context, m *models.SiteMessage) error {
	if err := r.Validate(m); err != nil {
		return err
	}
	m.DateSent = r.now().UTC()
	res, err := r.db.ExecContext(ctx, `INSERT INTO site_messages (sender_name, sender_email, message_body, date_sent, is_sent)
		VALUES (?, ?, ?, ?, ?)`, m.SenderName, m.SenderEmail, m.MessageBody, m.DateSent, m.IsSent)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	m.ID, err = res.LastInsertId()
	return err
}

const messageColumns = `id, sender_name, sender_email, message_body, date_sent, is_sent`

// List returns messages newest first.
func (r *Repository) List(ctx context.Context) ([]*models.SiteMessage, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+messageColumns+` FROM site_messages ORDER BY date_sent DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	defer rows.Close()

	var out []*models.SiteMessage
	for rows.Next() {
		m := &models.SiteMessage{}
		if err := rows.Scan(&m.ID, &m.SenderName, &m.SenderEmail, &m.MessageBody, &m.DateSent, &m.IsSent); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id int64) (*models.SiteMessage, error) {
	m := &models.SiteMessage{}
	err := r.db.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM site_messages WHERE id = ?`, id).
		Scan(&m.ID, &m.SenderName, &m.SenderEmail, &m.MessageBody, &m.DateSent, &m.IsSent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select message: %w", err)
	}
	return m, nil
}

// Unsent counts messages not yet marked as handled.
func (r *Repository) Unsent(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM site_messages WHERE is_sent = 0`).Scan(&n)
	return n, err
}

func (r *Repository) MarkSent(ctx context.Context, id int64, sent bool) error {
	return r.exec(ctx, `UPDATE site_messages SET is_sent = ? WHERE id = ?`, sent, id)
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.exec(ctx, `DELETE FROM site_messages WHERE id = ?`, id)
}

func (r *Repository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
