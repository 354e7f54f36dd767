// Package auth manages administrator accounts.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bilgisen/s13core/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("Invalid username and/or password.")
	ErrWrongPassword      = errors.New("Invalid current password.")
	ErrPasswordMismatch   = errors.New("New and confirm password mismatch.")
	ErrEmptyPassword      = errors.New("Password cannot be empty.")
	ErrUsernameTaken      = errors.New("A user with that username already exists.")
)

const columns = `id, username, password_hash, first_name, last_name, email, is_staff, last_login, date_joined`

type Service struct {
	db   *sql.DB
	cost int
	now  func() time.Time
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db, cost: bcrypt.DefaultCost, now: time.Now}
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var last sql.NullTime
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Email, &u.IsStaff, &last, &u.DateJoined)
	if err != nil {
		return nil, err
	}
	if last.Valid {
		t := last.Time
		u.LastLogin = &t
	}
	return u, nil
}

func (s *Service) one(ctx context.Context, where string, arg any) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM users WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.one(ctx, `id = ?`, id)
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.one(ctx, `username = ?`, strings.TrimSpace(username))
}

// Count returns the number of accounts.
func (s *Service) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// Create stores u with a hash of password.
func (s *Service) Create(ctx context.Context, u *models.User, password string) error {
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" {
		return errors.New("username is required")
	}
	if _, err := s.GetByUsername(ctx, u.Username); err == nil {
		return ErrUsernameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.DateJoined = s.now().UTC()

	res, err := s.db.ExecContext(ctx, `INSERT INTO users (username, password_hash, first_name, last_name, email, is_staff, date_joined)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, u.Username, u.PasswordHash, u.FirstName, u.LastName, u.Email, u.IsStaff, u.DateJoined)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

func (s *Service) hash(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", ErrEmptyPassword
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Authenticate checks the credentials and records the login time.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	now := s.now().UTC()
	if _, err := s.db.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, now, u.ID); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}
	u.LastLogin = &now
	return u, nil
}

// ChangePassword replaces the password of u after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, u *models.User, current, next, confirm string) error {
	current = strings.TrimSpace(current)
	next = strings.TrimSpace(next)
	confirm = strings.TrimSpace(confirm)

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return ErrWrongPassword
	}
	if next != confirm {
		return ErrPasswordMismatch
	}
	hash, err := s.hash(next)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, hash, u.ID); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	u.PasswordHash = hash
	return nil
}

// UpdateInfo saves the name and email of u.
func (s *Service) UpdateInfo(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET first_name = ?, last_name = ?, email = ? WHERE id = ?`,
		strings.TrimSpace(u.FirstName), strings.TrimSpace(u.LastName), strings.TrimSpace(u.Email), u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}
