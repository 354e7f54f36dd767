package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bilgisen/s13core/internal/database"
	"github.com/bilgisen/s13core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newService(t *testing.T) *Service {
	t.Helper()
	db, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "s13.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s := NewService(db)
	s.cost = bcrypt.MinCost
	return s
}

func TestCreateAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	clock := time.Date(2022, 3, 4, 5, 6, 7, 0, time.UTC)
	s.now = func() time.Time { return clock }

	u := &models.User{Username: "admin", Email: "admin@example.com", IsStaff: true}
	require.NoError(t, s.Create(ctx, u, "s3cret"))
	assert.NotEqual(t, "s3cret", u.PasswordHash)
	assert.ErrorIs(t, s.Create(ctx, &models.User{Username: "admin"}, "x"), ErrUsernameTaken)
	assert.ErrorIs(t, s.Create(ctx, &models.User{Username: "empty"}, " "), ErrEmptyPassword)

	_, err := s.Authenticate(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Authenticate(ctx, "nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	got, err := s.Authenticate(ctx, "admin", "s3cret")
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin)

	stored, err := s.Get(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)
	assert.True(t, stored.LastLogin.Equal(clock))
	assert.True(t, stored.IsStaff)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	u := &models.User{Username: "admin"}
	require.NoError(t, s.Create(ctx, u, "old"))

	err := s.ChangePassword(ctx, u, "bad", "new", "new")
	assert.EqualError(t, err, "Invalid current password.")
	err = s.ChangePassword(ctx, u, "old", "new", "other")
	assert.EqualError(t, err, "New and confirm password mismatch.")

	require.NoError(t, s.ChangePassword(ctx, u, " old ", "new", "new "))
	_, err = s.Authenticate(ctx, "admin", "new")
	assert.NoError(t, err)
	_, err = s.Authenticate(ctx, "admin", "old")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateInfo(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	u := &models.User{Username: "admin"}
	require.NoError(t, s.Create(ctx, u, "pw"))

	u.FirstName = " Juan "
	u.LastName = "Cruz"
	u.Email = "juan@example.com"
	require.NoError(t, s.UpdateInfo(ctx, u))

	got, err := s.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "Juan Cruz", got.DisplayName())
	assert.Equal(t, "juan@example.com", got.Email)
}
