package messaging

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bilgisen/s13core/internal/database"
	"github.com/bilgisen/s13core/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "s13.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db)
}

func TestCreateValidatesMessages(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	bad := []*models.SiteMessage{
		{SenderName: "", SenderEmail: "a@example.com", MessageBody: "hi"},
		{SenderName: "Ann", SenderEmail: "not-an-email", MessageBody: "hi"},
		{SenderName: "Ann", SenderEmail: "a@example.com", MessageBody: "   "},
		{SenderName: string(make([]byte, 129)), SenderEmail: "a@example.com", MessageBody: "hi"},
	}
	for _, m := range bad {
		assert.Error(t, r.Create(ctx, m))
	}

	clock := time.Date(2021, 5, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return clock }
	m := &models.SiteMessage{SenderName: " Ann ", SenderEmail: "a@example.com", MessageBody: "Hello"}
	require.NoError(t, r.Create(ctx, m))
	assert.Equal(t, "Ann", m.SenderName)

	got, err := r.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, got.DateSent.Equal(clock))
	assert.False(t, got.IsSent)
}

func TestInbox(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	clock := time.Date(2021, 5, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { clock = clock.Add(time.Hour); return clock }
	first := &models.SiteMessage{SenderName: "Ann", SenderEmail: "a@example.com", MessageBody: "one"}
	second := &models.SiteMessage{SenderName: "Bob", SenderEmail: "b@example.com", MessageBody: "two"}
	require.NoError(t, r.Create(ctx, first))
	require.NoError(t, r.Create(ctx, second))

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Bob", list[0].SenderName)

	require.NoError(t, r.MarkSent(ctx, first.ID, true))
	n, err := r.Unsent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, r.Delete(ctx, second.ID))
	assert.ErrorIs(t, r.Delete(ctx, second.ID), ErrNotFound)
	_, err = r.Get(ctx, second.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuestions(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	seeded, err := r.Questions(ctx)
	require.NoError(t, err)
	require.Len(t, seeded, 2)

	cat := seeded[1]
	assert.NoError(t, r.Check(ctx, cat.ID, " FOUR "))
	assert.NoError(t, r.Check(ctx, cat.ID, "4"))
	assert.ErrorIs(t, r.Check(ctx, cat.ID, "three"), ErrWrongAnswer)
	assert.ErrorIs(t, r.Check(ctx, 999, "blue"), ErrWrongAnswer)

	q, err := r.Random(ctx)
	require.NoError(t, err)
	assert.Contains(t, []int64{seeded[0].ID, cat.ID}, q.ID)

	nq := &models.QuestionAnswerPair{Question: "Opposite of up?"}
	var verrs validator.ValidationErrors
	require.ErrorAs(t, r.SaveQuestion(ctx, nq), &verrs)
	assert.Equal(t, "Answers", verrs[0].Field())

	long := &models.QuestionAnswerPair{Question: strings.Repeat("?", 129)}
	long.SetAnswers("yes")
	require.ErrorAs(t, r.SaveQuestion(ctx, long), &verrs)
	assert.Equal(t, "max", verrs[0].Tag())
	assert.Zero(t, long.ID)

	nq.SetAnswers("Down", "")
	require.NoError(t, r.SaveQuestion(ctx, nq))
	assert.NoError(t, r.Check(ctx, nq.ID, "down"))

	for _, q := range append(seeded, nq) {
		require.NoError(t, r.DeleteQuestion(ctx, q.ID))
	}
	_, err = r.Random(ctx)
	assert.ErrorIs(t, err, ErrNoQuestions)
}
