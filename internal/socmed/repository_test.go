package socmed

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bilgisen/s13core/internal/database"
	"github.com/bilgisen/s13core/internal/models"
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

func TestLabelsUniqueIgnoringCase(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	require.NoError(t, r.SaveAPIKey(ctx, &models.APIKey{Label: "Twitter", Key: "k1"}))
	err := r.SaveAPIKey(ctx, &models.APIKey{Label: "twitter", Key: "k2"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLabelNotUnique)
	assert.Equal(t, `label "twitter" is not unique`, err.Error())

	var le *LabelError
	assert.True(t, errors.As(err, &le))

	assert.ErrorIs(t, r.SaveAPIKey(ctx, &models.APIKey{Label: "Other", Key: "k1"}), ErrKeyTaken)

	// The same label is fine on a different record type.
	require.NoError(t, r.SaveProcessor(ctx, &models.SocMedProcessor{Label: "twitter"}))
	assert.ErrorIs(t, r.SaveProcessor(ctx, &models.SocMedProcessor{Label: "TWITTER"}), ErrLabelNotUnique)

	require.NoError(t, r.SaveFeed(ctx, &models.SocMedFeed{Label: "Twitter", MaxResults: 5}))
	assert.ErrorIs(t, r.SaveFeed(ctx, &models.SocMedFeed{Label: "twitter "}), ErrLabelNotUnique)
}

func TestUpdateKeepsOwnLabel(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	k := &models.APIKey{Label: "Flickr", Key: "abc"}
	require.NoError(t, r.SaveAPIKey(ctx, k))
	k.Label = "FLICKR"
	require.NoError(t, r.SaveAPIKey(ctx, k))

	got, err := r.GetAPIKey(ctx, k.ID)
	require.NoError(t, err)
	assert.Equal(t, "FLICKR", got.Label)
}

func TestFeedLifecycle(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	key := &models.APIKey{Label: "svc", Key: "secret"}
	require.NoError(t, r.SaveAPIKey(ctx, key))
	proc := &models.SocMedProcessor{Label: "json", URI: "https://api.example.com/{account_id}"}
	require.NoError(t, r.SaveProcessor(ctx, proc))

	feed := models.NewSocMedFeed()
	feed.Label = "News"
	feed.AccountID = "acme"
	feed.APIKeyID = &key.ID
	feed.ProcessorID = &proc.ID
	require.NoError(t, r.SaveFeed(ctx, feed))

	got, err := r.FeedByLabel(ctx, "news")
	require.NoError(t, err)
	assert.Equal(t, feed.ID, got.ID)
	assert.Nil(t, got.FetchedAt)
	assert.Equal(t, 5, got.MaxResults)

	at := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, r.StoreResponse(ctx, got, `{"data":[]}`, at))
	got, err = r.GetFeed(ctx, feed.ID)
	require.NoError(t, err)
	assert.Equal(t, `{"data":[]}`, got.Response)
	require.NotNil(t, got.FetchedAt)
	assert.True(t, got.FetchedAt.Equal(at))

	// Saving the configuration leaves the stored response alone.
	got.AccountID = "acme2"
	require.NoError(t, r.SaveFeed(ctx, got))
	got, err = r.GetFeed(ctx, feed.ID)
	require.NoError(t, err)
	assert.Equal(t, `{"data":[]}`, got.Response)

	require.NoError(t, r.DeleteProcessor(ctx, proc.ID))
	got, err = r.GetFeed(ctx, feed.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ProcessorID)

	require.NoError(t, r.DeleteFeed(ctx, feed.ID))
	_, err = r.FeedByLabel(ctx, "news")
	assert.ErrorIs(t, err, ErrNotFound)
}
