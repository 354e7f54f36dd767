package asset

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bilgisen/s13core/internal/database"
	"github.com/bilgisen/s13core/internal/models"
	"github.com/bilgisen/s13core/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, maxSize int64) (*Service, *storage.Local) {
	t.Helper()
	db, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "s13.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	backend, err := storage.NewLocal(t.TempDir(), "/media/")
	require.NoError(t, err)
	return NewService(NewRepository(db), backend, maxSize), backend
}

func upload(name, body string) Upload {
	return Upload{Filename: name, ContentType: "application/octet-stream", Body: strings.NewReader(body)}
}

func TestCreateDerivesExtensionAndSize(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, 0)

	f := &models.FileAsset{AltText: "a cat"}
	require.NoError(t, svc.Create(ctx, f, upload("Cat.PNG", "meow")))

	assert.NotZero(t, f.ID)
	assert.Equal(t, "png", f.Extension)
	assert.Equal(t, int64(4), f.Size)
	assert.Equal(t, "Cat.PNG", f.Title)
	assert.True(t, f.IsImage())
	assert.True(t, svc.OnDisk(ctx, f))
	assert.Equal(t, "/media/"+f.MediaFile, svc.URL(f))

	got, err := svc.Repository().Get(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, f.MediaFile, got.MediaFile)
}

func TestCreateRejectsLargeFiles(t *testing.T) {
	svc, _ := newService(t, 3)
	err := svc.Create(context.Background(), &models.FileAsset{}, upload("big.txt", "too big"))
	assert.ErrorIs(t, err, ErrTooLarge)

	all, err := svc.Repository().All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdateReplacesFile(t *testing.T) {
	ctx := context.Background()
	svc, backend := newService(t, 0)

	f := &models.FileAsset{Title: "doc"}
	require.NoError(t, svc.Create(ctx, f, upload("doc.txt", "v1")))
	old := f.MediaFile

	require.NoError(t, svc.Update(ctx, f, &Upload{Filename: "doc.pdf", Body: strings.NewReader("version2")}))
	assert.Equal(t, "pdf", f.Extension)
	assert.Equal(t, int64(8), f.Size)

	_, err := backend.Stat(ctx, old)
	assert.ErrorIs(t, err, storage.ErrNotExist)

	f.Title = "renamed"
	require.NoError(t, svc.Update(ctx, f, nil))
	got, err := svc.Repository().Get(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
}

func TestDeleteRemovesFile(t *testing.T) {
	ctx := context.Background()
	svc, backend := newService(t, 0)

	f := &models.FileAsset{Title: "gone"}
	require.NoError(t, svc.Create(ctx, f, upload("gone.gif", "gif")))
	require.NoError(t, svc.Delete(ctx, f.ID))

	_, err := backend.Stat(ctx, f.MediaFile)
	assert.ErrorIs(t, err, storage.ErrNotExist)
	_, err = svc.Repository().Get(ctx, f.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, 0)

	require.NoError(t, svc.Create(ctx, &models.FileAsset{Title: "Beach"}, upload("beach.jpg", "x")))
	require.NoError(t, svc.Create(ctx, &models.FileAsset{Title: "Logo", Description: "brand mark"}, upload("logo.png", "x")))
	require.NoError(t, svc.Create(ctx, &models.FileAsset{Title: "Manual"}, upload("manual.pdf", "x")))

	images, err := svc.Repository().Search(ctx, "extension-jpg|png")
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "Logo", images[0].Title, "newest first")

	found, err := svc.Repository().Search(ctx, "BRAND")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Logo", found[0].Title)

	all, err := svc.Repository().Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	svc, backend := newService(t, 0)

	a := &models.FileAsset{}
	require.NoError(t, svc.Create(ctx, a, upload("a.jpg", "1234")))
	require.NoError(t, svc.Create(ctx, &models.FileAsset{}, upload("b.jpg", "1234")))
	broken := &models.FileAsset{}
	require.NoError(t, svc.Create(ctx, broken, upload("c.pdf", "12345678")))
	require.NoError(t, backend.Delete(ctx, broken.MediaFile))

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, int64(8), st.TotalSize)
	require.Len(t, st.Broken, 1)
	assert.Equal(t, broken.ID, st.Broken[0].ID)

	require.Len(t, st.Types, 2)
	assert.Equal(t, "jpg", st.Types[0].Extension)
	assert.Equal(t, 2, st.Types[0].Count)
	assert.Equal(t, 66.67, st.Types[0].CountPercent)
	assert.Equal(t, 100.0, st.Types[0].SizePercent)
	assert.Equal(t, "pdf", st.Types[1].Extension)
	assert.Equal(t, 0.0, st.Types[1].SizePercent)
}
