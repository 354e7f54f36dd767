package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeyKeepsExtension(t *testing.T) {
	k1 := NewKey("Holiday Photo.JPG")
	k2 := NewKey("Holiday Photo.JPG")
	assert.True(t, strings.HasSuffix(k1, ".jpg"))
	assert.NotEqual(t, k1, k2)
	assert.NotContains(t, NewKey("README"), ".")
}

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocal(t.TempDir(), "/media")
	require.NoError(t, err)

	n, err := s.Save(ctx, "docs/report.pdf", strings.NewReader("hello"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	size, err := s.Stat(ctx, "docs/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)

	rc, err := s.Open(ctx, "docs/report.pdf")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, "/media/docs/report.pdf", s.URL("docs/report.pdf"))

	require.NoError(t, s.Delete(ctx, "docs/report.pdf"))
	_, err = s.Stat(ctx, "docs/report.pdf")
	assert.ErrorIs(t, err, ErrNotExist)
	_, err = s.Open(ctx, "docs/report.pdf")
	assert.ErrorIs(t, err, ErrNotExist)

	// Deleting a missing file is not an error.
	assert.NoError(t, s.Delete(ctx, "docs/report.pdf"))
}

func TestLocalKeysStayInsideBase(t *testing.T) {
	base := t.TempDir()
	s, err := NewLocal(base, "/media/")
	require.NoError(t, err)

	p, err := s.path("../../etc/passwd")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p, base))

	_, err = s.path("/")
	assert.Error(t, err)
}

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, _ := io.ReadAll(in.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeObjects) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestR2Backend(t *testing.T) {
	ctx := context.Background()
	fake := &fakeObjects{objects: map[string][]byte{}}
	s := NewR2WithClient(fake, "media", "", "/media/")

	n, err := s.Save(ctx, "a.png", strings.NewReader("png!"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	size, err := s.Stat(ctx, "a.png")
	require.NoError(t, err)
	assert.Equal(t, int64(4), size)

	rc, err := s.Open(ctx, "a.png")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "png!", string(data))

	require.NoError(t, s.Delete(ctx, "a.png"))
	_, err = s.Stat(ctx, "a.png")
	assert.ErrorIs(t, err, ErrNotExist)
	_, err = s.Open(ctx, "a.png")
	assert.ErrorIs(t, err, ErrNotExist)

	assert.Equal(t, "/media/a.png", s.URL("a.png"))
	assert.Equal(t, "https://cdn.example.com/a.png",
		NewR2WithClient(fake, "media", "https://cdn.example.com/", "/media/").URL("a.png"))
}
