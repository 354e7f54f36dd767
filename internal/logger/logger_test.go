package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	prev := *Get()
	t.Cleanup(func() { Set(prev) })
	Set(zerolog.New(&buf))

	l := For("feed")
	l.Info().Str("label", "tweets").Msg("fetched")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "feed", line["component"])
	assert.Equal(t, "tweets", line["label"])
	assert.Equal(t, "fetched", line["message"])
}

func TestOpenOutputCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "s13.log")
	w, err := openOutput(path)
	require.NoError(t, err)
	assert.FileExists(t, path)
	_, err = w.Write([]byte("ok\n"))
	assert.NoError(t, err)
}
