package feed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bilgisen/s13core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{"data":[
	{"id":"1","message":"<p>Hello  <b>world</b></p>","created":"2020-01-02T03:04:05Z","picture":"http://x/a.png"},
	{"id":"2","message":"Second post","created":"1577934245"}
]}`

func TestProgramEmitsArticles(t *testing.T) {
	code := `{{range (get "data").Array}}` +
		`{{article "title" (str . "message" | clean | truncate 8) "slug" (printf "post-%s" (str . "id")) ` +
		`"body" (str . "message") "date" (str . "created") "image" (str . "picture")}}` +
		`{{end}}{{len (get "data").Array}} items for {{.Feed.AccountID}}`

	prog, err := Compile("test", code)
	require.NoError(t, err)

	out, err := prog.Run(context.Background(), sample, &models.SocMedFeed{AccountID: "acme"}, time.Second)
	require.NoError(t, err)
	require.Len(t, out.Articles, 2)

	first := out.Articles[0]
	assert.Equal(t, "Hello wo…", first.Title)
	assert.Equal(t, "post-1", first.Slug)
	assert.Equal(t, "http://x/a.png", first.Image)
	assert.Equal(t, time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC), first.Date)

	assert.Equal(t, "Second p…", out.Articles[1].Title)
	assert.Equal(t, time.Unix(1577934245, 0).UTC(), out.Articles[1].Date)
	assert.Equal(t, "", out.Articles[1].Image)
	assert.Equal(t, "2 items for acme", out.Text)
}

func TestProgramAssetsAndHelpers(t *testing.T) {
	code := `{{asset "url" "http://x/b.jpg" "title" (default "Untitled" "") "article" (lower "POST")}}` +
		`{{join ", " (.Raw | trim | slugify | printf "%s" | split)}}`
	_, err := Compile("bad", code)
	require.Error(t, err, "unknown function is a compile error")

	prog, err := Compile("ok", `{{asset "url" "http://x/b.jpg" "title" (default "Untitled" "  ") "article" (lower "POST")}}`)
	require.NoError(t, err)
	out, err := prog.Run(context.Background(), "{}", &models.SocMedFeed{}, 0)
	require.NoError(t, err)
	require.Len(t, out.Assets, 1)
	assert.Equal(t, AssetSpec{URL: "http://x/b.jpg", Title: "Untitled", Article: "post"}, out.Assets[0])
}

func TestProgramErrors(t *testing.T) {
	feed := &models.SocMedFeed{}

	prog, err := Compile("odd", `{{article "title"}}`)
	require.NoError(t, err)
	_, err = prog.Run(context.Background(), "{}", feed, time.Second)
	assert.Error(t, err)

	prog, err = Compile("date", `{{article "title" "x" "date" "yesterday"}}`)
	require.NoError(t, err)
	_, err = prog.Run(context.Background(), "{}", feed, time.Second)
	assert.ErrorContains(t, err, "unrecognised date")

	prog, err = Compile("nourl", `{{asset "title" "x"}}`)
	require.NoError(t, err)
	_, err = prog.Run(context.Background(), "{}", feed, time.Second)
	assert.Error(t, err)
}

func TestProgramTimeout(t *testing.T) {
	prog, err := Compile("slow", `{{range (get "data").Array}}{{get "data"}}{{end}}`)
	require.NoError(t, err)
	_, err = prog.Run(context.Background(), sample, &models.SocMedFeed{}, time.Nanosecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestProgramLimits(t *testing.T) {
	feed := &models.SocMedFeed{}

	prog, err := Compile("big", `{{.Raw}}{{.Raw}}`)
	require.NoError(t, err)
	raw := `{"s":"` + strings.Repeat("x", maxWritten/2+1) + `"}`
	_, err = prog.Run(context.Background(), raw, feed, time.Minute)
	assert.ErrorIs(t, err, ErrTooLarge)

	prog, err = Compile("many", `{{range (get "a").Array}}{{article "title" "x"}}{{end}}`)
	require.NoError(t, err)
	raw = `{"a":[` + strings.Repeat("1,", maxRows) + `1]}`
	_, err = prog.Run(context.Background(), raw, feed, time.Minute)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestBoundedWriterStopsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := &boundedWriter{ctx: ctx, max: 4}
	n, err := w.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	_, err = w.Write([]byte("de"))
	assert.ErrorIs(t, err, ErrTooLarge)

	cancel()
	_, err = w.Write([]byte("f"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "abc", w.buf.String())
}

func TestBuildURL(t *testing.T) {
	f := &models.SocMedFeed{AccountID: "a b", MaxResults: 7}
	got := BuildURL("https://api.example.com/{account_id}/posts?key={api_key}&limit={max_results}", f, "k&y")
	assert.Equal(t, "https://api.example.com/a+b/posts?key=k%26y&limit=7", got)
}
