package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/bilgisen/s13core/internal/article"
	"github.com/bilgisen/s13core/internal/asset"
	"github.com/bilgisen/s13core/internal/cache"
	"github.com/bilgisen/s13core/internal/database"
	"github.com/bilgisen/s13core/internal/models"
	"github.com/bilgisen/s13core/internal/socmed"
	"github.com/bilgisen/s13core/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const processorCode = `{{range (get "items").Array}}{{$t := str . "title"}}` +
	`{{article "title" $t "body" (str . "html") "image" (str . "picture")}}` +
	`{{range (.Get "files").Array}}{{asset "url" .String "title" "attachment" "article" $t}}{{end}}` +
	`{{end}}`

type fixture struct {
	collector *Collector
	socmed    *socmed.Repository
	articles  *article.Repository
	section   *models.Article
	feed      *models.SocMedFeed
	srv       *httptest.Server
	hits      int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, filepath.Join(t.TempDir(), "s13.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	backend, err := storage.NewLocal(t.TempDir(), "/media/")
	require.NoError(t, err)

	fx := &fixture{
		socmed:   socmed.NewRepository(db),
		articles: article.NewRepository(db),
	}
	assets := asset.NewService(asset.NewRepository(db), backend, 1<<20)

	mux := http.NewServeMux()
	mux.HandleFunc("/feeds/acme", func(w http.ResponseWriter, r *http.Request) {
		fx.hits++
		if r.URL.Query().Get("key") != "secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"items":[
			{"title":"First post","html":"<p>one</p>","picture":"%[1]s/img/one.png","files":["%[1]s/files/a.pdf"]},
			{"title":"Second post","html":"<p>two</p>"},
			{"title":"Third post","html":"<p>three</p>"}
		]}`, fx.srv.URL)
	})
	mux.HandleFunc("/img/one.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("PNGDATA"))
	})
	mux.HandleFunc("/files/a.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("PDFDATA"))
	})
	fx.srv = httptest.NewServer(mux)
	t.Cleanup(fx.srv.Close)

	fx.section = models.NewArticle()
	fx.section.Title = "News"
	fx.section.Slug = "news"
	require.NoError(t, fx.articles.Save(ctx, fx.section))

	key := &models.APIKey{Label: "acme key", Key: "secret"}
	require.NoError(t, fx.socmed.SaveAPIKey(ctx, key))
	proc := &models.SocMedProcessor{Label: "items", URI: fx.srv.URL + "/feeds/{account_id}?key={api_key}", Code: processorCode}
	require.NoError(t, fx.socmed.SaveProcessor(ctx, proc))

	fx.feed = models.NewSocMedFeed()
	fx.feed.Label = "Acme"
	fx.feed.AccountID = "acme"
	fx.feed.MaxResults = 2
	fx.feed.APIKeyID = &key.ID
	fx.feed.ProcessorID = &proc.ID
	fx.feed.CMSSectionID = &fx.section.ID
	require.NoError(t, fx.socmed.SaveFeed(ctx, fx.feed))

	fx.collector = NewCollector(fx.socmed, fx.articles, assets, cache.NewMemory("test:"), Options{
		Timeout:          5 * time.Second,
		ProcessorTimeout: 5 * time.Second,
		MarkerTTL:        time.Hour,
	})
	return fx
}

func TestRetrieveCreatesArticles(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	res, err := fx.collector.Retrieve(ctx, fx.feed.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fx.hits)
	require.Len(t, res.Created, 2)
	assert.Equal(t, 2, res.Assets)
	assert.Empty(t, res.Errors)
	assert.Equal(t, "Feed Acme processed: 2 created, 0 skipped, 2 files.", res.Message())

	stored, err := fx.socmed.GetFeed(ctx, fx.feed.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.Response, "First post")
	assert.NotNil(t, stored.FetchedAt)

	first, err := fx.articles.GetBySlug(ctx, "first-post")
	require.NoError(t, err)
	require.NotNil(t, first.ParentID)
	assert.Equal(t, fx.section.ID, *first.ParentID)
	assert.Equal(t, "<p>one</p>", first.Body)

	img, err := fx.articles.Image(ctx, first)
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, "png", img.Extension)

	media, err := fx.articles.Media(ctx, first)
	require.NoError(t, err)
	require.Len(t, media, 1)
	assert.Equal(t, "pdf", media[0].Extension)

	_, err = fx.articles.GetBySlug(ctx, "third-post")
	assert.ErrorIs(t, err, article.ErrNotFound)
}

func TestProcessSkipsProcessedItems(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	_, err := fx.collector.Retrieve(ctx, fx.feed.ID)
	require.NoError(t, err)

	res, err := fx.collector.Process(ctx, fx.feed.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fx.hits, "process works on the stored response")
	assert.Equal(t, 2, res.Skipped)
	require.Len(t, res.Created, 1)
	assert.Equal(t, "third-post", res.Created[0].Slug)

	res, err = fx.collector.Process(ctx, fx.feed.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Created)
	assert.Equal(t, 3, res.Skipped)
}

func TestProcessRequirements(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	_, err := fx.collector.Process(ctx, fx.feed.ID)
	assert.ErrorIs(t, err, ErrNoResponse)

	fx.feed.CMSSectionID = nil
	require.NoError(t, fx.socmed.SaveFeed(ctx, fx.feed))
	_, err = fx.collector.Process(ctx, fx.feed.ID)
	assert.ErrorIs(t, err, ErrNoSection)

	fx.feed.ProcessorID = nil
	require.NoError(t, fx.socmed.SaveFeed(ctx, fx.feed))
	_, err = fx.collector.Retrieve(ctx, fx.feed.ID)
	assert.ErrorIs(t, err, ErrNoProcessor)

	_, err = fx.collector.Process(ctx, 999)
	assert.ErrorIs(t, err, socmed.ErrNotFound)
}

func TestRetrieveFailsOnHTTPError(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	k, err := fx.socmed.GetAPIKey(ctx, *fx.feed.APIKeyID)
	require.NoError(t, err)
	k.Key = "wrong"
	require.NoError(t, fx.socmed.SaveAPIKey(ctx, k))

	_, err = fx.collector.Retrieve(ctx, fx.feed.ID)
	assert.ErrorContains(t, err, "unexpected status code 403")

	stored, err := fx.socmed.GetFeed(ctx, fx.feed.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Response)
}
