package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bilgisen/s13core/internal/article"
	"github.com/bilgisen/s13core/internal/asset"
	"github.com/bilgisen/s13core/internal/cache"
	"github.com/bilgisen/s13core/internal/logger"
	"github.com/bilgisen/s13core/internal/metrics"
	"github.com/bilgisen/s13core/internal/models"
	"github.com/bilgisen/s13core/internal/socmed"
	"github.com/bilgisen/s13core/internal/utils"
)

var (
	ErrNoProcessor = errors.New("feed has no processor")
	ErrNoSection   = errors.New("feed has no CMS section")
	ErrNoResponse  = errors.New("feed has no stored response")
)

// Result summarises a processing run.
type Result struct {
	Feed    string
	Created []*models.Article
	Skipped int
	Assets  int
	Output  string
	Errors  []string
}

// Message is the flash text shown after a run.
func (r *Result) Message() string {
	return fmt.Sprintf("Feed %s processed: %d created, %d skipped, %d files.", r.Feed, len(r.Created), r.Skipped, r.Assets)
}

// Options configures a Collector.
type Options struct {
	Timeout          time.Duration
	Retries          int
	ProcessorTimeout time.Duration
	MarkerTTL        time.Duration
}

// Collector fetches social media feeds and turns them into articles.
type Collector struct {
	socmed   *socmed.Repository
	articles *article.Repository
	assets   *asset.Service
	cache    cache.Cache
	fetcher  *Fetcher
	opts     Options
	now      func() time.Time
}

func NewCollector(sm *socmed.Repository, articles *article.Repository, assets *asset.Service, c cache.Cache, opts Options) *Collector {
	return &Collector{
		socmed:   sm,
		articles: articles,
		assets:   assets,
		cache:    c,
		fetcher:  NewFetcher(opts.Timeout, opts.Retries),
		opts:     opts,
		now:      time.Now,
	}
}

// Retrieve downloads the feed, stores the raw response and processes it.
func (c *Collector) Retrieve(ctx context.Context, feedID int64) (res *Result, err error) {
	log := logger.For("feed")
	f, err := c.socmed.GetFeed(ctx, feedID)
	if err != nil {
		return nil, err
	}
	defer func() { metrics.FeedRuns.WithLabelValues(f.Label, "retrieve", metrics.Outcome(err)).Inc() }()

	if f.ProcessorID == nil {
		return nil, ErrNoProcessor
	}
	proc, err := c.socmed.GetProcessor(ctx, *f.ProcessorID)
	if err != nil {
		return nil, fmt.Errorf("load processor: %w", err)
	}
	key := ""
	if f.APIKeyID != nil {
		k, err := c.socmed.GetAPIKey(ctx, *f.APIKeyID)
		if err != nil {
			return nil, fmt.Errorf("load API key: %w", err)
		}
		key = k.Key
	}

	start := time.Now()
	body, err := c.fetcher.Fetch(ctx, BuildURL(proc.URI, f, key))
	if err != nil {
		log.Error().Err(err).Str("feed", f.Label).Msg("Error fetching feed")
		return nil, err
	}
	if err := c.socmed.StoreResponse(ctx, f, string(body), c.now()); err != nil {
		return nil, err
	}
	log.Info().
		Str("feed", f.Label).
		Int("bytes", len(body)).
		Dur("fetch_duration", time.Since(start)).
		Msg("Fetched feed")

	return c.process(ctx, f, proc)
}

// Process runs the feed's processor against the stored response.
func (c *Collector) Process(ctx context.Context, feedID int64) (res *Result, err error) {
	f, err := c.socmed.GetFeed(ctx, feedID)
	if err != nil {
		return nil, err
	}
	defer func() { metrics.FeedRuns.WithLabelValues(f.Label, "process", metrics.Outcome(err)).Inc() }()

	if f.ProcessorID == nil {
		return nil, ErrNoProcessor
	}
	proc, err := c.socmed.GetProcessor(ctx, *f.ProcessorID)
	if err != nil {
		return nil, fmt.Errorf("load processor: %w", err)
	}
	return c.process(ctx, f, proc)
}

func (c *Collector) process(ctx context.Context, f *models.SocMedFeed, proc *models.SocMedProcessor) (*Result, error) {
	log := logger.For("feed")
	start := time.Now()

	if f.CMSSectionID == nil {
		return nil, ErrNoSection
	}
	section, err := c.articles.Get(ctx, *f.CMSSectionID)
	if err != nil {
		return nil, fmt.Errorf("load CMS section: %w", err)
	}
	if strings.TrimSpace(f.Response) == "" {
		return nil, ErrNoResponse
	}

	prog, err := Compile(proc.Label, proc.Code)
	if err != nil {
		return nil, err
	}
	out, err := prog.Run(ctx, f.Response, f, c.opts.ProcessorTimeout)
	if err != nil {
		log.Error().Err(err).Str("feed", f.Label).Str("processor", proc.Label).Msg("Processor failed")
		return nil, err
	}

	res := &Result{Feed: f.Label, Output: out.Text}
	created := map[string]*models.Article{}

	for _, spec := range out.Articles {
		if f.MaxResults > 0 && len(res.Created) >= f.MaxResults {
			break
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		a, err := c.createArticle(ctx, f, section, spec)
		if err != nil {
			res.Errors = append(res.Errors, err.Error())
			log.Warn().Err(err).Str("feed", f.Label).Str("title", spec.Title).Msg("Skipping feed item")
			continue
		}
		if a == nil {
			res.Skipped++
			continue
		}
		res.Created = append(res.Created, a)
		created[a.Slug] = a

		if spec.Image != "" {
			fa, err := c.download(ctx, AssetSpec{URL: spec.Image, Title: a.Title, AltText: a.Title})
			if err != nil {
				res.Errors = append(res.Errors, err.Error())
			} else {
				res.Assets++
				if err := c.articles.SetImage(ctx, a, &fa.ID); err != nil {
					res.Errors = append(res.Errors, err.Error())
				}
			}
		}
	}

	for _, spec := range out.Assets {
		var target *models.Article
		if spec.Article != "" {
			if target = created[itemSlug(f.Label, ArticleSpec{Slug: spec.Article, Title: spec.Article})]; target == nil {
				// Media for an article skipped in this run.
				continue
			}
		}
		fa, err := c.download(ctx, spec)
		if err != nil {
			res.Errors = append(res.Errors, err.Error())
			continue
		}
		res.Assets++
		if target != nil {
			if err := c.articles.AddMedia(ctx, target, fa.ID); err != nil {
				res.Errors = append(res.Errors, err.Error())
			}
		}
	}

	metrics.FeedArticles.WithLabelValues(f.Label).Add(float64(len(res.Created)))
	log.Info().
		Str("feed", f.Label).
		Int("emitted", len(out.Articles)).
		Int("created", len(res.Created)).
		Int("skipped", res.Skipped).
		Int("assets", res.Assets).
		Int("errors", len(res.Errors)).
		Dur("duration", time.Since(start)).
		Msg("Finished processing feed")

	return res, nil
}

// createArticle saves spec under section. It returns nil when the item
// was already processed.
func (c *Collector) createArticle(ctx context.Context, f *models.SocMedFeed, section *models.Article, spec ArticleSpec) (*models.Article, error) {
	slug := itemSlug(f.Label, spec)
	if slug == "" {
		return nil, errors.New("feed item has neither slug nor title")
	}

	hash := markerKey(f.Label, slug)
	done, err := c.cache.IsProcessed(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("check processed %s: %w", slug, err)
	}
	if done {
		return nil, nil
	}
	if _, err := c.articles.GetBySlug(ctx, slug); err == nil {
		return nil, c.cache.MarkProcessed(ctx, hash, c.opts.MarkerTTL)
	} else if !errors.Is(err, article.ErrNotFound) {
		return nil, err
	}

	a := models.NewArticle()
	a.Slug = slug
	a.Title = utils.Truncate(strings.TrimSpace(spec.Title), 250)
	if a.Title == "" {
		a.Title = slug
	}
	a.Body = spec.Body
	if spec.Format == models.FormatOrg {
		a.Format = models.FormatOrg
	}
	a.Description = spec.Description
	a.Keywords = spec.Keywords
	a.DateMade = spec.Date
	a.ParentID = &section.ID
	if err := c.articles.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("save %s: %w", slug, err)
	}
	if err := c.cache.MarkProcessed(ctx, hash, c.opts.MarkerTTL); err != nil {
		log := logger.For("feed")
		log.Warn().Err(err).Str("slug", slug).Msg("Error marking item as processed")
	}
	return a, nil
}

func (c *Collector) download(ctx context.Context, spec AssetSpec) (*models.FileAsset, error) {
	d, err := c.fetcher.Download(ctx, spec.URL)
	if err != nil {
		return nil, err
	}
	fa := &models.FileAsset{Title: spec.Title, AltText: spec.AltText, Description: spec.Description}
	up := asset.Upload{Filename: d.Filename, ContentType: d.ContentType, Body: bytes.NewReader(d.Body)}
	if err := c.assets.Create(ctx, fa, up); err != nil {
		return nil, err
	}
	return fa, nil
}
