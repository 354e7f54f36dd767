package web

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/bilgisen/s13core/internal/feed"
	"github.com/bilgisen/s13core/internal/logger"
	"github.com/bilgisen/s13core/internal/models"
	"github.com/bilgisen/s13core/internal/socmed"
	"github.com/bilgisen/s13core/internal/utils"
	"github.com/gofiber/fiber/v2"
)

const socmedFeedsURL = "/s13admin/socmed/feeds/"

func (h *Handlers) apiKeyResource() *resource[*models.APIKey] {
	return &resource[*models.APIKey]{
		Name:        "API Key",
		Plural:      "Social Media API Keys",
		Description: "API keys used to access social media services.",
		Path:        "/s13admin/socmed/apikeys/",
		Nav:         "socmed",
		Columns:     []string{"Label", "Key"},
		List: func(ctx context.Context, _ string) ([]*models.APIKey, error) {
			return pointers(h.socmed.APIKeys(ctx))
		},
		Get: h.socmed.GetAPIKey,
		New: func(*fiber.Ctx) (*models.APIKey, error) {
			return &models.APIKey{}, nil
		},
		Fields: func(_ context.Context, k *models.APIKey) ([]*Field, error) {
			return []*Field{
				textField("label", "Label", &k.Label).required(),
				textField("key", "Key", &k.Key).required(),
			}, nil
		},
		Save: func(c *fiber.Ctx, k *models.APIKey) error {
			return h.socmed.SaveAPIKey(c.UserContext(), k)
		},
		Delete: h.socmed.DeleteAPIKey,
		Row: func(k *models.APIKey) Row {
			return Row{ID: k.ID, URL: "/s13admin/socmed/apikeys/" + strconv.FormatInt(k.ID, 10) + "/update/",
				Cells: []string{k.Label, utils.Truncate(k.Key, 12)}}
		},
	}
}

func (h *Handlers) processorResource() *resource[*models.SocMedProcessor] {
	return &resource[*models.SocMedProcessor]{
		Name:        "Social Media Feed Processor",
		Plural:      "Social Media Processors",
		Description: "Programs that turn a downloaded feed into articles and files.",
		Path:        "/s13admin/socmed/processors/",
		Nav:         "socmed",
		Columns:     []string{"Label", "URI"},
		List: func(ctx context.Context, _ string) ([]*models.SocMedProcessor, error) {
			return pointers(h.socmed.Processors(ctx))
		},
		Get: h.socmed.GetProcessor,
		New: func(*fiber.Ctx) (*models.SocMedProcessor, error) {
			return &models.SocMedProcessor{}, nil
		},
		Fields: func(_ context.Context, p *models.SocMedProcessor) ([]*Field, error) {
			return []*Field{
				textField("label", "Label", &p.Label).required(),
				textField("uri", "URI", &p.URI).required().help("May use {api_key}, {account_id} and {max_results}."),
				codeField("code", "Code", &p.Code).required().help(`Template run against the response, e.g. {{range (get "data").Array}}{{article "title" (str . "title")}}{{end}}.`),
				areaField("notes", "Notes", &p.Notes),
			}, nil
		},
		Save: func(c *fiber.Ctx, p *models.SocMedProcessor) error {
			if _, err := feed.Compile(p.Label, p.Code); err != nil {
				return fmt.Errorf("%v: code", err)
			}
			return h.socmed.SaveProcessor(c.UserContext(), p)
		},
		Delete: h.socmed.DeleteProcessor,
		Row: func(p *models.SocMedProcessor) Row {
			return Row{ID: p.ID, URL: "/s13admin/socmed/processors/" + strconv.FormatInt(p.ID, 10) + "/update/",
				Cells: []string{p.Label, p.URI}}
		},
	}
}

func (h *Handlers) feedResource() *resource[*models.SocMedFeed] {
	return &resource[*models.SocMedFeed]{
		Name:        "Social Media Feed",
		Plural:      "Social Media Feeds",
		Description: "Feeds fetched from social media accounts into a section of the website.",
		Path:        socmedFeedsURL,
		Nav:         "socmed",
		Columns:     []string{"Label", "Account", "Max Results", "Last Fetched"},
		List: func(ctx context.Context, _ string) ([]*models.SocMedFeed, error) {
			return h.socmed.Feeds(ctx)
		},
		Get: h.socmed.GetFeed,
		New: func(*fiber.Ctx) (*models.SocMedFeed, error) {
			return models.NewSocMedFeed(), nil
		},
		Fields: h.feedFields,
		Save: func(c *fiber.Ctx, f *models.SocMedFeed) error {
			return h.socmed.SaveFeed(c.UserContext(), f)
		},
		Delete: h.socmed.DeleteFeed,
		Row: func(f *models.SocMedFeed) Row {
			fetched := "Never"
			if f.FetchedAt != nil {
				fetched = f.FetchedAt.Format(models.DateFormat)
			}
			id := strconv.FormatInt(f.ID, 10)
			return Row{ID: f.ID, URL: socmedFeedsURL + id + "/update/",
				Cells: []string{f.Label, f.AccountID, strconv.Itoa(f.MaxResults), fetched},
				Actions: []Action{
					{Label: "Retrieve", URL: socmedFeedsURL + "retrieve/" + id + "/"},
					{Label: "Process", URL: socmedFeedsURL + "process/" + id + "/"},
				}}
		},
	}
}

func (h *Handlers) feedFields(ctx context.Context, f *models.SocMedFeed) ([]*Field, error) {
	keys, err := h.socmed.APIKeys(ctx)
	if err != nil {
		return nil, err
	}
	processors, err := h.socmed.Processors(ctx)
	if err != nil {
		return nil, err
	}
	sections, err := h.articles.Sections(ctx, true)
	if err != nil {
		return nil, err
	}
	return []*Field{
		textField("label", "Label", &f.Label).required(),
		refField("api_key", "API Key", &f.APIKeyID, idChoices(keys,
			func(k models.APIKey) int64 { return k.ID }, func(k models.APIKey) string { return k.Label })),
		textField("account_id", "Account ID", &f.AccountID),
		intField("max_results", "Max Results", &f.MaxResults),
		refField("cms_section", "Section", &f.CMSSectionID, idChoices(sections,
			func(a *models.Article) int64 { return a.ID }, func(a *models.Article) string { return a.Title })),
		refField("processor", "Processor", &f.ProcessorID, idChoices(processors,
			func(p models.SocMedProcessor) int64 { return p.ID }, func(p models.SocMedProcessor) string { return p.Label })),
	}, nil
}

// RetrieveFeed handles POST /s13admin/socmed/feeds/retrieve/:pk/
func (h *Handlers) RetrieveFeed(c *fiber.Ctx) error {
	return h.runFeed(c, h.collector.Retrieve)
}

// ProcessFeed handles POST /s13admin/socmed/feeds/process/:pk/
func (h *Handlers) ProcessFeed(c *fiber.Ctx) error {
	return h.runFeed(c, h.collector.Process)
}

func (h *Handlers) runFeed(c *fiber.Ctx, run func(context.Context, int64) (*feed.Result, error)) error {
	id, err := strconv.ParseInt(c.Params("pk"), 10, 64)
	if err != nil {
		return fiber.ErrNotFound
	}
	res, err := run(c.UserContext(), id)
	if errors.Is(err, socmed.ErrNotFound) {
		return fiber.ErrNotFound
	}
	if err != nil {
		logger.Get().Warn().Err(err).Int64("feed_id", id).Msg("Feed run failed")
		h.failure(c, err.Error())
		return c.Redirect(socmedFeedsURL)
	}
	h.success(c, res.Message())
	for _, e := range res.Errors {
		h.failure(c, e)
	}
	if res.Output != "" {
		h.info(c, utils.Truncate(res.Output, 512))
	}
	return c.Redirect(socmedFeedsURL)
}
