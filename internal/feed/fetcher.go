package feed

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/bilgisen/s13core/internal/models"
	"github.com/go-resty/resty/v2"
)

type Fetcher struct {
	client *resty.Client
}

func NewFetcher(timeout time.Duration, retries int) *Fetcher {
	return &Fetcher{
		client: resty.New().
			SetTimeout(timeout).
			SetRetryCount(retries).
			SetRetryWaitTime(2 * time.Second).
			SetRetryMaxWaitTime(10 * time.Second),
	}
}

// Fetch retrieves the resource at url and returns its body.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(url)

	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed from %s: %w", url, err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode(), url)
	}

	return resp.Body(), nil
}

// Download is a remote file fetched for the media library.
type Download struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Download fetches a file referenced by a processed feed.
func (f *Fetcher) Download(ctx context.Context, rawURL string) (*Download, error) {
	resp, err := f.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", rawURL, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode(), rawURL)
	}

	ct := resp.Header().Get("Content-Type")
	return &Download{
		Filename:    filenameOf(rawURL, ct),
		ContentType: ct,
		Body:        resp.Body(),
	}, nil
}

func filenameOf(rawURL, contentType string) string {
	name := ""
	if u, err := url.Parse(rawURL); err == nil {
		name = path.Base(u.Path)
	}
	if name == "" || name == "." || name == "/" {
		name = "download"
	}
	if models.ExtensionOf(name) == "" && contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			if exts, _ := mime.ExtensionsByType(mt); len(exts) > 0 {
				name += exts[0]
			}
		}
	}
	return name
}

// BuildURL expands the {api_key}, {account_id} and {max_results}
// placeholders of a processor URI.
func BuildURL(uri string, feed *models.SocMedFeed, apiKey string) string {
	return strings.NewReplacer(
		"{api_key}", url.QueryEscape(apiKey),
		"{account_id}", url.QueryEscape(feed.AccountID),
		"{max_results}", strconv.Itoa(feed.MaxResults),
	).Replace(uri)
}
