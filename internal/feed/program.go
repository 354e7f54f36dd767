package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/bilgisen/s13core/internal/models"
	"github.com/bilgisen/s13core/internal/utils"
	"github.com/tidwall/gjson"
)

const (
	maxOutput = 4096
	// A run stops once its text passes maxWritten bytes or it emits more
	// than maxRows articles and assets.
	maxWritten = 1 << 20
	maxRows    = 10000
)

var (
	ErrTimeout  = errors.New("processor timed out")
	ErrTooLarge = errors.New("processor output too large")
)

// ArticleSpec is an article emitted by a processor program.
type ArticleSpec struct {
	Title       string
	Slug        string
	Body        string
	Format      string
	Description string
	Keywords    string
	Image       string
	Date        time.Time
}

// AssetSpec is a remote file emitted by a processor program. A non-empty
// Article attaches the file as media of the article with that slug.
type AssetSpec struct {
	URL         string
	Title       string
	AltText     string
	Description string
	Article     string
}

// Output is what one run of a program produced.
type Output struct {
	Articles []ArticleSpec
	Assets   []AssetSpec
	Text     string
}

// Data is the dot value a program executes against.
type Data struct {
	Response gjson.Result
	Raw      string
	Feed     *models.SocMedFeed
}

// Program is a compiled processor.
//
// A program is a text/template. It reads the stored response through
// .Response (a gjson.Result) or the get/str helpers and calls article and
// asset with key/value pairs to emit rows:
//
//	{{range (get "data").Array}}
//	{{article "title" (str . "title") "body" (str . "html") "image" (str . "picture")}}
//	{{end}}
type Program struct {
	tmpl *template.Template
}

// Compile parses code into a Program.
func Compile(label, code string) (*Program, error) {
	t, err := template.New(label).Option("missingkey=zero").Funcs(funcs(context.Background(), "", &Output{})).Parse(code)
	if err != nil {
		return nil, fmt.Errorf("compile processor %s: %w", label, err)
	}
	return &Program{tmpl: t}, nil
}

// Run executes the program against raw, stopping after timeout.
//
// A template cannot be interrupted, so on timeout the goroutine running it
// is left behind. It stops at its next helper call or write, and the
// maxWritten and maxRows limits bound what it can do until then.
func (p *Program) Run(ctx context.Context, raw string, feed *models.SocMedFeed, timeout time.Duration) (*Output, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	out := &Output{}
	t, err := p.tmpl.Clone()
	if err != nil {
		return nil, err
	}
	t.Funcs(funcs(ctx, raw, out))

	data := Data{Response: gjson.Parse(raw), Raw: raw, Feed: feed}
	done := make(chan error, 1)
	w := &boundedWriter{ctx: ctx, max: maxWritten}
	go func() {
		done <- t.Execute(w, data)
	}()

	select {
	case err := <-done:
		switch {
		case err == nil:
		case errors.Is(err, ErrTooLarge):
			return nil, ErrTooLarge
		case ctx.Err() != nil:
			return nil, ErrTimeout
		default:
			return nil, fmt.Errorf("run processor: %w", err)
		}
	case <-ctx.Done():
		return nil, ErrTimeout
	}

	out.Text = utils.Truncate(strings.TrimSpace(w.buf.String()), maxOutput)
	return out, nil
}

// boundedWriter collects template text, failing once the run is over or
// the text grows past max bytes.
type boundedWriter struct {
	ctx context.Context
	buf bytes.Buffer
	max int
}

func (w *boundedWriter) Write(p []byte) (int, error) {
	if err := w.ctx.Err(); err != nil {
		return 0, err
	}
	if w.buf.Len()+len(p) > w.max {
		return 0, ErrTooLarge
	}
	return w.buf.Write(p)
}

func funcs(ctx context.Context, raw string, out *Output) template.FuncMap {
	alive := func() error {
		if len(out.Articles)+len(out.Assets) >= maxRows {
			return ErrTooLarge
		}
		return ctx.Err()
	}

	return template.FuncMap{
		"get": func(path string) (gjson.Result, error) {
			if err := alive(); err != nil {
				return gjson.Result{}, err
			}
			return gjson.Get(raw, path), nil
		},
		"str": func(r gjson.Result, path string) string {
			return r.Get(path).String()
		},
		"article": func(kv ...any) (string, error) {
			if err := alive(); err != nil {
				return "", err
			}
			m, err := pairs(kv)
			if err != nil {
				return "", err
			}
			spec := ArticleSpec{
				Title:       m["title"],
				Slug:        m["slug"],
				Body:        m["body"],
				Format:      m["format"],
				Description: m["description"],
				Keywords:    m["keywords"],
				Image:       m["image"],
			}
			if d := m["date"]; d != "" {
				if spec.Date, err = parseDate(d); err != nil {
					return "", err
				}
			}
			out.Articles = append(out.Articles, spec)
			return "", nil
		},
		"asset": func(kv ...any) (string, error) {
			if err := alive(); err != nil {
				return "", err
			}
			m, err := pairs(kv)
			if err != nil {
				return "", err
			}
			if m["url"] == "" {
				return "", errors.New("asset needs a url")
			}
			out.Assets = append(out.Assets, AssetSpec{
				URL:         m["url"],
				Title:       m["title"],
				AltText:     m["alt"],
				Description: m["description"],
				Article:     m["article"],
			})
			return "", nil
		},
		"slugify":  utils.Slugify,
		"clean":    utils.CleanHTML,
		"truncate": func(n int, s string) string { return utils.Truncate(s, n) },
		"lower":    strings.ToLower,
		"trim":     strings.TrimSpace,
		"join":     func(sep string, s []string) string { return strings.Join(s, sep) },
		"default": func(def string, s string) string {
			if strings.TrimSpace(s) == "" {
				return def
			}
			return s
		},
	}
}

func pairs(kv []any) (map[string]string, error) {
	if len(kv)%2 != 0 {
		return nil, errors.New("odd number of key/value arguments")
	}
	m := make(map[string]string, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("key %v is not a string", kv[i])
		}
		switch v := kv[i+1].(type) {
		case string:
			m[k] = v
		case gjson.Result:
			m[k] = v.String()
		case fmt.Stringer:
			m[k] = v.String()
		default:
			m[k] = fmt.Sprint(v)
		}
	}
	return m, nil
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05-0700", "2006-01-02 15:04:05", "2006-01-02"}

// parseDate accepts unix seconds or one of a few common layouts.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(n, 0).UTC(), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
