// Package render turns stored article bodies and contact addresses into
// HTML.
package render

import (
	"bytes"
	"html"
	"html/template"
	"strings"
	texttemplate "text/template"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/niklasfasching/go-org/org"

	"github.com/bilgisen/s13core/internal/config"
	"github.com/bilgisen/s13core/internal/logger"
	"github.com/bilgisen/s13core/internal/models"
)

// Context is what a body or address template sees as dot.
type Context struct {
	Site    *models.Setting
	Article *models.Article
	Version string
}

// NewContext builds a Context for the running version.
func NewContext(site *models.Setting, a *models.Article) Context {
	return Context{Site: site, Article: a, Version: config.Version}
}

func newOrgWriter() *org.HTMLWriter {
	w := org.NewHTMLWriter()
	w.HighlightCodeBlock = func(source, lang string, inline bool, params map[string]string) string {
		var buf bytes.Buffer
		lexer := lexers.Get(lang)
		if lexer == nil {
			lexer = lexers.Fallback
		}
		iterator, err := lexer.Tokenise(nil, source)
		if err != nil {
			return source
		}
		formatter := chromahtml.New(chromahtml.WithClasses(true))
		if err := formatter.Format(&buf, styles.Get("friendly"), iterator); err != nil {
			return source
		}
		return buf.String()
	}
	return w
}

// Org converts an org-mode document to HTML.
func Org(src string) (string, error) {
	return org.New().Parse(strings.NewReader(src), "").Write(newOrgWriter())
}

// Template executes src as a text template against data. On failure it
// logs and returns src unchanged.
func Template(name, src string, data any) string {
	t, err := texttemplate.New(name).Parse(src)
	if err != nil {
		log := logger.For("render")
		log.Warn().Err(err).Str("template", name).Msg("Invalid body template")
		return src
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		log := logger.For("render")
		log.Warn().Err(err).Str("template", name).Msg("Error executing body template")
		return src
	}
	return buf.String()
}

// Body renders the body of a.
func Body(a *models.Article, ctx Context) template.HTML {
	if strings.TrimSpace(a.Body) == "" {
		return ""
	}
	if a.Format == models.FormatOrg {
		out, err := Org(a.Body)
		if err != nil {
			log := logger.For("render")
			log.Warn().Err(err).Str("slug", a.Slug).Msg("Error rendering org body")
			return template.HTML("<pre>" + html.EscapeString(a.Body) + "</pre>")
		}
		return template.HTML(out)
	}
	if ctx.Article == nil {
		ctx.Article = a
	}
	return template.HTML(Template("body:"+a.Slug, a.Body, ctx))
}

// Address renders the HTML address of a contact.
func Address(c *models.ContactInfo, ctx Context) template.HTML {
	if strings.TrimSpace(c.Address) == "" {
		return ""
	}
	return template.HTML(Template("address", c.Address, ctx))
}
