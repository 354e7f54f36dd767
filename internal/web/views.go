package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bilgisen/s13core/internal/models"
	"github.com/bilgisen/s13core/internal/utils"
)

//go:embed all:templates static
var embedded embed.FS

// Views renders the embedded templates. Every page is parsed into its own
// set together with the layout and partials of its directory, and is
// executed through "layout.html". Templates under site/ are custom article
// templates and use the public layout.
type Views struct {
	fsys  fs.FS
	funcs template.FuncMap

	mu    sync.RWMutex
	pages map[string]*template.Template
	site  []string
}

func NewViews(fsys fs.FS) *Views {
	if fsys == nil {
		fsys, _ = fs.Sub(embedded, "templates")
	}
	return &Views{fsys: fsys, funcs: funcs()}
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"date": func(t time.Time, layout string) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(layout)
		},
		"datetext": func(t time.Time) string { return t.Format(models.DateFormat) },
		"safe":     func(s string) template.HTML { return template.HTML(s) },
		"add":      func(a, b int) int { return a + b },
		"mb":       utils.BytesToMB,
		"truncate": func(n int, s string) string { return utils.Truncate(s, n) },
		"clean":    utils.CleanHTML,
		"join":     strings.Join,
		"has": func(set map[string]bool, key string) bool {
			return set[key]
		},
	}
}

func (v *Views) parse(files ...string) (*template.Template, error) {
	return template.New(path.Base(files[0])).Funcs(v.funcs).ParseFS(v.fsys, files...)
}

// Load parses every template. It is called by fiber on startup.
func (v *Views) Load() error {
	pages := make(map[string]*template.Template)

	for _, dir := range []string{"public", "admin"} {
		layout := dir + "/layout.html"
		partials, err := fs.Glob(v.fsys, dir+"/_*.html")
		if err != nil {
			return err
		}
		all, err := fs.Glob(v.fsys, dir+"/*.html")
		if err != nil {
			return err
		}
		for _, page := range all {
			base := path.Base(page)
			if base == "layout.html" || strings.HasPrefix(base, "_") {
				continue
			}
			t, err := v.parse(append(append([]string{layout}, partials...), page)...)
			if err != nil {
				return fmt.Errorf("parse %s: %w", page, err)
			}
			pages[dir+"/"+strings.TrimSuffix(base, ".html")] = t
		}

		if dir == "public" {
			custom, err := fs.Glob(v.fsys, "site/*.html")
			if err != nil {
				return err
			}
			var names []string
			for _, page := range custom {
				t, err := v.parse(append(append([]string{layout}, partials...), page)...)
				if err != nil {
					return fmt.Errorf("parse %s: %w", page, err)
				}
				pages[page] = t
				names = append(names, path.Base(page))
			}
			sort.Strings(names)
			v.mu.Lock()
			v.site = names
			v.mu.Unlock()
		}
	}

	t, err := v.parse("error.html")
	if err != nil {
		return fmt.Errorf("parse error.html: %w", err)
	}
	pages["error"] = t

	v.mu.Lock()
	v.pages = pages
	v.mu.Unlock()
	return nil
}

// Render executes the named page into w.
func (v *Views) Render(w io.Writer, name string, binding interface{}, _ ...string) error {
	v.mu.RLock()
	t := v.pages[name]
	v.mu.RUnlock()
	if t == nil {
		return fmt.Errorf("template %q not found", name)
	}
	return t.Execute(w, binding)
}

// SiteTemplates lists the custom article templates.
func (v *Views) SiteTemplates() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]string(nil), v.site...)
}

// HasSiteTemplate reports whether name is a custom article template.
func (v *Views) HasSiteTemplate(name string) bool {
	for _, s := range v.SiteTemplates() {
		if s == name {
			return true
		}
	}
	return false
}
