package web

import (
	"context"
	"errors"
	"html/template"

	"github.com/bilgisen/s13core/internal/article"
	"github.com/bilgisen/s13core/internal/config"
	"github.com/bilgisen/s13core/internal/logger"
	"github.com/bilgisen/s13core/internal/middleware"
	"github.com/bilgisen/s13core/internal/models"
	"github.com/bilgisen/s13core/internal/render"
	"github.com/gofiber/fiber/v2"
)

// latestCount is how many recent articles the homepage lists.
const latestCount = 32

// Link is an article paired with its public address.
type Link struct {
	*models.Article
	URL string
}

// Media is a file asset paired with its public address.
type Media struct {
	*models.FileAsset
	URL string
}

// Contact is a contact block with its rendered address.
type Contact struct {
	models.ContactInfo
	Address template.HTML
}

// Site is what every public page template sees. Its values start from the
// active setting and are tweaked per page; the setting itself is never
// saved back.
type Site struct {
	Setting     *models.Setting
	WindowTitle string
	CurrentURL  string
	Description string
	Keywords    string
	CSS         template.HTML
	JS          template.HTML
	Copyright   template.HTML
	Disclaimer  *models.Disclaimer
	Contacts    []Contact
	Sections    []Link
	Version     string
	User        *models.User
	Flashes     []Flash
}

// site loads the active setting and the navigation shared by every public
// page.
func (h *Handlers) site(c *fiber.Ctx) (*Site, error) {
	ctx := c.UserContext()
	st, err := h.settings.Active(ctx)
	if err != nil {
		return nil, err
	}
	user := middleware.CurrentUser(c)
	sections, err := h.articles.Sections(ctx, user != nil)
	if err != nil {
		return nil, err
	}

	s := &Site{
		Setting:     st,
		WindowTitle: st.Title,
		Description: st.Description,
		Keywords:    st.Keywords,
		CSS:         template.HTML(st.CSS),
		JS:          template.HTML(st.JS),
		Disclaimer:  st.Disclaimer,
		Version:     config.Version,
		User:        user,
		Flashes:     h.flashes(c),
	}
	if st.Copyright != nil {
		s.Copyright = template.HTML(st.Copyright.MakeStatement())
	}
	rctx := render.NewContext(st, nil)
	for i := range st.Contacts {
		s.Contacts = append(s.Contacts, Contact{ContactInfo: st.Contacts[i], Address: render.Address(&st.Contacts[i], rctx)})
	}
	for _, sec := range sections {
		s.Sections = append(s.Sections, Link{Article: sec, URL: sec.MakeURL("")})
	}
	return s, nil
}

// tweak adapts the site values to the article being shown.
func (s *Site) tweak(a *models.Article, windowTitle, url string) {
	s.WindowTitle = windowTitle
	s.CurrentURL = url
	s.Description = a.Description
	if s.Setting.AppendKeywords {
		s.Keywords = a.Keywords + ", " + s.Setting.Keywords
	}
	if a.CSS != "" {
		s.CSS += template.HTML("\n" + a.CSS)
	}
	if a.JS != "" {
		s.JS += template.HTML("\n" + a.JS)
	}
}

// links resolves the public address of every article. sectionSlug is used
// for all of them when set.
func (h *Handlers) links(ctx context.Context, items []*models.Article, sectionSlug string) []Link {
	out := make([]Link, 0, len(items))
	for _, a := range items {
		url := a.MakeURL(sectionSlug)
		if sectionSlug == "" && !a.IsSection() {
			var err error
			if url, err = h.articles.URL(ctx, a); err != nil {
				logger.Get().Warn().Err(err).Int64("article_id", a.ID).Msg("Cannot resolve article URL")
				continue
			}
		}
		out = append(out, Link{Article: a, URL: url})
	}
	return out
}

func (h *Handlers) media(items []*models.FileAsset) []Media {
	out := make([]Media, 0, len(items))
	for _, f := range items {
		out = append(out, Media{FileAsset: f, URL: h.assets.URL(f)})
	}
	return out
}

// page picks the custom template of a when it exists, fallback otherwise.
func (h *Handlers) page(a *models.Article, fallback string) string {
	if a != nil && a.Template != "" && h.views.HasSiteTemplate(a.Template) {
		return "site/" + a.Template
	}
	return "public/" + fallback
}

// notFound renders the public 404 page.
func (h *Handlers) notFound(c *fiber.Ctx, s *Site) error {
	if s == nil {
		return fiber.ErrNotFound
	}
	s.WindowTitle = "Page Not Found | " + s.Setting.Title
	return c.Status(fiber.StatusNotFound).Render("public/404", fiber.Map{"S": s})
}

// lookupFailed turns repository misses into the 404 page.
func (h *Handlers) lookupFailed(c *fiber.Ctx, s *Site, err error) error {
	if errors.Is(err, article.ErrNotFound) {
		return h.notFound(c, s)
	}
	return err
}
