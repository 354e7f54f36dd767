package web

import (
	"errors"
	"io"
	"net/url"
	"strings"

	"github.com/bilgisen/s13core/internal/article"
	"github.com/bilgisen/s13core/internal/logger"
	"github.com/bilgisen/s13core/internal/messaging"
	"github.com/bilgisen/s13core/internal/metrics"
	"github.com/bilgisen/s13core/internal/models"
	"github.com/bilgisen/s13core/internal/render"
	"github.com/bilgisen/s13core/internal/storage"
	"github.com/gofiber/fiber/v2"
)

// children paginates the public children of a. It returns a nil page when
// the article does not list its children.
func (h *Handlers) children(c *fiber.Ctx, a *models.Article, sectionSlug string) (*Page[Link], error) {
	if a.IncludeChildren <= 0 {
		if c.Query("p") != "" {
			return nil, fiber.ErrNotFound
		}
		return nil, nil
	}
	items, err := h.articles.Children(c.UserContext(), a, false)
	if err != nil {
		return nil, err
	}
	return Paginate(c, h.links(c.UserContext(), items, sectionSlug), a.IncludeChildren)
}

// Homepage handles GET /
func (h *Handlers) Homepage(c *fiber.Ctx) error {
	ctx := c.UserContext()
	s, err := h.site(c)
	if err != nil {
		return err
	}

	home, err := h.articles.Homepage(ctx)
	if errors.Is(err, article.ErrNotFound) {
		return h.noHomepage(c, s)
	}
	if err != nil {
		return err
	}

	section, err := h.articles.SectionOf(ctx, home)
	if err != nil {
		return err
	}
	children, err := h.children(c, home, section.Slug)
	if errors.Is(err, fiber.ErrNotFound) {
		return h.notFound(c, s)
	}
	if err != nil {
		return err
	}
	latest, err := h.articles.Latest(ctx, latestCount, &home.ID)
	if err != nil {
		return err
	}

	s.tweak(home, s.Setting.Title, "/")
	return c.Render(h.page(home, "homepage"), fiber.Map{
		"S":        s,
		"Article":  home,
		"Body":     render.Body(home, render.NewContext(s.Setting, home)),
		"Articles": children,
		"Latest":   h.links(ctx, latest, ""),
	})
}

func (h *Handlers) noHomepage(c *fiber.Ctx, s *Site) error {
	ctx := c.UserContext()
	data := fiber.Map{"S": s, "Mode": s.Setting.NohomeContentType}
	switch s.Setting.NohomeContentType {
	case models.NohomeArticles:
		items, err := h.articles.NonSections(ctx)
		if err != nil {
			return err
		}
		page, err := Paginate(c, h.links(ctx, items, ""), s.Setting.NohomeContentItems)
		if errors.Is(err, fiber.ErrNotFound) {
			return h.notFound(c, s)
		}
		if err != nil {
			return err
		}
		data["Articles"] = page
	case models.NohomeCustomHTML:
		data["Custom"] = render.Template("nohome", s.Setting.NohomeCustom, render.NewContext(s.Setting, nil))
	}
	latest, err := h.articles.Latest(ctx, latestCount, nil)
	if err != nil {
		return err
	}
	data["Latest"] = h.links(ctx, latest, "")
	return c.Render("public/no-homepage", data)
}

// Section handles GET /:section/
func (h *Handlers) Section(c *fiber.Ctx) error {
	ctx := c.UserContext()
	s, err := h.site(c)
	if err != nil {
		return err
	}
	sec, err := h.articles.Section(ctx, c.Params("section"))
	if err != nil {
		return h.lookupFailed(c, s, err)
	}
	if !sec.IsPublic && s.User == nil {
		return h.notFound(c, s)
	}

	children, err := h.children(c, sec, sec.Slug)
	if errors.Is(err, fiber.ErrNotFound) {
		return h.notFound(c, s)
	}
	if err != nil {
		return err
	}

	s.tweak(sec, sec.Title+" | "+s.Setting.Title, sec.MakeURL(""))
	return c.Render(h.page(sec, "section"), fiber.Map{
		"S":        s,
		"Article":  sec,
		"Section":  sec,
		"Body":     render.Body(sec, render.NewContext(s.Setting, sec)),
		"Articles": children,
	})
}

// Article handles GET /:section/:article/
func (h *Handlers) Article(c *fiber.Ctx) error {
	ctx := c.UserContext()
	s, err := h.site(c)
	if err != nil {
		return err
	}
	sec, a, err := h.articles.ArticleIn(ctx, c.Params("section"), c.Params("article"))
	if err != nil {
		return h.lookupFailed(c, s, err)
	}
	if (!a.IsPublic || !sec.IsPublic) && s.User == nil {
		return h.notFound(c, s)
	}

	children, err := h.children(c, a, sec.Slug)
	if errors.Is(err, fiber.ErrNotFound) {
		return h.notFound(c, s)
	}
	if err != nil {
		return err
	}

	ancestry, err := h.articles.Ancestry(ctx, a)
	if err != nil {
		return err
	}
	for i, j := 0, len(ancestry)-1; i < j; i, j = i+1, j-1 {
		ancestry[i], ancestry[j] = ancestry[j], ancestry[i]
	}
	prev, next, err := h.articles.PreviousNext(ctx, a)
	if err != nil {
		return err
	}
	media, err := h.articles.Media(ctx, a)
	if err != nil {
		return err
	}
	sidelinks, err := h.articles.Sidelinks(ctx, a)
	if err != nil {
		return err
	}
	image, err := h.articles.Image(ctx, a)
	if err != nil {
		return err
	}

	data := fiber.Map{
		"S":         s,
		"Article":   a,
		"Section":   sec,
		"Body":      render.Body(a, render.NewContext(s.Setting, a)),
		"Articles":  children,
		"Ancestry":  h.links(ctx, ancestry, sec.Slug),
		"Media":     h.media(media),
		"Sidelinks": h.links(ctx, sidelinks, ""),
	}
	if image != nil {
		data["Image"] = Media{FileAsset: image, URL: h.assets.URL(image)}
	}
	if prev != nil {
		data["Previous"] = Link{Article: prev, URL: prev.MakeURL(sec.Slug)}
	}
	if next != nil {
		data["Next"] = Link{Article: next, URL: next.MakeURL(sec.Slug)}
	}

	s.tweak(a, a.Title+" ("+sec.Title+") | "+s.Setting.Title, a.MakeURL(sec.Slug))
	return c.Render(h.page(a, "article"), data)
}

// KeywordSearch handles GET /keyword-search/
func (h *Handlers) KeywordSearch(c *fiber.Ctx) error {
	ctx := c.UserContext()
	s, err := h.site(c)
	if err != nil {
		return err
	}
	terms := strings.TrimSpace(c.Query("q"))
	var found []*models.Article
	if terms != "" {
		if found, err = h.articles.Search(ctx, terms); err != nil {
			return err
		}
	}
	page, err := Paginate(c, h.links(ctx, found, ""), s.Setting.KeywordsSearchItems)
	if errors.Is(err, fiber.ErrNotFound) {
		return h.notFound(c, s)
	}
	if err != nil {
		return err
	}
	page.Query = url.QueryEscape(terms)

	results := &models.Article{
		Slug:        "keyword-search",
		Title:       "Keyword Search Results",
		Description: "Keyword search results page.",
		Keywords:    "keywords search results",
	}
	s.tweak(results, "Keyword Search Results", "/keyword-search/")
	return c.Render("public/keyword-search", fiber.Map{
		"S":        s,
		"Article":  results,
		"Terms":    terms,
		"Articles": page,
	})
}

// messageForm is the public contact form.
type messageForm struct {
	SenderName  string `form:"sender_name" validate:"required,max=128"`
	SenderEmail string `form:"sender_email" validate:"required,email,max=128"`
	MessageBody string `form:"message_body" validate:"required"`
	QuestionID  int64  `form:"question_id"`
	Answer      string `form:"answer"`
}

// SiteMessageForm handles GET /s13msgs/sitemessages/
func (h *Handlers) SiteMessageForm(c *fiber.Ctx) error {
	return h.renderMessageForm(c, &messageForm{}, nil, 0)
}

// SiteMessageCreate handles POST /s13msgs/sitemessages/
func (h *Handlers) SiteMessageCreate(c *fiber.Ctx) error {
	ctx := c.UserContext()
	form := &messageForm{}
	errs := h.validator.Form(c, form)
	if len(errs) == 0 && form.QuestionID != 0 {
		if err := h.messages.Check(ctx, form.QuestionID, form.Answer); err != nil {
			errs = append(errs, err.Error()+": answer")
		}
	} else if len(errs) == 0 {
		// A question is required once any exist.
		if _, err := h.messages.Random(ctx); err == nil {
			errs = append(errs, messaging.ErrWrongAnswer.Error()+": answer")
		}
	}
	if len(errs) > 0 {
		return h.renderMessageForm(c, form, errs, form.QuestionID)
	}

	m := &models.SiteMessage{
		SenderName:  form.SenderName,
		SenderEmail: form.SenderEmail,
		MessageBody: form.MessageBody,
	}
	if err := h.messages.Create(ctx, m); err != nil {
		return h.renderMessageForm(c, form, []string{err.Error()}, form.QuestionID)
	}
	metrics.SiteMessages.Inc()
	logger.Get().Info().Int64("message_id", m.ID).Str("sender", m.SenderEmail).Msg("Site message received")
	h.success(c, "Your message has been sent. Thank you!")
	return c.Redirect("/s13msgs/sitemessages/")
}

func (h *Handlers) renderMessageForm(c *fiber.Ctx, form *messageForm, errs []string, questionID int64) error {
	ctx := c.UserContext()
	s, err := h.site(c)
	if err != nil {
		return err
	}
	for _, e := range errs {
		s.Flashes = append(s.Flashes, Flash{Level: levelError, Text: e})
	}

	var q *models.QuestionAnswerPair
	if questionID != 0 {
		q, err = h.messages.Question(ctx, questionID)
	}
	if q == nil {
		q, err = h.messages.Random(ctx)
	}
	if err != nil && !errors.Is(err, messaging.ErrNoQuestions) && !errors.Is(err, messaging.ErrNotFound) {
		return err
	}

	page := &models.Article{Title: "Send Us a Message", Description: "Contact form."}
	s.tweak(page, "Send Us a Message | "+s.Setting.Title, "/s13msgs/sitemessages/")
	status := fiber.StatusOK
	if len(errs) > 0 {
		status = fiber.StatusBadRequest
	}
	return c.Status(status).Render("public/site-message", fiber.Map{
		"S":        s,
		"Article":  page,
		"Form":     form,
		"Question": q,
	})
}

// Media handles GET /media/* for the local backend.
func (h *Handlers) Media(c *fiber.Ctx) error {
	key := c.Params("*")
	if key == "" || strings.Contains(key, "..") {
		return fiber.ErrNotFound
	}
	body, err := h.assets.Open(c.UserContext(), key)
	if errors.Is(err, storage.ErrNotExist) {
		return fiber.ErrNotFound
	}
	if err != nil {
		return err
	}
	defer body.Close()
	c.Type(models.ExtensionOf(key))
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	return c.Send(data)
}
