package web

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/bilgisen/s13core/internal/article"
	"github.com/bilgisen/s13core/internal/asset"
	"github.com/bilgisen/s13core/internal/logger"
	"github.com/bilgisen/s13core/internal/middleware"
	"github.com/bilgisen/s13core/internal/models"
	"github.com/gofiber/fiber/v2"
)

const adminPageSize = 8

// Association modes of the article detail page.
const (
	modeChildren  = "children"
	modeImage     = "image"
	modeMedia     = "media"
	modeSidelinks = "sidelinks"
)

var associationModes = []string{modeChildren, modeImage, modeMedia, modeSidelinks}

func articleDetailURL(id int64, mode string) string {
	u := fmt.Sprintf("/s13admin/articles/detail/%d/", id)
	if mode != "" {
		u += mode + "/"
	}
	return u
}

func (h *Handlers) articleResource() *resource[*models.Article] {
	return &resource[*models.Article]{
		Name:        "Article",
		Plural:      "Articles List",
		Description: "List of articles that make up the website.",
		Path:        "/s13admin/articles/",
		Nav:         "articles",
		Columns:     []string{"Title", "Slug", "Status", "Last Edit"},
		PerPage:     adminPageSize,
		List: func(ctx context.Context, q string) ([]*models.Article, error) {
			return h.articles.List(ctx, q, 0)
		},
		Get: h.articles.Get,
		New: func(c *fiber.Ctx) (*models.Article, error) {
			a := models.NewArticle()
			if u := middleware.CurrentUser(c); u != nil {
				a.OwnerID = &u.ID
			}
			if raw := c.Query("parent"); raw != "" {
				id, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					return nil, fiber.ErrNotFound
				}
				if _, err := h.articles.Get(c.UserContext(), id); err != nil {
					return nil, notFoundOr(err)
				}
				a.ParentID = &id
			}
			return a, nil
		},
		Fields: h.articleFields,
		Save: func(c *fiber.Ctx, a *models.Article) error {
			return h.articles.Save(c.UserContext(), a)
		},
		Delete: h.articles.Delete,
		Row: func(a *models.Article) Row {
			status := "Public"
			if !a.IsPublic {
				status = "Draft"
			}
			if a.IsHomepage {
				status += ", Homepage"
			}
			if a.IsSection() {
				status += ", Section"
			}
			return Row{ID: a.ID, URL: articleDetailURL(a.ID, ""),
				Cells: []string{a.Title, a.Slug, status, a.DateEditText()}}
		},
		Detail: func(a *models.Article) string { return articleDetailURL(a.ID, "") },
	}
}

func (h *Handlers) articleFields(ctx context.Context, a *models.Article) ([]*Field, error) {
	others, err := h.articles.List(ctx, "", a.ID)
	if err != nil {
		return nil, err
	}
	parents := idChoices(others, func(o *models.Article) int64 { return o.ID },
		func(o *models.Article) string { return o.Title + " (" + o.Slug + ")" })
	templates := append([]models.Choice{{Value: "", Label: "Default template"}}, stringChoices(h.views.SiteTemplates())...)

	return []*Field{
		textField("title", "Title", &a.Title).required(),
		textField("slug", "Slug", &a.Slug).help("Leave blank to use the creation date."),
		refField("parent", "Parent", &a.ParentID, parents).help("Articles without a parent are sections."),
		codeField("body", "Body", &a.Body),
		choiceField("format", "Format", &a.Format, models.FormatChoices),
		areaField("description", "Description", &a.Description),
		textField("keywords", "Keywords", &a.Keywords).help("Comma separated."),
		dateField("date_made", "Date Made", &a.DateMade),
		boolField("is_public", "Public", &a.IsPublic),
		boolField("is_homepage", "Homepage", &a.IsHomepage),
		intField("weight", "Weight", &a.Weight),
		intField("include_children", "Children Per Page", &a.IncludeChildren).help("0 does not list children."),
		choiceField("sort_children", "Sort Children", &a.SortChildren, models.ChildSortChoices),
		intField("limit_media", "Limit Media", &a.LimitMedia).help("0 shows every media file."),
		choiceField("sort_article_media", "Sort Media", &a.SortArticleMedia, models.MediaSortChoices),
		choiceField("template", "Template", &a.Template, templates).optional(),
		codeField("css", "CSS", &a.CSS),
		codeField("js", "JavaScript", &a.JS),
	}, nil
}

// Associated is a candidate or current association on the detail page.
type Associated struct {
	ID       int64
	Title    string
	Subtitle string
	URL      string
	Thumb    string
	Linked   bool
}

// ArticleDetail handles GET /s13admin/articles/detail/:pk/:mode?/
func (h *Handlers) ArticleDetail(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := strconv.ParseInt(c.Params("pk"), 10, 64)
	if err != nil {
		return fiber.ErrNotFound
	}
	a, err := h.articles.Get(ctx, id)
	if errors.Is(err, article.ErrNotFound) {
		h.failure(c, "Article does not exist.")
		return c.Redirect("/s13admin/articles/")
	}
	if err != nil {
		return err
	}

	mode := c.Params("mode", modeChildren)
	if !validMode(mode) {
		return fiber.ErrNotFound
	}
	q := strings.TrimSpace(c.Query("q"))

	items, err := h.associations(ctx, a, mode, q)
	if err != nil {
		return err
	}
	page, err := Paginate(c, items, adminPageSize)
	if err != nil {
		return err
	}
	page.Query = url.QueryEscape(q)

	publicURL, err := h.articles.URL(ctx, a)
	if err != nil {
		return err
	}
	data := map[string]any{
		"Title":       "Article " + strings.ToUpper(mode[:1]) + mode[1:],
		"Description": "Article details and a list of articles or media associated with it.",
		"Nav":         "articles",
		"Article":     a,
		"PublicURL":   publicURL,
		"Mode":        mode,
		"Modes":       associationModes,
		"Terms":       q,
		"Items":       page,
		"ListURL":     "/s13admin/articles/",
	}
	if image, err := h.articles.Image(ctx, a); err == nil && image != nil {
		data["Image"] = Media{FileAsset: image, URL: h.assets.URL(image)}
	}
	if a.ParentID != nil {
		if parent, err := h.articles.Get(ctx, *a.ParentID); err == nil {
			data["Parent"] = parent
		}
	}
	return h.admin(c, "article", data)
}

func validMode(mode string) bool {
	for _, m := range associationModes {
		if m == mode {
			return true
		}
	}
	return false
}

// associations lists the search results for q, or the current
// associations of a when q is empty.
func (h *Handlers) associations(ctx context.Context, a *models.Article, mode, q string) ([]Associated, error) {
	switch mode {
	case modeImage, modeMedia:
		var files []*models.FileAsset
		var err error
		switch {
		case q != "" && mode == modeImage:
			files, err = h.assets.Repository().Search(ctx, q)
			files = onlyImages(files)
		case q != "":
			files, err = h.assets.Repository().Search(ctx, q)
		case mode == modeImage:
			var image *models.FileAsset
			if image, err = h.articles.Image(ctx, a); image != nil {
				files = append(files, image)
			}
		default:
			files, err = h.articles.Media(ctx, a)
		}
		if err != nil {
			return nil, err
		}
		out := make([]Associated, 0, len(files))
		for _, f := range files {
			linked := a.ImageID != nil && *a.ImageID == f.ID
			if mode == modeMedia {
				if linked, err = h.articles.HasMedia(ctx, a, f.ID); err != nil {
					return nil, err
				}
			}
			it := Associated{ID: f.ID, Title: f.Title, Subtitle: f.Filename(),
				URL: fmt.Sprintf("/s13admin/fileassets/detail/%d/", f.ID), Linked: linked}
			if f.IsImage() {
				it.Thumb = h.assets.URL(f)
			}
			out = append(out, it)
		}
		return out, nil
	}

	var list []*models.Article
	var err error
	switch {
	case q != "":
		list, err = h.articles.List(ctx, q, a.ID)
	case mode == modeSidelinks:
		list, err = h.articles.Sidelinks(ctx, a)
	default:
		list, err = h.articles.Children(ctx, a, true)
	}
	if err != nil {
		return nil, err
	}
	out := make([]Associated, 0, len(list))
	for _, o := range list {
		linked := o.ParentID != nil && *o.ParentID == a.ID
		if mode == modeSidelinks {
			if linked, err = h.articles.HasSidelink(ctx, a, o.ID); err != nil {
				return nil, err
			}
		}
		out = append(out, Associated{ID: o.ID, Title: o.Title, Subtitle: o.Slug,
			URL: articleDetailURL(o.ID, ""), Linked: linked})
	}
	return out, nil
}

func onlyImages(files []*models.FileAsset) []*models.FileAsset {
	var out []*models.FileAsset
	for _, f := range files {
		if f.IsImage() {
			out = append(out, f)
		}
	}
	return out
}

// ArticleAssociate handles POST /s13admin/articles/:action/:mode/:pk/:xpk/
func (h *Handlers) ArticleAssociate(c *fiber.Ctx) error {
	ctx := c.UserContext()
	action, mode := c.Params("action"), c.Params("mode")
	if (action != "add" && action != "remove") || !validMode(mode) {
		h.failure(c, "Invalid action specified.")
		return c.Redirect("/s13admin/articles/")
	}
	add := action == "add"
	pk, _ := strconv.ParseInt(c.Params("pk"), 10, 64)
	xpk, _ := strconv.ParseInt(c.Params("xpk"), 10, 64)

	base, err := h.articles.Get(ctx, pk)
	var selected *models.Article
	if err == nil {
		if mode == modeImage || mode == modeMedia {
			_, err = h.assets.Repository().Get(ctx, xpk)
		} else {
			selected, err = h.articles.Get(ctx, xpk)
		}
	}
	if errors.Is(err, article.ErrNotFound) || errors.Is(err, asset.ErrNotFound) {
		h.failure(c, "Article does not exist.")
		return c.Redirect("/s13admin/articles/")
	}
	if err != nil {
		return err
	}

	var message string
	switch mode {
	case modeChildren:
		var parent *int64
		message = "Article removed from child articles."
		if add {
			parent, message = &base.ID, "Article added to child articles."
		}
		err = h.articles.SetParent(ctx, selected, parent)
	case modeImage:
		var image *int64
		message = "FileAsset unset as Article preview image."
		if add {
			image, message = &xpk, "FileAsset set as Article preview image."
		}
		err = h.articles.SetImage(ctx, base, image)
	case modeMedia:
		if add {
			message = "FileAsset added to Article media files."
			err = h.articles.AddMedia(ctx, base, xpk)
		} else {
			message = "FileAsset removed from Article media files."
			err = h.articles.RemoveMedia(ctx, base, xpk)
		}
	case modeSidelinks:
		if add {
			message = "Article added to sidelinks."
			err = h.articles.AddSidelink(ctx, base, xpk)
		} else {
			message = "Article removed from sidelinks."
			err = h.articles.RemoveSidelink(ctx, base, xpk)
		}
	}

	if err != nil {
		if !errors.Is(err, article.ErrOwnParent) && !errors.Is(err, article.ErrSelfLink) {
			return err
		}
		logger.Get().Debug().Err(err).Int64("article_id", pk).Int64("target_id", xpk).Msg("Association rejected")
		h.failure(c, err.Error())
	} else {
		h.success(c, message)
	}
	return c.Redirect(articleDetailURL(pk, mode))
}
