package web

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/bilgisen/s13core/internal/logger"
	"github.com/gofiber/fiber/v2"
)

// Row is one line of an admin list.
type Row struct {
	ID      int64
	URL     string
	Cells   []string
	Actions []Action
}

// Action is an extra button on a list row, submitted as a POST.
type Action struct {
	Label string
	URL   string
}

// resource wires list, create, update and delete pages for one record
// type. Optional hooks left nil drop the matching pages.
type resource[T any] struct {
	Name        string // singular, used in titles and flash messages
	Plural      string
	Description string
	Path        string // list address, with trailing slash
	Nav         string
	Columns     []string
	PerPage     int
	Multipart   bool

	List   func(ctx context.Context, q string) ([]T, error)
	Get    func(ctx context.Context, id int64) (T, error)
	New    func(c *fiber.Ctx) (T, error)
	Fields func(ctx context.Context, v T) ([]*Field, error)
	Save   func(c *fiber.Ctx, v T) error
	Delete func(ctx context.Context, id int64) error
	Row    func(v T) Row
	// Detail is the address shown after saving. Defaults to the list.
	Detail func(v T) string
}

func (r *resource[T]) register(g fiber.Router, h *Handlers) {
	base := strings.TrimPrefix(r.Path, "/s13admin")
	g.Get(base, r.list(h))
	if r.New != nil && r.Fields != nil {
		g.Get(base+"create/", r.create(h))
		g.Post(base+"create/", r.create(h))
	}
	if r.Get != nil && r.Fields != nil {
		g.Get(base+":pk<int>/update/", r.update(h))
		g.Post(base+":pk<int>/update/", r.update(h))
	}
	if r.Get != nil && r.Delete != nil {
		g.Get(base+":pk<int>/delete/", r.remove(h))
		g.Post(base+":pk<int>/delete/", r.remove(h))
	}
}

func (r *resource[T]) common(title, description string) map[string]any {
	return map[string]any{
		"Title":       title,
		"Description": description,
		"Nav":         r.Nav,
		"Resource":    r.Plural,
		"ListURL":     r.Path,
		"CanCreate":   r.New != nil && r.Fields != nil,
	}
}

func (r *resource[T]) list(h *Handlers) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := strings.TrimSpace(c.Query("q"))
		items, err := r.List(c.UserContext(), q)
		if err != nil {
			return err
		}
		rows := make([]Row, 0, len(items))
		for _, it := range items {
			rows = append(rows, r.Row(it))
		}
		page, err := Paginate(c, rows, r.PerPage)
		if err != nil {
			return err
		}
		page.Query = url.QueryEscape(q)

		data := r.common(r.Plural, r.Description)
		data["Columns"] = r.Columns
		data["Rows"] = page
		data["Terms"] = q
		data["Searchable"] = r.PerPage > 0
		return h.admin(c, "list", data)
	}
}

func (r *resource[T]) create(h *Handlers) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := r.New(c)
		if err != nil {
			return err
		}
		return r.form(c, h, v, "Create New "+r.Name, "Create new "+strings.ToLower(r.Name)+".", r.Name+" created.")
	}
}

func (r *resource[T]) update(h *Handlers) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := r.load(c)
		if err != nil {
			return err
		}
		return r.form(c, h, v, "Update "+r.Name, "Update this "+strings.ToLower(r.Name)+".", r.Name+" updated.")
	}
}

func (r *resource[T]) load(c *fiber.Ctx) (T, error) {
	var zero T
	id, err := strconv.ParseInt(c.Params("pk"), 10, 64)
	if err != nil {
		return zero, fiber.ErrNotFound
	}
	v, err := r.Get(c.UserContext(), id)
	if err != nil {
		return zero, notFoundOr(err)
	}
	return v, nil
}

// form shows the edit form and, on POST, binds and saves it. Failures are
// flashed and the form is shown again with the submitted values.
func (r *resource[T]) form(c *fiber.Ctx, h *Handlers, v T, title, description, done string) error {
	ctx := c.UserContext()
	fields, err := r.Fields(ctx, v)
	if err != nil {
		return err
	}
	var errs []string
	if c.Method() == fiber.MethodPost {
		errs = bind(c, h.validator, fields)
		if len(errs) == 0 {
			if err := r.Save(c, v); err != nil {
				logger.Get().Debug().Err(err).Str("resource", r.Name).Msg("Save rejected")
				errs = append(errs, h.validator.Messages(err)...)
			} else {
				h.success(c, done)
				if r.Detail != nil {
					return c.Redirect(r.Detail(v))
				}
				return c.Redirect(r.Path)
			}
		}
		// Show what was submitted.
		if fields, err = r.Fields(ctx, v); err != nil {
			return err
		}
		c.Status(fiber.StatusBadRequest)
	}

	data := r.common(title, description)
	data["Fields"] = fields
	data["Errors"] = errs
	data["Multipart"] = r.Multipart
	data["CancelURL"] = r.Path
	return h.admin(c, "form", data)
}

func (r *resource[T]) remove(h *Handlers) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := r.load(c)
		if err != nil {
			return err
		}
		row := r.Row(v)
		if c.Method() == fiber.MethodGet {
			data := r.common("Delete "+r.Name, "Delete selected "+strings.ToLower(r.Name)+". This cannot be undone.")
			data["Object"] = strings.Join(row.Cells[:1], "")
			data["DeleteText"] = "Delete " + r.Name
			data["CancelURL"] = r.Path
			return h.admin(c, "delete", data)
		}
		if err := r.Delete(c.UserContext(), row.ID); err != nil {
			logger.Get().Warn().Err(err).Str("resource", r.Name).Int64("id", row.ID).Msg("Delete rejected")
			h.failure(c, err.Error())
			return c.Redirect(r.Path)
		}
		h.success(c, r.Name+" deleted.")
		return c.Redirect(r.Path)
	}
}

// notFoundOr maps the repositories' not found errors to a 404.
func notFoundOr(err error) error {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return fiber.ErrNotFound
		}
	}
	return err
}
