package web

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Page is one slice of a paginated list.
type Page[T any] struct {
	Items    []T
	Number   int
	Pages    int
	Total    int
	PageSize int
	Query    string
}

func (p *Page[T]) HasPrevious() bool { return p.Number > 1 }
func (p *Page[T]) HasNext() bool     { return p.Number < p.Pages }
func (p *Page[T]) Previous() int     { return p.Number - 1 }
func (p *Page[T]) Next() int         { return p.Number + 1 }
func (p *Page[T]) HasOtherPages() bool {
	return p.Pages > 1
}

// Link returns the query string selecting page n. The first page has no
// page parameter.
func (p *Page[T]) Link(n int) string {
	q := ""
	if p.Query != "" {
		q = "q=" + p.Query
	}
	if n > 1 {
		if q != "" {
			q += "&"
		}
		q += "p=" + strconv.Itoa(n)
	}
	if q == "" {
		return "?"
	}
	return "?" + q
}

// Paginate cuts items into pages of size and returns the page selected by
// the p query parameter. An empty parameter selects the first page; "1",
// anything that is not a positive number and pages past the end are not
// found, so every page has exactly one address.
func Paginate[T any](c *fiber.Ctx, items []T, size int) (*Page[T], error) {
	if size <= 0 {
		size = len(items)
		if size == 0 {
			size = 1
		}
	}
	pages := (len(items) + size - 1) / size
	if pages == 0 {
		pages = 1
	}

	n := 1
	if raw := c.Query("p"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 1 || v > pages || strconv.Itoa(v) != raw {
			return nil, fiber.ErrNotFound
		}
		n = v
	}

	start := (n - 1) * size
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return &Page[T]{
		Items:    items[start:end],
		Number:   n,
		Pages:    pages,
		Total:    len(items),
		PageSize: size,
	}, nil
}
