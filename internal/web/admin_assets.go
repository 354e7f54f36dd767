package web

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/bilgisen/s13core/internal/asset"
	"github.com/bilgisen/s13core/internal/models"
	"github.com/bilgisen/s13core/internal/utils"
	"github.com/gofiber/fiber/v2"
)

var errFileRequired = errors.New("This field is required.: media_file")

func fileAssetDetailURL(id int64) string {
	return fmt.Sprintf("/s13admin/fileassets/detail/%d/", id)
}

func (h *Handlers) fileAssetResource() *resource[*models.FileAsset] {
	repo := h.assets.Repository()
	return &resource[*models.FileAsset]{
		Name:        "FileAsset",
		Plural:      "FileAssets List",
		Description: "List of files uploaded to the website.",
		Path:        "/s13admin/fileassets/",
		Nav:         "fileassets",
		Columns:     []string{"Title", "File", "Type", "Size"},
		PerPage:     adminPageSize,
		Multipart:   true,
		List:        repo.Search,
		Get:         repo.Get,
		New: func(*fiber.Ctx) (*models.FileAsset, error) {
			return &models.FileAsset{}, nil
		},
		Fields: func(_ context.Context, f *models.FileAsset) ([]*Field, error) {
			file := &Field{Name: "media_file", Label: "File", Type: inputFile, Required: f.ID == 0}
			if f.ID != 0 {
				file.Help = "Currently " + f.Filename() + ". Choose a file to replace it."
			}
			return []*Field{
				file,
				textField("title", "Title", &f.Title).help("Defaults to the file name."),
				textField("alt_text", "Alt Text", &f.AltText),
				areaField("description", "Description", &f.Description),
			}, nil
		},
		Save:   h.saveFileAsset,
		Delete: h.assets.Delete,
		Row: func(f *models.FileAsset) Row {
			return Row{ID: f.ID, URL: fileAssetDetailURL(f.ID),
				Cells: []string{f.Title, f.Filename(), f.Extension, fmt.Sprintf("%.2fMB", utils.BytesToMB(f.Size))}}
		},
		Detail: func(f *models.FileAsset) string { return fileAssetDetailURL(f.ID) },
	}
}

func (h *Handlers) saveFileAsset(c *fiber.Ctx, f *models.FileAsset) error {
	ctx := c.UserContext()
	fh, err := c.FormFile("media_file")
	if err != nil || fh.Size == 0 {
		if f.ID == 0 {
			return errFileRequired
		}
		return h.assets.Update(ctx, f, nil)
	}
	body, err := fh.Open()
	if err != nil {
		return err
	}
	defer body.Close()

	up := asset.Upload{Filename: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Body: body}
	if f.ID == 0 {
		return h.assets.Create(ctx, f, up)
	}
	return h.assets.Update(ctx, f, &up)
}

// FileAssetDetail handles GET /s13admin/fileassets/detail/:pk/
func (h *Handlers) FileAssetDetail(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := strconv.ParseInt(c.Params("pk"), 10, 64)
	if err != nil {
		return fiber.ErrNotFound
	}
	f, err := h.assets.Repository().Get(ctx, id)
	if err != nil {
		return notFoundOr(err)
	}
	users, err := h.articles.UsersOfAsset(ctx, f.ID)
	if err != nil {
		return err
	}
	return h.admin(c, "fileasset", map[string]any{
		"Title":       "FileAsset Details",
		"Description": "File details and the articles using it.",
		"Nav":         "fileassets",
		"Asset":       Media{FileAsset: f, URL: h.assets.URL(f)},
		"OnDisk":      h.assets.OnDisk(ctx, f),
		"Users":       users,
		"ListURL":     "/s13admin/fileassets/",
	})
}
