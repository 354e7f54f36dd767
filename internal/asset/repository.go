package asset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bilgisen/s13core/internal/database"
	"github.com/bilgisen/s13core/internal/models"
)

var ErrNotFound = errors.New("file asset not found")

// ExtensionFilterPrefix switches a search to filtering by extension, as in
// "extension-jpg|png".
const ExtensionFilterPrefix = "extension-"

var fields = []string{"id", "media_file", "extension", "title", "alt_text", "description", "size", "date_made", "date_edit"}

// Columns returns the file asset column list qualified by alias.
func Columns(alias string) string {
	if alias == "" {
		return strings.Join(fields, ", ")
	}
	qualified := make([]string, len(fields))
	for i, f := range fields {
		qualified[i] = alias + "." + f
	}
	return strings.Join(qualified, ", ")
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*models.FileAsset, error) {
	f := &models.FileAsset{}
	err := s.Scan(&f.ID, &f.MediaFile, &f.Extension, &f.Title, &f.AltText, &f.Description, &f.Size, &f.DateMade, &f.DateEdit)
	return f, err
}

// Query runs a select over Columns and scans the assets.
func Query(ctx context.Context, q database.DBTX, query string, args ...any) ([]*models.FileAsset, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select file assets: %w", err)
	}
	defer rows.Close()

	var out []*models.FileAsset
	for rows.Next() {
		f, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file asset: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Repository stores file asset rows.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

func (r *Repository) Get(ctx context.Context, id int64) (*models.FileAsset, error) {
	f, err := scan(r.db.QueryRowContext(ctx, `SELECT `+Columns("")+` FROM file_assets WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select file asset: %w", err)
	}
	return f, nil
}

// All returns every asset, newest first.
func (r *Repository) All(ctx context.Context) ([]*models.FileAsset, error) {
	return Query(ctx, r.db, `SELECT `+Columns("")+` FROM file_assets ORDER BY id DESC`)
}

// Search filters assets by q, newest first. A q of the form
// "extension-jpg|png" keeps the listed extensions; any other q matches
// title, description or alt text.
func (r *Repository) Search(ctx context.Context, q string) ([]*models.FileAsset, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return r.All(ctx)
	}
	if exts, ok := strings.CutPrefix(q, ExtensionFilterPrefix); ok {
		return r.ByExtension(ctx, strings.Split(exts, "|")...)
	}
	like := database.Like(q)
	return Query(ctx, r.db, `SELECT `+Columns("")+` FROM file_assets
		WHERE title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\' OR alt_text LIKE ? ESCAPE '\'
		ORDER BY id DESC`, like, like, like)
}

// ByExtension returns the assets with one of the given extensions.
func (r *Repository) ByExtension(ctx context.Context, exts ...string) ([]*models.FileAsset, error) {
	var marks []string
	var args []any
	for _, e := range exts {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			marks = append(marks, "?")
			args = append(args, e)
		}
	}
	if len(marks) == 0 {
		return nil, nil
	}
	return Query(ctx, r.db, `SELECT `+Columns("")+` FROM file_assets
		WHERE extension IN (`+strings.Join(marks, ", ")+`) ORDER BY id DESC`, args...)
}

// Save inserts or updates f, deriving the extension from the stored file.
func (r *Repository) Save(ctx context.Context, f *models.FileAsset) error {
	now := r.now().UTC()
	if f.DateMade.IsZero() {
		f.DateMade = now
	}
	f.DateEdit = now
	f.Extension = models.ExtensionOf(f.MediaFile)

	if f.ID == 0 {
		res, err := r.db.ExecContext(ctx, `INSERT INTO file_assets
			(media_file, extension, title, alt_text, description, size, date_made, date_edit)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			f.MediaFile, f.Extension, f.Title, f.AltText, f.Description, f.Size, f.DateMade, f.DateEdit)
		if err != nil {
			return fmt.Errorf("insert file asset: %w", err)
		}
		f.ID, err = res.LastInsertId()
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE file_assets SET media_file = ?, extension = ?, title = ?,
		alt_text = ?, description = ?, size = ?, date_edit = ? WHERE id = ?`,
		f.MediaFile, f.Extension, f.Title, f.AltText, f.Description, f.Size, f.DateEdit, f.ID)
	if err != nil {
		return fmt.Errorf("update file asset: %w", err)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM file_assets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete file asset: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
