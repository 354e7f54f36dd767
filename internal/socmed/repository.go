package socmed

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

var (
	ErrNotFound = errors.New("social media record not found")
	ErrKeyTaken = errors.New("API key is already registered")
)

// LabelError reports a label already used by another record of the same
// type, compared case-insensitively.
type LabelError struct {
	Label string
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("label %q is not unique", e.Label)
}

// ErrLabelNotUnique matches any *LabelError with errors.Is.
var ErrLabelNotUnique = errors.New("label is not unique")

func (e *LabelError) Is(target error) bool {
	return target == ErrLabelNotUnique
}

// Repository stores API keys, processors and feeds.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) checkLabel(ctx context.Context, table, label string, id int64) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return errors.New("label is required")
	}
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE label = ? COLLATE NOCASE AND id != ?`, label, id).Scan(&n)
	if err != nil {
		return fmt.Errorf("check label: %w", err)
	}
	if n > 0 {
		return &LabelError{Label: label}
	}
	return nil
}

func (r *Repository) deleteRow(ctx context.Context, table string, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// API keys

func (r *Repository) APIKeys(ctx context.Context) ([]models.APIKey, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, label, apikey FROM api_keys ORDER BY label COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("select api keys: %w", err)
	}
	defer rows.Close()

	var out []models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.Label, &k.Key); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (r *Repository) GetAPIKey(ctx context.Context, id int64) (*models.APIKey, error) {
	k := &models.APIKey{}
	err := r.db.QueryRowContext(ctx, `SELECT id, label, apikey FROM api_keys WHERE id = ?`, id).Scan(&k.ID, &k.Label, &k.Key)
	if err != nil {
		return nil, notFound(err)
	}
	return k, nil
}

func (r *Repository) SaveAPIKey(ctx context.Context, k *models.APIKey) error {
	k.Label = strings.TrimSpace(k.Label)
	if err := r.checkLabel(ctx, "api_keys", k.Label, k.ID); err != nil {
		return err
	}
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM api_keys WHERE apikey = ? AND id != ?`, k.Key, k.ID).Scan(&n); err != nil {
		return fmt.Errorf("check key: %w", err)
	}
	if n > 0 {
		return ErrKeyTaken
	}

	if k.ID == 0 {
		res, err := r.db.ExecContext(ctx, `INSERT INTO api_keys (label, apikey) VALUES (?, ?)`, k.Label, k.Key)
		if err != nil {
			return fmt.Errorf("insert api key: %w", err)
		}
		k.ID, err = res.LastInsertId()
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE api_keys SET label = ?, apikey = ? WHERE id = ?`, k.Label, k.Key, k.ID)
	if err != nil {
		return fmt.Errorf("update api key: %w", err)
	}
	return nil
}

func (r *Repository) DeleteAPIKey(ctx context.Context, id int64) error {
	return r.deleteRow(ctx, "api_keys", id)
}

// Processors

func (r *Repository) Processors(ctx context.Context) ([]models.SocMedProcessor, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, label, uri, code, notes FROM socmed_processors ORDER BY label COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("select processors: %w", err)
	}
	defer rows.Close()

	var out []models.SocMedProcessor
	for rows.Next() {
		var p models.SocMedProcessor
		if err := rows.Scan(&p.ID, &p.Label, &p.URI, &p.Code, &p.Notes); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) GetProcessor(ctx context.Context, id int64) (*models.SocMedProcessor, error) {
	p := &models.SocMedProcessor{}
	err := r.db.QueryRowContext(ctx, `SELECT id, label, uri, code, notes FROM socmed_processors WHERE id = ?`, id).
		Scan(&p.ID, &p.Label, &p.URI, &p.Code, &p.Notes)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *Repository) SaveProcessor(ctx context.Context, p *models.SocMedProcessor) error {
	p.Label = strings.TrimSpace(p.Label)
	if err := r.checkLabel(ctx, "socmed_processors", p.Label, p.ID); err != nil {
		return err
	}
	if p.ID == 0 {
		res, err := r.db.ExecContext(ctx, `INSERT INTO socmed_processors (label, uri, code, notes) VALUES (?, ?, ?, ?)`,
			p.Label, p.URI, p.Code, p.Notes)
		if err != nil {
			return fmt.Errorf("insert processor: %w", err)
		}
		p.ID, err = res.LastInsertId()
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE socmed_processors SET label = ?, uri = ?, code = ?, notes = ? WHERE id = ?`,
		p.Label, p.URI, p.Code, p.Notes, p.ID)
	if err != nil {
		return fmt.Errorf("update processor: %w", err)
	}
	return nil
}

func (r *Repository) DeleteProcessor(ctx context.Context, id int64) error {
	return r.deleteRow(ctx, "socmed_processors", id)
}

// Feeds

const feedColumns = `id, label, api_key_id, account_id, max_results, response, fetched_at, cms_section_id, processor_id`

func scanFeed(row interface{ Scan(...any) error }) (*models.SocMedFeed, error) {
	f := &models.SocMedFeed{}
	var key, section, processor sql.NullInt64
	var fetched sql.NullTime
	if err := row.Scan(&f.ID, &f.Label, &key, &f.AccountID, &f.MaxResults, &f.Response, &fetched, &section, &processor); err != nil {
		return nil, err
	}
	f.APIKeyID = database.Int64Ptr(key)
	f.CMSSectionID = database.Int64Ptr(section)
	f.ProcessorID = database.Int64Ptr(processor)
	if fetched.Valid {
		t := fetched.Time
		f.FetchedAt = &t
	}
	return f, nil
}

func (r *Repository) Feeds(ctx context.Context) ([]*models.SocMedFeed, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+feedColumns+` FROM socmed_feeds ORDER BY label COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("select feeds: %w", err)
	}
	defer rows.Close()

	var out []*models.SocMedFeed
	for rows.Next() {
		f, err := scanFeed(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *Repository) GetFeed(ctx context.Context, id int64) (*models.SocMedFeed, error) {
	f, err := scanFeed(r.db.QueryRowContext(ctx, `SELECT `+feedColumns+` FROM socmed_feeds WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return f, nil
}

// FeedByLabel looks a feed up by its label, ignoring case.
func (r *Repository) FeedByLabel(ctx context.Context, label string) (*models.SocMedFeed, error) {
	f, err := scanFeed(r.db.QueryRowContext(ctx, `SELECT `+feedColumns+` FROM socmed_feeds WHERE label = ? COLLATE NOCASE`,
		strings.TrimSpace(label)))
	if err != nil {
		return nil, notFound(err)
	}
	return f, nil
}

// SaveFeed stores the feed configuration. The stored response is only
// written by StoreResponse.
func (r *Repository) SaveFeed(ctx context.Context, f *models.SocMedFeed) error {
	f.Label = strings.TrimSpace(f.Label)
	if err := r.checkLabel(ctx, "socmed_feeds", f.Label, f.ID); err != nil {
		return err
	}
	args := []any{f.Label, database.NullInt64(f.APIKeyID), f.AccountID, f.MaxResults,
		database.NullInt64(f.CMSSectionID), database.NullInt64(f.ProcessorID)}
	if f.ID == 0 {
		res, err := r.db.ExecContext(ctx, `INSERT INTO socmed_feeds (label, api_key_id, account_id, max_results,
			cms_section_id, processor_id) VALUES (?, ?, ?, ?, ?, ?)`, args...)
		if err != nil {
			return fmt.Errorf("insert feed: %w", err)
		}
		f.ID, err = res.LastInsertId()
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE socmed_feeds SET label = ?, api_key_id = ?, account_id = ?, max_results = ?,
		cms_section_id = ?, processor_id = ? WHERE id = ?`, append(args, f.ID)...)
	if err != nil {
		return fmt.Errorf("update feed: %w", err)
	}
	return nil
}

// StoreResponse records the raw body of the last fetch.
func (r *Repository) StoreResponse(ctx context.Context, f *models.SocMedFeed, body string, at time.Time) error {
	at = at.UTC()
	if _, err := r.db.ExecContext(ctx, `UPDATE socmed_feeds SET response = ?, fetched_at = ? WHERE id = ?`, body, at, f.ID); err != nil {
		return fmt.Errorf("store response: %w", err)
	}
	f.Response = body
	f.FetchedAt = &at
	return nil
}

func (r *Repository) DeleteFeed(ctx context.Context, id int64) error {
	return r.deleteRow(ctx, "socmed_feeds", id)
}
