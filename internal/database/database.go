package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    first_name TEXT NOT NULL DEFAULT '',
    last_name TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT '',
    is_staff INTEGER NOT NULL DEFAULT 1,
    last_login TIMESTAMP,
    date_joined TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS file_assets (
    id INTEGER PRIMARY KEY,
    media_file TEXT NOT NULL,
    extension TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL,
    alt_text TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    size INTEGER NOT NULL DEFAULT 0,
    date_made TIMESTAMP NOT NULL,
    date_edit TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS articles (
    id INTEGER PRIMARY KEY,
    slug TEXT NOT NULL UNIQUE,
    owner_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
    title TEXT NOT NULL,
    body TEXT NOT NULL DEFAULT '',
    format TEXT NOT NULL DEFAULT 'html',
    description TEXT NOT NULL DEFAULT '',
    keywords TEXT NOT NULL DEFAULT '',
    date_made TIMESTAMP NOT NULL,
    date_edit TIMESTAMP NOT NULL,
    image_id INTEGER REFERENCES file_assets(id) ON DELETE SET NULL,
    parent_id INTEGER REFERENCES articles(id) ON DELETE CASCADE,
    limit_media INTEGER NOT NULL DEFAULT 0,
    sort_article_media TEXT NOT NULL DEFAULT 'title',
    template TEXT NOT NULL DEFAULT '',
    js TEXT NOT NULL DEFAULT '',
    css TEXT NOT NULL DEFAULT '',
    is_public INTEGER NOT NULL DEFAULT 1,
    is_homepage INTEGER NOT NULL DEFAULT 0,
    sort_children TEXT NOT NULL DEFAULT '-pk',
    include_children INTEGER NOT NULL DEFAULT 0,
    weight INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS article_sidelinks (
    article_id INTEGER NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
    sidelink_id INTEGER NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
    PRIMARY KEY(article_id, sidelink_id)
);

CREATE TABLE IF NOT EXISTS article_media (
    article_id INTEGER NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
    asset_id INTEGER NOT NULL REFERENCES file_assets(id) ON DELETE CASCADE,
    PRIMARY KEY(article_id, asset_id)
);

CREATE TABLE IF NOT EXISTS contact_infos (
    id INTEGER PRIMARY KEY,
    contact_name TEXT NOT NULL,
    address TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT '',
    phone TEXT NOT NULL DEFAULT '',
    weight INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS copyright_infos (
    id INTEGER PRIMARY KEY,
    statement TEXT NOT NULL,
    license TEXT NOT NULL DEFAULT '',
    link TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS disclaimers (
    id INTEGER PRIMARY KEY,
    title TEXT NOT NULL,
    body TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS settings (
    id INTEGER PRIMARY KEY,
    is_active INTEGER NOT NULL DEFAULT 0,
    name TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    keywords TEXT NOT NULL DEFAULT '',
    append_keywords INTEGER NOT NULL DEFAULT 1,
    nohome_content_type TEXT NOT NULL DEFAULT 'none',
    nohome_content_items INTEGER NOT NULL DEFAULT 8,
    keywords_search_items INTEGER NOT NULL DEFAULT 12,
    nohome_title TEXT NOT NULL DEFAULT '',
    nohome_custom TEXT NOT NULL DEFAULT '',
    css TEXT NOT NULL DEFAULT '',
    js TEXT NOT NULL DEFAULT '',
    copyright_id INTEGER REFERENCES copyright_infos(id) ON DELETE SET NULL,
    disclaimer_id INTEGER REFERENCES disclaimers(id) ON DELETE SET NULL,
    date_made TIMESTAMP NOT NULL,
    date_edit TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS setting_contacts (
    setting_id INTEGER NOT NULL REFERENCES settings(id) ON DELETE CASCADE,
    contact_id INTEGER NOT NULL REFERENCES contact_infos(id) ON DELETE CASCADE,
    PRIMARY KEY(setting_id, contact_id)
);

CREATE TABLE IF NOT EXISTS api_keys (
    id INTEGER PRIMARY KEY,
    label TEXT NOT NULL UNIQUE COLLATE NOCASE,
    apikey TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS socmed_processors (
    id INTEGER PRIMARY KEY,
    label TEXT NOT NULL UNIQUE COLLATE NOCASE,
    uri TEXT NOT NULL DEFAULT '',
    code TEXT NOT NULL DEFAULT '',
    notes TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS socmed_feeds (
    id INTEGER PRIMARY KEY,
    label TEXT NOT NULL UNIQUE COLLATE NOCASE,
    api_key_id INTEGER REFERENCES api_keys(id) ON DELETE SET NULL,
    account_id TEXT NOT NULL DEFAULT '',
    max_results INTEGER NOT NULL DEFAULT 5,
    response TEXT NOT NULL DEFAULT '',
    fetched_at TIMESTAMP,
    cms_section_id INTEGER REFERENCES articles(id) ON DELETE SET NULL,
    processor_id INTEGER REFERENCES socmed_processors(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS question_answer_pairs (
    id INTEGER PRIMARY KEY,
    question TEXT NOT NULL,
    answer TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS site_messages (
    id INTEGER PRIMARY KEY,
    sender_name TEXT NOT NULL,
    sender_email TEXT NOT NULL,
    message_body TEXT NOT NULL,
    date_sent TIMESTAMP NOT NULL,
    is_sent INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_articles_parent ON articles(parent_id);
CREATE INDEX IF NOT EXISTS idx_articles_date_edit ON articles(date_edit);
CREATE INDEX IF NOT EXISTS idx_article_media_asset ON article_media(asset_id);
CREATE INDEX IF NOT EXISTS idx_file_assets_extension ON file_assets(extension);
`

// Challenge questions inserted into an empty question table.
var seedQuestions = []struct {
	question string
	answer   string
}{
	{"What color is a clear daytime sky?", "blue"},
	{"How many legs does a cat have?", "four -+|+- 4"},
}

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens the sqlite database at path, creating its directory if needed.
func New(path string) (*sql.DB, error) {
	if path == "" {
		path = "./data/s13core.db"
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// Migrate creates the schema and seeds the challenge questions.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM question_answer_pairs`).Scan(&n); err != nil {
		return fmt.Errorf("failed to count questions: %w", err)
	}
	if n > 0 {
		return nil
	}
	for _, q := range seedQuestions {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO question_answer_pairs (question, answer) VALUES (?, ?)`, q.question, q.answer); err != nil {
			return fmt.Errorf("failed to seed questions: %w", err)
		}
	}
	return nil
}

// Open is New followed by Migrate.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := New(path)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// WithTx runs fn inside a transaction, rolling back when it returns an error.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// NullInt64 converts an optional id to its SQL form.
func NullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// Int64Ptr converts a scanned nullable id back to a pointer.
func Int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

// Like wraps s for a case-insensitive LIKE match with escaping.
func Like(s string) string {
	r := []rune{}
	for _, c := range s {
		if c == '%' || c == '_' || c == '\\' {
			r = append(r, '\\')
		}
		r = append(r, c)
	}
	return "%" + string(r) + "%"
}
