package setting

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
	ErrNotFound       = errors.New("setting not found")
	ErrActiveRequired = errors.New("One active setting is required.")
	ErrNameTaken      = errors.New("a setting with this name already exists")
)

const columns = `id, is_active, name, title, description, keywords, append_keywords, nohome_content_type,
	nohome_content_items, keywords_search_items, nohome_title, nohome_custom, css, js, copyright_id,
	disclaimer_id, date_made, date_edit`

// Repository stores settings and the blocks they reference.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSetting(s scanner) (*models.Setting, error) {
	st := &models.Setting{}
	var copyright, disclaimer sql.NullInt64
	err := s.Scan(&st.ID, &st.IsActive, &st.Name, &st.Title, &st.Description, &st.Keywords, &st.AppendKeywords,
		&st.NohomeContentType, &st.NohomeContentItems, &st.KeywordsSearchItems, &st.NohomeTitle,
		&st.NohomeCustom, &st.CSS, &st.JS, &copyright, &disclaimer, &st.DateMade, &st.DateEdit)
	if err != nil {
		return nil, err
	}
	st.CopyrightID = database.Int64Ptr(copyright)
	st.DisclaimerID = database.Int64Ptr(disclaimer)
	return st, nil
}

func (r *Repository) one(ctx context.Context, q database.DBTX, where string, args ...any) (*models.Setting, error) {
	st, err := scanSetting(q.QueryRowContext(ctx, `SELECT `+columns+` FROM settings WHERE `+where+` LIMIT 1`, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select setting: %w", err)
	}
	return st, nil
}

// Get returns the setting with id and its contact ids.
func (r *Repository) Get(ctx context.Context, id int64) (*models.Setting, error) {
	st, err := r.one(ctx, r.db, `id = ?`, id)
	if err != nil {
		return nil, err
	}
	if st.ContactIDs, err = r.contactIDs(ctx, st.ID); err != nil {
		return nil, err
	}
	return st, nil
}

// List returns every setting, the active one first, then by title.
func (r *Repository) List(ctx context.Context) ([]*models.Setting, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+columns+` FROM settings ORDER BY is_active DESC, title ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("select settings: %w", err)
	}
	defer rows.Close()

	var out []*models.Setting
	for rows.Next() {
		st, err := scanSetting(rows)
		if err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Active returns the active setting with its copyright, disclaimer and
// contacts loaded.
func (r *Repository) Active(ctx context.Context) (*models.Setting, error) {
	st, err := r.one(ctx, r.db, `is_active = 1`)
	if err != nil {
		return nil, err
	}
	if st.CopyrightID != nil {
		if st.Copyright, err = r.GetCopyright(ctx, *st.CopyrightID); err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	if st.DisclaimerID != nil {
		if st.Disclaimer, err = r.GetDisclaimer(ctx, *st.DisclaimerID); err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	if st.Contacts, err = r.contactsOf(ctx, st.ID); err != nil {
		return nil, err
	}
	st.ContactIDs = make([]int64, len(st.Contacts))
	for i, c := range st.Contacts {
		st.ContactIDs[i] = c.ID
	}
	return st, nil
}

// Save inserts or updates st. Saving an active setting deactivates the
// others; saving an inactive one while no other is active forces it active.
func (r *Repository) Save(ctx context.Context, st *models.Setting) error {
	st.Name = strings.TrimSpace(st.Name)
	if st.Name == "" {
		return errors.New("setting name is required")
	}
	if !models.ValidChoice(models.NohomeChoices, st.NohomeContentType) {
		return fmt.Errorf("invalid no-homepage content type %q", st.NohomeContentType)
	}

	now := r.now().UTC()
	if st.DateMade.IsZero() {
		st.DateMade = now
	}
	st.DateEdit = now

	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var taken int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM settings WHERE name = ? AND id != ?`, st.Name, st.ID).Scan(&taken); err != nil {
			return fmt.Errorf("check name: %w", err)
		}
		if taken > 0 {
			return fmt.Errorf("%q: %w", st.Name, ErrNameTaken)
		}

		if st.IsActive {
			if _, err := tx.ExecContext(ctx, `UPDATE settings SET is_active = 0 WHERE id != ?`, st.ID); err != nil {
				return fmt.Errorf("deactivate settings: %w", err)
			}
		} else {
			var active int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM settings WHERE is_active = 1 AND id != ?`, st.ID).Scan(&active); err != nil {
				return fmt.Errorf("count active settings: %w", err)
			}
			if active == 0 {
				st.IsActive = true
			}
		}

		args := []any{st.IsActive, st.Name, st.Title, st.Description, st.Keywords, st.AppendKeywords,
			st.NohomeContentType, st.NohomeContentItems, st.KeywordsSearchItems, st.NohomeTitle,
			st.NohomeCustom, st.CSS, st.JS, database.NullInt64(st.CopyrightID),
			database.NullInt64(st.DisclaimerID), st.DateMade, st.DateEdit}
		if st.ID == 0 {
			res, err := tx.ExecContext(ctx, `INSERT INTO settings (is_active, name, title, description, keywords,
				append_keywords, nohome_content_type, nohome_content_items, keywords_search_items, nohome_title,
				nohome_custom, css, js, copyright_id, disclaimer_id, date_made, date_edit)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
			if err != nil {
				return fmt.Errorf("insert setting: %w", err)
			}
			if st.ID, err = res.LastInsertId(); err != nil {
				return err
			}
		} else {
			_, err := tx.ExecContext(ctx, `UPDATE settings SET is_active = ?, name = ?, title = ?, description = ?,
				keywords = ?, append_keywords = ?, nohome_content_type = ?, nohome_content_items = ?,
				keywords_search_items = ?, nohome_title = ?, nohome_custom = ?, css = ?, js = ?,
				copyright_id = ?, disclaimer_id = ?, date_made = ?, date_edit = ? WHERE id = ?`,
				append(args, st.ID)...)
			if err != nil {
				return fmt.Errorf("update setting: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM setting_contacts WHERE setting_id = ?`, st.ID); err != nil {
			return fmt.Errorf("clear contacts: %w", err)
		}
		for _, cid := range st.ContactIDs {
			if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO setting_contacts (setting_id, contact_id) VALUES (?, ?)`, st.ID, cid); err != nil {
				return fmt.Errorf("link contact %d: %w", cid, err)
			}
		}
		return nil
	})
}

// Delete removes a setting unless it is the last one. When the active
// setting goes, the first remaining setting by title becomes active.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM settings`).Scan(&n); err != nil {
			return fmt.Errorf("count settings: %w", err)
		}
		if n <= 1 {
			return ErrActiveRequired
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM settings WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete setting: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return ErrNotFound
		}

		var active int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM settings WHERE is_active = 1`).Scan(&active); err != nil {
			return fmt.Errorf("count active settings: %w", err)
		}
		if active == 0 {
			_, err := tx.ExecContext(ctx, `UPDATE settings SET is_active = 1
				WHERE id = (SELECT id FROM settings ORDER BY title ASC, id ASC LIMIT 1)`)
			if err != nil {
				return fmt.Errorf("activate setting: %w", err)
			}
		}
		return nil
	})
}

// EnsureDefault creates an active "Initial Settings" row when none exist.
func (r *Repository) EnsureDefault(ctx context.Context) (*models.Setting, error) {
	st, err := r.Active(ctx)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	st = models.NewSetting()
	st.Name = "Initial Settings"
	st.IsActive = true
	if err := r.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (r *Repository) contactIDs(ctx context.Context, settingID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT contact_id FROM setting_contacts WHERE setting_id = ? ORDER BY contact_id`, settingID)
	if err != nil {
		return nil, fmt.Errorf("select contact ids: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *Repository) contactsOf(ctx context.Context, settingID int64) ([]models.ContactInfo, error) {
	return r.queryContacts(ctx, `SELECT `+contactColumns+` FROM contact_infos
		WHERE id IN (SELECT contact_id FROM setting_contacts WHERE setting_id = ?)
		ORDER BY weight ASC, contact_name ASC`, settingID)
}
