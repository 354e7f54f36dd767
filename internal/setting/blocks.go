package setting

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bilgisen/s13core/internal/models"
)

const contactColumns = `id, contact_name, address, email, phone, weight`

func (r *Repository) queryContacts(ctx context.Context, query string, args ...any) ([]models.ContactInfo, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select contacts: %w", err)
	}
	defer rows.Close()

	var out []models.ContactInfo
	for rows.Next() {
		var c models.ContactInfo
		if err := rows.Scan(&c.ID, &c.ContactName, &c.Address, &c.Email, &c.Phone, &c.Weight); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Contacts returns every contact ordered by weight, then name.
func (r *Repository) Contacts(ctx context.Context) ([]models.ContactInfo, error) {
	return r.queryContacts(ctx, `SELECT `+contactColumns+` FROM contact_infos ORDER BY weight ASC, contact_name ASC`)
}

func (r *Repository) GetContact(ctx context.Context, id int64) (*models.ContactInfo, error) {
	items, err := r.queryContacts(ctx, `SELECT `+contactColumns+` FROM contact_infos WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return &items[0], nil
}

func (r *Repository) SaveContact(ctx context.Context, c *models.ContactInfo) error {
	if c.ID == 0 {
		res, err := r.db.ExecContext(ctx, `INSERT INTO contact_infos (contact_name, address, email, phone, weight)
			VALUES (?, ?, ?, ?, ?)`, c.ContactName, c.Address, c.Email, c.Phone, c.Weight)
		if err != nil {
			return fmt.Errorf("insert contact: %w", err)
		}
		c.ID, err = res.LastInsertId()
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE contact_infos SET contact_name = ?, address = ?, email = ?, phone = ?,
		weight = ? WHERE id = ?`, c.ContactName, c.Address, c.Email, c.Phone, c.Weight, c.ID)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	return nil
}

func (r *Repository) DeleteContact(ctx context.Context, id int64) error {
	return r.deleteRow(ctx, `DELETE FROM contact_infos WHERE id = ?`, id)
}

// Copyrights returns every copyright block.
func (r *Repository) Copyrights(ctx context.Context) ([]models.CopyrightInfo, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, statement, license, link FROM copyright_infos ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select copyrights: %w", err)
	}
	defer rows.Close()

	var out []models.CopyrightInfo
	for rows.Next() {
		var c models.CopyrightInfo
		if err := rows.Scan(&c.ID, &c.Statement, &c.License, &c.Link); err != nil {
			return nil, fmt.Errorf("scan copyright: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) GetCopyright(ctx context.Context, id int64) (*models.CopyrightInfo, error) {
	c := &models.CopyrightInfo{}
	err := r.db.QueryRowContext(ctx, `SELECT id, statement, license, link FROM copyright_infos WHERE id = ?`, id).
		Scan(&c.ID, &c.Statement, &c.License, &c.Link)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select copyright: %w", err)
	}
	return c, nil
}

func (r *Repository) SaveCopyright(ctx context.Context, c *models.CopyrightInfo) error {
	if c.ID == 0 {
		res, err := r.db.ExecContext(ctx, `INSERT INTO copyright_infos (statement, license, link) VALUES (?, ?, ?)`,
			c.Statement, c.License, c.Link)
		if err != nil {
			return fmt.Errorf("insert copyright: %w", err)
		}
		c.ID, err = res.LastInsertId()
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE copyright_infos SET statement = ?, license = ?, link = ? WHERE id = ?`,
		c.Statement, c.License, c.Link, c.ID)
	if err != nil {
		return fmt.Errorf("update copyright: %w", err)
	}
	return nil
}

func (r *Repository) DeleteCopyright(ctx context.Context, id int64) error {
	return r.deleteRow(ctx, `DELETE FROM copyright_infos WHERE id = ?`, id)
}

// Disclaimers returns every disclaimer.
func (r *Repository) Disclaimers(ctx context.Context) ([]models.Disclaimer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, title, body FROM disclaimers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select disclaimers: %w", err)
	}
	defer rows.Close()

	var out []models.Disclaimer
	for rows.Next() {
		var d models.Disclaimer
		if err := rows.Scan(&d.ID, &d.Title, &d.Body); err != nil {
			return nil, fmt.Errorf("scan disclaimer: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repository) GetDisclaimer(ctx context.Context, id int64) (*models.Disclaimer, error) {
	d := &models.Disclaimer{}
	err := r.db.QueryRowContext(ctx, `SELECT id, title, body FROM disclaimers WHERE id = ?`, id).
		Scan(&d.ID, &d.Title, &d.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select disclaimer: %w", err)
	}
	return d, nil
}

func (r *Repository) SaveDisclaimer(ctx context.Context, d *models.Disclaimer) error {
	if d.ID == 0 {
		res, err := r.db.ExecContext(ctx, `INSERT INTO disclaimers (title, body) VALUES (?, ?)`, d.Title, d.Body)
		if err != nil {
			return fmt.Errorf("insert disclaimer: %w", err)
		}
		d.ID, err = res.LastInsertId()
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE disclaimers SET title = ?, body = ? WHERE id = ?`, d.Title, d.Body, d.ID)
	if err != nil {
		return fmt.Errorf("update disclaimer: %w", err)
	}
	return nil
}

func (r *Repository) DeleteDisclaimer(ctx context.Context, id int64) error {
	return r.deleteRow(ctx, `DELETE FROM disclaimers WHERE id = ?`, id)
}

func (r *Repository) deleteRow(ctx context.Context, query string, id int64) error {
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
