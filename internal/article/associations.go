package article

import (
	"context"
	"fmt"

	"github.com/bilgisen/s13core/internal/asset"
	"github.com/bilgisen/s13core/internal/models"
)

// Media returns the file assets attached to a in its media order, limited
// to LimitMedia when positive.
func (r *Repository) Media(ctx context.Context, a *models.Article) ([]*models.FileAsset, error) {
	query := `SELECT ` + asset.Columns("f") + ` FROM file_assets f
		JOIN article_media m ON m.asset_id = f.id
		WHERE m.article_id = ?
		ORDER BY ` + orderOf(mediaOrder, a.SortArticleMedia, models.DefaultMediaSort)
	args := []any{a.ID}
	if a.LimitMedia > 0 {
		query += ` LIMIT ?`
		args = append(args, a.LimitMedia)
	}
	return asset.Query(ctx, r.db, query, args...)
}

// Image returns a's preview image, or nil when none is set.
func (r *Repository) Image(ctx context.Context, a *models.Article) (*models.FileAsset, error) {
	if a.ImageID == nil {
		return nil, nil
	}
	items, err := asset.Query(ctx, r.db, `SELECT `+asset.Columns("f")+` FROM file_assets f WHERE f.id = ?`, *a.ImageID)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

// UsersOfAsset returns the articles using the asset as media or as their
// preview image.
func (r *Repository) UsersOfAsset(ctx context.Context, assetID int64) ([]*models.Article, error) {
	return r.list(ctx, `SELECT `+columns+` FROM articles
		WHERE image_id = ? OR id IN (SELECT article_id FROM article_media WHERE asset_id = ?)
		ORDER BY title ASC, id ASC`, assetID, assetID)
}

// SetParent makes child a child of parent.
func (r *Repository) SetParent(ctx context.Context, child *models.Article, parentID *int64) error {
	next := *child
	next.ParentID = parentID
	if err := r.Save(ctx, &next); err != nil {
		return err
	}
	*child = next
	return nil
}

// AddSidelink links a to target.
func (r *Repository) AddSidelink(ctx context.Context, a *models.Article, targetID int64) error {
	if a.ID == targetID {
		return ErrSelfLink
	}
	return r.exec(ctx, `INSERT OR IGNORE INTO article_sidelinks (article_id, sidelink_id) VALUES (?, ?)`, a.ID, targetID)
}

// RemoveSidelink unlinks a from target.
func (r *Repository) RemoveSidelink(ctx context.Context, a *models.Article, targetID int64) error {
	return r.exec(ctx, `DELETE FROM article_sidelinks WHERE article_id = ? AND sidelink_id = ?`, a.ID, targetID)
}

// AddMedia attaches an asset to a.
func (r *Repository) AddMedia(ctx context.Context, a *models.Article, assetID int64) error {
	return r.exec(ctx, `INSERT OR IGNORE INTO article_media (article_id, asset_id) VALUES (?, ?)`, a.ID, assetID)
}

// RemoveMedia detaches an asset from a.
func (r *Repository) RemoveMedia(ctx context.Context, a *models.Article, assetID int64) error {
	return r.exec(ctx, `DELETE FROM article_media WHERE article_id = ? AND asset_id = ?`, a.ID, assetID)
}

// SetImage sets a's preview image; a nil id clears it.
func (r *Repository) SetImage(ctx context.Context, a *models.Article, assetID *int64) error {
	next := *a
	next.ImageID = assetID
	if err := r.Save(ctx, &next); err != nil {
		return err
	}
	*a = next
	return nil
}

func (r *Repository) exec(ctx context.Context, query string, args ...any) error {
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update association: %w", err)
	}
	return nil
}

// HasSidelink reports whether a links to target.
func (r *Repository) HasSidelink(ctx context.Context, a *models.Article, targetID int64) (bool, error) {
	n, err := r.count(ctx, `SELECT COUNT(*) FROM article_sidelinks WHERE article_id = ? AND sidelink_id = ?`, a.ID, targetID)
	return n > 0, err
}

// HasMedia reports whether the asset is attached to a.
func (r *Repository) HasMedia(ctx context.Context, a *models.Article, assetID int64) (bool, error) {
	n, err := r.count(ctx, `SELECT COUNT(*) FROM article_media WHERE article_id = ? AND asset_id = ?`, a.ID, assetID)
	return n > 0, err
}
