package article

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bilgisen/s13core/internal/database"
	"github.com/bilgisen/s13core/internal/models"
)

var (
	ErrNotFound    = errors.New("article not found")
	ErrOwnParent   = errors.New("Article cannot be its own parent.")
	ErrSelfLink    = errors.New("Article cannot link to itself.")
	ErrSlugTaken   = errors.New("an article with this slug already exists")
	ErrInvalidSort = errors.New("invalid sort choice")
)

// MinSearchLength is the shortest term Search accepts.
const MinSearchLength = 3

const columns = `id, slug, owner_id, title, body, format, description, keywords, date_made, date_edit,
	image_id, parent_id, limit_media, sort_article_media, template, js, css, is_public, is_homepage,
	sort_children, include_children, weight`

var childOrder = map[string]string{
	"pk":         "id ASC",
	"-pk":        "id DESC",
	"date_edit":  "date_edit ASC, id ASC",
	"-date_edit": "date_edit DESC, id DESC",
	"title":      "title ASC, id ASC",
	"-title":     "title DESC, id DESC",
	"weight":     "weight ASC, id ASC",
	"-weight":    "weight DESC, id DESC",
}

var mediaOrder = map[string]string{
	"pk":         "f.id ASC",
	"-pk":        "f.id DESC",
	"title":      "f.title ASC, f.id ASC",
	"-title":     "f.title DESC, f.id DESC",
	"date_edit":  "f.date_edit ASC, f.id ASC",
	"-date_edit": "f.date_edit DESC, f.id DESC",
}

// Repository stores articles and walks the article tree.
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

func scanArticle(s scanner) (*models.Article, error) {
	a := &models.Article{}
	var owner, image, parent sql.NullInt64
	err := s.Scan(&a.ID, &a.Slug, &owner, &a.Title, &a.Body, &a.Format, &a.Description, &a.Keywords,
		&a.DateMade, &a.DateEdit, &image, &parent, &a.LimitMedia, &a.SortArticleMedia, &a.Template,
		&a.JS, &a.CSS, &a.IsPublic, &a.IsHomepage, &a.SortChildren, &a.IncludeChildren, &a.Weight)
	if err != nil {
		return nil, err
	}
	a.OwnerID = database.Int64Ptr(owner)
	a.ImageID = database.Int64Ptr(image)
	a.ParentID = database.Int64Ptr(parent)
	return a, nil
}

func (r *Repository) one(ctx context.Context, q database.DBTX, where string, args ...any) (*models.Article, error) {
	row := q.QueryRowContext(ctx, `SELECT `+columns+` FROM articles WHERE `+where+` LIMIT 1`, args...)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select article: %w", err)
	}
	return a, nil
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]*models.Article, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select articles: %w", err)
	}
	defer rows.Close()

	var out []*models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}

// Get returns the article with the given id.
func (r *Repository) Get(ctx context.Context, id int64) (*models.Article, error) {
	return r.one(ctx, r.db, `id = ?`, id)
}

// GetBySlug returns the article with the given slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	return r.one(ctx, r.db, `slug = ?`, slug)
}

// Homepage returns the public article flagged as the homepage.
func (r *Repository) Homepage(ctx context.Context) (*models.Article, error) {
	return r.one(ctx, r.db, `is_homepage = 1 AND is_public = 1`)
}

// Section returns the section (root article) with the given slug.
func (r *Repository) Section(ctx context.Context, slug string) (*models.Article, error) {
	return r.one(ctx, r.db, `slug = ? AND parent_id IS NULL`, slug)
}

// Sections returns the root articles, homepage first, then by weight.
func (r *Repository) Sections(ctx context.Context, includePrivate bool) ([]*models.Article, error) {
	where := `parent_id IS NULL`
	if !includePrivate {
		where += ` AND is_public = 1`
	}
	return r.list(ctx, `SELECT `+columns+` FROM articles WHERE `+where+
		` ORDER BY is_homepage DESC, weight ASC, id ASC`)
}

// ArticleIn returns the section and the article with articleSlug, provided
// the article has a parent and its root section has sectionSlug.
func (r *Repository) ArticleIn(ctx context.Context, sectionSlug, articleSlug string) (section, article *models.Article, err error) {
	article, err = r.GetBySlug(ctx, articleSlug)
	if err != nil {
		return nil, nil, err
	}
	if article.IsSection() {
		return nil, nil, ErrNotFound
	}
	section, err = r.SectionOf(ctx, article)
	if err != nil {
		return nil, nil, err
	}
	if section.Slug != sectionSlug {
		return nil, nil, ErrNotFound
	}
	return section, article, nil
}

// Search matches term against title, slug and keywords of public,
// non-section articles, most recently edited first. Terms shorter than
// MinSearchLength return no results.
func (r *Repository) Search(ctx context.Context, term string) ([]*models.Article, error) {
	term = strings.TrimSpace(term)
	if utf8.RuneCountInString(term) < MinSearchLength {
		return nil, nil
	}
	like := database.Like(term)
	return r.list(ctx, `SELECT `+columns+` FROM articles
		WHERE (title LIKE ? ESCAPE '\' OR slug LIKE ? ESCAPE '\' OR keywords LIKE ? ESCAPE '\')
		AND is_public = 1 AND parent_id IS NOT NULL
		ORDER BY date_edit DESC, id DESC`, like, like, like)
}

// Ancestry returns the article's ancestors, nearest first.
func (r *Repository) Ancestry(ctx context.Context, a *models.Article) ([]*models.Article, error) {
	var ancestors []*models.Article
	seen := map[int64]bool{a.ID: true}
	parentID := a.ParentID
	for parentID != nil {
		if seen[*parentID] {
			return nil, fmt.Errorf("article %d: %w", a.ID, ErrOwnParent)
		}
		seen[*parentID] = true
		parent, err := r.Get(ctx, *parentID)
		if err != nil {
			return nil, fmt.Errorf("load ancestor %d: %w", *parentID, err)
		}
		ancestors = append(ancestors, parent)
		parentID = parent.ParentID
	}
	return ancestors, nil
}

// SectionOf returns the oldest ancestor of a, or a itself when it is a
// section.
func (r *Repository) SectionOf(ctx context.Context, a *models.Article) (*models.Article, error) {
	ancestry, err := r.Ancestry(ctx, a)
	if err != nil {
		return nil, err
	}
	if len(ancestry) == 0 {
		return a, nil
	}
	return ancestry[len(ancestry)-1], nil
}

// URL returns the public path of a.
func (r *Repository) URL(ctx context.Context, a *models.Article) (string, error) {
	if a.IsHomepage || a.IsSection() {
		return a.MakeURL(""), nil
	}
	section, err := r.SectionOf(ctx, a)
	if err != nil {
		return "", err
	}
	return a.MakeURL(section.Slug), nil
}

// Children returns the articles whose parent is a, in a's child order.
func (r *Repository) Children(ctx context.Context, a *models.Article, includePrivate bool) ([]*models.Article, error) {
	where := `parent_id = ?`
	if !includePrivate {
		where += ` AND is_public = 1`
	}
	return r.list(ctx, `SELECT `+columns+` FROM articles WHERE `+where+
		` ORDER BY `+orderOf(childOrder, a.SortChildren, models.DefaultChildSort), a.ID)
}

// Siblings returns the articles sharing a's parent, a included. Sections
// are ordered by weight, other articles by their parent's child order.
func (r *Repository) Siblings(ctx context.Context, a *models.Article, includePrivate bool) ([]*models.Article, error) {
	sorter := "weight"
	where := `parent_id IS NULL`
	var args []any
	if a.ParentID != nil {
		parent, err := r.Get(ctx, *a.ParentID)
		if err != nil {
			return nil, fmt.Errorf("load parent: %w", err)
		}
		sorter = parent.SortChildren
		where = `parent_id = ?`
		args = append(args, parent.ID)
	}
	if !includePrivate {
		where += ` AND is_public = 1`
	}
	return r.list(ctx, `SELECT `+columns+` FROM articles WHERE `+where+
		` ORDER BY `+orderOf(childOrder, sorter, models.DefaultChildSort), args...)
}

// PreviousNext returns the public siblings before and after a. Either may
// be nil. A private article has no neighbours.
func (r *Repository) PreviousNext(ctx context.Context, a *models.Article) (prev, next *models.Article, err error) {
	siblings, err := r.Siblings(ctx, a, false)
	if err != nil {
		return nil, nil, err
	}
	for i, s := range siblings {
		if s.ID != a.ID {
			continue
		}
		if i > 0 {
			prev = siblings[i-1]
		}
		if i < len(siblings)-1 {
			next = siblings[i+1]
		}
		break
	}
	return prev, next, nil
}

// Progeny returns every descendant of a.
func (r *Repository) Progeny(ctx context.Context, a *models.Article) ([]*models.Article, error) {
	return r.list(ctx, `WITH RECURSIVE tree(id) AS (
			SELECT id FROM articles WHERE parent_id = ?
			UNION
			SELECT a.id FROM articles a JOIN tree t ON a.parent_id = t.id
		)
		SELECT `+columns+` FROM articles WHERE id IN (SELECT id FROM tree) ORDER BY id`, a.ID)
}

// Latest returns up to limit public non-section articles, newest first,
// leaving out the children of excludeParent when it is set.
func (r *Repository) Latest(ctx context.Context, limit int, excludeParent *int64) ([]*models.Article, error) {
	where := `is_public = 1 AND parent_id IS NOT NULL`
	args := []any{}
	if excludeParent != nil {
		where += ` AND parent_id != ?`
		args = append(args, *excludeParent)
	}
	args = append(args, limit)
	return r.list(ctx, `SELECT `+columns+` FROM articles WHERE `+where+
		` ORDER BY date_made DESC, id DESC LIMIT ?`, args...)
}

// NonSections returns every public non-section article, newest first.
func (r *Repository) NonSections(ctx context.Context) ([]*models.Article, error) {
	return r.list(ctx, `SELECT `+columns+` FROM articles WHERE is_public = 1 AND parent_id IS NOT NULL ORDER BY id DESC`)
}

// List returns the articles matching q on slug, title or description,
// newest first. excludeID leaves one article out.
func (r *Repository) List(ctx context.Context, q string, excludeID int64) ([]*models.Article, error) {
	where := `id != ?`
	args := []any{excludeID}
	if q = strings.TrimSpace(q); q != "" {
		like := database.Like(q)
		where += ` AND (slug LIKE ? ESCAPE '\' OR title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')`
		args = append(args, like, like, like)
	}
	return r.list(ctx, `SELECT `+columns+` FROM articles WHERE `+where+` ORDER BY id DESC`, args...)
}

// All returns every article in creation order.
func (r *Repository) All(ctx context.Context) ([]*models.Article, error) {
	return r.list(ctx, `SELECT `+columns+` FROM articles ORDER BY id`)
}

// Sidelinks returns the articles a links to.
func (r *Repository) Sidelinks(ctx context.Context, a *models.Article) ([]*models.Article, error) {
	return r.list(ctx, `SELECT `+columns+` FROM articles
		WHERE id IN (SELECT sidelink_id FROM article_sidelinks WHERE article_id = ?)
		ORDER BY weight ASC, title ASC`, a.ID)
}

// Save inserts or updates a. It fills in the creation date and slug when
// missing and keeps at most one homepage. a is only updated when the
// article was stored.
func (r *Repository) Save(ctx context.Context, a *models.Article) error {
	next := *a
	if err := r.save(ctx, &next); err != nil {
		return err
	}
	*a = next
	return nil
}

func (r *Repository) save(ctx context.Context, a *models.Article) error {
	if a.Format == "" {
		a.Format = models.FormatHTML
	}
	if a.SortChildren == "" {
		a.SortChildren = models.DefaultChildSort
	}
	if a.SortArticleMedia == "" {
		a.SortArticleMedia = models.DefaultMediaSort
	}
	if _, ok := childOrder[a.SortChildren]; !ok {
		return fmt.Errorf("sort_children %q: %w", a.SortChildren, ErrInvalidSort)
	}
	if _, ok := mediaOrder[a.SortArticleMedia]; !ok {
		return fmt.Errorf("sort_article_media %q: %w", a.SortArticleMedia, ErrInvalidSort)
	}

	if a.ID != 0 && a.ParentID != nil {
		if *a.ParentID == a.ID {
			return ErrOwnParent
		}
		if err := r.checkCycle(ctx, a); err != nil {
			return err
		}
	}

	now := r.now().UTC()
	if a.DateMade.IsZero() {
		a.DateMade = now
	}
	a.DateMade = a.DateMade.UTC()
	a.DateEdit = now
	a.Slug = strings.TrimSpace(a.Slug)
	if a.Slug == "" {
		a.Slug = models.SlugFromDate(a.DateMade)
	}

	if taken, err := r.slugTaken(ctx, a); err != nil {
		return err
	} else if taken {
		return fmt.Errorf("%q: %w", a.Slug, ErrSlugTaken)
	}

	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if a.IsHomepage {
			if _, err := tx.ExecContext(ctx, `UPDATE articles SET is_homepage = 0 WHERE is_homepage = 1 AND id != ?`, a.ID); err != nil {
				return fmt.Errorf("clear homepage: %w", err)
			}
		}
		args := []any{a.Slug, database.NullInt64(a.OwnerID), a.Title, a.Body, a.Format, a.Description,
			a.Keywords, a.DateMade, a.DateEdit, database.NullInt64(a.ImageID), database.NullInt64(a.ParentID),
			a.LimitMedia, a.SortArticleMedia, a.Template, a.JS, a.CSS, a.IsPublic, a.IsHomepage,
			a.SortChildren, a.IncludeChildren, a.Weight}
		if a.ID == 0 {
			res, err := tx.ExecContext(ctx, `INSERT INTO articles (slug, owner_id, title, body, format, description,
				keywords, date_made, date_edit, image_id, parent_id, limit_media, sort_article_media, template,
				js, css, is_public, is_homepage, sort_children, include_children, weight)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
			if err != nil {
				return fmt.Errorf("insert article: %w", err)
			}
			a.ID, err = res.LastInsertId()
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE articles SET slug = ?, owner_id = ?, title = ?, body = ?, format = ?,
			description = ?, keywords = ?, date_made = ?, date_edit = ?, image_id = ?, parent_id = ?,
			limit_media = ?, sort_article_media = ?, template = ?, js = ?, css = ?, is_public = ?,
			is_homepage = ?, sort_children = ?, include_children = ?, weight = ? WHERE id = ?`,
			append(args, a.ID)...)
		if err != nil {
			return fmt.Errorf("update article: %w", err)
		}
		return nil
	})
}

func (r *Repository) slugTaken(ctx context.Context, a *models.Article) (bool, error) {
	n, err := r.count(ctx, `SELECT COUNT(*) FROM articles WHERE slug = ? AND id != ?`, a.Slug, a.ID)
	return n > 0, err
}

// checkCycle rejects a parent that is a descendant of a.
func (r *Repository) checkCycle(ctx context.Context, a *models.Article) error {
	seen := map[int64]bool{a.ID: true}
	id := a.ParentID
	for id != nil {
		if seen[*id] {
			return ErrOwnParent
		}
		seen[*id] = true
		parent, err := r.Get(ctx, *id)
		if err != nil {
			return fmt.Errorf("load parent %d: %w", *id, err)
		}
		id = parent.ParentID
	}
	return nil
}

// Delete removes the article and, through the foreign key, its children.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func orderOf(orders map[string]string, choice, fallback string) string {
	if o, ok := orders[choice]; ok {
		return o
	}
	return orders[fallback]
}
