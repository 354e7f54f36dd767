package article

import (
	"context"

	"github.com/bilgisen/s13core/internal/utils"
)

// SectionStat counts the descendants of one section.
type SectionStat struct {
	ID      int64
	Title   string
	Slug    string
	Count   int
	Percent float64
}

// Stats summarises the article table for the dashboard. Articles counts
// non-section articles only.
type Stats struct {
	Articles int
	Drafts   int
	Public   int
	Sections []SectionStat
}

// Stats computes the dashboard figures.
func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	s := &Stats{}
	var err error
	if s.Articles, err = r.count(ctx, `SELECT COUNT(*) FROM articles WHERE parent_id IS NOT NULL`); err != nil {
		return nil, err
	}
	if s.Drafts, err = r.count(ctx, `SELECT COUNT(*) FROM articles WHERE parent_id IS NOT NULL AND is_public = 0`); err != nil {
		return nil, err
	}
	s.Public = s.Articles - s.Drafts

	sections, err := r.Sections(ctx, true)
	if err != nil {
		return nil, err
	}
	for _, sec := range sections {
		progeny, err := r.Progeny(ctx, sec)
		if err != nil {
			return nil, err
		}
		s.Sections = append(s.Sections, SectionStat{
			ID:      sec.ID,
			Title:   sec.Title,
			Slug:    sec.Slug,
			Count:   len(progeny),
			Percent: utils.Percent(len(progeny), s.Articles),
		})
	}
	return s, nil
}
