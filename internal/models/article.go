package models

import (
	"strings"
	"time"
)

// DateFormat is the human readable layout used for article dates.
const DateFormat = "Monday, 02 January 2006 - 15:04"

// SlugDateFormat is the layout used to derive a slug from the creation date.
const SlugDateFormat = "20060102-150405"

// Body formats.
const (
	FormatHTML = "html"
	FormatOrg  = "org"
)

// Choice is a value/label pair offered by a select box.
type Choice struct {
	Value string
	Label string
}

// ChildSortChoices are the allowed orderings of an article's children.
var ChildSortChoices = []Choice{
	{"pk", "Order Created (Oldest First)"},
	{"-pk", "Order Created (Newest First)"},
	{"date_edit", "Edit Date (Oldest First)"},
	{"-date_edit", "Edit Date (Freshest First)"},
	{"title", "Title (Alphabetical)"},
	{"-title", "Title (Reverse Alphabetical)"},
	{"weight", "Weight (Lightest First)"},
	{"-weight", "Weight (Heaviest First)"},
}

// MediaSortChoices are the allowed orderings of an article's media.
var MediaSortChoices = []Choice{
	{"pk", "Order Added (Oldest First)"},
	{"-pk", "Order Added (Newest First)"},
	{"title", "Title (Alphabetical)"},
	{"-title", "Title (Reverse Alphabetical)"},
	{"date_edit", "Edit Date (Oldest First)"},
	{"-date_edit", "Edit Date (Freshest First)"},
}

// FormatChoices are the supported body markups.
var FormatChoices = []Choice{
	{FormatHTML, "HTML / template"},
	{FormatOrg, "Org mode"},
}

const (
	DefaultChildSort = "-pk"
	DefaultMediaSort = "title"
)

// Article is a content node. Articles without a parent are sections.
type Article struct {
	ID               int64
	Slug             string
	OwnerID          *int64
	Title            string
	Body             string
	Format           string
	Description      string
	Keywords         string
	DateMade         time.Time
	DateEdit         time.Time
	ImageID          *int64
	ParentID         *int64
	LimitMedia       int
	SortArticleMedia string
	Template         string
	JS               string
	CSS              string
	IsPublic         bool
	IsHomepage       bool
	SortChildren     string
	IncludeChildren  int
	Weight           int
}

// NewArticle returns an article carrying the default field values.
func NewArticle() *Article {
	return &Article{
		Format:           FormatHTML,
		SortArticleMedia: DefaultMediaSort,
		SortChildren:     DefaultChildSort,
		IsPublic:         true,
	}
}

func (a *Article) String() string {
	return a.Title
}

// IsSection reports whether the article sits at the top of the tree.
func (a *Article) IsSection() bool {
	return a.ParentID == nil
}

// KeywordList splits the comma separated keywords.
func (a *Article) KeywordList() []string {
	return SplitKeywords(a.Keywords)
}

// DateMadeText formats the creation date for display.
func (a *Article) DateMadeText() string {
	return a.DateMade.Format(DateFormat)
}

// DateEditText formats the last edit date for display.
func (a *Article) DateEditText() string {
	return a.DateEdit.Format(DateFormat)
}

// MakeURL builds the public path of the article. sectionSlug is the slug of
// the article's root section and is ignored for sections.
func (a *Article) MakeURL(sectionSlug string) string {
	switch {
	case a.IsHomepage:
		return "/"
	case a.IsSection():
		return "/" + a.Slug + "/"
	default:
		return "/" + sectionSlug + "/" + a.Slug + "/"
	}
}

// SlugFromDate derives the default slug from a timestamp.
func SlugFromDate(t time.Time) string {
	return t.Format(SlugDateFormat)
}

// SplitKeywords splits a comma separated keyword string, dropping blanks.
func SplitKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// ValidChoice reports whether value is one of choices.
func ValidChoice(choices []Choice, value string) bool {
	for _, c := range choices {
		if c.Value == value {
			return true
		}
	}
	return false
}
