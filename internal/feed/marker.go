package feed

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/bilgisen/s13core/internal/utils"
)

// markerKey names the processed marker of one feed item in the cache.
func markerKey(feedLabel, slug string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(feedLabel) + ":" + slug))
	return hex.EncodeToString(sum[:])
}

// itemSlug picks the slug of an emitted article: the given slug, else one
// made from the title. Titles with no Latin letters or digits, such as
// Cyrillic or CJK ones, get "item-" and a digest of feed and title so the
// same item maps to the same slug on every run.
func itemSlug(feedLabel string, spec ArticleSpec) string {
	if slug := utils.Slugify(spec.Slug); slug != "" {
		return slug
	}
	if slug := utils.Slugify(spec.Title); slug != "" {
		return slug
	}
	title := strings.TrimSpace(spec.Title)
	if title == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(strings.ToLower(feedLabel) + ":" + title))
	return "item-" + hex.EncodeToString(sum[:6])
}
