package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanHTML(t *testing.T) {
	assert.Equal(t, "Hello & welcome", CleanHTML("<p>Hello &amp;\n <b>welcome</b></p>"))
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello, World!":        "hello-world",
		"  Crème brûlée  ":     "creme-brulee",
		"already-a_slug":       "already-a-slug",
		"2014 -- annual report": "2014-annual-report",
		"!!!":                  "",
		"Новости дня":          "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abc…", Truncate("abc def", 4))
	assert.Equal(t, "abc def", Truncate("abc def", 0))
}

func TestPercentAndMB(t *testing.T) {
	assert.Equal(t, 33.33, Percent(1, 3))
	assert.Equal(t, 0.0, Percent(5, 0))
	assert.Equal(t, 50.0, Percent(int64(512), int64(1024)))
	assert.Equal(t, 1.5, BytesToMB(3<<19))
}
