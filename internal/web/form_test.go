package web

import (
	"testing"

	"github.com/bilgisen/s13core/internal/middleware"
	"github.com/bilgisen/s13core/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestOneOfQuotesAwkwardValues(t *testing.T) {
	choices := []models.Choice{{Value: ""}, {Value: "plain.html"}, {Value: "two words"}, {Value: "a,b|c"}}
	tag := oneOf(choices)
	assert.Equal(t, "oneof=plain.html 'two words' a0x2Cb0x7Cc", tag)

	v := middleware.NewValidator()
	for _, ok := range []string{"plain.html", "two words", "a,b|c"} {
		assert.Nil(t, v.Var("template", ok, tag), ok)
	}
	assert.NotNil(t, v.Var("template", "two", tag))
}

func TestFieldTag(t *testing.T) {
	var n int
	var s string
	assert.Equal(t, "required,number,max=9", intField("weight", "Weight", &n).tag())
	assert.Equal(t, "required", textField("title", "Title", &s).required().tag())
	assert.Equal(t, "required,max=128", textField("question", "Question", &s).required().max(128).tag())
	assert.Equal(t, "", textField("keywords", "Keywords", &s).tag())
	assert.Equal(t, "omitempty,oneof=x", choiceField("template", "Template", &s,
		[]models.Choice{{Value: ""}, {Value: "x"}}).optional().tag())
}
