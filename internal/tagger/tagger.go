// Package tagger classifies regulation text by keyword.
package tagger

import (
	"strings"

	"github.com/dshills/regconsole/internal/schema"
)

// Keyword maps a lowercase keyword to the category it implies.
type Keyword struct {
	Word     string
	Category string
}

// DefaultKeywords is the built-in table, in emission order.
var DefaultKeywords = []Keyword{
	{Word: "pfas", Category: "regulated_substance"},
	{Word: "textile", Category: "product_type"},
	{Word: "exemption", Category: "compliance"},
	{Word: "penalty", Category: "enforcement"},
	{Word: "reporting", Category: "requirement"},
}

// Tag returns one tag per DefaultKeywords entry found in text.
func Tag(text string) []schema.Tag {
	return TagWith(DefaultKeywords, text)
}

// TagWith matches each keyword as a case-insensitive substring of text and
// returns the hits in table order. The result is never nil.
func TagWith(keywords []Keyword, text string) []schema.Tag {
	lower := strings.ToLower(text)
	tags := []schema.Tag{}
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw.Word)) {
			tags = append(tags, schema.Tag{Text: kw.Word, Category: kw.Category})
		}
	}
	return tags
}
