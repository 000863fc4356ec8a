package services

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans user supplied text before it is stored
type Sanitizer interface {
	// Text strips every tag and returns plain text
	Text(raw string) string
	// RichText keeps a small set of formatting tags
	RichText(raw string) string
}

type sanitizer struct {
	strict *bluemonday.Policy
	rich   *bluemonday.Policy
}

// NewSanitizer builds the strict and rich text policies
func NewSanitizer() Sanitizer {
	rich := bluemonday.NewPolicy()
	rich.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "strong", "em", "b", "i", "u",
		"h2", "h3", "h4",
	)
	rich.AllowAttrs("href").OnElements("a")
	rich.AllowStandardURLs()
	rich.AllowRelativeURLs(false)
	rich.AddTargetBlankToFullyQualifiedLinks(true)
	rich.RequireNoReferrerOnLinks(true)

	return &sanitizer{
		strict: bluemonday.StrictPolicy(),
		rich:   rich,
	}
}

// Text output is consumed as JSON text, so entities produced by the policy are decoded again.
func (s *sanitizer) Text(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.strict.Sanitize(raw)))
}

func (s *sanitizer) RichText(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(s.rich.Sanitize(raw))
}
