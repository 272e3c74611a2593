package services

import (
	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizer strips unsafe markup from post bodies produced by the
// rich-text editor.
type ContentSanitizer struct {
	policy *bluemonday.Policy
}

func NewContentSanitizer() *ContentSanitizer {
	policy := bluemonday.UGCPolicy()
	// editor output carries code highlighting classes and heading anchors
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "span", "pre")
	policy.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	return &ContentSanitizer{policy: policy}
}

// Sanitize returns html with scripts, event handlers and unknown elements removed.
func (s *ContentSanitizer) Sanitize(html string) string {
	if html == "" {
		return ""
	}
	return s.policy.Sanitize(html)
}
