// Package htmlsanitize cleans user-authored post bodies before they are
// stored.
package htmlsanitize

import (
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// postPolicy allows the formatting a forum post editor produces: paragraphs,
// inline emphasis, lists, quotes, code and links. Everything else is
// stripped, including all event handlers and non-http(s) link schemes.
func postPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements("p", "br", "strong", "b", "em", "i", "u", "s",
			"ul", "ol", "li", "blockquote", "code", "pre", "h3", "h4")
		p.AllowAttrs("href").OnElements("a")
		p.AllowURLSchemes("http", "https", "mailto")
		p.RequireParseableURLs(true)
		p.RequireNoFollowOnLinks(true)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		policy = p
	})
	return policy
}

// Sanitize returns s with disallowed markup removed.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return postPolicy().Sanitize(s)
}

var tagPattern = regexp.MustCompile(`<[a-zA-Z/][^>]*>`)

// IsPlainText reports whether s contains no HTML tags.
func IsPlainText(s string) bool {
	return !tagPattern.MatchString(s)
}

// PlainTextToHTML escapes s and turns line breaks into <br>.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	escaped := html.EscapeString(s)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return strings.ReplaceAll(escaped, "\n", "<br>")
}

// PreparePost normalizes a submitted post body: plain text is escaped,
// HTML is sanitized. The result is trimmed; an empty result means the post
// had no usable content.
func PreparePost(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return PlainTextToHTML(s)
	}
	return strings.TrimSpace(Sanitize(s))
}
