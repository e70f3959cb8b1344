package crawler

import (
	"regexp"
	"strings"
)

// Package-level compiled regex patterns for performance
var (
	scriptRegex     = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	styleRegex      = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style>`)
	noscriptRegex   = regexp.MustCompile(`(?is)<noscript\b[^>]*>.*?</noscript>`)
	commentRegex    = regexp.MustCompile(`(?s)<!--.*?-->`)
	whitespaceRegex = regexp.MustCompile(`[ \t]+`)
	blankLineRegex  = regexp.MustCompile(`\n{3,}`)
)

// CleanHTML strips script, style and comment blocks and collapses runs of
// whitespace. Markup itself is kept: price information frequently lives in
// class names and data attributes, and the LLM prompt wants to see those.
func CleanHTML(html string) string {
	cleaned := scriptRegex.ReplaceAllString(html, "")
	cleaned = styleRegex.ReplaceAllString(cleaned, "")
	cleaned = noscriptRegex.ReplaceAllString(cleaned, "")
	cleaned = commentRegex.ReplaceAllString(cleaned, "")
	cleaned = whitespaceRegex.ReplaceAllString(cleaned, " ")
	cleaned = blankLineRegex.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}
