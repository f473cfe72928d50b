package app

import (
	"regexp"
	"strings"
)

const maxTracedQueryLength = 512

var (
	queryWhitespaceRegex = regexp.MustCompile(`\s+`)
	// Seed statements and ad-hoc queries inline supplier keys and names.
	queryLiteralRegex = regexp.MustCompile(`'(?:[^']|'')*'`)
)

// formatDBQueryForTrace collapses whitespace, masks string literals and
// caps the length of a statement before it is attached to a span.
func formatDBQueryForTrace(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}

	query = queryLiteralRegex.ReplaceAllString(query, "'?'")
	query = queryWhitespaceRegex.ReplaceAllString(query, " ")
	if len(query) > maxTracedQueryLength {
		query = query[:maxTracedQueryLength] + "..."
	}
	return query
}
