// Package sanitize cleans free text supplied by customers and technicians
// before it is stored or echoed into notifications.
package sanitize

import (
	"html"
	"regexp"
	"strings"
)

var (
	htmlTagRegex  = regexp.MustCompile(`<[^>]*>`)
	spaceRunRegex = regexp.MustCompile(`[ \t]+`)
	blankRunRegex = regexp.MustCompile(`\n{3,}`)
)

// StripHTML removes tags, decodes entities and strips again so that encoded
// markup cannot survive a single pass.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = html.UnescapeString(result)
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text strips HTML and collapses runs of spaces. Line breaks are kept, but at
// most one blank line survives between paragraphs.
func Text(s string) string {
	result := StripHTML(strings.ReplaceAll(s, "\r\n", "\n"))
	result = spaceRunRegex.ReplaceAllString(result, " ")

	lines := strings.Split(result, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	result = blankRunRegex.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

// TextPtr sanitizes an optional field. Empty results become nil.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	if result == "" {
		return nil
	}
	return &result
}
