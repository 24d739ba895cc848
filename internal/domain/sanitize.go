package domain

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SanitizeDescription strips HTML markup that some game descriptions carry
// and collapses runs of whitespace, so prompts and fallback articles only
// ever see plain text.
func SanitizeDescription(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if strings.ContainsAny(s, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err == nil {
			s = doc.Text()
		}
	}

	return strings.Join(strings.Fields(s), " ")
}
