// Package textutil turns scraped article HTML into the normalized plain text
// that feeds canonical hashing, and sanitizes HTML before it is persisted.
package textutil

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var (
	excessNewlines = regexp.MustCompile(`\n{3,}`)

	// chrome elements that never belong to the article body
	chromeSelector = "script, style, noscript, nav, footer, header"

	sanitizePolicy = bluemonday.UGCPolicy()
)

// CleanHTML strips markup from an HTML fragment and returns normalized plain
// text: one line per block element, no blank-run longer than one empty line,
// no leading or trailing whitespace. Returns "" for empty or unparseable input.
func CleanHTML(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find(chromeSelector).Remove()

	// Inject newline text nodes so block boundaries survive Text().
	doc.Find("p, div, li, tr, br, h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return NormalizeText(doc.Text())
}

// NormalizeText collapses whitespace in already-extracted text: lines are
// trimmed, runs of spaces inside a line split into separate chunks, empty
// chunks dropped, and long newline runs compressed.
func NormalizeText(text string) string {
	var chunks []string
	for _, line := range strings.Split(text, "\n") {
		for _, phrase := range strings.Split(strings.TrimSpace(line), "  ") {
			phrase = strings.TrimSpace(phrase)
			if phrase != "" {
				chunks = append(chunks, phrase)
			}
		}
	}

	out := strings.Join(chunks, "\n")
	out = excessNewlines.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// ExtractMainContent locates the article body in a full detail page using the
// given CSS selectors in priority order and returns (outer HTML, cleaned text).
// Falls back to cleaning the whole document when no selector matches.
func ExtractMainContent(html string, selectors []string) (string, string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", ""
	}

	for _, selector := range selectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		fragment, err := goquery.OuterHtml(sel)
		if err != nil {
			continue
		}
		return fragment, CleanHTML(fragment)
	}

	return "", CleanHTML(html)
}

// SanitizeHTML removes unsafe markup from article HTML before it is written
// to object storage.
func SanitizeHTML(html string) string {
	if html == "" {
		return ""
	}
	return sanitizePolicy.Sanitize(html)
}

// CanonicalHash fingerprints normalized article text. Identical text always
// yields the identical hash; the text is trimmed first so content differing
// only in surrounding whitespace dedups to the same row.
func CanonicalHash(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}
