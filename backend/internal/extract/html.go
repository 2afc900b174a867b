package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LooksLikeHTML is a cheap sniff for uploads that arrived as saved web pages
// instead of plain text.
func LooksLikeHTML(text string) bool {
	head := strings.ToLower(text)
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.Contains(head, "<html") ||
		strings.Contains(head, "<!doctype html") ||
		strings.Contains(head, "<body")
}

// PlainText normalizes document input for the structuring stage. HTML is
// reduced to readable text (headings, paragraphs, list items, in document
// order, with boilerplate removed); anything else passes through trimmed.
func PlainText(input string) string {
	if !LooksLikeHTML(input) {
		return strings.TrimSpace(input)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err != nil {
		// Unparseable markup: better to structure the raw text than to fail
		return strings.TrimSpace(input)
	}

	doc.Find("script, style, noscript, nav, header, footer, aside").Remove()

	root := doc.Find("article").First()
	if root.Length() == 0 {
		root = doc.Find("main").First()
	}
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}
	if root.Length() == 0 {
		root = doc.Selection
	}

	var parts []string
	root.Find("h1, h2, h3, h4, h5, h6, p, li, pre, blockquote").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		if goquery.NodeName(s)[0] == 'h' {
			text = "# " + text
		}
		parts = append(parts, text)
	})

	if len(parts) == 0 {
		// No recognizable structure; fall back to the flattened text
		return strings.TrimSpace(doc.Text())
	}

	return strings.Join(parts, "\n\n")
}
