package extract

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// ContentMetrics are layout statistics derived from an extraction result.
type ContentMetrics struct {
	WordCount      int
	PageCount      int
	ReadingTimeMin int
	Headings       int
	Paragraphs     int
	Lists          int
	Tables         int
	Images         int
}

// Analyze computes derived metrics for a result. Word counting prefers the
// normalized PlainText when present; structure counts come from markup tags
// when StructuredMarkup is present, else from plain-text heuristics.
func Analyze(r *Result) ContentMetrics {
	text := r.PlainText
	if text == "" {
		text = r.Content
	}

	words := len(strings.Fields(text))
	m := ContentMetrics{
		WordCount:      words,
		PageCount:      EstimatePages(words),
		ReadingTimeMin: EstimateReadingTime(words),
	}

	if r.StructuredMarkup != "" {
		countMarkup(r.StructuredMarkup, &m)
	} else {
		countPlainText(text, &m)
	}

	return m
}

// EstimatePages estimates page count from word count. Short documents are a
// single page; medium documents assume sparser layout than long ones.
func EstimatePages(words int) int {
	switch {
	case words < 150:
		return 1
	case words < 600:
		return ceilDiv(words, 450)
	default:
		return ceilDiv(words, 500)
	}
}

// EstimateReadingTime estimates reading time in minutes at 225 words per
// minute, minimum one minute.
func EstimateReadingTime(words int) int {
	minutes := ceilDiv(words, 225)
	if minutes < 1 {
		return 1
	}
	return minutes
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// countMarkup walks the HTML tree and tallies structural elements.
func countMarkup(markup string, m *ContentMetrics) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		countPlainText(markup, m)
		return
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h1", "h2", "h3", "h4", "h5", "h6":
				m.Headings++
			case "p":
				m.Paragraphs++
			case "ul", "ol":
				m.Lists++
			case "table":
				m.Tables++
			case "img":
				m.Images++
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
}

// countPlainText applies line-based heuristics: bullet characters open list
// items, markdown-style hashes or short all-caps lines count as headings,
// blank-line-separated blocks count as paragraphs.
func countPlainText(text string, m *ContentMetrics) {
	inParagraph := false
	inList := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			inParagraph = false
			inList = false
			continue
		}

		switch {
		case isBulletLine(trimmed):
			if !inList {
				m.Lists++
				inList = true
			}
		case isHeadingLine(trimmed):
			m.Headings++
			inParagraph = false
		default:
			inList = false
			if !inParagraph {
				m.Paragraphs++
				inParagraph = true
			}
		}
	}
}

func isBulletLine(line string) bool {
	for _, prefix := range []string{"- ", "* ", "• ", "· "} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func isHeadingLine(line string) bool {
	if strings.HasPrefix(line, "#") {
		return true
	}
	// Short all-caps lines read as headings.
	if len(line) > 60 {
		return false
	}
	hasLetter := false
	for _, r := range line {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}
