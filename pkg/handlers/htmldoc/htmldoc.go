// Package htmldoc previews HTML files. The primary strategy sanitizes the
// markup for safe embedding; the fallback converts it to markdown-flavoured
// plain text.
package htmldoc

import (
	"context"
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/ameerarsath/publicdocsafe-sub000/pkg/extract"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/handlers"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/preview"
)

// NewHandler creates the HTML preview handler.
func NewHandler(minUsable int) *handlers.Base {
	info := preview.HandlerInfo{
		Name:        "html",
		Priority:    60,
		MimeTypes:   []string{"text/html", "application/xhtml+xml"},
		Extensions:  []string{"html", "htm", "xhtml"},
		Description: "Sanitized HTML preview",
		Version:     "1.0.0",
	}

	pipeline := extract.NewPipeline(minUsable,
		&sanitizeStrategy{policy: bluemonday.UGCPolicy()},
		newMarkdownStrategy(),
	)

	return handlers.New(info, pipeline, preview.FormatHTML)
}

// sanitizeStrategy strips scripts, styles and event handlers, keeping the
// user-generated-content element set for embedding.
type sanitizeStrategy struct {
	policy *bluemonday.Policy
}

func (s *sanitizeStrategy) Method() extract.Method { return extract.MethodMarkup }

func (s *sanitizeStrategy) Extract(ctx context.Context, blob []byte, fileName string) (*extract.Result, error) {
	raw := extract.CleanUTF8(string(blob))
	if raw == "" {
		return nil, fmt.Errorf("content is not valid text")
	}

	sanitized := strings.TrimSpace(s.policy.Sanitize(raw))
	if sanitized == "" {
		return nil, fmt.Errorf("no renderable markup after sanitization")
	}

	result := &extract.Result{
		Content:          sanitized,
		StructuredMarkup: sanitized,
		PlainText:        textContent(raw),
		Succeeded:        true,
	}
	if title := documentTitle(raw); title != "" {
		result.Title = title
	}
	return result, nil
}

// markdownStrategy converts the HTML to markdown text, used when the
// sanitized markup collapses to nothing.
type markdownStrategy struct {
	conv *converter.Converter
}

func newMarkdownStrategy() *markdownStrategy {
	return &markdownStrategy{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

func (s *markdownStrategy) Method() extract.Method { return extract.MethodDirect }

func (s *markdownStrategy) Extract(ctx context.Context, blob []byte, fileName string) (*extract.Result, error) {
	raw := extract.CleanUTF8(string(blob))
	if raw == "" {
		return nil, fmt.Errorf("content is not valid text")
	}

	markdown, err := s.conv.ConvertString(raw)
	if err != nil {
		return nil, fmt.Errorf("convert to markdown: %w", err)
	}
	markdown = strings.TrimSpace(markdown)

	return &extract.Result{
		Content:   markdown,
		PlainText: markdown,
		Succeeded: markdown != "",
	}, nil
}

// documentTitle returns the <title> text, if any.
func documentTitle(raw string) string {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return ""
	}

	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}

// textContent flattens the document body to plain text for statistics.
func textContent(raw string) string {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sb.String()
}
