// Package word previews Microsoft Word documents. The pipeline runs the
// docx library first, falls back to scraping the OOXML container, and ends
// with a raw printable-byte scan for legacy or damaged files.
package word

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nguyenthenguyen/docx"

	"github.com/ameerarsath/publicdocsafe-sub000/pkg/extract"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/handlers"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/preview"
)

const (
	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeDoc  = "application/msword"
)

// NewHandler creates the Word preview handler.
func NewHandler(minUsable int) *handlers.Base {
	info := preview.HandlerInfo{
		Name:        "word",
		Priority:    80,
		MimeTypes:   []string{mimeDocx, mimeDoc},
		Extensions:  []string{"docx", "doc"},
		Description: "Word document preview with layered extraction",
		Version:     "1.0.0",
	}

	pipeline := extract.NewPipeline(minUsable,
		&libraryStrategy{},
		&extract.ArchiveTextStrategy{
			Match:        func(name string) bool { return name == "word/document.xml" },
			TextElement:  "t",
			BreakElement: "p",
		},
		&extract.RawTextStrategy{},
	)

	return handlers.New(info, pipeline, preview.FormatText)
}

// libraryStrategy reads the document through the docx library, which also
// resolves headers and footers the container scrape misses.
type libraryStrategy struct{}

func (s *libraryStrategy) Method() extract.Method { return extract.MethodLibrary }

func (s *libraryStrategy) Extract(ctx context.Context, blob []byte, fileName string) (*extract.Result, error) {
	reader, err := docx.ReadDocxFromMemory(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	defer reader.Close()

	text, paragraphs := documentText(reader.Editable().GetContent())
	if text == "" {
		return nil, fmt.Errorf("document has no text content")
	}

	return &extract.Result{
		Content:   text,
		PlainText: text,
		Succeeded: true,
		Metadata: map[string]string{
			"source_paragraphs": strconv.Itoa(paragraphs),
		},
	}, nil
}

// documentText flattens WordprocessingML into plain text: text runs join
// inside a paragraph, paragraphs and explicit breaks become newlines.
func documentText(content string) (string, int) {
	decoder := xml.NewDecoder(strings.NewReader(content))

	var sb strings.Builder
	paragraphs := 0
	inText := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "br", "cr":
				sb.WriteByte('\n')
			case "tab":
				sb.WriteByte('\t')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				paragraphs++
				sb.WriteByte('\n')
			}
		}
	}

	return strings.TrimSpace(sb.String()), paragraphs
}
