package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ArchiveTextStrategy scrapes text runs out of the XML parts of an OOXML or
// OpenDocument zip container. It is the degraded path used when the
// format-specific library cannot read the file: no schema interpretation,
// just character data from the named text element.
type ArchiveTextStrategy struct {
	// Match selects which archive entries to scrape (e.g. word/document.xml,
	// ppt/slides/slideN.xml).
	Match func(name string) bool

	// TextElement is the local name of the XML element holding text runs
	// ("t" for OOXML).
	TextElement string

	// BreakElement is the local name of the element whose close ends a
	// paragraph ("p" for OOXML). Empty means every text run is its own line.
	BreakElement string
}

func (s *ArchiveTextStrategy) Method() Method { return MethodArchive }

func (s *ArchiveTextStrategy) Extract(ctx context.Context, blob []byte, fileName string) (*Result, error) {
	reader, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	var entries []*zip.File
	for _, f := range reader.File {
		if s.Match(f.Name) {
			entries = append(entries, f)
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no matching parts in archive")
	}
	// Slide and sheet parts carry an index in the name; scrape in order.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	var sb strings.Builder
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.scrapeEntry(entry, &sb); err != nil {
			continue
		}
	}

	content := strings.TrimSpace(sb.String())
	return &Result{
		Content:   content,
		PlainText: content,
		Succeeded: content != "",
	}, nil
}

func (s *ArchiveTextStrategy) scrapeEntry(entry *zip.File, sb *strings.Builder) error {
	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == s.TextElement {
				inText = true
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case s.TextElement:
				inText = false
				if s.BreakElement == "" {
					sb.WriteByte('\n')
				}
			case s.BreakElement:
				sb.WriteByte('\n')
			}
		}
	}
	sb.WriteByte('\n')
	return nil
}

// RawTextStrategy is the last-resort strategy: scan the blob for runs of
// printable characters, the way strings(1) does. Output quality is poor but
// it salvages something from otherwise unreadable files.
type RawTextStrategy struct {
	// MinRun is the minimum printable-run length to keep (default 4).
	MinRun int
	// MaxOutput caps the scraped output size in bytes (default 64 KiB).
	MaxOutput int
}

func (s *RawTextStrategy) Method() Method { return MethodRaw }

func (s *RawTextStrategy) Extract(ctx context.Context, blob []byte, fileName string) (*Result, error) {
	minRun := s.MinRun
	if minRun <= 0 {
		minRun = 4
	}
	maxOutput := s.MaxOutput
	if maxOutput <= 0 {
		maxOutput = 64 * 1024
	}

	content := scrapePrintable(blob, minRun, maxOutput)
	result := &Result{
		Content:   content,
		PlainText: content,
		Succeeded: content != "",
	}
	if content != "" {
		result.Warnings = append(result.Warnings,
			"content recovered by raw byte scan; formatting was lost")
	}
	return result, nil
}

// scrapePrintable extracts runs of printable runes of at least minRun length.
func scrapePrintable(blob []byte, minRun, maxOutput int) string {
	var sb strings.Builder
	var run []rune

	flush := func() {
		if len(run) >= minRun {
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(string(run))
		}
		run = run[:0]
	}

	for i := 0; i < len(blob) && sb.Len() < maxOutput; {
		r, size := utf8.DecodeRune(blob[i:])
		i += size
		if r != utf8.RuneError && (unicode.IsPrint(r) || r == '\t') && r != '�' {
			run = append(run, r)
			continue
		}
		flush()
	}
	flush()

	return strings.TrimSpace(sb.String())
}

// CleanUTF8 validates and cleans UTF-8 content. Returns empty when more than
// half of the input was invalid, which reads as binary rather than text.
func CleanUTF8(content string) string {
	if utf8.ValidString(content) {
		return content
	}

	cleaned := strings.ToValidUTF8(content, "")

	invalidRatio := float64(len(content)-len(cleaned)) / float64(len(content))
	if invalidRatio > 0.5 {
		return ""
	}

	return cleaned
}
