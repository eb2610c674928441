// Package extract implements the multi-stage extraction pipeline shared by
// all preview handlers: an ordered list of strategies tried in sequence,
// highest fidelity first, until one yields usable content.
package extract

import "context"

// Method identifies which extraction strategy produced a result. The tag is
// surfaced in preview metadata for diagnostics.
type Method string

const (
	// MethodLibrary is a format-specific parsing library (docx, excelize, pdf).
	MethodLibrary Method = "library"
	// MethodMarkup is a semantic markup conversion (sanitized HTML, markdown).
	MethodMarkup Method = "markup"
	// MethodArchive is raw container/XML scraping of an OOXML zip.
	MethodArchive Method = "archive"
	// MethodRaw is last-resort printable-byte scraping.
	MethodRaw Method = "raw"
	// MethodRemote is the backend processing endpoint.
	MethodRemote Method = "remote"
	// MethodDirect is a passthrough read for plain text content.
	MethodDirect Method = "direct"
	// MethodFallback tags the synthesized placeholder when every strategy failed.
	MethodFallback Method = "fallback"
)

// Result is the output of a single extraction strategy attempt.
type Result struct {
	// Content is the primary textual or HTML payload.
	Content string

	// StructuredMarkup is an optional rich-HTML variant, present only when
	// the strategy produces formatted output rather than plain text.
	StructuredMarkup string

	// PlainText is an optional normalized text used for statistics
	// independent of markup.
	PlainText string

	// Method tags the strategy that produced this result.
	Method Method

	// Succeeded reports whether the strategy considers its own output valid.
	// A result only counts as usable if Succeeded is true and Content passes
	// the pipeline's minimum-length gate.
	Succeeded bool

	// Title is the document title when the strategy could determine one.
	Title string

	// Warnings are non-fatal notes accumulated during extraction.
	Warnings []string

	// Metadata carries strategy-specific key/value pairs (sheet count,
	// page count, author).
	Metadata map[string]string
}

// Strategy is one technique for pulling renderable content from a file blob.
type Strategy interface {
	// Method returns the tag recorded for attempts by this strategy.
	Method() Method

	// Extract attempts extraction. A nil result with nil error means the
	// strategy declined the file; errors are recovered by the pipeline and
	// never propagate past it.
	Extract(ctx context.Context, blob []byte, fileName string) (*Result, error)
}

// Attempt records one strategy invocation, successful or not.
type Attempt struct {
	Method Method
	OK     bool
	Err    string
}
