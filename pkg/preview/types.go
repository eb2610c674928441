// Package preview contains the core preview dispatch protocol: the Handler
// contract, the priority-ordered handler registry with health tracking, and
// the Dispatcher that guarantees a structured Outcome for every request.
package preview

import (
	"context"
	"path/filepath"
	"strings"
	"time"
)

// Status classifies an Outcome.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusPartial Status = "partial"
)

// Format identifies the kind of payload carried by Outcome.Content.
type Format string

const (
	FormatHTML     Format = "html"
	FormatText     Format = "text"
	FormatImageRef Format = "image-reference"
)

// Metadata keys attached to Outcomes. Consumers must tolerate missing keys.
const (
	MetaTitle            = "title"
	MetaExtractionMethod = "extraction_method"
	MetaWordCount        = "word_count"
	MetaPageCount        = "page_count"
	MetaReadingTime      = "reading_time_min"
	MetaHeadings         = "headings"
	MetaParagraphs       = "paragraphs"
	MetaLists            = "lists"
	MetaTables           = "tables"
	MetaImages           = "images"
	MetaWarnings         = "warnings"
	MetaFileName         = "file_name"
	MetaFileSize         = "file_size"
	MetaMimeType         = "mime_type"
	MetaHandler          = "handler"
	MetaRequestID        = "request_id"
	MetaStartedAt        = "started_at"
	MetaCompletedAt      = "completed_at"
	MetaDurationMs       = "duration_ms"
	MetaSuggestion       = "suggestion"
	MetaFailureReason    = "failure_reason"
)

// Outcome is the uniform result returned by any handler and by the
// Dispatcher, regardless of success or failure path.
type Outcome struct {
	Status   Status            `json:"status"`
	Format   Format            `json:"format"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SetMeta sets a metadata key, allocating the map on first use.
func (o *Outcome) SetMeta(key, value string) {
	if o.Metadata == nil {
		o.Metadata = make(map[string]string)
	}
	o.Metadata[key] = value
}

// Meta returns a metadata value, empty when absent.
func (o *Outcome) Meta(key string) string {
	if o.Metadata == nil {
		return ""
	}
	return o.Metadata[key]
}

// Options carry advisory rendering hints. Handlers ignore what they do not
// support.
type Options struct {
	// Page, Sheet and Slide select a sub-document where the format has one.
	Page  int    `json:"page,omitempty"`
	Sheet string `json:"sheet,omitempty"`
	Slide int    `json:"slide,omitempty"`

	// Quality is a rendering quality hint (low, standard, high).
	Quality string `json:"quality,omitempty"`

	// LastModified is caller-supplied file metadata passed through to
	// outcome metadata.
	LastModified time.Time `json:"last_modified,omitempty"`
}

// HandlerInfo is the immutable descriptor a handler registers under.
type HandlerInfo struct {
	Name        string   `json:"name"`
	Priority    int      `json:"priority"`
	MimeTypes   []string `json:"mime_types,omitempty"`
	Extensions  []string `json:"extensions,omitempty"`
	Description string   `json:"description,omitempty"`
	Version     string   `json:"version,omitempty"`
}

// Handler is a self-contained preview strategy for one or more file types.
type Handler interface {
	// Info returns the handler descriptor.
	Info() HandlerInfo

	// CanPreview reports whether this handler can preview the given file,
	// based on MIME type or filename extension.
	CanPreview(mimeType, fileName string) bool

	// Preview runs the handler's extraction pipeline and formats an Outcome.
	// Handlers return an error only for unrecoverable failures; whenever
	// some user-meaningful fallback content can be produced they return a
	// success-status Outcome instead.
	Preview(ctx context.Context, blob []byte, fileName, mimeType string, opts *Options) (*Outcome, error)
}

// NormalizeExtension lower-cases an extension and strips a leading dot.
func NormalizeExtension(ext string) string {
	return strings.TrimPrefix(strings.ToLower(ext), ".")
}

// FileExtension returns the normalized extension of a filename (text after
// the last dot), empty when there is none.
func FileExtension(fileName string) string {
	return NormalizeExtension(filepath.Ext(fileName))
}

// Matches is the default capability predicate derived from a descriptor:
// exact MIME match or normalized extension match.
func Matches(info HandlerInfo, mimeType, fileName string) bool {
	for _, mt := range info.MimeTypes {
		if mt == mimeType {
			return true
		}
	}
	ext := FileExtension(fileName)
	if ext == "" {
		return false
	}
	for _, e := range info.Extensions {
		if NormalizeExtension(e) == ext {
			return true
		}
	}
	return false
}
