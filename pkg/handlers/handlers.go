// Package handlers provides the shared scaffolding for concrete preview
// handlers: a Base type that wires a descriptor and an extraction pipeline
// into the preview.Handler contract, plus the per-format subpackages.
package handlers

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ameerarsath/publicdocsafe-sub000/pkg/extract"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/preview"
)

// Base implements preview.Handler on top of an extraction pipeline. Concrete
// handlers supply the descriptor, the strategy chain, and the output format.
type Base struct {
	info     preview.HandlerInfo
	pipeline *extract.Pipeline
	format   preview.Format
}

// New creates a Base handler.
func New(info preview.HandlerInfo, pipeline *extract.Pipeline, format preview.Format) *Base {
	return &Base{
		info:     info,
		pipeline: pipeline,
		format:   format,
	}
}

// Info returns the handler descriptor.
func (b *Base) Info() preview.HandlerInfo { return b.info }

// Pipeline exposes the extraction pipeline so assembly code can append the
// backend remote strategy when one is configured.
func (b *Base) Pipeline() *extract.Pipeline { return b.pipeline }

// CanPreview applies the default descriptor-derived capability predicate.
func (b *Base) CanPreview(mimeType, fileName string) bool {
	return preview.Matches(b.info, mimeType, fileName)
}

// Preview runs the pipeline and formats the result. It never returns an
// error: the pipeline terminates with a placeholder when every strategy
// fails, and that placeholder is itself user-meaningful content.
func (b *Base) Preview(ctx context.Context, blob []byte, fileName, mimeType string, opts *preview.Options) (*preview.Outcome, error) {
	result, attempts := b.pipeline.Run(ctx, blob, fileName)
	metrics := extract.Analyze(result)

	outcome := &preview.Outcome{
		Status:  statusFor(result),
		Format:  b.formatFor(result),
		Content: result.Content,
	}

	title := result.Title
	if title == "" {
		title = filepath.Base(fileName)
	}
	outcome.SetMeta(preview.MetaTitle, title)
	outcome.SetMeta(preview.MetaExtractionMethod, string(result.Method))
	outcome.SetMeta(preview.MetaFileName, fileName)
	outcome.SetMeta(preview.MetaMimeType, mimeType)
	outcome.SetMeta(preview.MetaFileSize, strconv.Itoa(len(blob)))
	outcome.SetMeta(preview.MetaWordCount, strconv.Itoa(metrics.WordCount))
	outcome.SetMeta(preview.MetaPageCount, strconv.Itoa(metrics.PageCount))
	outcome.SetMeta(preview.MetaReadingTime, strconv.Itoa(metrics.ReadingTimeMin))
	outcome.SetMeta(preview.MetaHeadings, strconv.Itoa(metrics.Headings))
	outcome.SetMeta(preview.MetaParagraphs, strconv.Itoa(metrics.Paragraphs))
	outcome.SetMeta(preview.MetaLists, strconv.Itoa(metrics.Lists))
	outcome.SetMeta(preview.MetaTables, strconv.Itoa(metrics.Tables))
	outcome.SetMeta(preview.MetaImages, strconv.Itoa(metrics.Images))

	for k, v := range result.Metadata {
		outcome.SetMeta(k, v)
	}
	if len(result.Warnings) > 0 {
		outcome.SetMeta(preview.MetaWarnings, strings.Join(result.Warnings, "; "))
	}
	if opts != nil && !opts.LastModified.IsZero() {
		outcome.SetMeta("last_modified", opts.LastModified.UTC().Format("2006-01-02T15:04:05Z07:00"))
	}
	if len(attempts) > 1 {
		tried := make([]string, 0, len(attempts))
		for _, a := range attempts {
			tried = append(tried, string(a.Method))
		}
		outcome.SetMeta("attempted_methods", strings.Join(tried, ","))
	}

	return outcome, nil
}

// statusFor maps an extraction result to an outcome status: degraded raw
// scraping reads as partial, everything else (including the informative
// placeholder) as success.
func statusFor(r *extract.Result) preview.Status {
	if r.Method == extract.MethodRaw {
		return preview.StatusPartial
	}
	return preview.StatusSuccess
}

// formatFor downgrades the declared format to text when the winning result
// carries no structured markup.
func (b *Base) formatFor(r *extract.Result) preview.Format {
	if b.format == preview.FormatHTML && r.StructuredMarkup == "" {
		return preview.FormatText
	}
	return b.format
}
