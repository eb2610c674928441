// Package text previews plain text, markdown, CSV and source files.
package text

import (
	"context"
	"fmt"

	"github.com/ameerarsath/publicdocsafe-sub000/pkg/extract"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/handlers"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/preview"
)

// maxPreviewBytes truncates oversized text files instead of refusing them.
const maxPreviewBytes = 512 * 1024

// NewHandler creates the text preview handler. Priority sits below the
// format-specific handlers so an exact match always wins.
func NewHandler(minUsable int) *handlers.Base {
	info := preview.HandlerInfo{
		Name:     "text",
		Priority: 40,
		MimeTypes: []string{
			"text/plain", "text/markdown", "text/csv",
			"application/json", "application/xml",
		},
		Extensions: []string{
			"txt", "text", "md", "markdown", "csv", "log",
			"json", "xml", "yaml", "yml",
		},
		Description: "Plain text preview",
		Version:     "1.0.0",
	}

	pipeline := extract.NewPipeline(minUsable, &directStrategy{})

	return handlers.New(info, pipeline, preview.FormatText)
}

// directStrategy reads the blob as UTF-8, rejecting content that reads as
// binary.
type directStrategy struct{}

func (s *directStrategy) Method() extract.Method { return extract.MethodDirect }

func (s *directStrategy) Extract(ctx context.Context, blob []byte, fileName string) (*extract.Result, error) {
	var warnings []string
	if len(blob) > maxPreviewBytes {
		blob = blob[:maxPreviewBytes]
		warnings = append(warnings, fmt.Sprintf("preview truncated to %d KB", maxPreviewBytes/1024))
	}

	content := extract.CleanUTF8(string(blob))
	if content == "" {
		return nil, fmt.Errorf("content is not valid text")
	}

	return &extract.Result{
		Content:   content,
		PlainText: content,
		Succeeded: true,
		Warnings:  warnings,
	}, nil
}
