// Package pdfdoc previews PDF documents: page-by-page text extraction first,
// then a container survey that at least reports page structure when the text
// layer is unreadable (scanned documents), then a raw byte scan.
package pdfdoc

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/ameerarsath/publicdocsafe-sub000/pkg/extract"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/handlers"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/preview"
)

// NewHandler creates the PDF preview handler.
func NewHandler(minUsable int) *handlers.Base {
	info := preview.HandlerInfo{
		Name:        "pdf",
		Priority:    80,
		MimeTypes:   []string{"application/pdf"},
		Extensions:  []string{"pdf"},
		Description: "PDF preview with text extraction and structure survey",
		Version:     "1.0.0",
	}

	pipeline := extract.NewPipeline(minUsable,
		&textStrategy{},
		&surveyStrategy{},
		&extract.RawTextStrategy{},
	)

	return handlers.New(info, pipeline, preview.FormatText)
}

// textStrategy extracts the text layer page by page.
type textStrategy struct{}

func (s *textStrategy) Method() extract.Method { return extract.MethodLibrary }

func (s *textStrategy) Extract(ctx context.Context, blob []byte, fileName string) (*extract.Result, error) {
	reader, err := pdf.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}

	totalPages := reader.NumPage()
	var parts []string
	var warnings []string

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("page %d unreadable: %v", pageNum, err))
			continue
		}
		if strings.TrimSpace(text) != "" {
			parts = append(parts, fmt.Sprintf("--- Page %d ---\n%s", pageNum, strings.TrimSpace(text)))
		}
	}

	content := strings.Join(parts, "\n\n")
	return &extract.Result{
		Content:   content,
		PlainText: content,
		Succeeded: content != "",
		Warnings:  warnings,
		Metadata: map[string]string{
			"pages": strconv.Itoa(totalPages),
		},
	}, nil
}

// surveyStrategy reads the cross-reference table only. It produces an
// informative summary for documents whose text layer cannot be extracted,
// typically scans.
type surveyStrategy struct{}

func (s *surveyStrategy) Method() extract.Method { return extract.MethodArchive }

func (s *surveyStrategy) Extract(ctx context.Context, blob []byte, fileName string) (*extract.Result, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(blob), conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	pages := pdfCtx.PageCount
	content := fmt.Sprintf(
		"PDF document %q contains %d page(s), but its text layer could not be read. "+
			"The document is likely composed of scanned images. "+
			"Download the file to view the full content.",
		fileName, pages)

	return &extract.Result{
		Content:   content,
		PlainText: content,
		Succeeded: true,
		Warnings:  []string{"text layer unavailable; structural summary only"},
		Metadata: map[string]string{
			"pages": strconv.Itoa(pages),
		},
	}, nil
}
