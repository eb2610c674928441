// Package excel previews spreadsheets. The excelize library renders sheet
// contents cell by cell; when it cannot open the workbook the pipeline falls
// back to scraping the shared-strings part of the container.
package excel

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ameerarsath/publicdocsafe-sub000/pkg/extract"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/handlers"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/preview"
)

const (
	mimeXlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeXls  = "application/vnd.ms-excel"
)

// maxCellsPerSheet caps output per sheet to keep previews bounded.
const maxCellsPerSheet = 1000

// NewHandler creates the spreadsheet preview handler.
func NewHandler(minUsable int) *handlers.Base {
	info := preview.HandlerInfo{
		Name:        "excel",
		Priority:    80,
		MimeTypes:   []string{mimeXlsx, mimeXls},
		Extensions:  []string{"xlsx", "xls"},
		Description: "Spreadsheet preview with per-sheet cell rendering",
		Version:     "1.0.0",
	}

	pipeline := extract.NewPipeline(minUsable,
		&libraryStrategy{},
		&extract.ArchiveTextStrategy{
			Match:       func(name string) bool { return name == "xl/sharedStrings.xml" },
			TextElement: "t",
		},
		&extract.RawTextStrategy{},
	)

	return handlers.New(info, pipeline, preview.FormatText)
}

type libraryStrategy struct{}

func (s *libraryStrategy) Method() extract.Method { return extract.MethodLibrary }

func (s *libraryStrategy) Extract(ctx context.Context, blob []byte, fileName string) (*extract.Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	var parts []string
	var warnings []string

	for _, sheetName := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, truncated, err := renderSheet(f, sheetName)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("sheet %q unreadable: %v", sheetName, err))
			continue
		}
		if truncated {
			warnings = append(warnings, fmt.Sprintf("sheet %q truncated at %d cells", sheetName, maxCellsPerSheet))
		}
		if text != "" {
			parts = append(parts, text)
		}
	}

	content := strings.Join(parts, "\n\n")
	return &extract.Result{
		Content:   content,
		PlainText: content,
		Succeeded: content != "",
		Warnings:  warnings,
		Metadata: map[string]string{
			"sheets": fmt.Sprintf("%d", len(sheets)),
		},
	}, nil
}

// renderSheet writes one sheet as "CellRef: value" lines.
func renderSheet(f *excelize.File, sheetName string) (string, bool, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return "", false, err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("--- Sheet: %s ---\n", sheetName))

	cellCount := 0
	truncated := false
	for rowIndex, row := range rows {
		for colIndex, cell := range row {
			if cellCount >= maxCellsPerSheet {
				truncated = true
				break
			}
			text := strings.TrimSpace(cell)
			if text == "" {
				continue
			}
			cellRef, err := excelize.CoordinatesToCellName(colIndex+1, rowIndex+1)
			if err != nil {
				continue
			}
			sb.WriteString(fmt.Sprintf("%s: %s\n", cellRef, text))
			cellCount++
		}
		if truncated {
			break
		}
	}

	if cellCount == 0 {
		return "", false, nil
	}
	return strings.TrimSpace(sb.String()), truncated, nil
}
