// Package powerpoint previews presentations by scraping slide XML parts
// from the container, one slide per section.
package powerpoint

import (
	"strings"

	"github.com/ameerarsath/publicdocsafe-sub000/pkg/extract"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/handlers"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/preview"
)

const (
	mimePptx = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	mimePpt  = "application/vnd.ms-powerpoint"
)

// NewHandler creates the presentation preview handler.
func NewHandler(minUsable int) *handlers.Base {
	info := preview.HandlerInfo{
		Name:        "powerpoint",
		Priority:    70,
		MimeTypes:   []string{mimePptx, mimePpt},
		Extensions:  []string{"pptx", "ppt"},
		Description: "Presentation preview from slide text",
		Version:     "1.0.0",
	}

	pipeline := extract.NewPipeline(minUsable,
		&extract.ArchiveTextStrategy{
			Match:        isSlidePart,
			TextElement:  "t",
			BreakElement: "p",
		},
		&extract.RawTextStrategy{},
	)

	return handlers.New(info, pipeline, preview.FormatText)
}

// isSlidePart matches ppt/slides/slideN.xml but not relationship parts.
func isSlidePart(name string) bool {
	return strings.HasPrefix(name, "ppt/slides/slide") &&
		strings.HasSuffix(name, ".xml") &&
		!strings.Contains(name, "_rels")
}
