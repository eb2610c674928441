// Package image previews raster images. No pixel processing happens here:
// the handler decodes dimensions and returns the image as a data URI the
// client can render directly.
package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"path/filepath"
	"strconv"

	// Register decoders for DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ameerarsath/publicdocsafe-sub000/pkg/preview"
)

var mimeByFormat = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"webp": "image/webp",
}

// Handler previews raster images.
type Handler struct {
	info preview.HandlerInfo
}

// NewHandler creates the image preview handler.
func NewHandler() *Handler {
	return &Handler{
		info: preview.HandlerInfo{
			Name:     "image",
			Priority: 50,
			MimeTypes: []string{
				"image/png", "image/jpeg", "image/gif",
				"image/bmp", "image/tiff", "image/webp",
			},
			Extensions:  []string{"png", "jpg", "jpeg", "gif", "bmp", "tif", "tiff", "webp"},
			Description: "Inline image preview",
			Version:     "1.0.0",
		},
	}
}

func (h *Handler) Info() preview.HandlerInfo { return h.info }

func (h *Handler) CanPreview(mimeType, fileName string) bool {
	return preview.Matches(h.info, mimeType, fileName)
}

func (h *Handler) Preview(ctx context.Context, blob []byte, fileName, mimeType string, opts *preview.Options) (*preview.Outcome, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(blob))
	if err != nil {
		// Corrupt or unsupported image data is an expected input, not a
		// handler fault. Tell the user instead of failing over.
		return undecodableOutcome(fileName, mimeType, len(blob)), nil
	}

	mime := mimeByFormat[format]
	if mime == "" {
		mime = mimeType
	}

	outcome := &preview.Outcome{
		Status:  preview.StatusSuccess,
		Format:  preview.FormatImageRef,
		Content: dataURI(mime, blob),
	}
	outcome.SetMeta(preview.MetaTitle, filepath.Base(fileName))
	outcome.SetMeta(preview.MetaExtractionMethod, "decode")
	outcome.SetMeta(preview.MetaFileName, fileName)
	outcome.SetMeta(preview.MetaMimeType, mime)
	outcome.SetMeta(preview.MetaFileSize, strconv.Itoa(len(blob)))
	outcome.SetMeta("width", strconv.Itoa(cfg.Width))
	outcome.SetMeta("height", strconv.Itoa(cfg.Height))
	outcome.SetMeta("image_format", format)
	return outcome, nil
}

// undecodableOutcome reports image data none of the registered decoders
// understand. The file itself may still be fine to download.
func undecodableOutcome(fileName, mimeType string, size int) *preview.Outcome {
	outcome := &preview.Outcome{
		Status: preview.StatusSuccess,
		Format: preview.FormatText,
		Content: fmt.Sprintf(
			"%s could not be decoded as an image. The file may be corrupt or use an unsupported encoding; download the original to view it.",
			filepath.Base(fileName)),
	}
	outcome.SetMeta(preview.MetaTitle, filepath.Base(fileName))
	outcome.SetMeta(preview.MetaExtractionMethod, "fallback")
	outcome.SetMeta(preview.MetaFileName, fileName)
	outcome.SetMeta(preview.MetaMimeType, mimeType)
	outcome.SetMeta(preview.MetaFileSize, strconv.Itoa(size))
	return outcome
}

func dataURI(mime string, blob []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(blob)
}
