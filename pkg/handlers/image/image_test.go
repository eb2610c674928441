package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ameerarsath/publicdocsafe-sub000/pkg/preview"
)

func buildPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCanPreview(t *testing.T) {
	h := NewHandler()

	assert.True(t, h.CanPreview("image/png", ""))
	assert.True(t, h.CanPreview("image/webp", ""))
	assert.True(t, h.CanPreview("", "photo.jpg"))
	assert.True(t, h.CanPreview("", "scan.TIFF"))
	assert.False(t, h.CanPreview("", "doc.pdf"))
	assert.False(t, h.CanPreview("application/pdf", ""))
}

func TestPreviewReturnsDataURI(t *testing.T) {
	blob := buildPNG(t, 4, 3)

	h := NewHandler()
	outcome, err := h.Preview(context.Background(), blob, "pixel.png", "image/png", nil)
	require.NoError(t, err)

	assert.Equal(t, preview.StatusSuccess, outcome.Status)
	assert.Equal(t, preview.FormatImageRef, outcome.Format)
	assert.True(t, strings.HasPrefix(outcome.Content, "data:image/png;base64,"))

	payload := strings.TrimPrefix(outcome.Content, "data:image/png;base64,")
	decoded, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	assert.Equal(t, blob, decoded)

	assert.Equal(t, "4", outcome.Metadata["width"])
	assert.Equal(t, "3", outcome.Metadata["height"])
	assert.Equal(t, "png", outcome.Metadata["image_format"])
}

func TestPreviewUndecodableImageExplainsItself(t *testing.T) {
	h := NewHandler()
	o, err := h.Preview(context.Background(), []byte("definitely not an image"), "photo.png", "image/png", nil)
	require.NoError(t, err)
	require.NotNil(t, o)

	assert.Equal(t, preview.StatusSuccess, o.Status)
	assert.Equal(t, preview.FormatText, o.Format)
	assert.Contains(t, o.Content, "photo.png")
	assert.Contains(t, o.Content, "download")
	assert.Equal(t, "fallback", o.Meta(preview.MetaExtractionMethod))
	assert.Equal(t, "image/png", o.Meta(preview.MetaMimeType))
}
