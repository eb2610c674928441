package pdfdoc

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ameerarsath/publicdocsafe-sub000/pkg/preview"
)

func TestCanPreview(t *testing.T) {
	h := NewHandler(0)

	assert.True(t, h.CanPreview("application/pdf", ""))
	assert.True(t, h.CanPreview("", "paper.pdf"))
	assert.True(t, h.CanPreview("", "PAPER.PDF"))
	assert.False(t, h.CanPreview("", "paper.docx"))
	assert.False(t, h.CanPreview("text/plain", "notes.txt"))
}

func TestTextStrategyRejectsNonPDF(t *testing.T) {
	s := &textStrategy{}
	_, err := s.Extract(context.Background(), []byte("this is not a pdf document"), "fake.pdf")
	require.Error(t, err)
}

func TestSurveyStrategyRejectsNonPDF(t *testing.T) {
	s := &surveyStrategy{}
	_, err := s.Extract(context.Background(), bytes.Repeat([]byte{0x01}, 128), "fake.pdf")
	require.Error(t, err)
}

func TestPreviewProducesPlaceholderForUnreadablePDF(t *testing.T) {
	blob := append([]byte("%PDF-1.7\n"), bytes.Repeat([]byte{0x02, 0x9c, 0x00}, 100)...)

	h := NewHandler(0)
	outcome, err := h.Preview(context.Background(), blob, "scan.pdf", "application/pdf", nil)
	require.NoError(t, err)

	assert.Equal(t, preview.StatusSuccess, outcome.Status)
	assert.Contains(t, outcome.Content, "scan.pdf")
	assert.Equal(t, "fallback", outcome.Metadata[preview.MetaExtractionMethod])
	assert.NotEmpty(t, outcome.Metadata["attempted_methods"])
}
