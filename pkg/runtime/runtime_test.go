package runtime

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ameerarsath/publicdocsafe-sub000/pkg/config"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/preview"
)

func TestNewAssemblesAllHandlers(t *testing.T) {
	rt, err := New(config.Default())
	require.NoError(t, err)

	names := make([]string, 0)
	for _, h := range rt.Registry.Handlers() {
		names = append(names, h.Name)
	}

	assert.Len(t, names, 7)
	for _, want := range []string{"word", "excel", "pdf", "powerpoint", "html", "text", "image"} {
		assert.Contains(t, names, want)
	}
}

func TestRuntimePreviewsPlainText(t *testing.T) {
	rt, err := New(config.Default())
	require.NoError(t, err)

	content := strings.Repeat("All work and no play makes for dull documentation. ", 5)
	outcome := rt.Dispatcher.Preview(context.Background(), []byte(content), "notes.txt", "text/plain", nil)

	require.NotNil(t, outcome)
	assert.Equal(t, preview.StatusSuccess, outcome.Status)
	assert.Contains(t, outcome.Content, "dull documentation")
	assert.Equal(t, "text", outcome.Metadata[preview.MetaHandler])
}

func TestRuntimeFallsBackForUnknownType(t *testing.T) {
	rt, err := New(config.Default())
	require.NoError(t, err)

	outcome := rt.Dispatcher.Preview(context.Background(), []byte{0x00, 0x01, 0x02}, "firmware.bin", "application/octet-stream", nil)

	require.NotNil(t, outcome)
	assert.Equal(t, preview.StatusSuccess, outcome.Status)
	assert.Contains(t, outcome.Content, "firmware.bin")
}
