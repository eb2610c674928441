package preview

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHandler is a scripted handler for registry and dispatcher tests.
type fakeHandler struct {
	info       HandlerInfo
	canPreview func(mimeType, fileName string) bool
	preview    func(ctx context.Context, blob []byte, fileName, mimeType string, opts *Options) (*Outcome, error)
	calls      int
}

func (h *fakeHandler) Info() HandlerInfo { return h.info }

func (h *fakeHandler) CanPreview(mimeType, fileName string) bool {
	if h.canPreview != nil {
		return h.canPreview(mimeType, fileName)
	}
	return Matches(h.info, mimeType, fileName)
}

func (h *fakeHandler) Preview(ctx context.Context, blob []byte, fileName, mimeType string, opts *Options) (*Outcome, error) {
	h.calls++
	if h.preview != nil {
		return h.preview(ctx, blob, fileName, mimeType, opts)
	}
	return &Outcome{Status: StatusSuccess, Format: FormatText, Content: "preview of " + fileName}, nil
}

func docxHandler(name string, priority int) *fakeHandler {
	return &fakeHandler{info: HandlerInfo{
		Name:       name,
		Priority:   priority,
		Extensions: []string{"docx"},
		MimeTypes:  []string{"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	}}
}

func TestHandlerRegistry_RegisterValidation(t *testing.T) {
	reg := NewHandlerRegistry(0)

	tests := []struct {
		name    string
		handler Handler
	}{
		{"nil handler", nil},
		{"empty name", &fakeHandler{info: HandlerInfo{Extensions: []string{"txt"}}}},
		{"negative priority", &fakeHandler{info: HandlerInfo{Name: "neg", Priority: -1, Extensions: []string{"txt"}}}},
		{"no capabilities", &fakeHandler{info: HandlerInfo{Name: "nocaps", Priority: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.Register(tt.handler)
			require.Error(t, err)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
	assert.Equal(t, 0, reg.Count())
}

func TestHandlerRegistry_DuplicateIsNoOp(t *testing.T) {
	reg := NewHandlerRegistry(0)

	require.NoError(t, reg.Register(docxHandler("word", 10)))
	require.NoError(t, reg.Register(docxHandler("word", 99)), "duplicate registration must not error")

	assert.Equal(t, 1, reg.Count())
	assert.Len(t, reg.Handlers(), 1)
	assert.Equal(t, 10, reg.Handlers()[0].Priority, "first registration wins")
}

func TestHandlerRegistry_SelectByPriority(t *testing.T) {
	reg := NewHandlerRegistry(0)

	low := docxHandler("low", 10)
	high := docxHandler("high", 90)
	require.NoError(t, reg.Register(low))
	require.NoError(t, reg.Register(high))

	selected := reg.Select("", "letter.docx")
	require.NotNil(t, selected)
	assert.Equal(t, "high", selected.Info().Name)
}

func TestHandlerRegistry_SelectScenario(t *testing.T) {
	// H1 priority 5 and H2 priority 50 both match .docx; H2's preview runs.
	reg := NewHandlerRegistry(0)
	h1 := docxHandler("h1", 5)
	h2 := docxHandler("h2", 50)
	require.NoError(t, reg.Register(h1))
	require.NoError(t, reg.Register(h2))

	selected := reg.Select("application/octet-stream", "contract.docx")
	require.NotNil(t, selected)
	_, err := selected.Preview(context.Background(), []byte("x"), "contract.docx", "", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, h2.calls)
	assert.Equal(t, 0, h1.calls)
}

func TestHandlerRegistry_SelectByMimeType(t *testing.T) {
	reg := NewHandlerRegistry(0)
	h := &fakeHandler{info: HandlerInfo{
		Name: "plain", Priority: 1, MimeTypes: []string{"text/plain"},
	}}
	require.NoError(t, reg.Register(h))

	assert.NotNil(t, reg.Select("text/plain", "noextension"))
	assert.Nil(t, reg.Select("application/zip", "noextension"))
}

func TestHandlerRegistry_SelectNoMatch(t *testing.T) {
	reg := NewHandlerRegistry(0)
	require.NoError(t, reg.Register(docxHandler("word", 10)))

	assert.Nil(t, reg.Select("image/png", "photo.png"))
}

func TestHandlerRegistry_CapabilityIsolation(t *testing.T) {
	reg := NewHandlerRegistry(0)

	broken := &fakeHandler{
		info:       HandlerInfo{Name: "broken", Priority: 90, Extensions: []string{"docx"}},
		canPreview: func(string, string) bool { panic("predicate bug") },
	}
	healthy := docxHandler("healthy", 10)
	require.NoError(t, reg.Register(broken))
	require.NoError(t, reg.Register(healthy))

	// First call: broken panics, gets disabled, healthy still selected.
	selected := reg.Select("", "a.docx")
	require.NotNil(t, selected)
	assert.Equal(t, "healthy", selected.Info().Name)
	assert.Equal(t, []string{"broken"}, reg.Disabled())

	// Subsequent calls: broken is excluded without re-running its predicate.
	selected = reg.Select("", "b.docx")
	require.NotNil(t, selected)
	assert.Equal(t, "healthy", selected.Info().Name)
}

func TestHandlerRegistry_HealthDisablement(t *testing.T) {
	threshold := 3
	reg := NewHandlerRegistry(threshold)
	h := docxHandler("flaky", 10)
	require.NoError(t, reg.Register(h))

	// threshold failures: still enabled.
	for i := 0; i < threshold; i++ {
		reg.RecordOutcome("flaky", false, 10*time.Millisecond)
	}
	assert.NotNil(t, reg.Select("", "a.docx"))

	// One more crosses the threshold.
	reg.RecordOutcome("flaky", false, 10*time.Millisecond)
	assert.Nil(t, reg.Select("", "a.docx"))

	rec, ok := reg.Health("flaky")
	require.True(t, ok)
	assert.Equal(t, int64(threshold+1), rec.FailureCount)

	// Operator recovery.
	reg.ResetDisabled()
	assert.NotNil(t, reg.Select("", "a.docx"))
}

func TestHandlerRegistry_RecordOutcomeIgnoresUnknownHandler(t *testing.T) {
	reg := NewHandlerRegistry(0)
	require.NoError(t, reg.Register(docxHandler("word", 10)))

	reg.RecordOutcome("ghost", false, time.Millisecond)

	_, ok := reg.Health("ghost")
	assert.False(t, ok, "unregistered names must not grow health records")
	assert.Empty(t, reg.Disabled())
}

func TestHandlerRegistry_RecordOutcomeAverages(t *testing.T) {
	reg := NewHandlerRegistry(0)
	require.NoError(t, reg.Register(docxHandler("word", 10)))

	reg.RecordOutcome("word", true, 100*time.Millisecond)
	reg.RecordOutcome("word", true, 300*time.Millisecond)

	rec, ok := reg.Health("word")
	require.True(t, ok)
	assert.Equal(t, int64(2), rec.SuccessCount)
	assert.Equal(t, int64(0), rec.FailureCount)
	assert.Equal(t, 400*time.Millisecond, rec.TotalProcessing)
	assert.Equal(t, 200*time.Millisecond, rec.AverageProcessing)
	assert.False(t, rec.LastUsed.IsZero())
}

func TestHandlerRegistry_HealthSnapshot(t *testing.T) {
	reg := NewHandlerRegistry(0)
	require.NoError(t, reg.Register(docxHandler("word", 10)))
	reg.RecordOutcome("word", true, time.Millisecond)

	snap := reg.HealthSnapshot()
	require.Contains(t, snap, "word")
	assert.Equal(t, int64(1), snap["word"].SuccessCount)

	// Snapshot is a copy, not a live view.
	reg.RecordOutcome("word", true, time.Millisecond)
	assert.Equal(t, int64(1), snap["word"].SuccessCount)
}

func TestMatches(t *testing.T) {
	info := HandlerInfo{
		MimeTypes:  []string{"application/pdf"},
		Extensions: []string{".PDF", "pdf"},
	}

	assert.True(t, Matches(info, "application/pdf", "whatever"))
	assert.True(t, Matches(info, "", "report.pdf"))
	assert.True(t, Matches(info, "", "REPORT.PDF"))
	assert.False(t, Matches(info, "text/plain", "report.txt"))
	assert.False(t, Matches(info, "", "noextension"))
}
