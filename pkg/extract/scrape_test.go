package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestArchiveTextStrategy_Docx(t *testing.T) {
	blob := buildArchive(t, map[string]string{
		"word/document.xml": `<?xml version="1.0"?>
			<w:document xmlns:w="ns">
				<w:body>
					<w:p><w:r><w:t>First paragraph</w:t></w:r></w:p>
					<w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph</w:t></w:r></w:p>
				</w:body>
			</w:document>`,
		"word/styles.xml": `<w:styles xmlns:w="ns"><w:t>ignored</w:t></w:styles>`,
	})

	s := &ArchiveTextStrategy{
		Match:        func(name string) bool { return name == "word/document.xml" },
		TextElement:  "t",
		BreakElement: "p",
	}

	result, err := s.Extract(context.Background(), blob, "report.docx")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Succeeded)
	assert.Contains(t, result.Content, "First paragraph")
	assert.Contains(t, result.Content, "Second paragraph")
	assert.NotContains(t, result.Content, "ignored")
}

func TestArchiveTextStrategy_NotAnArchive(t *testing.T) {
	s := &ArchiveTextStrategy{
		Match:       func(string) bool { return true },
		TextElement: "t",
	}

	_, err := s.Extract(context.Background(), []byte("plain bytes, no zip"), "x.docx")
	assert.Error(t, err)
}

func TestArchiveTextStrategy_NoMatchingParts(t *testing.T) {
	blob := buildArchive(t, map[string]string{"other.xml": "<a><t>hi</t></a>"})

	s := &ArchiveTextStrategy{
		Match:       func(name string) bool { return name == "word/document.xml" },
		TextElement: "t",
	}

	_, err := s.Extract(context.Background(), blob, "x.docx")
	assert.Error(t, err)
}

func TestRawTextStrategy(t *testing.T) {
	blob := append([]byte{0x00, 0x01, 0x02}, []byte("Recovered sentence from binary")...)
	blob = append(blob, 0xFF, 0xFE)
	blob = append(blob, []byte("and another readable run")...)

	s := &RawTextStrategy{}
	result, err := s.Extract(context.Background(), blob, "junk.bin")
	require.NoError(t, err)
	assert.True(t, result.Succeeded)
	assert.Contains(t, result.Content, "Recovered sentence from binary")
	assert.Contains(t, result.Content, "and another readable run")
	assert.NotEmpty(t, result.Warnings)
}

func TestRawTextStrategy_DropsShortRuns(t *testing.T) {
	blob := []byte{'a', 'b', 0x00, 'c', 'd', 0x00}

	s := &RawTextStrategy{MinRun: 4}
	result, err := s.Extract(context.Background(), blob, "junk.bin")
	require.NoError(t, err)
	assert.False(t, result.Succeeded)
	assert.Empty(t, result.Content)
}

func TestCleanUTF8(t *testing.T) {
	assert.Equal(t, "clean text", CleanUTF8("clean text"))

	mixed := "mostly good text here" + string([]byte{0xff, 0xfe})
	cleaned := CleanUTF8(mixed)
	assert.Equal(t, "mostly good text here", cleaned)

	mostlyBinary := string(bytes.Repeat([]byte{0xff}, 100)) + "hi"
	assert.Empty(t, CleanUTF8(mostlyBinary))
}

func TestScrapePrintable_CapsOutput(t *testing.T) {
	blob := []byte(strings.Repeat("longish printable content ", 1000))
	out := scrapePrintable(blob, 4, 100)
	assert.LessOrEqual(t, len(out), 130)
}
