package media

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderToPartRoundTrip(t *testing.T) {
	content := []byte("hello assistant")

	part, err := ReaderToPart(bytes.NewReader(content), "note.txt")
	require.NoError(t, err)
	assert.Contains(t, part.MIMEType, "text/plain")

	raw, err := part.Bytes()
	require.NoError(t, err)
	assert.Equal(t, content, raw)
}

func TestFileToPart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pixel.png")
	content := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	require.NoError(t, os.WriteFile(path, content, 0o644))

	part, err := FileToPart(path)
	require.NoError(t, err)
	assert.Equal(t, "image/png", part.MIMEType)

	raw, err := part.Bytes()
	require.NoError(t, err)
	assert.Equal(t, content, raw)

	assert.True(t, strings.HasPrefix(part.DataURL(), "data:image/png;base64,"))
}

func TestFileToPartMissingFile(t *testing.T) {
	_, err := FileToPart(filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}

func TestReaderToPartSniffsUnknownExtension(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}

	part, err := ReaderToPart(bytes.NewReader(jpeg), "")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", part.MIMEType)
}

func TestPartBytesRejectsCorruptPayload(t *testing.T) {
	part := FilePart{MIMEType: "image/png", Data: "!!not-base64!!"}
	_, err := part.Bytes()
	assert.Error(t, err)
}
