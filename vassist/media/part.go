// Package media converts local files and raw audio into the payload shapes
// the assistant sends upstream: base64 inline parts for prompts and PCM16
// frames for the speech pipeline.
package media

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// FilePart is an inline attachment ready to be embedded in a prompt.
// Data is standard base64 so the payload survives JSON transport unchanged.
type FilePart struct {
	MIMEType string
	Data     string
}

// FileToPart reads the file at path and returns it as an inline part.
// The MIME type is resolved from the extension first, then sniffed from
// content when the extension is unknown.
func FileToPart(path string) (FilePart, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return FilePart{}, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return FilePart{
		MIMEType: detectMIME(path, raw),
		Data:     base64.StdEncoding.EncodeToString(raw),
	}, nil
}

// ReaderToPart drains r into an inline part. name is used only for MIME
// resolution and may be empty, in which case the content is sniffed.
func ReaderToPart(r io.Reader, name string) (FilePart, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return FilePart{}, fmt.Errorf("failed to read part content: %w", err)
	}
	return FilePart{
		MIMEType: detectMIME(name, raw),
		Data:     base64.StdEncoding.EncodeToString(raw),
	}, nil
}

// Bytes decodes the base64 payload back into raw content.
func (p FilePart) Bytes() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode part data: %w", err)
	}
	return raw, nil
}

// DataURL renders the part as a data: URL suitable for direct display.
func (p FilePart) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", p.MIMEType, p.Data)
}

func detectMIME(name string, raw []byte) string {
	if ext := filepath.Ext(name); ext != "" {
		if mt := mime.TypeByExtension(ext); mt != "" {
			return mt
		}
	}
	// DetectContentType never fails; it falls back to application/octet-stream.
	return http.DetectContentType(raw)
}
