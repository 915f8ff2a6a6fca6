package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/docsift/docsift/core"
)

// SupportedExtensions lists the file extensions the extractor understands.
var SupportedExtensions = []string{".pdf", ".txt", ".md"}

// IsSupported reports whether path has an extractable file extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// Extract reads a source document and returns its normalized text.
// PDF pages are extracted in page order; plain text and markdown files are
// read verbatim. The result is cleaned via Clean. An unreadable or
// unsupported document returns an error; a readable document with no
// extractable text returns an empty string.
func Extract(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".txt", ".md":
		return extractPlain(path)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func extractPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrExtractionFailed, path, err)
	}
	defer f.Close()

	pieces := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single damaged page is skipped; the rest of the
			// document is still usable.
			pieces = append(pieces, "")
			continue
		}
		pieces = append(pieces, Clean(text))
	}

	return Clean(strings.Join(pieces, "\n\n")), nil
}

func extractPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrExtractionFailed, path, err)
	}
	return Clean(string(data)), nil
}

// Load extracts a document, chunks it, and returns content-identified chunks
// for the whole file. The source name is the file's base name; positions are
// 1-based chunk ordinals. A document yielding no text returns an empty list.
func Load(path string, size, overlap int) ([]*core.Chunk, error) {
	text, err := Extract(path)
	if err != nil {
		return nil, err
	}
	pieces, err := Split(text, size, overlap)
	if err != nil {
		return nil, err
	}

	source := filepath.Base(path)
	chunks := make([]*core.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, core.NewChunk(source, i+1, piece))
	}
	return chunks, nil
}
