// Package ingestion turns local files and raw text into documents that can
// be fact-checked.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Gbollysearch7/Hallucination-Agent/internal/processing"
)

var ErrUnsupportedType = errors.New("unsupported file type")

var allowedExt = []string{".pdf", ".txt", ".md", ".png", ".jpg", ".jpeg"}

// Document is extracted text plus where it came from.
type Document struct {
	processing.Metadata
	Text string `json:"-"`
}

func newDocument(text string, meta processing.Metadata) *Document {
	text = strings.TrimSpace(text)
	meta.ImportedAt = time.Now().UTC()
	meta.Chars = utf8.RuneCountInString(text)
	return &Document{Metadata: meta, Text: text}
}

// FromText wraps text that did not come from a file.
func FromText(text, source string) *Document {
	return newDocument(text, processing.Metadata{Source: source})
}

// FromReader reads all of r as plain text.
func FromReader(r io.Reader, source string) (*Document, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}
	return FromText(string(b), source), nil
}

// LoadFile detects the file type and returns its text via direct extraction
// or OCR. PDFs without a text layer fall back to OCR.
func LoadFile(ctx context.Context, path string) (*Document, error) {
	text, err := extractText(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return newDocument(text, processing.Metadata{
		Path:   path,
		Source: "file",
		Title:  strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}), nil
}

func extractText(ctx context.Context, path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case ".pdf":
		text, err := textFromPDF(ctx, path)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
		return textWithOCR(ctx, path)
	case ".png", ".jpg", ".jpeg":
		return textWithOCR(ctx, path)
	default:
		return "", ErrUnsupportedType
	}
}

// Supported reports whether LoadFile can read path.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, a := range allowedExt {
		if ext == a {
			return true
		}
	}
	return false
}

// Scan walks root and returns every supported file in lexical order.
func Scan(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if Supported(path) {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}
