package ingestion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// textWithOCR recognises text in an image, or in a scanned PDF after pdftoppm
// has rendered each page to PNG.
func textWithOCR(ctx context.Context, path string) (string, error) {
	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		return ocrImage(path)
	}

	pages, cleanup, err := renderPages(ctx, path)
	if err != nil {
		return "", err
	}
	defer cleanup()

	var (
		texts []string
		errs  []error
	)
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		t, err := ocrImage(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(p), err))
			continue
		}
		texts = append(texts, t)
	}
	if len(texts) == 0 && len(errs) > 0 {
		return "", fmt.Errorf("ocr: %w", errors.Join(errs...))
	}
	return strings.TrimSpace(strings.Join(texts, "\n")), nil
}

// renderPages writes one PNG per page into a temp dir and returns them in
// page order.
func renderPages(ctx context.Context, path string) ([]string, func(), error) {
	dir, err := os.MkdirTemp("", "factcheck-ocr-*")
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { os.RemoveAll(dir) }

	prefix := filepath.Join(dir, "page")
	if out, err := exec.CommandContext(ctx, "pdftoppm", "-png", path, prefix).CombinedOutput(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(string(out)))
	}
	pages, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	// zero-padded page numbers
	sort.Strings(pages)
	return pages, cleanup, nil
}

func ocrImage(path string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImage(path); err != nil {
		return "", err
	}
	text, err := client.Text()
	return strings.TrimSpace(text), err
}
