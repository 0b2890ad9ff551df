package ingestion

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// textFromPDF returns the PDF's embedded text, page by page. A document with
// no text layer yields "" so the caller can fall back to OCR.
func textFromPDF(ctx context.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("pdf page %d: %w", i, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			sb.WriteString(text)
			sb.WriteString("\n\n")
		}
	}

	if text := strings.TrimSpace(sb.String()); text != "" {
		return text, nil
	}
	return pdftotext(ctx, path), nil
}

// pdftotext shells out to poppler when it is installed. Missing binaries and
// failures both give "".
func pdftotext(ctx context.Context, path string) string {
	out, err := exec.CommandContext(ctx, "pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
