// Package extract turns local files into plain text.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

var ErrUnsupportedType = errors.New("unsupported file type")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Supported reports whether a file with the given extension can be
// ingested. The extension includes the leading dot.
func Supported(ext string) bool {
	switch strings.ToLower(ext) {
	case ".pdf", ".txt", ".md":
		return true
	}
	return false
}

// File extracts the plain text of a file, dispatching on its extension.
// PDF pages that fail extraction are skipped and reported in warnings;
// the remaining pages still form the document.
func File(path string) (string, []string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return pdfText(path)
	case ".txt", ".md":
		text, err := textFile(path)
		return text, nil, err
	default:
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
}

func textFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(bytes.TrimPrefix(data, utf8BOM)), nil
}

func pdfText(path string) (string, []string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var parts []string
	var warnings []string
	for i := 1; i <= reader.NumPage(); i++ {
		text, err := pageText(reader, i)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("page %d: %v", i, err))
			continue
		}
		if text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n\n"), warnings, nil
}

// pageText isolates one page. The pdf library panics on some malformed
// page trees; a bad page must not sink the rest of the document.
func pageText(reader *pdf.Reader, n int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extraction failed: %v", r)
		}
	}()

	page := reader.Page(n)
	if page.V.IsNull() {
		return "", errors.New("missing page object")
	}
	return page.GetPlainText(nil)
}
