// Package reader extracts plain text from uploaded files, dispatched by
// file extension. Unsupported formats yield empty text so the caller can
// report a structured no_text_extracted error instead of crashing.
package reader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/JeYeMC/rag-service/internal/logger"
)

// FileReader implements the DocumentReader capability over local files.
type FileReader struct{}

// New creates a FileReader.
func New() *FileReader {
	return &FileReader{}
}

// Extract returns the plain text of the file at path.
func (r *FileReader) Extract(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".csv", ".log":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return string(data), nil
	case ".pdf":
		return extractPDF(path)
	case ".eml":
		return extractEML(path)
	default:
		logger.Warn("Unsupported file format: %s", path)
		return "", nil
	}
}

// extractPDF pulls the embedded text layer out of a PDF. Scanned PDFs
// without a text layer come back empty; OCR is out of scope.
func extractPDF(path string) (string, error) {
	f, doc, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	reader, err := doc.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract PDF text from %s: %w", path, err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("failed to read PDF text from %s: %w", path, err)
	}
	return buf.String(), nil
}

// extractEML strips RFC 822 headers except the ones that carry signal for
// classification (From, To, Subject), then returns the body.
func extractEML(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	headerEnd := strings.Index(text, "\n\n")
	if headerEnd < 0 {
		return text, nil
	}

	var kept []string
	for _, line := range strings.Split(text[:headerEnd], "\n") {
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "from:") || strings.HasPrefix(lower, "to:") ||
			strings.HasPrefix(lower, "subject:") || strings.HasPrefix(lower, "asunto:") {
			kept = append(kept, line)
		}
	}
	kept = append(kept, text[headerEnd+2:])
	return strings.Join(kept, "\n"), nil
}

// CountPDFImages counts image XObjects in a PDF by scanning the raw
// stream. Best-effort layout metadata; a failure here never aborts
// ingestion.
func CountPDFImages(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return bytes.Count(data, []byte("/Subtype /Image")) +
		bytes.Count(data, []byte("/Subtype/Image")), nil
}
