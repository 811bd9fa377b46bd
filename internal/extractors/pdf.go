package extractors

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
	"github.com/archivist-labs/parley-cli/internal/core/ports/driven"
)

// Ensure PDF implements the interface.
var _ driven.TextExtractor = (*PDF)(nil)

// PDF extracts text content from PDF documents.
type PDF struct{}

// NewPDF creates a PDF extractor.
func NewPDF() *PDF {
	return &PDF{}
}

// Extract returns the plain text of all pages.
func (e *PDF) Extract(_ context.Context, data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: opening PDF: %v", domain.ErrExtractionFailed, err)
	}

	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: reading PDF text: %v", domain.ErrExtractionFailed, err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(content); err != nil {
		return "", fmt.Errorf("%w: reading PDF text: %v", domain.ErrExtractionFailed, err)
	}

	text := strings.TrimSpace(buf.String())
	if text == "" {
		return "", fmt.Errorf("%w: PDF contains no extractable text", domain.ErrExtractionFailed)
	}
	return text, nil
}

// Extensions returns the handled file extensions.
func (e *PDF) Extensions() []string {
	return []string{".pdf"}
}
