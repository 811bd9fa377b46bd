package extractors

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
	"github.com/archivist-labs/parley-cli/internal/core/ports/driven"
)

// Ensure PlainText implements the interface.
var _ driven.TextExtractor = (*PlainText)(nil)

// PlainText handles files that already are plain text.
type PlainText struct{}

// NewPlainText creates a plain text extractor.
func NewPlainText() *PlainText {
	return &PlainText{}
}

// Extract validates the bytes as UTF-8 and normalises line endings.
func (e *PlainText) Extract(_ context.Context, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: content is not valid UTF-8", domain.ErrExtractionFailed)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return text, nil
}

// Extensions returns the handled file extensions.
func (e *PlainText) Extensions() []string {
	return []string{".txt", ".text", ".log"}
}
