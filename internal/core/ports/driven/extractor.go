package driven

import "context"

// TextExtractor converts raw document bytes into plain text.
// Extraction happens once per document at the start of ingestion;
// the rest of the pipeline only ever sees the extracted text.
//
// Implementations exist per file type (plain text, Markdown, PDF).
type TextExtractor interface {
	// Extract returns the plain text content of the document.
	// Failures wrap domain.ErrExtractionFailed.
	Extract(ctx context.Context, data []byte) (string, error)

	// Extensions returns the file extensions this extractor handles,
	// lower case with leading dot (".txt", ".pdf").
	Extensions() []string
}

// ExtractorRegistry resolves an extractor for a filename.
type ExtractorRegistry interface {
	// ForFilename returns the extractor responsible for the file's
	// extension, or an error wrapping domain.ErrUnsupportedFormat.
	ForFilename(filename string) (TextExtractor, error)
}
