package extractors

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
	"github.com/archivist-labs/parley-cli/internal/core/ports/driven"
)

// Ensure Markdown implements the interface.
var _ driven.TextExtractor = (*Markdown)(nil)

// Markdown strips Markdown syntax down to readable text. Formatting
// markers contribute nothing to embeddings, so headings, emphasis and
// link targets are removed while the visible text is kept.
type Markdown struct{}

// NewMarkdown creates a Markdown extractor.
func NewMarkdown() *Markdown {
	return &Markdown{}
}

var (
	mdImage      = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	mdLink       = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	mdHeading    = regexp.MustCompile(`^#{1,6}\s+`)
	mdInlineCode = regexp.MustCompile("`([^`]*)`")
	mdListMarker = regexp.MustCompile(`^(\s*)([-*+]|\d+\.)\s+`)
)

// Extract converts Markdown to plain text.
func (e *Markdown) Extract(_ context.Context, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: content is not valid UTF-8", domain.ErrExtractionFailed)
	}

	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	inFence := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Fenced code blocks keep their content, not the fences.
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			out = append(out, line)
			continue
		}

		// Horizontal rules carry no text.
		if trimmed == "---" || trimmed == "***" || trimmed == "___" {
			continue
		}

		line = mdHeading.ReplaceAllString(line, "")
		line = mdImage.ReplaceAllString(line, "$1")
		line = mdLink.ReplaceAllString(line, "$1")
		line = mdInlineCode.ReplaceAllString(line, "$1")
		line = mdListMarker.ReplaceAllString(line, "$1")
		line = strings.TrimPrefix(line, "> ")
		line = stripEmphasis(line)

		out = append(out, line)
	}

	return strings.Join(out, "\n"), nil
}

// stripEmphasis removes *, ** and _ emphasis markers around words.
func stripEmphasis(line string) string {
	for _, marker := range []string{"***", "**", "*", "___", "__", "_"} {
		for {
			start := strings.Index(line, marker)
			if start < 0 {
				break
			}
			rest := line[start+len(marker):]
			end := strings.Index(rest, marker)
			if end < 0 {
				break
			}
			line = line[:start] + rest[:end] + rest[end+len(marker):]
		}
	}
	return line
}

// Extensions returns the handled file extensions.
func (e *Markdown) Extensions() []string {
	return []string{".md", ".markdown"}
}
