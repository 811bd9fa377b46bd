// Package extractors converts uploaded document bytes into plain text.
// One extractor exists per supported file type; the registry resolves
// the right one from the filename extension.
package extractors

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
	"github.com/archivist-labs/parley-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps filename extensions to extractors.
type Registry struct {
	byExtension map[string]driven.TextExtractor
}

// NewRegistry creates a registry with all built-in extractors registered.
func NewRegistry() *Registry {
	r := &Registry{byExtension: make(map[string]driven.TextExtractor)}
	r.Register(NewPlainText())
	r.Register(NewMarkdown())
	r.Register(NewPDF())
	return r
}

// Register adds an extractor for each extension it reports. Later
// registrations win on conflict.
func (r *Registry) Register(extractor driven.TextExtractor) {
	for _, ext := range extractor.Extensions() {
		r.byExtension[strings.ToLower(ext)] = extractor
	}
}

// ForFilename returns the extractor for the file's extension.
func (r *Registry) ForFilename(filename string) (driven.TextExtractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return nil, fmt.Errorf("%w: %s has no extension", domain.ErrUnsupportedFormat, filename)
	}
	extractor, ok := r.byExtension[ext]
	if !ok {
		return nil, fmt.Errorf("%w: no extractor for %s", domain.ErrUnsupportedFormat, ext)
	}
	return extractor, nil
}

// Extensions returns every registered extension, for help output.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExtension))
	for ext := range r.byExtension {
		exts = append(exts, ext)
	}
	return exts
}
