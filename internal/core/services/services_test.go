package services

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"

	"github.com/archivist-labs/parley-cli/internal/core/ports/driven"
)

// fakeEmbedder is a deterministic in-process embedding service. Texts
// map to stable vectors so retrieval ordering is reproducible; failures
// can be scripted per call.
type fakeEmbedder struct {
	mu         sync.Mutex
	dims       int
	fixed      map[string][]float32
	failNext   int           // fail this many upcoming EmbedBatch calls
	failWith   error         // error to fail with (defaults to a transient one)
	wrongDims  bool          // return vectors one element short
	block      bool          // wait for ctx cancellation instead of answering
	blocked    chan struct{} // receives when a blocked call has started
	calls      int
	batchSizes []int
}

var errEmbedderDown = errors.New("embedding backend down")

func newFakeEmbedder(dims int) *fakeEmbedder {
	return &fakeEmbedder{dims: dims, fixed: make(map[string][]float32)}
}

func (f *fakeEmbedder) vectorFor(text string) []float32 {
	if v, ok := f.fixed[text]; ok {
		return v
	}
	// Stable pseudo-embedding derived from the text.
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()
	v := make([]float32, f.dims)
	for i := range v {
		seed = seed*1664525 + 1013904223
		v[i] = float32(seed%1000)/1000 + 0.001
	}
	return v
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.batchSizes = append(f.batchSizes, len(texts))

	if f.block {
		f.mu.Unlock()
		select {
		case f.blocked <- struct{}{}:
		default:
		}
		<-ctx.Done()
		f.mu.Lock()
		return nil, ctx.Err()
	}

	if f.failNext > 0 {
		f.failNext--
		if f.failWith != nil {
			return nil, f.failWith
		}
		return nil, errEmbedderDown
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v := f.vectorFor(text)
		if f.wrongDims {
			v = v[:len(v)-1]
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (f *fakeEmbedder) Dimensions() int   { return f.dims }
func (f *fakeEmbedder) ModelName() string { return "fake-embed" }

func (f *fakeEmbedder) Ping(context.Context) error { return nil }
func (f *fakeEmbedder) Close() error               { return nil }

var _ driven.EmbeddingService = (*fakeEmbedder)(nil)

// fakeGenerator scripts the generation service.
type fakeGenerator struct {
	mu      sync.Mutex
	answer  string
	err     error
	block   bool // wait for ctx cancellation instead of answering
	prompts []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	block, err, answer := f.block, f.err, f.answer
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	return answer, nil
}

func (f *fakeGenerator) ModelName() string          { return "fake-gen" }
func (f *fakeGenerator) Ping(context.Context) error { return nil }
func (f *fakeGenerator) Close() error               { return nil }

var _ driven.GenerationService = (*fakeGenerator)(nil)
