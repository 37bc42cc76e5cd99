package ai

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spigell/outlet-matcher/internal/textutil"
	"github.com/spigell/outlet-matcher/internal/utils"
	"go.uber.org/zap"
)

const defaultMaxLogLength = 120

// EmbeddingSimilarity compares texts by cosine similarity of their embeddings.
// Embeddings are cached in memory by content hash for the process lifetime.
type EmbeddingSimilarity struct {
	embedder Embedder
	logger   *zap.Logger

	cacheMu sync.RWMutex
	cache   map[string][]float32
}

func NewEmbeddingSimilarity(embedder Embedder, logger *zap.Logger) *EmbeddingSimilarity {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmbeddingSimilarity{
		embedder: embedder,
		logger:   logger,
		cache:    make(map[string][]float32),
	}
}

func (e *EmbeddingSimilarity) Name() string { return BackendGemini }

func (e *EmbeddingSimilarity) Similarity(ctx context.Context, a, b string) (float64, error) {
	if e == nil || e.embedder == nil {
		return 0, errors.New("embedding backend is not initialized")
	}
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return 0, ErrEmptyText
	}

	vectors, err := e.vectors(ctx, a, b)
	if err != nil {
		return 0, err
	}
	return textutil.CosineVectors(vectors[0], vectors[1]), nil
}

// Warm embeds texts that are not cached yet in a single request. Blank and
// repeated texts are skipped.
func (e *EmbeddingSimilarity) Warm(ctx context.Context, texts []string) error {
	if e == nil || e.embedder == nil {
		return errors.New("embedding backend is not initialized")
	}
	seen := make(map[string]bool, len(texts))
	batch := make([]string, 0, len(texts))
	for _, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		batch = append(batch, text)
	}
	if len(batch) == 0 {
		return nil
	}
	_, err := e.vectors(ctx, batch...)
	return err
}

func (e *EmbeddingSimilarity) vectors(ctx context.Context, texts ...string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))

	var missing []string
	var missingIdx []int

	e.cacheMu.RLock()
	for i, text := range texts {
		keys[i] = hash(text)
		if v, ok := e.cache[keys[i]]; ok {
			out[i] = v
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	e.cacheMu.RUnlock()

	if len(missing) == 0 {
		return out, nil
	}

	e.logger.Debug("embedding request",
		zap.String("model", e.embedder.Model()),
		zap.Int("texts", len(missing)),
		zap.String("first_preview", utils.TruncateForLog(missing[0], defaultMaxLogLength)),
	)

	vectors, err := e.embedder.Embed(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("embed texts: %w", err)
	}
	if len(vectors) != len(missing) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(missing))
	}

	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	for j, i := range missingIdx {
		e.cache[keys[i]] = vectors[j]
		out[i] = vectors[j]
	}

	return out, nil
}

func hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%x", sum[:])
}
