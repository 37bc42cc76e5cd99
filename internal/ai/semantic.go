// Package ai holds the semantic similarity backends used by the keyword and news scorers.
package ai

import (
	"context"
	"errors"
)

const (
	BackendNone   = "none"
	BackendTFIDF  = "tfidf"
	BackendGemini = "gemini"
)

var ErrEmptyText = errors.New("text must not be empty")

// Semantic scores how close two texts are, in [0,1].
type Semantic interface {
	Name() string
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// Embedder turns texts into dense vectors, one per input, in input order.
type Embedder interface {
	Model() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
