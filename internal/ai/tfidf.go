package ai

import (
	"context"
	"strings"

	"github.com/spigell/outlet-matcher/internal/textutil"
)

// TFIDF compares texts by cosine similarity of TF-IDF weighted term vectors.
// IDF statistics are frozen at construction.
type TFIDF struct {
	idf map[string]float64
}

// NewTFIDF builds the IDF table from the given documents.
func NewTFIDF(documents []string) *TFIDF {
	corpus := textutil.NewCorpus()
	for _, doc := range documents {
		corpus.Add(textutil.NewFingerprint(doc))
	}
	return &TFIDF{idf: corpus.IDF()}
}

func (t *TFIDF) Name() string { return BackendTFIDF }

func (t *TFIDF) Similarity(_ context.Context, a, b string) (float64, error) {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return 0, ErrEmptyText
	}

	fa := textutil.NewFingerprint(a).WithIDF(t.idf)
	fb := textutil.NewFingerprint(b).WithIDF(t.idf)
	return textutil.CosineSimilarity(fa, fb), nil
}
