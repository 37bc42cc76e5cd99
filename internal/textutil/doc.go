// Package textutil provides the lexical primitives used by the matching engine.
//
// Text is normalized (NFKC, lowercase), split on non-alphanumeric runs and
// stripped of stop words and tokens shorter than three characters. On top of
// the tokenizer the package offers Jaccard overlap, term-frequency
// fingerprints with cosine similarity and a corpus for IDF weighting.
package textutil
