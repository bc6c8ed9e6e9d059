package search

import (
	"ai-agent-be/pkg/store"
	"context"
	"errors"
)

// Field selects which text of a chunk is matched
type Field string

const (
	FieldSummary Field = "summary"
	FieldContent Field = "content"
)

func (f Field) Valid() bool {
	return f == FieldSummary || f == FieldContent
}

// NoDocumentsFound is returned instead of an empty evidence string
const NoDocumentsFound = "No relevant documents found."

// ErrRetrieval wraps every store, reranker or rewriter failure surfaced by Retrieve
var ErrRetrieval = errors.New("retrieval failed")

// LexicalStore is a keyword (BM25) backend
type LexicalStore interface {
	Search(ctx context.Context, query string, scope []string, field Field) ([]store.Document, error)
}

// VectorStore is an embedding-similarity backend
type VectorStore interface {
	Search(ctx context.Context, query string, scope []string, field Field) ([]store.Document, error)
}

// Config holds process-wide retrieval defaults
type Config struct {
	MinScore float64
	TopK     int
	// CandidatesPerSource is the store fetch limit; the merge still keeps
	// at most MergePerSource of each
	CandidatesPerSource int
}

func DefaultConfig() Config {
	return Config{
		MinScore:            0.5,
		TopK:                3,
		CandidatesPerSource: 5,
	}
}

// Request is one retrieval call. Nil MinScore or TopK fall back to Config.
type Request struct {
	Query    string
	Scope    []string
	MinScore *float64
	TopK     *int
	Rewrite  bool
	Field    Field
}

// filterPolicy is the resolved min_score and top_k of a request
type filterPolicy struct {
	minScore float64
	topK     int
}

func (c Config) resolve(req Request) filterPolicy {
	policy := filterPolicy{minScore: c.MinScore, topK: c.TopK}
	if req.MinScore != nil {
		policy.minScore = *req.MinScore
	}
	if req.TopK != nil {
		policy.topK = *req.TopK
	}
	return policy
}
