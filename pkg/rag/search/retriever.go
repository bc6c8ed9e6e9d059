package search

import (
	"ai-agent-be/pkg/store"
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
)

// DualRetriever queries the lexical and vector stores side by side
type DualRetriever struct {
	lexical LexicalStore
	vector  VectorStore
}

func NewDualRetriever(lexical LexicalStore, vector VectorStore) *DualRetriever {
	return &DualRetriever{lexical: lexical, vector: vector}
}

// Retrieve searches both stores for every variant. The first failure
// cancels the remaining searches.
func (r *DualRetriever) Retrieve(ctx context.Context, variants []string, scope []string, field Field) (lexical, vector []store.Document, err error) {
	lexicalHits := make([][]store.Document, len(variants))
	vectorHits := make([][]store.Document, len(variants))

	g, gctx := errgroup.WithContext(ctx)
	for i, variant := range variants {
		g.Go(func() error {
			docs, err := r.lexical.Search(gctx, variant, scope, field)
			if err != nil {
				return fmt.Errorf("lexical search: %w", err)
			}
			lexicalHits[i] = tagSource(docs, store.SourceLexical)
			return nil
		})
		g.Go(func() error {
			docs, err := r.vector.Search(gctx, variant, scope, field)
			if err != nil {
				return fmt.Errorf("vector search: %w", err)
			}
			vectorHits[i] = tagSource(docs, store.SourceVector)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return flatten(lexicalHits), flatten(vectorHits), nil
}

// MergePerSource is how many documents each store contributes to a rerank
// call. Stores may return more candidates; only these reach the reranker.
const MergePerSource = 5

// Merge keeps the best MergePerSource documents of each source, lexical first
func Merge(lexical, vector []store.Document) []store.Document {
	merged := make([]store.Document, 0, 2*MergePerSource)
	merged = append(merged, topByScore(lexical, MergePerSource)...)
	merged = append(merged, topByScore(vector, MergePerSource)...)
	return merged
}

func topByScore(docs []store.Document, n int) []store.Document {
	sorted := make([]store.Document, len(docs))
	copy(sorted, docs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func tagSource(docs []store.Document, source store.Source) []store.Document {
	for i := range docs {
		docs[i].Source = source
	}
	return docs
}

func flatten(groups [][]store.Document) []store.Document {
	var out []store.Document
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
