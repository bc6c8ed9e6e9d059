package rerank

import (
	"ai-agent-be/pkg/store"
	"context"
	"strings"
	"unicode"
)

// KeywordReranker scores each document by the fraction of distinct query
// terms it contains. Used when no cross-encoder is configured.
type KeywordReranker struct{}

func NewKeywordReranker() *KeywordReranker {
	return &KeywordReranker{}
}

func (k *KeywordReranker) Rerank(ctx context.Context, query string, documents []string) ([]store.RankedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	terms := uniqueLowerTerms(query)
	ranked := make([]store.RankedDocument, len(documents))
	for i, doc := range documents {
		ranked[i] = store.RankedDocument{Content: doc, Score: keywordOverlap(terms, doc)}
	}
	SortDescending(ranked)
	return ranked, nil
}

func keywordOverlap(terms map[string]struct{}, text string) float64 {
	if len(terms) == 0 {
		return 0
	}
	docTerms := uniqueLowerTerms(text)
	found := 0
	for term := range terms {
		if _, ok := docTerms[term]; ok {
			found++
		}
	}
	return float64(found) / float64(len(terms))
}

func uniqueLowerTerms(text string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	terms := make(map[string]struct{}, len(words))
	for _, w := range words {
		if len(w) < 2 {
			continue
		}
		terms[w] = struct{}{}
	}
	return terms
}
