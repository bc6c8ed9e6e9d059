package search

import (
	"ai-agent-be/internal/pkg/logger"
	"ai-agent-be/pkg/rerank"
	"ai-agent-be/pkg/rewrite"
	"ai-agent-be/pkg/store"
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("ai-agent-be/rag/search")

// Orchestrator runs rewrite, dual retrieval, merge, rerank and filtering
type Orchestrator struct {
	retriever *DualRetriever
	reranker  rerank.Reranker
	rewriter  rewrite.Rewriter
	config    Config
	logger    logger.ILogger
}

// NewOrchestrator creates a new search orchestrator. A nil rewriter
// leaves queries untouched.
func NewOrchestrator(
	retriever *DualRetriever,
	reranker rerank.Reranker,
	rewriter rewrite.Rewriter,
	config Config,
	log logger.ILogger,
) *Orchestrator {
	if rewriter == nil {
		rewriter = rewrite.Identity{}
	}
	if config.CandidatesPerSource <= 0 {
		config.CandidatesPerSource = DefaultConfig().CandidatesPerSource
	}
	return &Orchestrator{
		retriever: retriever,
		reranker:  reranker,
		rewriter:  rewriter,
		config:    config,
		logger:    log,
	}
}

func (o *Orchestrator) Config() Config {
	return o.config
}

// Retrieve returns the evidence text for req, one document per line,
// or NoDocumentsFound.
func (o *Orchestrator) Retrieve(ctx context.Context, req Request) (string, error) {
	if req.Field == "" {
		req.Field = FieldContent
	}
	if !req.Field.Valid() {
		return "", fmt.Errorf("%w: unknown field %q", ErrRetrieval, req.Field)
	}

	ctx, span := tracer.Start(ctx, "search.Retrieve")
	defer span.End()
	span.SetAttributes(
		attribute.String("rag.field", string(req.Field)),
		attribute.Bool("rag.rewrite", req.Rewrite),
		attribute.Int("rag.scope_count", len(req.Scope)),
	)

	ranked, err := o.Rank(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	policy := o.config.resolve(req)
	var selected []store.RankedDocument

	switch req.Field {
	case FieldSummary:
		if len(ranked) < policy.topK {
			o.logger.Debug("Retrieval", "summary field too sparse, escalating to content", map[string]interface{}{
				"ranked": len(ranked),
				"top_k":  policy.topK,
			})
			escalated := req
			escalated.Field = FieldContent
			return o.Retrieve(ctx, escalated)
		}
		selected = aboveMinScore(ranked[:policy.topK], policy.minScore)
	case FieldContent:
		if len(ranked) > policy.topK {
			selected = aboveMinScore(ranked[:policy.topK], policy.minScore)
		} else {
			// Few hits: keep everything the fallback tier found
			selected = ranked
		}
	}

	span.SetAttributes(attribute.Int("rag.selected", len(selected)))
	return render(selected), nil
}

// Rank runs the pipeline up to and including reranking. The result is
// sorted by descending score.
func (o *Orchestrator) Rank(ctx context.Context, req Request) ([]store.RankedDocument, error) {
	variants := []string{req.Query}
	if req.Rewrite {
		rewritten, err := o.rewriter.Rewrite(ctx, req.Query)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
		}
		if len(rewritten) > 0 {
			variants = rewritten
		}
	}

	lexical, vector, err := o.retriever.Retrieve(ctx, variants, req.Scope, req.Field)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}

	merged := Merge(lexical, vector)
	o.logger.Debug("Retrieval", "candidates merged", map[string]interface{}{
		"variants": len(variants),
		"lexical":  len(lexical),
		"vector":   len(vector),
		"merged":   len(merged),
		"field":    string(req.Field),
	})
	if len(merged) == 0 {
		return []store.RankedDocument{}, nil
	}

	texts := make([]string, len(merged))
	for i, doc := range merged {
		texts[i] = doc.Content
	}

	// Always rank against what the user typed, not a rewrite
	ranked, err := o.reranker.Rerank(ctx, req.Query, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: rerank: %w", ErrRetrieval, err)
	}
	rerank.SortDescending(ranked)
	return ranked, nil
}

func aboveMinScore(ranked []store.RankedDocument, minScore float64) []store.RankedDocument {
	kept := make([]store.RankedDocument, 0, len(ranked))
	for _, doc := range ranked {
		if doc.Score >= minScore {
			kept = append(kept, doc)
		}
	}
	return kept
}

func render(docs []store.RankedDocument) string {
	if len(docs) == 0 {
		return NoDocumentsFound
	}
	parts := make([]string, len(docs))
	for i, doc := range docs {
		parts[i] = doc.Content
	}
	return strings.Join(parts, "\n")
}
