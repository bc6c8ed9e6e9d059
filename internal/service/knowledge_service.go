package service

import (
	"context"
	"fmt"

	"ai-agent-be/internal/dto"
	"ai-agent-be/internal/pkg/logger"
	"ai-agent-be/internal/pkg/serverutils"
	"ai-agent-be/pkg/events"
	"ai-agent-be/pkg/rag/search"
	"ai-agent-be/pkg/store"
)

// Ranker is the read side of the retrieval pipeline
type Ranker interface {
	Retrieve(ctx context.Context, req search.Request) (string, error)
	Rank(ctx context.Context, req search.Request) ([]store.RankedDocument, error)
}

type IKnowledgeService interface {
	// HandleEvent applies an ingestion event from the bus
	HandleEvent(ctx context.Context, event events.Event) error
	Retrieve(ctx context.Context, req *dto.RetrieveRequest) (*dto.RetrieveResponse, error)
}

type knowledgeService struct {
	indexer IIndexerService
	ranker  Ranker
	logger  logger.ILogger
}

func NewKnowledgeService(indexer IIndexerService, ranker Ranker, log logger.ILogger) IKnowledgeService {
	return &knowledgeService{
		indexer: indexer,
		ranker:  ranker,
		logger:  log,
	}
}

func (s *knowledgeService) HandleEvent(ctx context.Context, event events.Event) error {
	switch event.EventType() {
	case events.TypeKnowledgeChunkUpsert:
		var req dto.KnowledgeChunksUpserted
		if err := events.DecodeData(event, &req); err != nil {
			return s.drop(event, err)
		}
		if err := serverutils.ValidateRequest(req); err != nil {
			return s.drop(event, err)
		}
		_, err := s.indexer.IndexKnowledge(ctx, &req)
		return err

	case events.TypeKnowledgeFileDeleted:
		var req dto.KnowledgeFileDeleted
		if err := events.DecodeData(event, &req); err != nil {
			return s.drop(event, err)
		}
		if err := serverutils.ValidateRequest(req); err != nil {
			return s.drop(event, err)
		}
		return s.indexer.DeleteFile(ctx, req.Scope, req.FileId)

	default:
		s.logger.Debug("Knowledge", "Ignoring event", map[string]interface{}{
			"type": event.EventType(),
		})
		return nil
	}
}

// drop logs an event that can never succeed and acknowledges it
func (s *knowledgeService) drop(event events.Event, err error) error {
	s.logger.Error("Knowledge", "Dropping invalid event", map[string]interface{}{
		"type":  event.EventType(),
		"error": err.Error(),
	})
	return nil
}

func (s *knowledgeService) Retrieve(ctx context.Context, req *dto.RetrieveRequest) (*dto.RetrieveResponse, error) {
	searchReq := search.Request{
		Query:    req.Query,
		Scope:    req.Scope,
		MinScore: req.MinScore,
		TopK:     req.TopK,
		Rewrite:  req.Rewrite,
		Field:    search.Field(req.Field),
	}

	evidence, err := s.ranker.Retrieve(ctx, searchReq)
	if err != nil {
		return nil, err
	}
	resp := &dto.RetrieveResponse{Evidence: evidence}
	if !req.Explain {
		return resp, nil
	}

	ranked, err := s.ranker.Rank(ctx, searchReq)
	if err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}
	resp.Ranked = make([]dto.RankedDocumentResponse, len(ranked))
	for i, doc := range ranked {
		resp.Ranked[i] = dto.RankedDocumentResponse{Content: doc.Content, Score: doc.Score}
	}
	return resp, nil
}
