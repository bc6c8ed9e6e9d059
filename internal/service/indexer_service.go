package service

import (
	"context"
	"fmt"
	"time"

	"ai-agent-be/internal/dto"
	"ai-agent-be/internal/entity"
	"ai-agent-be/internal/pkg/logger"
	"ai-agent-be/internal/repository/specification"
	"ai-agent-be/internal/repository/unitofwork"
	"ai-agent-be/pkg/embedding"
	"ai-agent-be/pkg/rag/history"
	"ai-agent-be/pkg/rag/search"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// embedConcurrency bounds parallel embedding calls per file
const embedConcurrency = 4

// LexicalIndex is the write side of the keyword store
type LexicalIndex interface {
	Index(chunks ...search.IndexedChunk) error
	DeleteFile(scope, fileID string) (int, error)
}

// IIndexerService keeps the vector and lexical stores in step
type IIndexerService interface {
	IndexKnowledge(ctx context.Context, req *dto.KnowledgeChunksUpserted) (int, error)
	DeleteFile(ctx context.Context, scope, fileId string) error
	IndexHistory(ctx context.Context, msg *dto.HistoryAppendedMessage) error
	// Reload rebuilds the lexical index from stored chunks
	Reload(ctx context.Context) (int, error)
}

type indexerService struct {
	uowFactory unitofwork.RepositoryFactory
	embedder   embedding.EmbeddingProvider
	lexical    LexicalIndex
	logger     logger.ILogger
}

func NewIndexerService(
	uowFactory unitofwork.RepositoryFactory,
	embedder embedding.EmbeddingProvider,
	lexical LexicalIndex,
	log logger.ILogger,
) IIndexerService {
	return &indexerService{
		uowFactory: uowFactory,
		embedder:   embedder,
		lexical:    lexical,
		logger:     log,
	}
}

func (s *indexerService) IndexKnowledge(ctx context.Context, req *dto.KnowledgeChunksUpserted) (int, error) {
	if req.Scope == "" || req.FileId == "" {
		return 0, fmt.Errorf("scope and file_id are required")
	}

	chunks := make([]*entity.KnowledgeChunk, len(req.Chunks))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(embedConcurrency)
	for i, in := range req.Chunks {
		eg.Go(func() error {
			chunk, err := s.embedChunk(egCtx, req.Scope, req.FileId, in)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", in.ChunkIndex, err)
			}
			chunks[i] = chunk
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer uow.Rollback()

	byFile := specification.ByFileID{Scope: req.Scope, FileID: req.FileId}
	if err := uow.KnowledgeChunkRepository().Delete(ctx, byFile); err != nil {
		return 0, fmt.Errorf("delete old chunks: %w", err)
	}
	if err := uow.KnowledgeChunkRepository().CreateBulk(ctx, chunks); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("commit chunks: %w", err)
	}

	if _, err := s.lexical.DeleteFile(req.Scope, req.FileId); err != nil {
		return 0, fmt.Errorf("delete old lexical chunks: %w", err)
	}
	if err := s.lexical.Index(toIndexed(chunks)...); err != nil {
		return 0, err
	}

	s.logger.Info("Indexer", "Knowledge file indexed", map[string]interface{}{
		"scope":   req.Scope,
		"file_id": req.FileId,
		"chunks":  len(chunks),
	})
	return len(chunks), nil
}

func (s *indexerService) embedChunk(ctx context.Context, scope, fileId string, in dto.KnowledgeChunkInput) (*entity.KnowledgeChunk, error) {
	content, err := s.embedder.Generate(ctx, in.Content, embedding.TaskRetrievalDocument)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}

	chunk := &entity.KnowledgeChunk{
		Id:               uuid.New(),
		Scope:            scope,
		FileId:           fileId,
		ChunkIndex:       in.ChunkIndex,
		Summary:          in.Summary,
		Content:          in.Content,
		ContentEmbedding: content.Embedding.Values,
		CreatedAt:        time.Now(),
	}

	if in.Summary != "" {
		summary, err := s.embedder.Generate(ctx, in.Summary, embedding.TaskRetrievalDocument)
		if err != nil {
			return nil, fmt.Errorf("embed summary: %w", err)
		}
		chunk.SummaryEmbedding = summary.Embedding.Values
	}
	return chunk, nil
}

func (s *indexerService) DeleteFile(ctx context.Context, scope, fileId string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.KnowledgeChunkRepository().Delete(ctx, specification.ByFileID{Scope: scope, FileID: fileId}); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	removed, err := s.lexical.DeleteFile(scope, fileId)
	if err != nil {
		return err
	}

	s.logger.Info("Indexer", "Knowledge file removed", map[string]interface{}{
		"scope":   scope,
		"file_id": fileId,
		"lexical": removed,
	})
	return nil
}

// IndexHistory stores one dialog message as a chunk scoped to the dialog,
// rendered the way the recency path renders it
func (s *indexerService) IndexHistory(ctx context.Context, msg *dto.HistoryAppendedMessage) error {
	text := history.FormatMessage(msg.Role, msg.Content)
	res, err := s.embedder.Generate(ctx, text, embedding.TaskRetrievalDocument)
	if err != nil {
		return fmt.Errorf("embed history message: %w", err)
	}

	chunk := &entity.KnowledgeChunk{
		Id:               uuid.New(),
		Scope:            msg.DialogId.String(),
		FileId:           msg.Id.String(),
		Content:          text,
		ContentEmbedding: res.Embedding.Values,
		CreatedAt:        msg.CreatedAt,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.KnowledgeChunkRepository().CreateBulk(ctx, []*entity.KnowledgeChunk{chunk}); err != nil {
		return fmt.Errorf("store history chunk: %w", err)
	}
	return s.lexical.Index(toIndexed([]*entity.KnowledgeChunk{chunk})...)
}

func (s *indexerService) Reload(ctx context.Context) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	chunks, err := uow.KnowledgeChunkRepository().FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load chunks: %w", err)
	}

	const batchSize = 500
	for start := 0; start < len(chunks); start += batchSize {
		end := min(start+batchSize, len(chunks))
		if err := s.lexical.Index(toIndexed(chunks[start:end])...); err != nil {
			return start, err
		}
	}

	s.logger.Info("Indexer", "Lexical index rebuilt", map[string]interface{}{
		"chunks": len(chunks),
	})
	return len(chunks), nil
}

func toIndexed(chunks []*entity.KnowledgeChunk) []search.IndexedChunk {
	out := make([]search.IndexedChunk, len(chunks))
	for i, c := range chunks {
		out[i] = search.IndexedChunk{
			ID:         c.Id.String(),
			Scope:      c.Scope,
			FileID:     c.FileId,
			ChunkIndex: c.ChunkIndex,
			Summary:    c.Summary,
			Content:    c.Content,
		}
	}
	return out
}
