package search

import (
	"ai-agent-be/pkg/store"
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

// IndexedChunk is the lexical view of a knowledge chunk or history message
type IndexedChunk struct {
	ID         string
	Scope      string
	FileID     string
	ChunkIndex int
	Summary    string
	Content    string
}

// BleveStore is an in-memory full-text index over chunks, filtered by scope
type BleveStore struct {
	mu    sync.RWMutex
	index bleve.Index
	limit int
}

var _ LexicalStore = (*BleveStore)(nil)

// NewBleveStore creates a mem-only index. limit caps hits per search.
func NewBleveStore(limit int) (*BleveStore, error) {
	index, err := bleve.NewMemOnly(buildChunkMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}
	if limit <= 0 {
		limit = 10
	}
	return &BleveStore{index: index, limit: limit}, nil
}

func buildChunkMapping() mapping.IndexMapping {
	chunkMapping := bleve.NewDocumentMapping()

	// Exact-match filters
	chunkMapping.AddFieldMappingsAt("scope", bleve.NewKeywordFieldMapping())
	chunkMapping.AddFieldMappingsAt("file_id", bleve.NewKeywordFieldMapping())

	chunkMapping.AddFieldMappingsAt(string(FieldSummary), bleve.NewTextFieldMapping())
	chunkMapping.AddFieldMappingsAt(string(FieldContent), bleve.NewTextFieldMapping())

	chunkIndexMapping := bleve.NewTextFieldMapping()
	chunkIndexMapping.Index = false
	chunkIndexMapping.IncludeInAll = false
	chunkMapping.AddFieldMappingsAt("chunk_index", chunkIndexMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", chunkMapping)
	return indexMapping
}

func (s *BleveStore) Index(chunks ...IndexedChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.index.NewBatch()
	for _, c := range chunks {
		doc := map[string]interface{}{
			"scope":       c.Scope,
			"file_id":     c.FileID,
			"summary":     c.Summary,
			"content":     c.Content,
			"chunk_index": strconv.Itoa(c.ChunkIndex),
		}
		if err := batch.Index(c.ID, doc); err != nil {
			return fmt.Errorf("failed to index chunk %s: %w", c.ID, err)
		}
	}
	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to batch index chunks: %w", err)
	}
	return nil
}

// DeleteFile removes every chunk of one file in a scope
func (s *BleveStore) DeleteFile(scope, fileID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scopeQuery := bleve.NewTermQuery(scope)
	scopeQuery.SetField("scope")
	fileQuery := bleve.NewTermQuery(fileID)
	fileQuery.SetField("file_id")

	request := bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(scopeQuery, fileQuery), 10000, 0, false)
	results, err := s.index.Search(request)
	if err != nil {
		return 0, fmt.Errorf("failed to find file chunks: %w", err)
	}

	batch := s.index.NewBatch()
	for _, hit := range results.Hits {
		batch.Delete(hit.ID)
	}
	if err := s.index.Batch(batch); err != nil {
		return 0, fmt.Errorf("failed to batch delete: %w", err)
	}
	return len(results.Hits), nil
}

// Search matches query against field within scope. Scores are bleve relevance
// scores and only comparable within one call.
func (s *BleveStore) Search(ctx context.Context, text string, scope []string, field Field) ([]store.Document, error) {
	if len(scope) == 0 || text == "" {
		return []store.Document{}, nil
	}

	match := bleve.NewMatchQuery(text)
	match.SetField(string(field))

	scopes := make([]query.Query, len(scope))
	for i, sc := range scope {
		term := bleve.NewTermQuery(sc)
		term.SetField("scope")
		scopes[i] = term
	}

	request := bleve.NewSearchRequestOptions(
		bleve.NewConjunctionQuery(match, bleve.NewDisjunctionQuery(scopes...)),
		s.limit, 0, false,
	)
	request.Fields = []string{"content", "file_id", "scope"}

	s.mu.RLock()
	results, err := s.index.SearchInContext(ctx, request)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	docs := make([]store.Document, 0, len(results.Hits))
	for _, hit := range results.Hits {
		content, _ := hit.Fields["content"].(string)
		fileID, _ := hit.Fields["file_id"].(string)
		sc, _ := hit.Fields["scope"].(string)
		docs = append(docs, store.Document{
			ID:      hit.ID,
			Content: content,
			Score:   hit.Score,
			Source:  store.SourceLexical,
			Metadata: map[string]interface{}{
				"file_id": fileID,
				"scope":   sc,
			},
		})
	}
	return docs, nil
}

func (s *BleveStore) Count() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

func (s *BleveStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}
