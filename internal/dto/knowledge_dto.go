package dto

// KnowledgeChunkInput is one chunk announced by the ingestion pipeline
type KnowledgeChunkInput struct {
	ChunkIndex int    `json:"chunk_index"`
	Summary    string `json:"summary"`
	Content    string `json:"content" validate:"required"`
}

// KnowledgeChunksUpserted replaces every chunk of one file
type KnowledgeChunksUpserted struct {
	Scope  string                `json:"scope" validate:"required"`
	FileId string                `json:"file_id" validate:"required"`
	Chunks []KnowledgeChunkInput `json:"chunks" validate:"required,dive"`
}

type KnowledgeFileDeleted struct {
	Scope  string `json:"scope" validate:"required"`
	FileId string `json:"file_id" validate:"required"`
}

type RetrieveRequest struct {
	Query    string   `json:"query" validate:"required"`
	Scope    []string `json:"scope" validate:"required,min=1"`
	MinScore *float64 `json:"min_score,omitempty"`
	TopK     *int     `json:"top_k,omitempty" validate:"omitempty,min=1,max=50"`
	Rewrite  bool     `json:"rewrite"`
	Field    string   `json:"field" validate:"omitempty,oneof=summary content"`
	// Explain also returns every reranked candidate with its score
	Explain bool `json:"explain"`
}

type RetrieveResponse struct {
	Evidence string                   `json:"evidence"`
	Ranked   []RankedDocumentResponse `json:"ranked,omitempty"`
}

type RankedDocumentResponse struct {
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type IndexStatsResponse struct {
	LexicalDocuments uint64 `json:"lexical_documents"`
	OpenSessions     int    `json:"open_sessions"`
}
