package store

// Source identifies the backend a document was retrieved from
type Source string

const (
	SourceLexical Source = "lexical"
	SourceVector  Source = "vector"
)

// Document is a retrieved passage flowing through the RAG pipeline.
// Score is backend-relative until the reranker replaces it.
type Document struct {
	ID       string                 `json:"id"`
	Title    string                 `json:"title,omitempty"`
	Content  string                 `json:"content"`
	Score    float64                `json:"score"`
	Source   Source                 `json:"source,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// RankedDocument is a document scored against the original query
type RankedDocument struct {
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}
