package history

import (
	"context"
	"fmt"
	"strings"

	"ai-agent-be/internal/entity"
	"ai-agent-be/internal/repository/unitofwork"
	"ai-agent-be/pkg/rag/search"

	"github.com/google/uuid"
)

const (
	DefaultTopK = 5

	// retrievalMinScore is the relevance floor when history is searched semantically
	retrievalMinScore = 0.6
)

// Retriever is the part of search.Orchestrator the builder needs
type Retriever interface {
	Retrieve(ctx context.Context, req search.Request) (string, error)
}

// Builder renders conversation history for prompting. With a retriever,
// past turns are ranked by relevance to the input instead of recency.
type Builder struct {
	uowFactory unitofwork.RepositoryFactory
	retriever  Retriever
}

// NewBuilder creates a history builder. Pass a nil retriever when the
// agent has no embedding model.
func NewBuilder(uowFactory unitofwork.RepositoryFactory, retriever Retriever) *Builder {
	return &Builder{
		uowFactory: uowFactory,
		retriever:  retriever,
	}
}

func (b *Builder) UsesRetrieval() bool {
	return b.retriever != nil
}

// History returns at most topK prior messages of the dialog as text
func (b *Builder) History(ctx context.Context, input string, dialogId uuid.UUID, topK int) (string, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	if b.retriever != nil {
		minScore := retrievalMinScore
		return b.retriever.Retrieve(ctx, search.Request{
			Query:    input,
			Scope:    []string{dialogId.String()},
			MinScore: &minScore,
			TopK:     &topK,
			Rewrite:  false,
			Field:    search.FieldContent,
		})
	}

	uow := b.uowFactory.NewUnitOfWork(ctx)
	messages, err := uow.HistoryMessageRepository().FindRecent(ctx, dialogId, topK)
	if err != nil {
		return "", fmt.Errorf("load recent history: %w", err)
	}
	return Render(messages), nil
}

// Render concatenates messages as "role: content" lines in the given order
func Render(messages []*entity.HistoryMessage) string {
	var sb strings.Builder
	for _, m := range messages {
		sb.WriteString(FormatMessage(m.Role, m.Content))
	}
	return sb.String()
}

// FormatMessage is the rendered text of a single message. The indexer
// stores history in the same shape so both paths read alike.
func FormatMessage(role, content string) string {
	return role + ": " + content + "\n"
}
