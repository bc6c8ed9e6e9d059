package agent

import (
	"context"

	"ai-agent-be/pkg/llm"
	"ai-agent-be/pkg/rag/search"
	"ai-agent-be/pkg/tools"

	"github.com/google/uuid"
)

// HistorySource renders the prior turns of a dialog
type HistorySource interface {
	History(ctx context.Context, input string, dialogId uuid.UUID, topK int) (string, error)
}

// KnowledgeRetriever fetches evidence from the agent's knowledge bases
type KnowledgeRetriever interface {
	Retrieve(ctx context.Context, req search.Request) (string, error)
}

// RemoteTools is a connected set of remote tool servers
type RemoteTools interface {
	Descriptors() []tools.Descriptor
	Invoke(ctx context.Context, name string, args map[string]interface{}) (string, error)
	Close() error
}

// Session is everything a dialog needs to run turns. It is built once by
// SessionFactory and not modified afterwards, so concurrent turns and
// resolution branches share it without locking.
type Session struct {
	AgentID      uuid.UUID
	DialogID     uuid.UUID
	ModelName    string
	Model        llm.LLMProvider
	Strategy     Strategy
	SystemPrompt string

	Local  *tools.Catalog
	Remote RemoteTools

	History     HistorySource
	HistoryTopK int
	// SemanticHistory is set when history is retrieved by relevance, so
	// new messages must be indexed
	SemanticHistory bool

	Knowledge      KnowledgeRetriever
	KnowledgeScope []string
}

func (s *Session) RemoteDescriptors() []tools.Descriptor {
	if s.Remote == nil {
		return nil
	}
	return s.Remote.Descriptors()
}

func (s *Session) remoteLLMTools() []llm.Tool {
	descriptors := s.RemoteDescriptors()
	out := make([]llm.Tool, len(descriptors))
	for i, d := range descriptors {
		out[i] = d.LLMTool()
	}
	return out
}

func (s *Session) invokeRemote(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	return s.Remote.Invoke(ctx, name, args)
}

// Close disconnects the remote tool servers
func (s *Session) Close() error {
	if s.Remote == nil {
		return nil
	}
	return s.Remote.Close()
}
