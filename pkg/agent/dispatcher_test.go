package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"ai-agent-be/internal/constant"
	"ai-agent-be/internal/pkg/logger"
	"ai-agent-be/pkg/llm"
	"ai-agent-be/pkg/llm/llmtest"
	"ai-agent-be/pkg/rag/search"
	"ai-agent-be/pkg/tools"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	text string
	err  error
	topK int
}

func (f *fakeHistory) History(ctx context.Context, input string, dialogId uuid.UUID, topK int) (string, error) {
	f.topK = topK
	return f.text, f.err
}

type fakeKnowledge struct {
	mu       sync.Mutex
	text     string
	err      error
	requests []search.Request
}

func (f *fakeKnowledge) Retrieve(ctx context.Context, req search.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.text, f.err
}

type fakeRemote struct {
	descriptors []tools.Descriptor
	invoke      func(name string, args map[string]interface{}) (string, error)
	closed      bool
}

func (f *fakeRemote) Descriptors() []tools.Descriptor { return f.descriptors }

func (f *fakeRemote) Invoke(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	return f.invoke(name, args)
}

func (f *fakeRemote) Close() error {
	f.closed = true
	return nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *recordingSink) Publish(ctx context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.Type + ":" + e.Outcome
	}
	return out
}

func weatherCatalog(t *testing.T, run tools.Action) *tools.Catalog {
	t.Helper()
	reg := tools.NewRegistry()
	reg.MustRegister(tools.Tool{
		Descriptor: tools.Descriptor{
			Name:        "get_weather",
			Description: "Current weather for a city",
			Params:      []tools.Param{{Name: "city", Type: tools.TypeString, Required: true}},
		},
		Run: run,
	})
	catalog, missing := reg.Catalog([]string{"get_weather"})
	require.Empty(t, missing)
	return catalog
}

func issueTracker(invoke func(name string, args map[string]interface{}) (string, error)) *fakeRemote {
	return &fakeRemote{
		descriptors: []tools.Descriptor{{
			Name:        "get_issue",
			Description: "Look up a ticket",
			Params:      []tools.Param{{Name: "issue", Type: tools.TypeString, Required: true}},
		}},
		invoke: invoke,
	}
}

func newSession(model llm.LLMProvider, strategy Strategy) *Session {
	return &Session{
		AgentID:        uuid.New(),
		DialogID:       uuid.New(),
		Model:          model,
		Strategy:       strategy,
		History:        &fakeHistory{text: "user: hi\n"},
		Knowledge:      &fakeKnowledge{text: "Office closes at 6pm."},
		KnowledgeScope: []string{"kb-1"},
	}
}

func newTestDispatcher(session *Session, sink EventSink) *Dispatcher {
	return NewDispatcher(session, DefaultConfig(), logger.NewNopLogger(), sink)
}

func lastPrompt(p *llmtest.Provider) string {
	msgs := p.LastStream()
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Content
}

func TestRun_LocalActionFailureUsesFallback(t *testing.T) {
	model := &llmtest.Provider{
		SelectToolFunc: func(ctx context.Context, history []llm.Message, available []llm.Tool) (*llm.ToolCall, error) {
			return &llm.ToolCall{Name: "get_weather", Arguments: map[string]interface{}{"city": "Seoul"}}, nil
		},
		StreamFunc: func(ctx context.Context, history []llm.Message) (llm.Stream, error) {
			return llm.NewSliceStream("It may ", "rain."), nil
		},
	}
	session := newSession(model, DirectFunctionSelection)
	session.Local = weatherCatalog(t, func(ctx context.Context, args map[string]interface{}) (string, error) {
		assert.Equal(t, "Seoul", args["city"])
		return "", errors.New("weather service down")
	})

	sink := &recordingSink{}
	stream, err := newTestDispatcher(session, sink).Run(context.Background(), "weather in Seoul?")
	require.NoError(t, err)

	out, err := Collect(stream)
	require.NoError(t, err)
	assert.Equal(t, "It may rain.", out)

	assert.Equal(t, 1, model.SelectCount(), "remote catalog is empty so only the local branch asks the model")
	assert.Contains(t, lastPrompt(model), "<tool_result>\n"+constant.AgentFailActionPrompt+"\n</tool_result>")
	assert.Contains(t, lastPrompt(model), "Office closes at 6pm.")
	assert.Equal(t, []string{"tool.executed:execution_failed", "dispatch.completed:completed"}, sink.types())
}

func TestRun_PanickingLocalActionUsesFallback(t *testing.T) {
	model := &llmtest.Provider{
		SelectToolFunc: func(ctx context.Context, history []llm.Message, available []llm.Tool) (*llm.ToolCall, error) {
			return &llm.ToolCall{Name: "get_weather", Arguments: map[string]interface{}{"city": "Oslo"}}, nil
		},
		StreamFunc: func(ctx context.Context, history []llm.Message) (llm.Stream, error) {
			return llm.NewSliceStream("Unknown."), nil
		},
	}
	session := newSession(model, DirectFunctionSelection)
	session.Local = weatherCatalog(t, func(ctx context.Context, args map[string]interface{}) (string, error) {
		var forecast map[string]string
		forecast["Oslo"] = "snow"
		return "", nil
	})

	sink := &recordingSink{}
	stream, err := newTestDispatcher(session, sink).Run(context.Background(), "weather in Oslo?")
	require.NoError(t, err)

	out, err := Collect(stream)
	require.NoError(t, err)
	assert.Equal(t, "Unknown.", out)
	assert.Contains(t, lastPrompt(model), "<tool_result>\n"+constant.AgentFailActionPrompt+"\n</tool_result>")
	assert.Equal(t, []string{"tool.executed:execution_failed", "dispatch.completed:completed"}, sink.types())
}

func TestRun_BothBranchesWithoutSelectionStillStream(t *testing.T) {
	model := &llmtest.Provider{
		SelectToolFunc: func(ctx context.Context, history []llm.Message, available []llm.Tool) (*llm.ToolCall, error) {
			return nil, nil
		},
		StreamFunc: func(ctx context.Context, history []llm.Message) (llm.Stream, error) {
			return llm.NewSliceStream("Hello", " there"), nil
		},
	}
	session := newSession(model, DirectFunctionSelection)
	session.Local = weatherCatalog(t, func(ctx context.Context, args map[string]interface{}) (string, error) {
		t.Fatal("no tool was selected")
		return "", nil
	})
	session.Remote = issueTracker(func(name string, args map[string]interface{}) (string, error) {
		t.Fatal("no tool was selected")
		return "", nil
	})

	stream, err := newTestDispatcher(session, nil).Run(context.Background(), "hello")
	require.NoError(t, err)

	first, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "Hello", first.Content)
	assert.True(t, strings.HasPrefix(first.ID, "run-"))

	second, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	require.NoError(t, stream.Close())

	assert.Equal(t, 2, model.SelectCount())
	prompt := lastPrompt(model)
	assert.Contains(t, prompt, "<tool_result>\n\n</tool_result>")
	assert.Contains(t, prompt, "<remote_tool_result>\n\n</remote_tool_result>")
	assert.Contains(t, prompt, "user: hi")
}

func TestRun_RemoteToolResult(t *testing.T) {
	tests := []struct {
		name   string
		invoke func(name string, args map[string]interface{}) (string, error)
		want   string
	}{
		{
			name: "selected",
			invoke: func(name string, args map[string]interface{}) (string, error) {
				return fmt.Sprintf("%s %v is open", name, args["issue"]), nil
			},
			want: "get_issue 42 is open",
		},
		{
			name: "gateway failure falls back",
			invoke: func(name string, args map[string]interface{}) (string, error) {
				return "", errors.New("connection reset")
			},
			want: constant.AgentFailActionPrompt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &llmtest.Provider{
				SelectToolFunc: func(ctx context.Context, history []llm.Message, available []llm.Tool) (*llm.ToolCall, error) {
					if available[0].Name == "get_issue" {
						return &llm.ToolCall{Name: "get_issue", Arguments: map[string]interface{}{"issue": "42"}}, nil
					}
					return nil, nil
				},
				StreamFunc: func(ctx context.Context, history []llm.Message) (llm.Stream, error) {
					return llm.NewSliceStream("ok"), nil
				},
			}
			session := newSession(model, DirectFunctionSelection)
			session.Remote = issueTracker(tt.invoke)

			stream, err := newTestDispatcher(session, nil).Run(context.Background(), "status of 42?")
			require.NoError(t, err)
			_, err = Collect(stream)
			require.NoError(t, err)

			assert.Contains(t, lastPrompt(model), "<remote_tool_result>\n"+tt.want+"\n</remote_tool_result>")
		})
	}
}

func TestRun_EmptyCatalogsSkipSelection(t *testing.T) {
	model := &llmtest.Provider{
		StreamFunc: func(ctx context.Context, history []llm.Message) (llm.Stream, error) {
			return llm.NewSliceStream("fine"), nil
		},
	}
	session := newSession(model, DirectFunctionSelection)
	session.SystemPrompt = "You are terse."

	stream, err := newTestDispatcher(session, nil).Run(context.Background(), "hi")
	require.NoError(t, err)
	out, err := Collect(stream)
	require.NoError(t, err)

	assert.Equal(t, "fine", out)
	assert.Zero(t, model.SelectCount())
	msgs := model.LastStream()
	require.Len(t, msgs, 2)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Equal(t, "You are terse.", msgs[0].Content)
}

func TestRun_MalformedToolCallIsNoSelection(t *testing.T) {
	model := &llmtest.Provider{
		SelectToolFunc: func(ctx context.Context, history []llm.Message, available []llm.Tool) (*llm.ToolCall, error) {
			return nil, fmt.Errorf("%w: unexpected end of JSON input", llm.ErrMalformedToolCall)
		},
		StreamFunc: func(ctx context.Context, history []llm.Message) (llm.Stream, error) {
			return llm.NewSliceStream("answer"), nil
		},
	}
	session := newSession(model, DirectFunctionSelection)
	session.Local = weatherCatalog(t, func(ctx context.Context, args map[string]interface{}) (string, error) {
		return "sunny", nil
	})

	stream, err := newTestDispatcher(session, nil).Run(context.Background(), "weather?")
	require.NoError(t, err)
	out, err := Collect(stream)
	require.NoError(t, err)
	assert.Equal(t, "answer", out)
}

func TestRun_ContextGatherFailureProducesNoStream(t *testing.T) {
	tests := []struct {
		name      string
		history   error
		knowledge error
	}{
		{name: "history", history: errors.New("db down")},
		{name: "knowledge", knowledge: fmt.Errorf("%w: lexical down", search.ErrRetrieval)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &llmtest.Provider{}
			session := newSession(model, DirectFunctionSelection)
			session.History = &fakeHistory{err: tt.history}
			session.Knowledge = &fakeKnowledge{text: "x", err: tt.knowledge}

			sink := &recordingSink{}
			stream, err := newTestDispatcher(session, sink).Run(context.Background(), "hi")
			require.Error(t, err)
			assert.Nil(t, stream)
			assert.ErrorIs(t, err, ErrContextGather)

			var dispatchErr *DispatchError
			require.ErrorAs(t, err, &dispatchErr)
			assert.Equal(t, StageContextGather, dispatchErr.Stage)

			assert.Empty(t, model.StreamCalls)
			assert.Equal(t, []string{"dispatch.completed:error"}, sink.types())
		})
	}
}

func TestRun_TransportFailures(t *testing.T) {
	boom := errors.New("connection refused")

	t.Run("tool selection", func(t *testing.T) {
		model := &llmtest.Provider{
			SelectToolFunc: func(ctx context.Context, history []llm.Message, available []llm.Tool) (*llm.ToolCall, error) {
				return nil, boom
			},
		}
		session := newSession(model, DirectFunctionSelection)
		session.Local = weatherCatalog(t, func(ctx context.Context, args map[string]interface{}) (string, error) {
			return "", nil
		})

		stream, err := newTestDispatcher(session, nil).Run(context.Background(), "hi")
		assert.Nil(t, stream)
		assert.ErrorIs(t, err, ErrTransport)
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, model.StreamCalls)
	})

	t.Run("answer stream", func(t *testing.T) {
		model := &llmtest.Provider{
			StreamFunc: func(ctx context.Context, history []llm.Message) (llm.Stream, error) {
				return nil, boom
			},
		}
		stream, err := newTestDispatcher(newSession(model, DirectFunctionSelection), nil).Run(context.Background(), "hi")
		assert.Nil(t, stream)
		assert.ErrorIs(t, err, ErrTransport)
	})

	t.Run("first reasoning step", func(t *testing.T) {
		model := &llmtest.Provider{
			StreamFunc: func(ctx context.Context, history []llm.Message) (llm.Stream, error) {
				return nil, boom
			},
		}
		stream, err := newTestDispatcher(newSession(model, StructuredReasoning), nil).Run(context.Background(), "hi")
		assert.Nil(t, stream)
		var dispatchErr *DispatchError
		require.ErrorAs(t, err, &dispatchErr)
		assert.Equal(t, StageStrategyExec, dispatchErr.Stage)
	})
}

func TestRun_KnowledgeRequest(t *testing.T) {
	model := &llmtest.Provider{
		StreamFunc: func(ctx context.Context, history []llm.Message) (llm.Stream, error) {
			return llm.NewSliceStream("ok"), nil
		},
	}

	session := newSession(model, DirectFunctionSelection)
	knowledge := session.Knowledge.(*fakeKnowledge)
	hist := session.History.(*fakeHistory)
	session.HistoryTopK = 8

	stream, err := newTestDispatcher(session, nil).Run(context.Background(), "vacation policy")
	require.NoError(t, err)
	_, _ = Collect(stream)

	require.Len(t, knowledge.requests, 1)
	req := knowledge.requests[0]
	assert.Equal(t, "vacation policy", req.Query)
	assert.Equal(t, []string{"kb-1"}, req.Scope)
	assert.True(t, req.Rewrite)
	assert.Equal(t, search.FieldContent, req.Field)
	assert.Nil(t, req.MinScore)
	assert.Nil(t, req.TopK)
	assert.Equal(t, 8, hist.topK)

	session.KnowledgeScope = nil
	session.HistoryTopK = 0
	stream, err = newTestDispatcher(session, nil).Run(context.Background(), "hi")
	require.NoError(t, err)
	_, _ = Collect(stream)

	assert.Len(t, knowledge.requests, 1, "no scope means no retrieval")
	assert.Contains(t, lastPrompt(model), search.NoDocumentsFound)
	assert.Equal(t, 5, hist.topK)
}

func TestStream_CloseCancelsTurn(t *testing.T) {
	var turnCtx context.Context
	model := &llmtest.Provider{
		StreamFunc: func(ctx context.Context, history []llm.Message) (llm.Stream, error) {
			turnCtx = ctx
			return llm.NewSliceStream("a", "b", "c"), nil
		},
	}
	sink := &recordingSink{}
	stream, err := newTestDispatcher(newSession(model, DirectFunctionSelection), sink).Run(context.Background(), "hi")
	require.NoError(t, err)

	_, err = stream.Recv()
	require.NoError(t, err)
	require.NoError(t, turnCtx.Err())

	require.NoError(t, stream.Close())
	assert.ErrorIs(t, turnCtx.Err(), context.Canceled)
	assert.Equal(t, []string{"dispatch.completed:cancelled"}, sink.types())
}

func TestRun_PublishFailureIsNotFatal(t *testing.T) {
	model := &llmtest.Provider{
		StreamFunc: func(ctx context.Context, history []llm.Message) (llm.Stream, error) {
			return llm.NewSliceStream("ok"), nil
		},
	}
	sink := &recordingSink{err: errors.New("nats unavailable")}
	stream, err := newTestDispatcher(newSession(model, DirectFunctionSelection), sink).Run(context.Background(), "hi")
	require.NoError(t, err)
	out, err := Collect(stream)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}
