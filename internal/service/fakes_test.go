package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"ai-agent-be/internal/entity"
	"ai-agent-be/internal/repository/contract"
	"ai-agent-be/internal/repository/specification"
	"ai-agent-be/internal/repository/unitofwork"
	"ai-agent-be/pkg/agent"
	"ai-agent-be/pkg/embedding"
	"ai-agent-be/pkg/mcp"
	"ai-agent-be/pkg/rag/search"

	"github.com/google/uuid"
)

type fakeHistoryRepo struct {
	contract.HistoryMessageRepository
	mu      sync.Mutex
	created []*entity.HistoryMessage
	err     error
}

func (r *fakeHistoryRepo) Create(ctx context.Context, msg *entity.HistoryMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.created = append(r.created, msg)
	return nil
}

func (r *fakeHistoryRepo) FindRecent(ctx context.Context, dialogId uuid.UUID, limit int) ([]*entity.HistoryMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.HistoryMessage
	for _, m := range r.created {
		if m.DialogId == dialogId {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *fakeHistoryRepo) roles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.created))
	for i, m := range r.created {
		out[i] = m.Role
	}
	return out
}

type fakeChunkRepo struct {
	contract.KnowledgeChunkRepository
	mu      sync.Mutex
	stored  []*entity.KnowledgeChunk
	deleted []specification.Specification
	err     error
}

func (r *fakeChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.KnowledgeChunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.stored = append(r.stored, chunks...)
	return nil
}

func (r *fakeChunkRepo) Delete(ctx context.Context, specs ...specification.Specification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, specs...)
	return nil
}

func (r *fakeChunkRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeChunk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stored, nil
}

type fakeUow struct {
	unitofwork.UnitOfWork
	history   *fakeHistoryRepo
	chunks    *fakeChunkRepo
	agents    *fakeAgentRepo
	llms      *fakeLlmRepo
	servers   *fakeServerRepo
	committed int
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { u.committed++; return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) HistoryMessageRepository() contract.HistoryMessageRepository { return u.history }
func (u *fakeUow) KnowledgeChunkRepository() contract.KnowledgeChunkRepository { return u.chunks }
func (u *fakeUow) AgentRepository() contract.AgentRepository                   { return u.agents }
func (u *fakeUow) LlmConfigRepository() contract.LlmConfigRepository           { return u.llms }
func (u *fakeUow) McpServerRepository() contract.McpServerRepository           { return u.servers }

type fakeFactory struct {
	uow *fakeUow
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{uow: &fakeUow{
		history: &fakeHistoryRepo{},
		chunks:  &fakeChunkRepo{},
		agents:  &fakeAgentRepo{},
		llms:    &fakeLlmRepo{configs: map[uuid.UUID]*entity.LlmConfig{}},
		servers: &fakeServerRepo{},
	}}
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

// fakeEmbedder returns a one-dimensional vector holding the text length
type fakeEmbedder struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (e *fakeEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	e.texts = append(e.texts, text)
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{float32(len(text))}},
	}, nil
}

type fakeLexical struct {
	mu      sync.Mutex
	indexed []search.IndexedChunk
	deleted []string
}

func (l *fakeLexical) Index(chunks ...search.IndexedChunk) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.indexed = append(l.indexed, chunks...)
	return nil
}

func (l *fakeLexical) DeleteFile(scope, fileID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deleted = append(l.deleted, scope+"/"+fileID)
	return 0, nil
}

type fakePublisher struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (p *fakePublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return p.err
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*agent.Session
	deleted  int
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]*agent.Session{}}
}

func (s *fakeSessions) Get(agentId, dialogId uuid.UUID) (*agent.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[agentId.String()+dialogId.String()]
	return session, ok
}

func (s *fakeSessions) Save(session *agent.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.AgentID.String()+session.DialogID.String()] = session
}

func (s *fakeSessions) Delete(agentId, dialogId uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, agentId.String()+dialogId.String())
	s.deleted++
}

type fakeOpener struct {
	mu      sync.Mutex
	opens   int
	session func(agentId, dialogId uuid.UUID) *agent.Session
	err     error
}

func (o *fakeOpener) Open(ctx context.Context, agentId, dialogId uuid.UUID) (*agent.Session, error) {
	o.mu.Lock()
	o.opens++
	o.mu.Unlock()
	if o.err != nil {
		return nil, o.err
	}
	return o.session(agentId, dialogId), nil
}

var errBoom = errors.New("boom")

// rowMatches evaluates the specifications the services build against one row
func rowMatches(id, userId uuid.UUID, name string, mcpIds []uuid.UUID, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			if id != sp.ID {
				return false
			}
		case specification.ByIDs:
			if !slices.Contains(sp.IDs, id) {
				return false
			}
		case specification.ByUserID:
			if userId != sp.UserID {
				return false
			}
		case specification.ByName:
			if name != sp.Name {
				return false
			}
		case specification.ExcludeID:
			if id == sp.ID {
				return false
			}
		case specification.ByNameContains:
			if !strings.Contains(strings.ToLower(name), strings.ToLower(sp.Term)) {
				return false
			}
		case specification.ReferencesMcpServer:
			if !slices.Contains(mcpIds, sp.ID) {
				return false
			}
		}
	}
	return true
}

type fakeAgentRepo struct {
	contract.AgentRepository
	rows    []*entity.Agent
	updated int
	deleted []uuid.UUID
}

func (r *fakeAgentRepo) Create(ctx context.Context, agent *entity.Agent) error {
	r.rows = append(r.rows, agent)
	return nil
}

func (r *fakeAgentRepo) Update(ctx context.Context, agent *entity.Agent) error {
	r.updated++
	for i, row := range r.rows {
		if row.Id == agent.Id {
			r.rows[i] = agent
		}
	}
	return nil
}

func (r *fakeAgentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.deleted = append(r.deleted, id)
	r.rows = slices.DeleteFunc(r.rows, func(a *entity.Agent) bool { return a.Id == id })
	return nil
}

func (r *fakeAgentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Agent, error) {
	all, _ := r.FindAll(ctx, specs...)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *fakeAgentRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Agent, error) {
	var out []*entity.Agent
	for _, a := range r.rows {
		if rowMatches(a.Id, a.UserId, a.Name, a.McpServerIds, specs) {
			copied := *a
			copied.McpServerIds = slices.Clone(a.McpServerIds)
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeLlmRepo struct {
	contract.LlmConfigRepository
	configs map[uuid.UUID]*entity.LlmConfig
}

func (r *fakeLlmRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.LlmConfig, error) {
	for _, spec := range specs {
		if byId, ok := spec.(specification.ByID); ok {
			return r.configs[byId.ID], nil
		}
	}
	return nil, nil
}

type fakeServerRepo struct {
	contract.McpServerRepository
	rows    []*entity.McpServer
	deleted []uuid.UUID
}

func (r *fakeServerRepo) Create(ctx context.Context, server *entity.McpServer) error {
	r.rows = append(r.rows, server)
	return nil
}

func (r *fakeServerRepo) Update(ctx context.Context, server *entity.McpServer) error {
	for i, row := range r.rows {
		if row.Id == server.Id {
			r.rows[i] = server
		}
	}
	return nil
}

func (r *fakeServerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.deleted = append(r.deleted, id)
	r.rows = slices.DeleteFunc(r.rows, func(s *entity.McpServer) bool { return s.Id == id })
	return nil
}

func (r *fakeServerRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.McpServer, error) {
	all, _ := r.FindAll(ctx, specs...)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *fakeServerRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.McpServer, error) {
	var out []*entity.McpServer
	for _, s := range r.rows {
		if rowMatches(s.Id, s.UserId, s.Name, nil, specs) {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeEvictor struct {
	evicted []uuid.UUID
}

func (e *fakeEvictor) DeleteAgent(agentId uuid.UUID) int {
	e.evicted = append(e.evicted, agentId)
	return 1
}

type fakeProber struct {
	tools []string
	err   error
	calls int
}

func (p *fakeProber) Probe(ctx context.Context, server mcp.ServerConfig) ([]string, error) {
	p.calls++
	return p.tools, p.err
}
