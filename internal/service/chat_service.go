package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"ai-agent-be/internal/dto"
	"ai-agent-be/internal/entity"
	"ai-agent-be/internal/pkg/logger"
	"ai-agent-be/internal/repository/unitofwork"
	"ai-agent-be/pkg/agent"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	// historyWriteTimeout bounds the assistant message write after the
	// request context is gone
	historyWriteTimeout = 10 * time.Second
	maxHistoryPage      = 200
)

// SessionStore caches opened sessions per agent and dialog
type SessionStore interface {
	Get(agentId, dialogId uuid.UUID) (*agent.Session, bool)
	Save(session *agent.Session)
	Delete(agentId, dialogId uuid.UUID)
}

// SessionOpener builds a session from stored agent configuration
type SessionOpener interface {
	Open(ctx context.Context, agentId, dialogId uuid.UUID) (*agent.Session, error)
}

type IChatService interface {
	// Stream starts a turn. The returned stream must be read to io.EOF or closed.
	Stream(ctx context.Context, req *dto.ChatRequest) (agent.Stream, error)
	GetHistory(ctx context.Context, dialogId uuid.UUID, limit int) ([]*dto.HistoryMessageResponse, error)
	// EndDialog drops the cached session and disconnects its tool servers
	EndDialog(agentId, dialogId uuid.UUID)
}

type chatService struct {
	uowFactory unitofwork.RepositoryFactory
	sessions   SessionStore
	opener     SessionOpener
	publisher  IPublisherService
	cfg        agent.Config
	events     agent.EventSink
	logger     logger.ILogger

	opening singleflight.Group
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	sessions SessionStore,
	opener SessionOpener,
	publisher IPublisherService,
	cfg agent.Config,
	events agent.EventSink,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory: uowFactory,
		sessions:   sessions,
		opener:     opener,
		publisher:  publisher,
		cfg:        cfg,
		events:     events,
		logger:     log,
	}
}

func (s *chatService) Stream(ctx context.Context, req *dto.ChatRequest) (agent.Stream, error) {
	session, err := s.session(ctx, req.AgentId, req.DialogId)
	if err != nil {
		return nil, err
	}

	dispatcher := agent.NewDispatcher(session, s.cfg, s.logger, s.events)
	stream, err := dispatcher.Run(ctx, req.Input)
	if err != nil {
		return nil, err
	}

	// Stored after Run so this turn's context does not include its own input
	if err := s.appendMessage(ctx, session, entity.HistoryRoleUser, req.Input); err != nil {
		_ = stream.Close()
		return nil, err
	}

	return &recordingStream{
		Stream: stream,
		onComplete: func(text string) {
			if session.Strategy == agent.StructuredReasoning {
				text = agent.FinalAnswer(text)
			}
			if strings.TrimSpace(text) == "" {
				return
			}
			writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyWriteTimeout)
			defer cancel()
			if err := s.appendMessage(writeCtx, session, entity.HistoryRoleAssistant, text); err != nil {
				s.logger.Error("ChatService", "Failed to store assistant message", map[string]interface{}{
					"dialog_id": session.DialogID.String(),
					"error":     err.Error(),
				})
			}
		},
	}, nil
}

// session returns the cached session or opens one. Concurrent first turns
// of a dialog share a single open.
func (s *chatService) session(ctx context.Context, agentId, dialogId uuid.UUID) (*agent.Session, error) {
	if session, ok := s.sessions.Get(agentId, dialogId); ok {
		return session, nil
	}

	key := agentId.String() + ":" + dialogId.String()
	v, err, _ := s.opening.Do(key, func() (interface{}, error) {
		if session, ok := s.sessions.Get(agentId, dialogId); ok {
			return session, nil
		}
		// Tool server connections outlive this request
		session, err := s.opener.Open(context.WithoutCancel(ctx), agentId, dialogId)
		if err != nil {
			return nil, err
		}
		s.sessions.Save(session)
		return session, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*agent.Session), nil
}

func (s *chatService) appendMessage(ctx context.Context, session *agent.Session, role, content string) error {
	msg := &entity.HistoryMessage{
		Id:        uuid.New(),
		DialogId:  session.DialogID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.HistoryMessageRepository().Create(ctx, msg); err != nil {
		return fmt.Errorf("store %s message: %w", role, err)
	}

	if !session.SemanticHistory {
		return nil
	}

	payload, err := json.Marshal(dto.HistoryAppendedMessage{
		Id:        msg.Id,
		DialogId:  msg.DialogId,
		Role:      msg.Role,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	})
	if err != nil {
		return err
	}
	// Indexing is auxiliary, the message is already stored
	if err := s.publisher.Publish(ctx, payload); err != nil {
		s.logger.Warn("ChatService", "Failed to publish history message", map[string]interface{}{
			"dialog_id": msg.DialogId.String(),
			"error":     err.Error(),
		})
	}
	return nil
}

func (s *chatService) GetHistory(ctx context.Context, dialogId uuid.UUID, limit int) ([]*dto.HistoryMessageResponse, error) {
	if limit <= 0 || limit > maxHistoryPage {
		limit = maxHistoryPage
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	messages, err := uow.HistoryMessageRepository().FindRecent(ctx, dialogId, limit)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.HistoryMessageResponse, len(messages))
	for i, m := range messages {
		res[i] = &dto.HistoryMessageResponse{
			Id:        m.Id,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
	}
	return res, nil
}

func (s *chatService) EndDialog(agentId, dialogId uuid.UUID) {
	s.sessions.Delete(agentId, dialogId)
}

// recordingStream collects the fragments it relays and hands the full
// text to onComplete once the stream ends normally
type recordingStream struct {
	agent.Stream
	text       strings.Builder
	once       sync.Once
	onComplete func(text string)
}

func (r *recordingStream) Recv() (agent.Fragment, error) {
	fragment, err := r.Stream.Recv()
	if err == nil {
		r.text.WriteString(fragment.Content)
		return fragment, nil
	}
	if errors.Is(err, io.EOF) {
		r.once.Do(func() { r.onComplete(r.text.String()) })
	}
	return fragment, err
}

// Close stops the turn; an answer cut short is not stored
func (r *recordingStream) Close() error {
	r.once.Do(func() {})
	return r.Stream.Close()
}
