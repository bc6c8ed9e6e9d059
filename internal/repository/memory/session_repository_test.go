package memory

import (
	"context"
	"testing"
	"time"

	"ai-agent-be/internal/pkg/logger"
	"ai-agent-be/pkg/agent"
	"ai-agent-be/pkg/tools"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRemote struct {
	closed int
}

func (c *countingRemote) Descriptors() []tools.Descriptor { return nil }

func (c *countingRemote) Invoke(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	return "", nil
}

func (c *countingRemote) Close() error {
	c.closed++
	return nil
}

func newSession(remote agent.RemoteTools) *agent.Session {
	return &agent.Session{AgentID: uuid.New(), DialogID: uuid.New(), Remote: remote}
}

func TestSessionRepository_SaveGetDelete(t *testing.T) {
	repo := NewSessionRepository(time.Hour, logger.NewNopLogger())
	remote := &countingRemote{}
	session := newSession(remote)

	repo.Save(session)
	got, ok := repo.Get(session.AgentID, session.DialogID)
	require.True(t, ok)
	assert.Same(t, session, got)

	_, ok = repo.Get(session.AgentID, uuid.New())
	assert.False(t, ok)

	repo.Delete(session.AgentID, session.DialogID)
	_, ok = repo.Get(session.AgentID, session.DialogID)
	assert.False(t, ok)
	assert.Equal(t, 1, remote.closed)
}

func TestSessionRepository_ReplaceClosesOld(t *testing.T) {
	repo := NewSessionRepository(time.Hour, logger.NewNopLogger())
	first := &countingRemote{}
	session := newSession(first)
	repo.Save(session)

	// Saving the same session again only refreshes it
	repo.Save(session)
	assert.Equal(t, 0, first.closed)

	replacement := &agent.Session{AgentID: session.AgentID, DialogID: session.DialogID, Remote: &countingRemote{}}
	repo.Save(replacement)
	assert.Equal(t, 1, first.closed)
	assert.Equal(t, 1, repo.Count())
}

func TestSessionRepository_FlushClosesAll(t *testing.T) {
	repo := NewSessionRepository(time.Hour, logger.NewNopLogger())
	a, b := &countingRemote{}, &countingRemote{}
	repo.Save(newSession(a))
	repo.Save(newSession(b))

	repo.Flush()
	assert.Equal(t, 1, a.closed)
	assert.Equal(t, 1, b.closed)
	assert.Equal(t, 0, repo.Count())
}

func TestSessionRepository_LapsedSessionClosedOnReplace(t *testing.T) {
	repo := NewSessionRepository(30*time.Millisecond, logger.NewNopLogger())
	stale := &countingRemote{}
	session := newSession(stale)
	repo.Save(session)

	time.Sleep(60 * time.Millisecond)
	_, ok := repo.Get(session.AgentID, session.DialogID)
	require.False(t, ok)

	fresh := &countingRemote{}
	repo.Save(&agent.Session{AgentID: session.AgentID, DialogID: session.DialogID, Remote: fresh})
	assert.Equal(t, 1, stale.closed)
	assert.Equal(t, 0, fresh.closed)
	assert.Equal(t, 1, repo.Count())
}

func TestSessionRepository_GetSlidesExpiry(t *testing.T) {
	repo := NewSessionRepository(100*time.Millisecond, logger.NewNopLogger())
	remote := &countingRemote{}
	session := newSession(remote)
	repo.Save(session)

	for i := 0; i < 3; i++ {
		time.Sleep(60 * time.Millisecond)
		_, ok := repo.Get(session.AgentID, session.DialogID)
		require.True(t, ok, "turn %d", i)
	}
	assert.Equal(t, 0, remote.closed)
}

func TestSessionRepository_FlushClosesLapsed(t *testing.T) {
	repo := NewSessionRepository(20*time.Millisecond, logger.NewNopLogger())
	remote := &countingRemote{}
	repo.Save(newSession(remote))

	time.Sleep(40 * time.Millisecond)
	repo.Flush()
	assert.Equal(t, 1, remote.closed)
}

func TestSessionRepository_DeleteAgentClosesOnlyItsDialogs(t *testing.T) {
	repo := NewSessionRepository(time.Hour, logger.NewNopLogger())
	agentId := uuid.New()
	first, second, other := &countingRemote{}, &countingRemote{}, &countingRemote{}

	repo.Save(&agent.Session{AgentID: agentId, DialogID: uuid.New(), Remote: first})
	repo.Save(&agent.Session{AgentID: agentId, DialogID: uuid.New(), Remote: second})
	kept := &agent.Session{AgentID: uuid.New(), DialogID: uuid.New(), Remote: other}
	repo.Save(kept)

	assert.Equal(t, 2, repo.DeleteAgent(agentId))
	assert.Equal(t, 1, first.closed)
	assert.Equal(t, 1, second.closed)
	assert.Zero(t, other.closed)
	assert.Equal(t, 1, repo.Count())

	_, ok := repo.Get(kept.AgentID, kept.DialogID)
	assert.True(t, ok)
	assert.Zero(t, repo.DeleteAgent(uuid.New()))
}
