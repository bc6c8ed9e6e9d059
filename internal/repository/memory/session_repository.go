package memory

import (
	"strings"
	"time"

	"ai-agent-be/internal/pkg/logger"
	"ai-agent-be/pkg/agent"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps opened dialog sessions so their remote tool
// connections are reused across turns. Expired or replaced sessions are
// closed.
type SessionRepository struct {
	cache  *cache.Cache
	logger logger.ILogger
}

func NewSessionRepository(ttl time.Duration, log logger.ILogger) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	c := cache.New(ttl, 10*time.Minute)
	r := &SessionRepository{cache: c, logger: log}
	c.OnEvicted(r.closeSession)
	return r
}

func sessionKey(agentId, dialogId uuid.UUID) string {
	return agentId.String() + ":" + dialogId.String()
}

func (r *SessionRepository) closeSession(key string, value interface{}) {
	session, ok := value.(*agent.Session)
	if !ok {
		return
	}
	if err := session.Close(); err != nil {
		r.logger.Warn("SessionRepository", "Failed to close evicted session", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

// Save stores the session with a fresh expiry
func (r *SessionRepository) Save(session *agent.Session) {
	key := sessionKey(session.AgentID, session.DialogID)
	// Get and Set both skip expired entries without evicting them, so a
	// lapsed session must be closed here before it is overwritten
	r.cache.DeleteExpired()
	if old, found := r.cache.Get(key); found && old != session {
		// Set does not fire OnEvicted
		r.closeSession(key, old)
	}
	r.cache.Set(key, session, cache.DefaultExpiration)
}

// Get returns the cached session and slides its expiry, so a dialog in use
// is never evicted between turns
func (r *SessionRepository) Get(agentId, dialogId uuid.UUID) (*agent.Session, bool) {
	key := sessionKey(agentId, dialogId)
	x, found := r.cache.Get(key)
	if !found {
		return nil, false
	}
	// Replace fails if the janitor evicted (and closed) it meanwhile
	if err := r.cache.Replace(key, x, cache.DefaultExpiration); err != nil {
		return nil, false
	}
	return x.(*agent.Session), true
}

func (r *SessionRepository) Delete(agentId, dialogId uuid.UUID) {
	r.cache.Delete(sessionKey(agentId, dialogId))
}

// DeleteAgent closes every dialog session of one agent, used when the
// agent's configuration changes or the agent is removed
func (r *SessionRepository) DeleteAgent(agentId uuid.UUID) int {
	r.cache.DeleteExpired()
	prefix := agentId.String() + ":"
	removed := 0
	for key := range r.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			r.cache.Delete(key)
			removed++
		}
	}
	return removed
}

// Flush closes every cached session, lapsed ones included
func (r *SessionRepository) Flush() {
	r.cache.DeleteExpired()
	for key, item := range r.cache.Items() {
		r.closeSession(key, item.Object)
	}
	r.cache.Flush()
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
