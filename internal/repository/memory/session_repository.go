package memory

import (
	"time"

	"chat-with-pdf-be/internal/entity"
	"chat-with-pdf-be/internal/pkg/logger"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps chat sessions in memory. A session not saved for
// ttl is evicted and its index closed; Delete closes it too.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(ttl time.Duration, log logger.ILogger) *SessionRepository {
	c := cache.New(ttl, ttl/6+time.Second)
	c.OnEvicted(func(id string, v interface{}) {
		session, ok := v.(*entity.ChatSession)
		if !ok {
			return
		}
		if err := session.Close(); err != nil {
			log.Warn("SESSION", "Failed to close evicted session", map[string]interface{}{
				"session_id": id,
				"error":      err.Error(),
			})
			return
		}
		log.Debug("SESSION", "Session evicted", map[string]interface{}{"session_id": id})
	})
	return &SessionRepository{
		cache: c,
	}
}

// Save stores session and restarts its expiry.
func (r *SessionRepository) Save(session *entity.ChatSession) {
	r.cache.Set(session.Id, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*entity.ChatSession, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*entity.ChatSession), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
