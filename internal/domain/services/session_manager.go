package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/internal/infrastructure/cache"
	"honeytrap-lab/pkg/logger"
)

// ErrSessionNotFound is returned when a session id has no stored session.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists sessions. Implementations must be safe for concurrent
// use.
type SessionStore interface {
	Get(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Session, error)
}

// MemorySessionStore keeps sessions in process memory. It is the fallback when
// Redis is not configured and the store used in tests.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

// NewMemorySessionStore creates an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*models.Session)}
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *MemorySessionStore) Save(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemorySessionStore) List(_ context.Context) ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	return out, nil
}

// RedisSessionStore persists sessions as JSON in Redis with a TTL, so
// abandoned conversations age out on their own.
type RedisSessionStore struct {
	cache *cache.RedisCache
	ttl   time.Duration
}

// NewRedisSessionStore creates a Redis-backed store. ttl <= 0 falls back to 24h.
func NewRedisSessionStore(c *cache.RedisCache, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSessionStore{cache: c, ttl: ttl}
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	err := s.cache.GetJSON(ctx, cache.KeySessionPrefix+id, &session)
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, session *models.Session) error {
	if err := s.cache.SetJSON(ctx, cache.KeySessionPrefix+session.ID, session, s.ttl); err != nil {
		return err
	}
	return s.cache.SAdd(ctx, cache.KeySessionIndex, session.ID)
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.cache.Delete(ctx, cache.KeySessionPrefix+id); err != nil {
		return err
	}
	return s.cache.SRem(ctx, cache.KeySessionIndex, id)
}

func (s *RedisSessionStore) List(ctx context.Context) ([]*models.Session, error) {
	ids, err := s.cache.SMembers(ctx, cache.KeySessionIndex)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Session, 0, len(ids))
	for _, id := range ids {
		session, err := s.Get(ctx, id)
		if errors.Is(err, ErrSessionNotFound) {
			// Expired session still in the index; drop the stale entry.
			_ = s.cache.SRem(ctx, cache.KeySessionIndex, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	return out, nil
}

// SessionManager owns session lifecycle and state transitions.
type SessionManager struct {
	store  SessionStore
	logger *logger.Logger
}

// NewSessionManager creates a session manager over the given store.
func NewSessionManager(store SessionStore, log *logger.Logger) *SessionManager {
	return &SessionManager{
		store:  store,
		logger: log.WithComponent("session-manager"),
	}
}

// GetOrCreate returns the session for id, creating it in INIT state if needed.
func (m *SessionManager) GetOrCreate(ctx context.Context, id string) (*models.Session, error) {
	session, err := m.store.Get(ctx, id)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}

	session = models.NewSession(id)
	if err := m.store.Save(ctx, session); err != nil {
		return nil, err
	}
	m.logger.Info().Str("session_id", id).Msg("session created")
	return session, nil
}

// Get returns an existing session or ErrSessionNotFound.
func (m *SessionManager) Get(ctx context.Context, id string) (*models.Session, error) {
	return m.store.Get(ctx, id)
}

// Save persists the session.
func (m *SessionManager) Save(ctx context.Context, session *models.Session) error {
	return m.store.Save(ctx, session)
}

// Delete removes a completed session.
func (m *SessionManager) Delete(ctx context.Context, id string) error {
	m.logger.Info().Str("session_id", id).Msg("session deleted")
	return m.store.Delete(ctx, id)
}

// List returns summaries of all active sessions.
func (m *SessionManager) List(ctx context.Context) ([]models.SessionSummary, error) {
	sessions, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]models.SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		summaries = append(summaries, s.Summary())
	}
	return summaries, nil
}

// ActiveCount returns the number of live sessions.
func (m *SessionManager) ActiveCount(ctx context.Context) (int, error) {
	sessions, err := m.store.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(sessions), nil
}

// Transition moves a session to a new state, logging the hop, and persists it.
func (m *SessionManager) Transition(ctx context.Context, session *models.Session, state models.SessionState) error {
	old := session.State
	session.TransitionTo(state)
	m.logger.Info().
		Str("session_id", session.ID).
		Str("from", string(old)).
		Str("to", string(state)).
		Msg("session state transition")
	return m.store.Save(ctx, session)
}
