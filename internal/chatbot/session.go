package chatbot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Turn is one message of a chat session
type Turn struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionStore is the keyed conversation history behind the chatbot.
// Histories are shared across server instances and expire on their own, so
// implementations live outside process memory.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) ([]Turn, error)
	Append(ctx context.Context, sessionID string, turn Turn) error
	Clear(ctx context.Context, sessionID string) error
	Expire(ctx context.Context, sessionID string, ttl time.Duration) error
}

// RedisSessionStore keeps each session as a Redis list of JSON turns with a
// TTL refreshed on every append.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore creates a Redis-backed session store
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl == 0 {
		ttl = 2 * time.Hour
	}
	return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return "chatbot:session:" + sessionID
}

// Get returns the session's turns, oldest first. A missing session is an
// empty history, not an error.
func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) ([]Turn, error) {
	raw, err := s.client.LRange(ctx, sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	turns := make([]Turn, 0, len(raw))
	for _, item := range raw {
		var t Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			// Skip corrupt entries rather than poisoning the whole session
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// Append pushes a turn and refreshes the session TTL
func (s *RedisSessionStore) Append(ctx context.Context, sessionID string, turn Turn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return err
	}

	key := sessionKey(sessionID)
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append to session %s: %w", sessionID, err)
	}
	return nil
}

// Clear removes the session entirely
func (s *RedisSessionStore) Clear(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKey(sessionID)).Err()
}

// Expire overrides the session TTL
func (s *RedisSessionStore) Expire(ctx context.Context, sessionID string, ttl time.Duration) error {
	return s.client.Expire(ctx, sessionKey(sessionID), ttl).Err()
}

// MemorySessionStore is a process-local SessionStore for tests and for
// running without Redis. Single instance only; histories are lost on
// restart.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string][]Turn
	expiry   map[string]time.Time
}

// NewMemorySessionStore creates an in-memory session store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string][]Turn),
		expiry:   make(map[string]time.Time),
	}
}

func (s *MemorySessionStore) expired(sessionID string) bool {
	deadline, ok := s.expiry[sessionID]
	return ok && time.Now().After(deadline)
}

// Get implements SessionStore.
func (s *MemorySessionStore) Get(ctx context.Context, sessionID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.expired(sessionID) {
		return nil, nil
	}
	turns := s.sessions[sessionID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// Append implements SessionStore.
func (s *MemorySessionStore) Append(ctx context.Context, sessionID string, turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expired(sessionID) {
		delete(s.sessions, sessionID)
		delete(s.expiry, sessionID)
	}
	s.sessions[sessionID] = append(s.sessions[sessionID], turn)
	return nil
}

// Clear implements SessionStore.
func (s *MemorySessionStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	delete(s.expiry, sessionID)
	return nil
}

// Expire implements SessionStore.
func (s *MemorySessionStore) Expire(ctx context.Context, sessionID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiry[sessionID] = time.Now().Add(ttl)
	return nil
}
