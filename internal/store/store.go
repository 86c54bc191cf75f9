// Package store provides storage backends for LoveLoop.
//
// It includes an in-memory store for tests and development, plus
// SQLite- and PostgreSQL-backed stores for persistent deployments.
// Sessions are saved wholesale (replace-not-merge, one row per session);
// transcripts grow append-only.
package store

import (
	"sort"
	"sync"

	"github.com/BTreeMap/LoveLoop/internal/models"
)

// Store defines the persistence interface shared by all backends.
type Store interface {
	// SaveSession inserts or replaces a session wholesale.
	SaveSession(s models.Session) error
	// GetSession retrieves a session by ID; returns (nil, nil) when absent.
	GetSession(id string) (*models.Session, error)
	// DeleteSession removes a session and its transcript.
	DeleteSession(id string) error
	// AddMessage appends one message to a session transcript.
	AddMessage(m models.Message) error
	// GetMessages returns the full transcript in append order.
	GetMessages(sessionID string) ([]models.Message, error)
	// DeleteMessages removes a session transcript (used on restart).
	DeleteMessages(sessionID string) error
	// Close releases any backend resources.
	Close() error
}

// Opts holds configuration options for persistent stores.
type Opts struct {
	DSN string
}

// Option configures a store backend.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// InMemoryStore is a simple in-memory store keyed by session ID.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	messages map[string][]models.Message
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]models.Session),
		messages: make(map[string][]models.Message),
	}
}

// SaveSession inserts or replaces a session.
func (s *InMemoryStore) SaveSession(sess models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

// GetSession retrieves a session by ID.
func (s *InMemoryStore) GetSession(id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

// DeleteSession removes a session and its transcript.
func (s *InMemoryStore) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	delete(s.messages, id)
	return nil
}

// AddMessage appends one message to a session transcript.
func (s *InMemoryStore) AddMessage(m models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[m.SessionID] = append(s.messages[m.SessionID], m)
	return nil
}

// GetMessages returns the transcript in append order.
func (s *InMemoryStore) GetMessages(sessionID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[sessionID]
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// DeleteMessages removes a session transcript.
func (s *InMemoryStore) DeleteMessages(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, sessionID)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
