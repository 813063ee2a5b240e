package services

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/sqlscribe/sqlscribe/pkg/models"
)

// SessionStore manages issued session tokens. All state is process-lifetime
// memory; expiry is enforced lazily on access and by PurgeExpired.
type SessionStore interface {
	// Create issues a new token for the given identity and stores the session.
	Create(username, metabaseSessionID string, userID int) (string, *models.Session)
	// Validate returns the session for a token, or false if the token is
	// unknown or expired. An expired entry is deleted as a side effect.
	Validate(token string) (*models.Session, bool)
	// Invalidate removes the local entry and reports whether one existed.
	Invalidate(token string) bool
	// PurgeExpired removes all expired entries and returns how many.
	PurgeExpired() int
	// CountActive returns the number of unexpired entries without mutating
	// the store.
	CountActive() int
}

type sessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*models.Session
}

// NewSessionStore creates a new in-memory session store with the given TTL.
func NewSessionStore(ttl time.Duration) SessionStore {
	return newSessionStore(ttl, time.Now)
}

func newSessionStore(ttl time.Duration, now func() time.Time) *sessionStore {
	return &sessionStore{
		ttl:      ttl,
		now:      now,
		sessions: make(map[string]*models.Session),
	}
}

func (s *sessionStore) Create(username, metabaseSessionID string, userID int) (string, *models.Session) {
	token := newToken()
	session := &models.Session{
		Username:          username,
		MetabaseSessionID: metabaseSessionID,
		UserID:            userID,
		ExpiresAt:         s.now().Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[token] = session
	s.mu.Unlock()

	return token, session
}

func (s *sessionStore) Validate(token string) (*models.Session, bool) {
	if token == "" {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return nil, false
	}
	if session.Expired(s.now()) {
		delete(s.sessions, token)
		return nil, false
	}
	return session, true
}

func (s *sessionStore) Invalidate(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[token]
	delete(s.sessions, token)
	return ok
}

func (s *sessionStore) PurgeExpired() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for token, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, token)
			purged++
		}
	}
	return purged
}

func (s *sessionStore) CountActive() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, session := range s.sessions {
		if !session.Expired(now) {
			count++
		}
	}
	return count
}

// newToken generates a 256-bit random token in a URL-safe alphabet.
// Collisions are probabilistically impossible at this entropy.
func newToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("failed to generate random token: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

var _ SessionStore = (*sessionStore)(nil)
