// Package memstore is an in-memory [store.Store]. Data is lost on restart.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/MrWong99/podium/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps everything in maps guarded by a single lock.
type Store struct {
	mu       sync.RWMutex
	users    map[string]store.User
	byEmail  map[string]string
	tokens   map[string]store.Token
	sessions map[string]store.SpeechSession
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:    make(map[string]store.User),
		byEmail:  make(map[string]string),
		tokens:   make(map[string]store.Token),
		sessions: make(map[string]store.SpeechSession),
	}
}

func (s *Store) CreateUser(_ context.Context, u store.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = store.NormalizeEmail(u.Email)
	if _, ok := s.byEmail[u.Email]; ok {
		return store.ErrEmailTaken
	}
	s.users[u.ID] = u
	s.byEmail[u.Email] = u.ID
	return nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[store.NormalizeEmail(email)]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) UserByID(_ context.Context, id string) (store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(s.users, id)
	delete(s.byEmail, u.Email)
	for k, t := range s.tokens {
		if t.UserID == id {
			delete(s.tokens, k)
		}
	}
	for k, sess := range s.sessions {
		if sess.UserID == id {
			delete(s.sessions, k)
		}
	}
	return nil
}

func (s *Store) CreateToken(_ context.Context, t store.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[t.UserID]; !ok {
		return store.ErrNotFound
	}
	s.tokens[t.Value] = t
	return nil
}

func (s *Store) UserForToken(_ context.Context, token string, now time.Time) (store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[token]
	if !ok || !now.Before(t.ExpiresAt) {
		return store.User{}, store.ErrNotFound
	}
	u, ok := s.users[t.UserID]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *Store) DeleteToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

func (s *Store) CreateSession(_ context.Context, sess store.SpeechSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[sess.UserID]; !ok {
		return store.ErrNotFound
	}
	sess.Scores = clone(store.JSONOrEmpty(sess.Scores))
	sess.Feedback = clone(store.JSONOrEmpty(sess.Feedback))
	sess.Metrics = clone(store.JSONOrEmpty(sess.Metrics))
	s.sessions[sess.ID] = sess
	return nil
}

func (s *Store) GetSession(_ context.Context, id string) (store.SpeechSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return store.SpeechSession{}, store.ErrNotFound
	}
	return sess, nil
}

func (s *Store) ListSessions(_ context.Context, userID string) ([]store.SpeechSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []store.SpeechSession{}
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			out = append(out, sess)
		}
	}
	slices.SortFunc(out, func(a, b store.SpeechSession) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func clone(b []byte) []byte { return append([]byte(nil), b...) }
