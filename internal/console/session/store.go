// Package session holds the console's bearer credential: one token per store,
// mirrored to durable storage and observable through subscriptions.
package session

import "sync"

// CredentialStore persists the bearer token across process restarts.
type CredentialStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Subscriber receives every token transition together with the store sequence
// number at which it happened.
type Subscriber func(token string, seq uint64)

// Store is the single source of truth for the bearer token. It is an explicit
// dependency handed to consumers, never package-level state.
type Store struct {
	mu          sync.Mutex
	creds       CredentialStore
	token       string
	seq         uint64
	subscribers []Subscriber
}

// NewStore constructs a Store seeded from durable storage. A storage read
// failure degrades to an empty session rather than failing startup.
func NewStore(creds CredentialStore) *Store {
	s := &Store{creds: creds}
	if creds != nil {
		if token, err := creds.Load(); err == nil {
			s.token = token
		}
	}
	return s
}

// Token returns the current token and whether one is present.
func (s *Store) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

// Seq returns the current change sequence number. It increases on every
// SetToken or Clear, so an observer can detect that the session moved on.
func (s *Store) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// SetToken stores the token durably, updates the in-memory copy and notifies
// subscribers.
func (s *Store) SetToken(token string) error {
	if s.creds != nil {
		if err := s.creds.Save(token); err != nil {
			return err
		}
	}
	s.transition(token)
	return nil
}

// Clear removes the token from durable storage and memory and notifies
// subscribers with an empty token.
func (s *Store) Clear() error {
	if s.creds != nil {
		if err := s.creds.Clear(); err != nil {
			return err
		}
	}
	s.transition("")
	return nil
}

// Subscribe registers a callback invoked synchronously on every token
// transition. Subscriptions cannot be removed; the store lives as long as the
// process.
func (s *Store) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) transition(token string) {
	s.mu.Lock()
	s.token = token
	s.seq++
	seq := s.seq
	subs := make([]Subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(token, seq)
	}
}
