package session

import (
	"errors"
	"fmt"
	"sync"
)

var ErrEmptyToken = errors.New("session: empty token")

// State is a snapshot of the session.
type State struct {
	Token           string
	IsAuthenticated bool
}

// Store is the process-wide session. Memory and the Persister agree at the
// end of every Login and Logout.
type Store struct {
	p Persister

	mu     sync.RWMutex
	token  string
	subs   map[int]func(State)
	nextID int
}

// Open reads any persisted token before returning, so a restart does not
// log the user out. A read failure leaves the store logged out and is
// returned alongside a usable store.
func Open(p Persister) (*Store, error) {
	s := &Store{p: p, subs: map[int]func(State){}}
	tok, ok, err := p.Read()
	if err != nil {
		return s, fmt.Errorf("session: read persisted token: %w", err)
	}
	if ok {
		s.token = tok
	}
	return s, nil
}

func (s *Store) Login(token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	if err := s.p.Write(token); err != nil {
		return fmt.Errorf("session: persist token: %w", err)
	}
	s.mu.Lock()
	s.token = token
	st := s.stateLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()
	notify(subs, st)
	return nil
}

// Logout forgets the token in memory even when clearing storage fails; the
// storage error is still returned.
func (s *Store) Logout() error {
	perr := s.p.Clear()
	s.mu.Lock()
	changed := s.token != ""
	s.token = ""
	st := s.stateLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()
	if changed {
		notify(subs, st)
	}
	if perr != nil {
		return fmt.Errorf("session: clear persisted token: %w", perr)
	}
	return nil
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

// Token satisfies transport.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) IsAuthenticated() bool { return s.State().IsAuthenticated }

// Subscribe registers fn to be called synchronously after each change.
// The returned func removes it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) stateLocked() State {
	return State{Token: s.token, IsAuthenticated: s.token != ""}
}

func (s *Store) subscribersLocked() []func(State) {
	out := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func(State), st State) {
	for _, fn := range subs {
		fn(st)
	}
}
