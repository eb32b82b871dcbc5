package service

import (
	"sync"

	"github.com/qitt/qitt-backend/models"
)

// SessionState is a snapshot of the authenticated identity and its profile.
// Loading stays true until the first resolution after Start.
type SessionState struct {
	User    *models.User
	Loading bool
}

// Session is an explicit state container over the auth service's state
// transitions. Start subscribes, Stop unsubscribes; Stop is an idempotent
// no-op when called again.
type Session struct {
	auth AuthService

	mu    sync.Mutex
	state SessionState
	subs  []func(SessionState)

	remove   func()
	stopOnce sync.Once
	started  bool
}

func NewSession(auth AuthService) *Session {
	return &Session{
		auth:  auth,
		state: SessionState{Loading: true},
	}
}

// Subscribe registers a callback invoked on every state change. The current
// state is delivered immediately.
func (s *Session) Subscribe(fn func(SessionState)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	current := s.state
	s.mu.Unlock()
	fn(current)
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	s.remove = s.auth.AddListener(func(user *models.User) {
		s.publish(SessionState{User: user, Loading: false})
	})

	// First resolution: signed out until a transition arrives.
	s.publish(SessionState{User: nil, Loading: false})
}

func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		if s.remove != nil {
			s.remove()
		}
	})
}

func (s *Session) publish(state SessionState) {
	s.mu.Lock()
	s.state = state
	subs := make([]func(SessionState), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(state)
	}
}
