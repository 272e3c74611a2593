package client

import "sync"

// Session holds the credentials of the signed-in user. It is created at
// login, passed to whatever needs to call the API and cleared on logout or
// when the server rejects the token.
type Session struct {
	mu      sync.RWMutex
	token   string
	user    *User
	onClear []func()
}

func NewSession() *Session {
	return &Session{}
}

// Token returns the bearer token, empty when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the signed-in user if the server has told us who it is.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// SignIn stores the token and, when known, the user it belongs to.
func (s *Session) SignIn(token string, user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user
}

// OnClear registers f to run every time the credentials are dropped.
func (s *Session) OnClear(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClear = append(s.onClear, f)
}

// Clear drops the credentials. Hooks run only if there was something to drop.
func (s *Session) Clear() {
	s.mu.Lock()
	hadToken := s.token != ""
	s.token = ""
	s.user = nil
	hooks := append([]func(){}, s.onClear...)
	s.mu.Unlock()

	if !hadToken {
		return
	}
	for _, hook := range hooks {
		hook()
	}
}
