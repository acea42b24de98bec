// Package server exposes the local RPC boundary the desktop UI talks to:
// lock-screen and credential operations, trade and P&L queries, journal
// entries, and strategy checklists.
package server

import (
	"sync"

	"github.com/google/uuid"
)

// Sessions tracks unlock session tokens. A token is issued when the lock
// screen verifies successfully and dropped when the app locks again or the
// credential changes. Tokens live only in memory.
type Sessions struct {
	mu     sync.Mutex
	tokens map[string]struct{}
}

// NewSessions creates an empty session registry.
func NewSessions() *Sessions {
	return &Sessions{tokens: make(map[string]struct{})}
}

// Issue creates and registers a new session token.
func (s *Sessions) Issue() string {
	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = struct{}{}
	s.mu.Unlock()
	return token
}

// Valid reports whether a token is registered.
func (s *Sessions) Valid(token string) bool {
	if token == "" {
		return false
	}
	s.mu.Lock()
	_, ok := s.tokens[token]
	s.mu.Unlock()
	return ok
}

// Revoke drops all issued tokens.
func (s *Sessions) Revoke() {
	s.mu.Lock()
	s.tokens = make(map[string]struct{})
	s.mu.Unlock()
}
