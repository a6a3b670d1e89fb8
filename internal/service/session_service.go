// Copyright (c) 2025 Lazycat Apps
// Licensed under the MIT License. See LICENSE file in the project root for details.

package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session represents one authenticated browser session.
type Session struct {
	ID        string    // Opaque session identifier (UUID)
	Email     string    // Authenticated user's email
	Subject   string    // OIDC subject claim
	ExpiresAt time.Time // Session expiry
}

// SessionService manages authenticated sessions for the HTTP API.
// Sessions are held in memory and expire after a fixed TTL.
type SessionService struct {
	sessions map[string]*Session
	ttl      time.Duration
	mu       sync.RWMutex
}

// NewSessionService creates a SessionService with the given session TTL.
func NewSessionService(ttl time.Duration) *SessionService {
	return &SessionService{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Create registers a new session for the given identity and returns it.
func (s *SessionService) Create(subject, email string) *Session {
	session := &Session{
		ID:        uuid.New().String(),
		Email:     email,
		Subject:   subject,
		ExpiresAt: time.Now().Add(s.ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session

	return session
}

// Validate returns the session for the given ID, or false if the session
// does not exist or has expired. Expired sessions are removed lazily.
func (s *SessionService) Validate(id string) (*Session, bool) {
	s.mu.RLock()
	session, exists := s.sessions[id]
	s.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if time.Now().After(session.ExpiresAt) {
		s.Delete(id)
		return nil, false
	}

	return session, true
}

// ValidateSession reports whether a session identifier is valid. It adapts
// Validate to the auth middleware's validator contract.
func (s *SessionService) ValidateSession(id string) bool {
	_, ok := s.Validate(id)
	return ok
}

// Delete removes a session.
func (s *SessionService) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
