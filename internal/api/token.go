package api

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/blytz-live/storefront/internal/domain"
)

// SessionClaims is the subset of access-token claims the client surfaces.
// Tokens are parsed unverified: signature verification belongs to the
// backend, the client only reads expiry and identity for display.
type SessionClaims struct {
	Subject   string
	Email     string
	Role      string
	ExpiresAt time.Time
}

type persistedSession struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	User         *domain.User `json:"user,omitempty"`
}

// TokenStore holds the bearer and refresh tokens for the session, optionally
// persisted to a file between runs. The refresh token is stored for future
// use only; no refresh protocol is implemented.
type TokenStore struct {
	mu      sync.RWMutex
	access  string
	refresh string
	user    *domain.User
	path    string
}

// NewTokenStore constructs a store, loading a persisted session from path
// when one exists. An empty path keeps the session in memory only.
func NewTokenStore(path string) *TokenStore {
	store := &TokenStore{path: strings.TrimSpace(path)}
	store.loadFromFile()
	return store
}

// AccessToken returns the current bearer token, empty when logged out.
func (s *TokenStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

// RefreshToken returns the stored refresh token.
func (s *TokenStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

// User returns the profile captured at login, nil when logged out.
func (s *TokenStore) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	dup := *s.user
	return &dup
}

// Authenticated reports whether a non-expired access token is held.
func (s *TokenStore) Authenticated() bool {
	s.mu.RLock()
	token := s.access
	s.mu.RUnlock()
	if token == "" {
		return false
	}
	claims, err := parseClaims(token)
	if err != nil {
		// Opaque tokens cannot be inspected; treat presence as logged in.
		return true
	}
	if claims.ExpiresAt.IsZero() {
		return true
	}
	return time.Now().Before(claims.ExpiresAt)
}

// Claims parses the held access token without verifying its signature.
func (s *TokenStore) Claims() (SessionClaims, error) {
	s.mu.RLock()
	token := s.access
	s.mu.RUnlock()
	if token == "" {
		return SessionClaims{}, errors.New("api: no session token held")
	}
	return parseClaims(token)
}

// SetSession records tokens and profile after a successful login or
// registration and persists them when a path is configured.
func (s *TokenStore) SetSession(access, refresh string, user *domain.User) {
	s.mu.Lock()
	s.access = strings.TrimSpace(access)
	s.refresh = strings.TrimSpace(refresh)
	if user != nil {
		dup := *user
		s.user = &dup
	} else {
		s.user = nil
	}
	s.mu.Unlock()
	s.saveToFile()
}

// Clear drops the session, e.g. on logout.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	s.access = ""
	s.refresh = ""
	s.user = nil
	path := s.path
	s.mu.Unlock()
	if path != "" {
		_ = os.Remove(path)
	}
}

func (s *TokenStore) loadFromFile() {
	if s.path == "" {
		return
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var session persistedSession
	if err := json.Unmarshal(data, &session); err != nil {
		return
	}
	s.mu.Lock()
	s.access = session.AccessToken
	s.refresh = session.RefreshToken
	s.user = session.User
	s.mu.Unlock()
}

func (s *TokenStore) saveToFile() {
	s.mu.RLock()
	path := s.path
	session := persistedSession{
		AccessToken:  s.access,
		RefreshToken: s.refresh,
		User:         s.user,
	}
	s.mu.RUnlock()
	if path == "" {
		return
	}
	data, err := json.Marshal(session)
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return
	}
	// Session files carry credentials; keep them owner-readable only.
	_ = os.WriteFile(path, data, 0o600)
}

func parseClaims(token string) (SessionClaims, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return SessionClaims{}, err
	}

	out := SessionClaims{}
	if sub, ok := claims["sub"].(string); ok {
		out.Subject = sub
	}
	if email, ok := claims["email"].(string); ok {
		out.Email = email
	}
	if role, ok := claims["role"].(string); ok {
		out.Role = role
	}
	switch exp := claims["exp"].(type) {
	case float64:
		out.ExpiresAt = time.Unix(int64(exp), 0)
	case json.Number:
		if seconds, err := exp.Int64(); err == nil {
			out.ExpiresAt = time.Unix(seconds, 0)
		}
	}
	return out, nil
}
