package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/blytz-live/storefront/internal/domain"
)

// AuthService handles session lifecycle against the backend. Successful
// login and register calls capture the issued tokens into the TokenStore so
// subsequent requests carry the bearer header automatically.
type AuthService struct {
	client *Client
	tokens *TokenStore
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type sessionEnvelope struct {
	Token        string       `json:"token"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *domain.User `json:"user"`
}

func (e sessionEnvelope) accessToken() string {
	if e.AccessToken != "" {
		return e.AccessToken
	}
	return e.Token
}

// sessionUser never returns nil: when the envelope omits the user object,
// identity is read from the token claims where possible.
func (e sessionEnvelope) sessionUser() *domain.User {
	if e.User != nil {
		return e.User
	}
	user := &domain.User{}
	if claims, err := parseClaims(e.accessToken()); err == nil {
		user.ID = claims.Subject
		user.Email = claims.Email
		user.Role = claims.Role
	}
	return user
}

// Login authenticates and stores the resulting session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("api: email and password are required")
	}
	body := map[string]string{"email": email, "password": password}
	var envelope sessionEnvelope
	if err := s.client.post(ctx, "/auth/login", body, &envelope); err != nil {
		return nil, err
	}
	if envelope.accessToken() == "" {
		return nil, fmt.Errorf("api: login response carried no token")
	}
	user := envelope.sessionUser()
	if s.tokens != nil {
		s.tokens.SetSession(envelope.accessToken(), envelope.RefreshToken, user)
	}
	return user, nil
}

// Register creates an account and stores the resulting session.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("api: email and password are required")
	}
	var envelope sessionEnvelope
	if err := s.client.post(ctx, "/auth/register", req, &envelope); err != nil {
		return nil, err
	}
	user := envelope.sessionUser()
	if s.tokens != nil && envelope.accessToken() != "" {
		s.tokens.SetSession(envelope.accessToken(), envelope.RefreshToken, user)
	}
	return user, nil
}

// Logout revokes the session server-side and always clears local state,
// even when the revoke call fails.
func (s *AuthService) Logout(ctx context.Context) error {
	err := s.client.post(ctx, "/auth/logout", nil, nil)
	if s.tokens != nil {
		s.tokens.Clear()
	}
	return err
}

// Profile fetches the authenticated user's profile.
func (s *AuthService) Profile(ctx context.Context) (domain.User, error) {
	var envelope struct {
		Wrapped *domain.User `json:"user"`
		domain.User
	}
	if err := s.client.get(ctx, "/auth/profile", nil, &envelope); err != nil {
		return domain.User{}, err
	}
	if envelope.Wrapped != nil {
		return *envelope.Wrapped, nil
	}
	return envelope.User, nil
}

// UpdateProfile persists profile edits and refreshes the cached user.
func (s *AuthService) UpdateProfile(ctx context.Context, user domain.User) (domain.User, error) {
	var updated domain.User
	if err := s.client.put(ctx, "/auth/profile", user, &updated); err != nil {
		return domain.User{}, err
	}
	if s.tokens != nil {
		s.tokens.SetSession(s.tokens.AccessToken(), s.tokens.RefreshToken(), &updated)
	}
	return updated, nil
}

// ChangePassword rotates the account password.
func (s *AuthService) ChangePassword(ctx context.Context, current, next string) error {
	if current == "" || next == "" {
		return fmt.Errorf("api: current and new passwords are required")
	}
	body := map[string]string{"current_password": current, "new_password": next}
	return s.client.post(ctx, "/auth/change-password", body, nil)
}
