// Package session keeps the signed-in user and their token in durable storage.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenKey = "token"
	userKey  = "user"
)

var (
	// ErrNotAuthenticated is returned when an operation needs a signed-in user.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrEmptyToken is returned by Login when no token is given.
	ErrEmptyToken = errors.New("token is required")
)

// User is the signed-in account as returned by the backend.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      string `json:"role,omitempty"`
}

// Session is a snapshot of the current sign-in state.
type Session struct {
	Token string
	User  *User
}

// Authenticated reports whether a token is present.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Store owns the session lifecycle: Init on start-up, then Login, UpdateUser and Logout.
type Store struct {
	kv  KV
	log *slog.Logger
	now func() time.Time

	mu      sync.RWMutex
	current Session
}

// NewStore creates a Store backed by kv. Call Init before reading the session.
func NewStore(kv KV, log *slog.Logger) *Store {
	return &Store{kv: kv, log: log, now: time.Now}
}

// Init restores the persisted session. A token whose exp claim has already
// passed is removed together with its user. Signatures are not checked here.
func (s *Store) Init(ctx context.Context) error {
	token, found, err := s.kv.Get(ctx, tokenKey)
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	if !found || token == "" {
		s.set(Session{})
		return nil
	}

	if s.expired(token) {
		s.log.InfoContext(ctx, "Stored session token expired, signing out")
		return s.Logout(ctx)
	}

	restored := Session{Token: token}

	raw, found, err := s.kv.Get(ctx, userKey)
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	if found {
		var user User
		if err = json.Unmarshal([]byte(raw), &user); err != nil {
			s.log.WarnContext(ctx, "Stored session user is corrupt, signing out", "error", err)
			return s.Logout(ctx)
		}
		restored.User = &user
	}

	s.set(restored)
	return nil
}

// Login persists token and user and makes them current.
func (s *Store) Login(ctx context.Context, token string, user User) error {
	if token == "" {
		return ErrEmptyToken
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode session user: %w", err)
	}
	// The token marks the session as signed in, so it is written last.
	if err = s.kv.Set(ctx, userKey, string(raw)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if err = s.kv.Set(ctx, tokenKey, token); err != nil {
		if logoutErr := s.Logout(ctx); logoutErr != nil {
			s.log.WarnContext(ctx, "Failed to roll back session", "error", logoutErr)
		}
		return fmt.Errorf("failed to save session: %w", err)
	}

	s.set(Session{Token: token, User: &user})
	s.log.InfoContext(ctx, "User signed in", "user_id", user.ID)

	return nil
}

// Logout removes the persisted session.
func (s *Store) Logout(ctx context.Context) error {
	s.set(Session{})

	if err := s.kv.Delete(ctx, tokenKey, userKey); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// UpdateUser replaces the stored user of the current session.
func (s *Store) UpdateUser(ctx context.Context, user User) error {
	current := s.Current()
	if !current.Authenticated() {
		return ErrNotAuthenticated
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode session user: %w", err)
	}
	if err = s.kv.Set(ctx, userKey, string(raw)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	s.set(Session{Token: current.Token, User: &user})
	return nil
}

// Current returns a copy of the current session.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	current := Session{Token: s.current.Token}
	if s.current.User != nil {
		user := *s.current.User
		current.User = &user
	}
	return current
}

func (s *Store) set(session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = session
}

// expired reports whether token is a JWT with an exp claim in the past.
// Opaque tokens and tokens without exp are left to the backend.
func (s *Store) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(s.now())
}
