// Package session holds the per-browser credential that the remote client
// attaches to outbound calls, and the guard that gates authenticated pages.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// State is the credential lifecycle: none -> authenticated -> none.
type State int

const (
	StateNone State = iota
	StateAuthenticated
)

func (s State) String() string {
	if s == StateAuthenticated {
		return "authenticated"
	}
	return "none"
}

var ErrEmptyToken = errors.New("empty token")

// Credential is what a successful sign-in yields.
type Credential struct {
	Token     string   `json:"token"`
	TokenType string   `json:"tokenType"`
	UserID    int64    `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
}

// AuthorizationHeader is the value sent in the Authorization header.
func (c Credential) AuthorizationHeader() string {
	typ := c.TokenType
	if typ == "" {
		typ = "Bearer"
	}
	return typ + " " + c.Token
}

// ExpiresAt reads the exp claim when the token is a JWT. The signature is not
// verified; the API does that. Opaque tokens report ok=false.
func (c Credential) ExpiresAt() (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.Token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether the token carries an exp claim at or before now.
func (c Credential) Expired(now time.Time) bool {
	exp, ok := c.ExpiresAt()
	return ok && !now.Before(exp)
}

// Session is one browser's credential holder. It is safe for concurrent use
// by the parallel fetches of a single page. When a Store is set, changes are
// written through so the session survives restarts.
type Session struct {
	id    string
	store Store

	mu   sync.RWMutex
	cred *Credential
}

// NewID returns a fresh random session id.
func NewID() string {
	return uuid.NewString()
}

// New returns an empty session. store may be nil.
func New(id string, store Store) *Session {
	return &Session{id: id, store: store}
}

// Restore loads the credential for id from store, or returns an empty
// session when none is stored.
func Restore(ctx context.Context, id string, store Store) (*Session, error) {
	s := New(id, store)
	if store == nil {
		return s, nil
	}
	cred, err := store.Load(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	s.cred = &cred
	return s, nil
}

func (s *Session) ID() string { return s.id }

// Authenticate replaces any held credential with cred.
func (s *Session) Authenticate(ctx context.Context, cred Credential) error {
	if cred.Token == "" {
		return ErrEmptyToken
	}
	if cred.Roles == nil {
		cred.Roles = []string{}
	}
	if s.store != nil {
		if err := s.store.Save(ctx, s.id, cred); err != nil {
			return fmt.Errorf("save credential: %w", err)
		}
	}
	s.mu.Lock()
	s.cred = &cred
	s.mu.Unlock()
	return nil
}

// Clear drops the credential. The in-memory state is cleared even when the
// store fails, so a failing store can never keep a user signed in.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.cred = nil
	s.mu.Unlock()
	if s.store != nil {
		if err := s.store.Delete(ctx, s.id); err != nil {
			return fmt.Errorf("delete credential: %w", err)
		}
	}
	return nil
}

func (s *Session) Credential() (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cred == nil {
		return Credential{}, false
	}
	return *s.cred, true
}

func (s *Session) Token() (string, bool) {
	cred, ok := s.Credential()
	return cred.Token, ok
}

func (s *Session) State() State {
	if _, ok := s.Credential(); ok {
		return StateAuthenticated
	}
	return StateNone
}
