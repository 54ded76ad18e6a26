// Package identity keeps track of the signed-in user of the catalog client.
//
// The session only reads the claims of the token handed out by the catalog service's login call.
// It never verifies the signature: the catalog service does that on every request.
package identity

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AntonStoeckl/booklending/catalog"
)

var (
	// ErrMalformedToken is returned when a token cannot be parsed as a JWT.
	ErrMalformedToken = errors.New("malformed token")

	// ErrMissingSubject is returned when a token has no sub claim.
	ErrMissingSubject = errors.New("token has no subject")

	// ErrMissingExpiry is returned when a token has no exp claim.
	ErrMissingExpiry = errors.New("token has no expiry")

	// ErrTokenExpired is returned when signing in with a token that has already expired.
	ErrTokenExpired = errors.New("token expired")

	// ErrNilClock is returned when WithClock is given nil.
	ErrNilClock = errors.New("clock must not be nil")
)

// Landing names the screen a user is routed to after sign-in.
type Landing string

// Landing screens.
const (
	LandingLogin     Landing = "login"
	LandingDashboard Landing = "dashboard"
	LandingHome      Landing = "home"
)

// Claims are the parts of the token the client cares about.
type Claims struct {
	Username  string
	Role      catalog.Role
	ExpiresAt time.Time
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenStore persists the raw token between process runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Session is the catalog.Identity of the signed-in user. It is safe for concurrent use.
type Session struct {
	mu     sync.Mutex
	token  string
	claims Claims
	now    func() time.Time
	store  TokenStore
}

// Option defines a functional option for configuring the Session.
type Option func(*Session) error

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Session) error {
		if now == nil {
			return ErrNilClock
		}

		s.now = now

		return nil
	}
}

// WithStore persists tokens through store. A token already in the store is restored unless it has expired.
func WithStore(store TokenStore) Option {
	return func(s *Session) error {
		s.store = store
		return nil
	}
}

// NewSession creates a Session, restoring a stored token when a store is configured.
func NewSession(opts ...Option) (*Session, error) {
	s := &Session{now: time.Now}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.store == nil {
		return s, nil
	}

	stored, err := s.store.Load()
	if err != nil {
		return nil, err
	}

	if stored == "" {
		return s, nil
	}

	if err := s.SignIn(stored); err != nil {
		// A stale or broken token on disk just means nobody is signed in.
		_ = s.store.Clear()
	}

	return s, nil
}

// ParseClaims reads the claims of token without verifying its signature.
func ParseClaims(token string) (Claims, error) {
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(strings.TrimSpace(token), &claims); err != nil {
		return Claims{}, errors.Join(ErrMalformedToken, err)
	}

	if claims.Subject == "" {
		return Claims{}, ErrMissingSubject
	}

	if claims.ExpiresAt == nil {
		return Claims{}, ErrMissingExpiry
	}

	return Claims{
		Username:  claims.Subject,
		Role:      catalog.ParseRole(claims.Role),
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// SignIn replaces the current session with token.
func (s *Session) SignIn(token string) error {
	claims, err := ParseClaims(token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.now().Before(claims.ExpiresAt) {
		return ErrTokenExpired
	}

	s.token = strings.TrimSpace(token)
	s.claims = claims

	if s.store != nil {
		return s.store.Save(s.token)
	}

	return nil
}

// SignOut ends the session and clears the stored token.
func (s *Session) SignOut() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.clearLocked()
}

// CurrentToken implements catalog.Identity. An expired token is reported absent and the session is cleared.
func (s *Session) CurrentToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.activeLocked() {
		return "", false
	}

	return s.token, true
}

// CurrentUsername implements catalog.Identity. It is empty when nobody is signed in.
func (s *Session) CurrentUsername() string {
	return s.Claims().Username
}

// Role returns the role of the signed-in user, or catalog.RoleNone.
func (s *Session) Role() catalog.Role {
	return s.Claims().Role
}

// IsAdmin reports whether the signed-in user is an admin.
func (s *Session) IsAdmin() bool {
	return s.Role() == catalog.RoleAdmin
}

// Landing returns where the user should be routed: the admin dashboard, the borrower home, or the login screen.
func (s *Session) Landing() Landing {
	switch s.Role() {
	case catalog.RoleAdmin:
		return LandingDashboard
	case catalog.RoleBorrower:
		return LandingHome
	default:
		return LandingLogin
	}
}

// Claims returns the claims of the active session, or zero Claims.
func (s *Session) Claims() Claims {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.activeLocked() {
		return Claims{}
	}

	return s.claims
}

func (s *Session) activeLocked() bool {
	if s.token == "" {
		return false
	}

	if !s.now().Before(s.claims.ExpiresAt) {
		_ = s.clearLocked()
		return false
	}

	return true
}

func (s *Session) clearLocked() error {
	s.token = ""
	s.claims = Claims{}

	if s.store != nil {
		return s.store.Clear()
	}

	return nil
}

// Ensure Session implements catalog.Identity.
var _ catalog.Identity = (*Session)(nil)
