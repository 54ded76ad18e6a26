package httpapi

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AntonStoeckl/booklending/catalog"
	"github.com/AntonStoeckl/booklending/server/core"
)

// DefaultTokenTTL is how long an issued token stays valid unless configured otherwise.
const DefaultTokenTTL = 10 * time.Hour

var (
	// ErrEmptySigningSecret is returned when a TokenIssuer is created without a secret.
	ErrEmptySigningSecret = errors.New("token signing secret must not be empty")

	// ErrInvalidTokenTTL is returned when the token lifetime is not positive.
	ErrInvalidTokenTTL = errors.New("token ttl must be positive")

	// ErrInvalidToken is returned when a bearer token cannot be verified.
	ErrInvalidToken = errors.New("invalid token")
)

// Principal is the verified identity behind a request.
type Principal struct {
	Username string
	Role     catalog.Role
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 tokens carrying the username as sub and the role claim.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption defines a functional option for configuring TokenIssuer.
type TokenOption func(*TokenIssuer) error

// WithTokenClock replaces time.Now for issuing and expiry checks.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(i *TokenIssuer) error {
		if now == nil {
			return ErrNilClock
		}

		i.now = now

		return nil
	}
}

// NewTokenIssuer creates a TokenIssuer. A zero ttl means DefaultTokenTTL.
func NewTokenIssuer(secret []byte, ttl time.Duration, opts ...TokenOption) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySigningSecret
	}

	if ttl == 0 {
		ttl = DefaultTokenTTL
	}

	if ttl < 0 {
		return nil, ErrInvalidTokenTTL
	}

	issuer := &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}

	for _, opt := range opts {
		if err := opt(issuer); err != nil {
			return nil, err
		}
	}

	return issuer, nil
}

// Issue signs a token for user.
func (i *TokenIssuer) Issue(user core.User) (string, error) {
	issuedAt := i.now()

	claims := tokenClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(i.ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify checks signature and expiry of raw and returns its principal.
func (i *TokenIssuer) Verify(raw string) (Principal, error) {
	claims := &tokenClaims{}

	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil {
		return Principal{}, errors.Join(ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return Principal{}, errors.Join(ErrInvalidToken, errors.New("token has no subject"))
	}

	return Principal{Username: claims.Subject, Role: catalog.ParseRole(claims.Role)}, nil
}
