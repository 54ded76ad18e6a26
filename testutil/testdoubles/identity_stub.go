package testdoubles

import "github.com/AntonStoeckl/booklending/catalog"

// IdentityStub is a fixed catalog.Identity.
type IdentityStub struct {
	Username string
	Token    string // empty means no token available
}

// NewIdentityStub returns an identity signed in as username with the given token.
func NewIdentityStub(username, token string) IdentityStub {
	return IdentityStub{Username: username, Token: token}
}

// CurrentUsername implements catalog.Identity.
func (s IdentityStub) CurrentUsername() string {
	return s.Username
}

// CurrentToken implements catalog.Identity.
func (s IdentityStub) CurrentToken() (string, bool) {
	return s.Token, s.Token != ""
}

// Ensure IdentityStub implements catalog.Identity.
var _ catalog.Identity = IdentityStub{}
