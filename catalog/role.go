package catalog

import "strings"

// Role is the authorization role of the signed-in user, as carried in the token's role claim.
type Role string

const (
	// RoleNone is used when nobody is signed in or the claim is missing.
	RoleNone Role = ""
	// RoleAdmin manages the catalog: lends books out, confirms returns, adds and removes books.
	RoleAdmin Role = "ADMIN"
	// RoleBorrower reserves, receives and returns books.
	RoleBorrower Role = "USER"
)

// ParseRole maps a role claim onto a Role. Unrecognized values yield RoleNone.
func ParseRole(raw string) Role {
	switch Role(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(raw)), "ROLE_")) {
	case RoleAdmin:
		return RoleAdmin
	case RoleBorrower:
		return RoleBorrower
	default:
		return RoleNone
	}
}
