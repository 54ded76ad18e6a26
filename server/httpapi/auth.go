package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/AntonStoeckl/booklending/catalog"
	"github.com/AntonStoeckl/booklending/server/core"
)

// HashPassword hashes a password for storage in the users table.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// handleLogin exchanges credentials for a token. The response body is the token as a JSON string.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentialsDTO
	if err := decodeBody(r, &creds); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.store.FindUser(r.Context(), strings.TrimSpace(creds.Username))
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			err = errInvalidCredentials
		}
		s.writeError(w, r, err)
		return
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		s.writeError(w, r, errInvalidCredentials)
		return
	}

	token, err := s.issuer.Issue(user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, token)
}

// handleCreateUser adds an account. Only admins may create accounts.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if principal, _ := principalFrom(r.Context()); principal.Role != catalog.RoleAdmin {
		s.writeError(w, r, core.ErrRoleNotPermitted)
		return
	}

	var dto newUserDTO
	if err := decodeBody(r, &dto); err != nil {
		s.writeError(w, r, err)
		return
	}

	username := strings.TrimSpace(dto.Username)
	role := catalog.ParseRole(dto.Role)

	if username == "" || dto.Password == "" || role == catalog.RoleNone {
		s.writeError(w, r, errors.Join(catalog.ErrValidation, errors.New("username, password, and a role of ADMIN or USER are required")))
		return
	}

	hash, err := HashPassword(dto.Password)
	if err != nil {
		s.writeError(w, r, errors.Join(catalog.ErrValidation, err))
		return
	}

	user, err := s.store.CreateUser(r.Context(), username, hash, role)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, userDTO{ID: user.ID, Username: user.Username, Role: string(user.Role)})
}
