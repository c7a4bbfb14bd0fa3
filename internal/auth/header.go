package auth

import (
	"fmt"
	"net/http"
	"strings"
)

// Заголовки, которые выставляет шлюз после собственной аутентификации.
const (
	HeaderUserID = "X-User-ID"
	HeaderRole   = "X-User-Role"
)

// HeaderAuthenticator доверяет заголовкам, проставленным API-шлюзом.
type HeaderAuthenticator struct{}

// NewHeaderAuthenticator создаёт HeaderAuthenticator.
func NewHeaderAuthenticator() HeaderAuthenticator {
	return HeaderAuthenticator{}
}

// Authenticate реализует Authenticator.
func (HeaderAuthenticator) Authenticate(r *http.Request) (Identity, error) {
	userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if userID == "" {
		return Identity{}, ErrUnauthenticated
	}
	role := Role(strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderRole))))
	if !role.Valid() {
		return Identity{}, fmt.Errorf("%w: unknown role %q", ErrInvalidCredentials, role)
	}
	return Identity{UserID: userID, Role: role}, nil
}
