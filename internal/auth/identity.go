package auth

import (
	"context"
	"errors"
	"net/http"
)

// Role — роль вызывающего.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Valid проверяет, что роль известна сервису.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

var (
	// ErrUnauthenticated — запрос не содержит учётных данных.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidCredentials — учётные данные есть, но не прошли проверку.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Identity — уже проверенная личность вызывающего.
type Identity struct {
	UserID string
	Role   Role
}

// HasRole сообщает, обладает ли личность хотя бы одной из ролей.
func (i Identity) HasRole(roles ...Role) bool {
	for _, role := range roles {
		if i.Role == role {
			return true
		}
	}
	return false
}

// Authenticator извлекает Identity из входящего запроса.
type Authenticator interface {
	Authenticate(r *http.Request) (Identity, error)
}

type identityKey struct{}

// WithIdentity кладёт Identity в контекст.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// FromContext достаёт Identity из контекста.
func FromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(Identity)
	return identity, ok
}
