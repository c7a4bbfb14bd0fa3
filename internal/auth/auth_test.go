package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func requestWithBearer(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/orders/mine", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestJWTAuthenticator_RoundTrip(t *testing.T) {
	a := NewJWTAuthenticator("secret", WithIssuer("storeorders"), WithAudience("api"))

	token, err := a.IssueToken("user-1", RoleCustomer, time.Minute)
	require.NoError(t, err)

	identity, err := a.Authenticate(requestWithBearer(token))
	require.NoError(t, err)
	require.Equal(t, Identity{UserID: "user-1", Role: RoleCustomer}, identity)
}

func TestJWTAuthenticator_Rejects(t *testing.T) {
	a := NewJWTAuthenticator("secret", WithIssuer("storeorders"), WithAudience("api"), WithLeeway(0))

	_, err := a.Authenticate(requestWithBearer(""))
	require.ErrorIs(t, err, ErrUnauthenticated)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc")
	_, err = a.Authenticate(req)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	other := NewJWTAuthenticator("other-secret", WithIssuer("storeorders"), WithAudience("api"))
	forged, err := other.IssueToken("user-1", RoleAdmin, time.Minute)
	require.NoError(t, err)
	_, err = a.Authenticate(requestWithBearer(forged))
	require.ErrorIs(t, err, ErrInvalidCredentials)

	wrongIssuer := NewJWTAuthenticator("secret", WithIssuer("someone-else"), WithAudience("api"))
	token, err := wrongIssuer.IssueToken("user-1", RoleAdmin, time.Minute)
	require.NoError(t, err)
	_, err = a.Authenticate(requestWithBearer(token))
	require.ErrorIs(t, err, ErrInvalidCredentials)

	expired, err := a.IssueToken("user-1", RoleAdmin, -time.Minute)
	require.NoError(t, err)
	_, err = a.Authenticate(requestWithBearer(expired))
	require.ErrorIs(t, err, ErrInvalidCredentials)

	unknownRole, err := a.IssueToken("user-1", Role("root"), time.Minute)
	require.NoError(t, err)
	_, err = a.Authenticate(requestWithBearer(unknownRole))
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestJWTAuthenticator_RejectsOtherAlgorithms(t *testing.T) {
	a := NewJWTAuthenticator("secret")

	claims := Claims{
		Role: string(RoleAdmin),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = a.Authenticate(requestWithBearer(token))
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestHeaderAuthenticator(t *testing.T) {
	a := NewHeaderAuthenticator()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := a.Authenticate(req)
	require.ErrorIs(t, err, ErrUnauthenticated)

	req.Header.Set(HeaderUserID, "user-1")
	req.Header.Set(HeaderRole, "Admin")
	identity, err := a.Authenticate(req)
	require.NoError(t, err)
	require.Equal(t, RoleAdmin, identity.Role)

	req.Header.Set(HeaderRole, "guest")
	_, err = a.Authenticate(req)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestIdentityContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{UserID: "u", Role: RoleAdmin})
	identity, ok := FromContext(ctx)
	require.True(t, ok)
	require.True(t, identity.HasRole(RoleCustomer, RoleAdmin))
	require.False(t, identity.HasRole(RoleCustomer))
}
