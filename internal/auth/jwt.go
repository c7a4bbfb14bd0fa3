package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims — полезная нагрузка токена.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTAuthenticator проверяет HS256 bearer-токены.
type JWTAuthenticator struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
	now      func() time.Time
}

// JWTOption настраивает JWTAuthenticator.
type JWTOption func(*JWTAuthenticator)

// WithIssuer требует совпадения iss.
func WithIssuer(issuer string) JWTOption {
	return func(a *JWTAuthenticator) { a.issuer = issuer }
}

// WithAudience требует наличия aud.
func WithAudience(audience string) JWTOption {
	return func(a *JWTAuthenticator) { a.audience = audience }
}

// WithLeeway задаёт допустимый рассинхрон часов.
func WithLeeway(leeway time.Duration) JWTOption {
	return func(a *JWTAuthenticator) {
		if leeway >= 0 {
			a.leeway = leeway
		}
	}
}

// NewJWTAuthenticator создаёт аутентификатор с общим секретом.
func NewJWTAuthenticator(secret string, opts ...JWTOption) *JWTAuthenticator {
	a := &JWTAuthenticator{
		secret: []byte(secret),
		leeway: 30 * time.Second,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authenticate реализует Authenticator.
func (a *JWTAuthenticator) Authenticate(r *http.Request) (Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return Identity{}, ErrUnauthenticated
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return Identity{}, fmt.Errorf("%w: bearer token expected", ErrInvalidCredentials)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(a.leeway),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(a.issuer))
	}
	if a.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(a.audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, parserOpts...)
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	identity := Identity{UserID: claims.Subject, Role: Role(claims.Role)}
	if identity.UserID == "" || !identity.Role.Valid() {
		return Identity{}, fmt.Errorf("%w: subject and role are required", ErrInvalidCredentials)
	}
	return identity, nil
}

// IssueToken подписывает токен для пользователя. Используется тестами и
// локальными утилитами.
func (a *JWTAuthenticator) IssueToken(userID string, role Role, ttl time.Duration) (string, error) {
	now := a.now()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if a.audience != "" {
		claims.Audience = jwt.ClaimStrings{a.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
