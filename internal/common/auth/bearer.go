// internal/common/auth/bearer.go
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"advisory-engine/internal/common/errors"
)

// Verifier checks bearer credentials issued by the external auth provider.
// Access tokens are HS256-signed with a shared secret; this service never
// issues or refreshes tokens itself.
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
}

// User is the authenticated principal extracted from a verified token.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

type claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// NewVerifier creates a Verifier. Issuer and audience checks are skipped
// when their expected values are empty.
func NewVerifier(secret, issuer, audience string) *Verifier {
	return &Verifier{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		leeway:   30 * time.Second,
	}
}

// VerifyToken validates a raw bearer token and returns the principal.
func (v *Verifier) VerifyToken(raw string) (*User, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.NewUnauthenticatedError("empty token")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var c claims
	token, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, errors.NewUnauthenticatedError(err.Error())
	}
	if !token.Valid {
		return nil, errors.NewUnauthenticatedError("token is not valid")
	}
	if c.Subject == "" {
		return nil, errors.NewUnauthenticatedError("token has no subject")
	}

	return &User{
		ID:    c.Subject,
		Email: c.Email,
		Role:  c.Role,
	}, nil
}

// ExtractBearer pulls the raw token out of an Authorization header value.
func ExtractBearer(header string) (string, error) {
	if header == "" {
		return "", errors.NewUnauthenticatedError("missing Authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.NewUnauthenticatedError("Authorization header is not a bearer credential")
	}
	return strings.TrimSpace(parts[1]), nil
}
