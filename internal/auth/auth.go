// Package auth verifies bearer tokens and resolves the request principal.
//
// Token issuance happens in a separate identity service; this package only
// validates HS256-signed JWTs and rejects anything with an unknown role
// claim. The resolved principal is stored on the request context for the
// tenant scope layer.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hoylabs/hoy-analytics/internal/domain"
	"github.com/hoylabs/hoy-analytics/internal/pkg/httputil"
)

type contextKey string

const principalKey contextKey = "principal"

// Sentinel errors for token verification.
var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the expected JWT payload.
type Claims struct {
	ClientID int64  `json:"client_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens and produces principals.
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier creates a verifier for HS256 tokens signed with secret. If
// issuer is non-empty, the iss claim must match.
func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// Verify parses and validates a raw token and maps its claims to a
// principal. Tokens with a role outside the closed role set are rejected.
func (v *Verifier) Verify(raw string) (domain.Principal, error) {
	var claims Claims
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return domain.Principal{}, ErrInvalidToken
	}

	role, ok := domain.ParseRole(claims.Role)
	if !ok {
		return domain.Principal{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	if claims.Subject == "" {
		return domain.Principal{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return domain.Principal{ID: claims.Subject, ClientID: claims.ClientID, Role: role}, nil
}

// Middleware authenticates every request and stores the principal on the
// context. Requests without a valid token get 401.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerToken(r)
		if err != nil {
			httputil.Unauthorized(w, err.Error())
			return
		}
		p, err := v.Verify(raw)
		if err != nil {
			httputil.Unauthorized(w, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", ErrMissingToken
	}
	return parts[1], nil
}

// WithPrincipal returns a context carrying the principal.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom extracts the authenticated principal from the context.
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey).(domain.Principal)
	return p, ok
}
