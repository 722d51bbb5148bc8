// Package auth verifies bearer tokens and carries the caller identity
// through the request context.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"fintrack/internal/core"
)

// Identity is the verified caller extracted from a session token.
type Identity struct {
	Subject  string
	Email    string
	Name     string
	ImageURL string
}

// Claims is the JWT payload issued by the auth frontend.
type Claims struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	ImageURL string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 session tokens.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates a token, returning the caller identity.
// Any parse or validation failure maps to core.ErrUnauthorized.
func (v *Verifier) Verify(tokenString string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUnauthorized, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, core.ErrUnauthorized
	}
	return &Identity{
		Subject:  claims.Subject,
		Email:    claims.Email,
		Name:     claims.Name,
		ImageURL: claims.ImageURL,
	}, nil
}

type contextKey string

const identityContextKey contextKey = "identity"

// WithIdentity returns a context carrying the verified identity.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext returns the verified caller, or core.ErrUnauthorized
// when the request never passed through the auth middleware.
func IdentityFromContext(ctx context.Context) (*Identity, error) {
	id, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok || id == nil {
		return nil, core.ErrUnauthorized
	}
	return id, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// identity in the request context for handlers.
func (v *Verifier) Middleware(onReject func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				onReject(w, r, core.ErrUnauthorized)
				return
			}
			id, err := v.Verify(token)
			if err != nil {
				onReject(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return token
	}
	return ""
}
