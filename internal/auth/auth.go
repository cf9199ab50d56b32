// Package auth resolves the acting user for a request. Bearer tokens are
// verified as HMAC-signed JWTs; when no token is presented the demo user is
// assumed so the API stays usable without an identity provider.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultUserID is the demo account used when a request carries no token.
const DefaultUserID = "USER001"

type contextKey struct{}

// Verifier validates bearer tokens and extracts the user id.
type Verifier struct {
	secret []byte
}

// NewVerifier builds a Verifier for HS256 tokens signed with secret. An empty
// secret disables token verification entirely; every request runs as the demo
// user.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// UserFromToken parses and verifies token; the subject claim is the user id.
func (v *Verifier) UserFromToken(token string) (string, error) {
	if len(v.secret) == 0 {
		return "", fmt.Errorf("token verification is not configured")
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("token has no subject claim")
	}
	return sub, nil
}

// IssueToken mints a token for userID, mainly for local testing.
func (v *Verifier) IssueToken(userID string, ttl time.Duration) (string, error) {
	if len(v.secret) == 0 {
		return "", fmt.Errorf("token signing is not configured")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Middleware resolves the user id from the Authorization header and stores it
// on the request context. Requests without a header run as the demo user; a
// present-but-invalid token is rejected.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := DefaultUserID

		if header := r.Header.Get("Authorization"); header != "" {
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				http.Error(w, "malformed authorization header", http.StatusUnauthorized)
				return
			}
			uid, err := v.UserFromToken(strings.TrimSpace(token))
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			userID = uid
		}

		ctx := context.WithValue(r.Context(), contextKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID returns the user id resolved by Middleware, or the demo user when the
// middleware did not run.
func UserID(ctx context.Context) string {
	if uid, ok := ctx.Value(contextKey{}).(string); ok && uid != "" {
		return uid
	}
	return DefaultUserID
}
