// Package auth guards the browser-facing authorization endpoints with an
// optional bearer token. When no secret is configured the guard is a
// pass-through and the endpoints are open.
package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"activity-guard/internal/common/logging"
)

// Claims is the token payload the guard accepts.
type Claims struct {
	Subject string `json:"sub,omitempty"`
	jwt.RegisteredClaims
}

// Guard validates HS256 bearer tokens against a shared secret.
type Guard struct {
	secret []byte
	logger logging.Logger
}

// New returns a guard, or nil when secret is empty. A nil *Guard is a valid
// pass-through: its RequireAuth returns the handler unchanged.
func New(secret string, logger logging.Logger) *Guard {
	if secret == "" {
		return nil
	}
	return &Guard{secret: []byte(secret), logger: logger}
}

// IssueToken mints a short-lived token for operator use.
func (g *Guard) IssueToken(subject string, ttl time.Duration) (string, error) {
	claims := Claims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(g.secret)
}

// Validate parses and verifies a bearer token string.
func (g *Guard) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return g.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

// RequireAuth wraps a handler with bearer-token validation. On a nil guard
// the handler is returned unchanged.
func (g *Guard) RequireAuth(next http.Handler) http.Handler {
	if g == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			g.unauthorized(w, r, "missing bearer token")
			return
		}

		claims, err := g.Validate(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			g.unauthorized(w, r, "invalid bearer token")
			return
		}

		if claims.Subject != "" {
			r.Header.Set("X-Subject", claims.Subject)
		}

		next.ServeHTTP(w, r)
	})
}

func (g *Guard) unauthorized(w http.ResponseWriter, r *http.Request, reason string) {
	g.logger.Warn("rejected unauthenticated request",
		logging.Field{Key: "path", Value: r.URL.Path},
		logging.Field{Key: "reason", Value: reason})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error": "Authentication required"}`))
}
