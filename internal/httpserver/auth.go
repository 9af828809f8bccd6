// internal/httpserver/auth.go
//
// Player tokens.
//   - HS256 JWT issued when a player registers; "sub" is the player id.
//   - Read from "Authorization: Bearer <token>" or the player cookie.
//   - Enforced on write routes only when auth.required is set.

package httpserver

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "bowling-go"

// signToken creates an HS256 JWT for playerID, valid for the configured TTL.
func (s *Server) signToken(playerID string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.auth.TTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   playerID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	ss, err := t.SignedString([]byte(s.auth.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return ss, exp, nil
}

// parseToken verifies tok and returns its subject.
func (s *Server) parseToken(tok string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.auth.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// setAuthCookie writes the player token cookie.
func (s *Server) setAuthCookie(w http.ResponseWriter, r *http.Request, token string, exp time.Time) {
	secure := r.TLS != nil
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// bearerOrCookie extracts a bearer token from the Authorization header or the player cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.auth.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// requirePlayerToken rejects requests whose token does not belong to the {id} player.
func (s *Server) requirePlayerToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.auth.Required {
			next.ServeHTTP(w, r)
			return
		}
		tok := s.bearerOrCookie(r)
		if tok == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing player token")
			return
		}
		sub, err := s.parseToken(tok)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token", err.Error())
			return
		}
		if sub != chi.URLParam(r, "id") {
			writeError(w, http.StatusUnauthorized, "invalid_token", "token belongs to another player")
			return
		}
		next.ServeHTTP(w, r)
	})
}
