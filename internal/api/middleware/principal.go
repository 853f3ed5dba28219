package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type principalKey struct{}

// DefaultPrincipal is recorded when a request carries no identity.
const DefaultPrincipal = "admin"

// Principal resolves the acting admin. With a secret configured, requests
// must carry "Authorization: Bearer <HS256 JWT>" and the token's sub claim
// becomes the principal. Without a secret the X-Admin-ID header is used.
func Principal(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := DefaultPrincipal
			if secret != "" {
				sub, err := subjectFromBearer(r.Header.Get("Authorization"), []byte(secret))
				if err != nil {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusUnauthorized)
					_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
					return
				}
				id = sub
			} else if h := strings.TrimSpace(r.Header.Get("X-Admin-ID")); h != "" {
				id = h
			}
			ctx := context.WithValue(r.Context(), principalKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFrom returns the principal stored by Principal, or DefaultPrincipal.
func PrincipalFrom(ctx context.Context) string {
	if id, ok := ctx.Value(principalKey{}).(string); ok && id != "" {
		return id
	}
	return DefaultPrincipal
}

func subjectFromBearer(header string, secret []byte) (string, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return "", errors.New("missing bearer token")
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}
