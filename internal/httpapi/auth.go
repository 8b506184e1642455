package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// userEmailKey is the context key for the authenticated user's email.
type userEmailKey struct{}

// UserEmail extracts the authenticated user's email from the context.
func UserEmail(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(userEmailKey{}).(string)
	return email, ok && email != ""
}

// Identity returns middleware that extracts the caller's identity from a
// bearer token. Credential verification is the authentication service's job;
// this middleware only accepts tokens signed with the shared secret and
// copies the already-verified email claim into the request context.
func Identity(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			email, _ := claims["email"].(string)
			if email == "" {
				writeError(w, http.StatusUnauthorized, "token has no email claim")
				return
			}

			ctx := context.WithValue(r.Context(), userEmailKey{}, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return h[len(prefix):], true
}
