package server

import (
	"context"
	"net/http"

	"github.com/nyaysahay/nyaysahay/pkg/auth"
)

type contextKey string

const principalContextKey contextKey = "principal"

// requireAuth gates protected routes on a valid credential cookie. Every
// failure collapses to the same 401; no hint of which check failed.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if cookie, err := r.Cookie(tokenCookieName); err == nil {
			token = cookie.Value
		}

		principal, err := s.authenticator.Authenticate(r.Context(), token)
		if err != nil {
			failureResponse(w, http.StatusUnauthorized, "Unauthorized User")
			return
		}

		ctx := context.WithValue(r.Context(), principalContextKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// principalForRequest returns the principal attached by requireAuth.
func principalForRequest(r *http.Request) *auth.Principal {
	principal, _ := r.Context().Value(principalContextKey).(*auth.Principal)
	return principal
}
