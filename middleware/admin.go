package middleware

import (
	"net/http"

	"pearl_backend/auth"
)

// RequireAdmin lets a request through only with a live session belonging to
// adminUID. The session is stored on the request context.
func RequireAdmin(provider auth.Provider, adminUID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(auth.CookieName)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "login required")
				return
			}
			s, err := provider.Lookup(r.Context(), c.Value)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "login required")
				return
			}
			if !auth.IsAdmin(s, adminUID) {
				WriteError(w, http.StatusForbidden, "admin access only")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), s)))
		})
	}
}
