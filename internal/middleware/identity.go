package middleware

import (
	"net/http"
	"strings"

	"filevault/internal/httputil"
)

// UserIDHeader carries the caller's identity, set by the authenticating
// gateway in front of this service
const UserIDHeader = "X-User-ID"

// Identity puts the caller's user id into the request context. Requests
// without one are rejected, except for the public paths given.
func Identity(publicPaths ...string) func(http.Handler) http.Handler {
	public := make(map[string]bool, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
			if userID == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing "+UserIDHeader+" header")
				return
			}

			next.ServeHTTP(w, httputil.WithUserID(r, userID))
		})
	}
}
