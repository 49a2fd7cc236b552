package daemon

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"storyreel/internal/narrative"
	"storyreel/internal/services"
)

const requestIDHeader = "X-Request-ID"

// authMiddleware resolves the caller identity from a bearer token. With an
// empty token table every request passes as the anonymous owner.
func authMiddleware(tokens map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(tokens) == 0 {
				next.ServeHTTP(w, r.WithContext(services.WithOwner(r.Context(), narrative.AnonymousOwner)))
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			owner, ok := tokens[strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))]
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(services.WithOwner(r.Context(), owner)))
		})
	}
}

// requestIDMiddleware tags each request with a correlation id, reusing the
// caller's X-Request-ID when supplied.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}
