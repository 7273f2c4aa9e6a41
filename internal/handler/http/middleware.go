package http

import (
	"net/http"

	"github.com/storescout/storescout/internal/domain"
	"github.com/storescout/storescout/pkg/middleware"
)

// ContentTypeJSON sets the response Content-Type to application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// actorFromRequest builds the acting user from the claims the auth
// middleware injected into the request context.
func actorFromRequest(r *http.Request) domain.Actor {
	return domain.Actor{
		ID:   middleware.UserIDFromContext(r.Context()),
		Role: middleware.RoleFromContext(r.Context()),
	}
}
