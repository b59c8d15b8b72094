package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/parishpush/internal/domain"
)

// RequireRole returns middleware that allows access only to users whose JWT
// role matches one of the provided role names (e.g. domain.RoleParish).
func RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			for _, role := range allowedRoles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeJSONError(w, http.StatusForbidden, "forbidden")
		})
	}
}

type ownerLookup interface {
	OwnerOf(ctx context.Context, parishID string) (string, error)
}

// RequireParishOwner admits the request only when the caller manages the
// parish named by the {parishId} URL param: the token's parish claim must
// match and the owner table must list the caller as owner.
func RequireParishOwner(owners ownerLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			parishID := chi.URLParam(r, "parishId")
			if parishID == "" || claims.ParishID != parishID {
				writeJSONError(w, http.StatusForbidden, "forbidden")
				return
			}
			owner, err := owners.OwnerOf(r.Context(), parishID)
			if errors.Is(err, domain.ErrNotFound) || (err == nil && owner != claims.UserID) {
				writeJSONError(w, http.StatusForbidden, "forbidden")
				return
			}
			if err != nil {
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
