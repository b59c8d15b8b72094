package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/parishpush/internal/domain"
	jwtinfra "github.com/parishpush/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
)

func TestRequireRole_NoClaimsInContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	RequireRole(domain.RoleParish)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireRole_WrongRole(t *testing.T) {
	ctx := WithClaims(context.Background(), &jwtinfra.Claims{Role: domain.RoleFollower})
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	rr := httptest.NewRecorder()
	RequireRole(domain.RoleParish)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequireRole_MultipleAllowedRoles(t *testing.T) {
	ctx := WithClaims(context.Background(), &jwtinfra.Claims{Role: domain.RoleFollower})
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	rr := httptest.NewRecorder()
	RequireRole(domain.RoleParish, domain.RoleFollower)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

type stubOwners map[string]string

func (s stubOwners) OwnerOf(_ context.Context, parishID string) (string, error) {
	if parishID == "boom" {
		return "", errors.New("dynamo down")
	}
	owner, ok := s[parishID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return owner, nil
}

func TestRequireParishOwner(t *testing.T) {
	owners := stubOwners{"P1": "acct-1"}
	cases := []struct {
		name   string
		claims *jwtinfra.Claims
		path   string
		want   int
	}{
		{"owner", &jwtinfra.Claims{UserID: "acct-1", ParishID: "P1"}, "P1", http.StatusOK},
		{"claim for other parish", &jwtinfra.Claims{UserID: "acct-1", ParishID: "P2"}, "P1", http.StatusForbidden},
		{"not the owner", &jwtinfra.Claims{UserID: "acct-2", ParishID: "P1"}, "P1", http.StatusForbidden},
		{"unknown parish", &jwtinfra.Claims{UserID: "acct-1", ParishID: "P9"}, "P9", http.StatusForbidden},
		{"lookup failure", &jwtinfra.Claims{UserID: "acct-1", ParishID: "boom"}, "boom", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.With(RequireParishOwner(owners)).Get("/parishes/{parishId}", okHandler)

			req := httptest.NewRequest(http.MethodGet, "/parishes/"+tc.path, nil)
			req = req.WithContext(WithClaims(req.Context(), tc.claims))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}
