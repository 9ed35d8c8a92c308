package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
)

// TenantResolver maps a request to its organization.
// *service.TenantResolver satisfies it.
type TenantResolver interface {
	ResolvePublic(ctx context.Context, host string) (uuid.UUID, error)
	ResolveAdmin(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

// WithOrganization returns a copy of ctx scoped to organization id.
func WithOrganization(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, organizationIDKey, id)
}

// OrganizationFromContext returns the organization set by the tenant middleware.
func OrganizationFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(organizationIDKey).(uuid.UUID)
	return id, ok
}

// NewPublicTenant resolves the organization from the request host. Unknown
// hosts get a plain 404 so the response does not reveal which tenants exist.
func NewPublicTenant(resolver TenantResolver, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			orgID, err := resolver.ResolvePublic(r.Context(), r.Host)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				writeError(w, http.StatusNotFound, "not_found", "not found")
				return
			case err != nil:
				log.ErrorContext(r.Context(), "tenant: resolve host", "host", r.Host, "error", err)
				writeError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOrganization(r.Context(), orgID)))
		})
	}
}

// NewAdminTenant resolves the organization of the authenticated user. It must
// run after NewJWTAuth.
func NewAdminTenant(resolver TenantResolver, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}
			orgID, err := resolver.ResolveAdmin(r.Context(), userID)
			switch {
			case errors.Is(err, domain.ErrForbidden):
				writeError(w, http.StatusForbidden, "forbidden", "user is not a member of any organization")
				return
			case err != nil:
				log.ErrorContext(r.Context(), "tenant: resolve user", "user_id", userID, "error", err)
				writeError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOrganization(r.Context(), orgID)))
		})
	}
}
