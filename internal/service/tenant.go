package service

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/google/uuid"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
	"github.com/afk-bro/watershed-campground-sub004/internal/repo"
)

// TenantResolver is the single place an organization id enters a request.
// Every failure stops the request; there is no default organization.
type TenantResolver struct {
	orgs       repo.OrganizationRepo
	baseDomain string
}

// NewTenantResolver constructs a TenantResolver. baseDomain is the apex the
// public subdomains hang off (e.g. "example.com"); the apex itself never
// resolves to a tenant.
func NewTenantResolver(orgs repo.OrganizationRepo, baseDomain string) *TenantResolver {
	return &TenantResolver{orgs: orgs, baseDomain: normalizeHost(baseDomain)}
}

// ResolvePublic maps a request Host to its organization.
// Returns domain.ErrNotFound for unknown hosts so tenant existence is not leaked.
func (t *TenantResolver) ResolvePublic(ctx context.Context, host string) (uuid.UUID, error) {
	host = normalizeHost(host)
	if host == "" || host == t.baseDomain {
		return uuid.Nil, fmt.Errorf("service.TenantResolver.ResolvePublic: %w", domain.ErrNotFound)
	}

	id, err := t.orgs.ResolveHost(ctx, host)
	if err != nil {
		return uuid.Nil, fmt.Errorf("service.TenantResolver.ResolvePublic: %w", err)
	}
	return id, nil
}

// ResolveAdmin maps an authenticated user to their organization.
// Returns domain.ErrForbidden when the user belongs to none.
func (t *TenantResolver) ResolveAdmin(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	id, err := t.orgs.GetUserOrganization(ctx, userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("service.TenantResolver.ResolveAdmin: %w", err)
	}
	if id == nil || *id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("service.TenantResolver.ResolveAdmin: user has no organization: %w", domain.ErrForbidden)
	}
	return *id, nil
}

// normalizeHost lowercases host and strips any port and trailing dot.
func normalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(strings.ToLower(host), ".")
}

// requirePublicTenant and requireAdminTenant reject the zero organization
// id, which means no tenant was resolved for the caller. Public operations
// report it as not found, admin operations as forbidden.
func requirePublicTenant(orgID uuid.UUID) error {
	if orgID == uuid.Nil {
		return fmt.Errorf("no organization resolved: %w", domain.ErrNotFound)
	}
	return nil
}

func requireAdminTenant(orgID uuid.UUID) error {
	if orgID == uuid.Nil {
		return fmt.Errorf("no organization resolved: %w", domain.ErrForbidden)
	}
	return nil
}
