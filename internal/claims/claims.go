// Package claims defines the normalized principal claims contract.
//
// The decision engine never sees transport-level credentials. Whatever
// authenticated the caller (headers, session state, a token validated
// upstream) is reduced to a Claims value before authorization runs; this
// boundary keeps the engine transport-agnostic.
package claims

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Header names for the normalized claim fields. The upstream
// authenticating proxy is expected to set these on every request.
const (
	HeaderUserID         = "X-User-Id"
	HeaderRoles          = "X-User-Roles"
	HeaderAllowedTenants = "X-Allowed-Tenants"
	HeaderGroupRef       = "X-Group-Ref"
	HeaderTenantID       = "X-Tenant-Id"
)

// Claims is the caller-normalized identity handed to the authorization
// pipeline. Constructed fresh per request; never persisted.
type Claims struct {
	// UserID is the unique identifier of the authenticated user.
	UserID string `json:"userId"`

	// Roles is the set of role labels held by the user. Unordered.
	Roles []string `json:"roles,omitempty"`

	// AllowedTenants is the set of tenants the user may operate in.
	AllowedTenants []string `json:"allowedTenants,omitempty"`

	// GroupRef references the user's introducer group, when applicable.
	GroupRef string `json:"groupRef,omitempty"`
}

// ErrClaimsNotFound is returned when no claims are present in a context.
var ErrClaimsNotFound = errors.New("claims not found in context")

// HasRole checks if the claims carry a specific role.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Complete reports whether every field the pipeline requires is present:
// an identity, at least one role, and a non-empty allowed-tenant set.
// Incomplete claims must deny, never default-allow.
func (c *Claims) Complete() bool {
	if c == nil {
		return false
	}
	return c.UserID != "" && len(c.Roles) > 0 && len(c.AllowedTenants) > 0
}

// FromHeaders builds Claims from the normalized request headers along
// with the requested tenant id. Missing headers yield zero fields; the
// pipeline treats those as missing context and denies.
func FromHeaders(h http.Header) (*Claims, string) {
	c := &Claims{
		UserID:         strings.TrimSpace(h.Get(HeaderUserID)),
		Roles:          splitList(h.Get(HeaderRoles)),
		AllowedTenants: splitList(h.Get(HeaderAllowedTenants)),
		GroupRef:       strings.TrimSpace(h.Get(HeaderGroupRef)),
	}
	return c, strings.TrimSpace(h.Get(HeaderTenantID))
}

// splitList splits a comma-separated header value, dropping empty items.
func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// Context key type for claims.
type claimsContextKey struct{}

// ContextWithClaims adds claims to the context.
func ContextWithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, c)
}

// FromContext extracts claims from the context.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsContextKey{}).(*Claims)
	return c, ok
}

// FromContextOrError extracts claims from the context or returns an error.
func FromContextOrError(ctx context.Context) (*Claims, error) {
	c, ok := FromContext(ctx)
	if !ok || c == nil {
		return nil, ErrClaimsNotFound
	}
	return c, nil
}
