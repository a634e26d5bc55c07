package authz

// Principal describes the authenticated caller for one decision.
// Constructed fresh per request from normalized claims; immutable after
// construction and never persisted.
type Principal struct {
	// ID is the unique user identity.
	ID string

	// Roles is the unordered set of role labels. May be empty.
	Roles []string

	// ActiveTenantID is the tenant the request acts within.
	ActiveTenantID string

	// GroupRef references the principal's introducer group, when
	// applicable.
	GroupRef string

	// Attributes carries policy-specific facts beyond the well-known
	// fields above. Optional extension point; the built-in rules do not
	// read it.
	Attributes map[string]any
}

// HasRole checks if the principal holds a specific role.
func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole checks if the principal holds any of the given roles.
func (p *Principal) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if p.HasRole(role) {
			return true
		}
	}
	return false
}

// Resource describes the object access is requested against. Supplied
// per request by the resource-lookup collaborator; immutable.
type Resource struct {
	// Kind is the resource kind tag, e.g. "account".
	Kind string

	// ID is the resource identifier, unique within its kind.
	ID string

	// OwnerID is the identity of the resource owner.
	OwnerID string

	// TenantID is the owning tenant. Always present on well-formed
	// resources; absence denies.
	TenantID string

	// Attributes carries resource facts beyond the well-known fields.
	Attributes map[string]any
}
