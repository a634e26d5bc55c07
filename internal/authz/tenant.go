package authz

// CheckMembership reports whether activeTenantID is one of the tenants
// the principal may operate in. Pure set membership, no side effects;
// an empty or absent allowed set always denies. This gate runs before
// any resource is touched so a failure never leaks resource existence
// across tenant boundaries.
func CheckMembership(allowedTenants []string, activeTenantID string) bool {
	if activeTenantID == "" {
		return false
	}
	for _, tenant := range allowedTenants {
		if tenant == activeTenantID {
			return true
		}
	}
	return false
}
