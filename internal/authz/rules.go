package authz

import (
	"github.com/cordonio/cordon/internal/groups"
)

// GroupDirectory is the read-only lookup consulted by the group
// delegation rule. *groups.Directory satisfies it.
type GroupDirectory interface {
	Lookup(groupID string) (*groups.Group, bool)
}

// ruleInput bundles the immutable facts a rule may inspect.
type ruleInput struct {
	principal *Principal
	resource  *Resource
	groups    GroupDirectory
}

// rule is a named pure predicate over one authorization request. Rules
// never mutate shared state, which keeps each one unit-testable in
// isolation. They are evaluated in a fixed order, first match wins;
// later rules are strictly more specific and more expensive.
type rule struct {
	name  string
	match func(in ruleInput) bool
}

// ruleTable builds the ordered rule list for the given configuration.
// The tenant gate is hoisted into the evaluator rather than repeated in
// each rule, so a rule match always happens within an already-matched
// tenant.
func ruleTable(cfg *Config) []rule {
	return []rule{
		{
			name: "elevated_role",
			match: func(in ruleInput) bool {
				return in.principal.HasAnyRole(cfg.GetElevatedRoles()...)
			},
		},
		{
			name: "ownership",
			match: func(in ruleInput) bool {
				return in.resource.OwnerID != "" && in.resource.OwnerID == in.principal.ID
			},
		},
		{
			name:  "group_delegation",
			match: matchGroupDelegation(cfg),
		},
	}
}

// matchGroupDelegation builds the delegated-access predicate: the
// principal holds a delegated role, references a group, the group's
// tenant matches the active tenant, and the group lists the resource.
// Group membership never crosses tenant boundaries implicitly.
func matchGroupDelegation(cfg *Config) func(in ruleInput) bool {
	return func(in ruleInput) bool {
		if !in.principal.HasAnyRole(cfg.GetDelegatedRoles()...) {
			return false
		}
		if in.principal.GroupRef == "" || in.groups == nil {
			return false
		}
		group, ok := in.groups.Lookup(in.principal.GroupRef)
		if !ok {
			return false
		}
		if group.TenantID != in.principal.ActiveTenantID {
			return false
		}
		return group.HasResource(in.resource.ID)
	}
}
