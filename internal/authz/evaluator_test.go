package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEvaluator(t *testing.T, directory GroupDirectory) *Evaluator {
	t.Helper()

	if directory == nil {
		directory = fakeDirectory{}
	}
	evaluator, err := NewEvaluator(DefaultConfig(), directory,
		WithEvaluatorMetrics(newTestMetrics(t)),
	)
	require.NoError(t, err)
	return evaluator
}

func TestNewEvaluator(t *testing.T) {
	t.Parallel()

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()
		_, err := NewEvaluator(nil, fakeDirectory{})
		assert.ErrorIs(t, err, ErrNilConfig)
	})

	t.Run("nil directory", func(t *testing.T) {
		t.Parallel()
		_, err := NewEvaluator(DefaultConfig(), nil)
		assert.ErrorIs(t, err, ErrNilDirectory)
	})
}

func TestEvaluateTenantGate(t *testing.T) {
	t.Parallel()

	evaluator := newTestEvaluator(t, nil)

	tests := []struct {
		name      string
		principal *Principal
		resource  *Resource
	}{
		{
			name:      "tenant mismatch",
			principal: &Principal{ID: "user_alice", Roles: []string{"agent"}, ActiveTenantID: "tenant_B"},
			resource:  &Resource{Kind: "account", ID: "ac_100", TenantID: "tenant_A"},
		},
		{
			name:      "resource without tenant",
			principal: &Principal{ID: "user_alice", Roles: []string{"agent"}, ActiveTenantID: "tenant_A"},
			resource:  &Resource{Kind: "account", ID: "ac_100"},
		},
		{
			name:      "principal without active tenant",
			principal: &Principal{ID: "user_alice", Roles: []string{"agent"}},
			resource:  &Resource{Kind: "account", ID: "ac_100", TenantID: "tenant_A"},
		},
		{
			name:     "nil principal",
			resource: &Resource{Kind: "account", ID: "ac_100", TenantID: "tenant_A"},
		},
		{
			name:      "nil resource",
			principal: &Principal{ID: "user_alice", Roles: []string{"agent"}, ActiveTenantID: "tenant_A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			decision := evaluator.Evaluate(context.Background(), tt.principal, tt.resource, "view")
			require.False(t, decision.Allowed)
			assert.Equal(t, ReasonPolicyDenied, decision.Reason)
		})
	}
}

func TestEvaluateRecognitionFilter(t *testing.T) {
	t.Parallel()

	evaluator := newTestEvaluator(t, nil)
	principal := &Principal{ID: "user_alice", Roles: []string{"agent"}, ActiveTenantID: "tenant_A"}

	t.Run("unrecognized action denies", func(t *testing.T) {
		t.Parallel()
		resource := &Resource{Kind: "account", ID: "ac_100", TenantID: "tenant_A"}
		decision := evaluator.Evaluate(context.Background(), principal, resource, "delete")
		require.False(t, decision.Allowed)
		assert.Equal(t, ReasonPolicyDenied, decision.Reason)
	})

	t.Run("unrecognized kind denies", func(t *testing.T) {
		t.Parallel()
		resource := &Resource{Kind: "invoice", ID: "inv_1", TenantID: "tenant_A"}
		decision := evaluator.Evaluate(context.Background(), principal, resource, "view")
		require.False(t, decision.Allowed)
		assert.Equal(t, ReasonPolicyDenied, decision.Reason)
	})
}

func TestEvaluateRules(t *testing.T) {
	t.Parallel()

	directory := fakeDirectory{
		"group_ingrid_B": newGroup("group_ingrid_B", "tenant_B", "ac_200"),
	}
	evaluator := newTestEvaluator(t, directory)

	tests := []struct {
		name      string
		principal *Principal
		resource  *Resource
		wantAllow bool
		wantRule  string
	}{
		{
			name:      "elevated role allows any resource in tenant",
			principal: &Principal{ID: "user_agent", Roles: []string{"agent"}, ActiveTenantID: "tenant_A"},
			resource:  &Resource{Kind: "account", ID: "ac_100", OwnerID: "user_bob", TenantID: "tenant_A"},
			wantAllow: true,
			wantRule:  "elevated_role",
		},
		{
			name:      "owner allows own resource",
			principal: &Principal{ID: "user_alice", Roles: []string{"user"}, ActiveTenantID: "tenant_A"},
			resource:  &Resource{Kind: "account", ID: "ac_100", OwnerID: "user_alice", TenantID: "tenant_A"},
			wantAllow: true,
			wantRule:  "ownership",
		},
		{
			name: "delegated group access",
			principal: &Principal{
				ID: "user_ingrid", Roles: []string{"introducer"},
				ActiveTenantID: "tenant_B", GroupRef: "group_ingrid_B",
			},
			resource:  &Resource{Kind: "account", ID: "ac_200", OwnerID: "user_bob", TenantID: "tenant_B"},
			wantAllow: true,
			wantRule:  "group_delegation",
		},
		{
			name:      "elevated role wins over ownership",
			principal: &Principal{ID: "user_alice", Roles: []string{"agent"}, ActiveTenantID: "tenant_A"},
			resource:  &Resource{Kind: "account", ID: "ac_100", OwnerID: "user_alice", TenantID: "tenant_A"},
			wantAllow: true,
			wantRule:  "elevated_role",
		},
		{
			name:      "no rule matches",
			principal: &Principal{ID: "user_carol", Roles: []string{"user"}, ActiveTenantID: "tenant_A"},
			resource:  &Resource{Kind: "account", ID: "ac_100", OwnerID: "user_bob", TenantID: "tenant_A"},
			wantAllow: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			decision := evaluator.Evaluate(context.Background(), tt.principal, tt.resource, "view")
			require.Equal(t, tt.wantAllow, decision.Allowed)
			if tt.wantAllow {
				assert.Equal(t, tt.wantRule, decision.Rule)
				assert.Empty(t, decision.Reason)
			} else {
				assert.Equal(t, ReasonPolicyDenied, decision.Reason)
				assert.Empty(t, decision.Rule)
			}
		})
	}
}

func TestEvaluateCustomConfig(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Enabled:       true,
		ElevatedRoles: []string{"admin"},
		Actions:       []string{"view", "list"},
		ResourceKinds: []string{"account", "invoice"},
	}
	evaluator, err := NewEvaluator(cfg, fakeDirectory{},
		WithEvaluatorMetrics(newTestMetrics(t)),
	)
	require.NoError(t, err)

	principal := &Principal{ID: "user_root", Roles: []string{"admin"}, ActiveTenantID: "tenant_A"}
	resource := &Resource{Kind: "invoice", ID: "inv_1", TenantID: "tenant_A"}

	decision := evaluator.Evaluate(context.Background(), principal, resource, "list")
	require.True(t, decision.Allowed)
	assert.Equal(t, "elevated_role", decision.Rule)

	// The default "agent" label is overridden, not merged.
	agent := &Principal{ID: "user_agent", Roles: []string{"agent"}, ActiveTenantID: "tenant_A"}
	decision = evaluator.Evaluate(context.Background(), agent, resource, "list")
	assert.False(t, decision.Allowed)
}
