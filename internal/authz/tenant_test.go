package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckMembership(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		allowedTenants []string
		activeTenantID string
		want           bool
	}{
		{
			name:           "member of single tenant",
			allowedTenants: []string{"tenant_A"},
			activeTenantID: "tenant_A",
			want:           true,
		},
		{
			name:           "member of several tenants",
			allowedTenants: []string{"tenant_A", "tenant_B"},
			activeTenantID: "tenant_B",
			want:           true,
		},
		{
			name:           "not a member",
			allowedTenants: []string{"tenant_A"},
			activeTenantID: "tenant_B",
			want:           false,
		},
		{
			name:           "empty allowed set",
			allowedTenants: nil,
			activeTenantID: "tenant_A",
			want:           false,
		},
		{
			name:           "empty active tenant",
			allowedTenants: []string{"tenant_A"},
			activeTenantID: "",
			want:           false,
		},
		{
			name:           "exact match only",
			allowedTenants: []string{"tenant_A"},
			activeTenantID: "Tenant_A",
			want:           false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CheckMembership(tt.allowedTenants, tt.activeTenantID))
		})
	}
}
