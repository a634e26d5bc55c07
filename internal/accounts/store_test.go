package accounts

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cordonio/cordon/internal/authz"
)

const accountsYAML = `
accounts:
  ac_100:
    tenantId: tenant_A
    ownerId: user_alice
    displayName: Alice Current
    status: active
  ac_200:
    tenantId: tenant_B
    ownerId: user_bob
    status: active
`

func writeAccountsFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "accounts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	store, err := LoadFile(writeAccountsFile(t, accountsYAML))
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())

	account, ok := store.Get("ac_100")
	require.True(t, ok)
	assert.Equal(t, "ac_100", account.ID)
	assert.Equal(t, "tenant_A", account.TenantID)
	assert.Equal(t, "user_alice", account.OwnerID)
}

func TestLoadFileErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()
		_, err := LoadFile(writeAccountsFile(t, "accounts: ["))
		assert.Error(t, err)
	})

	t.Run("missing tenant id", func(t *testing.T) {
		t.Parallel()
		_, err := LoadFile(writeAccountsFile(t, "accounts:\n  ac_1:\n    ownerId: user_x\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing tenantId")
	})
}

func TestPut(t *testing.T) {
	t.Parallel()

	store := NewStore()

	require.NoError(t, store.Put(&Account{ID: "ac_1", TenantID: "tenant_A", OwnerID: "user_x"}))
	assert.Equal(t, 1, store.Len())

	assert.Error(t, store.Put(nil))
	assert.Error(t, store.Put(&Account{TenantID: "tenant_A"}))
	assert.Error(t, store.Put(&Account{ID: "ac_2"}))
}

func TestFetchResource(t *testing.T) {
	t.Parallel()

	store, err := LoadFile(writeAccountsFile(t, accountsYAML))
	require.NoError(t, err)

	t.Run("existing account", func(t *testing.T) {
		t.Parallel()
		resource, err := store.FetchResource(context.Background(), KindAccount, "ac_100")
		require.NoError(t, err)
		assert.Equal(t, &authz.Resource{
			Kind:     KindAccount,
			ID:       "ac_100",
			OwnerID:  "user_alice",
			TenantID: "tenant_A",
		}, resource)
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()
		_, err := store.FetchResource(context.Background(), KindAccount, "ac_404")
		assert.True(t, authz.IsResourceNotFound(err))
	})

	t.Run("unknown kind", func(t *testing.T) {
		t.Parallel()
		_, err := store.FetchResource(context.Background(), "invoice", "ac_100")
		assert.True(t, authz.IsResourceNotFound(err))
	})
}
