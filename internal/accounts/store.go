package accounts

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/cordonio/cordon/internal/authz"
	"github.com/cordonio/cordon/internal/observability"
)

// KindAccount is the resource kind served by this store.
const KindAccount = "account"

// Account is one account record.
type Account struct {
	// ID is the unique account identifier.
	ID string `yaml:"id" json:"id"`

	// TenantID is the tenant the account belongs to.
	TenantID string `yaml:"tenantId" json:"tenantId"`

	// OwnerID is the user that owns the account.
	OwnerID string `yaml:"ownerId" json:"ownerId"`

	// DisplayName is a human-readable label.
	DisplayName string `yaml:"displayName,omitempty" json:"displayName,omitempty"`

	// Status is the account lifecycle status.
	Status string `yaml:"status,omitempty" json:"status,omitempty"`
}

// storeFile is the YAML shape of a seed file: a map of account id to
// account record.
type storeFile struct {
	Accounts map[string]*Account `yaml:"accounts"`
}

// Store is an in-memory account store seeded from a YAML file. It
// implements authz.ResourceFetcher.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	logger   observability.Logger
}

// StoreOption is a functional option for the store.
type StoreOption func(*Store)

// WithStoreLogger sets the logger.
func WithStoreLogger(logger observability.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates an empty account store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		accounts: make(map[string]*Account),
		logger:   observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// LoadFile creates a store seeded from a YAML file.
func LoadFile(path string, opts ...StoreOption) (*Store, error) {
	s := NewStore(opts...)
	if err := s.LoadFrom(path); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFrom replaces the store contents from a YAML seed file.
func (s *Store) LoadFrom(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return fmt.Errorf("failed to read accounts file %s: %w", path, err)
	}
	return s.Load(data)
}

// Load replaces the store contents from YAML data.
func (s *Store) Load(data []byte) error {
	var file storeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse accounts: %w", err)
	}

	accounts := make(map[string]*Account, len(file.Accounts))
	for id, account := range file.Accounts {
		if account == nil {
			continue
		}
		if account.TenantID == "" {
			return fmt.Errorf("account %s: missing tenantId", id)
		}
		account.ID = id
		accounts[id] = account
	}

	s.mu.Lock()
	s.accounts = accounts
	s.mu.Unlock()

	s.logger.Info("accounts loaded",
		observability.Int("count", len(accounts)),
	)
	return nil
}

// Put inserts or replaces an account record.
func (s *Store) Put(account *Account) error {
	if account == nil || account.ID == "" {
		return fmt.Errorf("account requires an id")
	}
	if account.TenantID == "" {
		return fmt.Errorf("account %s: missing tenantId", account.ID)
	}

	s.mu.Lock()
	s.accounts[account.ID] = account
	s.mu.Unlock()
	return nil
}

// Get returns the account with the given id.
func (s *Store) Get(id string) (*Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	return account, ok
}

// Len returns the number of stored accounts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.accounts)
}

// FetchResource implements authz.ResourceFetcher. Unknown kinds and
// unknown ids both resolve to the not-found sentinel.
func (s *Store) FetchResource(_ context.Context, kind, id string) (*authz.Resource, error) {
	if kind != KindAccount {
		return nil, &authz.FetchError{Kind: kind, ID: id, Err: authz.ErrResourceNotFound}
	}

	account, ok := s.Get(id)
	if !ok {
		return nil, &authz.FetchError{Kind: kind, ID: id, Err: authz.ErrResourceNotFound}
	}

	return &authz.Resource{
		Kind:     KindAccount,
		ID:       account.ID,
		OwnerID:  account.OwnerID,
		TenantID: account.TenantID,
	}, nil
}

// Ensure Store implements authz.ResourceFetcher.
var _ authz.ResourceFetcher = (*Store)(nil)
