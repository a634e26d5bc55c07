// Package groups provides the introducer group directory.
//
// The directory maps a group id to its owning tenant and the set of
// resource ids the group may access. It is loaded once at startup and
// exposed to the decision path as an immutable snapshot behind an atomic
// pointer; an optional file watcher publishes fresh snapshots on change.
// Readers never lock and never observe a partially-updated group.
package groups

import (
	"fmt"
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/cordonio/cordon/internal/observability"
)

// Group is a tenant-scoped named set of resources a delegated role's
// members may access. Immutable after load.
type Group struct {
	// ID is the unique group identifier.
	ID string

	// TenantID is the tenant the group belongs to. Fixed at load time;
	// group-derived grants never cross tenant boundaries.
	TenantID string

	// ResourceIDs is the set of resource identifiers the group grants
	// access to.
	ResourceIDs map[string]struct{}
}

// HasResource checks if the group grants access to a resource id.
func (g *Group) HasResource(resourceID string) bool {
	_, ok := g.ResourceIDs[resourceID]
	return ok
}

// groupSpec is the on-disk shape of a single group entry.
type groupSpec struct {
	TenantID    string   `yaml:"tenantId" json:"tenantId"`
	ResourceIDs []string `yaml:"resourceIds" json:"resourceIds"`
}

// snapshot is an immutable view of all groups.
type snapshot struct {
	groups map[string]*Group
}

// Directory is a read-only lookup from group id to group. Lookups are
// lock-free; Reload atomically replaces the whole snapshot.
type Directory struct {
	current atomic.Pointer[snapshot]
	logger  observability.Logger
	metrics *Metrics
}

// DirectoryOption is a functional option for the directory.
type DirectoryOption func(*Directory)

// WithDirectoryLogger sets the logger.
func WithDirectoryLogger(logger observability.Logger) DirectoryOption {
	return func(d *Directory) {
		d.logger = logger
	}
}

// WithDirectoryMetrics sets the metrics.
func WithDirectoryMetrics(metrics *Metrics) DirectoryOption {
	return func(d *Directory) {
		d.metrics = metrics
	}
}

// NewDirectory creates an empty directory.
func NewDirectory(opts ...DirectoryOption) *Directory {
	d := &Directory{
		logger: observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.current.Store(&snapshot{groups: map[string]*Group{}})
	return d
}

// LoadFile creates a directory populated from a YAML file shaped as
// {groupId: {tenantId: string, resourceIds: [string]}}.
func LoadFile(path string, opts ...DirectoryOption) (*Directory, error) {
	d := NewDirectory(opts...)
	if err := d.ReloadFile(path); err != nil {
		return nil, err
	}
	return d, nil
}

// ReloadFile replaces the directory contents from a YAML file. On any
// error the previous snapshot stays in place.
func (d *Directory) ReloadFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from service configuration
	if err != nil {
		return fmt.Errorf("failed to read groups file %s: %w", path, err)
	}
	return d.Reload(data)
}

// Reload replaces the directory contents from YAML data.
func (d *Directory) Reload(data []byte) error {
	var specs map[string]groupSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		d.metrics.RecordReload(false)
		return fmt.Errorf("failed to parse groups: %w", err)
	}

	groups := make(map[string]*Group, len(specs))
	for id, spec := range specs {
		if spec.TenantID == "" {
			d.metrics.RecordReload(false)
			return fmt.Errorf("group %s: tenantId is required", id)
		}
		resources := make(map[string]struct{}, len(spec.ResourceIDs))
		for _, rid := range spec.ResourceIDs {
			if rid != "" {
				resources[rid] = struct{}{}
			}
		}
		groups[id] = &Group{
			ID:          id,
			TenantID:    spec.TenantID,
			ResourceIDs: resources,
		}
	}

	d.current.Store(&snapshot{groups: groups})
	d.metrics.RecordReload(true)
	d.metrics.SetGroupCount(len(groups))
	d.logger.Info("group directory loaded", observability.Int("groups", len(groups)))
	return nil
}

// Lookup returns the group with the given id, if present.
func (d *Directory) Lookup(groupID string) (*Group, bool) {
	g, ok := d.current.Load().groups[groupID]
	return g, ok
}

// Len returns the number of groups in the current snapshot.
func (d *Directory) Len() int {
	return len(d.current.Load().groups)
}
