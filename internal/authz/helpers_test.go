package authz

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cordonio/cordon/internal/groups"
)

// fakeDirectory is a static GroupDirectory for tests.
type fakeDirectory map[string]*groups.Group

func (d fakeDirectory) Lookup(groupID string) (*groups.Group, bool) {
	g, ok := d[groupID]
	return g, ok
}

func newGroup(id, tenantID string, resourceIDs ...string) *groups.Group {
	ids := make(map[string]struct{}, len(resourceIDs))
	for _, r := range resourceIDs {
		ids[r] = struct{}{}
	}
	return &groups.Group{ID: id, TenantID: tenantID, ResourceIDs: ids}
}

// stubFetcher serves resources from a map keyed by kind/id.
type stubFetcher struct {
	resources map[string]*Resource
	err       error
	calls     int
}

func (f *stubFetcher) FetchResource(_ context.Context, kind, id string) (*Resource, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.resources[kind+"/"+id]
	if !ok {
		return nil, &FetchError{Kind: kind, ID: id, Err: ErrResourceNotFound}
	}
	return r, nil
}

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return NewMetricsWithRegisterer("cordon", prometheus.NewRegistry())
}
