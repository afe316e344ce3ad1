package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/shardfeed/shardfeed/pkg/data/dataset"
)

// CountingInfoProvider wraps a static split-info table and counts lookups.
// Used by metadata cache tests to verify memoization without time delays.
type CountingInfoProvider struct {
	mu     sync.Mutex
	infos  map[string]map[string]dataset.SplitInfo
	calls  int
	failOn string
}

// NewCountingInfoProvider creates a provider serving the given table,
// keyed by dataset name then split name.
func NewCountingInfoProvider(infos map[string]map[string]dataset.SplitInfo) *CountingInfoProvider {
	return &CountingInfoProvider{infos: infos}
}

// SplitInfo implements dataset.InfoProvider.
func (p *CountingInfoProvider) SplitInfo(_ context.Context, name string, _ dataset.Options) (map[string]dataset.SplitInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if name == p.failOn {
		return nil, fmt.Errorf("provider failure for %q", name)
	}
	infos, ok := p.infos[name]
	if !ok {
		return nil, fmt.Errorf("unknown dataset %q", name)
	}
	return infos, nil
}

// Calls returns the number of SplitInfo invocations.
func (p *CountingInfoProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// FailOn makes lookups for the given dataset name return an error.
func (p *CountingInfoProvider) FailOn(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failOn = name
}
