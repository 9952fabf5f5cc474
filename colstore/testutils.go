package colstore

import (
	"context"
	"testing"

	"github.com/tindahl/coltree/blockstore"
	"github.com/tindahl/coltree/config"
	"github.com/tindahl/coltree/nbtree"
)

// testRegistry returns a Registry over a fresh MemStore with small tree
// dimensions, so tests can force seal/cascade behavior without writing
// thousands of samples.
func testRegistry(t testing.TB) (*Registry, *blockstore.MemStore) {
	t.Helper()
	store := blockstore.NewMemStore()
	cfg := config.Default()
	cfg.Tree.LeafCapacityBytes = 16 * 4 // seals every 4 samples
	cfg.Tree.Fanout = 3
	cfg.Registry.LockShardCount = 4
	cfg.Query.BatchSize = 4
	return NewRegistry(store, cfg), store
}

// collectingConsumer is a Consumer that records every sample it receives
// and the last error status set, for assertions in tests.
type collectingConsumer struct {
	samples []Sample
	status  Status
	stopAt  int
}

func (c *collectingConsumer) Put(s Sample) bool {
	if c.stopAt > 0 && len(c.samples) >= c.stopAt {
		return false
	}
	c.samples = append(c.samples, s)
	return true
}

func (c *collectingConsumer) SetError(status Status) {
	c.status = status
}

// reopenTreeForTest rebuilds a tree from rescue points, for exercising
// the registry's replay-after-close path without a full Registry.Reopen
// convenience method.
func reopenTreeForTest(
	ctx context.Context, store blockstore.Provider, roots []blockstore.Addr, cfg config.Config,
) (*nbtree.Tree, error) {
	return nbtree.Reopen(ctx, store, roots, cfg.Tree.LeafCapacityBytes, cfg.Tree.Fanout)
}
