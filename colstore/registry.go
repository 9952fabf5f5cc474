package colstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/tindahl/coltree/blockstore"
	"github.com/tindahl/coltree/config"
	"github.com/tindahl/coltree/nbtree"
	"github.com/tindahl/coltree/util"
	"github.com/tindahl/coltree/util/log"
)

/*
Registry is the concurrency-safe map from ParamId to append tree, split
into config.RegistryConfig.LockShardCount independent shards, each a real
map[ParamId]*nbtree.Tree with its own sync.RWMutex - not one shared map
behind several locks, which would still race at the Go runtime level.
A ParamId always hashes to the same shard, so CreateNewColumn and Write
for that id always contend on the same mutex and stay serializable
against each other, while ids in different shards proceed independently.
*/

////////////////////////////////////////////////////////////////////////////////

type shard struct {
	mtx   sync.RWMutex
	trees map[ParamId]*nbtree.Tree
}

// Registry owns every series' append tree for one column store instance.
type Registry struct {
	store  blockstore.Provider
	cfg    config.Config
	shards []shard
}

// NewRegistry creates an empty registry backed by store.
func NewRegistry(store blockstore.Provider, cfg config.Config) *Registry {
	shards := make([]shard, cfg.Registry.LockShardCount)
	for i := range shards {
		shards[i].trees = make(map[ParamId]*nbtree.Tree)
	}
	return &Registry{store: store, cfg: cfg, shards: shards}
}

func (r *Registry) shardFor(id ParamId) *shard {
	var buf [8]byte
	util.U64(buf[:], uint64(id))
	idx := xxhash.Sum64(buf[:]) % uint64(len(r.shards))
	return &r.shards[idx]
}

// CreateNewColumn registers a new, empty tree for id. Re-creating an
// existing id is rejected with a BadArg StatusError.
func (r *Registry) CreateNewColumn(ctx context.Context, id ParamId) error {
	sh := r.shardFor(id)
	sh.mtx.Lock()
	defer sh.mtx.Unlock()

	if _, exists := sh.trees[id]; exists {
		return newStatusError(StatusBadArg, "column %d already exists", id)
	}
	sh.trees[id] = nbtree.NewTree(r.store, r.cfg.Tree.LeafCapacityBytes, r.cfg.Tree.Fanout)
	log.Tracef(ctx, "created column %d", id)
	return nil
}

// Write appends sample to its tree, returning FailBadID if no column was
// ever created for the id. On OKFlushNeeded the returned rescue points
// are the tree's new Roots() - the caller is responsible for persisting
// them. On success, session (if non-nil) caches the tree reference for
// subsequent writes to the same id.
func (r *Registry) Write(
	ctx context.Context, sample Sample, session *Session,
) (AppendResult, []blockstore.Addr, error) {
	sh := r.shardFor(sample.ID)
	sh.mtx.RLock()
	tree, ok := sh.trees[sample.ID]
	sh.mtx.RUnlock()
	if !ok {
		return FailBadID, nil, nil
	}

	result, err := tree.Append(ctx, sample.Timestamp, sample.Value)
	if err != nil {
		log.Errorw(ctx, "append failed", "paramid", sample.ID, "error", err)
		return convertAppendResult(result), nil, err
	}

	if session != nil {
		session.put(sample.ID, tree)
	}

	if result == nbtree.OKFlushNeeded {
		return OKFlushNeeded, tree.Roots(), nil
	}
	return convertAppendResult(result), nil, nil
}

func convertAppendResult(r nbtree.AppendResult) AppendResult {
	switch r {
	case nbtree.OK:
		return OK
	case nbtree.OKFlushNeeded:
		return OKFlushNeeded
	case nbtree.FailBadValue:
		return FailBadValue
	case nbtree.FailIO:
		return FailIO
	default:
		return FailIO
	}
}

// lookup finds id's tree, if any, taking only that id's shard lock.
func (r *Registry) lookup(id ParamId) (*nbtree.Tree, bool) {
	sh := r.shardFor(id)
	sh.mtx.RLock()
	defer sh.mtx.RUnlock()
	tree, ok := sh.trees[id]
	return tree, ok
}

type idIterator struct {
	id ParamId
	it nbtree.Iterator
}

// openIterators opens one Search iterator per requested id, concurrently.
// Ids with no registered column are reported in missing rather than
// treated as fatal - NOT_FOUND is reported per missing id, not per request.
func (r *Registry) openIterators(ctx context.Context, sel Select) (iters []idIterator, missing []ParamId, err error) {
	results := make([]*idIterator, len(sel.IDs))
	missFlags := make([]bool, len(sel.IDs))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range sel.IDs {
		i, id := i, id
		g.Go(func() error {
			tree, ok := r.lookup(id)
			if !ok {
				missFlags[i] = true
				return nil
			}
			it, err := tree.Search(gctx, sel.Begin, sel.End)
			if err != nil {
				return fmt.Errorf("failed to open iterator for id %d: %w", id, err)
			}
			results[i] = &idIterator{id: id, it: it}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	for i, r := range results {
		if missFlags[i] {
			missing = append(missing, sel.IDs[i])
			continue
		}
		iters = append(iters, *r)
	}
	return iters, missing, nil
}

// Close forces every tree to seal its remaining in-memory state and
// returns each id's final rescue points. A tree whose close fails is
// logged at ERROR and omitted from the result rather than failing the
// whole call - one bad series should not block recovery bookkeeping for
// every other series.
func (r *Registry) Close(ctx context.Context) (map[ParamId][]blockstore.Addr, error) {
	var mtx sync.Mutex
	out := make(map[ParamId][]blockstore.Addr)

	g, gctx := errgroup.WithContext(ctx)
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mtx.RLock()
		ids := util.Okeys(sh.trees)
		trees := make(map[ParamId]*nbtree.Tree, len(ids))
		for _, id := range ids {
			trees[id] = sh.trees[id]
		}
		sh.mtx.RUnlock()

		for _, id := range ids {
			id, tree := id, trees[id]
			g.Go(func() error {
				roots, err := tree.Close(gctx)
				if err != nil {
					log.Errorw(ctx, "failed to close tree", "paramid", id, "error", err)
					return nil
				}
				mtx.Lock()
				out[id] = roots
				mtx.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// UncommittedMemory sums the in-memory, not-yet-sealed bytes buffered
// across every registered tree.
func (r *Registry) UncommittedMemory(_ context.Context) uint64 {
	var total uint64
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mtx.RLock()
		for _, tree := range sh.trees {
			total += tree.UncommittedSize()
		}
		sh.mtx.RUnlock()
	}
	return total
}
