package nbtree

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/tindahl/coltree/blockstore"
	"github.com/tindahl/coltree/util"
	"github.com/tindahl/coltree/util/log"
)

/*
Tree is one series' append-only tree: a stack of levels, level 0 holding
raw samples and every level above holding addresses of the level below.
Append buffers into level 0 until it reaches its configured byte
capacity, then seals it to the block store and links its address into
level 1; if level 1 then fills to its fanout, it seals too and links into
level 2, and so on. This cascade is the only way nodes are created - the
tree never rebalances or rewrites a block once sealed.

Roots() reports one address per level that currently has a sealed block:
the rescue points needed to reconstruct search state after a close,
without replaying every sample ever written. Reopen rebuilds a Tree's
sealed-leaf index from those addresses by walking back down through the
inner nodes.
*/

////////////////////////////////////////////////////////////////////////////////

// level is one tier of the tree: a leaf buffer at height 0, or an inner
// node fanning out to the level below it otherwise.
type level struct {
	height     uint8
	leaf       *leafNode
	inner      *innerNode
	sealedAddr blockstore.Addr
}

type leafIndexEntry struct {
	addr  blockstore.Addr
	minTS uint64
	maxTS uint64
}

// Tree is a single series' append tree.
type Tree struct {
	mtx   sync.RWMutex
	store blockstore.Provider

	leafCapacityBytes uint64
	fanout            int

	levels       []level
	sealedLeaves []leafIndexEntry

	closed      bool
	closeResult []blockstore.Addr
}

// NewTree creates an empty append tree backed by store.
func NewTree(store blockstore.Provider, leafCapacityBytes uint64, fanout int) *Tree {
	t := &Tree{
		store:             store,
		leafCapacityBytes: leafCapacityBytes,
		fanout:            fanout,
	}
	t.ensureLevel(0)
	return t
}

// ForceInit ensures level 0 exists and is ready to accept Appends. Calling
// it on an already-initialized tree is a no-op.
func (t *Tree) ForceInit() {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.ensureLevel(0)
}

func (t *Tree) ensureLevel(i int) {
	for len(t.levels) <= i {
		h := uint8(len(t.levels))
		lv := level{height: h}
		if h == 0 {
			lv.leaf = newLeafNode()
		} else {
			lv.inner = newInnerNode(h)
		}
		t.levels = append(t.levels, lv)
	}
}

func validFloat(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Append buffers one sample into level 0, cascading seals up through the
// tree as levels fill.
func (t *Tree) Append(ctx context.Context, ts uint64, value float64) (AppendResult, error) {
	if !validFloat(value) {
		return FailBadValue, nil
	}

	t.mtx.Lock()
	defer t.mtx.Unlock()

	if t.closed {
		return FailIO, ErrClosed
	}

	t.ensureLevel(0)
	leaf := t.levels[0].leaf

	flushed := false
	if leaf.sizeBytes()+sampleSize > t.leafCapacityBytes && !leaf.empty() {
		if err := t.sealAndCascade(ctx, 0); err != nil {
			return FailIO, err
		}
		flushed = true
		leaf = t.levels[0].leaf
	}

	leaf.append(Sample{Timestamp: ts, Value: value})

	if flushed {
		return OKFlushNeeded, nil
	}
	return OK, nil
}

// sealAndCascade seals the block at level i and links its address into
// level i+1, recursively sealing further levels that fill as a result.
func (t *Tree) sealAndCascade(ctx context.Context, i int) error {
	addr, minTS, maxTS, err := t.seal(ctx, i)
	if err != nil {
		return err
	}
	t.ensureLevel(i + 1)
	parent := t.levels[i+1].inner
	parent.addChild(child{addr: addr, minTS: minTS, maxTS: maxTS})
	if parent.full(t.fanout) {
		return t.sealAndCascade(ctx, i+1)
	}
	return nil
}

// seal writes the current block at level i to the block store and resets
// that level to a fresh, empty block.
func (t *Tree) seal(ctx context.Context, i int) (addr blockstore.Addr, minTS, maxTS uint64, err error) {
	lv := &t.levels[i]
	var data []byte
	if i == 0 {
		minTS, maxTS = lv.leaf.minTS(), lv.leaf.maxTS()
		data = lv.leaf.toBytes()
	} else {
		minTS, maxTS = lv.inner.minTS(), lv.inner.maxTS()
		data = lv.inner.toBytes()
	}
	addr, err = t.store.Append(ctx, data)
	if err != nil {
		return blockstore.Addr{}, 0, 0, fmt.Errorf("failed to seal level %d: %w", i, err)
	}
	lv.sealedAddr = addr
	if i == 0 {
		t.sealedLeaves = append(t.sealedLeaves, leafIndexEntry{addr: addr, minTS: minTS, maxTS: maxTS})
		lv.leaf = newLeafNode()
	} else {
		lv.inner = newInnerNode(lv.height)
	}
	log.Tracef(ctx, "sealed level %d block %s, %s (ts %d-%d)", i, addr, util.HumanBytes(uint64(len(data))), minTS, maxTS)
	return addr, minTS, maxTS, nil
}

// Roots returns the current rescue points: one address per level that has
// at least one sealed block, in ascending level order.
func (t *Tree) Roots() []blockstore.Addr {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return t.rootsLocked()
}

func (t *Tree) rootsLocked() []blockstore.Addr {
	var roots []blockstore.Addr
	for _, lv := range t.levels {
		if !lv.sealedAddr.IsZero() {
			roots = append(roots, lv.sealedAddr)
		}
	}
	return roots
}

// UncommittedSize returns the total size, in bytes, of samples and child
// addresses buffered in memory and not yet sealed to the block store.
func (t *Tree) UncommittedSize() uint64 {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	var n uint64
	for _, lv := range t.levels {
		if lv.leaf != nil {
			n += lv.leaf.sizeBytes()
		}
		if lv.inner != nil {
			n += lv.inner.sizeBytes()
		}
	}
	return n
}

// Close forces every level's remaining in-memory data to seal, returning
// the final rescue points. Close is idempotent: a second call returns the
// result of the first without sealing anything further.
func (t *Tree) Close(ctx context.Context) ([]blockstore.Addr, error) {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	if t.closed {
		return t.closeResult, nil
	}

	// Only force-seal the levels that existed before this call. Sealing
	// one of them may cascade a fresh, partially-filled level into
	// existence above it (same as during a normal Append) - that new
	// level is not sealed; its one address is already captured by the
	// level below it sealing, so it is dropped and nothing stays
	// buffered in memory once Close returns.
	initial := len(t.levels)
	for i := 0; i < initial; i++ {
		lv := &t.levels[i]
		empty := (lv.leaf != nil && lv.leaf.empty()) || (lv.inner != nil && lv.inner.empty())
		if empty {
			continue
		}
		if err := t.sealAndCascade(ctx, i); err != nil {
			return nil, err
		}
	}
	t.levels = t.levels[:initial]

	t.closed = true
	t.closeResult = t.rootsLocked()
	return t.closeResult, nil
}
