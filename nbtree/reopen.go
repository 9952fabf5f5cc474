package nbtree

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/tindahl/coltree/blockstore"
)

/*
Reopen rebuilds a searchable Tree from the rescue points a prior Close
returned. It walks down from every rescue point through the inner node
chain to the leaves, so the rebuilt tree can answer Search calls exactly
as the original could at the moment it closed. It does not attempt to
recover anything beyond what Close made durable - an ungraceful crash
loses whatever was still buffered in memory, same as before Close forced
it out.
*/

////////////////////////////////////////////////////////////////////////////////

// Reopen reconstructs a Tree for further Append/Search calls from the
// rescue points returned by a previous Close.
func Reopen(
	ctx context.Context, store blockstore.Provider, roots []blockstore.Addr,
	leafCapacityBytes uint64, fanout int,
) (*Tree, error) {
	t := &Tree{
		store:             store,
		leafCapacityBytes: leafCapacityBytes,
		fanout:            fanout,
	}

	visited := make(map[blockstore.Addr]bool)
	for i, addr := range roots {
		if addr.IsZero() {
			continue
		}
		if err := t.descend(ctx, addr, uint8(i), visited); err != nil {
			return nil, fmt.Errorf("failed to replay rescue point at level %d: %w", i, err)
		}
	}

	slices.SortFunc(t.sealedLeaves, func(a, b leafIndexEntry) int {
		return cmp.Compare(a.minTS, b.minTS)
	})

	t.ensureLevel(0)
	for i, addr := range roots {
		t.ensureLevel(i)
		t.levels[i].sealedAddr = addr
	}
	return t, nil
}

// descend walks the block at addr, known to be at height, adding every
// leaf reachable below it to the sealed-leaf index. Blocks already
// visited via a different rescue point's descent are skipped.
func (t *Tree) descend(ctx context.Context, addr blockstore.Addr, height uint8, visited map[blockstore.Addr]bool) error {
	if visited[addr] {
		return nil
	}
	visited[addr] = true

	data, err := t.store.Read(ctx, addr)
	if err != nil {
		return fmt.Errorf("failed to read block %s: %w", addr, err)
	}

	if height == 0 {
		leaf, err := leafNodeFromBytes(data)
		if err != nil {
			return fmt.Errorf("failed to decode leaf %s: %w", addr, err)
		}
		t.sealedLeaves = append(t.sealedLeaves, leafIndexEntry{
			addr: addr, minTS: leaf.minTS(), maxTS: leaf.maxTS(),
		})
		return nil
	}

	inner, err := innerNodeFromBytes(data)
	if err != nil {
		return fmt.Errorf("failed to decode inner node %s: %w", addr, err)
	}
	for _, c := range inner.children {
		if err := t.descend(ctx, c.addr, height-1, visited); err != nil {
			return err
		}
	}
	return nil
}
