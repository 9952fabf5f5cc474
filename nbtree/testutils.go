package nbtree

import "github.com/tindahl/coltree/blockstore"

// newTestTree returns a Tree over a fresh MemStore with small dimensions,
// so tests can exercise seal/cascade behavior without writing thousands of
// samples.
func newTestTree() (*Tree, *blockstore.MemStore) {
	store := blockstore.NewMemStore()
	// sampleSize*4 bytes: seals every 4 samples.
	tree := NewTree(store, sampleSize*4, 3)
	return tree, store
}
