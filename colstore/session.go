package colstore

import (
	"context"
	"sync"

	"github.com/tindahl/coltree/blockstore"
	"github.com/tindahl/coltree/nbtree"
)

/*
Session is a single writer's non-shared cache of tree references. Trees
are never removed from the Registry for the lifetime of the database, so
a cached pointer is valid indefinitely - Session never evicts.
*/

////////////////////////////////////////////////////////////////////////////////

// Session caches ParamId -> tree lookups for one writer, avoiding a
// shard-lock round trip to the Registry on every Write once a series has
// been seen once.
type Session struct {
	mtx   sync.RWMutex
	trees map[ParamId]*nbtree.Tree
	reg   *Registry
}

// NewSession returns a Session backed by reg.
func NewSession(reg *Registry) *Session {
	return &Session{
		trees: make(map[ParamId]*nbtree.Tree),
		reg:   reg,
	}
}

func (s *Session) get(id ParamId) (*nbtree.Tree, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	tree, ok := s.trees[id]
	return tree, ok
}

func (s *Session) put(id ParamId, tree *nbtree.Tree) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.trees[id] = tree
}

// Write checks the payload is well-formed, then tries the session's own
// cache before falling back to the Registry - which is itself the only
// path that can discover a tree for the first time. FailBadValue is
// checked here, ahead of the tree, since a non-finite value should never
// reach the tree's own internal Append validation in the common case.
func (s *Session) Write(ctx context.Context, sample Sample) (AppendResult, []blockstore.Addr, error) {
	if !validFloat(sample.Value) {
		return FailBadValue, nil, nil
	}

	if tree, ok := s.get(sample.ID); ok {
		result, err := tree.Append(ctx, sample.Timestamp, sample.Value)
		if err != nil {
			return convertAppendResult(result), nil, err
		}
		if result == nbtree.OKFlushNeeded {
			return OKFlushNeeded, tree.Roots(), nil
		}
		return convertAppendResult(result), nil, nil
	}

	result, roots, err := s.reg.Write(ctx, sample, s)
	return result, roots, err
}

// Query forwards to the Registry - a Session has nothing of its own to
// add to a read path.
func (s *Session) Query(ctx context.Context, req ReshapeRequest, consumer Consumer) error {
	return s.reg.Query(ctx, req, consumer)
}
