package nbtree

import (
	"cmp"
	"context"
	"fmt"
	"slices"
)

/*
Search resolves a time window against the tree's sealed leaves plus its
current in-memory tail, and returns an Iterator over the matching
samples. The window is read and merged eagerly at Search time rather than
streamed block-by-block - windows are already bounded by the query
driver's batching, and the block store sits behind blockstore.CachedStore,
so repeat reads of the same leaf across overlapping queries are cheap.
*/

////////////////////////////////////////////////////////////////////////////////

// Iterator yields samples from a Search call in either ascending or
// descending timestamp order, depending on the window's direction.
type Iterator interface {
	// Next returns the next sample. ok is false once the iterator is
	// exhausted; err is non-nil only on an unrecoverable read failure.
	Next(ctx context.Context) (sample Sample, ok bool, err error)
}

type sliceIterator struct {
	samples []Sample
	pos     int
}

func (it *sliceIterator) Next(_ context.Context) (Sample, bool, error) {
	if it.pos >= len(it.samples) {
		return Sample{}, false, nil
	}
	s := it.samples[it.pos]
	it.pos++
	return s, true, nil
}

// Search returns an Iterator over the half-open range of samples with
// min(begin, end) <= Timestamp < max(begin, end), ascending if begin <= end,
// descending (reverse scan) if begin > end.
func (t *Tree) Search(ctx context.Context, begin, end uint64) (Iterator, error) {
	t.mtx.RLock()
	entries := make([]leafIndexEntry, len(t.sealedLeaves))
	copy(entries, t.sealedLeaves)
	var tail []Sample
	if len(t.levels) > 0 && t.levels[0].leaf != nil {
		tail = append(tail, t.levels[0].leaf.samples...)
	}
	t.mtx.RUnlock()

	ascending := begin <= end
	lo, hi := begin, end
	if !ascending {
		lo, hi = end, begin
	}

	var samples []Sample
	for _, e := range entries {
		if e.maxTS < lo || e.minTS >= hi {
			continue
		}
		data, err := t.store.Read(ctx, e.addr)
		if err != nil {
			return nil, fmt.Errorf("failed to read leaf %s: %w", e.addr, err)
		}
		leaf, err := leafNodeFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode leaf %s: %w", e.addr, err)
		}
		samples = append(samples, filterRange(leaf.samples, lo, hi)...)
	}
	samples = append(samples, filterRange(tail, lo, hi)...)

	slices.SortFunc(samples, func(a, b Sample) int { return cmp.Compare(a.Timestamp, b.Timestamp) })
	if !ascending {
		slices.Reverse(samples)
	}
	return &sliceIterator{samples: samples}, nil
}

// filterRange keeps samples with lo <= Timestamp < hi: the range is always
// half-open on the high end, regardless of scan direction.
func filterRange(samples []Sample, lo, hi uint64) []Sample {
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if s.Timestamp >= lo && s.Timestamp < hi {
			out = append(out, s)
		}
	}
	return out
}
