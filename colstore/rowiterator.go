package colstore

import "context"

/*
RowIterator composes per-series point iterators into one row-oriented
stream. There is exactly one working composition strategy today (chain:
consume one series fully, then the next) plus a second that the source
this was distilled from declares but never implements (a global time
merge across series). Rather than model these as two implementations of
an open interface, RowIterator is a single struct carrying a kind tag -
the source has exactly one concrete variant and one stub, and an open
interface would let the stub's method set quietly "implement" the
contract without anyone noticing it always fails.
*/

////////////////////////////////////////////////////////////////////////////////

type rowIteratorKind int

const (
	chainKind rowIteratorKind = iota
	timeMergeKind
)

// RowIterator reads rows out of a set of opened per-series iterators.
type RowIterator struct {
	kind  rowIteratorKind
	chain *chainState
}

type chainState struct {
	sources []idIterator
	cur     int
}

// NewChainIterator returns a RowIterator that reads each source fully, in
// the order given, before moving to the next. Samples are tagged with
// the id of the source they came from.
func NewChainIterator(sources []idIterator) *RowIterator {
	return &RowIterator{kind: chainKind, chain: &chainState{sources: sources}}
}

// NewTimeMergeIterator returns a RowIterator for the order-by-time
// composition. It is declared, not implemented: Read always returns
// StatusNotImplemented.
func NewTimeMergeIterator() *RowIterator {
	return &RowIterator{kind: timeMergeKind}
}

// Read fills dest with up to len(dest) samples, dispatching on kind. It
// returns the number of samples written and a Status: StatusOK if at
// least one sample was written (dest is only partly filled when the
// sources run out), StatusNoData if the iterator is exhausted with zero
// samples written, or a more specific status on failure.
func (it *RowIterator) Read(ctx context.Context, dest []Sample) (Status, int, error) {
	switch it.kind {
	case chainKind:
		return it.readChain(ctx, dest)
	case timeMergeKind:
		return StatusNotImplemented, 0, nil
	default:
		return StatusBadData, 0, nil
	}
}

// readChain implements the chain iterator's exact semantics: consume the
// current source until it reports no more data, tag every sample with
// its source id, then advance to the next source. Any error other than
// exhaustion stops the read immediately and propagates.
func (it *RowIterator) readChain(ctx context.Context, dest []Sample) (Status, int, error) {
	n := 0
	for n < len(dest) {
		if it.chain.cur >= len(it.chain.sources) {
			break
		}
		src := it.chain.sources[it.chain.cur]
		sample, ok, err := src.it.Next(ctx)
		if err != nil {
			return StatusIO, n, err
		}
		if !ok {
			it.chain.cur++
			continue
		}
		dest[n] = Sample{ID: src.id, Timestamp: sample.Timestamp, Value: sample.Value}
		n++
	}
	if n == 0 {
		return StatusNoData, 0, nil
	}
	return StatusOK, n, nil
}
