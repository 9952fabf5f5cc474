package nbtree

/*
Core types shared by the append tree's levels, iterator, and callers. A
Sample here carries no series id - a Tree is always scoped to one series,
and the column store registry attaches the id when it composes trees into
row iterators.
*/

////////////////////////////////////////////////////////////////////////////////

// Sample is a single (timestamp, value) point.
type Sample struct {
	Timestamp uint64
	Value     float64
}

// sampleSize is the on-disk and in-memory footprint of one Sample: an
// 8-byte timestamp plus an 8-byte float64.
const sampleSize = 16

// AppendResult is the outcome of a single Append call.
type AppendResult int

const (
	// OK means the sample was buffered; no level sealed.
	OK AppendResult = iota
	// OKFlushNeeded means the sample was buffered and at least one level
	// sealed as a result. The caller should read Roots() and persist the
	// new rescue point.
	OKFlushNeeded
	// FailBadValue means the value was non-finite (NaN or +/-Inf).
	FailBadValue
	// FailIO means a block store write failed while sealing a level. The
	// sample was not buffered; the append is safe to retry.
	FailIO
)

func (r AppendResult) String() string {
	switch r {
	case OK:
		return "ok"
	case OKFlushNeeded:
		return "ok_flush_needed"
	case FailBadValue:
		return "fail_bad_value"
	case FailIO:
		return "fail_io"
	default:
		return "unknown"
	}
}
