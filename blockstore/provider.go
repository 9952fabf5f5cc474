package blockstore

import (
	"context"
	"encoding/binary"
	"errors"
	"strconv"

	"github.com/tindahl/coltree/util"
)

/*
The block store adapter is the boundary between the append tree and
physical storage. Blocks are immutable once written: Append is the only
mutator, and a returned Addr stays valid for the lifetime of the block
store.
*/

////////////////////////////////////////////////////////////////////////////////

// ErrNotFound is returned when an Addr does not resolve to a stored block.
var ErrNotFound = errors.New("blockstore: address not found")

// ErrUnavailable wraps an underlying I/O failure reaching the backing store.
var ErrUnavailable = errors.New("blockstore: unavailable")

// Addr is an opaque 24-byte block address: an object id, an offset into
// that object, and a length.
type Addr [24]byte

// NewAddr builds an Addr from its three fields.
func NewAddr(object, offset, length uint64) Addr {
	var a Addr
	util.U64(a[0:8], object)
	util.U64(a[8:16], offset)
	util.U64(a[16:24], length)
	return a
}

func (a Addr) object() uint64 {
	return binary.LittleEndian.Uint64(a[0:8])
}

func (a Addr) objectKey() string {
	return strconv.FormatUint(a.object(), 10)
}

func (a Addr) offset() int {
	return int(binary.LittleEndian.Uint64(a[8:16]))
}

func (a Addr) length() int {
	return int(binary.LittleEndian.Uint64(a[16:24]))
}

// IsZero reports whether a is the zero Addr, used as a sentinel for "no
// root yet" in the append tree.
func (a Addr) IsZero() bool {
	return a == Addr{}
}

func (a Addr) String() string {
	return strconv.FormatUint(a.object(), 10) + ":" +
		strconv.Itoa(a.offset()) + ":" + strconv.Itoa(a.length())
}

// Provider is the block store adapter contract. Implementations back the
// append tree's sealed node storage.
type Provider interface {
	// Read returns the bytes previously written at addr.
	Read(ctx context.Context, addr Addr) ([]byte, error)
	// Append writes data as a new immutable block and returns its address.
	Append(ctx context.Context, data []byte) (Addr, error)
	// Sync flushes any buffered writes to durable storage.
	Sync(ctx context.Context) error
}
