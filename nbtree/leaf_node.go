package nbtree

import (
	"fmt"

	"github.com/tindahl/coltree/util"
)

/*
Leaf nodes hold the raw (timestamp, value) samples for one span of a
series. They are the level-0 blocks of the append tree. Once sealed they
are immutable, same as every other block written through the block store
adapter.
*/

////////////////////////////////////////////////////////////////////////////////

const leafNodeVersion = uint8(1)

type leafNode struct {
	version uint8
	samples []Sample
}

func newLeafNode() *leafNode {
	return &leafNode{version: leafNodeVersion}
}

func (n *leafNode) append(s Sample) {
	n.samples = append(n.samples, s)
}

func (n *leafNode) sizeBytes() uint64 {
	return uint64(len(n.samples)) * sampleSize
}

func (n *leafNode) empty() bool {
	return len(n.samples) == 0
}

func (n *leafNode) minTS() uint64 {
	if len(n.samples) == 0 {
		return 0
	}
	return n.samples[0].Timestamp
}

func (n *leafNode) maxTS() uint64 {
	if len(n.samples) == 0 {
		return 0
	}
	return n.samples[len(n.samples)-1].Timestamp
}

// toBytes serializes the node: a version byte, a uint64 sample count, then
// the samples as packed (timestamp, value) pairs.
func (n *leafNode) toBytes() []byte {
	buf := make([]byte, 1+8+len(n.samples)*sampleSize)
	offset := util.U8(buf, n.version)
	offset += util.U64(buf[offset:], uint64(len(n.samples)))
	for _, s := range n.samples {
		offset += util.U64(buf[offset:], s.Timestamp)
		offset += util.F64(buf[offset:], s.Value)
	}
	return buf
}

func leafNodeFromBytes(data []byte) (*leafNode, error) {
	if len(data) < 9 {
		return nil, fmt.Errorf("leaf node block too short: %d bytes", len(data))
	}
	n := &leafNode{}
	var offset int
	offset += util.ReadU8(data, &n.version)
	var count uint64
	offset += util.ReadU64(data[offset:], &count)
	if uint64(len(data)-offset) != count*sampleSize {
		return nil, fmt.Errorf("leaf node block has %d samples but %d bytes remain",
			count, len(data)-offset)
	}
	n.samples = make([]Sample, count)
	for i := range n.samples {
		var s Sample
		offset += util.ReadU64(data[offset:], &s.Timestamp)
		offset += util.ReadF64(data[offset:], &s.Value)
		n.samples[i] = s
	}
	return n, nil
}
