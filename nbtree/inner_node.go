package nbtree

import (
	"fmt"

	"github.com/tindahl/coltree/blockstore"
	"github.com/tindahl/coltree/util"
)

/*
Inner nodes fan out to their children's block addresses, tagged with the
timestamp range each child covers so a search can skip children outside
the requested window without reading them. A height-1 inner node's
children are leaves; a height-N inner node's children are height-(N-1)
inner nodes.
*/

////////////////////////////////////////////////////////////////////////////////

const innerNodeVersion = uint8(1)

type child struct {
	addr  blockstore.Addr
	minTS uint64
	maxTS uint64
}

type innerNode struct {
	version  uint8
	height   uint8
	children []child
}

func newInnerNode(height uint8) *innerNode {
	return &innerNode{version: innerNodeVersion, height: height}
}

func (n *innerNode) addChild(c child) {
	n.children = append(n.children, c)
}

func (n *innerNode) full(fanout int) bool {
	return len(n.children) >= fanout
}

func (n *innerNode) empty() bool {
	return len(n.children) == 0
}

func (n *innerNode) minTS() uint64 {
	if len(n.children) == 0 {
		return 0
	}
	return n.children[0].minTS
}

func (n *innerNode) maxTS() uint64 {
	if len(n.children) == 0 {
		return 0
	}
	return n.children[len(n.children)-1].maxTS
}

func (n *innerNode) sizeBytes() uint64 {
	return uint64(len(n.children)) * childSize
}

// childSize is addr (24) + minTS (8) + maxTS (8).
const childSize = 24 + 8 + 8

func (n *innerNode) toBytes() []byte {
	buf := make([]byte, 1+1+8+len(n.children)*childSize)
	offset := util.U8(buf, n.version)
	offset += util.U8(buf[offset:], n.height)
	offset += util.U64(buf[offset:], uint64(len(n.children)))
	for _, c := range n.children {
		offset += copy(buf[offset:], c.addr[:])
		offset += util.U64(buf[offset:], c.minTS)
		offset += util.U64(buf[offset:], c.maxTS)
	}
	return buf
}

func innerNodeFromBytes(data []byte) (*innerNode, error) {
	if len(data) < 10 {
		return nil, fmt.Errorf("inner node block too short: %d bytes", len(data))
	}
	n := &innerNode{}
	var offset int
	offset += util.ReadU8(data, &n.version)
	offset += util.ReadU8(data[offset:], &n.height)
	var count uint64
	offset += util.ReadU64(data[offset:], &count)
	if uint64(len(data)-offset) != count*childSize {
		return nil, fmt.Errorf("inner node block has %d children but %d bytes remain",
			count, len(data)-offset)
	}
	n.children = make([]child, count)
	for i := range n.children {
		var c child
		offset += copy(c.addr[:], data[offset:offset+24])
		offset += util.ReadU64(data[offset:], &c.minTS)
		offset += util.ReadU64(data[offset:], &c.maxTS)
		n.children[i] = c
	}
	return n, nil
}
