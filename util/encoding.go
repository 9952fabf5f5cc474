package util

/*
Encoding utilities for the fixed-width binary layouts used by the block
store adapter and the append tree's node formats. These do not check
buffer lengths - it is the caller's responsibility to size buffers
correctly, or a panic results.
*/

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// ReadU8 reads a uint8 from src and stores it in x, returning the read length.
func ReadU8(src []byte, x *uint8) int {
	*x = src[0]
	return 1
}

// ReadU64 reads a uint64 from src and stores it in x, returning the read length.
func ReadU64(src []byte, x *uint64) int {
	*x = binary.LittleEndian.Uint64(src)
	return 8
}

// ReadF64 reads a float64 from src and stores it in x, returning the read length.
func ReadF64(src []byte, x *float64) int {
	bits := binary.LittleEndian.Uint64(src)
	*x = math.Float64frombits(bits)
	return 8
}

// U8 writes a uint8 to dst and returns the written length.
func U8(dst []byte, src uint8) int {
	dst[0] = src
	return 1
}

// U64 writes a uint64 to dst and returns the written length.
func U64(dst []byte, src uint64) int {
	binary.LittleEndian.PutUint64(dst, src)
	return 8
}

// F64 writes a float64 to dst and returns the written length.
func F64(dst []byte, src float64) int {
	binary.LittleEndian.PutUint64(dst, math.Float64bits(src))
	return 8
}

// DecodeU64 decodes a uint64 from r.
func DecodeU64(r io.Reader) (uint64, error) {
	var x uint64
	if err := binary.Read(r, binary.LittleEndian, &x); err != nil {
		return 0, fmt.Errorf("failed to decode uint64: %w", err)
	}
	return x, nil
}
