package util_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tindahl/coltree/util"
)

func TestReadU8(t *testing.T) {
	var x uint8
	n := util.ReadU8([]byte{0x01}, &x)
	require.Equal(t, 1, n)
	require.Equal(t, uint8(0x01), x)
}

func TestReadU64(t *testing.T) {
	var x uint64
	n := util.ReadU64([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}, &x)
	require.Equal(t, 8, n)
	require.Equal(t, uint64(0x0807060504030201), x)
}

func TestU8(t *testing.T) {
	buf := make([]byte, 1)
	n := util.U8(buf, 0x01)
	require.Equal(t, 1, n)
	require.Equal(t, []byte{0x01}, buf)
}

func TestU64(t *testing.T) {
	buf := make([]byte, 8)
	n := util.U64(buf, 0x0807060504030201)
	require.Equal(t, 8, n)
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}, buf)
}

func TestF64RoundTrip(t *testing.T) {
	cases := []float64{0, 1.5, -1.5, 3.14159265, 1e300, -1e-300}
	for _, c := range cases {
		buf := make([]byte, 8)
		util.F64(buf, c)
		var out float64
		util.ReadF64(buf, &out)
		require.Equal(t, c, out)
	}
}

func TestDecodeU64(t *testing.T) {
	buf := make([]byte, 8)
	util.U64(buf, 0x0102030405060708)
	x, err := util.DecodeU64(bytes.NewReader(buf))
	require.NoError(t, err)
	require.Equal(t, uint64(0x0102030405060708), x)

	_, err = util.DecodeU64(bytes.NewReader(buf[:4]))
	require.Error(t, err)
}
