package colstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tindahl/coltree/nbtree"
)

type fakeIterator struct {
	samples []nbtree.Sample
	pos     int
}

func (f *fakeIterator) Next(_ context.Context) (nbtree.Sample, bool, error) {
	if f.pos >= len(f.samples) {
		return nbtree.Sample{}, false, nil
	}
	s := f.samples[f.pos]
	f.pos++
	return s, true, nil
}

func TestChainIteratorOrdersBySource(t *testing.T) {
	ctx := context.Background()
	sources := []idIterator{
		{id: 1, it: &fakeIterator{samples: []nbtree.Sample{{Timestamp: 1, Value: 1}, {Timestamp: 2, Value: 2}}}},
		{id: 2, it: &fakeIterator{samples: []nbtree.Sample{{Timestamp: 1, Value: 10}}}},
	}
	it := NewChainIterator(sources)

	dest := make([]Sample, 10)
	status, n, err := it.Read(ctx, dest)
	require.NoError(t, err)
	require.Equal(t, StatusOK, status)
	require.Equal(t, 3, n)
	require.Equal(t, ParamId(1), dest[0].ID)
	require.Equal(t, ParamId(1), dest[1].ID)
	require.Equal(t, ParamId(2), dest[2].ID)

	status, n, err = it.Read(ctx, dest)
	require.NoError(t, err)
	require.Equal(t, StatusNoData, status)
	require.Zero(t, n)
}

func TestChainIteratorRespectsDestSize(t *testing.T) {
	ctx := context.Background()
	sources := []idIterator{
		{id: 1, it: &fakeIterator{samples: []nbtree.Sample{{Timestamp: 1}, {Timestamp: 2}, {Timestamp: 3}}}},
	}
	it := NewChainIterator(sources)

	dest := make([]Sample, 2)
	status, n, err := it.Read(ctx, dest)
	require.NoError(t, err)
	require.Equal(t, StatusOK, status)
	require.Equal(t, 2, n)

	status, n, err = it.Read(ctx, dest)
	require.NoError(t, err)
	require.Equal(t, StatusOK, status)
	require.Equal(t, 1, n)
}

func TestTimeMergeIteratorNotImplemented(t *testing.T) {
	ctx := context.Background()
	it := NewTimeMergeIterator()
	status, n, err := it.Read(ctx, make([]Sample, 4))
	require.NoError(t, err)
	require.Equal(t, StatusNotImplemented, status)
	require.Zero(t, n)
}
