package colstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateNewColumnRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	reg, _ := testRegistry(t)

	require.NoError(t, reg.CreateNewColumn(ctx, 1))
	err := reg.CreateNewColumn(ctx, 1)
	require.Error(t, err)
	require.ErrorIs(t, err, StatusError{Status: StatusBadArg})
}

func TestWriteUnknownIDFails(t *testing.T) {
	ctx := context.Background()
	reg, _ := testRegistry(t)

	result, roots, err := reg.Write(ctx, Sample{ID: 99, Timestamp: 1, Value: 1}, nil)
	require.NoError(t, err)
	require.Nil(t, roots)
	require.Equal(t, FailBadID, result)
}

func TestWriteRoundTrip(t *testing.T) {
	ctx := context.Background()
	reg, _ := testRegistry(t)

	require.NoError(t, reg.CreateNewColumn(ctx, 1))
	result, _, err := reg.Write(ctx, Sample{ID: 1, Timestamp: 10, Value: 3.5}, nil)
	require.NoError(t, err)
	require.Equal(t, OK, result)

	consumer := &collectingConsumer{}
	req := ReshapeRequest{Select: Select{IDs: []ParamId{1}, Begin: 0, End: 100}}
	require.NoError(t, reg.Query(ctx, req, consumer))
	require.Len(t, consumer.samples, 1)
	require.Equal(t, Sample{ID: 1, Timestamp: 10, Value: 3.5}, consumer.samples[0])
}

func TestWriteProducesFlushNeeded(t *testing.T) {
	ctx := context.Background()
	reg, _ := testRegistry(t)
	require.NoError(t, reg.CreateNewColumn(ctx, 1))

	sawFlush := false
	for i := uint64(0); i < 8; i++ {
		result, roots, err := reg.Write(ctx, Sample{ID: 1, Timestamp: i, Value: float64(i)}, nil)
		require.NoError(t, err)
		if result == OKFlushNeeded {
			sawFlush = true
			require.NotEmpty(t, roots)
		}
	}
	require.True(t, sawFlush)
}

func TestDistinctSeriesWritesDoNotInterfere(t *testing.T) {
	ctx := context.Background()
	reg, _ := testRegistry(t)
	require.NoError(t, reg.CreateNewColumn(ctx, 1))
	require.NoError(t, reg.CreateNewColumn(ctx, 2))

	for i := uint64(0); i < 5; i++ {
		_, _, err := reg.Write(ctx, Sample{ID: 1, Timestamp: i, Value: 1}, nil)
		require.NoError(t, err)
		_, _, err = reg.Write(ctx, Sample{ID: 2, Timestamp: i, Value: 2}, nil)
		require.NoError(t, err)
	}

	c1 := &collectingConsumer{}
	require.NoError(t, reg.Query(ctx, ReshapeRequest{Select: Select{IDs: []ParamId{1}, Begin: 0, End: 10}}, c1))
	require.Len(t, c1.samples, 5)
	for _, s := range c1.samples {
		require.Equal(t, ParamId(1), s.ID)
		require.Equal(t, 1.0, s.Value)
	}
}

func TestQueryReportsMissingIDAsNotFound(t *testing.T) {
	ctx := context.Background()
	reg, _ := testRegistry(t)
	require.NoError(t, reg.CreateNewColumn(ctx, 1))
	_, _, err := reg.Write(ctx, Sample{ID: 1, Timestamp: 1, Value: 1}, nil)
	require.NoError(t, err)

	consumer := &collectingConsumer{}
	req := ReshapeRequest{Select: Select{IDs: []ParamId{1, 2}, Begin: 0, End: 10}}
	require.NoError(t, reg.Query(ctx, req, consumer))
	require.Equal(t, StatusNotFound, consumer.status)
	require.Len(t, consumer.samples, 1)
}

func TestQueryOrderByTimeNotImplemented(t *testing.T) {
	ctx := context.Background()
	reg, _ := testRegistry(t)
	require.NoError(t, reg.CreateNewColumn(ctx, 1))

	consumer := &collectingConsumer{}
	req := ReshapeRequest{
		Select:  Select{IDs: []ParamId{1}, Begin: 0, End: 10},
		OrderBy: OrderByTime,
	}
	require.NoError(t, reg.Query(ctx, req, consumer))
	require.Equal(t, StatusNotImplemented, consumer.status)
	require.Empty(t, consumer.samples)
}

func TestWriteRejectsNonFiniteValue(t *testing.T) {
	ctx := context.Background()
	reg, _ := testRegistry(t)
	require.NoError(t, reg.CreateNewColumn(ctx, 1))

	session := NewSession(reg)
	result, _, err := session.Write(ctx, Sample{ID: 1, Timestamp: 1, Value: nanFloat()})
	require.NoError(t, err)
	require.Equal(t, FailBadValue, result)
}

func nanFloat() float64 {
	var zero float64
	return zero / zero
}

func TestCloseAndReopenReplay(t *testing.T) {
	ctx := context.Background()
	reg, store := testRegistry(t)
	require.NoError(t, reg.CreateNewColumn(ctx, 1))

	for i := uint64(0); i < 20; i++ {
		_, _, err := reg.Write(ctx, Sample{ID: 1, Timestamp: i, Value: float64(i)}, nil)
		require.NoError(t, err)
	}

	closedRoots, err := reg.Close(ctx)
	require.NoError(t, err)
	roots, ok := closedRoots[1]
	require.True(t, ok)
	require.NotEmpty(t, roots)

	reopened := NewRegistry(store, reg.cfg)
	tree, err := reopenTreeForTest(ctx, store, roots, reg.cfg)
	require.NoError(t, err)
	reopened.shardFor(1).trees[1] = tree

	consumer := &collectingConsumer{}
	req := ReshapeRequest{Select: Select{IDs: []ParamId{1}, Begin: 0, End: 20}}
	require.NoError(t, reopened.Query(ctx, req, consumer))
	require.Len(t, consumer.samples, 20)
}
