package colstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// TestConcurrentDistinctSeriesWrites drives two writers concurrently against
// distinct series, each appending a large run of samples, then verifies that
// forcing a Close drains every tree's in-memory buffer and that replaying
// the returned rescue points against the same block store recovers every
// sample either writer produced.
func TestConcurrentDistinctSeriesWrites(t *testing.T) {
	ctx := context.Background()
	reg, store := testRegistry(t)
	ids := []ParamId{1, 2}
	for _, id := range ids {
		require.NoError(t, reg.CreateNewColumn(ctx, id))
	}

	const perSeries = 100_000
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			for i := uint64(0); i < perSeries; i++ {
				result, _, err := reg.Write(gctx, Sample{ID: id, Timestamp: i, Value: float64(i)}, nil)
				if err != nil {
					return err
				}
				if result != OK && result != OKFlushNeeded {
					return fmt.Errorf("unexpected append result %s for id %d", result, id)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	closed, err := reg.Close(ctx)
	require.NoError(t, err)
	require.Zero(t, reg.UncommittedMemory(ctx))

	total := 0
	for _, id := range ids {
		roots, ok := closed[id]
		require.True(t, ok)
		tree, err := reopenTreeForTest(ctx, store, roots, reg.cfg)
		require.NoError(t, err)

		it, err := tree.Search(ctx, 0, perSeries)
		require.NoError(t, err)
		for {
			_, ok, err := it.Next(ctx)
			require.NoError(t, err)
			if !ok {
				break
			}
			total++
		}
	}
	require.Equal(t, 2*perSeries, total)
}
