package colstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionCachesAfterFirstWrite(t *testing.T) {
	ctx := context.Background()
	reg, _ := testRegistry(t)
	require.NoError(t, reg.CreateNewColumn(ctx, 1))

	session := NewSession(reg)
	_, _, err := session.Write(ctx, Sample{ID: 1, Timestamp: 1, Value: 1})
	require.NoError(t, err)

	_, ok := session.get(1)
	require.True(t, ok)

	_, _, err = session.Write(ctx, Sample{ID: 1, Timestamp: 2, Value: 2})
	require.NoError(t, err)
}

func TestSessionWriteUnknownIDFails(t *testing.T) {
	ctx := context.Background()
	reg, _ := testRegistry(t)
	session := NewSession(reg)

	result, _, err := session.Write(ctx, Sample{ID: 42, Timestamp: 1, Value: 1})
	require.NoError(t, err)
	require.Equal(t, FailBadID, result)
}

func TestSessionQueryForwardsToRegistry(t *testing.T) {
	ctx := context.Background()
	reg, _ := testRegistry(t)
	require.NoError(t, reg.CreateNewColumn(ctx, 1))
	session := NewSession(reg)
	_, _, err := session.Write(ctx, Sample{ID: 1, Timestamp: 1, Value: 5})
	require.NoError(t, err)

	consumer := &collectingConsumer{}
	req := ReshapeRequest{Select: Select{IDs: []ParamId{1}, Begin: 0, End: 10}}
	require.NoError(t, session.Query(ctx, req, consumer))
	require.Len(t, consumer.samples, 1)
}
