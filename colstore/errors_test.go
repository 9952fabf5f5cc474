package colstore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusErrorIs(t *testing.T) {
	err := newStatusError(StatusBadArg, "column %d already exists", 1)
	require.True(t, errors.Is(err, StatusError{Status: StatusBadArg}))
	require.False(t, errors.Is(err, StatusError{Status: StatusIO}))
}

func TestStatusStrings(t *testing.T) {
	cases := map[Status]string{
		StatusOK:             "ok",
		StatusNoData:         "no_data",
		StatusNotFound:       "not_found",
		StatusBadArg:         "bad_arg",
		StatusBadData:        "bad_data",
		StatusBadValue:       "bad_value",
		StatusNotImplemented: "not_implemented",
		StatusIO:             "io",
		StatusUnavailable:    "unavailable",
	}
	for status, expected := range cases {
		require.Equal(t, expected, status.String())
	}
}
