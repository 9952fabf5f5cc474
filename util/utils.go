package util

import (
	"cmp"
	"slices"
	"strconv"
)

/*
Small generic utility functions shared across the column store packages.
*/

////////////////////////////////////////////////////////////////////////////////

// Okeys returns the keys of a map in sorted order. Used anywhere map
// iteration order would otherwise leak into logs or test output, such as
// Registry.Close's per-id result collection.
func Okeys[T cmp.Ordered, K any](m map[T]K) []T {
	keys := make([]T, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// HumanBytes returns a human-readable representation of a number of bytes.
func HumanBytes(n uint64) string {
	suffix := []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}
	i := 0
	for n >= 1024 && i < len(suffix)-1 {
		n /= 1024
		i++
	}
	return strconv.FormatUint(n, 10) + " " + suffix[i]
}
