package nbtree

import "errors"

// ErrClosed is returned by Append once Close has completed. Search still
// works on a closed tree.
var ErrClosed = errors.New("nbtree: tree is closed")
