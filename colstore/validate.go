package colstore

import "math"

// validFloat reports whether v is a value the append tree will accept.
// Checked at the session boundary so a bad write never needs to reach
// the tree layer at all.
func validFloat(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
