package domain

import "math"

// PageOffset returns the row offset of a 1-based page. Pages too far out to
// address saturate at math.MaxInt, which selects no rows.
func PageOffset(page, limit int) int {
	if page <= 1 || limit <= 0 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}
