// Package scan is the trivial O(nD) reference for orthogonal range
// reporting: a linear pass with a componentwise bounds check. The index
// tests and the bench tool use it as the oracle for the tree.
package scan

import (
	"rangeq/internal/geom"
)

// Points returns every point p with from <= p <= to componentwise, in input
// order. A box with from[i] > to[i] on some coordinate matches nothing.
func Points(points []geom.Point, from, to geom.Point) []geom.Point {
	var result []geom.Point
	for _, p := range points {
		if from.Le(p) && p.Le(to) {
			result = append(result, p)
		}
	}
	return result
}

// IntPoints is the integer-coordinate counterpart of Points.
func IntPoints(points []geom.IntPoint, from, to geom.IntPoint) []geom.IntPoint {
	var result []geom.IntPoint
	for _, p := range points {
		if from.Le(p) && p.Le(to) {
			result = append(result, p)
		}
	}
	return result
}
