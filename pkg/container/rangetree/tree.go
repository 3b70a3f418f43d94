// Package rangetree implements a static layered range tree for orthogonal
// range reporting over multidimensional points. A D-dimensional tree is a
// balanced BST over the first coordinate where every node owns an associated
// (D-1)-dimensional tree over the same point subset keyed on the next
// coordinate. Reporting a closed box costs O(log^D n + k) for k reported
// points. Duplicate points are reported with their multiplicities.
//
// The tree is immutable once built, so concurrent queries need no locking.
package rangetree

import (
	"fmt"
	"strings"
)

var (
	ErrEmptySet    = fmt.Errorf("rangetree: point set is empty")
	ErrDimNotEqual = fmt.Errorf("rangetree: points dimension is not equal")
)

// Point is the stored point abstraction. Coordinates are surfaced as
// float64; NextDim returns the smallest representable value strictly above
// coordinate idx and is what turns a closed query interval into a half-open
// one.
type Point interface {
	Dim(idx int) float64
	Dimensions() int
	NextDim(idx int) float64
}

type Tree struct {
	root *node
	size int
	dims int
}

// New builds a tree over the given points. The points slice itself is not
// reordered; the build sorts an internal copy of the references. At least
// one point of dimension >= 1 is required, and all points must share the
// same dimension.
func New(points ...Point) (*Tree, error) {
	if len(points) == 0 {
		return nil, ErrEmptySet
	}
	dims := points[0].Dimensions()
	if dims < 1 {
		return nil, fmt.Errorf("rangetree: zero-dimensional points")
	}
	for i := 1; i < len(points); i++ {
		if points[i].Dimensions() != dims {
			return nil, ErrDimNotEqual
		}
	}

	shared := make([]Point, len(points))
	copy(shared, points)
	sortPoints(shared, 0)

	return &Tree{root: buildTree(shared, dims, dims), size: len(points), dims: dims}, nil
}

func (t *Tree) Len() int {
	return t.size
}

func (t *Tree) Dimensions() int {
	return t.dims
}

// Query reports every stored point p with from[i] <= p[i] <= to[i] on every
// coordinate, once per stored occurrence, in unspecified order. A box with
// from[i] > to[i] on some coordinate is empty and reports nothing. The only
// error is a dimension mismatch between the box and the tree.
func (t *Tree) Query(from, to Point) ([]Point, error) {
	if from.Dimensions() != t.dims || to.Dimensions() != t.dims {
		return nil, ErrDimNotEqual
	}

	toNext := make([]float64, t.dims)
	for i := range toNext {
		toNext[i] = to.NextDim(i)
	}

	var result []Point
	queryTree(t.root, from, toNext, t.dims, t.dims, &result)
	return result, nil
}

// Points returns the stored points sorted by the first coordinate.
func (t *Tree) Points() []Point {
	return t.root.points(make([]Point, 0, t.size))
}

func (t *Tree) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	t.root.print(&sb)
	sb.WriteByte(']')
	return sb.String()
}
