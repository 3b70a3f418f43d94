package rangetree

import (
	"sort"
	"strconv"
	"strings"
)

// node is a uniform tree node variant. A node with left == nil is a leaf
// carrying a point; assoc == nil marks the innermost level. The key of a
// level-L node is the (D-L)-th coordinate: for an inner node the coordinate
// of the largest point in its left subtree, for a leaf the coordinate of
// its point.
type node struct {
	key   float64
	point Point
	left  *node
	right *node
	assoc *node
}

func (n *node) leaf() bool {
	return n.left == nil
}

func sortPoints(points []Point, coord int) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Dim(coord) < points[j].Dim(coord)
	})
}

// buildTree builds the level tree over points, which must already be sorted
// by coordinate dims-level. Children are built before the associated tree:
// buildAssoc reorders the shared range for the next coordinate, and the
// median split needs the current order.
func buildTree(points []Point, level, dims int) *node {
	coord := dims - level
	if len(points) == 1 {
		n := &node{key: points[0].Dim(coord), point: points[0]}
		if level > 1 {
			n.assoc = buildTree(points[:1], level-1, dims)
		}
		return n
	}

	m := len(points) / 2
	n := &node{key: points[m-1].Dim(coord)}
	n.left = buildTree(points[:m], level, dims)
	n.right = buildTree(points[m:], level, dims)
	if level > 1 {
		n.assoc = buildAssoc(points, level, dims)
	}
	return n
}

func buildAssoc(points []Point, level, dims int) *node {
	sortPoints(points, dims-level+1)
	return buildTree(points, level-1, dims)
}

// findSplitNode descends while both bounds of the half-open interval
// [fromKey, toKey) fall on the same side of the key. It stops at a leaf or
// at the node where the two search paths diverge.
func findSplitNode(v *node, fromKey, toKey float64) *node {
	for !v.leaf() && (toKey <= v.key || v.key < fromKey) {
		if toKey <= v.key {
			v = v.left
		} else {
			v = v.right
		}
	}
	return v
}

// queryTree reports every stored point inside the half-open box
// [from, toNext) into result. level counts down from dims to 1; the level
// filters coordinate dims-level and delegates the remaining coordinates to
// the associated trees of its canonical subtrees.
func queryTree(v *node, from Point, toNext []float64, level, dims int, result *[]Point) {
	coord := dims - level
	fromKey := from.Dim(coord)
	toKey := toNext[coord]

	v = findSplitNode(v, fromKey, toKey)
	if v.leaf() {
		if fromKey <= v.key && v.key < toKey {
			reportLeaf(v, from, toNext, level, dims, result)
		}
		return
	}

	// follow the path to fromKey, reporting subtrees right of the path
	w := v.left
	for !w.leaf() {
		if fromKey <= w.key {
			reportSubtree(w.right, from, toNext, level, dims, result)
			w = w.left
		} else {
			w = w.right
		}
	}
	if fromKey <= w.key && w.key < toKey {
		reportLeaf(w, from, toNext, level, dims, result)
	}

	// follow the path to toKey, reporting subtrees left of the path
	w = v.right
	for !w.leaf() {
		if w.key < toKey {
			reportSubtree(w.left, from, toNext, level, dims, result)
			w = w.right
		} else {
			w = w.left
		}
	}
	if fromKey <= w.key && w.key < toKey {
		reportLeaf(w, from, toNext, level, dims, result)
	}
}

// reportSubtree reports a canonical subtree: above the innermost level the
// remaining coordinates are filtered by the associated tree, at level 1
// every leaf below u is in the box already.
func reportSubtree(u *node, from Point, toNext []float64, level, dims int, result *[]Point) {
	if level > 1 {
		queryTree(u.assoc, from, toNext, level-1, dims, result)
		return
	}
	collect(u, result)
}

func reportLeaf(v *node, from Point, toNext []float64, level, dims int, result *[]Point) {
	if level > 1 {
		queryTree(v.assoc, from, toNext, level-1, dims, result)
		return
	}
	*result = append(*result, v.point)
}

func collect(v *node, result *[]Point) {
	if v.leaf() {
		*result = append(*result, v.point)
		return
	}
	collect(v.left, result)
	collect(v.right, result)
}

func (n *node) points(out []Point) []Point {
	if n.leaf() {
		return append(out, n.point)
	}
	out = n.left.points(out)
	return n.right.points(out)
}

// print renders the node: leaves as (c0, c1, ...), inner nodes as
// left,{assoc},right with the braces omitted on the innermost level.
func (n *node) print(sb *strings.Builder) {
	if n.leaf() {
		printPoint(sb, n.point)
		return
	}
	n.left.print(sb)
	sb.WriteByte(',')
	if n.assoc != nil {
		sb.WriteByte('{')
		n.assoc.print(sb)
		sb.WriteString("},")
	}
	n.right.print(sb)
}

func printPoint(sb *strings.Builder, p Point) {
	sb.WriteByte('(')
	for i := 0; i < p.Dimensions(); i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatFloat(p.Dim(i), 'g', -1, 64))
	}
	sb.WriteByte(')')
}
