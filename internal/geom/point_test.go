package geom

import (
	"testing"
)

func TestPoint_Dimensions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		p        Point
		expected int
	}{
		{name: "positive", p: NewPoint([]float64{1, 2, 3, 4, 5}), expected: 5},
		{name: "empty", p: NewPoint(nil), expected: 0},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			cmp := test.p.Dimensions()
			if cmp != test.expected {
				t.Errorf("the comparison is incorrect got: %v, expected: %v", cmp, test.expected)
			}
		})
	}
}

func TestPoint_Dim(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		p        Point
		idx      int
		expected float64
	}{
		{name: "first", p: NewPoint([]float64{1, 2, 3}), idx: 0, expected: 1},
		{name: "middle", p: NewPoint([]float64{1, 2, 3}), idx: 1, expected: 2},
		{name: "last", p: NewPoint([]float64{1, 2, 3}), idx: 2, expected: 3},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			got := test.p.Dim(test.idx)
			if test.expected != got {
				t.Errorf("dimension specified incorrectly, got: %f, expected: %f", got, test.expected)
			}
		})
	}
}

func TestPoint_Equal(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		p        Point
		p1       Point
		expected bool
	}{
		{name: "positive", p: Point{10, 10}, p1: Point{10, 10}, expected: true},
		{name: "negative", p: Point{10, 10}, p1: Point{11, 10}, expected: false},
		{name: "size_mismatch", p: Point{10, 10}, p1: Point{10}, expected: false},
	}
	for _, test := range tests {
		if test.p.Equal(test.p1) != test.expected {
			t.Errorf("the comparison of points, got: %v, expected: %v", test.p.Equal(test.p1), test.expected)
		}
	}
}

func TestPoint_LexLess(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		p        Point
		p1       Point
		expected bool
	}{
		{name: "first_coord", p: Point{1, 9}, p1: Point{2, 0}, expected: true},
		{name: "tie_break", p: Point{1, 2}, p1: Point{1, 3}, expected: true},
		{name: "equal", p: Point{1, 2}, p1: Point{1, 2}, expected: false},
		{name: "greater", p: Point{2, 0}, p1: Point{1, 9}, expected: false},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if got := test.p.LexLess(test.p1); got != test.expected {
				t.Errorf("lexicographic order got: %v, expected: %v", got, test.expected)
			}
		})
	}
}

func TestPoint_Le(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		p        Point
		p1       Point
		expected bool
	}{
		{name: "all_below", p: Point{1, 2}, p1: Point{2, 3}, expected: true},
		{name: "equal", p: Point{2, 3}, p1: Point{2, 3}, expected: true},
		{name: "one_above", p: Point{1, 4}, p1: Point{2, 3}, expected: false},
		{name: "size_mismatch", p: Point{1}, p1: Point{2, 3}, expected: false},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if got := test.p.Le(test.p1); got != test.expected {
				t.Errorf("componentwise comparison got: %v, expected: %v", got, test.expected)
			}
		})
	}
}

func TestPoint_Next(t *testing.T) {
	t.Parallel()
	p := Point{1, -2.5, 0}
	next := p.Next()
	if len(next) != len(p) {
		t.Fatalf("successor dimensions got: %v, expected: %v", len(next), len(p))
	}
	for i := range p {
		if next[i] <= p[i] {
			t.Errorf("successor coordinate %d is not strictly greater, got: %v from %v", i, next[i], p[i])
		}
		if next.Dim(i) != p.NextDim(i) {
			t.Errorf("NextDim(%d) diverges from Next, got: %v, expected: %v", i, p.NextDim(i), next.Dim(i))
		}
	}
}

func TestIntPoint_Next(t *testing.T) {
	t.Parallel()
	p := IntPoint{4, -100, 0}
	next := p.Next()
	for i := range p {
		if next[i] != p[i]+1 {
			t.Errorf("integer successor coordinate %d got: %v, expected: %v", i, next[i], p[i]+1)
		}
		if p.NextDim(i) != float64(p[i]+1) {
			t.Errorf("NextDim(%d) got: %v, expected: %v", i, p.NextDim(i), float64(p[i]+1))
		}
	}
}

func TestPoint_String(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		p        Point
		expected string
	}{
		{name: "ints", p: Point{1, 2}, expected: "(1, 2)"},
		{name: "fraction", p: Point{2.5, 7}, expected: "(2.5, 7)"},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if got := test.p.String(); got != test.expected {
				t.Errorf("point rendering got: %v, expected: %v", got, test.expected)
			}
		})
	}
}
