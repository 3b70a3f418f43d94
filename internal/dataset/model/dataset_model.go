package model

import (
	"time"

	"github.com/google/uuid"

	"rangeq/internal/geom"
	"rangeq/pkg/container/rangetree"
)

// DataPoint is one stored point of a named dataset.
type DataPoint struct {
	ID        uuid.UUID  `json:"id"`
	Vec       geom.Point `json:"vector"`
	CreatedAt time.Time  `json:"createdAt"`
}

func NewDataPoint(vec geom.Point, createdAt time.Time) DataPoint {
	return DataPoint{
		ID:        uuid.New(),
		Vec:       vec,
		CreatedAt: createdAt,
	}
}

func (p DataPoint) Point() geom.Point {
	return p.Vec
}

// Dataset is a named collection of points of one dimensionality.
type Dataset struct {
	Name      string      `json:"name"`
	Dims      int         `json:"dims"`
	Points    []DataPoint `json:"points"`
	CreatedAt time.Time   `json:"createdAt"`
}

func (d Dataset) Len() int {
	return len(d.Points)
}

// Vectors returns the raw point vectors in stored order.
func (d Dataset) Vectors() []geom.Point {
	vecs := make([]geom.Point, len(d.Points))
	for i := range d.Points {
		vecs[i] = d.Points[i].Vec
	}
	return vecs
}

// TreePoints adapts the dataset points for tree building.
func (d Dataset) TreePoints() []rangetree.Point {
	points := make([]rangetree.Point, len(d.Points))
	for i := range d.Points {
		points[i] = d.Points[i].Vec
	}
	return points
}
