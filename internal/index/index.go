// Package index owns the in-memory range trees of every dataset and keeps
// them in sync with persistent storage. Ingested points flow through
// per-dataset queues into a write-behind buffer; trees are rebuilt in the
// background once a dataset is dirty. A tree itself is immutable, so
// queries run lock-free against the current snapshot.
package index

import (
	"context"

	datasetDb "rangeq/internal/dataset/database"
	"rangeq/internal/dataset/model"
	"rangeq/internal/geom"
)

// Contract for returning the Manager instance
type ProvideFn func(chan<- error) (Manager, error)

// Collector accepts points for indexing.
type Collector interface {
	Collect(dataset string, points ...model.DataPoint) error
}

// Querier reports stored points inside closed boxes.
type Querier interface {
	Query(ctx context.Context, dataset string, from, to geom.Point) ([]geom.Point, error)
	Points(dataset string) ([]geom.Point, error)
	Datasets() []string
}

// Manager is the background indexing service.
type Manager interface {
	Collector
	Querier
	Run(context.Context) error
	Stop()
}

// Abstractions for pulling storage dependencies
type (
	fetchPointsByNameFn func(string, datasetDb.FilterFn) ([]model.DataPoint, error)
	appendPointsFn      func(context.Context, string, []model.DataPoint) error
	deletePointsFn      func(context.Context, string, []model.DataPoint) error
	fetchKeysFn         func() ([]string, error)
	countByNameFn       func(string) (int, error)
)

type pullDependencies struct {
	fetchPointsByName fetchPointsByNameFn
	appendPoints      appendPointsFn
	deletePoints      deletePointsFn
	fetchKeys         fetchKeysFn
	countByName       countByNameFn
}
