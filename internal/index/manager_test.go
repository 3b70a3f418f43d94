package index

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rangeq/internal/database"
	"rangeq/internal/dataset/model"
	"rangeq/internal/geom"
	"rangeq/internal/scan"
)

func newTestManager(t *testing.T) (*manager, func()) {
	t.Helper()
	dir, err := ioutil.TempDir("", "rangeq-index-test")
	if err != nil {
		t.Fatalf("unable create temp dir: %v", err)
	}
	ctx := context.Background()
	db, err := database.NewFromEnv(ctx, &database.Config{FileName: filepath.Join(dir, "test.db")})
	if err != nil {
		os.RemoveAll(dir)
		t.Fatalf("unable open db: %v", err)
	}

	shutdownCh := make(chan error, 1)
	m, err := New(
		db,
		nil,
		shutdownCh,
		WithRebuildTime(50*time.Millisecond),
		WithDBFlushTime(50*time.Millisecond),
		WithDBFlushSize(4),
	)
	if err != nil {
		t.Fatalf("unable create manager: %v", err)
	}
	return m, func() {
		m.Stop()
		_ = db.Close(ctx)
		_ = os.RemoveAll(dir)
	}
}

func waitForDataset(t *testing.T, m *manager, dataset string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		for _, name := range m.Datasets() {
			if name == dataset {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("dataset %q did not become queryable", dataset)
}

func TestManager_CollectQuery(t *testing.T) {
	m, done := newTestManager(t)
	defer done()

	ctx := context.Background()
	if err := m.Run(ctx); err != nil {
		t.Fatalf("manager run failed: %v", err)
	}

	vecs := []geom.Point{{4, 6}, {1, 5}, {2, 7}, {3, 8}, {1, 1}, {2, 5}, {6, 1}, {4, 4}}
	points := make([]model.DataPoint, len(vecs))
	for i := range vecs {
		points[i] = model.NewDataPoint(vecs[i], time.Now())
	}
	if err := m.Collect("grid", points...); err != nil {
		t.Fatalf("collect failed: %v", err)
	}

	waitForDataset(t, m, "grid")

	// ingestion is eventually consistent: poll until the tree converges on
	// the full working set
	from, to := geom.Point{1, 1}, geom.Point{2, 7}
	expected := scan.Points(vecs, from, to)
	deadline := time.Now().Add(3 * time.Second)
	for {
		got, err := m.Query(ctx, "grid", from, to)
		if err == nil && len(got) == len(expected) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("query result length got: %v (err %v), expected: %v", len(got), err, len(expected))
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestManager_QueryUnknownDataset(t *testing.T) {
	m, done := newTestManager(t)
	defer done()

	if _, err := m.Query(context.Background(), "missing", geom.Point{0}, geom.Point{1}); err == nil {
		t.Errorf("a query against an unknown dataset must fail")
	}
}

func TestManager_QueryDimMismatch(t *testing.T) {
	m, done := newTestManager(t)
	defer done()

	ctx := context.Background()
	if err := m.Run(ctx); err != nil {
		t.Fatalf("manager run failed: %v", err)
	}
	if err := m.Collect("flat", model.NewDataPoint(geom.Point{1, 2}, time.Now())); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	waitForDataset(t, m, "flat")

	if _, err := m.Query(ctx, "flat", geom.Point{0}, geom.Point{1}); err == nil {
		t.Errorf("a box of the wrong dimension must fail")
	}
}

func TestManager_PersistenceAcrossRestart(t *testing.T) {
	dir, err := ioutil.TempDir("", "rangeq-index-test")
	if err != nil {
		t.Fatalf("unable create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	ctx := context.Background()
	file := filepath.Join(dir, "test.db")

	db, err := database.NewFromEnv(ctx, &database.Config{FileName: file})
	if err != nil {
		t.Fatalf("unable open db: %v", err)
	}

	shutdownCh := make(chan error, 2)
	first, err := New(db, nil, shutdownCh, WithRebuildTime(50*time.Millisecond), WithDBFlushTime(50*time.Millisecond))
	if err != nil {
		t.Fatalf("unable create manager: %v", err)
	}
	runCtx, cancelRun := context.WithCancel(ctx)
	if err := first.Run(runCtx); err != nil {
		t.Fatalf("manager run failed: %v", err)
	}
	if err := first.Collect("persisted", model.NewDataPoint(geom.Point{1, 2}, time.Now())); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	waitForDataset(t, first, "persisted")

	cancelRun()
	// the flusher reports its final flush on shutdown
	select {
	case err := <-shutdownCh:
		if err != nil {
			t.Fatalf("shutdown flush failed: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("shutdown flush did not happen")
	}
	first.Stop()
	if err := db.Close(ctx); err != nil {
		t.Fatalf("unable close db: %v", err)
	}

	db, err = database.NewFromEnv(ctx, &database.Config{FileName: file})
	if err != nil {
		t.Fatalf("unable reopen db: %v", err)
	}
	defer db.Close(ctx)

	second, err := New(db, nil, make(chan error, 1), WithRebuildTime(50*time.Millisecond))
	if err != nil {
		t.Fatalf("unable create manager: %v", err)
	}
	if err := second.Run(ctx); err != nil {
		t.Fatalf("manager run failed: %v", err)
	}
	defer second.Stop()

	waitForDataset(t, second, "persisted")
	got, err := second.Query(ctx, "persisted", geom.Point{0, 0}, geom.Point{5, 5})
	if err != nil {
		t.Fatalf("query after restart failed: %v", err)
	}
	if len(got) != 1 || !got[0].Equal(geom.Point{1, 2}) {
		t.Errorf("query after restart got: %v, expected: [(1, 2)]", got)
	}
}
