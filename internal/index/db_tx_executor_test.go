package index

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"rangeq/internal/dataset/model"
	"rangeq/internal/geom"
)

func testItems(n int) []txItem {
	items := make([]txItem, n)
	for i := range items {
		items[i] = txItem{
			dataset: "test-data",
			point:   model.NewDataPoint(geom.Point{1, 1, 1, 1}, time.Now()),
		}
	}
	return items
}

func TestDbTxExecutorFlusher(t *testing.T) {
	txExecutor := &dbTxExecutor{
		opts:       dbTxExecutorOptions{dbFlushTime: 100 * time.Millisecond},
		shutdownCh: make(chan error, 1),
	}
	txExecutor.buf = testItems(5)

	var flushed int64
	ctx, cancel := context.WithCancel(context.TODO())
	go txExecutor.flusher(ctx, func(ctx context.Context, dataset string, points []model.DataPoint) error {
		atomic.AddInt64(&flushed, int64(len(points)))
		return nil
	})

	time.Sleep(300 * time.Millisecond)
	cancel()
	time.Sleep(100 * time.Millisecond)

	if got := atomic.LoadInt64(&flushed); got != 5 {
		t.Errorf("calling the flusher method, the length of the inserted data got: %v, expected: %v", got, 5)
	}

	txExecutor.mtx.RLock()
	defer txExecutor.mtx.RUnlock()
	if len(txExecutor.buf) != 0 {
		t.Errorf("calling the flusher method, the length of buffer got: %v, expected: %v", len(txExecutor.buf), 0)
	}
}

func TestDbTxExecutorAppend(t *testing.T) {
	tests := []struct {
		name        string
		items       []txItem
		expectedLen int
	}{
		{name: "append_one", items: testItems(1), expectedLen: 1},
		{name: "append_two", items: testItems(2), expectedLen: 2},
		{name: "append_three", items: testItems(3), expectedLen: 3},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			txExecutor := &dbTxExecutor{opts: dbTxExecutorOptions{dbFlushSize: 100}}
			for _, item := range test.items {
				txExecutor.append(context.Background(), item.dataset, item.point,
					func(ctx context.Context, dataset string, points []model.DataPoint) error {
						return nil
					})
			}

			if len(txExecutor.buf) != test.expectedLen {
				t.Errorf(
					"calling the append method, the length of the inserted data got: %v, expected: %v",
					len(txExecutor.buf),
					test.expectedLen,
				)
			}
		})
	}
}

func TestDbTxExecutorBulkAppend(t *testing.T) {
	tests := []struct {
		name           string
		buf            []txItem
		expectedLen    int
		expectedBufLen int
	}{
		{name: "positive_bulk_append", buf: testItems(5), expectedLen: 5, expectedBufLen: 0},
		{name: "empty_bulk_append", buf: []txItem{}, expectedLen: 0, expectedBufLen: 0},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			txExecutor := &dbTxExecutor{}
			length := 0
			txExecutor.buf = test.buf
			txExecutor.bulkAppend(context.Background(),
				func(ctx context.Context, dataset string, points []model.DataPoint) error {
					length += len(points)
					return nil
				})

			if length != test.expectedLen {
				t.Errorf(
					"calling the bulkAppend method, the length of the inserted data got: %v, expected: %v",
					length,
					test.expectedLen,
				)
			}

			if len(txExecutor.buf) != test.expectedBufLen {
				t.Errorf(
					"calling the bulkAppend method, the length of buffer got: %v, expected: %v",
					len(txExecutor.buf),
					test.expectedBufLen,
				)
			}
		})
	}
}

func TestDbTxExecutorShutdown(t *testing.T) {
	tests := []struct {
		name        string
		buf         []txItem
		expectedLen int
		expectedErr error
	}{
		{name: "positive_shutdown", buf: testItems(5), expectedLen: 5, expectedErr: nil},
		{name: "error_shutdown", buf: testItems(2), expectedLen: 2, expectedErr: errors.New("test")},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			length := 0
			txExecutor := &dbTxExecutor{}
			txExecutor.buf = test.buf
			err := txExecutor.shutdown(func(ctx context.Context, dataset string, points []model.DataPoint) error {
				length += len(points)
				if test.expectedErr != nil {
					return test.expectedErr
				}
				return nil
			})

			if test.expectedErr == nil && err != nil {
				t.Errorf("calling the shutdown method, err got: %v, expected: %v", err, test.expectedErr)
			}
			if test.expectedErr != nil && err == nil {
				t.Errorf("calling the shutdown method, err got: %v, expected: %v", err, test.expectedErr)
			}

			if test.expectedErr == nil && length != test.expectedLen {
				t.Errorf(
					"calling the shutdown method, the length of the inserted data got: %v, expected: %v",
					length,
					test.expectedLen,
				)
			}
		})
	}
}

func TestDbTxExecutorGroupsByDataset(t *testing.T) {
	txExecutor := &dbTxExecutor{}
	txExecutor.buf = []txItem{
		{dataset: "alpha", point: model.NewDataPoint(geom.Point{1}, time.Now())},
		{dataset: "beta", point: model.NewDataPoint(geom.Point{2}, time.Now())},
		{dataset: "alpha", point: model.NewDataPoint(geom.Point{3}, time.Now())},
	}

	got := map[string]int{}
	if err := txExecutor.shutdown(func(ctx context.Context, dataset string, points []model.DataPoint) error {
		got[dataset] += len(points)
		return nil
	}); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	if got["alpha"] != 2 || got["beta"] != 1 {
		t.Errorf("grouping by dataset got: %v, expected: alpha=2 beta=1", got)
	}
}
