package index

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rangeq/internal/dataset/model"
	"rangeq/internal/logging"
)

func newDBTxExecutor(opts dbTxExecutorOptions, shutdownCh chan<- error) *dbTxExecutor {
	return &dbTxExecutor{opts: opts, shutdownCh: shutdownCh}
}

type dbTxExecutorOptions struct {
	dbFlushSize int
	dbFlushTime time.Duration
}

type txItem struct {
	dataset string
	point   model.DataPoint
}

// dbTxExecutor accumulates ingested points and bulk-inserts them into
// persistent storage, grouped by dataset.
type dbTxExecutor struct {
	mtx sync.RWMutex

	opts       dbTxExecutorOptions
	buf        []txItem
	shutdownCh chan<- error
}

// shutdown urgently flushes the whole buffer.
func (tx *dbTxExecutor) shutdown(appendFn appendPointsFn) error {
	tx.mtx.Lock()
	defer tx.mtx.Unlock()
	if err := flushGrouped(context.Background(), tx.buf, appendFn); err != nil {
		return fmt.Errorf("txExecutor: append many operation failed: %v", err)
	}
	tx.buf = tx.buf[:0]
	return nil
}

// append adds one point to the buffer, flushing once the buffer is full.
func (tx *dbTxExecutor) append(ctx context.Context, dataset string, point model.DataPoint, appendFn appendPointsFn) {
	tx.mtx.Lock()
	if tx.buf == nil {
		tx.buf = []txItem{}
	}

	tx.buf = append(tx.buf, txItem{dataset: dataset, point: point})
	bufLen := len(tx.buf)
	tx.mtx.Unlock()

	if bufLen >= tx.opts.dbFlushSize {
		go tx.bulkAppend(ctx, appendFn)
	}
}

func (tx *dbTxExecutor) bulkAppend(ctx context.Context, appendFn appendPointsFn) {
	logger := logging.FromContext(ctx)

	tx.mtx.Lock()
	tmpBuf := make([]txItem, len(tx.buf))
	copy(tmpBuf, tx.buf)
	tx.buf = tx.buf[:0]
	tx.mtx.Unlock()

	if err := flushGrouped(context.Background(), tmpBuf, appendFn); err != nil {
		logger.Errorf("txExecutor: append many operation failed: %v", err)
	}
}

func flushGrouped(ctx context.Context, items []txItem, appendFn appendPointsFn) error {
	grouped := map[string][]model.DataPoint{}
	for _, item := range items {
		grouped[item.dataset] = append(grouped[item.dataset], item.point)
	}
	for dataset, points := range grouped {
		if err := appendFn(ctx, dataset, points); err != nil {
			return err
		}
	}
	return nil
}

// flusher periodically drains the buffer until the context closes, then
// reports the final flush to the shutdown channel.
func (tx *dbTxExecutor) flusher(ctx context.Context, appendFn appendPointsFn) {
	defer func() {
		tx.shutdownCh <- tx.shutdown(appendFn)
	}()
	ticker := time.NewTicker(tx.opts.dbFlushTime)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			tx.bulkAppend(ctx, appendFn)
		case <-ctx.Done():
			return
		}
	}
}
