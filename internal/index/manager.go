package index

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"rangeq/internal/cache"
	"rangeq/internal/database"
	datasetDb "rangeq/internal/dataset/database"
	"rangeq/internal/dataset/model"
	"rangeq/internal/geom"
	"rangeq/internal/logging"
	"rangeq/internal/telemetry"
	"rangeq/pkg/container/rangetree"
	"rangeq/pkg/iqueue"
	"rangeq/pkg/rworker"
)

type Options struct {
	rebuildTime     time.Duration
	maxItemsStored  int
	cleanupTime     time.Duration
	dbFlushSize     int
	dbFlushTime     time.Duration
	bootConcurrency int
	deps            pullDependencies
}

type Option func(*manager)

func WithRebuildTime(t time.Duration) Option {
	return func(m *manager) {
		m.opts.rebuildTime = t
	}
}

func WithMaxItemsStored(n int) Option {
	return func(m *manager) {
		m.opts.maxItemsStored = n
	}
}

func WithCleanupTime(t time.Duration) Option {
	return func(m *manager) {
		m.opts.cleanupTime = t
	}
}

func WithDBFlushSize(n int) Option {
	return func(m *manager) {
		m.opts.dbFlushSize = n
	}
}

func WithDBFlushTime(t time.Duration) Option {
	return func(m *manager) {
		m.opts.dbFlushTime = t
	}
}

func WithBootConcurrency(n int) Option {
	return func(m *manager) {
		m.opts.bootConcurrency = n
	}
}

type collectMsg struct {
	dataset string
	point   model.DataPoint
}

// New returns the index manager.
func New(db *database.DB, queryCache *cache.Cache, shutdownCh chan<- error, opts ...Option) (*manager, error) {
	if db == nil {
		return nil, fmt.Errorf("database instance is not created")
	}

	m := &manager{
		datasetDB:  datasetDb.New(db),
		cache:      queryCache,
		trees:      map[string]*rangetree.Tree{},
		working:    map[string][]model.DataPoint{},
		dirty:      map[string]bool{},
		queue:      map[string]*iqueue.Queue{},
		collectCh:  make(chan collectMsg, 1),
		shutDownCh: shutdownCh,
	}

	for _, f := range opts {
		f(m)
	}

	if m.opts.rebuildTime <= 0 {
		m.opts.rebuildTime = 2 * time.Second
	}
	if m.opts.cleanupTime <= 0 {
		m.opts.cleanupTime = time.Minute
	}
	if m.opts.dbFlushSize <= 0 {
		m.opts.dbFlushSize = 64
	}
	if m.opts.dbFlushTime <= 0 {
		m.opts.dbFlushTime = 5 * time.Second
	}
	if m.opts.bootConcurrency <= 0 {
		m.opts.bootConcurrency = 4
	}

	m.opts.deps = pullDependencies{
		fetchPointsByName: m.datasetDB.FindByName,
		appendPoints:      m.datasetDB.AppendMany,
		deletePoints:      m.datasetDB.DeleteMany,
		fetchKeys:         m.datasetDB.Keys,
		countByName:       m.datasetDB.CountByName,
	}

	m.dbScheduler = newDBScheduler(dbSchedulerConfig{
		maxItemsStored: m.opts.maxItemsStored,
		cleanupTime:    m.opts.cleanupTime,
	})

	m.dbTxExecutor = newDBTxExecutor(
		dbTxExecutorOptions{
			dbFlushSize: m.opts.dbFlushSize,
			dbFlushTime: m.opts.dbFlushTime,
		},
		shutdownCh,
	)

	return m, nil
}

var _ Manager = (*manager)(nil)

// manager owns the range tree of every dataset together with its in-memory
// working set, and coordinates ingest queues, storage flushes and rebuilds.
type manager struct {
	mtx sync.RWMutex

	opts Options

	datasetDB *datasetDb.DB
	cache     *cache.Cache

	dbTxExecutor *dbTxExecutor
	dbScheduler  *dbScheduler

	// current tree snapshot per dataset
	trees map[string]*rangetree.Tree
	// in-memory point set per dataset, append only
	working map[string][]model.DataPoint
	// datasets whose tree lags behind the working set
	dirty map[string]bool
	// ingest queue per dataset
	queue map[string]*iqueue.Queue

	collectCh  chan collectMsg
	shutDownCh chan<- error

	closed bool
	cancel func()
}

// Run starts the ingest pipeline and loads the persisted datasets.
func (m *manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	go m.collector(ctx)
	go m.dbTxExecutor.flusher(ctx, m.opts.deps.appendPoints)
	go m.dbScheduler.schedule(
		ctx,
		m.opts.deps.fetchKeys,
		m.opts.deps.countByName,
		m.opts.deps.fetchPointsByName,
		m.opts.deps.deletePoints,
	)
	go m.rebuilder(ctx)

	if err := m.bulkLoad(ctx); err != nil {
		return fmt.Errorf("can not start index manager: %w", err)
	}

	return nil
}

func (m *manager) Stop() {
	m.mtx.Lock()
	m.closed = true
	m.mtx.Unlock()
	if m.cancel != nil {
		m.cancel()
	}
}

// Collect accepts points of the named dataset for indexing.
func (m *manager) Collect(dataset string, points ...model.DataPoint) error {
	m.mtx.RLock()
	closed := m.closed
	m.mtx.RUnlock()
	if closed {
		return fmt.Errorf("error send to collect, shutting down")
	}

	for i := range points {
		m.collectCh <- collectMsg{dataset: dataset, point: points[i]}
	}
	telemetry.RecordCollect(context.Background(), dataset, len(points))
	return nil
}

// Query reports every point of the dataset inside the closed box [from, to].
func (m *manager) Query(ctx context.Context, dataset string, from, to geom.Point) ([]geom.Point, error) {
	m.mtx.RLock()
	if m.closed {
		m.mtx.RUnlock()
		return nil, fmt.Errorf("error to query, shutting down")
	}
	tree, ok := m.trees[dataset]
	m.mtx.RUnlock()

	if !ok || tree == nil {
		return nil, fmt.Errorf("unknown dataset %q", dataset)
	}

	if points, ok := m.cache.Get(ctx, dataset, from, to); ok {
		return points, nil
	}

	started := time.Now()
	reported, err := tree.Query(from, to)
	if err != nil {
		return nil, fmt.Errorf("query dataset %q: %w", dataset, err)
	}

	points := make([]geom.Point, len(reported))
	for i := range reported {
		points[i] = reported[i].(geom.Point)
	}

	telemetry.RecordQuery(ctx, dataset, time.Since(started), len(points))
	m.cache.Put(ctx, dataset, from, to, points)

	return points, nil
}

// Points returns the in-memory working set of the dataset in stored order.
func (m *manager) Points(dataset string) ([]geom.Point, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	working, ok := m.working[dataset]
	if !ok {
		return nil, fmt.Errorf("unknown dataset %q", dataset)
	}
	points := make([]geom.Point, len(working))
	for i := range working {
		points[i] = working[i].Vec
	}
	return points, nil
}

// Datasets returns the names of all queryable datasets.
func (m *manager) Datasets() []string {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	names := make([]string, 0, len(m.trees))
	for name := range m.trees {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *manager) collector(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			m.mtx.Lock()
			for _, q := range m.queue {
				q.Close()
			}
			m.mtx.Unlock()
			return
		case msg := <-m.collectCh:
			m.ensureQueue(ctx, msg.dataset).Send(msg.point)
		}
	}
}

func (m *manager) ensureQueue(ctx context.Context, dataset string) *iqueue.Queue {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	q, ok := m.queue[dataset]
	if !ok {
		q = iqueue.New()
		m.queue[dataset] = q
		go q.Loop()
		go m.drain(ctx, dataset, q)
	}
	return q
}

// drain moves points from the dataset queue into the working set and the
// write-behind buffer.
func (m *manager) drain(ctx context.Context, dataset string, q *iqueue.Queue) {
	for v := range q.Receive() {
		point := v.(model.DataPoint)
		m.mtx.Lock()
		m.working[dataset] = append(m.working[dataset], point)
		m.dirty[dataset] = true
		m.mtx.Unlock()
		m.dbTxExecutor.append(ctx, dataset, point, m.opts.deps.appendPoints)
	}
}

func (m *manager) rebuilder(ctx context.Context) {
	logger := logging.FromContext(ctx)
	ticker := time.NewTicker(m.opts.rebuildTime)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			for _, dataset := range m.takeDirty() {
				if err := m.rebuild(ctx, dataset); err != nil {
					logger.Errorf("unable rebuild index of %s: %v", dataset, err)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *manager) takeDirty() []string {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	var names []string
	for name, dirty := range m.dirty {
		if dirty {
			names = append(names, name)
			m.dirty[name] = false
		}
	}
	return names
}

// rebuild replaces the dataset tree with one built from the current
// working set. The old tree keeps serving queries until the swap.
func (m *manager) rebuild(ctx context.Context, dataset string) error {
	m.mtx.RLock()
	working := m.working[dataset]
	shared := make([]rangetree.Point, len(working))
	for i := range working {
		shared[i] = working[i].Vec
	}
	m.mtx.RUnlock()

	if len(shared) == 0 {
		return nil
	}

	tree, err := rangetree.New(shared...)
	if err != nil {
		return fmt.Errorf("unable build range tree of %s: %w", dataset, err)
	}

	m.mtx.Lock()
	m.trees[dataset] = tree
	m.mtx.Unlock()

	m.cache.Invalidate(ctx, dataset)
	return nil
}

// bulkLoad loads all persisted datasets and builds their trees, bounded by
// the boot concurrency.
func (m *manager) bulkLoad(ctx context.Context) error {
	keys, err := m.opts.deps.fetchKeys()
	if err != nil {
		return fmt.Errorf("error fetching dataset keys: %w", err)
	}

	var wg sync.WaitGroup
	rate := make(chan struct{}, m.opts.bootConcurrency)
	errCh := make(chan error, 1)
	for _, key := range keys {
		key := key
		rworker.Job(&wg, func() error {
			return m.load(ctx, key)
		}, rate, errCh)
	}
	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

func (m *manager) load(ctx context.Context, dataset string) error {
	points, err := m.opts.deps.fetchPointsByName(dataset, nil)
	if err != nil {
		return fmt.Errorf("error fetching points of %s: %w", dataset, err)
	}

	m.mtx.Lock()
	m.working[dataset] = points
	m.mtx.Unlock()

	return m.rebuild(ctx, dataset)
}
