package index

import (
	"context"
	"fmt"
	"sort"
	"time"

	"rangeq/internal/logging"
)

type dbSchedulerConfig struct {
	maxItemsStored int
	cleanupTime    time.Duration
}

func newDBScheduler(config dbSchedulerConfig) *dbScheduler {
	return &dbScheduler{opts: config}
}

// dbScheduler keeps the number of stored points per dataset within the
// configured cap by deleting the oldest points.
type dbScheduler struct {
	opts dbSchedulerConfig
}

// processOverSizePoints fetches the points of one dataset, sorts them by
// insertion time and bulk-deletes the oldest surplus.
func (s *dbScheduler) processOverSizePoints(
	dataset string,
	fetchFn fetchPointsByNameFn,
	deleteFn deletePointsFn,
) error {
	points, err := fetchFn(dataset, nil)
	if err != nil {
		return fmt.Errorf("unable find points by dataset %s: %v", dataset, err)
	}
	if len(points) <= s.opts.maxItemsStored {
		return nil
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].CreatedAt.UnixNano() < points[j].CreatedAt.UnixNano()
	})

	if err := deleteFn(context.Background(), dataset, points[:len(points)-s.opts.maxItemsStored]); err != nil {
		return fmt.Errorf("unable delete resizable points of dataset %s: %v", dataset, err)
	}
	return nil
}

// rebuildSize walks all dataset keys and trims every dataset over the cap.
func (s *dbScheduler) rebuildSize(
	keysFn fetchKeysFn,
	countFn countByNameFn,
	fetchFn fetchPointsByNameFn,
	deleteFn deletePointsFn,
) error {
	keys, err := keysFn()
	if err != nil {
		return fmt.Errorf("unable fetch keys: %v", err)
	}
	for i := range keys {
		length, err := countFn(keys[i])
		if err != nil {
			return fmt.Errorf("unable count by dataset %s: %v", keys[i], err)
		}
		if length > s.opts.maxItemsStored {
			if err := s.processOverSizePoints(keys[i], fetchFn, deleteFn); err != nil {
				return fmt.Errorf("unable process points: %v", err)
			}
		}
	}

	return nil
}

func (s *dbScheduler) schedule(
	ctx context.Context,
	keysFn fetchKeysFn,
	countFn countByNameFn,
	fetchFn fetchPointsByNameFn,
	deleteFn deletePointsFn,
) {
	logger := logging.FromContext(ctx)
	ticker := time.NewTicker(s.opts.cleanupTime)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if s.opts.maxItemsStored > 0 {
				if err := s.rebuildSize(keysFn, countFn, fetchFn, deleteFn); err != nil {
					logger.Errorf("unable db rebuild size: %v", err)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}
