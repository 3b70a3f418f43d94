// Package cache is a best-effort redis cache for query results. NewFromEnv
// fails when a configured server does not answer a ping; after that every
// failure is a miss and queries do not depend on the cache being up.
package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"rangeq/internal/geom"
	"rangeq/internal/logging"
	"rangeq/internal/util"
)

const keyPrefix = "rangeq:query:"

func NewFromEnv(ctx context.Context, cfg *Config) (*Cache, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}
	return &Cache{client: client, cfg: cfg}, nil
}

type Cache struct {
	client *redis.Client
	cfg    *Config
}

func (c *Cache) key(dataset string, gen int64, from, to geom.Point) string {
	sum := util.HashVectors(from, to)
	return fmt.Sprintf("%s%s:%d:%s", keyPrefix, dataset, gen, hex.EncodeToString(sum[:]))
}

func (c *Cache) genKey(dataset string) string {
	return keyPrefix + "gen:" + dataset
}

func (c *Cache) generation(ctx context.Context, dataset string) int64 {
	gen, err := c.client.Get(ctx, c.genKey(dataset)).Int64()
	if err != nil {
		return 0
	}
	return gen
}

// Get returns the cached result of the box query, or ok == false on a miss.
func (c *Cache) Get(ctx context.Context, dataset string, from, to geom.Point) ([]geom.Point, bool) {
	if c == nil {
		return nil, false
	}
	logger := logging.FromContext(ctx)
	data, err := c.client.Get(ctx, c.key(dataset, c.generation(ctx, dataset), from, to)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Debugf("cache: get error: %v", err)
		}
		return nil, false
	}
	var vecs [][]float64
	if err := json.Unmarshal(data, &vecs); err != nil {
		logger.Debugf("cache: corrupted entry: %v", err)
		return nil, false
	}
	points := make([]geom.Point, len(vecs))
	for i := range vecs {
		points[i] = geom.NewPoint(vecs[i])
	}
	return points, true
}

// Put stores the result of the box query.
func (c *Cache) Put(ctx context.Context, dataset string, from, to geom.Point, points []geom.Point) {
	if c == nil {
		return
	}
	logger := logging.FromContext(ctx)
	vecs := make([][]float64, len(points))
	for i := range points {
		vecs[i] = points[i]
	}
	data, err := json.Marshal(vecs)
	if err != nil {
		logger.Debugf("cache: marshal error: %v", err)
		return
	}
	key := c.key(dataset, c.generation(ctx, dataset), from, to)
	if err := c.client.Set(ctx, key, data, c.cfg.TTL).Err(); err != nil {
		logger.Debugf("cache: set error: %v", err)
	}
}

// Invalidate drops every cached result of the dataset by bumping its
// generation counter; stale entries expire by TTL.
func (c *Cache) Invalidate(ctx context.Context, dataset string) {
	if c == nil {
		return
	}
	if err := c.client.Incr(ctx, c.genKey(dataset)).Err(); err != nil {
		logging.FromContext(ctx).Debugf("cache: invalidate error: %v", err)
	}
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
