package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"

	"rangeq/internal/cache"
	"rangeq/internal/database"
	datasetDb "rangeq/internal/dataset/database"
	"rangeq/internal/dataset/model"
	"rangeq/internal/geom"
	"rangeq/internal/index"
	"rangeq/internal/logging"
	"rangeq/internal/srvenv"
)

type DatabaseConfigProvider interface {
	DatabaseConfig() *database.Config
}

type CacheConfigProvider interface {
	CacheConfig() *cache.Config
}

type IndexConfigProvider interface {
	IndexConfig() *index.Config
}

type SeedConfigProvider interface {
	SeedFile() string
}

// Setup processes the environment configuration and assembles the service
// environment: storage, optional cache, optional TOML seed, index provider.
func Setup(ctx context.Context, config interface{}) (*srvenv.SrvEnv, error) {
	logger := logging.FromContext(ctx)
	var serverEnvOpts []srvenv.Option
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	var (
		db         *database.DB
		queryCache *cache.Cache
	)
	if dbConfigProvider, ok := config.(DatabaseConfigProvider); ok {
		logger.Info("Configuring db")
		dbFromEnv, err := database.NewFromEnv(ctx, dbConfigProvider.DatabaseConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to connect to database: %v", err)
		}
		db = dbFromEnv
		serverEnvOpts = append(serverEnvOpts, srvenv.WithDatabase(db))
	}

	if cacheConfigProvider, ok := config.(CacheConfigProvider); ok {
		logger.Info("Configuring cache")
		cacheFromEnv, err := cache.NewFromEnv(ctx, cacheConfigProvider.CacheConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to connect to cache: %v", err)
		}
		queryCache = cacheFromEnv
		serverEnvOpts = append(serverEnvOpts, srvenv.WithCache(queryCache))
	}

	if seedConfigProvider, ok := config.(SeedConfigProvider); ok && seedConfigProvider.SeedFile() != "" && db != nil {
		logger.Infof("Seeding datasets from %s", seedConfigProvider.SeedFile())
		if err := loadSeed(ctx, db, seedConfigProvider.SeedFile()); err != nil {
			return nil, fmt.Errorf("unable to seed datasets: %v", err)
		}
	}

	if indexConfigProvider, ok := config.(IndexConfigProvider); ok {
		logger.Info("Configuring indexer")
		provideFn, err := ProvideIndexerFor(indexConfigProvider.IndexConfig(), db, queryCache)
		if err != nil {
			return nil, fmt.Errorf("unable create indexer provide function: %v", err)
		}
		serverEnvOpts = append(serverEnvOpts, srvenv.WithIndexer(provideFn))
	}

	return srvenv.New(serverEnvOpts...), nil
}

func ProvideIndexerFor(cfg *index.Config, db *database.DB, queryCache *cache.Cache) (index.ProvideFn, error) {
	if db == nil {
		return nil, fmt.Errorf("database instance is not created")
	}
	return func(shutdownCh chan<- error) (index.Manager, error) {
		return index.New(
			db,
			queryCache,
			shutdownCh,
			index.WithRebuildTime(cfg.RebuildTime),
			index.WithMaxItemsStored(cfg.MaxItemsStored),
			index.WithCleanupTime(cfg.CleanupTime),
			index.WithDBFlushSize(cfg.DbFlushSize),
			index.WithDBFlushTime(cfg.DbFlushTime),
			index.WithBootConcurrency(cfg.BootConcurrency),
		)
	}, nil
}

type seedFile struct {
	Datasets []struct {
		Name   string      `toml:"name"`
		Points [][]float64 `toml:"points"`
	} `toml:"datasets"`
}

// loadSeed stores the datasets of a TOML seed file, skipping datasets that
// already have points persisted.
func loadSeed(ctx context.Context, db *database.DB, path string) error {
	var seed seedFile
	if _, err := toml.DecodeFile(path, &seed); err != nil {
		return fmt.Errorf("unable decode seed file: %w", err)
	}

	store := datasetDb.New(db)
	for _, ds := range seed.Datasets {
		if ds.Name == "" || len(ds.Points) == 0 {
			return fmt.Errorf("seed dataset must have a name and points")
		}
		count, err := store.CountByName(ds.Name)
		if err != nil {
			return fmt.Errorf("unable count dataset %s: %w", ds.Name, err)
		}
		if count > 0 {
			continue
		}
		points := make([]model.DataPoint, len(ds.Points))
		for i := range ds.Points {
			points[i] = model.NewDataPoint(geom.NewPoint(ds.Points[i]), time.Now())
		}
		if err := store.AppendMany(ctx, ds.Name, points); err != nil {
			return fmt.Errorf("unable store seed dataset %s: %w", ds.Name, err)
		}
	}
	return nil
}
