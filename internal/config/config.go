package rangeq

import (
	"rangeq/internal/cache"
	"rangeq/internal/database"
	"rangeq/internal/index"
	"rangeq/internal/ingest"
	"rangeq/internal/query"
	"rangeq/internal/setup"
)

var (
	_ setup.DatabaseConfigProvider = (*Config)(nil)
	_ setup.CacheConfigProvider    = (*Config)(nil)
	_ setup.IndexConfigProvider    = (*Config)(nil)
	_ setup.SeedConfigProvider     = (*Config)(nil)
)

type Config struct {
	SrvAddr  string `envconfig:"RANGEQ_ADDR" default:":8787"`
	GRPCAddr string `envconfig:"RANGEQ_GRPC_ADDR"`
	MaxConns int    `envconfig:"RANGEQ_MAX_CONNS" default:"512"`
	Seed     string `envconfig:"RANGEQ_SEED_FILE"`
	Index    index.Config
	Ingest   ingest.Config
	Query    query.Config
	Database database.Config
	Cache    cache.Config
}

func (c Config) DatabaseConfig() *database.Config {
	return &c.Database
}

func (c Config) CacheConfig() *cache.Config {
	return &c.Cache
}

func (c Config) IndexConfig() *index.Config {
	return &c.Index
}

func (c Config) SeedFile() string {
	return c.Seed
}
