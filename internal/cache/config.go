package cache

import "time"

type Config struct {
	// Addr is empty when the cache is disabled
	Addr     string        `envconfig:"RANGEQ_CACHE_ADDR"`
	Password string        `envconfig:"RANGEQ_CACHE_PASSWORD"`
	TTL      time.Duration `envconfig:"RANGEQ_CACHE_TTL" default:"60s"`
}
