package index

import (
	"time"
)

type Config struct {
	// Delay between rebuild passes over dirty datasets
	RebuildTime time.Duration `envconfig:"RANGEQ_INDEX_REBUILD_TIME" default:"2s"`
	// Maximum number of points stored per dataset, 0 disables the cap
	MaxItemsStored int `envconfig:"RANGEQ_INDEX_MAX_ITEMS_STORED" default:"1000000"`
	// Timer for the storage cleanup pass
	CleanupTime time.Duration `envconfig:"RANGEQ_INDEX_CLEANUP_TIME" default:"60s"`
	// Critical buffer size in the tx executor at which data is flushed to disk
	DbFlushSize int `envconfig:"RANGEQ_DB_FLUSH_SIZE" default:"64"`
	// Critical lifetime of the tx executor buffer at which data is flushed to disk
	DbFlushTime time.Duration `envconfig:"RANGEQ_DB_FLUSH_TIME" default:"5s"`
	// Number of datasets loaded and built concurrently at boot
	BootConcurrency int `envconfig:"RANGEQ_INDEX_BOOT_CONCURRENCY" default:"4"`
}
