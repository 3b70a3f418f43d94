package ingest

import (
	"time"
)

type Config struct {
	RequestTimeout time.Duration `envconfig:"RANGEQ_INGEST_REQUEST_TIMEOUT" default:"60s"`
}
