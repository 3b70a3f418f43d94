package query

import "time"

type Config struct {
	RequestTimeout time.Duration `envconfig:"RANGEQ_QUERY_REQUEST_TIMEOUT" default:"30s"`
	MaxBoxesLen    int           `envconfig:"RANGEQ_QUERY_MAX_BOXES_LEN" default:"32"`
	// AllowVerify permits the per-request verify flag that double-checks
	// tree results against the linear scan
	AllowVerify bool `envconfig:"RANGEQ_QUERY_ALLOW_VERIFY" default:"true"`
}
