package main

import (
	"context"
	"fmt"
	"math"

	"github.com/sethvargo/go-envconfig"
	"github.com/valyala/fastrand"

	"rangeq/internal/geom"
	"rangeq/internal/logging"
	"rangeq/internal/scan"
	"rangeq/pkg/container/rangetree"
	"rangeq/pkg/stopwatch"
)

type config struct {
	NumPoints  int     `env:"RANGEQ_BENCH_POINTS,default=50000"`
	NumQueries int     `env:"RANGEQ_BENCH_QUERIES,default=25000"`
	Dims       int     `env:"RANGEQ_BENCH_DIMS,default=3"`
	CoordRange float64 `env:"RANGEQ_BENCH_COORD_RANGE,default=1000"`
	DeltaMin   float64 `env:"RANGEQ_BENCH_DELTA_MIN,default=100"`
	DeltaMax   float64 `env:"RANGEQ_BENCH_DELTA_MAX,default=200"`
}

func main() {
	ctx := context.Background()
	logger := logging.FromContext(ctx)

	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		logger.Fatalf("error loading environment variables: %v", err)
	}

	if err := run(ctx, cfg); err != nil {
		logger.Fatal(err)
	}
}

func randFloat(limit float64) float64 {
	return (float64(fastrand.Uint32n(math.MaxUint32))/float64(math.MaxUint32))*2*limit - limit
}

func randDelta(min, max float64) float64 {
	return min + (float64(fastrand.Uint32n(math.MaxUint32))/float64(math.MaxUint32))*(max-min)
}

func run(_ context.Context, cfg config) error {
	sw := stopwatch.New()

	points := make([]geom.Point, cfg.NumPoints)
	for i := range points {
		vec := make([]float64, cfg.Dims)
		for d := range vec {
			vec[d] = randFloat(cfg.CoordRange)
		}
		points[i] = vec
	}

	fmt.Println("Starting the performance test for the trivial and the tree implementation of a range query.")
	fmt.Println()

	shared := make([]rangetree.Point, len(points))
	for i := range points {
		shared[i] = points[i]
	}

	sw.Start()
	tree, err := rangetree.New(shared...)
	if err != nil {
		return fmt.Errorf("unable build range tree: %w", err)
	}
	sw.Stop()

	fmt.Printf("Building the range tree over %d points took %f seconds.\n\n", cfg.NumPoints, sw.Seconds())
	sw.Reset()

	var elapsedTrivial, elapsedTree float64

	for i := 0; i < cfg.NumQueries; i++ {
		from := make(geom.Point, cfg.Dims)
		to := make(geom.Point, cfg.Dims)
		for d := 0; d < cfg.Dims; d++ {
			from[d] = randFloat(cfg.CoordRange)
			to[d] = from[d] + randDelta(cfg.DeltaMin, cfg.DeltaMax)
		}

		sw.Start()
		trivial := scan.Points(points, from, to)
		sw.Stop()
		elapsedTrivial += sw.Seconds()
		sw.Reset()

		sw.Start()
		reported, err := tree.Query(from, to)
		sw.Stop()
		if err != nil {
			return fmt.Errorf("unable query range tree: %w", err)
		}
		elapsedTree += sw.Seconds()
		sw.Reset()

		if len(trivial) != len(reported) {
			return fmt.Errorf(
				"tree and scan diverge on box %v..%v: %d != %d",
				from, to, len(reported), len(trivial),
			)
		}
	}

	fmt.Printf("The trivial implementation of the range query took %f seconds.\n", elapsedTrivial)
	fmt.Printf("The tree implementation of the range query took %f seconds.\n\n", elapsedTree)

	if elapsedTree > 0 {
		fmt.Printf(
			"The tree implementation was roughly %.0f times faster than the trivial implementation.\n\n",
			math.Floor(elapsedTrivial/elapsedTree),
		)
	}

	fmt.Println("Performance test is finished")
	return nil
}
