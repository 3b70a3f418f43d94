package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"go.opencensus.io/plugin/ochttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"rangeq/internal/buildinfo"
	rangeq "rangeq/internal/config"
	"rangeq/internal/ingest"
	"rangeq/internal/logging"
	"rangeq/internal/query"
	"rangeq/internal/server"
	"rangeq/internal/setup"
	"rangeq/internal/shutdown"
	"rangeq/internal/telemetry"
)

func main() {
	_, _ = fmt.Fprint(os.Stdout, buildinfo.Graffiti)
	_, _ = fmt.Fprintf(
		os.Stdout,
		"%s: %s, %s\n",
		buildinfo.Info.Name(),
		buildinfo.Info.Time(),
		buildinfo.Info.Tag(),
	)

	ctx, done := shutdown.New()
	logger := logging.FromContext(ctx)
	go http.ListenAndServe("0.0.0.0:8080", nil)
	if err := run(ctx, done); err != nil {
		logger.Fatal(err)
	}

	defer done()
}

func run(ctx context.Context, cancel func()) error {
	config := rangeq.Config{}
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	defer env.Close(ctx)

	shutdownCh := make(chan error, 2)
	indexer, err := env.ProvideIndexer()(shutdownCh)
	if err != nil {
		return fmt.Errorf("indexer provider function error: %w", err)
	}
	if err := indexer.Run(ctx); err != nil {
		return fmt.Errorf("indexer.Run: %w", err)
	}

	srv, err := server.New(config.SrvAddr, config.MaxConns)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	exporter, err := telemetry.NewExporter("rangeq")
	if err != nil {
		return fmt.Errorf("telemetry.NewExporter: %w", err)
	}

	mux := http.NewServeMux()

	queryHandler, err := query.NewHandler(&config.Query, indexer)
	if err != nil {
		return fmt.Errorf("query.NewHandler: %w", err)
	}
	ingestHandler, err := ingest.NewHandler(&config.Ingest, indexer)
	if err != nil {
		return fmt.Errorf("ingest.NewHandler: %w", err)
	}

	mux.Handle("/query", queryHandler)
	mux.Handle("/datasets", ingestHandler)
	mux.Handle("/health", server.HandleHealth(ctx))
	mux.Handle("/metrics", exporter)

	if config.GRPCAddr != "" {
		grpcSrv, err := server.New(config.GRPCAddr, 0)
		if err != nil {
			return fmt.Errorf("server.New grpc: %w", err)
		}
		healthSrv := grpc.NewServer()
		healthpb.RegisterHealthServer(healthSrv, health.NewServer())
		go func() {
			if err := grpcSrv.ServeGRPC(ctx, healthSrv); err != nil {
				cancel()
			}
		}()
	}

	go func() {
		if err := srv.ServeHTTPHandler(ctx, &ochttp.Handler{Handler: mux}); err != nil {
			cancel()
		}
	}()

	return <-shutdownCh
}
