package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/encore/internal/adapters/csvio"
	app "github.com/okian/encore/internal/app"
	"github.com/okian/encore/internal/config"
	"github.com/okian/encore/internal/domain/profile"
	"github.com/okian/encore/internal/domain/result"
	"github.com/okian/encore/pkg/logger"
	"github.com/okian/encore/pkg/metrics"
)

// Metrics endpoint timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg); err != nil {
		loggerInstance.Error(ctx, "clustering run failed", logger.Error(err))
		os.Exit(1)
	}
}

// run executes one full pipeline pass: read, cluster, write.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		stopMetrics := serveMetrics(ctx, cfg.MetricsAddr)
		defer stopMetrics()
	}

	ds, err := csvio.NewReader(csvio.WithNameColumn(cfg.NameColumn)).ReadFile(cfg.Input)
	if err != nil {
		return err
	}
	log.Info(ctx, "dataset loaded",
		logger.String("input", cfg.Input),
		logger.Int("records", len(ds.Records)),
		logger.Int("columns", len(ds.Columns)),
	)

	svc := app.New(registry,
		app.WithLogger(log),
		app.WithMode(cfg.Mode),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithSolveTimeout(time.Duration(cfg.SolveTimeoutMS)*time.Millisecond),
		app.WithMinClusterSize(cfg.MinClusterSize),
		app.WithMinReady(cfg.MinReady),
	)

	sum, err := svc.Run(ctx, ds.Records)
	if err != nil {
		return err
	}

	if err := csvio.NewWriter(result.New(registry)).WriteFile(cfg.Output, ds); err != nil {
		return err
	}

	for cluster, count := range sum.ClusterCounts {
		log.Info(ctx, "cluster size",
			logger.String("cluster", cluster),
			logger.Int("records", count),
		)
	}
	log.Info(ctx, "results written",
		logger.String("output", cfg.Output),
		logger.String("runID", sum.RunID),
		logger.Any("duration", sum.Duration),
	)

	return nil
}

// buildRegistry converts configured profiles into a validated registry.
func buildRegistry(cfg *config.Config) (*profile.Registry, error) {
	profiles := make([]profile.Profile, len(cfg.Profiles))
	for i, pc := range cfg.Profiles {
		profiles[i] = profile.Profile{
			Name:    pc.Name,
			Ideal:   pc.Ideal,
			Penalty: pc.Penalty,
		}
	}

	// The weight table belongs to the single-profile split variant; the
	// multi-profile distance is unweighted.
	var opts []profile.Option
	if cfg.Mode == config.ModeSplit && len(cfg.FeatureWeights) > 0 {
		opts = append(opts, profile.WithFeatureWeights(cfg.FeatureWeights))
	}

	return profile.NewRegistry(profiles, opts...)
}

// serveMetrics exposes /metrics while the run is active. The returned
// function blocks until the listener has shut down.
func serveMetrics(ctx context.Context, addr string) func() {
	log := logger.Get()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "serving metrics", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "metrics server failed", logger.Error(err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error(ctx, "metrics server shutdown failed", logger.Error(err))
		}
	}
}
