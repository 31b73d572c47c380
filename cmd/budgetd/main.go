package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joseph-ayodele/budget-extractor/internal/async"
	"github.com/joseph-ayodele/budget-extractor/internal/common"
	"github.com/joseph-ayodele/budget-extractor/internal/ingest"
	"github.com/joseph-ayodele/budget-extractor/internal/metrics"
	"github.com/joseph-ayodele/budget-extractor/internal/pipeline"
	repo "github.com/joseph-ayodele/budget-extractor/internal/repository"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const healthInterval = 30 * time.Second

func main() {
	if err := common.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repo.Init(ctx, cfg.Database, false, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer repo.Close(db, logger)
	logger.Info("DB health OK")

	proc, err := pipeline.FromConfig(cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	recorder := pipeline.NewRecorder(proc, repo.NewExtractionRepository(db, logger), logger)
	queue := async.NewProcessorQueue(recorder.Handle, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.JobTimeout),
	)

	// gRPC server: health + reflection for grpcurl
	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("listen", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	go func() {
		logger.Info("gRPC serving", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("grpc serve", "error", err)
			stop()
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	metricsServer := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("metrics serving", "addr", cfg.Server.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics serve", "error", err)
			stop()
		}
	}()

	go watchHealth(ctx, db, hs, logger)

	if err := os.MkdirAll(cfg.Server.InboxDir, 0o755); err != nil {
		logger.Error("create inbox", "dir", cfg.Server.InboxDir, "error", err)
		os.Exit(1)
	}
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{cfg.Server.InboxDir},
		InitialScan: true,
		Debounce:    cfg.Server.Debounce,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("start watcher", "error", err)
		os.Exit(1)
	}
	go func() {
		for err := range errs {
			logger.Warn("watcher error", "error", err)
		}
	}()

	logger.Info("watching inbox", "dir", cfg.Server.InboxDir)
	for path := range events {
		job := async.Job{Path: path, BudgetID: budgetFor(cfg.Server.InboxDir, path)}
		if err := queue.Enqueue(ctx, job); err != nil {
			logger.Warn("enqueue failed", "path", path, "error", err)
		}
	}

	logger.Info("shutting down...")
	hs.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Queue.JobTimeout)
	defer cancel()
	if err := queue.Shutdown(shutdownCtx); err != nil {
		logger.Warn("queue shutdown", "error", err)
	}
	_ = metricsServer.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
	logger.Info("stopped")
}

// budgetFor files documents under the first directory below the inbox, e.g.
// inbox/obra-42/oferta.pdf belongs to budget "obra-42". Top-level files go to "inbox".
func budgetFor(inbox, path string) string {
	rel, err := filepath.Rel(inbox, path)
	if err != nil {
		return "inbox"
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return "inbox"
	}
	return parts[0]
}

func watchHealth(ctx context.Context, db *repo.DB, hs *health.Server, logger *slog.Logger) {
	t := time.NewTicker(healthInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			status := healthpb.HealthCheckResponse_SERVING
			if err := repo.HealthCheck(ctx, db, 3*time.Second, logger); err != nil {
				logger.Warn("DB health failed", "error", err)
				status = healthpb.HealthCheckResponse_NOT_SERVING
			}
			hs.SetServingStatus("", status)
		}
	}
}
