package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/joseph-ayodele/budget-extractor/internal/async"
	"github.com/joseph-ayodele/budget-extractor/internal/common"
	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/joseph-ayodele/budget-extractor/internal/export"
	"github.com/joseph-ayodele/budget-extractor/internal/ingest"
	"github.com/joseph-ayodele/budget-extractor/internal/pipeline"
	repo "github.com/joseph-ayodele/budget-extractor/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		inmem  = flag.Bool("inmem", false, "use in-memory SQLite database")
		dir    = flag.String("dir", "", "directory to process budget documents from (required)")
		out    = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		budget = flag.String("budget", "", "budget id to file results under (defaults to the directory name)")
		format = flag.String("format", "", "layout hint applied to every document")
		force  = flag.Bool("force", false, "re-extract documents already stored")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "budget.xlsx")
	}
	if *budget == "" {
		*budget = filepath.Base(filepath.Clean(*dir))
	}

	if err := common.LoadDotEnv(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.Log, os.Stdout)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := repo.Init(ctx, cfg.Database, *inmem, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer repo.Close(db, logger)

	proc, err := pipeline.FromConfig(cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	paths, stats, err := ingest.ScanDirectory(*dir, true)
	if err != nil {
		logger.Error("failed to scan directory", "error", err)
		os.Exit(1)
	}
	logger.Info("scan complete", "dir", *dir, "scanned", stats.Scanned, "matched", stats.Matched, "failed", stats.Failed)

	var (
		mu       sync.Mutex
		results  []*entity.ExtractionResult
		failures int
	)
	recorder := pipeline.NewRecorder(proc, repo.NewExtractionRepository(db, logger), logger)
	recorder.Force = *force
	recorder.OnResult = func(_ async.Job, res *entity.ExtractionResult) {
		mu.Lock()
		results = append(results, res)
		mu.Unlock()
	}
	queue := async.NewProcessorQueue(func(ctx context.Context, job async.Job) error {
		err := recorder.Handle(ctx, job)
		if err != nil {
			mu.Lock()
			failures++
			mu.Unlock()
		}
		return err
	}, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.JobTimeout),
	)

	start := time.Now()
	for _, p := range paths {
		if err := queue.Enqueue(ctx, async.Job{Path: p, BudgetID: *budget, FormatHint: *format}); err != nil {
			logger.Error("failed to enqueue", "path", p, "error", err)
			break
		}
	}
	if err := queue.Shutdown(ctx); err != nil {
		logger.Warn("queue did not drain", "error", err)
	}

	// workers finish in any order
	sort.Slice(results, func(i, j int) bool { return results[i].Document.Name < results[j].Document.Name })

	logger.Info("exporting to XLSX", "output", *out)
	xlsxBytes, err := export.NewService(logger).ExportXLSX(results)
	if err != nil {
		logger.Error("failed to export budget", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0o644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	items := 0
	for _, r := range results {
		items += len(r.Items)
	}
	logger.Info("batch processing complete",
		"budget_id", *budget,
		"files_matched", len(paths),
		"files_processed", len(results),
		"failures", failures,
		"items", items,
		"elapsed_ms", time.Since(start).Milliseconds(),
		"output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files matched: %d\n", len(paths))
	fmt.Printf("- Files processed: %d\n", len(results))
	fmt.Printf("- Failures: %d\n", failures)
	fmt.Printf("- Line items: %d\n", items)
	fmt.Printf("- Output: %s\n", *out)
}
