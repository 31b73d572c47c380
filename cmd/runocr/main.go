package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/budget-extractor/constants"
	"github.com/joseph-ayodele/budget-extractor/internal/common"
	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/joseph-ayodele/budget-extractor/internal/pipeline"
	"github.com/joseph-ayodele/budget-extractor/internal/runner"
)

// runocr renders and recognizes a PDF or image and prints the reconstructed lines per page.
func main() {
	_ = common.LoadDotEnv()
	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.Log, os.Stderr)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runocr <pdf-or-image>")
		os.Exit(2)
	}
	path := os.Args[1]
	kind, ok := constants.KindForExt(filepath.Ext(path))
	if !ok || (kind != constants.SourcePDF && kind != constants.SourceImage) {
		logger.Error("unsupported file (want PDF or image)", "path", path)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	engine, imager, err := pipeline.NewOCRStages(cfg.OCR, runner.NewExecRunner(logger), logger)
	if err != nil {
		logger.Error("build ocr", "error", err)
		os.Exit(1)
	}

	start := time.Now()
	images, err := imager.Images(ctx, &entity.Document{Path: path, Kind: kind, Name: filepath.Base(path)})
	if err != nil {
		logger.Error("render pages", "error", err)
		os.Exit(1)
	}
	results := engine.RecognizeBatch(ctx, images)

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
			fmt.Printf("== page %d FAILED: %s\n", r.Page, r.Err)
			continue
		}
		fmt.Printf("== page %d (confidence %.1f, %d lines, %d table rows)\n", r.Page, r.Confidence, len(r.Lines), len(r.Table))
		fmt.Println(r.Text)
	}

	logger.Info("ocr complete",
		"pages", len(results),
		"failed", failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if failed == len(results) {
		os.Exit(1)
	}
}
