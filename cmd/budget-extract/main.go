package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/joseph-ayodele/budget-extractor/constants"
	"github.com/joseph-ayodele/budget-extractor/internal/common"
	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/joseph-ayodele/budget-extractor/internal/export"
	"github.com/joseph-ayodele/budget-extractor/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		format = flag.String("format", "", "layout hint: table, list, mixed or unknown (skips classification)")
		xlsx   = flag.String("xlsx", "", "also write the line items to this XLSX file")
		noOCR  = flag.Bool("no-ocr", false, "disable OCR for scanned documents")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		printError("usage: budget-extract [-format table|list|mixed] [-xlsx out.xlsx] <document>\n")
		os.Exit(2)
	}
	var hint constants.Format
	if *format != "" {
		f, ok := constants.ParseFormat(*format)
		if !ok {
			printError("Error: unknown -format %q\n", *format)
			os.Exit(2)
		}
		hint = f
	}

	if err := common.LoadDotEnv(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	cfg := common.LoadConfig()
	if *noOCR {
		cfg.OCR.Enabled = false
	}
	logger := common.NewLogger(cfg.Log, os.Stderr)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	proc, err := pipeline.FromConfig(cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	res, err := proc.Process(ctx, flag.Arg(0), pipeline.Options{FormatHint: hint})
	if err != nil {
		logger.Error("extraction failed", "path", flag.Arg(0), "error", err)
		os.Exit(1)
	}

	out, err := export.MarshalResult(res)
	if err != nil {
		logger.Error("failed to render result", "error", err)
		os.Exit(1)
	}
	if _, err := os.Stdout.Write(append(out, '\n')); err != nil {
		os.Exit(1)
	}

	if *xlsx != "" {
		data, err := export.NewService(logger).ExportXLSX([]*entity.ExtractionResult{res})
		if err != nil {
			logger.Error("failed to export xlsx", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*xlsx, data, 0o644); err != nil {
			logger.Error("failed to write xlsx", "path", *xlsx, "error", err)
			os.Exit(1)
		}
	}
}
