// Package pipeline runs a budget document through loading, OCR, classification, extraction,
// normalization and totals detection.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/budget-extractor/constants"
	"github.com/joseph-ayodele/budget-extractor/internal/common"
	"github.com/joseph-ayodele/budget-extractor/internal/document"
	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/joseph-ayodele/budget-extractor/internal/extract"
	"github.com/joseph-ayodele/budget-extractor/internal/layout"
	"github.com/joseph-ayodele/budget-extractor/internal/metrics"
	"github.com/joseph-ayodele/budget-extractor/internal/normalize"
	"github.com/joseph-ayodele/budget-extractor/internal/ocr"
	"github.com/joseph-ayodele/budget-extractor/internal/totals"
)

// Options are per-document processing options.
type Options struct {
	// FormatHint skips classification when set to a known format.
	FormatHint constants.Format
}

// Config holds thresholds and behavior flags for the processor.
type Config struct {
	OCREnabled    bool
	LowConfidence float64 // OCR confidence (0-100) below which a warning is added, default 60
	WorkDir       string  // temp files for byte buffers, default os.TempDir()
}

// Stages are the collaborators of a Processor. Nil stages get defaults, except OCR: without an
// engine scanned documents are processed from whatever text they carry.
type Stages struct {
	Loader     *document.Loader
	Imager     PageImager
	OCR        *ocr.Engine
	Classifier *layout.Classifier
	Extractor  *extract.Extractor
	Normalizer *normalize.Normalizer
	Totals     *totals.Extractor
}

// Processor coordinates the stages for one document at a time. It holds no per-document state
// and is safe for concurrent use.
type Processor struct {
	cfg    Config
	st     Stages
	logger *slog.Logger
}

func NewProcessor(cfg Config, st Stages, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.LowConfidence <= 0 {
		cfg.LowConfidence = 60
	}
	if st.Loader == nil {
		st.Loader = document.NewLoader(document.Config{}, nil, logger)
	}
	if st.Classifier == nil {
		st.Classifier = layout.NewClassifier(layout.Config{}, nil, logger)
	}
	if st.Extractor == nil {
		st.Extractor = extract.NewExtractor(nil, logger)
	}
	if st.Normalizer == nil {
		st.Normalizer = normalize.New(nil, logger)
	}
	if st.Totals == nil {
		st.Totals = totals.New(nil, logger)
	}
	return &Processor{cfg: cfg, st: st, logger: logger}
}

// Process runs the pipeline on the file at path. Only loading errors are returned; everything
// after loading degrades into warnings on the result.
func (p *Processor) Process(ctx context.Context, path string, opts Options) (*entity.ExtractionResult, error) {
	start := time.Now()
	doc, err := p.st.Loader.Load(ctx, path)
	metrics.ObserveStage("load", time.Since(start))
	if err != nil {
		p.logger.Error("pipeline.load.failed", "path", path, "error", err)
		metrics.CaptureDocument(string(constants.FormatUnknown), "error", 0, 0)
		return nil, err
	}
	return p.run(ctx, doc, opts, start), nil
}

// ProcessBytes runs the pipeline on an in-memory document. name supplies the extension.
func (p *Processor) ProcessBytes(ctx context.Context, name string, data []byte, opts Options) (*entity.ExtractionResult, error) {
	start := time.Now()
	doc, err := p.st.Loader.LoadBytes(ctx, name, data)
	metrics.ObserveStage("load", time.Since(start))
	if err != nil {
		p.logger.Error("pipeline.load.failed", "name", name, "error", err)
		metrics.CaptureDocument(string(constants.FormatUnknown), "error", 0, 0)
		return nil, err
	}
	if doc.IsScanned && p.wantsImages(doc) {
		// the rasterizer works on files
		path, cleanup, err := p.spill(name, data)
		if err != nil {
			return nil, common.WrapError(err, "spill "+name)
		}
		defer cleanup()
		copied := *doc
		copied.Path = path
		doc = &copied
	}
	return p.run(ctx, doc, opts, start), nil
}

func (p *Processor) wantsImages(doc *entity.Document) bool {
	return p.cfg.OCREnabled && p.st.OCR != nil && (doc.Kind == constants.SourcePDF || doc.Kind == constants.SourceImage)
}

func (p *Processor) spill(name string, data []byte) (string, func(), error) {
	f, err := os.CreateTemp(p.cfg.WorkDir, "budget-*"+filepath.Ext(name))
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.Remove(f.Name()) }
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return f.Name(), cleanup, nil
}

func (p *Processor) run(ctx context.Context, doc *entity.Document, opts Options, start time.Time) *entity.ExtractionResult {
	warnings := append([]string(nil), doc.Warnings...)
	summary := entity.DocumentSummary{
		ID:          doc.ID,
		Name:        doc.Name,
		Kind:        doc.Kind,
		ContentHash: fmt.Sprintf("%x", doc.ContentHash),
		Pages:       doc.PageCount(),
		Scanned:     doc.IsScanned,
		Metadata:    doc.Metadata,
	}

	var pageLayout *entity.PageLayout
	if doc.IsScanned {
		metrics.IncrementScanned()
		ocrStart := time.Now()
		rec := p.recognize(ctx, doc)
		metrics.ObserveStage("ocr", time.Since(ocrStart))
		warnings = append(warnings, rec.Warnings...)
		if rec.Pages != nil {
			if native := doc.PageCount(); len(rec.Pages) < native {
				warnings = append(warnings, fmt.Sprintf("OCR limited to %d of %d pages", len(rec.Pages), native))
			}
			doc = doc.MergePages(rec.Pages)
			summary.Pages = doc.PageCount()
		}
		summary.OCRConfidence = rec.Confidence
		summary.OCRPatterns = rec.Patterns
		pageLayout = rec.Layout
	}

	res := p.extract(doc.Text(), pageLayout, opts)
	res.Document = summary
	res.Warnings = append(warnings, res.Warnings...)
	if res.Warnings == nil {
		res.Warnings = []string{}
	}
	res.Duration = time.Since(start)

	metrics.ObserveStage("total", res.Duration)
	metrics.CaptureDocument(string(res.Format), "ok", len(res.Items), len(res.Warnings))
	p.logger.Info("pipeline.process.ok",
		"request_id", common.RequestIDFromContext(ctx),
		"budget_id", common.BudgetIDFromContext(ctx),
		"name", doc.Name,
		"format", res.Format,
		"confidence", res.Confidence,
		"strategy", res.Strategy,
		"items", len(res.Items),
		"warnings", len(res.Warnings),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res
}
