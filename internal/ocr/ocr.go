// Package ocr turns page images into positioned, confidence-scored text lines.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/budget-extractor/internal/entity"
)

// Box is a token bounding box in image pixels.
type Box struct {
	X, Y, W, H int
}

// Token is one recognized word.
type Token struct {
	Text       string
	Confidence float64 // 0..100
	Box        Box
	Line       int // recognizer line index
}

// Line is a reconstructed text line: tokens ordered left to right.
type Line struct {
	Index  int
	Text   string
	Tokens []Token
	Y      int
}

// PageImage is one page ready for recognition. Err is set when the page could not be rendered or decoded.
type PageImage struct {
	Page  int
	Image image.Image
	Err   error
}

// PageResult is the outcome for one page. A failed page has Err set, empty Text and zero Confidence.
type PageResult struct {
	Page       int
	Lines      []Line
	Text       string
	Confidence float64
	Table      []Row
	Layout     entity.PageLayout
	Patterns   entity.BudgetPatterns
	Err        string
}

// Failed reports whether recognition failed for the page.
func (r PageResult) Failed() bool { return r.Err != "" }

// Recognizer is the recognition backend.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) ([]Token, error)
}

type Config struct {
	Workers        int           // batch concurrency, default 4
	Retries        int           // extra attempts after a recognizer error, default 2
	RetryBackoff   time.Duration // linear backoff unit, default 250ms
	SkipPreprocess bool
	RowBucket      int // table detection bucket in px, default 10
}

// Engine runs preprocessing, recognition with bounded retries, and line reconstruction.
type Engine struct {
	cfg    Config
	rec    Recognizer
	pre    *Preprocessor
	logger *slog.Logger
}

func NewEngine(cfg Config, rec Recognizer, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 250 * time.Millisecond
	}
	if cfg.RowBucket <= 0 {
		cfg.RowBucket = 10
	}
	return &Engine{cfg: cfg, rec: rec, pre: NewPreprocessor(logger), logger: logger}
}

// Recognize processes a single page image.
func (e *Engine) Recognize(ctx context.Context, img image.Image) (PageResult, error) {
	if img == nil {
		return PageResult{Err: "nil image"}, errors.New("ocr: nil image")
	}
	prepared := img
	if !e.cfg.SkipPreprocess {
		prepared = e.pre.Apply(img)
	}
	tokens, err := e.recognizeWithRetry(ctx, prepared)
	if err != nil {
		return PageResult{Err: err.Error()}, err
	}
	lines := GroupLines(tokens)
	texts := make([]string, len(lines))
	for i, ln := range lines {
		texts[i] = ln.Text
	}
	text := strings.Join(texts, "\n")
	return PageResult{
		Lines:      lines,
		Text:       text,
		Confidence: MeanConfidence(tokens),
		Table:      DetectTable(tokens, e.cfg.RowBucket),
		Layout:     AnalyzeLayout(tokens),
		Patterns:   ScanBudgetPatterns(text),
	}, nil
}

func (e *Engine) recognizeWithRetry(ctx context.Context, img image.Image) ([]Token, error) {
	var lastErr error
	for attempt := 0; attempt <= e.cfg.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * e.cfg.RetryBackoff):
			}
		}
		tokens, err := e.rec.Recognize(ctx, img)
		if err == nil {
			return tokens, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.logger.Warn("ocr.recognize.retry", "attempt", attempt+1, "max_attempts", e.cfg.Retries+1, "error", err)
	}
	return nil, fmt.Errorf("recognize failed after %d attempts: %w", e.cfg.Retries+1, lastErr)
}

// MeanConfidence averages the confidence of tokens with confidence > 0; zero when there are none.
func MeanConfidence(tokens []Token) float64 {
	var sum float64
	var n int
	for _, t := range tokens {
		if t.Confidence > 0 {
			sum += t.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
