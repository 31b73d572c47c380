package ocr

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// RecognizeBatch recognizes pages concurrently, at most Workers at a time. Results are in input
// order; a page that fails carries Err and never cancels its siblings.
func (e *Engine) RecognizeBatch(ctx context.Context, pages []PageImage) []PageResult {
	results := make([]PageResult, len(pages))
	var g errgroup.Group
	g.SetLimit(e.cfg.Workers)
	for i, p := range pages {
		i, p := i, p
		g.Go(func() error {
			results[i] = e.recognizePage(ctx, p)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (e *Engine) recognizePage(ctx context.Context, p PageImage) (res PageResult) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			res = PageResult{Err: fmt.Sprintf("recognizer panic: %v", rec)}
		}
		res.Page = p.Page
		if res.Failed() {
			e.logger.Warn("ocr.page.failed", "page", p.Page, "error", res.Err)
		} else {
			e.logger.Debug("ocr.page.ok",
				"page", p.Page,
				"lines", len(res.Lines),
				"confidence", res.Confidence,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}
	}()
	if p.Err != nil {
		return PageResult{Err: p.Err.Error()}
	}
	res, _ = e.Recognize(ctx, p.Image)
	return res
}

// BatchConfidence averages confidence over pages that succeeded with a positive score.
func BatchConfidence(results []PageResult) float64 {
	var sum float64
	var n int
	for _, r := range results {
		if !r.Failed() && r.Confidence > 0 {
			sum += r.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
