package ocr

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/disintegration/imaging"

	"github.com/joseph-ayodele/budget-extractor/internal/runner"
)

type RasterConfig struct {
	Binary   string // binary name or absolute path; if empty -> "pdftoppm"
	DPI      int    // default 300
	MaxPages int    // 0 = no limit
	WorkDir  string
}

// PdftoppmRasterizer renders PDF pages to images with pdftoppm.
type PdftoppmRasterizer struct {
	cfg    RasterConfig
	runner runner.Runner
	logger *slog.Logger
}

func NewPdftoppmRasterizer(cfg RasterConfig, r runner.Runner, logger *slog.Logger) *PdftoppmRasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Binary == "" {
		cfg.Binary = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if r == nil {
		r = runner.NewExecRunner(logger)
	}
	return &PdftoppmRasterizer{cfg: cfg, runner: r, logger: logger}
}

// Rasterize renders every page (up to MaxPages) and decodes them into memory.
// A page that fails to decode is returned with Err set.
func (p *PdftoppmRasterizer) Rasterize(ctx context.Context, pdfPath string) ([]PageImage, error) {
	tmpDir, err := os.MkdirTemp(p.cfg.WorkDir, "budget-pp-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			p.logger.Warn("ocr.rasterize.cleanup_failed", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png [-l N] <in.pdf> <tmp/page>
	args := []string{"-r", strconv.Itoa(p.cfg.DPI), "-png"}
	if p.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(p.cfg.MaxPages))
	}
	args = append(args, pdfPath, prefix)
	if _, errb, err := p.runner.Run(ctx, p.cfg.Binary, args...); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, runner.Truncate(string(errb), 512))
	}

	// pdftoppm zero-pads page numbers, so lexical order is page order
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if p.cfg.MaxPages > 0 && len(matches) > p.cfg.MaxPages {
		matches = matches[:p.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no images")
	}

	pages := make([]PageImage, 0, len(matches))
	for i, m := range matches {
		img, err := LoadImage(m)
		pages = append(pages, PageImage{Page: i + 1, Image: img, Err: err})
	}
	return pages, nil
}

// LoadImage decodes an image file, honoring EXIF orientation.
func LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
