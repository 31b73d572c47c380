package ocr

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/joseph-ayodele/budget-extractor/internal/runner"
)

type TesseractConfig struct {
	Binary      string // binary name or absolute path; if empty -> "tesseract"
	Lang        string // default "spa+eng"
	TessdataDir string
	PSM         int // e.g., 6 is good for uniform block of text
	OEM         int // 1 = LSTM; leave 0 to use default
	WorkDir     string
}

// TesseractRecognizer shells out to the tesseract binary and parses its TSV output.
type TesseractRecognizer struct {
	cfg    TesseractConfig
	runner runner.Runner
	logger *slog.Logger
}

func NewTesseractRecognizer(cfg TesseractConfig, r runner.Runner, logger *slog.Logger) *TesseractRecognizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "spa+eng"
	}
	if r == nil {
		r = runner.NewExecRunner(logger)
	}
	return &TesseractRecognizer{cfg: cfg, runner: r, logger: logger}
}

func (t *TesseractRecognizer) Recognize(ctx context.Context, img image.Image) ([]Token, error) {
	f, err := os.CreateTemp(t.cfg.WorkDir, "ocr-page-*.png")
	if err != nil {
		return nil, fmt.Errorf("temp image: %w", err)
	}
	path := f.Name()
	_ = f.Close()
	defer os.Remove(path)
	if err := imaging.Save(img, path); err != nil {
		return nil, fmt.Errorf("write page image: %w", err)
	}

	// tesseract <file> stdout -l <lang> [--psm N] [--oem N] [--tessdata-dir D] tsv
	args := []string{path, "stdout", "-l", t.cfg.Lang}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.cfg.PSM))
	}
	if t.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(t.cfg.OEM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	args = append(args, "tsv")

	out, errb, err := t.runner.Run(ctx, t.cfg.Binary, args...)
	if err != nil {
		return nil, fmt.Errorf("tesseract: %w: %s", err, runner.Truncate(string(errb), 512))
	}
	return ParseTSV(string(out))
}

// ParseTSV reads tesseract TSV output and returns the word rows (level 5) with text.
// Line indexes are assigned sequentially per distinct (page, block, paragraph, line).
func ParseTSV(tsv string) ([]Token, error) {
	type lineKey struct{ page, block, par, line int }
	lineIdx := make(map[lineKey]int)
	var tokens []Token

	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || strings.TrimSpace(ln) == "" {
			continue // header
		}
		cols := strings.Split(strings.TrimRight(ln, "\r"), "\t")
		if len(cols) < 12 {
			continue
		}
		nums := make([]int, 10)
		ok := true
		for j := 0; j < 10; j++ {
			n, err := strconv.Atoi(cols[j])
			if err != nil {
				ok = false
				break
			}
			nums[j] = n
		}
		if !ok {
			return nil, fmt.Errorf("tsv line %d: malformed numeric column", i+1)
		}
		if nums[0] != 5 {
			continue
		}
		text := strings.TrimSpace(strings.Join(cols[11:], "\t"))
		if text == "" {
			continue
		}
		conf, err := strconv.ParseFloat(cols[10], 64)
		if err != nil {
			return nil, fmt.Errorf("tsv line %d: conf %q: %w", i+1, cols[10], err)
		}
		key := lineKey{nums[1], nums[2], nums[3], nums[4]}
		idx, seen := lineIdx[key]
		if !seen {
			idx = len(lineIdx)
			lineIdx[key] = idx
		}
		tokens = append(tokens, Token{
			Text:       text,
			Confidence: conf,
			Box:        Box{X: nums[6], Y: nums[7], W: nums[8], H: nums[9]},
			Line:       idx,
		})
	}
	return tokens, nil
}
