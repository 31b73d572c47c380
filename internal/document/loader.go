package document

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/budget-extractor/constants"
	"github.com/joseph-ayodele/budget-extractor/internal/common"
	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/joseph-ayodele/budget-extractor/internal/runner"
)

const (
	EnginePdftotext = "pdftotext"
	EngineNative    = "native"
)

type Config struct {
	MaxFileBytes     int64  // default 50MB
	ScannedThreshold int    // average runes per page below which a document is scanned, default 100
	TextEngine       string // EnginePdftotext (default) or EngineNative
	Pdftotext        string // binary name or absolute path; if empty -> "pdftotext"
}

// Loader opens budget documents and extracts per-page text and metadata.
type Loader struct {
	cfg    Config
	runner runner.Runner
	logger *slog.Logger
}

func NewLoader(cfg Config, r runner.Runner, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = common.DefaultMaxFileBytes
	}
	if cfg.ScannedThreshold <= 0 {
		cfg.ScannedThreshold = 100
	}
	if cfg.TextEngine == "" {
		cfg.TextEngine = EnginePdftotext
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if r == nil {
		r = runner.NewExecRunner(logger)
	}
	return &Loader{cfg: cfg, runner: r, logger: logger}
}

// Load reads the document at path. Missing files fail with common.ErrNotFound and files over
// the size ceiling with common.ErrTooLarge, before any content is read.
func (l *Loader) Load(ctx context.Context, path string) (*entity.Document, error) {
	kind, err := l.Check(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.NewAppError(common.CodeCorrupt, path, fmt.Errorf("%w: %v", common.ErrCorrupt, err))
	}
	return l.build(ctx, path, filepath.Base(path), kind, data)
}

// LoadBytes loads a document held in memory; name supplies the extension.
func (l *Loader) LoadBytes(ctx context.Context, name string, data []byte) (*entity.Document, error) {
	if int64(len(data)) > l.cfg.MaxFileBytes {
		return nil, tooLarge(name, int64(len(data)), l.cfg.MaxFileBytes)
	}
	kind, err := kindOf(name)
	if err != nil {
		return nil, err
	}
	return l.build(ctx, "", filepath.Base(name), kind, data)
}

func (l *Loader) build(ctx context.Context, path, name string, kind constants.SourceKind, data []byte) (*entity.Document, error) {
	start := time.Now()
	sum := sha256.Sum256(data)
	doc := &entity.Document{
		ID:          uuid.New(),
		Path:        path,
		Name:        name,
		Size:        int64(len(data)),
		Kind:        kind,
		ContentHash: sum[:],
		LoadedAt:    start.UTC(),
	}

	var texts []string
	switch kind {
	case constants.SourcePDF:
		pages, warns, err := l.pdfPages(ctx, path, data)
		if err != nil {
			return nil, common.NewAppError(common.CodeCorrupt, name, fmt.Errorf("%w: %v", common.ErrCorrupt, err))
		}
		texts = pages
		doc.Warnings = append(doc.Warnings, warns...)
		info, err := readPDFInfo(data)
		if err != nil {
			l.logger.Warn("document.metadata.failed", "name", name, "error", err)
			doc.Warnings = append(doc.Warnings, "pdf metadata unavailable: "+err.Error())
		} else {
			doc.Metadata = info.Metadata
			doc.HasImages = info.HasImages
		}
	case constants.SourceImage:
		texts = []string{""}
		doc.HasImages = true
	case constants.SourceText:
		if !utf8.Valid(data) {
			return nil, common.NewAppError(common.CodeCorrupt, name+" is not valid UTF-8", common.ErrCorrupt)
		}
		texts = splitPages(string(data))
	case constants.SourceDocx:
		body, meta, err := docxText(data)
		if err != nil {
			return nil, common.NewAppError(common.CodeCorrupt, name, fmt.Errorf("%w: %v", common.ErrCorrupt, err))
		}
		texts = []string{body}
		doc.Metadata = meta
	}

	doc.Pages = make([]entity.Page, 0, len(texts))
	for i, t := range texts {
		doc.Pages = append(doc.Pages, entity.Page{Number: i + 1, Text: CleanText(t)})
	}
	doc.IsScanned = IsScanned(doc.Pages, l.cfg.ScannedThreshold)

	l.logger.Info("document.load.ok",
		"name", name,
		"kind", kind,
		"bytes", doc.Size,
		"pages", len(doc.Pages),
		"scanned", doc.IsScanned,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

// IsScanned reports whether the average rune count per page is below threshold.
// A document without pages counts as scanned.
func IsScanned(pages []entity.Page, threshold int) bool {
	if len(pages) == 0 {
		return true
	}
	total := 0
	for _, p := range pages {
		total += utf8.RuneCountInString(strings.TrimSpace(p.Text))
	}
	avg := float64(total) / float64(len(pages))
	return avg < float64(threshold)
}

// Check applies the rejections that need no file contents: a missing path, a directory, a file
// over MaxFileBytes or an unsupported extension. It returns the source kind.
func (l *Loader) Check(path string) (constants.SourceKind, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", common.NewAppError(common.CodeNotFound, path, common.ErrNotFound)
		}
		return "", common.NewAppError(common.CodeCorrupt, path, fmt.Errorf("%w: %v", common.ErrCorrupt, err))
	}
	if info.IsDir() {
		return "", common.NewAppError(common.CodeUnsupported, path+" is a directory", common.ErrUnsupported)
	}
	if info.Size() > l.cfg.MaxFileBytes {
		return "", tooLarge(path, info.Size(), l.cfg.MaxFileBytes)
	}
	return kindOf(path)
}

// splitPages splits on form feeds, dropping the empty tail a trailing \f produces.
func splitPages(s string) []string {
	parts := strings.Split(s, "\f")
	if len(parts) > 1 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

func kindOf(name string) (constants.SourceKind, error) {
	ext := constants.NormalizeExt(filepath.Ext(name))
	kind, ok := constants.KindForExt(ext)
	if !ok {
		return "", common.NewAppError(common.CodeUnsupported, fmt.Sprintf("extension %q", ext), common.ErrUnsupported)
	}
	return kind, nil
}

func tooLarge(name string, size, max int64) error {
	return common.NewAppError(common.CodeTooLarge, fmt.Sprintf("%s is %d bytes, limit %d", name, size, max), common.ErrTooLarge)
}
