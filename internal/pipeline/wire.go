package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/budget-extractor/internal/common"
	"github.com/joseph-ayodele/budget-extractor/internal/document"
	"github.com/joseph-ayodele/budget-extractor/internal/extract"
	"github.com/joseph-ayodele/budget-extractor/internal/layout"
	"github.com/joseph-ayodele/budget-extractor/internal/locale"
	"github.com/joseph-ayodele/budget-extractor/internal/normalize"
	"github.com/joseph-ayodele/budget-extractor/internal/ocr"
	"github.com/joseph-ayodele/budget-extractor/internal/runner"
	"github.com/joseph-ayodele/budget-extractor/internal/totals"
)

// FromConfig builds a Processor with every stage configured from cfg. The OCR stages are only
// wired when OCR is enabled.
func FromConfig(cfg *common.Config, logger *slog.Logger) (*Processor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := locale.LoadOrDefault(cfg.LocaleFile)
	if err != nil {
		return nil, common.NewAppError(common.CodeConfig, "load locale", err)
	}
	r := runner.NewExecRunner(logger)

	st := Stages{
		Loader: document.NewLoader(document.Config{
			MaxFileBytes:     cfg.Loader.MaxFileBytes,
			ScannedThreshold: cfg.Loader.ScannedThreshold,
			TextEngine:       cfg.Loader.PDFTextEngine,
			Pdftotext:        cfg.Loader.Pdftotext,
		}, r, logger),
		Classifier: layout.NewClassifier(layout.Config{UnknownBelow: cfg.Classifier.UnknownBelow}, loc, logger),
		Extractor:  extract.NewExtractor(loc, logger),
		Normalizer: normalize.New(loc, logger),
		Totals:     totals.New(loc, logger),
	}

	if cfg.OCR.Enabled {
		st.OCR, st.Imager, err = NewOCRStages(cfg.OCR, r, logger)
		if err != nil {
			return nil, err
		}
	}

	return NewProcessor(Config{
		OCREnabled:    cfg.OCR.Enabled,
		LowConfidence: cfg.OCR.LowConfidence,
		WorkDir:       cfg.OCR.WorkDir,
	}, st, logger), nil
}

// NewOCRStages builds the recognition engine and the page imager that feeds it.
func NewOCRStages(cfg common.OCRConfig, r runner.Runner, logger *slog.Logger) (*ocr.Engine, *FileImager, error) {
	rec, err := ocr.NewRecognizer(cfg.Backend, ocr.TesseractConfig{
		Binary:      cfg.Tesseract,
		Lang:        cfg.Lang,
		TessdataDir: cfg.TessdataDir,
		PSM:         cfg.PSM,
		OEM:         cfg.OEM,
		WorkDir:     cfg.WorkDir,
	}, r, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("ocr recognizer: %w", err)
	}
	engine := ocr.NewEngine(ocr.Config{
		Workers:        cfg.Workers,
		Retries:        cfg.Retries,
		SkipPreprocess: !cfg.Preprocess,
	}, rec, logger)
	imager := NewFileImager(ocr.NewPdftoppmRasterizer(ocr.RasterConfig{
		Binary:   cfg.Pdftoppm,
		DPI:      cfg.DPI,
		MaxPages: cfg.MaxPages,
		WorkDir:  cfg.WorkDir,
	}, r, logger))
	return engine, imager, nil
}
