package ocr

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/budget-extractor/internal/runner"
)

const (
	BackendTesseract = "tesseract"
	BackendGosseract = "gosseract"
)

// NewRecognizer builds the named backend. The gosseract backend needs the `gosseract` build tag.
func NewRecognizer(backend string, cfg TesseractConfig, r runner.Runner, logger *slog.Logger) (Recognizer, error) {
	switch backend {
	case "", BackendTesseract:
		return NewTesseractRecognizer(cfg, r, logger), nil
	case BackendGosseract:
		return newGosseract(cfg)
	default:
		return nil, fmt.Errorf("unknown ocr backend %q", backend)
	}
}
