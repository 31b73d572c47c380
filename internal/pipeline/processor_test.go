package pipeline

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joseph-ayodele/budget-extractor/constants"
	"github.com/joseph-ayodele/budget-extractor/internal/common"
	"github.com/joseph-ayodele/budget-extractor/internal/document"
	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/joseph-ayodele/budget-extractor/internal/ocr"
	"github.com/shopspring/decimal"
)

const listBudget = `PRESUPUESTO DE OBRA
CAPÍTULO 1 PRELIMINARES
01.02.01 Excavación manual 20 m3 $80.00
01.02.02 Relleno compactado 15 m3 $95.50
01.02.03 Acarreo de material 30 m3 $20.00
CAPÍTULO 2 ESTRUCTURA
02.01.01 Cimbra de madera 120 m2 $210.00
02.01.01 Cimbra de madera 120 m2 $210.00
SUBTOTAL $28,832.50
TOTAL $33,445.70
`

// 40 runes: below the default scanned threshold
const scannedStub = "PRESUPUESTO ESCANEADO DE OBRA, FOLIO 001"

type fakeImager struct {
	calls int
	err   error
}

func (f *fakeImager) Images(ctx context.Context, doc *entity.Document) ([]ocr.PageImage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []ocr.PageImage{{Page: 1, Image: image.NewGray(image.Rect(0, 0, 10, 10))}}, nil
}

type fakeRecognizer struct {
	confidence float64
	text       string // default: one list row
}

func (f fakeRecognizer) Recognize(ctx context.Context, img image.Image) ([]ocr.Token, error) {
	text := f.text
	if text == "" {
		text = "01.02.01 Excavación manual 20 m3 $80.00"
	}
	words := strings.Fields(text)
	toks := make([]ocr.Token, len(words))
	for i, w := range words {
		toks[i] = ocr.Token{Text: w, Confidence: f.confidence, Box: ocr.Box{X: i * 100, Y: 10}, Line: 0}
	}
	return toks, nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func hasWarning(res *entity.ExtractionResult, fragment string) bool {
	for _, w := range res.Warnings {
		if strings.Contains(w, fragment) {
			return true
		}
	}
	return false
}

func TestProcessTextBudget(t *testing.T) {
	p := NewProcessor(Config{}, Stages{}, nil)
	res, err := p.Process(context.Background(), writeFile(t, "obra.txt", listBudget), Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(res.Items) != 4 {
		t.Fatalf("items = %+v, want 4", res.Items)
	}
	if res.DuplicateCount != 1 || !hasWarning(res, "collapsed 1 duplicate items") {
		t.Fatalf("duplicates = %d, warnings = %v", res.DuplicateCount, res.Warnings)
	}
	first := res.Items[0]
	if first.Code != "01.02.01" || first.Unit != "m3" || !first.TotalPrice.Decimal.Equal(decimal.NewFromInt(1600)) {
		t.Fatalf("first item = %+v", first)
	}
	if !res.Totals.Subtotal.Decimal.Equal(decimal.RequireFromString("28832.50")) ||
		!res.Totals.Total.Decimal.Equal(decimal.RequireFromString("33445.70")) {
		t.Fatalf("totals = %+v", res.Totals)
	}
	if hasWarning(res, "differs from stated") {
		t.Fatalf("unexpected mismatch warning: %v", res.Warnings)
	}
	if res.Document.Scanned || res.Document.Name != "obra.txt" || len(res.Document.ContentHash) != 64 {
		t.Fatalf("document = %+v", res.Document)
	}
	if res.Confidence < 0 || res.Confidence > 1 {
		t.Fatalf("confidence = %v", res.Confidence)
	}
}

func TestProcessFormatHint(t *testing.T) {
	p := NewProcessor(Config{}, Stages{}, nil)
	res, err := p.Process(context.Background(), writeFile(t, "obra.txt", listBudget), Options{FormatHint: constants.FormatTable})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Format != constants.FormatTable || res.Confidence != 1.0 {
		t.Fatalf("format = %s (%v), want hinted table", res.Format, res.Confidence)
	}
	if !hasWarning(res, "fell back to mixed") || len(res.Items) != 4 {
		t.Fatalf("items = %d, warnings = %v", len(res.Items), res.Warnings)
	}
}

func TestProcessScannedRunsOCR(t *testing.T) {
	imager := &fakeImager{}
	engine := ocr.NewEngine(ocr.Config{SkipPreprocess: true}, fakeRecognizer{confidence: 90}, nil)
	p := NewProcessor(Config{OCREnabled: true}, Stages{Imager: imager, OCR: engine}, nil)

	res, err := p.Process(context.Background(), writeFile(t, "scan.txt", scannedStub), Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !res.Document.Scanned || imager.calls != 1 {
		t.Fatalf("scanned = %v, imager calls = %d", res.Document.Scanned, imager.calls)
	}
	if res.Document.OCRConfidence != 90 {
		t.Fatalf("ocr confidence = %v, want 90", res.Document.OCRConfidence)
	}
	if len(res.Items) != 1 || !res.Items[0].TotalPrice.Decimal.Equal(decimal.NewFromInt(1600)) {
		t.Fatalf("items = %+v", res.Items)
	}
	if hasWarning(res, "low OCR confidence") {
		t.Fatalf("warnings = %v", res.Warnings)
	}
	if pat := res.Document.OCRPatterns; pat == nil || pat.Codes != 1 || pat.Prices != 1 {
		t.Fatalf("ocr patterns = %+v", pat)
	}
	if l := res.Classification.Layout; l == nil || l.Words != 6 {
		t.Fatalf("classification layout = %+v", l)
	}
	if len(res.Classification.Recommendations) == 0 {
		t.Fatal("classification carries no recommendations")
	}
}

func TestProcessScannedKeepsPagesBeyondOCR(t *testing.T) {
	// the imager renders page 1 only; pages 2 and 3 keep their native text
	content := scannedStub + "\f02.01.01 Cimbra de madera 2 m2 $5.00\f03.01.01 Pintura 4 m2 $2.50\f"
	engine := ocr.NewEngine(ocr.Config{SkipPreprocess: true}, fakeRecognizer{confidence: 90}, nil)
	p := NewProcessor(Config{OCREnabled: true}, Stages{Imager: &fakeImager{}, OCR: engine}, nil)

	res, err := p.Process(context.Background(), writeFile(t, "scan.txt", content), Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !res.Document.Scanned || res.Document.Pages != 3 {
		t.Fatalf("document = %+v, want 3 scanned pages", res.Document)
	}
	if len(res.Items) != 3 {
		t.Fatalf("items = %+v, want 3", res.Items)
	}
	codes := []string{res.Items[0].Code, res.Items[1].Code, res.Items[2].Code}
	if strings.Join(codes, ",") != "01.02.01,02.01.01,03.01.01" {
		t.Fatalf("codes = %v", codes)
	}
	if !hasWarning(res, "OCR limited to 1 of 3 pages") {
		t.Fatalf("warnings = %v", res.Warnings)
	}
}

func TestProcessScannedDegradations(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		imager  *fakeImager
		rec     fakeRecognizer
		warning string
	}{
		{"ocr disabled", Config{}, &fakeImager{}, fakeRecognizer{confidence: 90}, "OCR is disabled"},
		{"low confidence", Config{OCREnabled: true}, &fakeImager{}, fakeRecognizer{confidence: 40}, "low OCR confidence"},
		{"render failure", Config{OCREnabled: true}, &fakeImager{err: errors.New("pdftoppm missing")}, fakeRecognizer{confidence: 90}, "could not render pages"},
		{"no budget patterns", Config{OCREnabled: true}, &fakeImager{}, fakeRecognizer{confidence: 90, text: "acta de entrega firmada"}, "no item codes or prices"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := ocr.NewEngine(ocr.Config{SkipPreprocess: true}, tc.rec, nil)
			p := NewProcessor(tc.cfg, Stages{Imager: tc.imager, OCR: engine}, nil)
			res, err := p.Process(context.Background(), writeFile(t, "scan.txt", scannedStub), Options{})
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if !hasWarning(res, tc.warning) {
				t.Fatalf("warnings = %v, want %q", res.Warnings, tc.warning)
			}
		})
	}
}

func TestProcessFatalErrors(t *testing.T) {
	loader := document.NewLoader(document.Config{MaxFileBytes: 10}, nil, nil)
	p := NewProcessor(Config{}, Stages{Loader: loader}, nil)

	_, err := p.Process(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"), Options{})
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("missing file error = %v", err)
	}
	_, err = p.ProcessBytes(context.Background(), "big.txt", []byte(listBudget), Options{})
	if !errors.Is(err, common.ErrTooLarge) {
		t.Fatalf("oversize error = %v", err)
	}
}

func TestProcessBytes(t *testing.T) {
	p := NewProcessor(Config{}, Stages{}, nil)
	res, err := p.ProcessBytes(context.Background(), "obra.txt", []byte(listBudget), Options{})
	if err != nil {
		t.Fatalf("ProcessBytes: %v", err)
	}
	if len(res.Items) != 4 || res.Document.Name != "obra.txt" {
		t.Fatalf("result = %+v", res)
	}
}
