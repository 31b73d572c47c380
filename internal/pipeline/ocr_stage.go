package pipeline

import (
	"context"
	"fmt"

	"github.com/joseph-ayodele/budget-extractor/constants"
	"github.com/joseph-ayodele/budget-extractor/internal/document"
	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/joseph-ayodele/budget-extractor/internal/metrics"
	"github.com/joseph-ayodele/budget-extractor/internal/ocr"
)

// PageImager renders the pages of a scanned document for recognition.
type PageImager interface {
	Images(ctx context.Context, doc *entity.Document) ([]ocr.PageImage, error)
}

// FileImager rasterizes PDFs and decodes image files from disk.
type FileImager struct {
	Raster *ocr.PdftoppmRasterizer
}

func NewFileImager(raster *ocr.PdftoppmRasterizer) *FileImager {
	return &FileImager{Raster: raster}
}

func (f *FileImager) Images(ctx context.Context, doc *entity.Document) ([]ocr.PageImage, error) {
	switch doc.Kind {
	case constants.SourcePDF:
		return f.Raster.Rasterize(ctx, doc.Path)
	case constants.SourceImage:
		img, err := ocr.LoadImage(doc.Path)
		return []ocr.PageImage{{Page: 1, Image: img, Err: err}}, nil
	default:
		return nil, nil
	}
}

// recognition is what OCR contributed to a scanned document. Pages is nil when OCR did not run;
// the caller merges it over the native pages by number.
type recognition struct {
	Pages      []entity.Page
	Confidence float64
	Layout     *entity.PageLayout
	Patterns   *entity.BudgetPatterns
	Warnings   []string
}

// recognize OCRs the rendered pages of a scanned document.
func (p *Processor) recognize(ctx context.Context, doc *entity.Document) recognition {
	if !p.cfg.OCREnabled || p.st.OCR == nil || p.st.Imager == nil {
		p.logger.Warn("pipeline.ocr.disabled", "name", doc.Name)
		return recognition{Warnings: []string{"document appears scanned but OCR is disabled"}}
	}
	images, err := p.st.Imager.Images(ctx, doc)
	if err != nil {
		p.logger.Warn("pipeline.ocr.rasterize.failed", "name", doc.Name, "error", err)
		return recognition{Warnings: []string{fmt.Sprintf("could not render pages for OCR: %v", err)}}
	}
	if len(images) == 0 {
		return recognition{}
	}

	results := p.st.OCR.RecognizeBatch(ctx, images)
	var (
		out      recognition
		patterns entity.BudgetPatterns
		failed   int
	)
	out.Pages = make([]entity.Page, 0, len(results))
	for _, r := range results {
		if r.Failed() {
			failed++
			out.Warnings = append(out.Warnings, fmt.Sprintf("OCR failed on page %d: %s", r.Page, r.Err))
		}
		patterns = patterns.Add(r.Patterns)
		out.Pages = append(out.Pages, entity.Page{Number: r.Page, Text: document.CleanText(r.Text)})
	}
	out.Confidence = ocr.BatchConfidence(results)
	if out.Confidence < p.cfg.LowConfidence {
		out.Warnings = append(out.Warnings, fmt.Sprintf("low OCR confidence %.1f (threshold %.0f)", out.Confidence, p.cfg.LowConfidence))
	}
	if failed < len(results) {
		out.Patterns = &patterns
		if patterns.Codes == 0 && patterns.Prices == 0 {
			out.Warnings = append(out.Warnings, "OCR text shows no item codes or prices; review the scan manually")
		}
	}
	out.Layout = ocr.MergeLayouts(results)
	metrics.CaptureOCR(len(results)-failed, failed, out.Confidence)
	p.logger.Info("pipeline.ocr.ok",
		"name", doc.Name,
		"pages", len(results),
		"failed", failed,
		"confidence", out.Confidence,
		"codes", patterns.Codes,
		"prices", patterns.Prices,
	)
	return out
}
