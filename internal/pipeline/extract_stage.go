package pipeline

import (
	"fmt"
	"time"

	"github.com/joseph-ayodele/budget-extractor/constants"
	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/joseph-ayodele/budget-extractor/internal/metrics"
	"github.com/joseph-ayodele/budget-extractor/internal/totals"
)

// extract classifies text and turns it into normalized line items with totals. pageLayout is
// the word layout of OCR'd pages, nil for native text.
func (p *Processor) extract(text string, pageLayout *entity.PageLayout, opts Options) *entity.ExtractionResult {
	var warnings []string

	t := time.Now()
	class := p.st.Classifier.ClassifyLayout(text, pageLayout)
	if opts.FormatHint != "" {
		class.Format = opts.FormatHint
		class.Template = "hint"
		class.Confidence = 1.0
		class.Recommendations = p.st.Classifier.Recommendations(opts.FormatHint)
	} else if class.Format == constants.FormatUnknown {
		warnings = append(warnings, fmt.Sprintf("low classification confidence %.2f; layout unknown", class.Confidence))
	}
	metrics.ObserveStage("classify", time.Since(t))

	t = time.Now()
	out := p.st.Extractor.Extract(text, class.Format)
	warnings = append(warnings, out.Warnings...)
	metrics.ObserveStage("extract", time.Since(t))

	t = time.Now()
	norm := p.st.Normalizer.Normalize(out.Candidates)
	warnings = append(warnings, norm.Warnings...)
	metrics.ObserveStage("normalize", time.Since(t))

	res := &entity.ExtractionResult{
		Items:          norm.Items,
		CandidateCount: len(out.Candidates),
		DroppedCount:   norm.Dropped,
		DuplicateCount: norm.Duplicates,
		Format:         class.Format,
		Confidence:     class.Confidence,
		Strategy:       out.Strategy,
		Classification: class,
		Totals:         p.st.Totals.Extract(text),
	}
	if res.Items == nil {
		res.Items = []entity.LineItem{}
	}
	if len(res.Items) == 0 {
		warnings = append(warnings, "no line items found")
	}
	if w, ok := totals.CheckSum(res.Totals, res.ItemsTotal()); ok {
		warnings = append(warnings, w)
	}
	res.Warnings = warnings
	return res
}
