package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/budget-extractor/constants"
)

// StructuralMetrics counts line shapes seen by the layout classifier.
type StructuralMetrics struct {
	Lines          int     `json:"lines"`
	NonEmptyLines  int     `json:"non_empty_lines"`
	TableLines     int     `json:"table_lines"`
	ListItems      int     `json:"list_items"`
	SectionHeaders int     `json:"section_headers"`
	AvgLineLength  float64 `json:"avg_line_length"`
}

// TableRatio is the share of non-empty lines shaped like table rows.
func (m StructuralMetrics) TableRatio() float64 {
	if m.NonEmptyLines == 0 {
		return 0
	}
	return float64(m.TableLines) / float64(m.NonEmptyLines)
}

// ListRatio is the share of non-empty lines starting with an item code.
func (m StructuralMetrics) ListRatio() float64 {
	if m.NonEmptyLines == 0 {
		return 0
	}
	return float64(m.ListItems) / float64(m.NonEmptyLines)
}

// ContentSignals are whole-text indicators.
type ContentSignals struct {
	Currency           bool `json:"currency"`
	Decimals           bool `json:"decimals"`
	ThousandsSeparator bool `json:"thousands_separator"`
	Units              bool `json:"units"`
	ChapterMarkers     bool `json:"chapter_markers"`
	TotalsKeywords     bool `json:"totals_keywords"`
	BreakdownKeywords  bool `json:"breakdown_keywords"`
}

// PageLayout describes how recognized words sit on scanned pages.
type PageLayout struct {
	Words                int     `json:"words"`
	AlignedColumns       bool    `json:"aligned_columns"`
	GridStructure        bool    `json:"grid_structure"`
	TextDensity          float64 `json:"text_density"`          // words per pixel of text height
	AvgWordSpacing       float64 `json:"avg_word_spacing"`      // px between neighbors on a line
	AlignmentConsistency float64 `json:"alignment_consistency"` // 0..1
}

// BudgetPatterns counts budget-shaped fragments found in recognized text.
type BudgetPatterns struct {
	Codes      int `json:"codes"`
	Prices     int `json:"prices"`
	Quantities int `json:"quantities"`
	Chapters   int `json:"chapters"`
}

// Add returns the field-wise sum of p and o.
func (p BudgetPatterns) Add(o BudgetPatterns) BudgetPatterns {
	return BudgetPatterns{
		Codes:      p.Codes + o.Codes,
		Prices:     p.Prices + o.Prices,
		Quantities: p.Quantities + o.Quantities,
		Chapters:   p.Chapters + o.Chapters,
	}
}

// Classification is the layout classifier's verdict for one document.
type Classification struct {
	Format          constants.Format   `json:"format"`
	Template        string             `json:"template,omitempty"`
	Confidence      float64            `json:"confidence"`
	Scores          map[string]float64 `json:"scores"`
	Metrics         StructuralMetrics  `json:"metrics"`
	Signals         ContentSignals     `json:"signals"`
	Layout          *PageLayout        `json:"layout,omitempty"`
	Recommendations []string           `json:"recommendations,omitempty"`
}

// Totals are the summary amounts printed in the document, when found.
type Totals struct {
	Subtotal decimal.NullDecimal `json:"subtotal"`
	Tax      decimal.NullDecimal `json:"tax"`
	Total    decimal.NullDecimal `json:"total"`
	Profit   decimal.NullDecimal `json:"profit"`
}

// DocumentSummary is the part of the loaded document echoed in a result.
type DocumentSummary struct {
	ID            uuid.UUID            `json:"id"`
	Name          string               `json:"name"`
	Kind          constants.SourceKind `json:"kind"`
	ContentHash   string               `json:"content_hash"`
	Pages         int                  `json:"pages"`
	Scanned       bool                 `json:"scanned"`
	OCRConfidence float64              `json:"ocr_confidence,omitempty"`
	OCRPatterns   *BudgetPatterns      `json:"ocr_patterns,omitempty"`
	Metadata      Metadata             `json:"metadata"`
}

// ExtractionResult is the pipeline output for a single document.
type ExtractionResult struct {
	Document       DocumentSummary  `json:"document"`
	Items          []LineItem       `json:"items"`
	CandidateCount int              `json:"candidate_count"`
	DroppedCount   int              `json:"dropped_count"`
	DuplicateCount int              `json:"duplicate_count"`
	Warnings       []string         `json:"warnings"`
	Format         constants.Format `json:"detected_format"`
	Confidence     float64          `json:"confidence"`
	Strategy       string           `json:"strategy"`
	Classification Classification   `json:"classification"`
	Totals         Totals           `json:"totals"`
	Duration       time.Duration    `json:"duration_ns"`
}

// ItemsTotal sums TotalPrice over items that carry one.
func (r *ExtractionResult) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range r.Items {
		if it.TotalPrice.Valid {
			sum = sum.Add(it.TotalPrice.Decimal)
		}
	}
	return sum
}

// ExtractionRecord is a persisted extraction row, without its items.
type ExtractionRecord struct {
	ID          uuid.UUID           `json:"id"`
	BudgetID    string              `json:"budget_id"`
	FileName    string              `json:"file_name"`
	ContentHash []byte              `json:"content_hash"`
	Status      constants.JobStatus `json:"status"`
	Format      constants.Format    `json:"format"`
	Confidence  float64             `json:"confidence"`
	ItemCount   int                 `json:"item_count"`
	Warnings    []string            `json:"warnings,omitempty"`
	Total       decimal.NullDecimal `json:"total"`
	CreatedAt   time.Time           `json:"created_at"`
}
