package layout

import (
	"regexp"

	"github.com/joseph-ayodele/budget-extractor/constants"
	"github.com/joseph-ayodele/budget-extractor/internal/entity"
)

// BonusFunc adds template-specific evidence on top of the indicator fraction.
type BonusFunc func(entity.StructuralMetrics, entity.ContentSignals) float64

// Template is one known budget layout. Recommendations are review hints surfaced when it wins.
type Template struct {
	Key             string
	Format          constants.Format
	Indicators      []*regexp.Regexp
	Bonus           BonusFunc
	Recommendations []string
}

const (
	TemplateStandardTable     = "standard_table"
	TemplateChaptersList      = "chapters_list"
	TemplateUnitPrices        = "unit_prices"
	TemplateDetailedBreakdown = "detailed_breakdown"
)

// DefaultTemplates returns the built-in templates in tie-break order.
func DefaultTemplates() []Template {
	return []Template{
		{
			Key:    TemplateStandardTable,
			Format: constants.FormatTable,
			Indicators: compile(
				`(?i)\b(?:item|código|codigo|code|clave)\b`,
				`(?i)\b(?:descripción|descripcion|description|concepto)\b`,
				`(?i)\b(?:cantidad|quantity|qty|cant)\b`,
				`(?i)\b(?:unidad|unit|ud|und)\b`,
				`(?i)\b(?:precio|price|cost|costo|importe)\b`,
				`(?i)\btotal\b`,
			),
			Bonus: func(m entity.StructuralMetrics, _ entity.ContentSignals) float64 {
				if m.TableRatio() > 0.3 {
					return 0.3
				}
				return 0
			},
			Recommendations: []string{
				"extract by fixed columns",
				"check that every row has the same number of columns",
				"map fields from the table header row",
			},
		},
		{
			Key:    TemplateChaptersList,
			Format: constants.FormatList,
			Indicators: compile(
				`(?i)\b(?:capítulo|capitulo|chapter|cap)\b`,
				`\b\d+\.\d+\.\d+\b`,
				`\b\d+\.\d+\b`,
				`(?m)^\s*\d+\s*[.-]`,
			),
			Bonus: func(m entity.StructuralMetrics, _ entity.ContentSignals) float64 {
				if m.ListRatio() > 0.4 {
					return 0.3
				}
				return 0
			},
			Recommendations: []string{
				"treat chapters as top-level sections",
				"use item numbering to recover the hierarchy",
				"group items by chapter",
			},
		},
		{
			Key:    TemplateUnitPrices,
			Format: constants.FormatList,
			Indicators: compile(
				`(?i)(?:\bprecio unitario\b|\bunit price\b|\bp\.\s?u\.)`,
				`(?i)\bpu\s*=`,
				`\$\s*\d+[.,]\d{2}\b`,
				`\d+[.,]\d{2}\s*€`,
			),
			Recommendations: []string{
				"focus on unit price extraction",
				"check unit prices against expected ranges",
				"look for price updates",
			},
		},
		{
			Key:    TemplateDetailedBreakdown,
			Format: constants.FormatMixed,
			Indicators: compile(
				`(?i)\b(?:materiales|materials)\b`,
				`(?i)\b(?:mano de obra|labor|labour)\b`,
				`(?i)\b(?:equipo|equipment|maquinaria)\b`,
				`(?i)\b(?:indirectos|overhead|gastos generales)\b`,
			),
			Bonus: func(_ entity.StructuralMetrics, s entity.ContentSignals) float64 {
				if s.BreakdownKeywords {
					return 0.2
				}
				return 0
			},
			Recommendations: []string{
				"extract the cost breakdown per category",
				"sum components to obtain totals",
				"check that component sums match the stated totals",
			},
		},
	}
}

// unknownRecommendations apply when no template is confident enough.
var unknownRecommendations = []string{
	"use pattern based extraction",
	"apply several extraction strategies",
	"review the results manually",
}

// RecommendationsFor returns the hints of the first template producing format, or the generic
// hints for an unknown layout.
func RecommendationsFor(templates []Template, format constants.Format) []string {
	for _, tpl := range templates {
		if tpl.Format == format && len(tpl.Recommendations) > 0 {
			return append([]string(nil), tpl.Recommendations...)
		}
	}
	return append([]string(nil), unknownRecommendations...)
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}
