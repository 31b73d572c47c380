// Package layout decides which layout a budget document uses.
package layout

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/budget-extractor/constants"
	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/joseph-ayodele/budget-extractor/internal/locale"
)

// gridBonus is added to table templates when recognized words form a grid.
const gridBonus = 0.15

type Config struct {
	Templates    []Template // default DefaultTemplates()
	UnknownBelow float64    // best score under this is labelled unknown, default 0.1
}

// Classifier scores text against templates. It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	cfg    Config
	logger *slog.Logger

	reNumber    *regexp.Regexp
	reListItem  []*regexp.Regexp
	reCurrency  *regexp.Regexp
	reDecimal   *regexp.Regexp
	reThousands *regexp.Regexp
	reUnit      *regexp.Regexp
	reChapter   *regexp.Regexp
	reSection   *regexp.Regexp
	reTotals    *regexp.Regexp
	reBreakdown *regexp.Regexp
}

func NewClassifier(cfg Config, loc *locale.Locale, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = locale.Default()
	}
	if len(cfg.Templates) == 0 {
		cfg.Templates = DefaultTemplates()
	}
	if cfg.UnknownBelow <= 0 {
		cfg.UnknownBelow = 0.1
	}
	kw := loc.Keywords()
	units := loc.UnitSpellings()
	for i, u := range units {
		units[i] = regexp.QuoteMeta(u)
	}
	return &Classifier{
		cfg:      cfg,
		logger:   logger,
		reNumber: regexp.MustCompile(`\d+(?:[.,]\d+)*`),
		reListItem: []*regexp.Regexp{
			regexp.MustCompile(`^\s*\d+(?:\.\d+)*\s+`),
			regexp.MustCompile(`^\s*\d+\s*[.-]\s+`),
			regexp.MustCompile(`^\s*[A-Z]{2,3}\d{2,4}\s+`),
		},
		reCurrency:  regexp.MustCompile(`[$€£]`),
		reDecimal:   regexp.MustCompile(`\d+[.,]\d{2}\b`),
		reThousands: regexp.MustCompile(`\d,\d{3}\b|\d\.\d{3},\d{2}\b`),
		reUnit:      regexp.MustCompile(`(?i)\d\s*(?:` + strings.Join(units, "|") + `)\b`),
		reChapter:   locale.KeywordPattern(kw.Chapter),
		reSection:   locale.KeywordPattern(kw.Section),
		reTotals:    locale.KeywordPattern(append(kw.Subtotal, kw.Total...)),
		reBreakdown: locale.KeywordPattern(kw.Breakdown),
	}
}

// Classify returns the best-matching layout for text. Identical text always yields the same result.
func (c *Classifier) Classify(text string) entity.Classification {
	return c.ClassifyLayout(text, nil)
}

// ClassifyLayout is Classify with the word layout of recognized pages. A grid of words backs the
// table templates; a nil layout leaves the scores as Classify computes them.
func (c *Classifier) ClassifyLayout(text string, pageLayout *entity.PageLayout) entity.Classification {
	lines := strings.Split(text, "\n")
	metrics := c.structure(lines)
	signals := c.signals(text)
	grid := pageLayout != nil && pageLayout.GridStructure

	scores := make(map[string]float64, len(c.cfg.Templates))
	best := -1
	bestScore := 0.0
	for i, tpl := range c.cfg.Templates {
		s := score(tpl, text, metrics, signals)
		if grid && tpl.Format == constants.FormatTable {
			s = min(s+gridBonus, 1.0)
		}
		scores[tpl.Key] = s
		if best < 0 || s > bestScore {
			best, bestScore = i, s
		}
	}

	out := entity.Classification{
		Format:     constants.FormatUnknown,
		Confidence: bestScore,
		Scores:     scores,
		Metrics:    metrics,
		Signals:    signals,
		Layout:     pageLayout,
	}
	if best >= 0 && bestScore >= c.cfg.UnknownBelow {
		out.Format = c.cfg.Templates[best].Format
		out.Template = c.cfg.Templates[best].Key
		out.Recommendations = append([]string(nil), c.cfg.Templates[best].Recommendations...)
	}
	if len(out.Recommendations) == 0 {
		out.Recommendations = RecommendationsFor(nil, out.Format)
	}
	c.logger.Debug("layout.classify",
		"format", out.Format,
		"template", out.Template,
		"confidence", out.Confidence,
		"table_lines", metrics.TableLines,
		"list_items", metrics.ListItems,
		"grid", grid,
	)
	return out
}

// Recommendations returns the review hints for a format, used when the format is given rather
// than detected.
func (c *Classifier) Recommendations(format constants.Format) []string {
	return RecommendationsFor(c.cfg.Templates, format)
}

func score(tpl Template, text string, m entity.StructuralMetrics, s entity.ContentSignals) float64 {
	var v float64
	if len(tpl.Indicators) > 0 {
		hits := 0
		for _, re := range tpl.Indicators {
			if re.MatchString(text) {
				hits++
			}
		}
		v = float64(hits) / float64(len(tpl.Indicators))
	}
	if tpl.Bonus != nil {
		v += tpl.Bonus(m, s)
	}
	return min(v, 1.0)
}

func (c *Classifier) structure(lines []string) entity.StructuralMetrics {
	m := entity.StructuralMetrics{Lines: len(lines)}
	totalLen := 0
	for _, ln := range lines {
		trimmed := strings.TrimSpace(ln)
		if trimmed == "" {
			continue
		}
		m.NonEmptyLines++
		totalLen += utf8.RuneCountInString(trimmed)

		if len(c.reNumber.FindAllString(ln, -1)) >= 2 && len(strings.Fields(ln)) >= 4 {
			m.TableLines++
		}
		for _, re := range c.reListItem {
			if re.MatchString(ln) {
				m.ListItems++
				break
			}
		}
		if c.isSectionHeader(trimmed) {
			m.SectionHeaders++
		}
	}
	if m.NonEmptyLines > 0 {
		m.AvgLineLength = float64(totalLen) / float64(m.NonEmptyLines)
	}
	return m
}

func (c *Classifier) isSectionHeader(s string) bool {
	if utf8.RuneCountInString(s) >= 50 {
		return false
	}
	if c.reSection != nil && c.reSection.MatchString(s) {
		return true
	}
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

func (c *Classifier) signals(text string) entity.ContentSignals {
	match := func(re *regexp.Regexp) bool { return re != nil && re.MatchString(text) }
	return entity.ContentSignals{
		Currency:           match(c.reCurrency),
		Decimals:           match(c.reDecimal),
		ThousandsSeparator: match(c.reThousands),
		Units:              match(c.reUnit),
		ChapterMarkers:     match(c.reChapter),
		TotalsKeywords:     match(c.reTotals),
		BreakdownKeywords:  match(c.reBreakdown),
	}
}
