// Package totals finds the stated subtotal, tax, total and profit amounts of a budget.
package totals

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/joseph-ayodele/budget-extractor/internal/extract"
	"github.com/joseph-ayodele/budget-extractor/internal/locale"
	"github.com/shopspring/decimal"
)

// MaxDrift is the relative difference between the stated and summed totals that is tolerated
// before a warning is raised.
var MaxDrift = decimal.NewFromFloat(0.01)

type group struct {
	name string
	re   *regexp.Regexp
	set  func(*entity.Totals, decimal.Decimal)
}

type Extractor struct {
	groups []group
	logger *slog.Logger
}

func New(loc *locale.Locale, logger *slog.Logger) *Extractor {
	if loc == nil {
		loc = locale.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	kw := loc.Keywords()
	all := []group{
		{"subtotal", locale.KeywordPattern(kw.Subtotal), func(t *entity.Totals, d decimal.Decimal) { t.Subtotal = entity.Dec(d) }},
		{"tax", locale.KeywordPattern(kw.Tax), func(t *entity.Totals, d decimal.Decimal) { t.Tax = entity.Dec(d) }},
		{"total", locale.KeywordPattern(kw.Total), func(t *entity.Totals, d decimal.Decimal) { t.Total = entity.Dec(d) }},
		{"profit", locale.KeywordPattern(kw.Profit), func(t *entity.Totals, d decimal.Decimal) { t.Profit = entity.Dec(d) }},
	}
	e := &Extractor{logger: logger}
	for _, g := range all {
		if g.re != nil {
			e.groups = append(e.groups, g)
		}
	}
	return e
}

// Extract scans text line by line. The first keyword group matching a line claims it and takes
// the line's last amount that is not a percentage; later lines overwrite earlier ones.
func (e *Extractor) Extract(text string) entity.Totals {
	var t entity.Totals
	for i, line := range strings.Split(strings.ToUpper(text), "\n") {
		for _, g := range e.groups {
			if !g.re.MatchString(line) {
				continue
			}
			if d, ok := lastAmount(line); ok {
				g.set(&t, d)
				e.logger.Debug("totals.match", "group", g.name, "line", i+1, "amount", d.String())
			}
			break
		}
	}
	return t
}

func lastAmount(line string) (decimal.Decimal, bool) {
	amounts := extract.FindAmounts(line)
	for i := len(amounts) - 1; i >= 0; i-- {
		if !amounts[i].Percent {
			return amounts[i].Value, true
		}
	}
	return decimal.Decimal{}, false
}

// CheckSum compares the summed item totals with the stated subtotal, or the total when no
// subtotal was found, and returns a warning when they drift apart by more than MaxDrift.
func CheckSum(t entity.Totals, sum decimal.Decimal) (string, bool) {
	label, stated := "subtotal", t.Subtotal
	if !stated.Valid {
		label, stated = "total", t.Total
	}
	if !stated.Valid || stated.Decimal.IsZero() {
		return "", false
	}
	drift := sum.Sub(stated.Decimal).Abs().Div(stated.Decimal.Abs())
	if drift.LessThanOrEqual(MaxDrift) {
		return "", false
	}
	return fmt.Sprintf("items sum %s differs from stated %s %s by %s%%",
		sum.StringFixed(2), label, stated.Decimal.StringFixed(2), drift.Mul(decimal.NewFromInt(100)).StringFixed(1)), true
}
