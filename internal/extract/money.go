package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// moneyCore lists amount shapes in priority order: 1.234,56 | 1,234.56 | 150,00 | 150.00 / 150.
const moneyCore = `\d{1,3}(?:\.\d{3})+,\d{1,2}|\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+,\d{2}|\d+(?:\.\d{1,2})?`

// moneyExpr is an amount with an optional leading $/€/£ or trailing €.
const moneyExpr = `(?:[$€£]\s?)?(?:` + moneyCore + `)\b(?:\s?€)?`

// strictMoneyExpr only accepts amounts with a currency symbol or decimals.
const strictMoneyExpr = `(?:[$€£]\s?(?:` + moneyCore + `)|(?:\d{1,3}(?:\.\d{3})+,\d{1,2}|\d{1,3}(?:,\d{3})+\.\d{1,2}|\d+[.,]\d{2}))\b(?:\s?€)?`

var (
	reEUDecimal  = regexp.MustCompile(`^\d+,\d{1,2}$`)
	reMoneyToken = regexp.MustCompile(`(?:^|[\s(:=])(` + moneyExpr + `)`)
	reHasCents   = regexp.MustCompile(`[.,]\d{1,2}(?:\s?€)?$`)
)

// Amount is a money-shaped token found in free text.
type Amount struct {
	Start, End int
	Raw        string
	Value      decimal.Decimal
	// Explicit is set when the token carries a currency symbol or decimals, which tells it
	// apart from quantities and codes.
	Explicit bool
	// Percent is set when the token is immediately followed by %.
	Percent bool
}

// FindAmounts returns the money tokens of s in order.
func FindAmounts(s string) []Amount {
	var out []Amount
	for _, m := range reMoneyToken.FindAllStringSubmatchIndex(s, -1) {
		raw := s[m[2]:m[3]]
		v, ok := ParseAmount(raw)
		if !ok {
			continue
		}
		out = append(out, Amount{
			Start:    m[2],
			End:      m[3],
			Raw:      raw,
			Value:    v,
			Explicit: strings.ContainsAny(raw, "$€£") || reHasCents.MatchString(raw),
			Percent:  strings.HasPrefix(strings.TrimLeft(s[m[3]:], " "), "%"),
		})
	}
	return out
}

// ParseAmount converts a money or quantity token to a decimal. It accepts US (1,234.56) and
// European (1.234,56) separators and ignores currency symbols.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', ' ', '\u00a0':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if reEUDecimal.MatchString(s) {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
