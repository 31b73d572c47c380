package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/budget-extractor/internal/locale"
)

const (
	codeExpr = `\d+(?:\.\d+)*|[A-Z]{2,3}\d{2,4}`
	numExpr  = `\d+(?:[.,]\d+)?`
)

// Patterns are the compiled regular expressions shared by all strategies. Built once per
// locale and read-only afterwards.
type Patterns struct {
	ColumnSplit *regexp.Regexp
	Code        *regexp.Regexp // whole-string code
	LeadingCode *regexp.Regexp
	ItemMarker  *regexp.Regexp // code followed by text: the start of a new item
	QtyUnitLead *regexp.Regexp
	QtyUnit     *regexp.Regexp // number + unit anywhere
	QtyUnitFull *regexp.Regexp // number + unit as a whole column
	UnitOnly    *regexp.Regexp
	Number      *regexp.Regexp
	MoneyFull   *regexp.Regexp
	Letter      *regexp.Regexp
	Summary     *regexp.Regexp // subtotal/tax/total/profit keywords

	// List holds the line templates in priority order:
	// code+desc+qty+unit+price, code+desc+qty+price, code+desc+qty+unit.
	List []*regexp.Regexp
	// WholeText holds the templates scanned across the joined text; they are not anchored to
	// line starts, so several items merged onto one line are still found.
	WholeText []*regexp.Regexp
}

// NewPatterns compiles the patterns for a locale's unit spellings.
func NewPatterns(loc *locale.Locale) *Patterns {
	if loc == nil {
		loc = locale.Default()
	}
	var alts []string
	for _, u := range loc.UnitSpellings() {
		// \b after the unit only works when the spelling ends in an ASCII letter or digit;
		// superscript forms are rewritten by the loader before extraction.
		last, _ := utf8.DecodeLastRuneInString(u)
		if last > unicode.MaxASCII {
			continue
		}
		alts = append(alts, regexp.QuoteMeta(u))
	}
	kw := loc.Keywords()
	unit := `(?i:` + strings.Join(alts, "|") + `)`

	line := func(body string) *regexp.Regexp {
		return regexp.MustCompile(`^\s*(?P<code>` + codeExpr + `)\.?\s+(?P<desc>.+?)\s+` + body)
	}
	price := `(?P<price>` + moneyExpr + `)(?:\s+(?P<total>` + moneyExpr + `))?`
	// The optional trailing total must carry decimals or a symbol and end the field, otherwise
	// the next item's code on the same line would be read as one.
	wholePrice := `(?P<price>` + moneyExpr + `)(?:[ \t]+(?P<total>` + strictMoneyExpr + `)(?:[ \t]|$))?`
	whole := func(body string) *regexp.Regexp {
		return regexp.MustCompile(body)
	}
	hs := `[ \t]` // horizontal space: whole-text templates never span lines

	return &Patterns{
		ColumnSplit: regexp.MustCompile(`\s{2,}|\t`),
		Code:        regexp.MustCompile(`^(?:` + codeExpr + `)$`),
		LeadingCode: regexp.MustCompile(`^\s*(?P<code>` + codeExpr + `)\.?(?:\s+|$)`),
		ItemMarker:  regexp.MustCompile(`^\s*(?:` + codeExpr + `)\.?(?:\s+\p{L}|$)`),
		QtyUnitLead: regexp.MustCompile(`^\s*` + numExpr + `\s*` + unit + `\b`),
		QtyUnit:     regexp.MustCompile(`(?P<qty>` + numExpr + `)\s*(?P<unit>` + unit + `)\b`),
		QtyUnitFull: regexp.MustCompile(`^(?P<qty>` + numExpr + `)\s*(?P<unit>` + unit + `)\.?$`),
		UnitOnly:    regexp.MustCompile(`^(?P<unit>` + unit + `)\.?$`),
		Number:      regexp.MustCompile(`^` + numExpr + `$`),
		MoneyFull:   regexp.MustCompile(`^` + moneyExpr + `$`),
		Letter:      regexp.MustCompile(`\p{L}`),
		Summary:     locale.KeywordPattern(append(append(append(kw.Subtotal, kw.Tax...), kw.Total...), kw.Profit...)),
		List: []*regexp.Regexp{
			line(`(?P<qty>` + numExpr + `)\s*(?P<unit>` + unit + `)\.?\s+` + price),
			line(`(?P<qty>` + numExpr + `)\s+` + price),
			line(`(?P<qty>` + numExpr + `)\s*(?P<unit>` + unit + `)\b`),
		},
		WholeText: []*regexp.Regexp{
			whole(`(?m)\b(?P<code>` + codeExpr + `)\.?` + hs + `+(?P<desc>\p{L}[^\n]*?)` + hs + `+(?P<qty>` + numExpr + `)` + hs + `*(?P<unit>` + unit + `)\.?` + hs + `+` + wholePrice),
			whole(`(?m)\b(?P<code>` + codeExpr + `)\.?` + hs + `+(?P<desc>\p{L}[^\n]*?)` + hs + `+(?P<qty>` + numExpr + `)` + hs + `*(?P<unit>` + unit + `)\b`),
			whole(`(?m)^` + hs + `*(?P<desc>\p{L}[^\n]*?)` + hs + `+(?P<qty>` + numExpr + `)` + hs + `*(?P<unit>` + unit + `)\.?` + hs + `+` + wholePrice),
		},
	}
}

// groups returns the named submatches of m for re.
func groups(re *regexp.Regexp, s string, loc []int) map[string]string {
	out := make(map[string]string, 6)
	for i, name := range re.SubexpNames() {
		if name == "" || loc[2*i] < 0 {
			continue
		}
		out[name] = s[loc[2*i]:loc[2*i+1]]
	}
	return out
}

// isHeading reports lines whose letters are all upper case, like chapter titles and totals rows.
func isHeading(s string) bool {
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
