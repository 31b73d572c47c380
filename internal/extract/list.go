package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/budget-extractor/internal/entity"
)

const minContinuationRunes = 10

// List reads numbered items, one per line, whose description may wrap onto following lines.
type List struct {
	p *Patterns
}

func NewList(p *Patterns) *List { return &List{p: p} }

func (l *List) Name() string { return StrategyList }

func (l *List) Extract(lines []string) []entity.Candidate {
	var out []entity.Candidate
	cur := -1
	for i, line := range lines {
		s := strings.TrimSpace(line)
		if s == "" {
			continue
		}
		if c, ok := l.p.matchList(s, StrategyList, i+1); ok {
			out = append(out, c)
			cur = len(out) - 1
			continue
		}
		// an unparsed item, a chapter heading or a summary row ends the running description
		if l.p.startsItem(s) || isHeading(s) || l.p.isSummary(s) {
			cur = -1
			continue
		}
		if cur >= 0 && isContinuation(s) {
			out[cur].Description += " " + s
		}
	}
	return out
}

// startsItem reports lines opening with an item code. A leading quantity such as "20 m3" is not a code.
func (p *Patterns) startsItem(s string) bool {
	return p.ItemMarker.MatchString(s) && !p.QtyUnitLead.MatchString(s)
}

func isContinuation(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return !unicode.IsDigit(r) && utf8.RuneCountInString(s) >= minContinuationRunes
}
