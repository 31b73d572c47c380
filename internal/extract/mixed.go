package extract

import (
	"sort"
	"strings"

	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/shopspring/decimal"
)

// Scorer rates a strategy's output; BestOf keeps the highest.
type Scorer func([]entity.Candidate) float64

// CountValid scores by the number of candidates passing the validity rule.
func CountValid(cs []entity.Candidate) float64 {
	n := 0
	for _, c := range cs {
		if c.Valid() {
			n++
		}
	}
	return float64(n)
}

// BestOf runs every strategy and keeps the best-scoring output. Ties keep the earlier strategy.
type BestOf struct {
	strategies []Strategy
	score      Scorer
}

func NewBestOf(score Scorer, strategies ...Strategy) *BestOf {
	if score == nil {
		score = CountValid
	}
	return &BestOf{strategies: strategies, score: score}
}

func (b *BestOf) Name() string { return StrategyMixed }

func (b *BestOf) Extract(lines []string) []entity.Candidate {
	_, out := b.Pick(lines)
	return out
}

// Pick returns the winning strategy's name with its candidates.
func (b *BestOf) Pick(lines []string) (string, []entity.Candidate) {
	var (
		bestName  string
		best      []entity.Candidate
		bestScore float64
	)
	for i, s := range b.strategies {
		cs := s.Extract(lines)
		score := b.score(cs)
		if i == 0 || score > bestScore {
			bestName, best, bestScore = s.Name(), cs, score
		}
	}
	return bestName, best
}

// LineBreakBuffering joins an item's wrapped lines before parsing it.
type LineBreakBuffering struct {
	p *Patterns
}

func NewLineBreakBuffering(p *Patterns) *LineBreakBuffering { return &LineBreakBuffering{p: p} }

func (l *LineBreakBuffering) Name() string { return StrategyLineBreak }

func (l *LineBreakBuffering) Extract(lines []string) []entity.Candidate {
	var (
		out   []entity.Candidate
		buf   []string
		start int
	)
	flush := func() {
		if len(buf) == 0 {
			return
		}
		joined := strings.Join(buf, " ")
		buf = nil
		c, ok := l.p.matchList(joined, StrategyLineBreak, start)
		if !ok {
			c, ok = l.p.looseParse(joined, StrategyLineBreak, start)
		}
		if ok && c.Valid() {
			out = append(out, c)
		}
	}
	for i, line := range lines {
		s := strings.TrimSpace(line)
		switch {
		case s == "":
		case l.p.startsItem(s):
			flush()
			buf, start = []string{s}, i+1
		case isHeading(s), l.p.isSummary(s):
			flush()
		case len(buf) > 0:
			buf = append(buf, s)
		}
	}
	flush()
	return out
}

// ContextWindow parses lines one at a time. A line holding only numbers completes the
// description-only line before it.
type ContextWindow struct {
	p *Patterns
}

func NewContextWindow(p *Patterns) *ContextWindow { return &ContextWindow{p: p} }

func (w *ContextWindow) Name() string { return StrategyContext }

func (w *ContextWindow) Extract(lines []string) []entity.Candidate {
	var (
		out  []entity.Candidate
		prev *entity.Candidate
	)
	for i, line := range lines {
		s := strings.TrimSpace(line)
		if s == "" || isHeading(s) {
			prev = nil
			continue
		}
		c, ok := w.p.looseParse(s, StrategyContext, i+1)
		numbers := c.Quantity.Valid || c.UnitPrice.Valid
		switch {
		case ok && numbers:
			out = append(out, c)
			prev = nil
		case ok:
			prev = &c
		case numbers && c.Description == "" && prev != nil:
			c.Description = prev.Description
			if c.Code == "" {
				c.Code = prev.Code
			}
			c.Line = prev.Line
			out = append(out, c)
			prev = nil
		default:
			prev = nil
		}
	}
	return out
}

// WholeTextPatterns scans the joined text, so items are found regardless of line breaks
// around them.
type WholeTextPatterns struct {
	p *Patterns
}

func NewWholeTextPatterns(p *Patterns) *WholeTextPatterns { return &WholeTextPatterns{p: p} }

func (w *WholeTextPatterns) Name() string { return StrategyWholeText }

func (w *WholeTextPatterns) Extract(lines []string) []entity.Candidate {
	text := strings.Join(lines, "\n")
	var (
		out     []entity.Candidate
		claimed [][2]int
	)
	overlaps := func(a, b int) bool {
		for _, span := range claimed {
			if a < span[1] && b > span[0] {
				return true
			}
		}
		return false
	}
	for _, re := range w.p.WholeText {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			if overlaps(m[0], m[1]) {
				continue
			}
			line := strings.Count(text[:m[0]], "\n") + 1
			if c, ok := w.p.fromGroups(groups(re, text, m), StrategyWholeText, line); ok {
				out = append(out, c)
				claimed = append(claimed, [2]int{m[0], m[1]})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}

// looseParse reads an item from a single line without a fixed template: an optional leading
// code, the last quantity+unit pair, and explicit money tokens outside it (smallest is the unit
// price, largest the total). The description runs from the first letter to the first number
// field. ok is false when no description was found; the numeric fields are still filled.
func (p *Patterns) looseParse(s, strategy string, line int) (entity.Candidate, bool) {
	c := entity.Candidate{Strategy: strategy, Line: line}
	rest := strings.TrimSpace(s)
	if m := p.LeadingCode.FindStringSubmatchIndex(rest); m != nil && p.startsItem(rest) {
		c.Code = groups(p.LeadingCode, rest, m)["code"]
		rest = rest[m[1]:]
	}

	numStart := len(rest)
	qtySpan := [2]int{-1, -1}
	if all := p.QtyUnit.FindAllStringSubmatchIndex(rest, -1); len(all) > 0 {
		m := all[len(all)-1]
		f := groups(p.QtyUnit, rest, m)
		if q, ok := ParseAmount(f["qty"]); ok {
			c.Quantity = entity.Dec(q)
			c.Unit = f["unit"]
			qtySpan = [2]int{m[0], m[1]}
			numStart = m[0]
		}
	}

	var prices []decimal.Decimal
	for _, a := range FindAmounts(rest) {
		if !a.Explicit || a.Percent || (a.Start < qtySpan[1] && a.End > qtySpan[0]) {
			continue
		}
		prices = append(prices, a.Value)
		if a.Start < numStart {
			numStart = a.Start
		}
	}
	setPrices(&c, prices)

	if loc := p.Letter.FindStringIndex(rest); loc != nil && loc[0] < numStart {
		c.Description = strings.Trim(strings.TrimSpace(rest[loc[0]:numStart]), "-:;,")
	}
	return c, p.accept(c)
}

// setPrices assigns the smallest amount to the unit price and, when there are several, the
// largest to the total.
func setPrices(c *entity.Candidate, prices []decimal.Decimal) {
	if len(prices) == 0 {
		return
	}
	lo, hi := prices[0], prices[0]
	for _, d := range prices[1:] {
		if d.LessThan(lo) {
			lo = d
		}
		if d.GreaterThan(hi) {
			hi = d
		}
	}
	c.UnitPrice = entity.Dec(lo)
	if len(prices) > 1 {
		c.TotalPrice = entity.Dec(hi)
	}
}
