// Package extract turns budget text lines into line item candidates.
package extract

import (
	"strings"

	"github.com/joseph-ayodele/budget-extractor/internal/entity"
)

// Strategy extracts candidates from text lines.
type Strategy interface {
	Name() string
	Extract(lines []string) []entity.Candidate
}

const (
	StrategyTable     = "table"
	StrategyList      = "list"
	StrategyMixed     = "mixed"
	StrategyLineBreak = "line_break_buffering"
	StrategyContext   = "context_window"
	StrategyWholeText = "whole_text_patterns"
)

// fromGroups builds a candidate from named submatches.
func (p *Patterns) fromGroups(f map[string]string, strategy string, line int) (entity.Candidate, bool) {
	c := entity.Candidate{
		Code:        f["code"],
		Description: strings.Trim(strings.TrimSpace(f["desc"]), "-:;,"),
		Unit:        f["unit"],
		Strategy:    strategy,
		Line:        line,
	}
	if q, ok := ParseAmount(f["qty"]); ok {
		c.Quantity = entity.Dec(q)
	}
	if v, ok := ParseAmount(f["price"]); ok {
		c.UnitPrice = entity.Dec(v)
	}
	if v, ok := ParseAmount(f["total"]); ok {
		c.TotalPrice = entity.Dec(v)
	}
	return c, p.accept(c)
}

// accept rejects candidates without a description and summary rows (subtotal, tax, total, profit).
func (p *Patterns) accept(c entity.Candidate) bool {
	d := strings.TrimSpace(c.Description)
	if d == "" || !p.Letter.MatchString(d) {
		return false
	}
	return !p.isSummary(d)
}

// isSummary reports lines that open with a subtotal, tax, total or profit keyword.
func (p *Patterns) isSummary(s string) bool {
	if p.Summary == nil {
		return false
	}
	loc := p.Summary.FindStringIndex(s)
	return loc != nil && loc[0] == 0
}

// matchList applies the list templates in priority order; the first match wins.
func (p *Patterns) matchList(s string, strategy string, line int) (entity.Candidate, bool) {
	for _, re := range p.List {
		loc := re.FindStringSubmatchIndex(s)
		if loc == nil {
			continue
		}
		if c, ok := p.fromGroups(groups(re, s, loc), strategy, line); ok {
			return c, true
		}
	}
	return entity.Candidate{}, false
}
