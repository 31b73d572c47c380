package extract

import (
	"strings"

	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/shopspring/decimal"
)

// Table reads rows whose columns are separated by runs of two or more spaces or tabs.
type Table struct {
	p *Patterns
}

func NewTable(p *Patterns) *Table { return &Table{p: p} }

func (t *Table) Name() string { return StrategyTable }

func (t *Table) Extract(lines []string) []entity.Candidate {
	var out []entity.Candidate
	for i, line := range lines {
		if c, ok := t.parseRow(line); ok {
			c.Line = i + 1
			out = append(out, c)
		}
	}
	return out
}

// parseRow maps a row's columns to fields. The code sits in the first column, or the second
// after a row number, and the description follows it. Among the remaining fully money-shaped columns the smallest is
// the unit price and the largest the total.
func (t *Table) parseRow(line string) (entity.Candidate, bool) {
	var cols []string
	for _, col := range t.p.ColumnSplit.Split(strings.TrimSpace(line), -1) {
		if col = strings.TrimSpace(col); col != "" {
			cols = append(cols, col)
		}
	}
	if len(cols) < 4 {
		return entity.Candidate{}, false
	}

	c := entity.Candidate{Strategy: StrategyTable}
	used := make([]bool, len(cols))
	desc := 0
	switch {
	case rowNumber(cols[0]) && t.p.Code.MatchString(cols[1]):
		c.Code = cols[1]
		used[0], used[1] = true, true
		desc = 2
	case t.p.Code.MatchString(cols[0]):
		c.Code = cols[0]
		used[0] = true
		desc = 1
	case !t.p.Letter.MatchString(cols[0]) && t.p.Code.MatchString(cols[1]):
		// the second column only holds the code when the first carries no letters
		c.Code = cols[1]
		used[1] = true
		desc = 2
	}
	c.Description = cols[desc]
	used[desc] = true
	if !t.p.accept(c) {
		return entity.Candidate{}, false
	}

	unitCol := -1
	for i, col := range cols {
		if used[i] {
			continue
		}
		if !c.Quantity.Valid {
			if m := t.p.QtyUnitFull.FindStringSubmatchIndex(col); m != nil {
				f := groups(t.p.QtyUnitFull, col, m)
				if q, ok := ParseAmount(f["qty"]); ok {
					c.Quantity = entity.Dec(q)
					c.Unit = f["unit"]
					used[i] = true
					continue
				}
			}
		}
		if c.Unit == "" {
			if m := t.p.UnitOnly.FindStringSubmatchIndex(col); m != nil {
				c.Unit = groups(t.p.UnitOnly, col, m)["unit"]
				used[i] = true
				unitCol = i
			}
		}
	}
	// A bare unit column takes its quantity from the plain number beside it.
	if !c.Quantity.Valid && unitCol >= 0 {
		for _, j := range []int{unitCol - 1, unitCol + 1} {
			if j < 0 || j >= len(cols) || used[j] || !t.p.Number.MatchString(cols[j]) {
				continue
			}
			if q, ok := ParseAmount(cols[j]); ok {
				c.Quantity = entity.Dec(q)
				used[j] = true
				break
			}
		}
	}

	var prices []decimal.Decimal
	for i, col := range cols {
		if used[i] || !t.p.MoneyFull.MatchString(col) {
			continue
		}
		if d, ok := ParseAmount(col); ok {
			prices = append(prices, d)
		}
	}
	setPrices(&c, prices)
	if !c.Quantity.Valid && !c.UnitPrice.Valid {
		return entity.Candidate{}, false
	}
	return c, true
}

// rowNumber reports whether s is a bare sequence number such as "1" or "12".
func rowNumber(s string) bool {
	if s == "" || len(s) > 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
