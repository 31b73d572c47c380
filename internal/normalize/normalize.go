// Package normalize turns extraction candidates into validated, deduplicated line items.
package normalize

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/joseph-ayodele/budget-extractor/internal/locale"
	"github.com/shopspring/decimal"
)

const (
	dedupPrefixRunes = 50
	autoCodeFormat   = "AUTO_%03d"
)

// Result is the normalizer output. Items keep discovery order.
type Result struct {
	Items      []entity.LineItem
	Dropped    int
	Duplicates int
	Warnings   []string
}

type Normalizer struct {
	loc    *locale.Locale
	logger *slog.Logger
}

func New(loc *locale.Locale, logger *slog.Logger) *Normalizer {
	if loc == nil {
		loc = locale.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{loc: loc, logger: logger}
}

// Normalize cleans descriptions, canonicalizes units, derives missing totals, drops invalid
// candidates, assigns AUTO_### codes and collapses duplicates on (code, description prefix).
// Running it again on its own output yields the same items.
func (n *Normalizer) Normalize(cands []entity.Candidate) Result {
	var (
		res  Result
		auto int
		seen = make(map[string]struct{}, len(cands))
	)
	for _, c := range cands {
		item := n.clean(c)
		if !item.Valid() || negative(item) {
			res.Dropped++
			n.logger.Debug("normalize.drop", "line", c.Line, "strategy", c.Strategy, "description", c.Description)
			continue
		}
		if item.Code == "" {
			auto++
			item.Code = fmt.Sprintf(autoCodeFormat, auto)
		}
		key := dedupKey(item)
		if _, dup := seen[key]; dup {
			res.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		res.Items = append(res.Items, item)
	}

	if res.Dropped > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("dropped %d invalid candidates", res.Dropped))
	}
	if res.Duplicates > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("collapsed %d duplicate items", res.Duplicates))
	}
	if k := incomplete(res.Items); k > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d items lack quantity or unit price", k))
	}
	n.logger.Debug("normalize.ok", "candidates", len(cands), "items", len(res.Items),
		"dropped", res.Dropped, "duplicates", res.Duplicates)
	return res
}

func (n *Normalizer) clean(c entity.Candidate) entity.LineItem {
	item := entity.LineItem{
		Code:        strings.TrimSpace(c.Code),
		Description: strings.Join(strings.Fields(c.Description), " "),
		Quantity:    c.Quantity,
		UnitPrice:   c.UnitPrice,
		TotalPrice:  c.TotalPrice,
	}
	if c.Unit != "" {
		// unknown spellings come back normalized and pass through
		item.Unit, _ = n.loc.CanonicalUnit(c.Unit)
	}
	if !item.TotalPrice.Valid && item.Quantity.Valid && item.UnitPrice.Valid {
		item.TotalPrice = entity.Dec(item.Quantity.Decimal.Mul(item.UnitPrice.Decimal))
	}
	return item
}

func negative(item entity.LineItem) bool {
	for _, d := range []decimal.NullDecimal{item.Quantity, item.UnitPrice, item.TotalPrice} {
		if d.Valid && d.Decimal.IsNegative() {
			return true
		}
	}
	return false
}

func dedupKey(item entity.LineItem) string {
	desc := []rune(strings.ToLower(item.Description))
	if len(desc) > dedupPrefixRunes {
		desc = desc[:dedupPrefixRunes]
	}
	return item.Code + "\x00" + string(desc)
}

func incomplete(items []entity.LineItem) int {
	k := 0
	for _, it := range items {
		if !it.Complete() {
			k++
		}
	}
	return k
}
