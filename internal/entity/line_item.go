package entity

import (
	"github.com/shopspring/decimal"
)

// Candidate is a provisionally extracted line item. Any field but Description may be missing.
type Candidate struct {
	Code        string
	Description string
	Unit        string
	Quantity    decimal.NullDecimal
	UnitPrice   decimal.NullDecimal
	TotalPrice  decimal.NullDecimal
	Strategy    string
	Line        int // 1-based source line, 0 when unknown
}

// Valid reports whether the candidate has a description and a positive quantity or unit price.
func (c Candidate) Valid() bool {
	return c.Description != "" && (positive(c.Quantity) || positive(c.UnitPrice))
}

// LineItem is a validated, normalized budget line.
type LineItem struct {
	Code        string              `json:"code"`
	Description string              `json:"description"`
	Unit        string              `json:"unit"`
	Quantity    decimal.NullDecimal `json:"quantity"`
	UnitPrice   decimal.NullDecimal `json:"unit_price"`
	TotalPrice  decimal.NullDecimal `json:"total_price"`
}

// Valid applies the same acceptance rule as Candidate.Valid.
func (li LineItem) Valid() bool {
	return li.Description != "" && (positive(li.Quantity) || positive(li.UnitPrice))
}

// Complete reports whether quantity and unit price are both present and positive.
func (li LineItem) Complete() bool {
	return positive(li.Quantity) && positive(li.UnitPrice)
}

// Candidate converts the item back to a candidate so normalized output can be re-normalized.
func (li LineItem) Candidate() Candidate {
	return Candidate{
		Code:        li.Code,
		Description: li.Description,
		Unit:        li.Unit,
		Quantity:    li.Quantity,
		UnitPrice:   li.UnitPrice,
		TotalPrice:  li.TotalPrice,
	}
}

// Dec wraps a decimal as a present NullDecimal.
func Dec(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func positive(d decimal.NullDecimal) bool {
	return d.Valid && d.Decimal.IsPositive()
}
