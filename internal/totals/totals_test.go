package totals

import (
	"strings"
	"testing"

	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/shopspring/decimal"
)

func amount(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.String()
}

func TestExtractTotals(t *testing.T) {
	cases := []struct {
		name                         string
		text                         string
		subtotal, tax, total, profit string
	}{
		{
			name:     "subtotal then total",
			text:     "Partidas varias\nSUBTOTAL ...... $12,345.67\nnotas\nTOTAL ...... $15,000.00",
			subtotal: "12345.67", tax: "-", total: "15000", profit: "-",
		},
		{
			name:     "percentages are skipped",
			text:     "Subtotal 1.000,00\nIVA 16% 160,00\nTotal general 1.160,00",
			subtotal: "1000", tax: "160", total: "1160", profit: "-",
		},
		{
			name:     "later lines win",
			text:     "TOTAL 100.00\nTOTAL 250.00\nUtilidad 10% 25.00",
			subtotal: "-", tax: "-", total: "250", profit: "25",
		},
		{
			name:     "keyword without amount",
			text:     "TOTAL DE PARTIDAS\nSUB-TOTAL: 90.50",
			subtotal: "90.5", tax: "-", total: "-", profit: "-",
		},
		{
			name:     "keywords inside words do not count",
			text:     "TOTALIZADOR 99.00\nSUBTOTALES 12.00",
			subtotal: "-", tax: "-", total: "-", profit: "-",
		},
	}
	e := New(nil, nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.Extract(tc.text)
			if amount(got.Subtotal) != tc.subtotal || amount(got.Tax) != tc.tax ||
				amount(got.Total) != tc.total || amount(got.Profit) != tc.profit {
				t.Fatalf("Extract = %s/%s/%s/%s, want %s/%s/%s/%s",
					amount(got.Subtotal), amount(got.Tax), amount(got.Total), amount(got.Profit),
					tc.subtotal, tc.tax, tc.total, tc.profit)
			}
		})
	}
}

func TestCheckSum(t *testing.T) {
	stated := entity.Totals{Subtotal: entity.Dec(decimal.NewFromInt(1000)), Total: entity.Dec(decimal.NewFromInt(1160))}
	cases := []struct {
		name string
		t    entity.Totals
		sum  string
		warn bool
	}{
		{"within one percent", stated, "1009.99", false},
		{"exactly one percent", stated, "1010", false},
		{"over one percent", stated, "1020", true},
		{"total used without subtotal", entity.Totals{Total: entity.Dec(decimal.NewFromInt(500))}, "400", true},
		{"nothing stated", entity.Totals{}, "400", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg, warn := CheckSum(tc.t, decimal.RequireFromString(tc.sum))
			if warn != tc.warn {
				t.Fatalf("CheckSum warn = %v (%q), want %v", warn, msg, tc.warn)
			}
			if warn && !strings.Contains(msg, "differs from stated") {
				t.Fatalf("message = %q", msg)
			}
		})
	}
}
