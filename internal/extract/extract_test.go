package extract

import (
	"strings"
	"testing"

	"github.com/joseph-ayodele/budget-extractor/constants"
	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.NullDecimal {
	return entity.Dec(decimal.RequireFromString(s))
}

func sameDec(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}

func checkCandidate(t *testing.T, got, want entity.Candidate) {
	t.Helper()
	if got.Code != want.Code || got.Description != want.Description || got.Unit != want.Unit {
		t.Fatalf("got %q/%q/%q, want %q/%q/%q", got.Code, got.Description, got.Unit, want.Code, want.Description, want.Unit)
	}
	if !sameDec(got.Quantity, want.Quantity) || !sameDec(got.UnitPrice, want.UnitPrice) || !sameDec(got.TotalPrice, want.TotalPrice) {
		t.Fatalf("amounts = %v/%v/%v, want %v/%v/%v", got.Quantity, got.UnitPrice, got.TotalPrice, want.Quantity, want.UnitPrice, want.TotalPrice)
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1500.00", "1500", true},
		{"$12,345.67", "12345.67", true},
		{"1.234,56", "1234.56", true},
		{"150,00", "150", true},
		{"1,500", "1500", true},
		{"1.500.000", "1500000", true},
		{"€ 80", "80", true},
		{"", "", false},
		{"abc", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseAmount(tc.in)
		if ok != tc.ok {
			t.Fatalf("ParseAmount(%q) ok = %v, want %v", tc.in, ok, tc.ok)
		}
		if ok && !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("ParseAmount(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestFindAmounts(t *testing.T) {
	got := FindAmounts("IVA 16% DEM01 20 m3 $1,600.00")
	if len(got) != 3 {
		t.Fatalf("FindAmounts = %+v, want 3 tokens", got)
	}
	if !got[0].Percent || got[0].Explicit {
		t.Fatalf("16%% token = %+v", got[0])
	}
	if got[1].Explicit {
		t.Fatalf("bare 20 should not be explicit: %+v", got[1])
	}
	if !got[2].Explicit || !got[2].Value.Equal(decimal.RequireFromString("1600")) {
		t.Fatalf("last token = %+v", got[2])
	}
}

func TestTableRow(t *testing.T) {
	tbl := NewTable(NewPatterns(nil))
	cases := []struct {
		name string
		line string
		want entity.Candidate
	}{
		{
			name: "quantity and unit in one column",
			line: "01.01.01  Demolición de concreto  10.00 m3  150.00  1500.00",
			want: entity.Candidate{Code: "01.01.01", Description: "Demolición de concreto", Unit: "m3",
				Quantity: dec("10"), UnitPrice: dec("150"), TotalPrice: dec("1500")},
		},
		{
			name: "separate unit column",
			line: "DEM01     Demolición de concreto      10.00     m3      150.00    1500.00",
			want: entity.Candidate{Code: "DEM01", Description: "Demolición de concreto", Unit: "m3",
				Quantity: dec("10"), UnitPrice: dec("150"), TotalPrice: dec("1500")},
		},
		{
			name: "three money columns keep smallest and largest",
			line: "01.03.01  Muro de block  12 m2  15.00  120.00  1440.00",
			want: entity.Candidate{Code: "01.03.01", Description: "Muro de block", Unit: "m2",
				Quantity: dec("12"), UnitPrice: dec("15"), TotalPrice: dec("1440")},
		},
		{
			name: "row number before code",
			line: "1    01.01.01    Demolición de concreto    10.00 m3    150.00    1500.00",
			want: entity.Candidate{Code: "01.01.01", Description: "Demolición de concreto", Unit: "m3",
				Quantity: dec("10"), UnitPrice: dec("150"), TotalPrice: dec("1500")},
		},
		{
			name: "no code",
			line: "Limpieza final  1 global  2.500,00  2.500,00",
			want: entity.Candidate{Description: "Limpieza final", Unit: "global",
				Quantity: dec("1"), UnitPrice: dec("2500"), TotalPrice: dec("2500")},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tbl.Extract([]string{tc.line})
			if len(got) != 1 {
				t.Fatalf("Extract = %+v, want one candidate", got)
			}
			checkCandidate(t, got[0], tc.want)
			if got[0].Strategy != StrategyTable || got[0].Line != 1 {
				t.Fatalf("strategy/line = %s/%d", got[0].Strategy, got[0].Line)
			}
		})
	}
}

func TestTableSkipsHeadersAndShortRows(t *testing.T) {
	tbl := NewTable(NewPatterns(nil))
	lines := []string{
		"PRESUPUESTO DE OBRA",
		"Código    Descripción    Cantidad    Precio    Total",
		"TOTAL    4000.00",
		"SUBTOTAL    IMPORTE    NETO    12,345.67",
	}
	if got := tbl.Extract(lines); len(got) != 0 {
		t.Fatalf("Extract = %+v, want nothing", got)
	}
}

func TestListTemplates(t *testing.T) {
	l := NewList(NewPatterns(nil))
	got := l.Extract([]string{
		"01.02.01 Excavación manual 20 m3 $80.00",
		"01.02.02 Relleno compactado 15 m3 $95.50 $1,432.50",
		"01.02.03 Acarreo 30 $20.00",
		"01.02.04 Cimbra común 12 m2",
	})
	want := []entity.Candidate{
		{Code: "01.02.01", Description: "Excavación manual", Unit: "m3", Quantity: dec("20"), UnitPrice: dec("80")},
		{Code: "01.02.02", Description: "Relleno compactado", Unit: "m3", Quantity: dec("15"), UnitPrice: dec("95.50"), TotalPrice: dec("1432.50")},
		{Code: "01.02.03", Description: "Acarreo", Quantity: dec("30"), UnitPrice: dec("20")},
		{Code: "01.02.04", Description: "Cimbra común", Unit: "m2", Quantity: dec("12")},
	}
	if len(got) != len(want) {
		t.Fatalf("Extract = %+v, want %d candidates", got, len(want))
	}
	for i := range want {
		checkCandidate(t, got[i], want[i])
	}
}

func TestListContinuationLines(t *testing.T) {
	l := NewList(NewPatterns(nil))
	got := l.Extract([]string{
		"01.02.01 Excavación manual 20 m3 $80.00",
		"en material tipo II, incluye acarreo",
		"ver nota",
		"01.02.02 Relleno compactado 15 m3 $95.50",
		"CAPÍTULO 2",
		"texto suelto que no continúa nada",
	})
	if len(got) != 2 {
		t.Fatalf("Extract = %+v, want 2 candidates", got)
	}
	if got[0].Description != "Excavación manual en material tipo II, incluye acarreo" {
		t.Fatalf("first description = %q", got[0].Description)
	}
	if got[1].Description != "Relleno compactado" {
		t.Fatalf("second description = %q", got[1].Description)
	}
}

func TestListSummaryRowEndsDescription(t *testing.T) {
	l := NewList(NewPatterns(nil))
	got := l.Extract([]string{
		"02.01.01 Cimbra de madera 120 m2 $210.00",
		"Subtotal del capítulo $25,200.00",
		"continuación que ya no pertenece al item",
	})
	if len(got) != 1 {
		t.Fatalf("Extract = %+v, want 1 candidate", got)
	}
	if got[0].Description != "Cimbra de madera" {
		t.Fatalf("description = %q", got[0].Description)
	}
}

func TestContextWindowJoinsWrappedNumbers(t *testing.T) {
	w := NewContextWindow(NewPatterns(nil))
	got := w.Extract([]string{
		"01.02.01 Excavación manual",
		"20 m3 $80.00",
		"Relleno compactado 15 m3 $95.50",
	})
	if len(got) != 2 {
		t.Fatalf("Extract = %+v, want 2 candidates", got)
	}
	checkCandidate(t, got[0], entity.Candidate{Code: "01.02.01", Description: "Excavación manual", Unit: "m3",
		Quantity: dec("20"), UnitPrice: dec("80")})
	if got[0].Line != 1 {
		t.Fatalf("line = %d, want 1", got[0].Line)
	}
	checkCandidate(t, got[1], entity.Candidate{Description: "Relleno compactado", Unit: "m3",
		Quantity: dec("15"), UnitPrice: dec("95.50")})
}

func TestLineBreakBuffering(t *testing.T) {
	b := NewLineBreakBuffering(NewPatterns(nil))
	got := b.Extract([]string{
		"preámbulo sin código 10 m2 $5.00",
		"01.02.01 Excavación manual",
		"en material tipo II",
		"20 m3 $80.00",
		"CAPÍTULO 2 ESTRUCTURA",
		"02.01.01 Cimbra de madera 120 m2 $210.00",
	})
	if len(got) != 2 {
		t.Fatalf("Extract = %+v, want 2 candidates", got)
	}
	checkCandidate(t, got[0], entity.Candidate{Code: "01.02.01", Description: "Excavación manual en material tipo II",
		Unit: "m3", Quantity: dec("20"), UnitPrice: dec("80")})
	if got[0].Line != 2 {
		t.Fatalf("line = %d, want 2", got[0].Line)
	}
}

func TestWholeTextSplitsMergedItems(t *testing.T) {
	w := NewWholeTextPatterns(NewPatterns(nil))
	got := w.Extract([]string{
		"01.01.01 Excavación manual 20 m3 80.00 1600.00 02.01.01 Relleno compactado 15 m3 95.50",
	})
	if len(got) != 2 {
		t.Fatalf("Extract = %+v, want 2 candidates", got)
	}
	checkCandidate(t, got[0], entity.Candidate{Code: "01.01.01", Description: "Excavación manual", Unit: "m3",
		Quantity: dec("20"), UnitPrice: dec("80"), TotalPrice: dec("1600")})
	checkCandidate(t, got[1], entity.Candidate{Code: "02.01.01", Description: "Relleno compactado", Unit: "m3",
		Quantity: dec("15"), UnitPrice: dec("95.50")})
}

type fixedStrategy struct {
	name string
	out  []entity.Candidate
}

func (f fixedStrategy) Name() string { return f.name }
func (f fixedStrategy) Extract([]string) []entity.Candidate { return f.out }

func TestBestOfPicksHighestScoreAndKeepsEarlierOnTie(t *testing.T) {
	one := []entity.Candidate{{Description: "a", Quantity: dec("1")}}
	two := append(one, entity.Candidate{Description: "b", UnitPrice: dec("2")})
	invalid := []entity.Candidate{{Description: "x"}, {Description: "y"}, {Description: "z"}}

	cases := []struct {
		name       string
		strategies []Strategy
		want       string
	}{
		{"highest wins", []Strategy{fixedStrategy{"a", one}, fixedStrategy{"b", two}}, "b"},
		{"tie keeps earlier", []Strategy{fixedStrategy{"a", two}, fixedStrategy{"b", two}}, "a"},
		{"invalid candidates do not count", []Strategy{fixedStrategy{"a", one}, fixedStrategy{"b", invalid}}, "a"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			name, _ := NewBestOf(nil, tc.strategies...).Pick(nil)
			if name != tc.want {
				t.Fatalf("Pick = %s, want %s", name, tc.want)
			}
		})
	}

	byCount := func(cs []entity.Candidate) float64 { return float64(len(cs)) }
	name, _ := NewBestOf(byCount, fixedStrategy{"a", one}, fixedStrategy{"b", invalid}).Pick(nil)
	if name != "b" {
		t.Fatalf("custom scorer Pick = %s, want b", name)
	}
}

const listText = `CAPÍTULO 1 PRELIMINARES
01.02.01 Excavación manual 20 m3 $80.00
01.02.02 Relleno compactado 15 m3 $95.50
CAPÍTULO 2 ESTRUCTURA
02.01.01 Cimbra de madera 120 m2 $210.00`

func TestExtractorDispatch(t *testing.T) {
	e := NewExtractor(nil, nil)

	out := e.Extract(listText, constants.FormatList)
	if out.Strategy != StrategyList || len(out.Candidates) != 3 || len(out.Warnings) != 0 {
		t.Fatalf("list outcome = %+v", out)
	}

	out = e.Extract(listText, constants.FormatTable)
	if !strings.HasPrefix(out.Strategy, StrategyMixed+"/") {
		t.Fatalf("strategy = %s, want mixed fallback", out.Strategy)
	}
	if len(out.Warnings) != 1 || !strings.Contains(out.Warnings[0], "table") {
		t.Fatalf("warnings = %v", out.Warnings)
	}
	if CountValid(out.Candidates) != 3 {
		t.Fatalf("fallback candidates = %+v", out.Candidates)
	}

	out = e.Extract(listText, constants.FormatUnknown)
	if out.Strategy != StrategyMixed+"/"+StrategyLineBreak {
		t.Fatalf("unknown strategy = %s", out.Strategy)
	}
}

func TestExtractorOptions(t *testing.T) {
	custom := fixedStrategy{"custom", []entity.Candidate{{Description: "x", Quantity: dec("1")}}}
	e := NewExtractor(nil, nil, WithStrategy(constants.FormatTable, custom))
	out := e.Extract("anything", constants.FormatTable)
	if out.Strategy != "custom" || len(out.Candidates) != 1 {
		t.Fatalf("outcome = %+v", out)
	}

	preferWhole := func(cs []entity.Candidate) float64 {
		if len(cs) > 0 && cs[0].Strategy == StrategyWholeText {
			return 1
		}
		return 0
	}
	e = NewExtractor(nil, nil, WithScorer(preferWhole))
	out = e.Extract(listText, constants.FormatMixed)
	if out.Strategy != StrategyMixed+"/"+StrategyWholeText || len(out.Candidates) != 3 {
		t.Fatalf("outcome = %s with %d candidates", out.Strategy, len(out.Candidates))
	}
}
