package normalize

import (
	"reflect"
	"strings"
	"testing"

	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.NullDecimal {
	return entity.Dec(decimal.RequireFromString(s))
}

func TestNormalizeDerivesTotal(t *testing.T) {
	res := New(nil, nil).Normalize([]entity.Candidate{{
		Code:        "01.02.01",
		Description: "Excavación   manual\n a mano",
		Unit:        "M3.",
		Quantity:    dec("20"),
		UnitPrice:   dec("80.00"),
	}})
	if len(res.Items) != 1 {
		t.Fatalf("items = %+v", res.Items)
	}
	it := res.Items[0]
	if it.Description != "Excavación manual a mano" {
		t.Fatalf("description = %q", it.Description)
	}
	if it.Unit != "m3" {
		t.Fatalf("unit = %q, want m3", it.Unit)
	}
	if !it.TotalPrice.Valid || !it.TotalPrice.Decimal.Equal(decimal.RequireFromString("1600")) {
		t.Fatalf("total = %v, want 1600", it.TotalPrice)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("warnings = %v", res.Warnings)
	}
}

func TestNormalizeKeepsExplicitTotal(t *testing.T) {
	res := New(nil, nil).Normalize([]entity.Candidate{{
		Description: "Muro", Quantity: dec("3"), UnitPrice: dec("10"), TotalPrice: dec("31"),
	}})
	if got := res.Items[0].TotalPrice.Decimal; !got.Equal(decimal.NewFromInt(31)) {
		t.Fatalf("total = %s, want the extracted 31", got)
	}
}

func TestNormalizeUnits(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"m3", "m3"},
		{"M2", "m2"},
		{"pza", "pieza"},
		{"Lote Especial", "lote especial"},
		{"", ""},
	}
	n := New(nil, nil)
	for _, tc := range cases {
		res := n.Normalize([]entity.Candidate{{Description: "x", Unit: tc.in, Quantity: dec("1")}})
		if got := res.Items[0].Unit; got != tc.want {
			t.Fatalf("unit %q -> %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeDropsInvalid(t *testing.T) {
	res := New(nil, nil).Normalize([]entity.Candidate{
		{Description: "sin cantidades"},
		{Description: "", Quantity: dec("1")},
		{Description: "cero", Quantity: dec("0"), UnitPrice: dec("0")},
		{Description: "negativo", Quantity: dec("2"), UnitPrice: dec("-5")},
		{Description: "válido", Quantity: dec("2")},
	})
	if len(res.Items) != 1 || res.Items[0].Description != "válido" {
		t.Fatalf("items = %+v", res.Items)
	}
	if res.Dropped != 4 {
		t.Fatalf("dropped = %d, want 4", res.Dropped)
	}
	want := []string{"dropped 4 invalid candidates", "1 items lack quantity or unit price"}
	if !reflect.DeepEqual(res.Warnings, want) {
		t.Fatalf("warnings = %v, want %v", res.Warnings, want)
	}
}

func TestNormalizeAutoCodes(t *testing.T) {
	res := New(nil, nil).Normalize([]entity.Candidate{
		{Description: "uno", Quantity: dec("1")},
		{Code: "02.01", Description: "dos", Quantity: dec("1")},
		{Description: "tres", Quantity: dec("1")},
	})
	var codes []string
	for _, it := range res.Items {
		codes = append(codes, it.Code)
	}
	if want := []string{"AUTO_001", "02.01", "AUTO_002"}; !reflect.DeepEqual(codes, want) {
		t.Fatalf("codes = %v, want %v", codes, want)
	}
}

func TestNormalizeDeduplicates(t *testing.T) {
	long := strings.Repeat("Cimbra de madera para losa ", 3)
	res := New(nil, nil).Normalize([]entity.Candidate{
		{Code: "02.01.01", Description: long + "primer nivel", Quantity: dec("120"), UnitPrice: dec("210")},
		{Code: "02.01.01", Description: strings.ToUpper(long) + "segundo nivel", Quantity: dec("80"), UnitPrice: dec("210")},
		{Code: "02.01.02", Description: long, Quantity: dec("5"), UnitPrice: dec("10")},
	})
	if len(res.Items) != 2 || res.Duplicates != 1 {
		t.Fatalf("items = %d, duplicates = %d", len(res.Items), res.Duplicates)
	}
	if !res.Items[0].Quantity.Decimal.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("first occurrence not kept: %+v", res.Items[0])
	}
	if res.Warnings[0] != "collapsed 1 duplicate items" {
		t.Fatalf("warnings = %v", res.Warnings)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := New(nil, nil)
	first := n.Normalize([]entity.Candidate{
		{Description: "  Relleno  compactado ", Unit: "M3", Quantity: dec("15"), UnitPrice: dec("95.50")},
		{Code: "03.01", Description: "Acero de refuerzo", Unit: "kg", Quantity: dec("1200")},
		{Code: "03.01", Description: "acero de refuerzo", Unit: "kg", Quantity: dec("1200")},
	})
	var again []entity.Candidate
	for _, it := range first.Items {
		again = append(again, it.Candidate())
	}
	second := n.Normalize(again)
	if !reflect.DeepEqual(first.Items, second.Items) {
		t.Fatalf("second pass changed items:\n%+v\n%+v", first.Items, second.Items)
	}
	if second.Dropped != 0 || second.Duplicates != 0 {
		t.Fatalf("second pass dropped %d, collapsed %d", second.Dropped, second.Duplicates)
	}
}
