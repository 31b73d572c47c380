package constants

import "strings"

// Unit is the canonical short form of a unit of measure on a budget line.
type Unit string

const (
	UnitMeter       Unit = "m"
	UnitSquareMeter Unit = "m2"
	UnitCubicMeter  Unit = "m3"
	UnitLinearMeter Unit = "ml"
	UnitHectometer  Unit = "hm"
	UnitKilometer   Unit = "km"
	UnitKilogram    Unit = "kg"
	UnitTon         Unit = "ton"
	UnitLiter       Unit = "l"
	UnitEach        Unit = "un"
	UnitPiece       Unit = "pieza"
	UnitSet         Unit = "juego"
	UnitLumpSum     Unit = "global"
	UnitHour        Unit = "h"
)

var allUnits = []Unit{
	UnitMeter,
	UnitSquareMeter,
	UnitCubicMeter,
	UnitLinearMeter,
	UnitHectometer,
	UnitKilometer,
	UnitKilogram,
	UnitTon,
	UnitLiter,
	UnitEach,
	UnitPiece,
	UnitSet,
	UnitLumpSum,
	UnitHour,
}

// Units returns the canonical unit set in declaration order.
func Units() []Unit {
	out := make([]Unit, len(allUnits))
	copy(out, allUnits)
	return out
}

// IsCanonicalUnit reports whether s is already one of the canonical units.
func IsCanonicalUnit(s string) bool {
	for _, u := range allUnits {
		if string(u) == s {
			return true
		}
	}
	return false
}

// DefaultUnitSynonyms returns a fresh copy of the built-in synonym table
// (lowercase spelling -> canonical unit). Spanish and English spellings.
func DefaultUnitSynonyms() map[string]Unit {
	return map[string]Unit{
		"metro":             UnitMeter,
		"metros":            UnitMeter,
		"mts":               UnitMeter,
		"mt":                UnitMeter,
		"meter":             UnitMeter,
		"meters":            UnitMeter,
		"metro cuadrado":    UnitSquareMeter,
		"metros cuadrados":  UnitSquareMeter,
		"mts2":              UnitSquareMeter,
		"m²":                UnitSquareMeter,
		"sqm":               UnitSquareMeter,
		"square meters":     UnitSquareMeter,
		"metro cubico":      UnitCubicMeter,
		"metro cúbico":      UnitCubicMeter,
		"metros cubicos":    UnitCubicMeter,
		"metros cúbicos":    UnitCubicMeter,
		"mts3":              UnitCubicMeter,
		"m³":                UnitCubicMeter,
		"cubic meters":      UnitCubicMeter,
		"metro lineal":      UnitLinearMeter,
		"metros lineales":   UnitLinearMeter,
		"kilogramo":         UnitKilogram,
		"kilogramos":        UnitKilogram,
		"kgs":               UnitKilogram,
		"tonelada":          UnitTon,
		"toneladas":         UnitTon,
		"litro":             UnitLiter,
		"litros":            UnitLiter,
		"lt":                UnitLiter,
		"lts":               UnitLiter,
		"unidad":            UnitEach,
		"unidades":          UnitEach,
		"ud":                UnitEach,
		"uds":               UnitEach,
		"und":               UnitEach,
		"pza":               UnitPiece,
		"pzas":              UnitPiece,
		"piezas":            UnitPiece,
		"jgo":               UnitSet,
		"juegos":            UnitSet,
		"glb":               UnitLumpSum,
		"gl":                UnitLumpSum,
		"lote":              UnitLumpSum,
		"hora":              UnitHour,
		"horas":             UnitHour,
		"hr":                UnitHour,
		"hrs":               UnitHour,
	}
}

// NormalizeUnitText lowercases and trims a raw unit token and strips a trailing dot ("Ud." -> "ud").
func NormalizeUnitText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, ".")
	return strings.Join(strings.Fields(s), " ")
}
