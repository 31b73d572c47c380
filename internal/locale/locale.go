// Package locale holds the keyword sets and unit synonym table the extraction
// stages are configured with. A Locale is read-only once built.
package locale

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/budget-extractor/constants"
)

// Keywords are the upper-case trigger words used by the classifier and the totals extractor.
type Keywords struct {
	Subtotal  []string `yaml:"subtotal"`
	Tax       []string `yaml:"tax"`
	Total     []string `yaml:"total"`
	Profit    []string `yaml:"profit"`
	Chapter   []string `yaml:"chapter"`
	Section   []string `yaml:"section"`
	Breakdown []string `yaml:"breakdown"`
}

// File is the on-disk override format. Empty lists keep the defaults; units are merged.
type File struct {
	Keywords Keywords          `yaml:"keywords"`
	Units    map[string]string `yaml:"units"`
}

// Locale bundles keywords with the unit synonym table.
type Locale struct {
	keywords Keywords
	units    map[string]constants.Unit
}

// Default returns the built-in Spanish/English locale.
func Default() *Locale {
	return &Locale{
		keywords: Keywords{
			Subtotal:  []string{"SUBTOTAL", "SUB-TOTAL", "SUB TOTAL"},
			Tax:       []string{"IVA", "TAX", "IMPUESTO", "VAT"},
			Total:     []string{"TOTAL GENERAL", "TOTAL"},
			Profit:    []string{"BENEFICIO", "GANANCIA", "UTILIDAD", "PROFIT"},
			Chapter:   []string{"CAPÍTULO", "CAPITULO", "CHAPTER"},
			Section:   []string{"CAPÍTULO", "CAPITULO", "CHAPTER", "SECCIÓN", "SECCION", "SECTION"},
			Breakdown: []string{"MATERIALES", "MANO DE OBRA", "EQUIPO", "MATERIALS", "LABOR", "EQUIPMENT"},
		},
		units: constants.DefaultUnitSynonyms(),
	}
}

// Load reads a YAML override file and merges it over Default.
func Load(path string) (*Locale, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locale %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse locale %s: %w", path, err)
	}
	l := Default()
	if err := l.merge(f); err != nil {
		return nil, fmt.Errorf("locale %s: %w", path, err)
	}
	return l, nil
}

// LoadOrDefault returns Default when path is empty.
func LoadOrDefault(path string) (*Locale, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

func (l *Locale) merge(f File) error {
	replace := func(dst *[]string, src []string) {
		if len(src) == 0 {
			return
		}
		out := make([]string, 0, len(src))
		for _, s := range src {
			if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
				out = append(out, s)
			}
		}
		*dst = out
	}
	replace(&l.keywords.Subtotal, f.Keywords.Subtotal)
	replace(&l.keywords.Tax, f.Keywords.Tax)
	replace(&l.keywords.Total, f.Keywords.Total)
	replace(&l.keywords.Profit, f.Keywords.Profit)
	replace(&l.keywords.Chapter, f.Keywords.Chapter)
	replace(&l.keywords.Section, f.Keywords.Section)
	replace(&l.keywords.Breakdown, f.Keywords.Breakdown)

	for raw, canon := range f.Units {
		key := constants.NormalizeUnitText(raw)
		if key == "" {
			continue
		}
		if !constants.IsCanonicalUnit(canon) {
			return fmt.Errorf("unit %q maps to unknown canonical unit %q", raw, canon)
		}
		l.units[key] = constants.Unit(canon)
	}
	return nil
}

// Keywords returns a copy of the keyword sets.
func (l *Locale) Keywords() Keywords {
	cp := func(s []string) []string { return append([]string(nil), s...) }
	k := l.keywords
	return Keywords{
		Subtotal:  cp(k.Subtotal),
		Tax:       cp(k.Tax),
		Total:     cp(k.Total),
		Profit:    cp(k.Profit),
		Chapter:   cp(k.Chapter),
		Section:   cp(k.Section),
		Breakdown: cp(k.Breakdown),
	}
}

// CanonicalUnit maps a raw unit spelling to its canonical form. Unknown units come back
// normalized (lower-cased, trimmed) with ok=false.
func (l *Locale) CanonicalUnit(raw string) (string, bool) {
	key := constants.NormalizeUnitText(raw)
	if key == "" {
		return "", false
	}
	if constants.IsCanonicalUnit(key) {
		return key, true
	}
	if u, ok := l.units[key]; ok {
		return string(u), true
	}
	return key, false
}

// UnitSpellings returns every canonical unit and synonym, longest first, so a regex
// alternation built from it prefers "m2" over "m" and "metros cuadrados" over "metros".
func (l *Locale) UnitSpellings() []string {
	seen := make(map[string]struct{}, len(l.units)+16)
	var out []string
	add := func(s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, u := range constants.Units() {
		add(string(u))
	}
	for s := range l.units {
		add(s)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

// KeywordPattern compiles a case-insensitive matcher for any of kws as a whole word or phrase.
// Returns nil for an empty set.
func KeywordPattern(kws []string) *regexp.Regexp {
	if len(kws) == 0 {
		return nil
	}
	sorted := append([]string(nil), kws...)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	alts := make([]string, len(sorted))
	for i, k := range sorted {
		alts[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}])(?:` + strings.Join(alts, "|") + `)(?:[^\p{L}\p{N}]|$)`)
}
