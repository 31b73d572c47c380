package ocr

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/joseph-ayodele/budget-extractor/internal/entity"
)

const (
	columnGap      = 50 // px between sorted x positions that separates two columns
	gridCell       = 10 // px bucket for grid detection
	sameLineDy     = 20 // px of vertical drift still treated as one line when measuring spacing
	alignmentLine  = 15 // px bucket grouping words into lines for alignment
	alignmentWidth = 1000.0
)

// AnalyzeLayout measures the spatial arrangement of recognized words on one page.
func AnalyzeLayout(tokens []Token) entity.PageLayout {
	words := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if strings.TrimSpace(t.Text) != "" {
			words = append(words, t)
		}
	}
	if len(words) == 0 {
		return entity.PageLayout{}
	}

	out := entity.PageLayout{
		Words:                len(words),
		AlignedColumns:       alignedColumns(words),
		GridStructure:        gridStructure(words),
		AvgWordSpacing:       averageSpacing(words),
		AlignmentConsistency: alignmentConsistency(words),
	}
	minY, maxY := words[0].Box.Y, words[0].Box.Y
	for _, w := range words[1:] {
		minY = min(minY, w.Box.Y)
		maxY = max(maxY, w.Box.Y)
	}
	if maxY > minY {
		out.TextDensity = float64(len(words)) / float64(maxY-minY)
	}
	return out
}

func alignedColumns(words []Token) bool {
	xs := make([]int, len(words))
	for i, w := range words {
		xs[i] = w.Box.X
	}
	sort.Ints(xs)
	gaps := 0
	for i := 1; i < len(xs); i++ {
		if xs[i]-xs[i-1] > columnGap {
			gaps++
		}
	}
	return gaps > 3
}

// gridStructure holds when words reuse few distinct rows and columns.
func gridStructure(words []Token) bool {
	if len(words) < 10 {
		return false
	}
	rows := make(map[int]struct{})
	cols := make(map[int]struct{})
	for _, w := range words {
		rows[bucket(w.Box.Y, gridCell)] = struct{}{}
		cols[bucket(w.Box.X, gridCell)] = struct{}{}
	}
	limit := float64(len(words)) * 0.3
	return float64(len(rows)) < limit && float64(len(cols)) < limit
}

func averageSpacing(words []Token) float64 {
	if len(words) < 2 {
		return 0
	}
	sorted := append([]Token(nil), words...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Box.Y != sorted[j].Box.Y {
			return sorted[i].Box.Y < sorted[j].Box.Y
		}
		return sorted[i].Box.X < sorted[j].Box.X
	})
	var sum float64
	n := 0
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1].Box, sorted[i].Box
		if abs(cur.Y-prev.Y) < sameLineDy {
			sum += float64(cur.X - (prev.X + prev.W))
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// alignmentConsistency is 1 when every line's words start at the same x, falling toward 0 as a
// line's words spread across the page.
func alignmentConsistency(words []Token) float64 {
	if len(words) < 2 {
		return 0
	}
	lines := make(map[int][]int)
	for _, w := range words {
		k := bucket(w.Box.Y, alignmentLine)
		lines[k] = append(lines[k], w.Box.X)
	}
	var sum float64
	n := 0
	for _, xs := range lines {
		if len(xs) < 2 {
			continue
		}
		lo, hi := xs[0], xs[0]
		for _, x := range xs[1:] {
			lo = min(lo, x)
			hi = max(hi, x)
		}
		sum += math.Max(0, 1-float64(hi-lo)/alignmentWidth)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// MergeLayouts combines per-page layouts of successful pages, weighting averages by word count.
// It returns nil when no page produced words.
func MergeLayouts(results []PageResult) *entity.PageLayout {
	var (
		out   entity.PageLayout
		pages int
		grids int
	)
	for _, r := range results {
		l := r.Layout
		if r.Failed() || l.Words == 0 {
			continue
		}
		pages++
		w := float64(l.Words)
		out.Words += l.Words
		out.AlignedColumns = out.AlignedColumns || l.AlignedColumns
		if l.GridStructure {
			grids++
		}
		out.TextDensity += l.TextDensity * w
		out.AvgWordSpacing += l.AvgWordSpacing * w
		out.AlignmentConsistency += l.AlignmentConsistency * w
	}
	if pages == 0 {
		return nil
	}
	total := float64(out.Words)
	out.TextDensity /= total
	out.AvgWordSpacing /= total
	out.AlignmentConsistency /= total
	out.GridStructure = grids*2 >= pages
	return &out
}

var (
	reBudgetCode     = regexp.MustCompile(`^(?:\d{2}\.\d{2}\.\d{2}|\d{3}\.\d{3}|[A-Z]{2,3}\d{2,4})\.?$`)
	reBudgetPrice    = regexp.MustCompile(`^\$?(?:\d{1,3}(?:,\d{3})+\.\d{2}|\d{1,3}(?:\.\d{3})+,\d{2}|\d+[.,]\d{2})$`)
	reBudgetQuantity = regexp.MustCompile(`(?i)\b\d+(?:[.,]\d+)?[ \t]*(?:m2|m3|kg|ml|un|ud|und|pza|hm|km|m|l|global|lote)\b`)
	reBudgetChapter  = regexp.MustCompile(`(?i)\b(?:cap[ií]tulo|chapter)\b`)
)

// ScanBudgetPatterns counts item codes, prices, quantities with a unit and chapter headings in
// recognized text. A page with none of them rarely holds budget rows.
func ScanBudgetPatterns(text string) entity.BudgetPatterns {
	out := entity.BudgetPatterns{
		Quantities: len(reBudgetQuantity.FindAllString(text, -1)),
		Chapters:   len(reBudgetChapter.FindAllString(text, -1)),
	}
	for _, f := range strings.Fields(text) {
		switch {
		case reBudgetCode.MatchString(f):
			out.Codes++
		case reBudgetPrice.MatchString(f):
			out.Prices++
		}
	}
	return out
}

func bucket(v, size int) int {
	return int(math.Round(float64(v) / float64(size)))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
