package ocr

import (
	"math"
	"sort"
	"strings"
)

// GroupLines groups tokens by recognizer line index and rebuilds each line left to right.
// Blank tokens are ignored. Lines come back ordered by index.
func GroupLines(tokens []Token) []Line {
	byLine := make(map[int][]Token)
	for _, t := range tokens {
		t.Text = strings.TrimSpace(t.Text)
		if t.Text == "" {
			continue
		}
		byLine[t.Line] = append(byLine[t.Line], t)
	}
	idx := make([]int, 0, len(byLine))
	for k := range byLine {
		idx = append(idx, k)
	}
	sort.Ints(idx)

	lines := make([]Line, 0, len(idx))
	for _, k := range idx {
		toks := byLine[k]
		sort.SliceStable(toks, func(i, j int) bool { return toks[i].Box.X < toks[j].Box.X })
		words := make([]string, len(toks))
		for i, t := range toks {
			words[i] = t.Text
		}
		lines = append(lines, Line{
			Index:  k,
			Text:   strings.Join(words, " "),
			Tokens: toks,
			Y:      toks[0].Box.Y,
		})
	}
	return lines
}

// Row is a detected table row: tokens sharing a y bucket, left to right.
type Row struct {
	Y      int
	Tokens []Token
	Text   string
}

// DetectTable buckets tokens by y rounded to bucket pixels. Buckets holding at least 3 tokens
// are rows; 3 or more rows, sorted by y, form the table. Returns nil when no table is found.
func DetectTable(tokens []Token, bucket int) []Row {
	if bucket <= 0 {
		bucket = 10
	}
	buckets := make(map[int][]Token)
	for _, t := range tokens {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		key := int(math.Round(float64(t.Box.Y)/float64(bucket))) * bucket
		buckets[key] = append(buckets[key], t)
	}
	var rows []Row
	for y, toks := range buckets {
		if len(toks) < 3 {
			continue
		}
		sort.SliceStable(toks, func(i, j int) bool { return toks[i].Box.X < toks[j].Box.X })
		words := make([]string, len(toks))
		for i, t := range toks {
			words[i] = strings.TrimSpace(t.Text)
		}
		rows = append(rows, Row{Y: y, Tokens: toks, Text: strings.Join(words, " ")})
	}
	if len(rows) < 3 {
		return nil
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Y < rows[j].Y })
	return rows
}
