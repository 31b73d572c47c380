package ocr

import "testing"

func TestDetectTable(t *testing.T) {
	row := func(y int, words ...string) []Token {
		out := make([]Token, len(words))
		for i, w := range words {
			out[i] = Token{Text: w, Confidence: 90, Box: Box{X: 300 - i*100, Y: y}}
		}
		return out
	}
	var tokens []Token
	tokens = append(tokens, row(104, "1500.00", "150.00", "Muro")...)
	tokens = append(tokens, row(36, "80.00", "20", "Excavación")...)
	tokens = append(tokens, row(71, "12.00", "3", "Relleno")...)
	tokens = append(tokens, row(200, "solo", "dos")...)

	rows := DetectTable(tokens, 10)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	wantY := []int{40, 70, 100}
	for i, r := range rows {
		if r.Y != wantY[i] {
			t.Errorf("row %d y = %d, want %d", i, r.Y, wantY[i])
		}
	}
	if rows[0].Text != "Excavación 20 80.00" {
		t.Errorf("row text = %q, want tokens ordered by x", rows[0].Text)
	}
}

func TestDetectTableNeedsThreeRows(t *testing.T) {
	tokens := []Token{
		{Text: "a", Box: Box{X: 1, Y: 10}}, {Text: "b", Box: Box{X: 2, Y: 11}}, {Text: "c", Box: Box{X: 3, Y: 9}},
		{Text: "d", Box: Box{X: 1, Y: 30}}, {Text: "e", Box: Box{X: 2, Y: 30}}, {Text: "f", Box: Box{X: 3, Y: 30}},
	}
	if rows := DetectTable(tokens, 10); rows != nil {
		t.Fatalf("two rows must not form a table, got %d", len(rows))
	}
}

func TestGroupLinesOrdersByIndexThenX(t *testing.T) {
	lines := GroupLines([]Token{
		{Text: "b", Box: Box{X: 20}, Line: 3},
		{Text: "z", Box: Box{X: 5}, Line: 1},
		{Text: "a", Box: Box{X: 10}, Line: 3},
	})
	if len(lines) != 2 || lines[0].Index != 1 || lines[1].Text != "a b" {
		t.Fatalf("lines = %+v", lines)
	}
}
