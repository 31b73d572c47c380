package ocr

import (
	"context"
	"strings"
	"testing"
)

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t800\t600\t-1\t\n" +
	"4\t1\t1\t1\t1\t0\t10\t10\t300\t20\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t10\t10\t50\t20\t91.5\t01.01\n" +
	"5\t1\t1\t1\t1\t2\t70\t10\t80\t20\t88\tMuro\n" +
	"5\t1\t1\t1\t2\t1\t10\t40\t60\t20\t75\tTOTAL\n" +
	"5\t1\t2\t1\t1\t1\t10\t80\t60\t20\t-1\t \n" +
	"5\t1\t2\t1\t1\t2\t90\t80\t60\t20\t60\t$100.00\n"

func TestParseTSV(t *testing.T) {
	tokens, err := ParseTSV(sampleTSV)
	if err != nil {
		t.Fatalf("ParseTSV: %v", err)
	}
	if len(tokens) != 4 {
		t.Fatalf("tokens = %d, want 4", len(tokens))
	}
	if tokens[0].Text != "01.01" || tokens[0].Confidence != 91.5 || tokens[0].Box != (Box{X: 10, Y: 10, W: 50, H: 20}) {
		t.Errorf("token 0 = %+v", tokens[0])
	}
	wantLines := []int{0, 0, 1, 2}
	for i, tok := range tokens {
		if tok.Line != wantLines[i] {
			t.Errorf("token %q line = %d, want %d", tok.Text, tok.Line, wantLines[i])
		}
	}
}

func TestParseTSVMalformed(t *testing.T) {
	bad := "header\n5\tx\t1\t1\t1\t1\t1\t1\t1\t1\t90\tword\n"
	if _, err := ParseTSV(bad); err == nil {
		t.Fatal("expected error")
	}
}

type tsvRunner struct{ args []string }

func (r *tsvRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.args = append([]string{name}, args...)
	return []byte(sampleTSV), nil, nil
}

func TestTesseractRecognizerArgs(t *testing.T) {
	r := &tsvRunner{}
	rec := NewTesseractRecognizer(TesseractConfig{Lang: "spa", PSM: 6, TessdataDir: "/td", WorkDir: t.TempDir()}, r, nil)
	tokens, err := rec.Recognize(context.Background(), blank(10, 10))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(tokens) != 4 {
		t.Fatalf("tokens = %d", len(tokens))
	}
	got := strings.Join(r.args, " ")
	for _, want := range []string{"tesseract ", " stdout -l spa", "--psm 6", "--tessdata-dir /td", " tsv"} {
		if !strings.Contains(got, want) {
			t.Errorf("args %q missing %q", got, want)
		}
	}
}

func TestNewRecognizerUnknownBackend(t *testing.T) {
	if _, err := NewRecognizer("abbyy", TesseractConfig{}, &tsvRunner{}, nil); err == nil {
		t.Fatal("expected error")
	}
}
