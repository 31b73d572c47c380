//go:build gosseract

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// GosseractRecognizer runs tesseract in-process through the C API.
type GosseractRecognizer struct {
	langs       []string
	tessdataDir string
	psm         int
}

func newGosseract(cfg TesseractConfig) (Recognizer, error) {
	lang := cfg.Lang
	if lang == "" {
		lang = "spa+eng"
	}
	return &GosseractRecognizer{
		langs:       strings.Split(lang, "+"),
		tessdataDir: cfg.TessdataDir,
		psm:         cfg.PSM,
	}, nil
}

func (g *GosseractRecognizer) Recognize(ctx context.Context, img image.Image) ([]Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode page: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()
	if g.tessdataDir != "" {
		if err := client.SetTessdataPrefix(g.tessdataDir); err != nil {
			return nil, err
		}
	}
	if err := client.SetLanguage(g.langs...); err != nil {
		return nil, err
	}
	if g.psm > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(g.psm)); err != nil {
			return nil, err
		}
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, err
	}
	boxes, err := client.GetBoundingBoxesVerbose()
	if err != nil {
		return nil, fmt.Errorf("gosseract: %w", err)
	}

	type lineKey struct{ block, par, line int }
	lineIdx := make(map[lineKey]int)
	tokens := make([]Token, 0, len(boxes))
	for _, b := range boxes {
		if strings.TrimSpace(b.Word) == "" {
			continue
		}
		key := lineKey{b.BlockNum, b.ParNum, b.LineNum}
		idx, seen := lineIdx[key]
		if !seen {
			idx = len(lineIdx)
			lineIdx[key] = idx
		}
		tokens = append(tokens, Token{
			Text:       b.Word,
			Confidence: b.Confidence,
			Box:        Box{X: b.Box.Min.X, Y: b.Box.Min.Y, W: b.Box.Dx(), H: b.Box.Dy()},
			Line:       idx,
		})
	}
	return tokens, nil
}
