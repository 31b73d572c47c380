package ocr

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
)

// Step is one image transform.
type Step struct {
	Name  string
	Apply func(image.Image) image.Image
}

// Preprocessor applies its steps in order. Any failing step makes Apply return the original image.
type Preprocessor struct {
	Steps  []Step
	logger *slog.Logger
}

const (
	contrastBoost   = 50.0 // percent, i.e. x1.5
	sharpenSigma    = 1.0
	thresholdWindow = 11
	thresholdC      = 2
	upscaleBelow    = 1000
	upscaleFactor   = 1.5
)

// NewPreprocessor returns the default chain: grayscale, contrast, sharpen, adaptive threshold, upscale.
func NewPreprocessor(logger *slog.Logger) *Preprocessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preprocessor{
		logger: logger,
		Steps: []Step{
			{Name: "grayscale", Apply: func(img image.Image) image.Image { return imaging.Grayscale(img) }},
			{Name: "contrast", Apply: func(img image.Image) image.Image { return imaging.AdjustContrast(img, contrastBoost) }},
			{Name: "sharpen", Apply: func(img image.Image) image.Image { return imaging.Sharpen(img, sharpenSigma) }},
			{Name: "threshold", Apply: func(img image.Image) image.Image { return AdaptiveThreshold(img, thresholdWindow, thresholdC) }},
			{Name: "upscale", Apply: upscaleSmall},
		},
	}
}

// Apply runs the chain. On a panic or an empty result from any step the unmodified input is returned.
func (p *Preprocessor) Apply(img image.Image) (out image.Image) {
	if img == nil || img.Bounds().Empty() {
		return img
	}
	cur := img
	for _, s := range p.Steps {
		next, err := runStep(s, cur)
		if err != nil {
			p.logger.Warn("ocr.preprocess.failed", "step", s.Name, "error", err)
			return img
		}
		cur = next
	}
	return cur
}

func runStep(s Step, img image.Image) (out image.Image, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	out = s.Apply(img)
	if out == nil || out.Bounds().Empty() {
		return nil, fmt.Errorf("empty output")
	}
	return out, nil
}

func upscaleSmall(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() >= upscaleBelow && b.Dy() >= upscaleBelow {
		return img
	}
	w := int(float64(b.Dx()) * upscaleFactor)
	h := int(float64(b.Dy()) * upscaleFactor)
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// AdaptiveThreshold binarizes img: a pixel becomes white when its luminance exceeds the mean of
// its window x window neighborhood minus c, black otherwise. Uses an integral image.
func AdaptiveThreshold(img image.Image, window int, c float64) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	gray := imaging.Grayscale(img) // NRGBA with r == g == b
	lum := func(x, y int) uint32 { return uint32(gray.Pix[y*gray.Stride+x*4]) }

	// integral has a zero row and column so sums need no bounds checks
	integral := make([]uint64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var row uint64
		for x := 0; x < w; x++ {
			row += uint64(lum(x, y))
			integral[(y+1)*(w+1)+x+1] = integral[y*(w+1)+x+1] + row
		}
	}

	half := window / 2
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		y0, y1 := max(y-half, 0), min(y+half+1, h)
		for x := 0; x < w; x++ {
			x0, x1 := max(x-half, 0), min(x+half+1, w)
			sum := integral[y1*(w+1)+x1] - integral[y0*(w+1)+x1] - integral[y1*(w+1)+x0] + integral[y0*(w+1)+x0]
			mean := float64(sum) / float64((x1-x0)*(y1-y0))
			if float64(lum(x, y)) > mean-c {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}
