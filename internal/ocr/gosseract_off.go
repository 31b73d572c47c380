//go:build !gosseract

package ocr

import "errors"

func newGosseract(TesseractConfig) (Recognizer, error) {
	return nil, errors.New("ocr: binary built without the gosseract tag")
}
