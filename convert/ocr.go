package convert

import (
	"context"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// OCRService wraps the Tesseract engine. A fresh client per call keeps the
// service safe for concurrent requests; gosseract clients are not.
type OCRService struct {
	languages []string
}

// NewOCRService creates a new OCR service. languages defaults to English
// when empty.
func NewOCRService(languages ...string) *OCRService {
	return &OCRService{languages: languages}
}

// ExtractText runs OCR over an encoded image and returns the recognized
// text.
func (s *OCRService) ExtractText(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", invalidInput("image data is empty")
	}

	client := gosseract.NewClient()
	defer client.Close()

	if len(s.languages) > 0 {
		if err := client.SetLanguage(s.languages...); err != nil {
			return "", processing("failed to configure OCR languages", err)
		}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", processing("failed to load image for OCR", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", processing("OCR failed", err)
	}
	return strings.TrimSpace(text), nil
}
