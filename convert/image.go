package convert

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/wudi/pdfkit/builder"
	"golang.org/x/image/bmp"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	_ "golang.org/x/image/webp"
)

// ImageService implements the image conversion and editing operations.
type ImageService struct{}

// NewImageService creates a new image service
func NewImageService() *ImageService {
	return &ImageService{}
}

var imageFormats = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "webp": true, "gif": true, "bmp": true,
}

func decodeImage(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", processing("failed to decode image", err)
	}
	return img, format, nil
}

// flattenToRGB composites the image over a white background, dropping any
// alpha channel. Required for JPEG output.
func flattenToRGB(img image.Image) image.Image {
	bounds := img.Bounds()
	flat := image.NewRGBA(bounds)
	draw.Draw(flat, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, bounds, img, bounds.Min, draw.Over)
	return flat
}

// encodeImage writes img in the requested format and returns the bytes
// with the matching media type.
func encodeImage(img image.Image, format string, quality int) ([]byte, string, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpg", "jpeg":
		err = jpeg.Encode(&buf, flattenToRGB(img), &jpeg.Options{Quality: quality})
	case "webp":
		err = webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)})
	case "gif":
		err = gif.Encode(&buf, img, nil)
	case "bmp":
		err = bmp.Encode(&buf, img)
	default:
		return nil, "", invalidInput("unsupported format %q", format)
	}
	if err != nil {
		return nil, "", processing("failed to encode image", err)
	}

	mediaType := "image/" + format
	if format == "jpg" {
		mediaType = "image/jpeg"
	}
	return buf.Bytes(), mediaType, nil
}

// Convert re-encodes an image in the target format. quality applies to
// lossy formats.
func (s *ImageService) Convert(ctx context.Context, data []byte, format string, quality int) ([]byte, string, error) {
	format = strings.ToLower(format)
	if !imageFormats[format] {
		return nil, "", invalidInput("format must be one of png, jpg, jpeg, webp, gif, bmp")
	}
	if quality < 1 || quality > 100 {
		quality = 95
	}

	img, _, err := decodeImage(data)
	if err != nil {
		return nil, "", err
	}
	return encodeImage(img, format, quality)
}

// Resize scales the image to width x height. With maintainAspect the image
// is fitted inside the box instead, preserving proportions. The output
// keeps the source format.
func (s *ImageService) Resize(ctx context.Context, data []byte, width, height int, maintainAspect bool) ([]byte, string, error) {
	if width < 1 || height < 1 {
		return nil, "", invalidInput("width and height must be positive")
	}

	img, format, err := decodeImage(data)
	if err != nil {
		return nil, "", err
	}

	var resized image.Image
	if maintainAspect {
		resized = imaging.Fit(img, width, height, imaging.Lanczos)
	} else {
		resized = imaging.Resize(img, width, height, imaging.Lanczos)
	}
	return encodeImage(resized, format, 95)
}

// Enhance adjusts brightness, contrast and saturation. Each factor is a
// multiplier where 1.0 leaves the channel unchanged.
func (s *ImageService) Enhance(ctx context.Context, data []byte, brightness, contrast, saturation float64) ([]byte, string, error) {
	img, format, err := decodeImage(data)
	if err != nil {
		return nil, "", err
	}

	out := img
	if brightness != 1.0 {
		out = imaging.AdjustBrightness(out, clampPercent((brightness-1)*100))
	}
	if contrast != 1.0 {
		out = imaging.AdjustContrast(out, clampPercent((contrast-1)*100))
	}
	if saturation != 1.0 {
		out = imaging.AdjustSaturation(out, clampPercent((saturation-1)*100))
	}
	return encodeImage(out, format, 95)
}

func clampPercent(p float64) float64 {
	if p < -100 {
		return -100
	}
	if p > 100 {
		return 100
	}
	return p
}

// Compress re-encodes the image as JPEG at the given quality.
func (s *ImageService) Compress(ctx context.Context, data []byte, quality int) ([]byte, string, error) {
	if quality < 1 || quality > 100 {
		quality = 85
	}

	img, _, err := decodeImage(data)
	if err != nil {
		return nil, "", err
	}
	return encodeImage(img, "jpg", quality)
}

// AddWatermark draws white text at one of the corner positions or the
// center and returns the composite as PNG.
func (s *ImageService) AddWatermark(ctx context.Context, data []byte, text, position string, opacity float64) ([]byte, string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, "", invalidInput("watermark text is required")
	}
	if opacity <= 0 || opacity > 1 {
		opacity = 0.5
	}

	img, _, err := decodeImage(data)
	if err != nil {
		return nil, "", err
	}

	bounds := img.Bounds()
	canvas := image.NewNRGBA(bounds)
	draw.Draw(canvas, bounds, img, bounds.Min, draw.Src)

	// Font size scales with the smaller image dimension, floor of 20px.
	side := bounds.Dx()
	if bounds.Dy() < side {
		side = bounds.Dy()
	}
	fontSize := float64(side) / 20
	if fontSize < 20 {
		fontSize = 20
	}

	parsed, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, "", processing("failed to load watermark font", err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{Size: fontSize, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, "", processing("failed to prepare watermark font", err)
	}
	defer face.Close()

	alpha := uint8(255 * opacity)
	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: alpha}),
		Face: face,
	}

	textWidth := drawer.MeasureString(text).Ceil()
	ascent := face.Metrics().Ascent.Ceil()
	descent := face.Metrics().Descent.Ceil()
	const margin = 20

	var x, y int
	switch position {
	case "top-left":
		x, y = margin, margin+ascent
	case "top-right":
		x, y = bounds.Dx()-textWidth-margin, margin+ascent
	case "bottom-left":
		x, y = margin, bounds.Dy()-margin-descent
	case "center":
		x, y = (bounds.Dx()-textWidth)/2, (bounds.Dy()+ascent)/2
	default: // bottom-right
		x, y = bounds.Dx()-textWidth-margin, bounds.Dy()-margin-descent
	}

	drawer.Dot = fixed.P(bounds.Min.X+x, bounds.Min.Y+y)
	drawer.DrawString(text)

	out, mediaType, encErr := encodeImage(canvas, "png", 95)
	if encErr != nil {
		return nil, "", encErr
	}
	return out, mediaType, nil
}

// ImagesToPDF builds a PDF with one page per input image, each page sized
// to the image's pixel dimensions in points.
func (s *ImageService) ImagesToPDF(ctx context.Context, inputs [][]byte) ([]byte, error) {
	if len(inputs) == 0 {
		return nil, invalidInput("at least one image file is required")
	}

	b := builder.NewBuilder()
	for i, data := range inputs {
		img, _, err := decodeImage(data)
		if err != nil {
			return nil, invalidInput("file %d is not a supported image: %v", i+1, err)
		}

		width := float64(img.Bounds().Dx())
		height := float64(img.Bounds().Dy())
		asset := builder.FromImage(flattenToRGB(img))
		b.NewPage(width, height).
			DrawImage(asset, 0, 0, width, height, builder.ImageOptions{}).
			Finish()
	}

	doc, err := b.Build()
	if err != nil {
		return nil, processing("failed to assemble PDF", err)
	}
	out, err := writePDF(ctx, doc)
	if err != nil {
		return nil, processing(fmt.Sprintf("failed to write PDF of %d images", len(inputs)), err)
	}
	return out, nil
}
