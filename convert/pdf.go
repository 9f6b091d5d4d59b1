package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/wudi/pdfkit/builder"
	"github.com/wudi/pdfkit/extractor"
	"github.com/wudi/pdfkit/ir/semantic"
)

// PDFService implements the PDF page-manipulation operations. All inputs
// and outputs are in-memory byte slices; rasterization stages through
// scratch files that are always released.
type PDFService struct {
	scratch *Scratch
	ocr     *OCRService
}

// NewPDFService creates a new PDF service
func NewPDFService(scratch *Scratch, ocr *OCRService) *PDFService {
	return &PDFService{scratch: scratch, ocr: ocr}
}

// Merge concatenates the pages of two or more PDFs in order.
func (s *PDFService) Merge(ctx context.Context, inputs [][]byte) ([]byte, error) {
	if len(inputs) < 2 {
		return nil, invalidInput("at least 2 PDF files are required")
	}

	b := builder.NewBuilder()
	for i, data := range inputs {
		doc, _, err := parsePDF(ctx, data, "")
		if err != nil {
			return nil, processing(fmt.Sprintf("failed to parse PDF %d", i+1), err)
		}
		for _, page := range doc.Pages {
			b.AddPage(page)
		}
	}

	merged, err := b.Build()
	if err != nil {
		return nil, processing("failed to assemble merged document", err)
	}
	out, err := writePDF(ctx, merged)
	if err != nil {
		return nil, processing("failed to write merged document", err)
	}
	return out, nil
}

// Split partitions a PDF into parts of pagesPerFile pages each and returns
// a zip archive named part_1.pdf, part_2.pdf, ...
func (s *PDFService) Split(ctx context.Context, data []byte, pagesPerFile int) ([]byte, error) {
	if pagesPerFile < 1 {
		return nil, invalidInput("pages_per_file must be at least 1")
	}

	doc, _, err := parsePDF(ctx, data, "")
	if err != nil {
		return nil, processing("failed to parse PDF", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	part := 0
	for start := 0; start < len(doc.Pages); start += pagesPerFile {
		end := start + pagesPerFile
		if end > len(doc.Pages) {
			end = len(doc.Pages)
		}

		b := builder.NewBuilder()
		for _, page := range doc.Pages[start:end] {
			b.AddPage(page)
		}
		partDoc, err := b.Build()
		if err != nil {
			return nil, processing("failed to assemble split part", err)
		}
		partBytes, err := writePDF(ctx, partDoc)
		if err != nil {
			return nil, processing("failed to write split part", err)
		}

		part++
		w, err := zw.Create(fmt.Sprintf("part_%d.pdf", part))
		if err != nil {
			return nil, processing("failed to build archive", err)
		}
		if _, err := w.Write(partBytes); err != nil {
			return nil, processing("failed to build archive", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, processing("failed to finalize archive", err)
	}
	return buf.Bytes(), nil
}

// Rotate adds angle degrees to the rotation of the selected pages. pages
// holds 1-based page numbers; nil rotates every page.
func (s *PDFService) Rotate(ctx context.Context, data []byte, angle int, pages []int) ([]byte, error) {
	if angle != 90 && angle != 180 && angle != 270 {
		return nil, invalidInput("rotation must be 90, 180 or 270 degrees")
	}

	doc, _, err := parsePDF(ctx, data, "")
	if err != nil {
		return nil, processing("failed to parse PDF", err)
	}

	targets := pages
	if len(targets) == 0 {
		targets = make([]int, len(doc.Pages))
		for i := range doc.Pages {
			targets[i] = i + 1
		}
	}
	for _, n := range targets {
		if n < 1 || n > len(doc.Pages) {
			return nil, notFound("page %d does not exist (document has %d pages)", n, len(doc.Pages))
		}
		page := doc.Pages[n-1]
		// Source pages may carry a negative /Rotate; keep the result in [0, 360).
		page.Rotate = ((page.Rotate+angle)%360 + 360) % 360
		page.Dirty = true
	}

	out, err := writePDF(ctx, doc)
	if err != nil {
		return nil, processing("failed to write rotated document", err)
	}
	return out, nil
}

// CropMargins are the distances, in points, shaved off each edge.
type CropMargins struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Crop shrinks every page's crop box by the given margins.
func (s *PDFService) Crop(ctx context.Context, data []byte, m CropMargins) ([]byte, error) {
	if m.Left < 0 || m.Top < 0 || m.Right < 0 || m.Bottom < 0 {
		return nil, invalidInput("crop margins must be non-negative")
	}

	doc, _, err := parsePDF(ctx, data, "")
	if err != nil {
		return nil, processing("failed to parse PDF", err)
	}

	for _, page := range doc.Pages {
		box := page.CropBox
		if box.URX == 0 && box.URY == 0 {
			box = page.MediaBox
		}
		cropped := semantic.Rectangle{
			LLX: box.LLX + m.Left,
			LLY: box.LLY + m.Bottom,
			URX: box.URX - m.Right,
			URY: box.URY - m.Top,
		}
		if cropped.URX <= cropped.LLX || cropped.URY <= cropped.LLY {
			return nil, invalidInput("crop margins leave no visible page area")
		}
		page.CropBox = cropped
		page.Dirty = true
	}

	out, err := writePDF(ctx, doc)
	if err != nil {
		return nil, processing("failed to write cropped document", err)
	}
	return out, nil
}

// Compress rewrites the document with duplicate objects combined, streams
// deflated and images recompressed at the given quality (1-100).
func (s *PDFService) Compress(ctx context.Context, data []byte, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		return nil, invalidInput("quality must be between 1 and 100")
	}

	doc, _, err := parsePDF(ctx, data, "")
	if err != nil {
		return nil, processing("failed to parse PDF", err)
	}

	if err := pdfOptimizer(quality).Optimize(ctx, doc); err != nil {
		return nil, processing("optimization failed", err)
	}

	out, err := writePDF(ctx, doc)
	if err != nil {
		return nil, processing("failed to write compressed document", err)
	}
	return out, nil
}

// Protect encrypts the document with the given password as both user and
// owner password.
func (s *PDFService) Protect(ctx context.Context, data []byte, password string) ([]byte, error) {
	if password == "" {
		return nil, invalidInput("password is required")
	}

	doc, _, err := parsePDF(ctx, data, "")
	if err != nil {
		return nil, processing("failed to parse PDF", err)
	}

	doc.Encrypted = true
	doc.UserPassword = password
	doc.OwnerPassword = password
	doc.Permissions = fullPermissions()
	doc.MetadataEncrypted = true

	out, err := writePDF(ctx, doc)
	if err != nil {
		return nil, processing("failed to write protected document", err)
	}
	return out, nil
}

// wrongPasswordText is the exact message pdfkit's security package returns
// for a bad user or owner password. It exports no sentinel to match with
// errors.Is, so the text is the only handle.
const wrongPasswordText = "invalid password"

// Unlock decrypts a password-protected document and rewrites it without
// encryption. A wrong password is a client error, not a processing one.
func (s *PDFService) Unlock(ctx context.Context, data []byte, password string) ([]byte, error) {
	doc, _, err := parsePDF(ctx, data, password)
	if err != nil {
		if strings.Contains(err.Error(), wrongPasswordText) {
			return nil, invalidInput("wrong password")
		}
		return nil, processing("failed to parse PDF", err)
	}

	doc.Encrypted = false
	doc.UserPassword = ""
	doc.OwnerPassword = ""
	doc.MetadataEncrypted = false

	out, err := writePDF(ctx, doc)
	if err != nil {
		return nil, processing("failed to write unlocked document", err)
	}
	return out, nil
}

// Watermark stamps translucent gray diagonal text across every page.
func (s *PDFService) Watermark(ctx context.Context, data []byte, text string, opacity float64) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, invalidInput("watermark text is required")
	}
	if opacity <= 0 || opacity > 1 {
		opacity = 0.5
	}

	doc, _, err := parsePDF(ctx, data, "")
	if err != nil {
		return nil, processing("failed to parse PDF", err)
	}

	for _, page := range doc.Pages {
		stampWatermark(page, text, opacity)
	}

	out, err := writePDF(ctx, doc)
	if err != nil {
		return nil, processing("failed to write watermarked document", err)
	}
	return out, nil
}

// PageNumbers stamps a page number on every page. position is one of the
// corner enums or "bottom-center" (the default); numbering starts at start.
func (s *PDFService) PageNumbers(ctx context.Context, data []byte, position string, start int) ([]byte, error) {
	if start < 0 {
		return nil, invalidInput("start must be non-negative")
	}
	if position == "" {
		position = "bottom-center"
	}
	switch position {
	case "top-left", "top-right", "bottom-left", "bottom-right", "bottom-center":
	default:
		return nil, invalidInput("unknown position %q", position)
	}

	doc, _, err := parsePDF(ctx, data, "")
	if err != nil {
		return nil, processing("failed to parse PDF", err)
	}

	for i, page := range doc.Pages {
		stampPageNumber(page, fmt.Sprintf("%d", start+i), position)
	}

	out, err := writePDF(ctx, doc)
	if err != nil {
		return nil, processing("failed to write numbered document", err)
	}
	return out, nil
}

// RedactRegion is one rectangle, in page coordinates, to cover with an
// opaque black box. Page is 1-based.
type RedactRegion struct {
	Page   int     `json:"page"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Redact draws opaque black rectangles over the given regions.
func (s *PDFService) Redact(ctx context.Context, data []byte, regions []RedactRegion) ([]byte, error) {
	if len(regions) == 0 {
		return nil, invalidInput("at least one redaction region is required")
	}

	doc, _, err := parsePDF(ctx, data, "")
	if err != nil {
		return nil, processing("failed to parse PDF", err)
	}

	for _, region := range regions {
		if region.Page < 1 || region.Page > len(doc.Pages) {
			return nil, notFound("page %d does not exist (document has %d pages)", region.Page, len(doc.Pages))
		}
		if region.Width <= 0 || region.Height <= 0 {
			return nil, invalidInput("redaction regions must have positive width and height")
		}
		stampBlackBox(doc.Pages[region.Page-1], region.X, region.Y, region.Width, region.Height)
	}

	out, err := writePDF(ctx, doc)
	if err != nil {
		return nil, processing("failed to write redacted document", err)
	}
	return out, nil
}

// PageMatch reports occurrences of a pattern on one page.
type PageMatch struct {
	Page    int      `json:"page"`
	Count   int      `json:"count"`
	Matches []string `json:"matches"`
}

// SearchResult is the JSON body returned by the search operation.
type SearchResult struct {
	Pattern string      `json:"pattern"`
	Total   int         `json:"total"`
	Pages   []PageMatch `json:"pages"`
}

// Search runs a regular expression over the embedded text of every page.
func (s *PDFService) Search(ctx context.Context, data []byte, pattern string) (*SearchResult, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, invalidInput("invalid pattern: %v", err)
	}

	_, dec, err := parsePDF(ctx, data, "")
	if err != nil {
		return nil, processing("failed to parse PDF", err)
	}
	ex, err := extractor.New(dec)
	if err != nil {
		return nil, processing("failed to open document for extraction", err)
	}
	pageTexts, err := ex.ExtractText()
	if err != nil {
		return nil, processing("text extraction failed", err)
	}

	result := &SearchResult{Pattern: pattern}
	for _, pt := range pageTexts {
		found := re.FindAllString(pt.Content, -1)
		if len(found) == 0 {
			continue
		}
		result.Total += len(found)
		result.Pages = append(result.Pages, PageMatch{
			Page:    pt.Page + 1,
			Count:   len(found),
			Matches: found,
		})
	}
	return result, nil
}

// TextResult is the JSON body returned by text extraction.
type TextResult struct {
	Text  string `json:"text"`
	Pages int    `json:"pages"`
}

// ExtractText pulls embedded text from every page. Pages without embedded
// text are rasterized and run through OCR when an OCR service is wired.
func (s *PDFService) ExtractText(ctx context.Context, data []byte) (*TextResult, error) {
	doc, dec, err := parsePDF(ctx, data, "")
	if err != nil {
		return nil, processing("failed to parse PDF", err)
	}
	ex, err := extractor.New(dec)
	if err != nil {
		return nil, processing("failed to open document for extraction", err)
	}
	pageTexts, err := ex.ExtractText()
	if err != nil {
		return nil, processing("text extraction failed", err)
	}

	byPage := make(map[int]string, len(pageTexts))
	for _, pt := range pageTexts {
		byPage[pt.Page] = pt.Content
	}

	var sb strings.Builder
	for i := range doc.Pages {
		text := byPage[i]
		if strings.TrimSpace(text) == "" && s.ocr != nil {
			text = s.ocrPage(ctx, data, i)
		}
		fmt.Fprintf(&sb, "--- Page %d ---\n%s\n\n", i+1, text)
	}
	return &TextResult{Text: sb.String(), Pages: len(doc.Pages)}, nil
}

// ocrPage renders a single page and runs it through OCR. Failures degrade
// to an empty string: extraction stays best-effort per page.
func (s *PDFService) ocrPage(ctx context.Context, data []byte, pageIndex int) string {
	images, err := s.renderPages(data, "png", 150, pageIndex, pageIndex+1)
	if err != nil || len(images) == 0 {
		return ""
	}
	text, err := s.ocr.ExtractText(ctx, images[0])
	if err != nil {
		return ""
	}
	return text
}

// ToImages rasterizes every page at the given DPI and returns a zip archive
// named page_1.<format>, page_2.<format>, ...
func (s *PDFService) ToImages(ctx context.Context, data []byte, format string, dpi int) ([]byte, error) {
	format = strings.ToLower(format)
	if format == "jpeg" {
		format = "jpg"
	}
	if format != "png" && format != "jpg" {
		return nil, invalidInput("format must be png or jpg")
	}
	if dpi < 36 || dpi > 600 {
		return nil, invalidInput("dpi must be between 36 and 600")
	}

	images, err := s.renderPages(data, format, dpi, 0, -1)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, img := range images {
		w, err := zw.Create(fmt.Sprintf("page_%d.%s", i+1, format))
		if err != nil {
			return nil, processing("failed to build archive", err)
		}
		if _, err := w.Write(img); err != nil {
			return nil, processing("failed to build archive", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, processing("failed to finalize archive", err)
	}
	return buf.Bytes(), nil
}
