package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"pixelcraft-backend/audit"
	"pixelcraft-backend/auth"
	"pixelcraft-backend/convert"

	"github.com/gin-gonic/gin"
)

// PDFHandler handles HTTP requests for PDF conversion and editing
type PDFHandler struct {
	pdf       *convert.PDFService
	recorder  *audit.Recorder
	maxUpload int64
}

// NewPDFHandler creates a new PDF handler
func NewPDFHandler(pdf *convert.PDFService, recorder *audit.Recorder, maxUpload int64) *PDFHandler {
	return &PDFHandler{
		pdf:       pdf,
		recorder:  recorder,
		maxUpload: maxUpload,
	}
}

// deliver records a successful conversion, archives the output for
// authenticated callers and streams it as a download.
func (h *PDFHandler) deliver(c *gin.Context, op, inFilename, outFilename, outFormat, mediaType string, data []byte) {
	userID := auth.UserIDFromContext(c)
	ctx := c.Request.Context()
	h.recorder.Record(ctx, userID, audit.Entry{
		Operation:    op,
		Filename:     inFilename,
		InputFormat:  "pdf",
		OutputFormat: outFormat,
		ByteSize:     int64(len(data)),
		Success:      true,
	})
	h.recorder.StoreOutput(ctx, userID, inFilename, outFilename, outFormat, data)
	sendAttachment(c, outFilename, mediaType, data)
}

// fail records a failed conversion and writes the error response.
func (h *PDFHandler) fail(c *gin.Context, op, inFilename, outFormat string, err error) {
	h.recorder.Record(c.Request.Context(), auth.UserIDFromContext(c), audit.Entry{
		Operation:    op,
		Filename:     inFilename,
		InputFormat:  "pdf",
		OutputFormat: outFormat,
		Success:      false,
	})
	writeConvertError(c, err)
}

// ToWord handles POST /pdf/to-word
func (h *PDFHandler) ToWord(c *gin.Context) {
	up := readUpload(c, h.maxUpload)
	if up == nil || !requireExt(c, up.Filename, "pdf") {
		return
	}

	out, err := h.pdf.ToWord(c.Request.Context(), up.Data)
	if err != nil {
		h.fail(c, "pdf-to-word", up.Filename, "docx", err)
		return
	}
	h.deliver(c, "pdf-to-word", up.Filename, baseName(up.Filename)+".docx", "docx",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document", out)
}

// ToExcel handles POST /pdf/to-excel
func (h *PDFHandler) ToExcel(c *gin.Context) {
	up := readUpload(c, h.maxUpload)
	if up == nil || !requireExt(c, up.Filename, "pdf") {
		return
	}

	out, err := h.pdf.ToExcel(c.Request.Context(), up.Data)
	if err != nil {
		h.fail(c, "pdf-to-excel", up.Filename, "xlsx", err)
		return
	}
	h.deliver(c, "pdf-to-excel", up.Filename, baseName(up.Filename)+".xlsx", "xlsx",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", out)
}

// ToPowerPoint handles POST /pdf/to-powerpoint
func (h *PDFHandler) ToPowerPoint(c *gin.Context) {
	up := readUpload(c, h.maxUpload)
	if up == nil || !requireExt(c, up.Filename, "pdf") {
		return
	}

	out, err := h.pdf.ToPowerPoint(c.Request.Context(), up.Data)
	if err != nil {
		h.fail(c, "pdf-to-powerpoint", up.Filename, "pptx", err)
		return
	}
	h.deliver(c, "pdf-to-powerpoint", up.Filename, baseName(up.Filename)+".pptx", "pptx",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation", out)
}

// ToHTML handles POST /pdf/to-html
func (h *PDFHandler) ToHTML(c *gin.Context) {
	up := readUpload(c, h.maxUpload)
	if up == nil || !requireExt(c, up.Filename, "pdf") {
		return
	}

	out, err := h.pdf.ToHTML(c.Request.Context(), up.Data)
	if err != nil {
		h.fail(c, "pdf-to-html", up.Filename, "html", err)
		return
	}
	h.deliver(c, "pdf-to-html", up.Filename, baseName(up.Filename)+".html", "html", "text/html", out)
}

// ToImages handles POST /pdf/to-images
func (h *PDFHandler) ToImages(c *gin.Context) {
	up := readUpload(c, h.maxUpload)
	if up == nil || !requireExt(c, up.Filename, "pdf") {
		return
	}

	format := c.DefaultPostForm("format", "png")
	dpi, ok := formInt(c, "dpi", 150)
	if !ok {
		return
	}

	out, err := h.pdf.ToImages(c.Request.Context(), up.Data, format, dpi)
	if err != nil {
		h.fail(c, "pdf-to-images", up.Filename, "zip", err)
		return
	}
	h.deliver(c, "pdf-to-images", up.Filename, baseName(up.Filename)+"_images.zip", "zip", "application/zip", out)
}

// ExtractText handles POST /pdf/extract-text
func (h *PDFHandler) ExtractText(c *gin.Context) {
	up := readUpload(c, h.maxUpload)
	if up == nil || !requireExt(c, up.Filename, "pdf") {
		return
	}

	result, err := h.pdf.ExtractText(c.Request.Context(), up.Data)
	if err != nil {
		h.fail(c, "pdf-extract-text", up.Filename, "txt", err)
		return
	}

	h.recorder.Record(c.Request.Context(), auth.UserIDFromContext(c), audit.Entry{
		Operation:    "pdf-extract-text",
		Filename:     up.Filename,
		InputFormat:  "pdf",
		OutputFormat: "txt",
		ByteSize:     int64(len(result.Text)),
		Success:      true,
	})
	c.JSON(http.StatusOK, gin.H{
		"text":     result.Text,
		"pages":    result.Pages,
		"filename": up.Filename,
	})
}

// Merge handles POST /pdf/merge
func (h *PDFHandler) Merge(c *gin.Context) {
	uploads := readUploads(c, h.maxUpload)
	if uploads == nil {
		return
	}
	if len(uploads) < 2 {
		detail(c, http.StatusBadRequest, "at least 2 PDF files are required for merging")
		return
	}

	inputs := make([][]byte, 0, len(uploads))
	names := make([]string, 0, len(uploads))
	for _, up := range uploads {
		if !requireExt(c, up.Filename, "pdf") {
			return
		}
		inputs = append(inputs, up.Data)
		names = append(names, up.Filename)
	}
	joined := strings.Join(names, ", ")

	out, err := h.pdf.Merge(c.Request.Context(), inputs)
	if err != nil {
		h.fail(c, "pdf-merge", joined, "pdf", err)
		return
	}
	h.deliver(c, "pdf-merge", joined, "merged.pdf", "pdf", "application/pdf", out)
}

// Split handles POST /pdf/split
func (h *PDFHandler) Split(c *gin.Context) {
	up := readUpload(c, h.maxUpload)
	if up == nil || !requireExt(c, up.Filename, "pdf") {
		return
	}

	pagesPerFile, ok := formInt(c, "pages_per_file", 1)
	if !ok {
		return
	}

	out, err := h.pdf.Split(c.Request.Context(), up.Data, pagesPerFile)
	if err != nil {
		h.fail(c, "pdf-split", up.Filename, "zip", err)
		return
	}
	h.deliver(c, "pdf-split", up.Filename, baseName(up.Filename)+"_split.zip", "zip", "application/zip", out)
}

// Compress handles POST /pdf/compress
func (h *PDFHandler) Compress(c *gin.Context) {
	up := readUpload(c, h.maxUpload)
	if up == nil || !requireExt(c, up.Filename, "pdf") {
		return
	}

	quality, ok := formInt(c, "quality", 50)
	if !ok {
		return
	}

	out, err := h.pdf.Compress(c.Request.Context(), up.Data, quality)
	if err != nil {
		h.fail(c, "pdf-compress", up.Filename, "pdf", err)
		return
	}
	h.deliver(c, "pdf-compress", up.Filename, "compressed_"+up.Filename, "pdf", "application/pdf", out)
}

// Rotate handles POST /pdf/rotate
func (h *PDFHandler) Rotate(c *gin.Context) {
	up := readUpload(c, h.maxUpload)
	if up == nil || !requireExt(c, up.Filename, "pdf") {
		return
	}

	angle, ok := formInt(c, "angle", 90)
	if !ok {
		return
	}
	pages, err := parsePageList(c.DefaultPostForm("pages", "all"))
	if err != nil {
		detail(c, http.StatusBadRequest, "%v", err)
		return
	}

	out, err := h.pdf.Rotate(c.Request.Context(), up.Data, angle, pages)
	if err != nil {
		h.fail(c, "pdf-rotate", up.Filename, "pdf", err)
		return
	}
	h.deliver(c, "pdf-rotate", up.Filename, "rotated_"+up.Filename, "pdf", "application/pdf", out)
}

// Crop handles POST /pdf/crop
func (h *PDFHandler) Crop(c *gin.Context) {
	up := readUpload(c, h.maxUpload)
	if up == nil || !requireExt(c, up.Filename, "pdf") {
		return
	}

	var margins convert.CropMargins
	var ok bool
	if margins.Left, ok = formFloat(c, "left", 0); !ok {
		return
	}
	if margins.Top, ok = formFloat(c, "top", 0); !ok {
		return
	}
	if margins.Right, ok = formFloat(c, "right", 0); !ok {
		return
	}
	if margins.Bottom, ok = formFloat(c, "bottom", 0); !ok {
		return
	}

	out, err := h.pdf.Crop(c.Request.Context(), up.Data, margins)
	if err != nil {
		h.fail(c, "pdf-crop", up.Filename, "pdf", err)
		return
	}
	h.deliver(c, "pdf-crop", up.Filename, "cropped_"+up.Filename, "pdf", "application/pdf", out)
}

// Watermark handles POST /pdf/watermark
func (h *PDFHandler) Watermark(c *gin.Context) {
	up := readUpload(c, h.maxUpload)
	if up == nil || !requireExt(c, up.Filename, "pdf") {
		return
	}

	text := c.PostForm("text")
	if text == "" {
		detail(c, http.StatusBadRequest, "text field is required")
		return
	}
	opacity, ok := formFloat(c, "opacity", 0.3)
	if !ok {
		return
	}

	out, err := h.pdf.Watermark(c.Request.Context(), up.Data, text, opacity)
	if err != nil {
		h.fail(c, "pdf-watermark", up.Filename, "pdf", err)
		return
	}
	h.deliver(c, "pdf-watermark", up.Filename, "watermarked_"+up.Filename, "pdf", "application/pdf", out)
}

// PageNumbers handles POST /pdf/page-numbers
func (h *PDFHandler) PageNumbers(c *gin.Context) {
	up := readUpload(c, h.maxUpload)
	if up == nil || !requireExt(c, up.Filename, "pdf") {
		return
	}

	position := c.DefaultPostForm("position", "bottom-center")
	start, ok := formInt(c, "start_number", 1)
	if !ok {
		return
	}

	out, err := h.pdf.PageNumbers(c.Request.Context(), up.Data, position, start)
	if err != nil {
		h.fail(c, "pdf-page-numbers", up.Filename, "pdf", err)
		return
	}
	h.deliver(c, "pdf-page-numbers", up.Filename, "numbered_"+up.Filename, "pdf", "application/pdf", out)
}

// Redact handles POST /pdf/redact
func (h *PDFHandler) Redact(c *gin.Context) {
	up := readUpload(c, h.maxUpload)
	if up == nil || !requireExt(c, up.Filename, "pdf") {
		return
	}

	settings := c.PostForm("settings")
	if settings == "" {
		detail(c, http.StatusBadRequest, "settings field is required")
		return
	}
	var regions []convert.RedactRegion
	if err := json.Unmarshal([]byte(settings), &regions); err != nil {
		detail(c, http.StatusBadRequest, "settings must be a JSON array of regions: %v", err)
		return
	}

	out, err := h.pdf.Redact(c.Request.Context(), up.Data, regions)
	if err != nil {
		h.fail(c, "pdf-redact", up.Filename, "pdf", err)
		return
	}
	h.deliver(c, "pdf-redact", up.Filename, "redacted_"+up.Filename, "pdf", "application/pdf", out)
}

// Search handles POST /pdf/search
func (h *PDFHandler) Search(c *gin.Context) {
	up := readUpload(c, h.maxUpload)
	if up == nil || !requireExt(c, up.Filename, "pdf") {
		return
	}

	pattern := c.PostForm("pattern")
	if pattern == "" {
		detail(c, http.StatusBadRequest, "pattern field is required")
		return
	}

	result, err := h.pdf.Search(c.Request.Context(), up.Data, pattern)
	if err != nil {
		h.fail(c, "pdf-search", up.Filename, "json", err)
		return
	}

	h.recorder.Record(c.Request.Context(), auth.UserIDFromContext(c), audit.Entry{
		Operation:    "pdf-search",
		Filename:     up.Filename,
		InputFormat:  "pdf",
		OutputFormat: "json",
		Success:      true,
	})
	c.JSON(http.StatusOK, result)
}

// Protect handles POST /pdf/protect
func (h *PDFHandler) Protect(c *gin.Context) {
	up := readUpload(c, h.maxUpload)
	if up == nil || !requireExt(c, up.Filename, "pdf") {
		return
	}

	password := c.PostForm("password")
	if password == "" {
		detail(c, http.StatusBadRequest, "password field is required")
		return
	}

	out, err := h.pdf.Protect(c.Request.Context(), up.Data, password)
	if err != nil {
		h.fail(c, "pdf-protect", up.Filename, "pdf", err)
		return
	}
	h.deliver(c, "pdf-protect", up.Filename, "protected_"+up.Filename, "pdf", "application/pdf", out)
}

// Unlock handles POST /pdf/unlock
func (h *PDFHandler) Unlock(c *gin.Context) {
	up := readUpload(c, h.maxUpload)
	if up == nil || !requireExt(c, up.Filename, "pdf") {
		return
	}

	password := c.PostForm("password")
	if password == "" {
		detail(c, http.StatusBadRequest, "password field is required")
		return
	}

	out, err := h.pdf.Unlock(c.Request.Context(), up.Data, password)
	if err != nil {
		// Wrong password is an authorization failure, not a bad request.
		var convErr *convert.Error
		if errors.As(err, &convErr) && convErr.Kind == convert.KindInvalidInput {
			h.recorder.Record(c.Request.Context(), auth.UserIDFromContext(c), audit.Entry{
				Operation:    "pdf-unlock",
				Filename:     up.Filename,
				InputFormat:  "pdf",
				OutputFormat: "pdf",
				Success:      false,
			})
			detail(c, http.StatusUnauthorized, "%s", convErr.Msg)
			return
		}
		h.fail(c, "pdf-unlock", up.Filename, "pdf", err)
		return
	}
	h.deliver(c, "pdf-unlock", up.Filename, "unlocked_"+up.Filename, "pdf", "application/pdf", out)
}

// parsePageList parses "all" or a comma-separated list of 1-based pages.
func parsePageList(value string) ([]int, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "all") {
		return nil, nil
	}

	parts := strings.Split(value, ",")
	pages := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("pages must be %q or a comma-separated list of page numbers", "all")
		}
		pages = append(pages, n)
	}
	return pages, nil
}

// formInt reads an integer form field, using fallback when the field is
// absent. A malformed value writes a 400 and reports false.
func formInt(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.PostForm(name)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		detail(c, http.StatusBadRequest, "%s must be an integer", name)
		return 0, false
	}
	return n, true
}

// formFloat reads a float form field, using fallback when the field is
// absent. A malformed value writes a 400 and reports false.
func formFloat(c *gin.Context, name string, fallback float64) (float64, bool) {
	raw := c.PostForm(name)
	if raw == "" {
		return fallback, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		detail(c, http.StatusBadRequest, "%s must be a number", name)
		return 0, false
	}
	return f, true
}
