package handlers

import (
	"net/http"

	"pixelcraft-backend/audit"
	"pixelcraft-backend/auth"
	"pixelcraft-backend/convert"

	"github.com/gin-gonic/gin"
)

// OCRHandler handles HTTP requests for OCR text extraction
type OCRHandler struct {
	ocr       *convert.OCRService
	recorder  *audit.Recorder
	maxUpload int64
}

// NewOCRHandler creates a new OCR handler
func NewOCRHandler(ocr *convert.OCRService, recorder *audit.Recorder, maxUpload int64) *OCRHandler {
	return &OCRHandler{
		ocr:       ocr,
		recorder:  recorder,
		maxUpload: maxUpload,
	}
}

// ExtractText handles POST /ocr/extract-text
func (h *OCRHandler) ExtractText(c *gin.Context) {
	up := readUpload(c, h.maxUpload)
	if up == nil || !requireExt(c, up.Filename, imageExts...) {
		return
	}

	text, err := h.ocr.ExtractText(c.Request.Context(), up.Data)
	entry := audit.Entry{
		Operation:    "ocr-extract-text",
		Filename:     up.Filename,
		InputFormat:  fileExt(up.Filename),
		OutputFormat: "txt",
		ByteSize:     int64(len(text)),
		Success:      err == nil,
	}
	h.recorder.Record(c.Request.Context(), auth.UserIDFromContext(c), entry)
	if err != nil {
		writeConvertError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"text":     text,
		"filename": up.Filename,
	})
}
