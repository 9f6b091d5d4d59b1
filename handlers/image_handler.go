package handlers

import (
	"net/http"
	"strings"

	"pixelcraft-backend/audit"
	"pixelcraft-backend/auth"
	"pixelcraft-backend/convert"

	"github.com/gin-gonic/gin"
)

var imageExts = []string{"png", "jpg", "jpeg", "webp", "gif", "bmp"}

// ImageHandler handles HTTP requests for image conversion and editing
type ImageHandler struct {
	images    *convert.ImageService
	rembg     *convert.BackgroundService
	recorder  *audit.Recorder
	maxUpload int64
}

// NewImageHandler creates a new image handler
func NewImageHandler(images *convert.ImageService, rembg *convert.BackgroundService, recorder *audit.Recorder, maxUpload int64) *ImageHandler {
	return &ImageHandler{
		images:    images,
		rembg:     rembg,
		recorder:  recorder,
		maxUpload: maxUpload,
	}
}

func (h *ImageHandler) deliver(c *gin.Context, op, inFilename, outFilename, outFormat, mediaType string, data []byte) {
	userID := auth.UserIDFromContext(c)
	ctx := c.Request.Context()
	h.recorder.Record(ctx, userID, audit.Entry{
		Operation:    op,
		Filename:     inFilename,
		InputFormat:  fileExt(inFilename),
		OutputFormat: outFormat,
		ByteSize:     int64(len(data)),
		Success:      true,
	})
	h.recorder.StoreOutput(ctx, userID, inFilename, outFilename, outFormat, data)
	sendAttachment(c, outFilename, mediaType, data)
}

func (h *ImageHandler) fail(c *gin.Context, op, inFilename, outFormat string, err error) {
	h.recorder.Record(c.Request.Context(), auth.UserIDFromContext(c), audit.Entry{
		Operation:    op,
		Filename:     inFilename,
		InputFormat:  fileExt(inFilename),
		OutputFormat: outFormat,
		Success:      false,
	})
	writeConvertError(c, err)
}

// Convert handles POST /image/convert
func (h *ImageHandler) Convert(c *gin.Context) {
	up := readUpload(c, h.maxUpload)
	if up == nil || !requireExt(c, up.Filename, imageExts...) {
		return
	}

	format := strings.ToLower(c.DefaultPostForm("format", "png"))
	quality, ok := formInt(c, "quality", 95)
	if !ok {
		return
	}

	out, mediaType, err := h.images.Convert(c.Request.Context(), up.Data, format, quality)
	if err != nil {
		h.fail(c, "image-convert", up.Filename, format, err)
		return
	}
	h.deliver(c, "image-convert", up.Filename, baseName(up.Filename)+"."+format, format, mediaType, out)
}

// Resize handles POST /image/resize
func (h *ImageHandler) Resize(c *gin.Context) {
	up := readUpload(c, h.maxUpload)
	if up == nil || !requireExt(c, up.Filename, imageExts...) {
		return
	}

	width, ok := formInt(c, "width", 0)
	if !ok {
		return
	}
	height, ok := formInt(c, "height", 0)
	if !ok {
		return
	}
	if width <= 0 || height <= 0 {
		detail(c, http.StatusBadRequest, "width and height must be positive integers")
		return
	}
	maintainAspect := formBool(c, "maintain_aspect", false)

	out, mediaType, err := h.images.Resize(c.Request.Context(), up.Data, width, height, maintainAspect)
	if err != nil {
		h.fail(c, "image-resize", up.Filename, fileExt(up.Filename), err)
		return
	}
	h.deliver(c, "image-resize", up.Filename, "resized_"+up.Filename, fileExt(up.Filename), mediaType, out)
}

// Enhance handles POST /image/enhance
func (h *ImageHandler) Enhance(c *gin.Context) {
	up := readUpload(c, h.maxUpload)
	if up == nil || !requireExt(c, up.Filename, imageExts...) {
		return
	}

	brightness, ok := formFloat(c, "brightness", 1.0)
	if !ok {
		return
	}
	contrast, ok := formFloat(c, "contrast", 1.0)
	if !ok {
		return
	}
	saturation, ok := formFloat(c, "saturation", 1.0)
	if !ok {
		return
	}

	out, mediaType, err := h.images.Enhance(c.Request.Context(), up.Data, brightness, contrast, saturation)
	if err != nil {
		h.fail(c, "image-enhance", up.Filename, fileExt(up.Filename), err)
		return
	}
	h.deliver(c, "image-enhance", up.Filename, "enhanced_"+up.Filename, fileExt(up.Filename), mediaType, out)
}

// Compress handles POST /image/compress
func (h *ImageHandler) Compress(c *gin.Context) {
	up := readUpload(c, h.maxUpload)
	if up == nil || !requireExt(c, up.Filename, imageExts...) {
		return
	}

	quality, ok := formInt(c, "quality", 85)
	if !ok {
		return
	}

	out, mediaType, err := h.images.Compress(c.Request.Context(), up.Data, quality)
	if err != nil {
		h.fail(c, "image-compress", up.Filename, "jpg", err)
		return
	}
	h.deliver(c, "image-compress", up.Filename, "compressed_"+baseName(up.Filename)+".jpg", "jpg", mediaType, out)
}

// AddWatermark handles POST /image/add-watermark
func (h *ImageHandler) AddWatermark(c *gin.Context) {
	up := readUpload(c, h.maxUpload)
	if up == nil || !requireExt(c, up.Filename, imageExts...) {
		return
	}

	text := c.PostForm("text")
	if text == "" {
		detail(c, http.StatusBadRequest, "text field is required")
		return
	}
	position := c.DefaultPostForm("position", "bottom-right")
	opacity, ok := formFloat(c, "opacity", 0.5)
	if !ok {
		return
	}

	out, mediaType, err := h.images.AddWatermark(c.Request.Context(), up.Data, text, position, opacity)
	if err != nil {
		h.fail(c, "image-add-watermark", up.Filename, "png", err)
		return
	}
	h.deliver(c, "image-add-watermark", up.Filename, "watermarked_"+baseName(up.Filename)+".png", "png", mediaType, out)
}

// RemoveBackground handles POST /image/remove-background
func (h *ImageHandler) RemoveBackground(c *gin.Context) {
	if h.rembg == nil || !h.rembg.Enabled() {
		detail(c, http.StatusServiceUnavailable, "background removal is not configured on this server")
		return
	}

	up := readUpload(c, h.maxUpload)
	if up == nil || !requireExt(c, up.Filename, imageExts...) {
		return
	}

	out, err := h.rembg.Remove(c.Request.Context(), up.Data)
	if err != nil {
		h.fail(c, "image-remove-background", up.Filename, "png", err)
		return
	}
	h.deliver(c, "image-remove-background", up.Filename, "no_bg_"+baseName(up.Filename)+".png", "png", "image/png", out)
}

// ToPDF handles POST /image/to-pdf
func (h *ImageHandler) ToPDF(c *gin.Context) {
	uploads := readUploads(c, h.maxUpload)
	if uploads == nil {
		return
	}

	inputs := make([][]byte, 0, len(uploads))
	names := make([]string, 0, len(uploads))
	for _, up := range uploads {
		if !requireExt(c, up.Filename, imageExts...) {
			return
		}
		inputs = append(inputs, up.Data)
		names = append(names, up.Filename)
	}
	joined := strings.Join(names, ", ")

	out, err := h.images.ImagesToPDF(c.Request.Context(), inputs)
	if err != nil {
		h.fail(c, "image-to-pdf", joined, "pdf", err)
		return
	}
	h.deliver(c, "image-to-pdf", joined, "images_to_pdf.pdf", "pdf", "application/pdf", out)
}

// formBool reads a boolean form field with a default.
func formBool(c *gin.Context, name string, fallback bool) bool {
	switch strings.ToLower(c.PostForm(name)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return fallback
	}
}
