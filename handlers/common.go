package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"pixelcraft-backend/convert"

	"github.com/gin-gonic/gin"
)

// detail writes the error envelope every endpoint uses.
func detail(c *gin.Context, status int, format string, args ...any) {
	c.JSON(status, gin.H{"detail": fmt.Sprintf(format, args...)})
}

// writeConvertError maps a conversion error to an HTTP status.
func writeConvertError(c *gin.Context, err error) {
	var convErr *convert.Error
	if errors.As(err, &convErr) {
		switch convErr.Kind {
		case convert.KindInvalidInput:
			detail(c, http.StatusBadRequest, "%s", convErr.Msg)
		case convert.KindNotFound:
			detail(c, http.StatusNotFound, "%s", convErr.Msg)
		default:
			detail(c, http.StatusInternalServerError, "%s", convErr.Error())
		}
		return
	}
	detail(c, http.StatusInternalServerError, "%v", err)
}

type upload struct {
	Filename string
	Data     []byte
}

func readFileHeader(header *multipart.FileHeader, maxBytes int64) (*upload, error) {
	if maxBytes > 0 && header.Size > maxBytes {
		return nil, fmt.Errorf("file exceeds maximum upload size of %d bytes", maxBytes)
	}

	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &upload{Filename: filepath.Base(header.Filename), Data: data}, nil
}

// readUpload reads the single "file" multipart field. A missing field or an
// oversized file writes the 400 itself and returns nil.
func readUpload(c *gin.Context, maxBytes int64) *upload {
	header, err := c.FormFile("file")
	if err != nil {
		detail(c, http.StatusBadRequest, "file field is required")
		return nil
	}

	up, err := readFileHeader(header, maxBytes)
	if err != nil {
		detail(c, http.StatusBadRequest, "%v", err)
		return nil
	}
	return up
}

// readUploads reads the repeated "files" multipart field.
func readUploads(c *gin.Context, maxBytes int64) []*upload {
	form, err := c.MultipartForm()
	if err != nil {
		detail(c, http.StatusBadRequest, "multipart form is required")
		return nil
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		detail(c, http.StatusBadRequest, "files field is required")
		return nil
	}

	uploads := make([]*upload, 0, len(headers))
	for _, header := range headers {
		up, err := readFileHeader(header, maxBytes)
		if err != nil {
			detail(c, http.StatusBadRequest, "%v", err)
			return nil
		}
		uploads = append(uploads, up)
	}
	return uploads
}

// requireExt rejects uploads whose extension is not in the allowed set.
func requireExt(c *gin.Context, filename string, exts ...string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	for _, allowed := range exts {
		if ext == allowed {
			return true
		}
	}
	detail(c, http.StatusBadRequest, "file must be one of: %s", strings.Join(exts, ", "))
	return false
}

// sendAttachment streams a converted output as a download.
func sendAttachment(c *gin.Context, filename, mediaType string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, mediaType, data)
}

// baseName strips the extension from an uploaded filename.
func baseName(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// fileExt returns the lowercased extension without the dot.
func fileExt(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}
