package handlers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"pixelcraft-backend/audit"
	"pixelcraft-backend/convert"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/wudi/pdfkit/builder"
	"github.com/wudi/pdfkit/writer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testPDFBytes(t *testing.T, pages int) []byte {
	t.Helper()

	b := builder.NewBuilder()
	for i := 1; i <= pages; i++ {
		b.NewPage(612, 792).
			DrawText(fmt.Sprintf("Handler test page %d", i), 72, 720, builder.TextOptions{FontSize: 12}).
			Finish()
	}
	doc, err := b.Build()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writer.NewWriter().Write(context.Background(), doc, &buf, writer.Config{Version: writer.PDF17}))
	return buf.Bytes()
}

func newPDFTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	scratch := convert.NewScratch(t.TempDir())
	pdfService := convert.NewPDFService(scratch, nil)
	handler := NewPDFHandler(pdfService, audit.NewRecorder(), 10*1024*1024)

	r := gin.New()
	pdf := r.Group("/pdf")
	pdf.POST("/merge", handler.Merge)
	pdf.POST("/split", handler.Split)
	pdf.POST("/search", handler.Search)
	pdf.POST("/extract-text", handler.ExtractText)
	pdf.POST("/rotate", handler.Rotate)
	return r
}

type filePart struct {
	field    string
	filename string
	data     []byte
}

func multipartBody(t *testing.T, files []filePart, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func errorDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp["detail"]
}

func TestMergeHandler_Success(t *testing.T) {
	r := newPDFTestRouter(t)

	body, contentType := multipartBody(t, []filePart{
		{"files", "a.pdf", testPDFBytes(t, 1)},
		{"files", "b.pdf", testPDFBytes(t, 2)},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/pdf/merge", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "merged.pdf")
	require.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestMergeHandler_RequiresTwoFiles(t *testing.T) {
	r := newPDFTestRouter(t)

	body, contentType := multipartBody(t, []filePart{
		{"files", "only.pdf", testPDFBytes(t, 1)},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/pdf/merge", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, errorDetail(t, rec), "at least 2")
}

func TestSplitHandler_ReturnsZipOfParts(t *testing.T) {
	r := newPDFTestRouter(t)

	body, contentType := multipartBody(t, []filePart{
		{"file", "doc.pdf", testPDFBytes(t, 3)},
	}, map[string]string{"pages_per_file": "1"})

	req := httptest.NewRequest(http.MethodPost, "/pdf/split", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Disposition"), "doc_split.zip")

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 3)
	require.Equal(t, "part_1.pdf", zr.File[0].Name)
}

func TestSplitHandler_NonNumericPagesPerFileIs400(t *testing.T) {
	r := newPDFTestRouter(t)

	body, contentType := multipartBody(t, []filePart{
		{"file", "doc.pdf", testPDFBytes(t, 2)},
	}, map[string]string{"pages_per_file": "abc"})

	req := httptest.NewRequest(http.MethodPost, "/pdf/split", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, errorDetail(t, rec), "pages_per_file")
}

func TestSplitHandler_MissingFileField(t *testing.T) {
	r := newPDFTestRouter(t)

	body, contentType := multipartBody(t, nil, map[string]string{"pages_per_file": "1"})

	req := httptest.NewRequest(http.MethodPost, "/pdf/split", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, errorDetail(t, rec), "file field is required")
}

func TestSplitHandler_RejectsNonPDFExtension(t *testing.T) {
	r := newPDFTestRouter(t)

	body, contentType := multipartBody(t, []filePart{
		{"file", "picture.png", []byte("not a pdf")},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/pdf/split", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchHandler_ReturnsMatches(t *testing.T) {
	r := newPDFTestRouter(t)

	body, contentType := multipartBody(t, []filePart{
		{"file", "doc.pdf", testPDFBytes(t, 2)},
	}, map[string]string{"pattern": "Handler test"})

	req := httptest.NewRequest(http.MethodPost, "/pdf/search", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result convert.SearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, 2, result.Total)
}

func TestExtractTextHandler_ReturnsJSON(t *testing.T) {
	r := newPDFTestRouter(t)

	body, contentType := multipartBody(t, []filePart{
		{"file", "doc.pdf", testPDFBytes(t, 1)},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/pdf/extract-text", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Text     string `json:"text"`
		Pages    int    `json:"pages"`
		Filename string `json:"filename"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Pages)
	require.Equal(t, "doc.pdf", resp.Filename)
	require.Contains(t, resp.Text, "Handler test page 1")
}

func TestRotateHandler_UnknownPageIs404(t *testing.T) {
	r := newPDFTestRouter(t)

	body, contentType := multipartBody(t, []filePart{
		{"file", "doc.pdf", testPDFBytes(t, 1)},
	}, map[string]string{"angle": "90", "pages": "9"})

	req := httptest.NewRequest(http.MethodPost, "/pdf/rotate", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRotateHandler_BadPageListIs400(t *testing.T) {
	r := newPDFTestRouter(t)

	body, contentType := multipartBody(t, []filePart{
		{"file", "doc.pdf", testPDFBytes(t, 1)},
	}, map[string]string{"angle": "90", "pages": "one,two"})

	req := httptest.NewRequest(http.MethodPost, "/pdf/rotate", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
