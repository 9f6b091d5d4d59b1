package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wudi/pdfkit/builder"
)

// buildTestPDF assembles a document with the given number of pages, each
// carrying a recognizable line of text.
func buildTestPDF(t *testing.T, pages int) []byte {
	t.Helper()

	b := builder.NewBuilder()
	for i := 1; i <= pages; i++ {
		b.NewPage(612, 792).
			DrawText(fmt.Sprintf("Sample page %d", i), 72, 720, builder.TextOptions{FontSize: 12}).
			Finish()
	}
	doc, err := b.Build()
	require.NoError(t, err)

	out, err := writePDF(context.Background(), doc)
	require.NoError(t, err)
	return out
}

func pageCount(t *testing.T, data []byte) int {
	t.Helper()

	doc, _, err := parsePDF(context.Background(), data, "")
	require.NoError(t, err)
	return len(doc.Pages)
}

func newTestPDFService(t *testing.T) *PDFService {
	t.Helper()
	return NewPDFService(NewScratch(t.TempDir()), nil)
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()

	var convErr *Error
	require.ErrorAs(t, err, &convErr)
	require.Equal(t, kind, convErr.Kind)
}

func TestMerge_PageCountIsSumOfInputs(t *testing.T) {
	t.Parallel()

	svc := newTestPDFService(t)
	out, err := svc.Merge(context.Background(), [][]byte{
		buildTestPDF(t, 2),
		buildTestPDF(t, 3),
	})
	require.NoError(t, err)
	require.Equal(t, 5, pageCount(t, out))
}

func TestMerge_RequiresTwoFiles(t *testing.T) {
	t.Parallel()

	svc := newTestPDFService(t)
	_, err := svc.Merge(context.Background(), [][]byte{buildTestPDF(t, 1)})
	requireKind(t, err, KindInvalidInput)
}

func TestSplit_ThenMergeReproducesPageCount(t *testing.T) {
	t.Parallel()

	svc := newTestPDFService(t)
	ctx := context.Background()
	src := buildTestPDF(t, 5)

	zipped, err := svc.Split(ctx, src, 2)
	require.NoError(t, err)

	reader, err := zip.NewReader(bytes.NewReader(zipped), int64(len(zipped)))
	require.NoError(t, err)

	// 5 pages at 2 per file: part_1.pdf, part_2.pdf, part_3.pdf.
	require.Len(t, reader.File, 3)

	var parts [][]byte
	for i, f := range reader.File {
		require.Equal(t, fmt.Sprintf("part_%d.pdf", i+1), f.Name)

		rc, err := f.Open()
		require.NoError(t, err)
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		require.NoError(t, err)
		rc.Close()
		parts = append(parts, buf.Bytes())
	}

	merged, err := svc.Merge(ctx, parts)
	require.NoError(t, err)
	require.Equal(t, 5, pageCount(t, merged))
}

func TestSplit_RejectsNonPositivePagesPerFile(t *testing.T) {
	t.Parallel()

	svc := newTestPDFService(t)
	_, err := svc.Split(context.Background(), buildTestPDF(t, 2), 0)
	requireKind(t, err, KindInvalidInput)
}

func TestRotate_AllPages(t *testing.T) {
	t.Parallel()

	svc := newTestPDFService(t)
	out, err := svc.Rotate(context.Background(), buildTestPDF(t, 2), 90, nil)
	require.NoError(t, err)

	doc, _, err := parsePDF(context.Background(), out, "")
	require.NoError(t, err)
	for _, page := range doc.Pages {
		require.Equal(t, 90, page.Rotate)
	}
}

func TestRotate_NormalizesNegativeSourceRotation(t *testing.T) {
	t.Parallel()

	svc := newTestPDFService(t)
	ctx := context.Background()

	doc, _, err := parsePDF(ctx, buildTestPDF(t, 1), "")
	require.NoError(t, err)
	doc.Pages[0].Rotate = -90
	doc.Pages[0].Dirty = true
	src, err := writePDF(ctx, doc)
	require.NoError(t, err)

	out, err := svc.Rotate(ctx, src, 90, nil)
	require.NoError(t, err)

	rotated, _, err := parsePDF(ctx, out, "")
	require.NoError(t, err)
	require.Equal(t, 0, rotated.Pages[0].Rotate)
}

func TestRotate_RejectsBadAngle(t *testing.T) {
	t.Parallel()

	svc := newTestPDFService(t)
	_, err := svc.Rotate(context.Background(), buildTestPDF(t, 1), 45, nil)
	requireKind(t, err, KindInvalidInput)
}

func TestRotate_UnknownPageIsNotFound(t *testing.T) {
	t.Parallel()

	svc := newTestPDFService(t)
	_, err := svc.Rotate(context.Background(), buildTestPDF(t, 2), 90, []int{7})
	requireKind(t, err, KindNotFound)
}

func TestCrop_DegenerateBoxIsRejected(t *testing.T) {
	t.Parallel()

	svc := newTestPDFService(t)
	_, err := svc.Crop(context.Background(), buildTestPDF(t, 1), CropMargins{Left: 400, Right: 400})
	requireKind(t, err, KindInvalidInput)
}

func TestWatermark_OutputStillParses(t *testing.T) {
	t.Parallel()

	svc := newTestPDFService(t)
	out, err := svc.Watermark(context.Background(), buildTestPDF(t, 3), "DRAFT", 0.3)
	require.NoError(t, err)
	require.Equal(t, 3, pageCount(t, out))
}

func TestWatermark_RequiresText(t *testing.T) {
	t.Parallel()

	svc := newTestPDFService(t)
	_, err := svc.Watermark(context.Background(), buildTestPDF(t, 1), "   ", 0.3)
	requireKind(t, err, KindInvalidInput)
}

func TestPageNumbers_RejectsUnknownPosition(t *testing.T) {
	t.Parallel()

	svc := newTestPDFService(t)
	_, err := svc.PageNumbers(context.Background(), buildTestPDF(t, 1), "middle-left", 1)
	requireKind(t, err, KindInvalidInput)
}

func TestPageNumbers_OutputStillParses(t *testing.T) {
	t.Parallel()

	svc := newTestPDFService(t)
	out, err := svc.PageNumbers(context.Background(), buildTestPDF(t, 2), "bottom-center", 1)
	require.NoError(t, err)
	require.Equal(t, 2, pageCount(t, out))
}

func TestRedact_UnknownPageIsNotFound(t *testing.T) {
	t.Parallel()

	svc := newTestPDFService(t)
	_, err := svc.Redact(context.Background(), buildTestPDF(t, 1), []RedactRegion{
		{Page: 4, X: 10, Y: 10, Width: 100, Height: 20},
	})
	requireKind(t, err, KindNotFound)
}

func TestRedact_OutputStillParses(t *testing.T) {
	t.Parallel()

	svc := newTestPDFService(t)
	out, err := svc.Redact(context.Background(), buildTestPDF(t, 2), []RedactRegion{
		{Page: 1, X: 70, Y: 710, Width: 200, Height: 30},
	})
	require.NoError(t, err)
	require.Equal(t, 2, pageCount(t, out))
}

func TestSearch_FindsTextOnEveryPage(t *testing.T) {
	t.Parallel()

	svc := newTestPDFService(t)
	result, err := svc.Search(context.Background(), buildTestPDF(t, 3), "Sample page")
	require.NoError(t, err)
	require.Equal(t, 3, result.Total)
	require.Len(t, result.Pages, 3)
	require.Equal(t, 1, result.Pages[0].Page)
}

func TestSearch_InvalidRegex(t *testing.T) {
	t.Parallel()

	svc := newTestPDFService(t)
	_, err := svc.Search(context.Background(), buildTestPDF(t, 1), "(unclosed")
	requireKind(t, err, KindInvalidInput)
}

func TestExtractText_ReturnsPerPageHeaders(t *testing.T) {
	t.Parallel()

	svc := newTestPDFService(t)
	result, err := svc.ExtractText(context.Background(), buildTestPDF(t, 2))
	require.NoError(t, err)
	require.Equal(t, 2, result.Pages)
	require.Contains(t, result.Text, "--- Page 1 ---")
	require.Contains(t, result.Text, "Sample page 2")
}

func TestToImages_RendersEveryPageToArchive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	svc := NewPDFService(NewScratch(dir), nil)

	out, err := svc.ToImages(context.Background(), buildTestPDF(t, 3), "png", 150)
	require.NoError(t, err)

	reader, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)
	require.Len(t, reader.File, 3)
	for i, f := range reader.File {
		require.Equal(t, fmt.Sprintf("page_%d.png", i+1), f.Name)
		require.NotZero(t, f.UncompressedSize64)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries, "scratch files must be gone after rendering")
}

func TestToImages_ReleasesScratchOnFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	svc := NewPDFService(NewScratch(dir), nil)

	_, err := svc.ToImages(context.Background(), []byte("not a pdf"), "png", 150)
	requireKind(t, err, KindProcessing)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries, "scratch files must be gone after a failed render")
}

func TestToImages_RejectsBadFormatAndDPI(t *testing.T) {
	t.Parallel()

	svc := newTestPDFService(t)
	ctx := context.Background()
	src := buildTestPDF(t, 1)

	_, err := svc.ToImages(ctx, src, "tiff", 150)
	requireKind(t, err, KindInvalidInput)

	_, err = svc.ToImages(ctx, src, "png", 10)
	requireKind(t, err, KindInvalidInput)
}

func TestProtectAndUnlock(t *testing.T) {
	t.Parallel()

	svc := newTestPDFService(t)
	ctx := context.Background()
	src := buildTestPDF(t, 2)

	protected, err := svc.Protect(ctx, src, "s3cret")
	require.NoError(t, err)

	// The protected document must not open without the password.
	_, _, err = parsePDF(ctx, protected, "")
	require.Error(t, err)

	unlocked, err := svc.Unlock(ctx, protected, "s3cret")
	require.NoError(t, err)
	require.Equal(t, 2, pageCount(t, unlocked))
}

func TestUnlock_WrongPassword(t *testing.T) {
	t.Parallel()

	svc := newTestPDFService(t)
	ctx := context.Background()

	protected, err := svc.Protect(ctx, buildTestPDF(t, 1), "correct")
	require.NoError(t, err)

	_, err = svc.Unlock(ctx, protected, "incorrect")
	requireKind(t, err, KindInvalidInput)
}
