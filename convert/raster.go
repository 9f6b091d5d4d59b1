package convert

import (
	"bytes"
	"os"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
)

// renderPages rasterizes pages [from, to) of a PDF at the given DPI and
// encodes them as png or jpg. to < 0 renders through the last page. MuPDF
// opens from a path, so the upload is staged through a scratch file that
// is released before returning.
func (s *PDFService) renderPages(data []byte, format string, dpi, from, to int) ([][]byte, error) {
	path, err := s.scratch.Allocate(".pdf")
	if err != nil {
		return nil, processing("failed to allocate scratch file", err)
	}
	defer s.scratch.Release(path)

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, processing("failed to stage upload", err)
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, processing("failed to open PDF for rendering", err)
	}
	defer doc.Close()

	if to < 0 || to > doc.NumPage() {
		to = doc.NumPage()
	}
	if from < 0 || from >= to {
		return nil, notFound("page range out of bounds")
	}

	var out [][]byte
	for n := from; n < to; n++ {
		img, err := doc.ImageDPI(n, float64(dpi))
		if err != nil {
			return nil, processing("failed to render page", err)
		}

		var buf bytes.Buffer
		switch format {
		case "jpg":
			err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90))
		default:
			err = imaging.Encode(&buf, img, imaging.PNG)
		}
		if err != nil {
			return nil, processing("failed to encode page image", err)
		}
		out = append(out, buf.Bytes())
	}
	return out, nil
}

// renderHTML exports each page of a PDF as an HTML fragment.
func (s *PDFService) renderHTML(data []byte) ([]string, error) {
	path, err := s.scratch.Allocate(".pdf")
	if err != nil {
		return nil, processing("failed to allocate scratch file", err)
	}
	defer s.scratch.Release(path)

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, processing("failed to stage upload", err)
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, processing("failed to open PDF", err)
	}
	defer doc.Close()

	var pages []string
	for n := 0; n < doc.NumPage(); n++ {
		html, err := doc.HTML(n, false)
		if err != nil {
			return nil, processing("HTML export failed", err)
		}
		pages = append(pages, html)
	}
	return pages, nil
}
