package convert

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/unidoc/unioffice/document"
	"github.com/unidoc/unioffice/presentation"
	"github.com/wudi/pdfkit/extractor"
	"github.com/xuri/excelize/v2"
)

// extractPageTexts returns the embedded text of every page, index-aligned
// with the document's pages. Pages without text yield empty strings.
func extractPageTexts(ctx context.Context, data []byte) ([]string, error) {
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

	texts := make([]string, len(doc.Pages))
	for _, pt := range pageTexts {
		if pt.Page >= 0 && pt.Page < len(texts) {
			texts[pt.Page] = pt.Content
		}
	}
	return texts, nil
}

// ToWord converts a PDF to a Word document, one paragraph per extracted
// text line with page-break headings between pages.
func (s *PDFService) ToWord(ctx context.Context, data []byte) ([]byte, error) {
	texts, err := extractPageTexts(ctx, data)
	if err != nil {
		return nil, err
	}

	doc := document.New()
	for i, text := range texts {
		heading := doc.AddParagraph()
		heading.SetStyle("Heading1")
		heading.AddRun().AddText(fmt.Sprintf("Page %d", i+1))

		for _, line := range strings.Split(text, "\n") {
			para := doc.AddParagraph()
			para.AddRun().AddText(line)
		}
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, processing("failed to write Word document", err)
	}
	return buf.Bytes(), nil
}

// ToExcel converts a PDF to a workbook with one sheet per page and one
// text line per row.
func (s *PDFService) ToExcel(ctx context.Context, data []byte) ([]byte, error) {
	texts, err := extractPageTexts(ctx, data)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, text := range texts {
		sheet := fmt.Sprintf("Page %d", i+1)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, processing("failed to build workbook", err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, processing("failed to build workbook", err)
			}
		}
		for row, line := range strings.Split(text, "\n") {
			cell := fmt.Sprintf("A%d", row+1)
			if err := f.SetCellValue(sheet, cell, line); err != nil {
				return nil, processing("failed to build workbook", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, processing("failed to write workbook", err)
	}
	return buf.Bytes(), nil
}

// ToPowerPoint converts a PDF to a presentation with one slide per page
// carrying the page's extracted text.
func (s *PDFService) ToPowerPoint(ctx context.Context, data []byte) ([]byte, error) {
	texts, err := extractPageTexts(ctx, data)
	if err != nil {
		return nil, err
	}

	ppt := presentation.New()
	for _, text := range texts {
		slide := ppt.AddSlide()
		tb := slide.AddTextBox()
		for _, line := range strings.Split(text, "\n") {
			para := tb.AddParagraph()
			para.AddRun().SetText(line)
		}
	}

	var buf bytes.Buffer
	if err := ppt.Save(&buf); err != nil {
		return nil, processing("failed to write presentation", err)
	}
	return buf.Bytes(), nil
}

// ToHTML converts a PDF to a single self-contained HTML document with one
// section per page.
func (s *PDFService) ToHTML(ctx context.Context, data []byte) ([]byte, error) {
	pages, err := s.renderHTML(data)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"></head>\n<body>\n")
	for i, page := range pages {
		fmt.Fprintf(&sb, "<div class=\"page\" id=\"page-%d\">\n%s\n</div>\n", i+1, page)
	}
	sb.WriteString("</body>\n</html>\n")
	return []byte(sb.String()), nil
}
