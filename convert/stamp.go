package convert

import (
	"math"

	"github.com/wudi/pdfkit/ir/semantic"
	"github.com/wudi/pdfkit/optimize"
)

const (
	stampFontName  = "PCF1"
	stampAlphaName = "PCGS1"
)

func pdfOptimizer(quality int) *optimize.Optimizer {
	return optimize.New(optimize.Config{
		CombineDuplicateDirectObjects:   true,
		CombineIdenticalIndirectObjects: true,
		CombineDuplicateStreams:         true,
		CompressStreams:                 true,
		UseObjectStreams:                true,
		ImageQuality:                    quality,
		CleanUnusedResources:            true,
	})
}

func num(v float64) semantic.Operand { return semantic.NumberOperand{Value: v} }
func opName(v string) semantic.Operand {
	return semantic.NameOperand{Value: v}
}
func opString(v string) semantic.Operand {
	return semantic.StringOperand{Value: []byte(v)}
}

// pageBox returns the visible page rectangle, preferring the crop box.
func pageBox(page *semantic.Page) semantic.Rectangle {
	box := page.CropBox
	if box.URX == 0 && box.URY == 0 {
		box = page.MediaBox
	}
	return box
}

// appendContent adds a standalone content stream after the page's existing
// ones, so stamps draw on top of the original content.
func appendContent(page *semantic.Page, ops []semantic.Operation) {
	page.Contents = append(page.Contents, semantic.ContentStream{Operations: ops})
	page.Dirty = true
}

// ensureStampFont registers a Helvetica resource on the page for stamp
// text and returns its resource name.
func ensureStampFont(page *semantic.Page) string {
	if page.Resources == nil {
		page.Resources = &semantic.Resources{}
	}
	if page.Resources.Fonts == nil {
		page.Resources.Fonts = make(map[string]*semantic.Font)
	}
	if _, ok := page.Resources.Fonts[stampFontName]; !ok {
		page.Resources.Fonts[stampFontName] = &semantic.Font{BaseFont: "Helvetica"}
	}
	page.Resources.Dirty = true
	return stampFontName
}

// ensureStampAlpha registers an ExtGState with the given fill alpha and
// returns its resource name.
func ensureStampAlpha(page *semantic.Page, alpha float64) string {
	if page.Resources == nil {
		page.Resources = &semantic.Resources{}
	}
	if page.Resources.ExtGStates == nil {
		page.Resources.ExtGStates = make(map[string]semantic.ExtGState)
	}
	a := alpha
	page.Resources.ExtGStates[stampAlphaName] = semantic.ExtGState{FillAlpha: &a}
	page.Resources.Dirty = true
	return stampAlphaName
}

// stampWatermark draws translucent gray text rotated 45 degrees through
// the center of the page.
func stampWatermark(page *semantic.Page, text string, opacity float64) {
	fontName := ensureStampFont(page)
	gsName := ensureStampAlpha(page, opacity)
	box := pageBox(page)

	width := box.URX - box.LLX
	height := box.URY - box.LLY
	size := math.Min(math.Max((width+height)/(2*float64(len(text)))*1.6, 24), 96)

	// 45 degree rotation matrix centered on the page, shifted back by
	// roughly half the rendered text width.
	cos := math.Sqrt2 / 2
	textWidth := size * 0.5 * float64(len(text))
	cx := box.LLX + width/2 - textWidth*cos/2
	cy := box.LLY + height/2 - textWidth*cos/2

	ops := []semantic.Operation{
		{Operator: "q"},
		{Operator: "gs", Operands: []semantic.Operand{opName(gsName)}},
		{Operator: "g", Operands: []semantic.Operand{num(0.5)}},
		{Operator: "BT"},
		{Operator: "Tf", Operands: []semantic.Operand{opName(fontName), num(size)}},
		{Operator: "Tm", Operands: []semantic.Operand{num(cos), num(cos), num(-cos), num(cos), num(cx), num(cy)}},
		{Operator: "Tj", Operands: []semantic.Operand{opString(text)}},
		{Operator: "ET"},
		{Operator: "Q"},
	}
	appendContent(page, ops)
}

// stampPageNumber draws label at one of the position enums, inset from the
// page edge.
func stampPageNumber(page *semantic.Page, label, position string) {
	fontName := ensureStampFont(page)
	box := pageBox(page)

	const size = 11.0
	const margin = 24.0
	textWidth := size * 0.5 * float64(len(label))

	var x, y float64
	switch position {
	case "top-left":
		x, y = box.LLX+margin, box.URY-margin
	case "top-right":
		x, y = box.URX-margin-textWidth, box.URY-margin
	case "bottom-left":
		x, y = box.LLX+margin, box.LLY+margin
	case "bottom-right":
		x, y = box.URX-margin-textWidth, box.LLY+margin
	default: // bottom-center
		x, y = box.LLX+(box.URX-box.LLX-textWidth)/2, box.LLY+margin
	}

	ops := []semantic.Operation{
		{Operator: "q"},
		{Operator: "g", Operands: []semantic.Operand{num(0)}},
		{Operator: "BT"},
		{Operator: "Tf", Operands: []semantic.Operand{opName(fontName), num(size)}},
		{Operator: "Td", Operands: []semantic.Operand{num(x), num(y)}},
		{Operator: "Tj", Operands: []semantic.Operand{opString(label)}},
		{Operator: "ET"},
		{Operator: "Q"},
	}
	appendContent(page, ops)
}

// stampBlackBox draws an opaque black rectangle in page coordinates.
func stampBlackBox(page *semantic.Page, x, y, width, height float64) {
	ops := []semantic.Operation{
		{Operator: "q"},
		{Operator: "g", Operands: []semantic.Operand{num(0)}},
		{Operator: "re", Operands: []semantic.Operand{num(x), num(y), num(width), num(height)}},
		{Operator: "f"},
		{Operator: "Q"},
	}
	appendContent(page, ops)
}
