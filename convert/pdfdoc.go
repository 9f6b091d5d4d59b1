package convert

import (
	"bytes"
	"context"

	"github.com/wudi/pdfkit/filters"
	"github.com/wudi/pdfkit/ir/decoded"
	"github.com/wudi/pdfkit/ir/raw"
	"github.com/wudi/pdfkit/ir/semantic"
	"github.com/wudi/pdfkit/parser"
	"github.com/wudi/pdfkit/writer"
)

func decodeFilters() *filters.Pipeline {
	return filters.NewPipeline(
		[]filters.Decoder{
			filters.NewFlateDecoder(),
			filters.NewLZWDecoder(),
			filters.NewRunLengthDecoder(),
			filters.NewASCII85Decoder(),
			filters.NewASCIIHexDecoder(),
			filters.NewCryptDecoder(),
			filters.NewDCTDecoder(),
			filters.NewJPXDecoder(),
			filters.NewCCITTFaxDecoder(),
			filters.NewJBIG2Decoder(),
		},
		filters.Limits{},
	)
}

// parsePDF runs the raw -> decoded -> semantic pipeline over in-memory
// bytes. password is empty for unencrypted input.
func parsePDF(ctx context.Context, data []byte, password string) (*semantic.Document, *decoded.DecodedDocument, error) {
	p := parser.NewDocumentParser(parser.Config{Password: password})
	rawDoc, err := p.Parse(ctx, bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}

	dec := decoded.NewDecoder(decodeFilters())
	decodedDoc, err := dec.Decode(ctx, rawDoc)
	if err != nil {
		return nil, nil, err
	}

	doc, err := semantic.NewBuilder().Build(ctx, decodedDoc)
	if err != nil {
		return nil, nil, err
	}
	return doc, decodedDoc, nil
}

// writePDF serializes a semantic document with maximum stream compression.
func writePDF(ctx context.Context, doc *semantic.Document) ([]byte, error) {
	var buf bytes.Buffer
	w := writer.NewWriter()
	cfg := writer.Config{
		Version:     writer.PDF17,
		Compression: 9,
	}
	if err := w.Write(ctx, doc, &buf, cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fullPermissions is applied to protected outputs: the password gates
// opening, not what the holder can do afterwards.
func fullPermissions() raw.Permissions {
	return raw.Permissions{
		Print:             true,
		Modify:            true,
		Copy:              true,
		ModifyAnnotations: true,
		FillForms:         true,
		ExtractAccessible: true,
		Assemble:          true,
		PrintHighQuality:  true,
	}
}
