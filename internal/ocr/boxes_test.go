package ocr

import (
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"receipts/internal/fields"
	"receipts/pkg/models"
)

func normalizedAnchor(page int64, x0, y0, x1, y1 float32) *documentaipb.Document_PageAnchor {
	return &documentaipb.Document_PageAnchor{
		PageRefs: []*documentaipb.Document_PageAnchor_PageRef{{
			Page: page,
			BoundingPoly: &documentaipb.BoundingPoly{
				NormalizedVertices: []*documentaipb.NormalizedVertex{
					{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1},
				},
			},
		}},
	}
}

func TestBoxesFromDocument(t *testing.T) {
	doc := &documentaipb.Document{
		Pages: []*documentaipb.Document_Page{
			{Dimension: &documentaipb.Document_Page_Dimension{Width: 1000, Height: 2000}},
		},
		Entities: []*documentaipb.Document_Entity{
			{Type: "supplier_name", MentionText: "ICA", PageAnchor: normalizedAnchor(0, 0.1, 0.05, 0.5, 0.1)},
			{
				Type: "total_amount",
				PageAnchor: &documentaipb.Document_PageAnchor{
					PageRefs: []*documentaipb.Document_PageAnchor_PageRef{{
						BoundingPoly: &documentaipb.BoundingPoly{
							Vertices: []*documentaipb.Vertex{{X: 500, Y: 1000}, {X: 800, Y: 1100}},
						},
					}},
				},
			},
			{Type: "receipt_date"},
			{
				Type:       "line_item",
				PageAnchor: normalizedAnchor(0, 0.1, 0.3, 0.9, 0.35),
				Properties: []*documentaipb.Document_Entity{
					{Type: "line_item/description", PageAnchor: normalizedAnchor(0, 0.1, 0.3, 0.6, 0.35)},
					{Type: "line_item/amount", PageAnchor: normalizedAnchor(0, 0.7, 0.3, 0.9, 0.35)},
				},
			},
			{
				Type: "line_item",
				Properties: []*documentaipb.Document_Entity{
					{Type: "line_item/description", PageAnchor: normalizedAnchor(0, 0.1, 0.4, 0.6, 0.45)},
				},
			},
		},
	}

	boxes := BoxesFromDocument(doc)

	names := make([]string, 0, len(boxes))
	for _, b := range boxes {
		names = append(names, b.Field)
	}
	assert.Equal(t, []string{
		"merchant_name",
		"gross_amount",
		"items[0]",
		"items[0].description",
		"items[0].amount",
		"items[1].description",
	}, names)

	assert.InDelta(t, 0.1, boxes[0].X, 1e-6)
	assert.InDelta(t, 0.4, boxes[0].Width, 1e-6)
	assert.Equal(t, 1, boxes[0].Page)

	// pixel vertices are scaled by the page dimension
	assert.InDelta(t, 0.5, boxes[1].X, 1e-9)
	assert.InDelta(t, 0.5, boxes[1].Y, 1e-9)
	assert.InDelta(t, 0.3, boxes[1].Width, 1e-9)
	assert.InDelta(t, 0.05, boxes[1].Height, 1e-9)
	assert.True(t, boxes[1].Normalized())

	// nested names resolve against the same candidates as form fields
	assert.Equal(t, "items[0].description", fields.ResolveBoxField(boxes, []string{"description", "name"}))
	assert.Nil(t, BoxesFromDocument(nil))
}

func word(text string, x0, y0, x1, y1 int32) *visionpb.Word {
	var symbols []*visionpb.Symbol
	for _, r := range text {
		symbols = append(symbols, &visionpb.Symbol{Text: string(r)})
	}
	return &visionpb.Word{
		Symbols: symbols,
		BoundingBox: &visionpb.BoundingPoly{
			Vertices: []*visionpb.Vertex{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}},
		},
	}
}

func receiptAnnotation() *visionpb.TextAnnotation {
	return &visionpb.TextAnnotation{
		Text: "ICA Kvantum Lund\nTotalt 125,00 kr\n",
		Pages: []*visionpb.Page{{
			Width:  1000,
			Height: 1000,
			Blocks: []*visionpb.Block{{
				Paragraphs: []*visionpb.Paragraph{
					{Words: []*visionpb.Word{
						word("ICA", 100, 50, 200, 80),
						word("Kvantum", 210, 50, 400, 80),
						word("Lund", 410, 50, 500, 80),
					}},
					{Words: []*visionpb.Word{
						word("Totalt", 100, 800, 250, 830),
						word("125,00", 600, 800, 750, 830),
						word("kr", 760, 800, 800, 830),
					}},
				},
			}},
		}},
	}
}

func TestLabelVisionWords(t *testing.T) {
	values := ReceiptValues(models.Receipt{
		MerchantName: "ICA  Kvantum",
		GrossAmount:  models.Float(125),
		VAT25:        models.Float(25),
		Description:  "not located",
	})
	assert.Equal(t, map[string]string{
		"merchant_name": "ICA  Kvantum",
		"gross_amount":  "125",
		"vat_25":        "25",
	}, values)

	boxes := LabelVisionWords(receiptAnnotation(), values)
	require.Len(t, boxes, 2)

	assert.Equal(t, "gross_amount", boxes[0].Field)
	assert.InDelta(t, 0.6, boxes[0].X, 1e-9)
	assert.InDelta(t, 0.15, boxes[0].Width, 1e-9)

	assert.Equal(t, "merchant_name", boxes[1].Field)
	assert.InDelta(t, 0.1, boxes[1].X, 1e-9)
	assert.InDelta(t, 0.3, boxes[1].Width, 1e-9, "spans both words")
	assert.Equal(t, 1, boxes[1].Page)

	assert.Nil(t, LabelVisionWords(nil, values))
	assert.Nil(t, LabelVisionWords(receiptAnnotation(), nil))
}

func TestSameValue(t *testing.T) {
	assert.True(t, sameValue("125,00", "125"))
	assert.True(t, sameValue("125:-", "125"))
	assert.True(t, sameValue("ica", "ica"))
	assert.False(t, sameValue("125,50", "125"))
	assert.False(t, sameValue("ica", "coop"))
}
