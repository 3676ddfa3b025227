package ocr

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"

	"receipts/internal/fields"
	"receipts/pkg/models"
)

// entityFields renames Document AI expense entities to receipt fields.
var entityFields = map[string]string{
	"supplier_name":    "merchant_name",
	"receipt_date":     "purchase_datetime",
	"total_amount":     "gross_amount",
	"net_amount":       "net_amount",
	"currency":         "currency",
	"supplier_address": "address",
	"supplier_city":    "city",
	"supplier_phone":   "phone",
	"supplier_tax_id":  "orgnr",
	"supplier_website": "www",
	"line_item":        "items",
}

func fieldName(entityType string) string {
	if name, ok := entityFields[entityType]; ok {
		return name
	}
	return entityType
}

type rect struct {
	x0, y0, x1, y1 float64
}

func (r rect) union(o rect) rect {
	return rect{
		x0: math.Min(r.x0, o.x0),
		y0: math.Min(r.y0, o.y0),
		x1: math.Max(r.x1, o.x1),
		y1: math.Max(r.y1, o.y1),
	}
}

func (r rect) box(field string, page int) models.FieldBox {
	return models.FieldBox{
		Field:  field,
		X:      r.x0,
		Y:      r.y0,
		Width:  r.x1 - r.x0,
		Height: r.y1 - r.y0,
		Page:   page,
	}
}

// bounds returns the rectangle around points, scaled into 0-1 page
// coordinates when width and height are known.
func bounds(points [][2]float64, width, height float64) (rect, bool) {
	if len(points) == 0 {
		return rect{}, false
	}
	r := rect{x0: math.Inf(1), y0: math.Inf(1), x1: math.Inf(-1), y1: math.Inf(-1)}
	for _, p := range points {
		x, y := p[0], p[1]
		if width > 0 && height > 0 {
			x, y = x/width, y/height
		}
		r.x0, r.x1 = math.Min(r.x0, x), math.Max(r.x1, x)
		r.y0, r.y1 = math.Min(r.y0, y), math.Max(r.y1, y)
	}
	return r, true
}

// BoxesFromDocument returns one box per Document AI entity that has a
// bounding polygon. Entities with properties, such as line items, are
// numbered and their properties named "parent[n].child".
func BoxesFromDocument(doc *documentaipb.Document) []models.FieldBox {
	if doc == nil {
		return nil
	}

	var boxes []models.FieldBox
	rows := map[string]int{}

	for _, entity := range doc.Entities {
		name := fieldName(entity.GetType())
		if len(entity.GetProperties()) == 0 {
			if box, ok := entityBox(doc, name, entity); ok {
				boxes = append(boxes, box)
			}
			continue
		}

		parent := fmt.Sprintf("%s[%d]", name, rows[name])
		rows[name]++
		if box, ok := entityBox(doc, parent, entity); ok {
			boxes = append(boxes, box)
		}
		for _, prop := range entity.GetProperties() {
			child := strings.TrimPrefix(prop.GetType(), entity.GetType()+"/")
			if box, ok := entityBox(doc, parent+"."+fieldName(child), prop); ok {
				boxes = append(boxes, box)
			}
		}
	}
	return boxes
}

func entityBox(doc *documentaipb.Document, name string, entity *documentaipb.Document_Entity) (models.FieldBox, bool) {
	refs := entity.GetPageAnchor().GetPageRefs()
	if len(refs) == 0 {
		return models.FieldBox{}, false
	}
	ref := refs[0]
	poly := ref.GetBoundingPoly()
	page := int(ref.GetPage())

	var points [][2]float64
	var width, height float64
	if normalized := poly.GetNormalizedVertices(); len(normalized) > 0 {
		for _, v := range normalized {
			points = append(points, [2]float64{float64(v.GetX()), float64(v.GetY())})
		}
	} else {
		for _, v := range poly.GetVertices() {
			points = append(points, [2]float64{float64(v.GetX()), float64(v.GetY())})
		}
		if page < len(doc.GetPages()) {
			dim := doc.GetPages()[page].GetDimension()
			width, height = float64(dim.GetWidth()), float64(dim.GetHeight())
		}
	}

	r, ok := bounds(points, width, height)
	if !ok {
		return models.FieldBox{}, false
	}
	return r.box(name, page+1), true
}

type visionWord struct {
	text string
	page int
	rect rect
}

// LabelVisionWords finds each known value among the detected words and
// returns a box named after its field. Values may span several words of
// one paragraph; numbers compare by value so "125,00" matches "125". Only
// the first occurrence of a value is boxed. Output is ordered by field.
func LabelVisionWords(ann *visionpb.TextAnnotation, values map[string]string) []models.FieldBox {
	if ann == nil || len(values) == 0 {
		return nil
	}

	paragraphs := visionParagraphs(ann)

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var boxes []models.FieldBox
	for _, name := range names {
		target := compact(values[name])
		if target == "" {
			continue
		}
		if box, ok := findValue(paragraphs, target); ok {
			box.Field = name
			boxes = append(boxes, box)
		}
	}
	return boxes
}

func visionParagraphs(ann *visionpb.TextAnnotation) [][]visionWord {
	var paragraphs [][]visionWord

	for pageIdx, page := range ann.GetPages() {
		width, height := float64(page.GetWidth()), float64(page.GetHeight())
		for _, block := range page.GetBlocks() {
			for _, paragraph := range block.GetParagraphs() {
				var words []visionWord
				for _, word := range paragraph.GetWords() {
					var text strings.Builder
					for _, symbol := range word.GetSymbols() {
						text.WriteString(symbol.GetText())
					}

					poly := word.GetBoundingBox()
					var points [][2]float64
					scaleW, scaleH := width, height
					if normalized := poly.GetNormalizedVertices(); len(normalized) > 0 {
						for _, v := range normalized {
							points = append(points, [2]float64{float64(v.GetX()), float64(v.GetY())})
						}
						scaleW, scaleH = 0, 0
					} else {
						for _, v := range poly.GetVertices() {
							points = append(points, [2]float64{float64(v.GetX()), float64(v.GetY())})
						}
					}

					r, ok := bounds(points, scaleW, scaleH)
					if !ok {
						continue
					}
					words = append(words, visionWord{text: text.String(), page: pageIdx + 1, rect: r})
				}
				if len(words) > 0 {
					paragraphs = append(paragraphs, words)
				}
			}
		}
	}
	return paragraphs
}

func findValue(paragraphs [][]visionWord, target string) (models.FieldBox, bool) {
	for _, words := range paragraphs {
		for start := range words {
			var joined strings.Builder
			r := words[start].rect
			for end := start; end < len(words); end++ {
				joined.WriteString(compact(words[end].text))
				r = r.union(words[end].rect)

				got := joined.String()
				if sameValue(got, target) {
					return r.box("", words[start].page), true
				}
				if len(got) >= len(target) {
					break
				}
			}
		}
	}
	return models.FieldBox{}, false
}

func compact(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "")
}

var amountTrimmer = strings.NewReplacer("kr", "", ":-", "", "sek", "")

func sameValue(got, want string) bool {
	if got == want {
		return true
	}
	g := fields.ParseNumber(strings.ReplaceAll(amountTrimmer.Replace(got), ",", "."))
	w := fields.ParseNumber(strings.ReplaceAll(amountTrimmer.Replace(want), ",", "."))
	return g != nil && w != nil && math.Abs(*g-*w) < 0.005
}

// ReceiptValues lists the receipt fields worth locating on the image.
func ReceiptValues(r models.Receipt) map[string]string {
	values := map[string]string{
		"merchant_name":      r.MerchantName,
		"purchase_datetime":  r.PurchaseDatetime,
		"gross_amount":       fields.FormatNumber(r.GrossAmount),
		"net_amount":         fields.FormatNumber(r.NetAmount),
		"vat_25":             fields.FormatNumber(r.VAT25),
		"vat_12":             fields.FormatNumber(r.VAT12),
		"vat_6":              fields.FormatNumber(r.VAT6),
		"receipt_number":     r.ReceiptNumber,
		"card_number_masked": r.CardNumberMasked,
	}
	for k, v := range values {
		if strings.TrimSpace(v) == "" {
			delete(values, k)
		}
	}
	return values
}
