package reconciliation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"receipts/pkg/models"
)

const modalJSON = `{
  "receipt": {
    "id": "r-1",
    "merchant": "ICA Nära",
    "purchase_date": "2024-03-01T12:30:00",
    "gross_amount": "125.00",
    "net_amount": 100,
    "vat_25": 25,
    "payment_method": "card",
    "tags": "food, team",
    "ocr_raw": "ICA NARA ..."
  },
  "company": {"company_name": "ICA AB", "org_number": "556000-0000", "zip": "11122"},
  "boxes": [
    {"field": "receipt.merchant_name", "x": 0.1, "y": 0.05, "w": 0.5, "h": 0.04},
    {"name": "items[0].vat", "left": 10, "top": 20, "width": 30, "height": 5, "page": 1},
    {"x": 1}
  ],
  "receipt_items": [
    {"id": 11, "name": "Kaffe", "item_price_ex_vat": 40, "number": 2, "item_total_price_inc_vat": 100},
    {"sku": "BR-1", "name": "Bulle", "total_price_ex_vat": 20, "total_price_inc_vat": 25}
  ],
  "accounting_proposals": [
    {"account": "4010", "debit": 80, "item_id": 11},
    {"account": "4010", "debit": 20, "article_id": "BR-1"},
    {"account": "1930", "credit": 125}
  ]
}`

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &raw))
	return raw
}

func TestNormalisePayload(t *testing.T) {
	p := NormalisePayload(decode(t, modalJSON))

	assert.Equal(t, "r-1", p.Receipt.ID)
	assert.Equal(t, "ICA Nära", p.Receipt.MerchantName)
	assert.Equal(t, "2024-03-01T12:30:00", p.Receipt.PurchaseDatetime)
	assert.Equal(t, "SEK", p.Receipt.Currency)
	assert.Equal(t, models.Float(125), p.Receipt.GrossAmount)
	assert.Equal(t, models.Float(25), p.Receipt.VAT25)
	assert.Nil(t, p.Receipt.VAT12)
	assert.Equal(t, "card", p.Receipt.PaymentType)
	assert.Equal(t, []string{"food", "team"}, p.Receipt.Tags)
	assert.Equal(t, map[string]any{"ocr_raw": "ICA NARA ..."}, p.Receipt.Extra)

	assert.Equal(t, "ICA AB", p.Company.Name)
	assert.Equal(t, "556000-0000", p.Company.OrgNumber)
	assert.Equal(t, "11122", p.Company.PostalCode)

	require.Len(t, p.Boxes, 2)
	assert.Equal(t, models.FieldBox{Field: "receipt.merchant_name", X: 0.1, Y: 0.05, Width: 0.5, Height: 0.04}, p.Boxes[0])
	assert.True(t, p.Boxes[0].Normalized())
	assert.Equal(t, 1, p.Boxes[1].Page)
	assert.False(t, p.Boxes[1].Normalized())

	require.Len(t, p.Items, 2)
	assert.Equal(t, models.Float(80), p.Items[0].ItemTotalPriceExVat)
	assert.Equal(t, models.Float(20), p.Items[0].Vat)
	assert.Equal(t, models.Float(25), p.Items[0].VatPercentage)
	assert.Equal(t, models.Float(5), p.Items[1].Vat)

	require.Len(t, p.Proposals, 3)
	assert.Equal(t, 0, p.Proposals[0].ItemIndex)
	assert.Equal(t, 1, p.Proposals[1].ItemIndex)
	assert.Equal(t, 1, p.Proposals[2].ItemIndex)
}

func TestNormalisePayloadEmpty(t *testing.T) {
	p := NormalisePayload(nil)

	assert.Equal(t, DefaultCurrency, p.Receipt.Currency)
	assert.NotNil(t, p.Receipt.Tags)
	assert.NotNil(t, p.Boxes)
	assert.NotNil(t, p.Items)
	assert.NotNil(t, p.Proposals)
	assert.Empty(t, p.Items)
}

func TestNormaliseBoxesKeyedObject(t *testing.T) {
	boxes := NormaliseBoxes(map[string]any{
		"merchant_name": map[string]any{"x": 0.2, "y": 0.1, "width": 0.3, "height": 0.05},
		"gross_amount":  map[string]any{"x": 0.6, "y": 0.9, "width": 0.2, "height": 0.05},
	})

	require.Len(t, boxes, 2)
	assert.Equal(t, "gross_amount", boxes[0].Field)
	assert.Equal(t, "merchant_name", boxes[1].Field)
	assert.Empty(t, NormaliseBoxes("nonsense"))
}

func TestFallbackItems(t *testing.T) {
	raw := map[string]any{"items": []any{}, "receipt": map[string]any{}}
	assert.True(t, NeedsFallbackItems(raw))

	merged := WithFallbackItems(raw, []any{map[string]any{"name": "X"}})
	assert.False(t, NeedsFallbackItems(merged))
	assert.True(t, NeedsFallbackItems(raw), "original must not change")

	items := NormaliseItems(merged)
	require.Len(t, items, 1)
	assert.Equal(t, "X", items[0].Name)
}

func TestReceiptMarshalKeepsUnknownKeys(t *testing.T) {
	p := NormalisePayload(decode(t, modalJSON))

	data, err := json.Marshal(p.Receipt)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "ICA NARA ...", out["ocr_raw"])
	assert.Equal(t, "ICA Nära", out["merchant_name"])
	assert.Equal(t, 125.0, out["gross_amount"])
	assert.Nil(t, out["vat_12"])
}

func TestNormaliseReceiptList(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want []string
	}{
		{name: "bare array", raw: []any{map[string]any{"id": "1"}, map[string]any{"id": 2.0}}, want: []string{"1", "2"}},
		{name: "wrapped", raw: map[string]any{"receipts": []any{map[string]any{"receipt_id": "x"}}}, want: []string{"x"}},
		{name: "rows without id dropped", raw: []any{map[string]any{"merchant_name": "A"}, "junk"}, want: []string{}},
		{name: "garbage", raw: "oops", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormaliseReceiptList(tt.raw)
			ids := []string{}
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
