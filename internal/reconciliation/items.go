package reconciliation

import (
	"github.com/shopspring/decimal"

	"receipts/internal/fields"
	"receipts/pkg/models"
)

var hundred = decimal.NewFromInt(100)

// NormaliseItems reads the line items of a modal payload from whichever
// item array the backend populated and applies the derivation fallbacks
// to each. Entries that are not objects become empty items so positions
// stay stable for proposal resolution.
func NormaliseItems(payload map[string]any) []models.LineItem {
	raw := fields.FirstNonEmptyArray(payload, fields.ItemArrayKeys)

	items := make([]models.LineItem, 0, len(raw))
	for _, entry := range raw {
		items = append(items, NormaliseItem(fields.Object(entry)))
	}
	return items
}

// NormaliseItem maps one raw line item. Explicit values always win; the
// derivations only fill gaps:
//
//	total      = unit price × quantity
//	vat        = gross total − net total
//	vat rate   = vat / net total × 100
func NormaliseItem(raw map[string]any) models.LineItem {
	keys := fields.ItemKeys

	item := models.LineItem{
		Name:                 fields.CoalesceString(raw, keys.Name),
		Number:               fields.CoalesceNumber(raw, keys.Quantity),
		ItemPriceExVat:       fields.CoalesceNumber(raw, keys.UnitPriceExVat),
		ItemPriceIncVat:      fields.CoalesceNumber(raw, keys.UnitPriceIncVat),
		ItemTotalPriceExVat:  fields.CoalesceNumber(raw, keys.TotalExVat),
		ItemTotalPriceIncVat: fields.CoalesceNumber(raw, keys.TotalIncVat),
		Vat:                  fields.CoalesceNumber(raw, keys.VatAmount),
		VatPercentage:        fields.CoalesceNumber(raw, keys.VatRate),
		Currency:             fields.CoalesceString(raw, keys.Currency),
	}

	for _, key := range fields.ItemIdentityKeys {
		value := fields.String(raw[key])
		if value == "" {
			continue
		}
		if item.Identity == nil {
			item.Identity = make(map[string]string)
			item.ID = value
			item.IDKey = key
		}
		item.Identity[key] = value
	}

	if item.ItemTotalPriceExVat == nil && item.ItemPriceExVat != nil && item.Number != nil {
		item.ItemTotalPriceExVat = toFloat(dec(item.ItemPriceExVat).Mul(dec(item.Number)))
	}
	if item.ItemTotalPriceIncVat == nil && item.ItemPriceIncVat != nil && item.Number != nil {
		item.ItemTotalPriceIncVat = toFloat(dec(item.ItemPriceIncVat).Mul(dec(item.Number)))
	}
	if item.Vat == nil && item.ItemTotalPriceIncVat != nil && item.ItemTotalPriceExVat != nil {
		item.Vat = toFloat(dec(item.ItemTotalPriceIncVat).Sub(dec(item.ItemTotalPriceExVat)))
	}
	if item.VatPercentage == nil && item.Vat != nil && item.ItemTotalPriceExVat != nil && *item.ItemTotalPriceExVat != 0 {
		item.VatPercentage = toFloat(dec(item.Vat).Mul(hundred).Div(dec(item.ItemTotalPriceExVat)))
	}

	item.Extra = fields.Rest(raw,
		keys.Name, keys.Quantity, keys.UnitPriceExVat, keys.UnitPriceIncVat,
		keys.TotalExVat, keys.TotalIncVat, keys.VatAmount, keys.VatRate, keys.Currency,
		[]string{item.IDKey},
	)

	return item
}

func dec(v *float64) decimal.Decimal {
	return decimal.NewFromFloat(*v)
}

func toFloat(d decimal.Decimal) *float64 {
	f := d.InexactFloat64()
	return &f
}
