// Package reconciliation turns the loosely shaped modal payload of the
// receipts backend into a stable view model: receipt, company, boxes,
// line items and accounting proposals tied to their items.
//
// Nothing in this package fails on malformed input. Missing, renamed or
// mistyped values degrade to nil, empty strings and empty slices.
package reconciliation

import (
	"sort"

	"receipts/internal/fields"
	"receipts/pkg/models"
)

// DefaultCurrency is used when a receipt carries no currency.
const DefaultCurrency = "SEK"

// NormalisePayload maps a raw modal payload onto the canonical shape.
func NormalisePayload(raw map[string]any) models.ModalPayload {
	items := NormaliseItems(raw)

	return models.ModalPayload{
		Receipt:   NormaliseReceipt(fields.Object(raw["receipt"])),
		Company:   NormaliseCompany(fields.Object(raw["company"])),
		Boxes:     NormaliseBoxes(raw["boxes"]),
		Items:     items,
		Proposals: NormaliseProposals(raw, items),
	}
}

// NormaliseReceipt maps the receipt object of a modal payload.
func NormaliseReceipt(raw map[string]any) models.Receipt {
	keys := fields.ReceiptKeys
	idKey, id := fields.CoalesceKey(raw, keys.ID)

	receipt := models.Receipt{
		ID:               id,
		IDKey:            idKey,
		MerchantName:     fields.CoalesceString(raw, keys.MerchantName),
		PurchaseDatetime: fields.CoalesceString(raw, keys.PurchaseDatetime),
		Currency:         fields.CoalesceString(raw, keys.Currency),
		GrossAmount:      fields.CoalesceNumber(raw, keys.GrossAmount),
		NetAmount:        fields.CoalesceNumber(raw, keys.NetAmount),
		VAT25:            fields.CoalesceNumber(raw, keys.VAT25),
		VAT12:            fields.CoalesceNumber(raw, keys.VAT12),
		VAT6:             fields.CoalesceNumber(raw, keys.VAT6),
		PaymentType:      fields.CoalesceString(raw, keys.PaymentType),
		CardType:         fields.CoalesceString(raw, keys.CardType),
		CardNumberMasked: fields.CoalesceString(raw, keys.CardNumberMasked),
		ReceiptNumber:    fields.CoalesceString(raw, keys.ReceiptNumber),
		Description:      fields.CoalesceString(raw, keys.Description),
		OtherData:        fields.CoalesceString(raw, keys.OtherData),
		Extra: fields.Rest(raw,
			[]string{idKey}, keys.MerchantName, keys.PurchaseDatetime, keys.Currency,
			keys.GrossAmount, keys.NetAmount, keys.VAT25, keys.VAT12, keys.VAT6,
			keys.PaymentType, keys.CardType, keys.CardNumberMasked, keys.ReceiptNumber,
			keys.Description, keys.OtherData, keys.Tags,
		),
	}

	if receipt.Currency == "" {
		receipt.Currency = DefaultCurrency
	}

	receipt.Tags = []string{}
	for _, key := range keys.Tags {
		if tags := fields.StringList(raw[key]); len(tags) > 0 {
			receipt.Tags = tags
			break
		}
	}

	return receipt
}

// NormaliseCompany maps the company object of a modal payload.
func NormaliseCompany(raw map[string]any) models.Company {
	keys := fields.CompanyKeys
	idKey, id := fields.CoalesceKey(raw, keys.ID)

	return models.Company{
		ID:         id,
		IDKey:      idKey,
		Name:       fields.CoalesceString(raw, keys.Name),
		OrgNumber:  fields.CoalesceString(raw, keys.OrgNumber),
		Address:    fields.CoalesceString(raw, keys.Address),
		PostalCode: fields.CoalesceString(raw, keys.PostalCode),
		City:       fields.CoalesceString(raw, keys.City),
		Phone:      fields.CoalesceString(raw, keys.Phone),
		Email:      fields.CoalesceString(raw, keys.Email),
		Website:    fields.CoalesceString(raw, keys.Website),
		Extra: fields.Rest(raw,
			[]string{idKey}, keys.Name, keys.OrgNumber, keys.Address, keys.PostalCode,
			keys.City, keys.Phone, keys.Email, keys.Website,
		),
	}
}

// NormaliseBoxes reads bounding boxes given either as a list of objects
// carrying their field name or as an object keyed by field name. Boxes
// without a field name are dropped.
func NormaliseBoxes(raw any) []models.FieldBox {
	boxes := []models.FieldBox{}

	switch v := raw.(type) {
	case []any:
		for _, entry := range v {
			m := fields.Object(entry)
			if box, ok := normaliseBox(fields.CoalesceString(m, fields.BoxKeys.Field), m); ok {
				boxes = append(boxes, box)
			}
		}
	case map[string]any:
		names := make([]string, 0, len(v))
		for name := range v {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if box, ok := normaliseBox(name, fields.Object(v[name])); ok {
				boxes = append(boxes, box)
			}
		}
	}

	return boxes
}

func normaliseBox(field string, raw map[string]any) (models.FieldBox, bool) {
	if field == "" {
		return models.FieldBox{}, false
	}

	keys := fields.BoxKeys
	box := models.FieldBox{Field: field}
	if v := fields.CoalesceNumber(raw, keys.X); v != nil {
		box.X = *v
	}
	if v := fields.CoalesceNumber(raw, keys.Y); v != nil {
		box.Y = *v
	}
	if v := fields.CoalesceNumber(raw, keys.Width); v != nil {
		box.Width = *v
	}
	if v := fields.CoalesceNumber(raw, keys.Height); v != nil {
		box.Height = *v
	}
	if v, ok := fields.Integer(raw[keys.Page[0]]); ok {
		box.Page = v
	} else if v, ok := fields.Integer(raw[keys.Page[1]]); ok {
		box.Page = v
	}
	return box, true
}

// NeedsFallbackItems reports whether a modal payload has no items under
// any recognised key, in which case the line items endpoint is consulted.
func NeedsFallbackItems(raw map[string]any) bool {
	return !fields.HasItems(raw, fields.ItemArrayKeys)
}

// WithFallbackItems returns a shallow copy of raw with items stored under
// line_items.
func WithFallbackItems(raw map[string]any, items []any) map[string]any {
	merged := make(map[string]any, len(raw)+1)
	for k, v := range raw {
		merged[k] = v
	}
	if items == nil {
		items = []any{}
	}
	merged["line_items"] = items
	return merged
}
