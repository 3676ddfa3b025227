package reconciliation

import (
	"receipts/internal/fields"
	"receipts/pkg/models"
)

// NormaliseReceiptList reads the receipts list response, either a bare
// array or an object wrapping it under one of the list keys. Rows without
// an id are dropped.
func NormaliseReceiptList(raw any) []models.ReceiptSummary {
	var rows []any
	switch v := raw.(type) {
	case []any:
		rows = v
	case map[string]any:
		rows = fields.FirstNonEmptyArray(v, fields.ReceiptListKeys)
	}

	out := make([]models.ReceiptSummary, 0, len(rows))
	for _, entry := range rows {
		m := fields.Object(entry)
		id := fields.CoalesceString(m, fields.ReceiptKeys.ID)
		if id == "" {
			continue
		}

		currency := fields.CoalesceString(m, fields.ReceiptKeys.Currency)
		if currency == "" {
			currency = DefaultCurrency
		}

		out = append(out, models.ReceiptSummary{
			ID:               id,
			MerchantName:     fields.CoalesceString(m, fields.ReceiptKeys.MerchantName),
			PurchaseDatetime: fields.CoalesceString(m, fields.ReceiptKeys.PurchaseDatetime),
			GrossAmount:      fields.CoalesceNumber(m, fields.ReceiptKeys.GrossAmount),
			Currency:         currency,
			Status:           fields.CoalesceString(m, fields.ListKeys.Status),
		})
	}
	return out
}
