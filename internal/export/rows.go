// Package export flattens a receipt into bookkeeping rows, one per line
// item and accounting proposal, and writes them as CSV or XLSX.
package export

import (
	"strconv"
	"strings"

	"receipts/internal/fields"
	"receipts/internal/reconciliation"
	"receipts/pkg/models"
)

// Headers are the column titles shared by every output format.
var Headers = []string{
	"Receipt", "Merchant", "Date", "Currency",
	"Item #", "Item", "Quantity", "Total ex VAT", "Total inc VAT", "VAT", "VAT %",
	"Account", "Side", "Amount", "Notes",
}

// Row is one exported line.
type Row struct {
	ReceiptID string
	Merchant  string
	Date      string
	Currency  string

	// ItemPosition is 1-based; 0 means the row carries no item.
	ItemPosition int
	ItemName     string
	Quantity     *float64
	TotalExVat   *float64
	TotalIncVat  *float64
	VatAmount    *float64
	VatRate      *float64

	Account string
	Side    string
	Amount  *float64
	Notes   string
}

// Rows flattens a payload. Each item yields one row per proposal booked
// against it, or a single row when it has none. Without items every
// proposal becomes its own row.
func Rows(receiptID string, p models.ModalPayload, defaultCurrency string) []Row {
	base := Row{
		ReceiptID: receiptID,
		Merchant:  p.Receipt.MerchantName,
		Date:      p.Receipt.PurchaseDatetime,
		Currency:  NormalizeCurrency(p.Receipt.Currency, defaultCurrency),
	}
	if base.ReceiptID == "" {
		base.ReceiptID = p.Receipt.ID
	}

	var rows []Row
	groups := reconciliation.GroupByItem(p.Items, p.Proposals)
	if groups == nil {
		for _, proposal := range p.Proposals {
			rows = append(rows, withProposal(base, proposal))
		}
		return rows
	}

	for i, item := range p.Items {
		row := base
		row.ItemPosition = i + 1
		row.ItemName = item.Name
		row.Quantity = item.Number
		row.TotalExVat = item.ItemTotalPriceExVat
		row.TotalIncVat = item.ItemTotalPriceIncVat
		row.VatAmount = item.Vat
		row.VatRate = item.VatPercentage
		if item.Currency != "" {
			row.Currency = NormalizeCurrency(item.Currency, base.Currency)
		}

		if len(groups[i]) == 0 {
			rows = append(rows, row)
			continue
		}
		for _, proposal := range groups[i] {
			rows = append(rows, withProposal(row, proposal))
		}
	}
	return rows
}

func withProposal(row Row, p models.AccountingProposal) Row {
	row.Account = p.Account
	row.Side = p.Side()
	if row.Side != "" {
		row.Amount = models.Float(p.Amount())
	}
	row.Notes = p.Notes
	if row.VatRate == nil {
		row.VatRate = p.VatRate
	}
	return row
}

// Strings renders the row for text formats. Missing numbers are empty.
func (r Row) Strings() []string {
	position := ""
	if r.ItemPosition > 0 {
		position = strconv.Itoa(r.ItemPosition)
	}
	return []string{
		r.ReceiptID, r.Merchant, r.Date, r.Currency,
		position, r.ItemName,
		fields.FormatNumber(r.Quantity),
		fields.FormatNumber(r.TotalExVat),
		fields.FormatNumber(r.TotalIncVat),
		fields.FormatNumber(r.VatAmount),
		fields.FormatNumber(r.VatRate),
		r.Account, r.Side,
		fields.FormatNumber(r.Amount),
		r.Notes,
	}
}

// Values renders the row for spreadsheets, keeping numbers numeric.
func (r Row) Values() []any {
	var position any = ""
	if r.ItemPosition > 0 {
		position = r.ItemPosition
	}
	return []any{
		r.ReceiptID, r.Merchant, r.Date, r.Currency,
		position, r.ItemName,
		cell(r.Quantity),
		cell(r.TotalExVat),
		cell(r.TotalIncVat),
		cell(r.VatAmount),
		cell(r.VatRate),
		r.Account, r.Side,
		cell(r.Amount),
		r.Notes,
	}
}

func cell(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

// NormalizeCurrency maps common spellings to ISO codes. Anything that is
// not a three letter code falls back to def.
func NormalizeCurrency(currency, def string) string {
	normalized := strings.ToUpper(strings.TrimSpace(currency))

	switch normalized {
	case "":
		return def
	case "KR", "KR.", ":-", "SEK", "KRONOR":
		return "SEK"
	case "€", "EURO", "EUROS", "EUR":
		return "EUR"
	case "$", "DOLLAR", "DOLLARS", "USD", "US$":
		return "USD"
	case "£", "POUND", "POUNDS", "GBP":
		return "GBP"
	default:
		if len(normalized) == 3 {
			return normalized
		}
		return def
	}
}
