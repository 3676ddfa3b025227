// Package draft holds the editable, all-string mirror of a modal payload
// and converts between it and the canonical shape.
package draft

import (
	"strings"

	"receipts/internal/fields"
	"receipts/internal/reconciliation"
	"receipts/pkg/models"
)

// Draft is the editing copy of a modal payload. Every value is kept as the
// text the user typed so partial or invalid input is never lost.
type Draft struct {
	Receipt   ReceiptDraft    `json:"receipt"`
	Company   CompanyDraft    `json:"company"`
	Items     []ItemDraft     `json:"items"`
	Proposals []ProposalDraft `json:"proposals"`
}

// ReceiptDraft mirrors models.Receipt as text.
type ReceiptDraft struct {
	MerchantName     string `json:"merchant_name"`
	PurchaseDatetime string `json:"purchase_datetime"`
	Currency         string `json:"currency" jsonschema:"default=SEK"`
	GrossAmount      string `json:"gross_amount"`
	NetAmount        string `json:"net_amount"`
	VAT25            string `json:"vat_25"`
	VAT12            string `json:"vat_12"`
	VAT6             string `json:"vat_6"`
	PaymentType      string `json:"payment_type"`
	CardType         string `json:"card_type"`
	CardNumberMasked string `json:"card_number_masked"`
	ReceiptNumber    string `json:"receipt_number"`
	Description      string `json:"description"`
	OtherData        string `json:"other_data"`
	Tags             string `json:"tags" jsonschema:"description=Comma separated tags"`
}

// CompanyDraft mirrors models.Company as text.
type CompanyDraft struct {
	Name       string `json:"name"`
	OrgNumber  string `json:"orgnr"`
	Address    string `json:"address"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Website    string `json:"www"`
}

// ItemDraft is one editable line item. Origin is the 1-based position of
// the row in the payload the draft was made from, 0 for rows added since.
type ItemDraft struct {
	Origin               int    `json:"origin,omitempty" jsonschema:"minimum=0"`
	ID                   string `json:"id,omitempty"`
	Name                 string `json:"name"`
	Number               string `json:"number"`
	ItemPriceExVat       string `json:"item_price_ex_vat"`
	ItemPriceIncVat      string `json:"item_price_inc_vat"`
	ItemTotalPriceExVat  string `json:"item_total_price_ex_vat"`
	ItemTotalPriceIncVat string `json:"item_total_price_inc_vat"`
	Vat                  string `json:"vat"`
	VatPercentage        string `json:"vat_percentage"`
	Currency             string `json:"currency"`
}

// ProposalDraft is one editable accounting proposal. Origin works as on
// ItemDraft.
type ProposalDraft struct {
	Origin    int    `json:"origin,omitempty" jsonschema:"minimum=0"`
	ID        string `json:"id,omitempty"`
	ItemIndex int    `json:"item_index" jsonschema:"minimum=0"`
	Account   string `json:"account"`
	Debit     string `json:"debit"`
	Credit    string `json:"credit"`
	VatRate   string `json:"vat_rate"`
	Notes     string `json:"notes"`
}

// ToDraft renders a canonical payload as a draft. Proposals pointing at
// no valid item are moved to min(position, len(items)-1), floored at 0.
func ToDraft(p models.ModalPayload) Draft {
	num := fields.FormatNumber
	r := p.Receipt

	currency := r.Currency
	if currency == "" {
		currency = reconciliation.DefaultCurrency
	}

	d := Draft{
		Receipt: ReceiptDraft{
			MerchantName:     r.MerchantName,
			PurchaseDatetime: r.PurchaseDatetime,
			Currency:         currency,
			GrossAmount:      num(r.GrossAmount),
			NetAmount:        num(r.NetAmount),
			VAT25:            num(r.VAT25),
			VAT12:            num(r.VAT12),
			VAT6:             num(r.VAT6),
			PaymentType:      r.PaymentType,
			CardType:         r.CardType,
			CardNumberMasked: r.CardNumberMasked,
			ReceiptNumber:    r.ReceiptNumber,
			Description:      r.Description,
			OtherData:        r.OtherData,
			Tags:             strings.Join(r.Tags, ", "),
		},
		Company: CompanyDraft{
			Name:       p.Company.Name,
			OrgNumber:  p.Company.OrgNumber,
			Address:    p.Company.Address,
			PostalCode: p.Company.PostalCode,
			City:       p.Company.City,
			Phone:      p.Company.Phone,
			Email:      p.Company.Email,
			Website:    p.Company.Website,
		},
		Items:     make([]ItemDraft, 0, len(p.Items)),
		Proposals: make([]ProposalDraft, 0, len(p.Proposals)),
	}

	for i, item := range p.Items {
		d.Items = append(d.Items, ItemDraft{
			Origin:               i + 1,
			ID:                   item.ID,
			Name:                 item.Name,
			Number:               num(item.Number),
			ItemPriceExVat:       num(item.ItemPriceExVat),
			ItemPriceIncVat:      num(item.ItemPriceIncVat),
			ItemTotalPriceExVat:  num(item.ItemTotalPriceExVat),
			ItemTotalPriceIncVat: num(item.ItemTotalPriceIncVat),
			Vat:                  num(item.Vat),
			VatPercentage:        num(item.VatPercentage),
			Currency:             item.Currency,
		})
	}

	for i, prop := range p.Proposals {
		index := prop.ItemIndex
		if index < 0 || index >= len(p.Items) {
			index = reconciliation.ClampIndex(i, len(p.Items))
		}
		d.Proposals = append(d.Proposals, ProposalDraft{
			Origin:    i + 1,
			ID:        prop.ID,
			ItemIndex: index,
			Account:   prop.Account,
			Debit:     num(prop.Debit),
			Credit:    num(prop.Credit),
			VatRate:   num(prop.VatRate),
			Notes:     prop.Notes,
		})
	}

	return d
}

// FromDraft applies a draft on top of the last canonical payload. Values
// the draft does not carry (ids, boxes, unmodelled backend keys) pass
// through from base. Items and proposals are matched by id, then by the
// row they were made from; rows added since start empty.
func FromDraft(base models.ModalPayload, d Draft) models.ModalPayload {
	num := fields.ParseNumber

	out := models.ModalPayload{
		Receipt: base.Receipt,
		Company: base.Company,
		Boxes:   base.Boxes,
	}

	r := &out.Receipt
	r.MerchantName = d.Receipt.MerchantName
	r.PurchaseDatetime = d.Receipt.PurchaseDatetime
	r.Currency = strings.TrimSpace(d.Receipt.Currency)
	if r.Currency == "" {
		r.Currency = reconciliation.DefaultCurrency
	}
	r.GrossAmount = num(d.Receipt.GrossAmount)
	r.NetAmount = num(d.Receipt.NetAmount)
	r.VAT25 = num(d.Receipt.VAT25)
	r.VAT12 = num(d.Receipt.VAT12)
	r.VAT6 = num(d.Receipt.VAT6)
	r.PaymentType = d.Receipt.PaymentType
	r.CardType = d.Receipt.CardType
	r.CardNumberMasked = d.Receipt.CardNumberMasked
	r.ReceiptNumber = d.Receipt.ReceiptNumber
	r.Description = d.Receipt.Description
	r.OtherData = d.Receipt.OtherData
	r.Tags = fields.StringList(d.Receipt.Tags)

	c := &out.Company
	c.Name = d.Company.Name
	c.OrgNumber = d.Company.OrgNumber
	c.Address = d.Company.Address
	c.PostalCode = d.Company.PostalCode
	c.City = d.Company.City
	c.Phone = d.Company.Phone
	c.Email = d.Company.Email
	c.Website = d.Company.Website

	out.Items = make([]models.LineItem, 0, len(d.Items))
	for _, di := range d.Items {
		item := matchItem(base.Items, di.Origin, di.ID)
		item.ID = di.ID
		item.Name = di.Name
		item.Number = num(di.Number)
		item.ItemPriceExVat = num(di.ItemPriceExVat)
		item.ItemPriceIncVat = num(di.ItemPriceIncVat)
		item.ItemTotalPriceExVat = num(di.ItemTotalPriceExVat)
		item.ItemTotalPriceIncVat = num(di.ItemTotalPriceIncVat)
		item.Vat = num(di.Vat)
		item.VatPercentage = num(di.VatPercentage)
		item.Currency = di.Currency
		out.Items = append(out.Items, item)
	}

	out.Proposals = make([]models.AccountingProposal, 0, len(d.Proposals))
	for _, dp := range d.Proposals {
		prop := matchProposal(base.Proposals, dp.Origin, dp.ID)
		prop.ID = dp.ID
		prop.ItemIndex = reconciliation.ClampIndex(dp.ItemIndex, len(out.Items))
		prop.Account = dp.Account
		prop.Debit = num(dp.Debit)
		prop.Credit = num(dp.Credit)
		prop.VatRate = num(dp.VatRate)
		prop.Notes = dp.Notes
		out.Proposals = append(out.Proposals, prop)
	}

	return out
}

func matchItem(base []models.LineItem, origin int, id string) models.LineItem {
	if id != "" {
		for _, item := range base {
			if item.ID == id {
				return item
			}
		}
	}
	if origin > 0 && origin <= len(base) && base[origin-1].ID == id {
		return base[origin-1]
	}
	return models.LineItem{}
}

func matchProposal(base []models.AccountingProposal, origin int, id string) models.AccountingProposal {
	if id != "" {
		for _, p := range base {
			if p.ID == id {
				return p
			}
		}
	}
	if origin > 0 && origin <= len(base) && base[origin-1].ID == id {
		return base[origin-1]
	}
	return models.AccountingProposal{}
}
