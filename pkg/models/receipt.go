package models

import "encoding/json"

// Receipt is the canonical receipt record shown in the preview modal.
// Numeric fields are nil when the backend did not send a usable value.
type Receipt struct {
	// IDKey is the backend key ID was read from; ID is written back under
	// it, or under "id" when empty.
	ID    string `json:"-"`
	IDKey string `json:"-"`

	MerchantName     string   `json:"merchant_name"`
	PurchaseDatetime string   `json:"purchase_datetime"`
	Currency         string   `json:"currency"`
	GrossAmount      *float64 `json:"gross_amount"`
	NetAmount        *float64 `json:"net_amount"`
	VAT25            *float64 `json:"vat_25"`
	VAT12            *float64 `json:"vat_12"`
	VAT6             *float64 `json:"vat_6"`
	PaymentType      string   `json:"payment_type"`
	CardType         string   `json:"card_type"`
	CardNumberMasked string   `json:"card_number_masked"`
	ReceiptNumber    string   `json:"receipt_number"`
	Description      string   `json:"description"`
	OtherData        string   `json:"other_data"`
	Tags             []string `json:"tags"`

	// Extra keeps backend keys this client does not model so a save
	// writes them back untouched.
	Extra map[string]any `json:"-"`
}

// MarshalJSON writes the known fields on top of Extra.
func (r Receipt) MarshalJSON() ([]byte, error) {
	type plain Receipt
	return marshalWithExtra(plain(r), r.Extra, r.IDKey, r.ID)
}

// Company is the merchant's company record.
type Company struct {
	ID         string `json:"-"`
	IDKey      string `json:"-"`
	Name       string `json:"name"`
	OrgNumber  string `json:"orgnr"`
	Address    string `json:"address"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Website    string `json:"www"`

	Extra map[string]any `json:"-"`
}

// MarshalJSON writes the known fields on top of Extra.
func (c Company) MarshalJSON() ([]byte, error) {
	type plain Company
	return marshalWithExtra(plain(c), c.Extra, c.IDKey, c.ID)
}

// ReceiptSummary is one row of the receipts list.
type ReceiptSummary struct {
	ID               string   `json:"id"`
	MerchantName     string   `json:"merchant_name"`
	PurchaseDatetime string   `json:"purchase_datetime"`
	GrossAmount      *float64 `json:"gross_amount"`
	Currency         string   `json:"currency"`
	Status           string   `json:"status"`
}

// RawPayload is an undecoded backend JSON object.
type RawPayload = map[string]any

// ModalPayload is the normalized content of the receipt preview modal.
type ModalPayload struct {
	Receipt   Receipt              `json:"receipt"`
	Company   Company              `json:"company"`
	Boxes     []FieldBox           `json:"boxes"`
	Items     []LineItem           `json:"items"`
	Proposals []AccountingProposal `json:"proposals"`
}

// marshalWithExtra writes known on top of extra, adding id under idKey.
func marshalWithExtra(known any, extra map[string]any, idKey, id string) ([]byte, error) {
	data, err := json.Marshal(known)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 && id == "" {
		return data, nil
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}

	merged := make(map[string]any, len(extra)+len(fields))
	for k, v := range extra {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	if id != "" {
		if idKey == "" {
			idKey = "id"
		}
		merged[idKey] = id
	}
	return json.Marshal(merged)
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
