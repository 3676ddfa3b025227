package models

// LineItem is one purchased article on a receipt.
type LineItem struct {
	// ID is the first identity candidate the backend sent and IDKey the
	// key it came from. A save writes ID back under that key only.
	ID    string `json:"-"`
	IDKey string `json:"-"`

	// Identity holds every identity candidate (id, item_id, sku, ...)
	// keyed by its backend key, values stringified.
	Identity map[string]string `json:"-"`

	Name                 string   `json:"name"`
	Number               *float64 `json:"number"` // quantity
	ItemPriceExVat       *float64 `json:"item_price_ex_vat"`
	ItemPriceIncVat      *float64 `json:"item_price_inc_vat"`
	ItemTotalPriceExVat  *float64 `json:"item_total_price_ex_vat"`
	ItemTotalPriceIncVat *float64 `json:"item_total_price_inc_vat"`
	Vat                  *float64 `json:"vat"`
	VatPercentage        *float64 `json:"vat_percentage"`
	Currency             string   `json:"currency,omitempty"`

	Extra map[string]any `json:"-"`
}

// MarshalJSON writes the known fields on top of Extra.
func (i LineItem) MarshalJSON() ([]byte, error) {
	type plain LineItem
	return marshalWithExtra(plain(i), i.Extra, i.IDKey, i.ID)
}

// Proposal sides.
const (
	SideDebit  = "debit"
	SideCredit = "credit"
)

// AccountingProposal is one bookkeeping entry tied to a line item by
// position.
type AccountingProposal struct {
	ID        string   `json:"-"`
	IDKey     string   `json:"-"`
	ItemIndex int      `json:"item_index"`
	Account   string   `json:"account"`
	Debit     *float64 `json:"debit"`
	Credit    *float64 `json:"credit"`
	VatRate   *float64 `json:"vat_rate"`
	Notes     string   `json:"notes"`

	Extra map[string]any `json:"-"`
}

// MarshalJSON writes the known fields on top of Extra.
func (p AccountingProposal) MarshalJSON() ([]byte, error) {
	type plain AccountingProposal
	return marshalWithExtra(plain(p), p.Extra, p.IDKey, p.ID)
}

// Side reports whether the proposal books a debit or a credit. Debit wins
// when both are nonzero; an empty string means neither is set.
func (p AccountingProposal) Side() string {
	switch {
	case p.Debit != nil && *p.Debit != 0:
		return SideDebit
	case p.Credit != nil && *p.Credit != 0:
		return SideCredit
	default:
		return ""
	}
}

// Amount returns the booked amount on the proposal's side.
func (p AccountingProposal) Amount() float64 {
	switch p.Side() {
	case SideDebit:
		return *p.Debit
	case SideCredit:
		return *p.Credit
	default:
		return 0
	}
}

// FieldBox is a bounding box annotation over the receipt image.
type FieldBox struct {
	Field  string  `json:"field"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Page   int     `json:"page,omitempty"`
}

// Normalized reports whether the box is expressed in 0-1 page coordinates
// rather than pixels.
func (b FieldBox) Normalized() bool {
	for _, v := range []float64{b.X, b.Y, b.Width, b.Height} {
		if v < 0 || v > 1 {
			return false
		}
	}
	return true
}
