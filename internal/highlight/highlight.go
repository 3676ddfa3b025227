// Package highlight cross-references form fields and bounding boxes for
// hover highlighting. State is derived on every query from the single
// hovered field name; nothing else is stored.
package highlight

import (
	"receipts/internal/fields"
	"receipts/pkg/models"
)

// State is the highlight state of one field or box.
type State int

const (
	None State = iota
	Highlighted
	Muted
)

func (s State) String() string {
	switch s {
	case Highlighted:
		return "highlighted"
	case Muted:
		return "muted"
	default:
		return "none"
	}
}

// Tracker holds the currently hovered field, if any.
type Tracker struct {
	hover  string
	active bool
}

// Enter starts hovering over field, replacing any previous hover.
func (t *Tracker) Enter(field string) {
	t.hover = field
	t.active = true
}

// Leave ends the hover; every field returns to None.
func (t *Tracker) Leave() {
	t.hover = ""
	t.active = false
}

// Hovered returns the hovered field and whether a hover is active.
func (t *Tracker) Hovered() (string, bool) {
	return t.hover, t.active
}

// State derives the state of a field or box name against the hover.
func (t *Tracker) State(name string) State {
	if !t.active {
		return None
	}
	if fields.Normalize(t.hover) == fields.Normalize(name) {
		return Highlighted
	}
	return Muted
}

// FormField is one labelled input on the receipt form together with the
// names a box for it may carry.
type FormField struct {
	Name       string
	Candidates []string
}

// ReceiptFormFields are the receipt form inputs in display order.
var ReceiptFormFields = []FormField{
	{Name: "merchant_name", Candidates: fields.ReceiptKeys.MerchantName},
	{Name: "purchase_datetime", Candidates: fields.ReceiptKeys.PurchaseDatetime},
	{Name: "currency", Candidates: fields.ReceiptKeys.Currency},
	{Name: "gross_amount", Candidates: fields.ReceiptKeys.GrossAmount},
	{Name: "net_amount", Candidates: fields.ReceiptKeys.NetAmount},
	{Name: "vat_25", Candidates: fields.ReceiptKeys.VAT25},
	{Name: "vat_12", Candidates: fields.ReceiptKeys.VAT12},
	{Name: "vat_6", Candidates: fields.ReceiptKeys.VAT6},
	{Name: "payment_type", Candidates: fields.ReceiptKeys.PaymentType},
	{Name: "card_type", Candidates: fields.ReceiptKeys.CardType},
	{Name: "card_number_masked", Candidates: fields.ReceiptKeys.CardNumberMasked},
	{Name: "receipt_number", Candidates: fields.ReceiptKeys.ReceiptNumber},
}

// Pair binds a form field to the box field it resolves to. HasBox is
// false when no box matched and Box is the fallback candidate.
type Pair struct {
	Form   string
	Box    string
	HasBox bool
}

// Index is the form-field to box lookup for one payload.
type Index struct {
	pairs []Pair
	boxes []models.FieldBox
}

// NewIndex resolves every form field against the boxes.
func NewIndex(boxes []models.FieldBox, form []FormField) *Index {
	idx := &Index{boxes: boxes, pairs: make([]Pair, 0, len(form))}

	present := make(map[string]struct{}, len(boxes))
	for _, b := range boxes {
		present[b.Field] = struct{}{}
	}

	for _, f := range form {
		candidates := append([]string{f.Name}, f.Candidates...)
		box := fields.ResolveBoxField(boxes, candidates)
		_, ok := present[box]
		idx.pairs = append(idx.pairs, Pair{Form: f.Name, Box: box, HasBox: ok})
	}
	return idx
}

// Pairs returns the resolved pairs in form order.
func (idx *Index) Pairs() []Pair {
	return idx.pairs
}

// Row is the highlight state of one pair under the current hover.
type Row struct {
	Pair
	FormState State
	BoxState  State
}

// Render derives the state of every pair and of every box for a tracker.
// A pair is compared under both of its names, so hovering a form field
// highlights the box it resolved to and hovering that box highlights the
// form field, even when the box carries an alias such as store_name.
func (idx *Index) Render(t *Tracker) ([]Row, []State) {
	hits := make(map[string]bool, len(idx.pairs))
	rows := make([]Row, 0, len(idx.pairs))
	for _, p := range idx.pairs {
		state := t.pairState(p)
		row := Row{Pair: p, FormState: state, BoxState: None}
		if p.HasBox {
			row.BoxState = state
			if state == Highlighted {
				hits[p.Box] = true
			}
		}
		rows = append(rows, row)
	}

	boxStates := make([]State, 0, len(idx.boxes))
	for _, b := range idx.boxes {
		state := t.State(b.Field)
		if state == Muted && hits[b.Field] {
			state = Highlighted
		}
		boxStates = append(boxStates, state)
	}
	return rows, boxStates
}

func (t *Tracker) pairState(p Pair) State {
	state := t.State(p.Form)
	if state == Muted && p.HasBox {
		state = t.State(p.Box)
	}
	return state
}
