package draft

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"receipts/internal/fields"
)

var (
	// ErrInvalidPath is returned when an edit path cannot be parsed.
	ErrInvalidPath = errors.New("invalid draft path")

	// ErrUnknownField is returned when no draft field matches the path.
	ErrUnknownField = errors.New("unknown draft field")

	// ErrAmbiguousField is returned when a loose field name matches more
	// than one draft field.
	ErrAmbiguousField = errors.New("ambiguous draft field")

	// ErrIndexOutOfRange is returned when a row index does not exist.
	ErrIndexOutOfRange = errors.New("row index out of range")

	// ErrInvalidValue is returned for values a field cannot hold at all.
	ErrInvalidValue = errors.New("invalid value")
)

var pathPattern = regexp.MustCompile(`^([a-z_]+)(?:\[(\d+|\+)\])?\.(.+)$`)

// Set assigns value to the draft field at path. Paths look like
// "receipt.merchant_name", "company.orgnr", "items[0].vat" or
// "proposals[1].debit"; "items[+].name" appends a row first. Field names
// are matched exactly, then loosely via fields.Normalize when that match
// is unique.
func Set(d *Draft, path, value string) error {
	const op = "Set"

	m := pathPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(path)))
	if m == nil {
		return fmt.Errorf("%s: %w: %q", op, ErrInvalidPath, path)
	}
	section, index, field := m[1], m[2], m[3]

	switch section {
	case "receipt", "unified_files":
		if index != "" {
			return fmt.Errorf("%s: %w: %q", op, ErrInvalidPath, path)
		}
		return assign(op, d.Receipt.fields(), field, value)

	case "company":
		if index != "" {
			return fmt.Errorf("%s: %w: %q", op, ErrInvalidPath, path)
		}
		return assign(op, d.Company.fields(), field, value)

	case "items", "line_items", "receipt_items":
		if index == "+" {
			d.Items = append(d.Items, ItemDraft{})
			index = strconv.Itoa(len(d.Items) - 1)
		}
		pos, err := rowIndex(op, index, len(d.Items))
		if err != nil {
			return err
		}
		return assign(op, d.Items[pos].fields(), field, value)

	case "proposals", "accounting_proposals":
		if index == "+" {
			d.Proposals = append(d.Proposals, ProposalDraft{ItemIndex: max(len(d.Items)-1, 0)})
			index = strconv.Itoa(len(d.Proposals) - 1)
		}
		pos, err := rowIndex(op, index, len(d.Proposals))
		if err != nil {
			return err
		}
		prop := &d.Proposals[pos]
		if fields.Normalize(field) == "item_index" {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || n < 0 || n >= max(len(d.Items), 1) {
				return fmt.Errorf("%s: %w: item_index %q", op, ErrInvalidValue, value)
			}
			prop.ItemIndex = n
			return nil
		}
		return assign(op, prop.fields(), field, value)

	default:
		return fmt.Errorf("%s: %w: section %q", op, ErrInvalidPath, section)
	}
}

// Remove deletes the item or proposal row at path ("items[2]",
// "proposals[0]"). Proposals pointing past the last remaining item are
// moved onto it.
func Remove(d *Draft, path string) error {
	const op = "Remove"

	section, index, ok := strings.Cut(strings.TrimSuffix(strings.TrimSpace(path), "]"), "[")
	if !ok {
		return fmt.Errorf("%s: %w: %q", op, ErrInvalidPath, path)
	}

	switch strings.ToLower(section) {
	case "items", "line_items", "receipt_items":
		pos, err := rowIndex(op, index, len(d.Items))
		if err != nil {
			return err
		}
		d.Items = append(d.Items[:pos], d.Items[pos+1:]...)
		for i := range d.Proposals {
			if d.Proposals[i].ItemIndex > pos {
				d.Proposals[i].ItemIndex--
			}
			if d.Proposals[i].ItemIndex >= len(d.Items) {
				d.Proposals[i].ItemIndex = max(len(d.Items)-1, 0)
			}
		}
		return nil
	case "proposals", "accounting_proposals":
		pos, err := rowIndex(op, index, len(d.Proposals))
		if err != nil {
			return err
		}
		d.Proposals = append(d.Proposals[:pos], d.Proposals[pos+1:]...)
		return nil
	default:
		return fmt.Errorf("%s: %w: section %q", op, ErrInvalidPath, section)
	}
}

func rowIndex(op, index string, n int) (int, error) {
	if index == "" {
		return 0, fmt.Errorf("%s: %w: missing row index", op, ErrInvalidPath)
	}
	pos, err := strconv.Atoi(index)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %q", op, ErrInvalidPath, index)
	}
	if pos < 0 || pos >= n {
		return 0, fmt.Errorf("%s: %w: %d of %d", op, ErrIndexOutOfRange, pos, n)
	}
	return pos, nil
}

func assign(op string, targets map[string]*string, field, value string) error {
	if target, ok := targets[field]; ok {
		*target = value
		return nil
	}

	want := fields.Normalize(field)
	var matches []string
	for name := range targets {
		if fields.Normalize(name) == want {
			matches = append(matches, name)
		}
	}

	switch len(matches) {
	case 1:
		*targets[matches[0]] = value
		return nil
	case 0:
		return fmt.Errorf("%s: %w: %q", op, ErrUnknownField, field)
	default:
		sort.Strings(matches)
		return fmt.Errorf("%s: %w: %q matches %s", op, ErrAmbiguousField, field, strings.Join(matches, ", "))
	}
}

func (r *ReceiptDraft) fields() map[string]*string {
	return map[string]*string{
		"merchant_name":      &r.MerchantName,
		"purchase_datetime":  &r.PurchaseDatetime,
		"currency":           &r.Currency,
		"gross_amount":       &r.GrossAmount,
		"net_amount":         &r.NetAmount,
		"vat_25":             &r.VAT25,
		"vat_12":             &r.VAT12,
		"vat_6":              &r.VAT6,
		"payment_type":       &r.PaymentType,
		"card_type":          &r.CardType,
		"card_number_masked": &r.CardNumberMasked,
		"receipt_number":     &r.ReceiptNumber,
		"description":        &r.Description,
		"other_data":         &r.OtherData,
		"tags":               &r.Tags,
	}
}

func (c *CompanyDraft) fields() map[string]*string {
	return map[string]*string{
		"name":        &c.Name,
		"orgnr":       &c.OrgNumber,
		"address":     &c.Address,
		"postal_code": &c.PostalCode,
		"city":        &c.City,
		"phone":       &c.Phone,
		"email":       &c.Email,
		"www":         &c.Website,
	}
}

func (i *ItemDraft) fields() map[string]*string {
	return map[string]*string{
		"name":                     &i.Name,
		"number":                   &i.Number,
		"item_price_ex_vat":        &i.ItemPriceExVat,
		"item_price_inc_vat":       &i.ItemPriceIncVat,
		"item_total_price_ex_vat":  &i.ItemTotalPriceExVat,
		"item_total_price_inc_vat": &i.ItemTotalPriceIncVat,
		"vat":                      &i.Vat,
		"vat_percentage":           &i.VatPercentage,
		"currency":                 &i.Currency,
	}
}

func (p *ProposalDraft) fields() map[string]*string {
	return map[string]*string{
		"account":  &p.Account,
		"debit":    &p.Debit,
		"credit":   &p.Credit,
		"vat_rate": &p.VatRate,
		"notes":    &p.Notes,
	}
}

// InvalidNumbers lists the paths of numeric fields whose text will not
// parse and would be saved as empty.
func (d Draft) InvalidNumbers() []string {
	var bad []string
	check := func(path, text string) {
		if strings.TrimSpace(text) != "" && fields.ParseNumber(text) == nil {
			bad = append(bad, path)
		}
	}

	r := d.Receipt
	check("receipt.gross_amount", r.GrossAmount)
	check("receipt.net_amount", r.NetAmount)
	check("receipt.vat_25", r.VAT25)
	check("receipt.vat_12", r.VAT12)
	check("receipt.vat_6", r.VAT6)

	for i, item := range d.Items {
		prefix := fmt.Sprintf("items[%d].", i)
		check(prefix+"number", item.Number)
		check(prefix+"item_price_ex_vat", item.ItemPriceExVat)
		check(prefix+"item_price_inc_vat", item.ItemPriceIncVat)
		check(prefix+"item_total_price_ex_vat", item.ItemTotalPriceExVat)
		check(prefix+"item_total_price_inc_vat", item.ItemTotalPriceIncVat)
		check(prefix+"vat", item.Vat)
		check(prefix+"vat_percentage", item.VatPercentage)
	}

	for i, p := range d.Proposals {
		prefix := fmt.Sprintf("proposals[%d].", i)
		check(prefix+"debit", p.Debit)
		check(prefix+"credit", p.Credit)
		check(prefix+"vat_rate", p.VatRate)
	}

	return bad
}
