package fields

// Candidate key lists, highest priority first. Every read of a logical
// field from a backend payload goes through one of these lists.

// Arrays holding line items and accounting proposals in a modal payload.
var (
	ItemArrayKeys     = []string{"items", "receipt_items", "line_items", "unified_file_items"}
	ProposalArrayKeys = []string{"proposals", "accounting", "accounting_entries", "accounting_proposals", "ai_accounting_proposals"}
	ReceiptListKeys   = []string{"receipts", "data", "items", "results"}
)

// ItemIdentityKeys are the id-like keys a line item may carry.
var ItemIdentityKeys = []string{"id", "item_id", "receipt_item_id", "article_id", "sku", "articleNumber"}

// ProposalItemKeys are the keys a proposal may use to point at its item.
var ProposalItemKeys = []string{"item_id", "receipt_item_id", "item", "item_key", "article_id"}

// ReceiptKeys lists the candidates for every receipt field.
var ReceiptKeys = struct {
	ID, MerchantName, PurchaseDatetime, Currency           []string
	GrossAmount, NetAmount, VAT25, VAT12, VAT6             []string
	PaymentType, CardType, CardNumberMasked, ReceiptNumber []string
	Description, OtherData, Tags                           []string
}{
	ID:               []string{"id", "receipt_id", "file_id"},
	MerchantName:     []string{"merchant_name", "merchant", "store_name", "vendor"},
	PurchaseDatetime: []string{"purchase_datetime", "purchase_date", "receipt_date", "transaction_date", "date"},
	Currency:         []string{"currency", "currency_code"},
	GrossAmount:      []string{"gross_amount", "gross_amount_sek", "total_amount", "total"},
	NetAmount:        []string{"net_amount", "net_amount_sek", "amount_ex_vat", "subtotal"},
	VAT25:            []string{"vat_25", "vat25", "vat_amount_25"},
	VAT12:            []string{"vat_12", "vat12", "vat_amount_12"},
	VAT6:             []string{"vat_6", "vat6", "vat_amount_6"},
	PaymentType:      []string{"payment_type", "payment_method"},
	CardType:         []string{"card_type", "card_brand"},
	CardNumberMasked: []string{"card_number_masked", "masked_pan", "card_number"},
	ReceiptNumber:    []string{"receipt_number", "receipt_no", "receipt_nr"},
	Description:      []string{"description"},
	OtherData:        []string{"other_data", "notes"},
	Tags:             []string{"tags", "tag_list"},
}

// CompanyKeys lists the candidates for every company field.
var CompanyKeys = struct {
	ID, Name, OrgNumber, Address, PostalCode, City, Phone, Email, Website []string
}{
	ID:         []string{"id", "company_id"},
	Name:       []string{"name", "company_name"},
	OrgNumber:  []string{"orgnr", "org_number", "organization_number", "organisation_number"},
	Address:    []string{"address", "street", "address_line"},
	PostalCode: []string{"postal_code", "zip", "zip_code", "postcode"},
	City:       []string{"city", "town"},
	Phone:      []string{"phone", "telephone", "phone_number"},
	Email:      []string{"email", "e_mail"},
	Website:    []string{"www", "website", "url"},
}

// ItemKeys lists the candidates for every line item field.
var ItemKeys = struct {
	Name, Quantity                  []string
	UnitPriceExVat, UnitPriceIncVat []string
	TotalExVat, TotalIncVat         []string
	VatAmount, VatRate, Currency    []string
}{
	Name:            []string{"name", "article_name", "item_name", "description", "text"},
	Quantity:        []string{"number", "quantity", "qty", "count"},
	UnitPriceExVat:  []string{"item_price_ex_vat", "unit_price_ex_vat", "price_ex_vat", "unit_price"},
	UnitPriceIncVat: []string{"item_price_inc_vat", "unit_price_inc_vat", "price_inc_vat", "price"},
	TotalExVat:      []string{"item_total_price_ex_vat", "total_price_ex_vat", "total_ex_vat", "net_total"},
	TotalIncVat:     []string{"item_total_price_inc_vat", "total_price_inc_vat", "total_inc_vat", "gross_total", "total_price", "total"},
	VatAmount:       []string{"vat", "vat_amount", "tax_amount"},
	VatRate:         []string{"vat_percentage", "vat_rate", "vat_percent", "tax_rate"},
	Currency:        []string{"currency", "currency_code"},
}

// ProposalKeys lists the candidates for every accounting proposal field.
var ProposalKeys = struct {
	ID, ItemIndex, Account, Debit, Credit, VatRate, Notes []string
}{
	ID:        []string{"id", "proposal_id"},
	ItemIndex: []string{"item_index"},
	Account:   []string{"account", "account_code", "account_number", "konto"},
	Debit:     []string{"debit", "debit_amount"},
	Credit:    []string{"credit", "credit_amount"},
	VatRate:   []string{"vat_rate", "vat_percentage", "tax_rate"},
	Notes:     []string{"notes", "note", "comment", "text"},
}

// BoxKeys lists the candidates for bounding box attributes.
var BoxKeys = struct {
	Field, X, Y, Width, Height, Page []string
}{
	Field:  []string{"field", "field_name", "name", "key", "label"},
	X:      []string{"x", "left"},
	Y:      []string{"y", "top"},
	Width:  []string{"width", "w"},
	Height: []string{"height", "h"},
	Page:   []string{"page", "page_number"},
}

// ListKeys lists the candidates for receipts list rows.
var ListKeys = struct {
	Status []string
}{
	Status: []string{"status", "ai_status", "state"},
}
