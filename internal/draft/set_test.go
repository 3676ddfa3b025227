package draft

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		value   string
		wantErr error
		check   func(t *testing.T, d Draft)
	}{
		{
			name: "receipt field", path: "receipt.merchant_name", value: "7-Eleven",
			check: func(t *testing.T, d Draft) { assert.Equal(t, "7-Eleven", d.Receipt.MerchantName) },
		},
		{
			name: "case insensitive", path: "Receipt.Gross_Amount", value: "70",
			check: func(t *testing.T, d Draft) { assert.Equal(t, "70", d.Receipt.GrossAmount) },
		},
		{
			name: "loose prefix", path: "receipt.unified_files.card_type", value: "VISA",
			check: func(t *testing.T, d Draft) { assert.Equal(t, "VISA", d.Receipt.CardType) },
		},
		{
			name: "company", path: "company.orgnr", value: "556677-8899",
			check: func(t *testing.T, d Draft) { assert.Equal(t, "556677-8899", d.Company.OrgNumber) },
		},
		{
			name: "item row", path: "items[1].vat", value: "7",
			check: func(t *testing.T, d Draft) { assert.Equal(t, "7", d.Items[1].Vat) },
		},
		{
			name: "line_items alias", path: "line_items[0].name", value: "Latte",
			check: func(t *testing.T, d Draft) { assert.Equal(t, "Latte", d.Items[0].Name) },
		},
		{
			name: "append item", path: "items[+].name", value: "Bulle",
			check: func(t *testing.T, d Draft) {
				require.Len(t, d.Items, 3)
				assert.Equal(t, "Bulle", d.Items[2].Name)
			},
		},
		{
			name: "append proposal", path: "proposals[+].account", value: "2640",
			check: func(t *testing.T, d Draft) {
				require.Len(t, d.Proposals, 4)
				assert.Equal(t, "2640", d.Proposals[3].Account)
				assert.Equal(t, 1, d.Proposals[3].ItemIndex)
			},
		},
		{
			name: "proposal item index", path: "proposals[2].item_index", value: "0",
			check: func(t *testing.T, d Draft) { assert.Equal(t, 0, d.Proposals[2].ItemIndex) },
		},
		{name: "item index out of range", path: "proposals[2].item_index", value: "2", wantErr: ErrInvalidValue},
		{name: "item index not a number", path: "proposals[0].item_index", value: "x", wantErr: ErrInvalidValue},
		{name: "row out of range", path: "items[5].vat", value: "1", wantErr: ErrIndexOutOfRange},
		{name: "missing row index", path: "items.vat", value: "1", wantErr: ErrInvalidPath},
		{name: "indexed receipt", path: "receipt[0].currency", value: "EUR", wantErr: ErrInvalidPath},
		{name: "unknown section", path: "boxes[0].x", value: "1", wantErr: ErrInvalidPath},
		{name: "no field", path: "receipt", value: "1", wantErr: ErrInvalidPath},
		{name: "unknown field", path: "receipt.colour", value: "red", wantErr: ErrUnknownField},
		{name: "ambiguous field", path: "receipt.vat_2", value: "1", wantErr: ErrAmbiguousField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ToDraft(loadPayload(t))

			err := Set(&d, tt.path, tt.value)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, d)
		})
	}
}

func TestRemove(t *testing.T) {
	d := ToDraft(loadPayload(t))

	require.NoError(t, Remove(&d, "items[0]"))
	require.Len(t, d.Items, 1)
	assert.Equal(t, "i2", d.Items[0].ID)
	for _, p := range d.Proposals {
		assert.Equal(t, 0, p.ItemIndex)
	}

	require.NoError(t, Remove(&d, "proposals[1]"))
	require.Len(t, d.Proposals, 2)
	assert.Equal(t, "p3", d.Proposals[1].ID)

	assert.ErrorIs(t, Remove(&d, "items[3]"), ErrIndexOutOfRange)
	assert.ErrorIs(t, Remove(&d, "receipt"), ErrInvalidPath)
	assert.ErrorIs(t, Remove(&d, "company[0]"), ErrInvalidPath)
}

func TestInvalidNumbers(t *testing.T) {
	d := ToDraft(loadPayload(t))
	assert.Empty(t, d.InvalidNumbers())

	d.Receipt.NetAmount = "fifty"
	d.Items[1].Number = "1,5"
	d.Proposals[0].Debit = ""

	assert.Equal(t, []string{"receipt.net_amount", "items[1].number"}, d.InvalidNumbers())
}
