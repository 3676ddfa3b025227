package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"receipts/pkg/models"
)

func samplePayload() models.ModalPayload {
	return models.ModalPayload{
		Receipt: models.Receipt{
			MerchantName:     "ICA Kvantum",
			PurchaseDatetime: "2024-03-01 12:30",
			Currency:         "kr",
		},
		Items: []models.LineItem{
			{Name: "Kaffe", Number: models.Float(2), ItemTotalPriceExVat: models.Float(80), ItemTotalPriceIncVat: models.Float(100), Vat: models.Float(20), VatPercentage: models.Float(25)},
			{Name: "Pant", Number: models.Float(1)},
		},
		Proposals: []models.AccountingProposal{
			{ItemIndex: 0, Account: "4010", Debit: models.Float(80)},
			{ItemIndex: 0, Account: "2641", Debit: models.Float(20)},
			{ItemIndex: 7, Account: "1930", Credit: models.Float(100), Notes: "kort"},
		},
	}
}

func TestRows(t *testing.T) {
	rows := Rows("r1", samplePayload(), "SEK")
	require.Len(t, rows, 3)

	assert.Equal(t, "4010", rows[0].Account)
	assert.Equal(t, 1, rows[0].ItemPosition)
	assert.Equal(t, models.SideDebit, rows[0].Side)
	assert.Equal(t, models.Float(80), rows[0].Amount)
	assert.Equal(t, "SEK", rows[0].Currency)

	assert.Equal(t, "2641", rows[1].Account)

	// out of range proposal lands on the last item
	assert.Equal(t, 2, rows[2].ItemPosition)
	assert.Equal(t, "Pant", rows[2].ItemName)
	assert.Equal(t, models.SideCredit, rows[2].Side)
	assert.Equal(t, "kort", rows[2].Notes)
}

func TestRowsItemWithoutProposals(t *testing.T) {
	p := samplePayload()
	p.Proposals = nil

	rows := Rows("r1", p, "SEK")
	require.Len(t, rows, 2)
	assert.Equal(t, "", rows[0].Account)
	assert.Nil(t, rows[0].Amount)
}

func TestRowsWithoutItems(t *testing.T) {
	p := samplePayload()
	p.Items = nil

	rows := Rows("", p, "SEK")
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Equal(t, 0, row.ItemPosition)
		assert.Equal(t, "", row.ItemName)
	}
	assert.Equal(t, "", rows[0].Strings()[4])

	assert.Empty(t, Rows("r1", models.ModalPayload{}, "SEK"))
}

func TestNormalizeCurrency(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "", want: "SEK"},
		{in: " kr ", want: "SEK"},
		{in: "€", want: "EUR"},
		{in: "us$", want: "USD"},
		{in: "nok", want: "NOK"},
		{in: "kronor", want: "SEK"},
		{in: "something", want: "SEK"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCurrency(tt.in, "SEK"), "currency %q", tt.in)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Rows("r1", samplePayload(), "SEK")))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, Headers, records[0])
	assert.Equal(t, []string{
		"r1", "ICA Kvantum", "2024-03-01 12:30", "SEK",
		"1", "Kaffe", "2", "80", "100", "20", "25",
		"4010", "debit", "80", "",
	}, records[1])
	assert.Equal(t, "", records[3][7], "missing numbers stay empty")
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, Rows("r1", samplePayload(), "SEK"), ""))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DefaultSheetName}, f.GetSheetList())

	rows, err := f.GetRows(DefaultSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, Headers, rows[0])
	assert.Equal(t, "Kaffe", rows[1][5])
	assert.Equal(t, "80", rows[1][13])
	assert.Equal(t, "1930", rows[3][11])
}
