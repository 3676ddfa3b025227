package fields

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToNumber(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		want   float64
		wantOK bool
	}{
		{name: "nil", input: nil},
		{name: "empty string", input: ""},
		{name: "blank string", input: "   "},
		{name: "float", input: 12.5, want: 12.5, wantOK: true},
		{name: "int", input: 3, want: 3, wantOK: true},
		{name: "numeric string", input: " 99.90 ", want: 99.9, wantOK: true},
		{name: "json number", input: json.Number("7"), want: 7, wantOK: true},
		{name: "true", input: true, want: 1, wantOK: true},
		{name: "false", input: false, want: 0, wantOK: true},
		{name: "garbage", input: "12 kr"},
		{name: "comma decimal", input: "12,50"},
		{name: "nan string", input: "NaN"},
		{name: "inf", input: math.Inf(1)},
		{name: "object", input: map[string]any{"v": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToNumber(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNumberAndFormat(t *testing.T) {
	assert.Nil(t, ParseNumber(""))
	assert.Nil(t, ParseNumber("abc"))

	n := ParseNumber("0.1")
	require.NotNil(t, n)
	assert.Equal(t, "0.1", FormatNumber(n))
	assert.Equal(t, "", FormatNumber(nil))
	assert.Equal(t, "1250", FormatNumber(ParseNumber("1.25e3")))
}

func TestInteger(t *testing.T) {
	tests := []struct {
		input  any
		want   int
		wantOK bool
	}{
		{input: 0.0, want: 0, wantOK: true},
		{input: 2.0, want: 2, wantOK: true},
		{input: "1", want: 1, wantOK: true},
		{input: 1.5},
		{input: true},
		{input: nil},
		{input: ""},
	}

	for _, tt := range tests {
		got, ok := Integer(tt.input)
		assert.Equal(t, tt.wantOK, ok, "input %v", tt.input)
		assert.Equal(t, tt.want, got, "input %v", tt.input)
	}
}

func TestCoalesce(t *testing.T) {
	source := map[string]any{
		"total":       "",
		"total_price": "n/a",
		"gross_total": 125.0,
		"name":        "",
		"text":        "Kaffe",
	}

	got := CoalesceNumber(source, []string{"item_total_price_inc_vat", "total", "total_price", "gross_total"})
	require.NotNil(t, got)
	assert.Equal(t, 125.0, *got)

	assert.Nil(t, CoalesceNumber(source, []string{"total", "total_price"}))
	assert.Equal(t, "Kaffe", CoalesceString(source, []string{"name", "text"}))
	assert.Equal(t, "", CoalesceString(source, []string{"missing"}))
}

func TestStringList(t *testing.T) {
	assert.Equal(t, []string{"food", "travel"}, StringList([]any{"food", " ", "travel"}))
	assert.Equal(t, []string{"a", "b"}, StringList("a, b,"))
	assert.Equal(t, []string{}, StringList(nil))
}

func TestRest(t *testing.T) {
	source := map[string]any{"merchant_name": "ICA", "vendor": "x", "custom_flag": true}

	rest := Rest(source, ReceiptKeys.MerchantName)
	assert.Equal(t, map[string]any{"custom_flag": true}, rest)
	assert.Nil(t, Rest(map[string]any{"vendor": 1}, ReceiptKeys.MerchantName))
}
