package ocr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDocument(t *testing.T) {
	bare := `{
		"text": "ICA 125,00",
		"entities": [{
			"type": "supplier_name",
			"mentionText": "ICA",
			"pageAnchor": {"pageRefs": [{"boundingPoly": {"normalizedVertices": [{"x": 0.1, "y": 0.1}, {"x": 0.3, "y": 0.2}]}}]}
		}],
		"someFutureField": true
	}`

	doc, err := LoadDocument(strings.NewReader(bare))
	require.NoError(t, err)
	require.Len(t, doc.GetEntities(), 1)
	assert.Equal(t, "ICA", doc.GetEntities()[0].GetMentionText())

	wrapped, err := LoadDocument(strings.NewReader(`{"document": ` + bare + `}`))
	require.NoError(t, err)
	assert.Equal(t, "ICA 125,00", wrapped.GetText())

	boxes := BoxesFromDocument(wrapped)
	require.Len(t, boxes, 1)
	assert.Equal(t, "merchant_name", boxes[0].Field)

	_, err = LoadDocument(strings.NewReader(`not json`))
	assert.ErrorIs(t, err, ErrInvalidExport)
}

func TestLoadTextAnnotation(t *testing.T) {
	page := `{"width": 100, "height": 100, "blocks": [{"paragraphs": [{"words": [{"symbols": [{"text": "O"}, {"text": "K"}], "boundingBox": {"vertices": [{"x": 10, "y": 10}, {"x": 20, "y": 20}]}}]}]}]}`

	tests := []struct {
		name string
		json string
	}{
		{name: "bare", json: `{"text": "OK", "pages": [` + page + `]}`},
		{name: "single response", json: `{"fullTextAnnotation": {"text": "OK", "pages": [` + page + `]}}`},
		{name: "batch", json: `{"responses": [{"fullTextAnnotation": {"text": "OK", "pages": [` + page + `]}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ann, err := LoadTextAnnotation(strings.NewReader(tt.json))
			require.NoError(t, err)
			assert.Equal(t, "OK", ann.GetText())

			boxes := LabelVisionWords(ann, map[string]string{"status": "ok"})
			require.Len(t, boxes, 1)
			assert.InDelta(t, 0.1, boxes[0].X, 1e-9)
		})
	}

	_, err := LoadTextAnnotation(strings.NewReader(`{"responses": [{}]}`))
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = LoadTextAnnotation(strings.NewReader(`[`))
	assert.ErrorIs(t, err, ErrInvalidExport)
}

func TestDetectMimeType(t *testing.T) {
	mimeType, ok := detectMimeType([]byte("%PDF-1.7\n..."))
	assert.True(t, ok)
	assert.Equal(t, "application/pdf", mimeType)

	_, ok = detectMimeType([]byte("\x89PNG\r\n\x1a\n0000"))
	assert.True(t, ok)

	_, ok = detectMimeType([]byte("plain text"))
	assert.False(t, ok)
}
