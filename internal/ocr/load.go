package ocr

import (
	"fmt"
	"io"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

var unmarshalOptions = protojson.UnmarshalOptions{DiscardUnknown: true}

// LoadDocument decodes a saved Document AI response. Both a bare Document
// and a ProcessResponse wrapping one are accepted.
func LoadDocument(r io.Reader) (*documentaipb.Document, error) {
	const op = "LoadDocument"

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to read export")
	}

	resp := &documentaipb.ProcessResponse{}
	if err := unmarshal(data, resp); err == nil && resp.GetDocument() != nil {
		return resp.GetDocument(), nil
	}

	doc := &documentaipb.Document{}
	if err := unmarshal(data, doc); err != nil {
		return nil, WrapOCRError(op, ErrInvalidExport, err.Error())
	}
	return doc, nil
}

// LoadTextAnnotation decodes a saved Cloud Vision response. A bare
// TextAnnotation, an AnnotateImageResponse and a BatchAnnotateImagesResponse
// are accepted; batch pages are merged.
func LoadTextAnnotation(r io.Reader) (*visionpb.TextAnnotation, error) {
	const op = "LoadTextAnnotation"

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to read export")
	}

	batch := &visionpb.BatchAnnotateImagesResponse{}
	if err := unmarshal(data, batch); err == nil && len(batch.GetResponses()) > 0 {
		merged, err := mergePages(batch.GetResponses())
		if err != nil {
			return nil, WrapOCRError(op, err, "")
		}
		return merged, nil
	}

	single := &visionpb.AnnotateImageResponse{}
	if err := unmarshal(data, single); err == nil && single.GetFullTextAnnotation() != nil {
		return single.GetFullTextAnnotation(), nil
	}

	ann := &visionpb.TextAnnotation{}
	if err := unmarshal(data, ann); err != nil {
		return nil, WrapOCRError(op, ErrInvalidExport, err.Error())
	}
	return ann, nil
}

func unmarshal(data []byte, m proto.Message) error {
	if err := unmarshalOptions.Unmarshal(data, m); err != nil {
		return fmt.Errorf("decoding %T: %w", m, err)
	}
	return nil
}
