package converter

import (
	"encoding/json"

	"github.com/joseph-ayodele/pdfplucker/internal/common"
)

var nativeValidator = common.NewSchemaValidator("native-document.json", BuildNativeJSONSchema)

// BuildNativeJSONSchema returns the JSON-Schema (draft 2020-12 subset) of the
// native document wire format as a generic map.
func BuildNativeJSONSchema() map[string]any {
	str := map[string]any{"type": "string"}
	strList := map[string]any{"type": "array", "items": str}
	page := map[string]any{"type": "integer", "minimum": 0}

	props := map[string]any{
		"format":       str,
		"title":        str,
		"author":       str,
		"subject":      str,
		"keywords":     str,
		"creator":      str,
		"producer":     str,
		"creationDate": str,
		"modDate":      str,
		"encryption":   str,
		"page_count":   map[string]any{"type": "integer", "minimum": 0},
	}

	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"kind":           map[string]any{"type": "string", "enum": []string{string(ItemText), string(ItemTable), string(ItemPicture)}},
			"label":          str,
			"page":           page,
			"id":             str,
			"parent":         str,
			"text":           str,
			"caption":        str,
			"classification": str,
			"confidence":     map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
			"classes": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []string{"name", "confidence"},
					"properties": map[string]any{
						"name":       str,
						"confidence": map[string]any{"type": "number"},
					},
				},
			},
			"references": strList,
			"footnotes":  strList,
			"data": map[string]any{
				"type":     "object",
				"required": []string{"columns", "rows"},
				"properties": map[string]any{
					"columns": strList,
					"rows":    map[string]any{"type": "array", "items": strList},
				},
			},
			"image": map[string]any{
				"type":     "object",
				"required": []string{"data"},
				"properties": map[string]any{
					"mimetype": str,
					"data":     str,
				},
			},
		},
		"required": []string{"kind"},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"version":    map[string]any{"type": "string", "const": NativeVersion},
			"properties": map[string]any{"type": "object", "properties": props},
			"items":      map[string]any{"type": "array", "items": item},
		},
		"required": []string{"version", "items"},
	}
}

// DecodeDocument validates and decodes native JSON. Any mismatch is a
// MalformedOutput failure.
func DecodeDocument(data []byte) (*Document, error) {
	if err := nativeValidator.Validate(data); err != nil {
		return nil, Fail(common.KindMalformedOutput, "converter output rejected: %v", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, Fail(common.KindMalformedOutput, "decode converter output: %v", err)
	}
	return &doc, nil
}
