package materialize

import (
	"github.com/joseph-ayodele/pdfplucker/internal/common"
)

var outputValidator = common.NewSchemaValidator("output-document.json", BuildOutputJSONSchema)

// BuildOutputJSONSchema returns the JSON-Schema of the persisted per-job
// document as a generic map.
func BuildOutputJSONSchema() map[string]any {
	str := map[string]any{"type": "string"}
	strList := map[string]any{"type": "array", "items": str}
	page := map[string]any{"type": "integer", "minimum": 1}

	metaFields := []string{
		"format", "title", "author", "subject", "keywords", "creator",
		"producer", "creationDate", "modDate", "encryption", "filename",
	}
	metaProps := map[string]any{"pageAmount": map[string]any{"type": "integer", "minimum": 0}}
	for _, f := range metaFields {
		metaProps[f] = map[string]any{"type": "string", "minLength": 1}
	}

	return map[string]any{
		"type":     "object",
		"required": []string{"metadata", "pages", "images", "tables"},
		"properties": map[string]any{
			"metadata": map[string]any{
				"type":       "object",
				"properties": metaProps,
				"required":   append(metaFields, "pageAmount"),
			},
			"pages": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":       "object",
					"required":   []string{"page_number", "content"},
					"properties": map[string]any{"page_number": page, "content": str},
				},
			},
			"images": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"required": []string{
						"ref", "self_ref", "caption", "classification", "confidence",
						"references", "footnotes", "page",
					},
					"properties": map[string]any{
						"ref":            str,
						"self_ref":       map[string]any{"type": "string", "pattern": `^#/pictures/\d+$`},
						"caption":        str,
						"classification": str,
						"confidence":     map[string]any{"type": "number"},
						"references":     strList,
						"footnotes":      strList,
						"page":           page,
					},
				},
			},
			"tables": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []string{"self_ref", "caption", "references", "footnotes", "page", "table"},
					"properties": map[string]any{
						"self_ref":   map[string]any{"type": "string", "pattern": `^#/tables/\d+$`},
						"caption":    str,
						"references": strList,
						"footnotes":  strList,
						"page":       page,
						"table": map[string]any{
							"type":     "object",
							"required": []string{"columns", "rows"},
							"properties": map[string]any{
								"columns": strList,
								"rows":    map[string]any{"type": "array", "items": strList},
							},
						},
					},
				},
			},
		},
	}
}

// Validate checks encoded output JSON against the output schema.
func Validate(data []byte) error {
	return outputValidator.Validate(data)
}
