package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaValidator validates JSON documents against a schema built as a
// generic map. Compilation happens once, on first use.
type SchemaValidator struct {
	name   string
	build  func() map[string]any
	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

// NewSchemaValidator returns a lazily compiled validator for build().
func NewSchemaValidator(name string, build func() map[string]any) *SchemaValidator {
	return &SchemaValidator{name: name, build: build}
}

func (v *SchemaValidator) compile() {
	b, err := json.Marshal(v.build())
	if err != nil {
		v.err = fmt.Errorf("marshal schema: %w", err)
		return
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(v.name, bytes.NewReader(b)); err != nil {
		v.err = fmt.Errorf("add schema: %w", err)
		return
	}
	v.schema, v.err = compiler.Compile(v.name)
	if v.err != nil {
		v.err = fmt.Errorf("compile schema: %w", v.err)
	}
}

// Validate checks raw JSON bytes against the schema.
func (v *SchemaValidator) Validate(data []byte) error {
	v.once.Do(v.compile)
	if v.err != nil {
		return v.err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
