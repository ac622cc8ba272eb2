// Package validation validates remote model output against JSON schemas.
//
// The text-generation endpoint is asked for structured JSON, but nothing
// guarantees the content honors the requested shape. Every response is checked
// against an explicit schema before it is unmarshaled, so a malformed shape
// becomes a deterministic validation failure instead of a runtime type error
// deep inside the merge logic.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON schema.
type Schema struct {
	compiled *gojsonschema.Schema
}

// MustCompile compiles a schema document and panics on error. Schemas are
// package-level constants; a compile failure is a programming error.
func MustCompile(document string) *Schema {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(document))
	if err != nil {
		panic(fmt.Sprintf("invalid schema: %v", err))
	}
	return &Schema{compiled: compiled}
}

// Validate checks content (a raw JSON string) against the schema. A non-nil
// error means the content must be treated as a malformed response.
func (s *Schema) Validate(content string) error {
	result, err := s.compiled.Validate(gojsonschema.NewStringLoader(content))
	if err != nil {
		// Not even parseable as JSON.
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("schema violation: %s", strings.Join(msgs, "; "))
}
