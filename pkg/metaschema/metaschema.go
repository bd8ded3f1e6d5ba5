// Package metaschema checks document metadata against a JSON Schema before
// it reaches the index.
//
// Schemas are written in the config file as plain YAML or JSON:
//
//	metadata_schema:
//	  type: object
//	  required: [lang]
//	  properties:
//	    lang: {type: string, enum: [en, de, zh]}
//	    stars: {type: integer, minimum: 0, maximum: 5}
package metaschema

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/haivivi/vecdb/pkg/vecindex"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("metaschema: invalid metadata")

// Schema is a resolved schema. It is safe for concurrent use.
type Schema struct {
	resolved *jsonschema.Resolved
}

// Compile resolves raw into a Schema. raw is JSON text ([]byte, string or
// json.RawMessage) or an already decoded value such as a YAML mapping.
// Remote $refs are not supported.
func Compile(raw any) (*Schema, error) {
	var data []byte
	switch v := raw.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	case string:
		data = []byte(v)
	default:
		var err error
		if data, err = json.Marshal(raw); err != nil {
			return nil, fmt.Errorf("metaschema: encode schema: %w", err)
		}
	}

	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("metaschema: parse schema: %w", err)
	}
	resolved, err := s.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("metaschema: resolve schema: %w", err)
	}
	return &Schema{resolved: resolved}, nil
}

// Validate checks metadata. Values are normalized through JSON first, so
// structs are validated by their JSON form.
func (s *Schema) Validate(metadata any) error {
	data, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("metaschema: encode metadata: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("metaschema: decode metadata: %w", err)
	}
	if err := s.resolved.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// ValidateDocuments validates each document's metadata and reports the
// first failure with its position and content.
func ValidateDocuments[M any](s *Schema, docs []vecindex.Document[M]) error {
	for i, d := range docs {
		if err := s.Validate(d.Metadata); err != nil {
			return fmt.Errorf("document %d (%q): %w", i, d.Content, err)
		}
	}
	return nil
}
