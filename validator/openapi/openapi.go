// Package openapi adapts OpenAPI schemas from github.com/getkin/kin-openapi
// to the forma.Schema contract, so a form can be validated against a schema
// lifted from an API specification.
//
// The package lives in its own module to keep kin-openapi's dependency
// closure out of the core module.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
	json "github.com/goccy/go-json"

	forma "github.com/reoring/forma"
	"github.com/reoring/forma/fieldpath"
)

// Schema wraps an OpenAPI schema as a forma.Schema.
type Schema struct {
	schema *openapi3.Schema
}

// Wrap adapts an openapi3.Schema, typically one built programmatically or
// plucked out of a loaded specification.
func Wrap(s *openapi3.Schema) *Schema { return &Schema{schema: s} }

// SchemaFromJSON unmarshals a standalone OpenAPI schema object.
func SchemaFromJSON(data []byte) (*Schema, error) {
	var s openapi3.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("openapi: decode schema: %w", err)
	}
	return &Schema{schema: &s}, nil
}

// Parse implements forma.Schema. Violations come back as forma.FieldErrors,
// one entry per schema error, each located by the error's JSON pointer.
func (s *Schema) Parse(ctx context.Context, v any) (any, error) {
	err := s.schema.VisitJSON(v, openapi3.MultiErrors())
	if err == nil {
		return v, nil
	}
	return nil, toFieldErrors(err, v)
}

func toFieldErrors(err error, root any) forma.FieldErrors {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		var out forma.FieldErrors
		for _, sub := range multi {
			out = append(out, fieldError(sub, root))
		}
		return out
	}
	return forma.FieldErrors{fieldError(err, root)}
}

// fieldError maps one kin-openapi error. SchemaError carries both a field
// location and a short reason; anything else becomes a root-level message.
func fieldError(err error, root any) forma.FieldError {
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		msg := se.Reason
		if msg == "" {
			msg = se.Error()
		}
		return forma.FieldError{
			Path:    tokensToPath(root, se.JSONPointer()),
			Message: msg,
			Source:  forma.SourceSchema,
		}
	}
	return forma.FieldError{Message: err.Error(), Source: forma.SourceSchema}
}

// tokensToPath converts pointer tokens into a Path, resolving the
// key-versus-index ambiguity of numeric tokens against the instance that was
// validated.
func tokensToPath(root any, toks []string) fieldpath.Path {
	p := fieldpath.Root()
	cur := root
	for _, tok := range toks {
		if arr, ok := cur.([]any); ok {
			if i, err := strconv.Atoi(tok); err == nil && i >= 0 {
				p = p.At(i)
				if i < len(arr) {
					cur = arr[i]
				} else {
					cur = nil
				}
				continue
			}
		}
		p = p.Field(tok)
		if m, ok := cur.(map[string]any); ok {
			cur = m[tok]
		} else {
			cur = nil
		}
	}
	return p
}
