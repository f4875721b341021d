// Package jsonschema adapts compiled JSON Schemas from
// github.com/santhosh-tekuri/jsonschema to the forma.Schema contract, so a
// form can be validated against a JSON Schema document.
package jsonschema

import (
	"context"
	"errors"
	"strconv"
	"strings"

	sj "github.com/santhosh-tekuri/jsonschema/v5"

	forma "github.com/reoring/forma"
	"github.com/reoring/forma/fieldpath"
)

// Schema wraps a compiled JSON Schema as a forma.Schema.
type Schema struct {
	compiled *sj.Schema
}

// Wrap adapts an already compiled schema.
func Wrap(s *sj.Schema) *Schema { return &Schema{compiled: s} }

// Compile loads and compiles the schema at the given URL or file path.
func Compile(url string) (*Schema, error) {
	s, err := sj.Compile(url)
	if err != nil {
		return nil, err
	}
	return &Schema{compiled: s}, nil
}

// CompileString compiles an in-memory schema document. The url only names
// the document in error messages and reference resolution.
func CompileString(url, doc string) (*Schema, error) {
	s, err := sj.CompileString(url, doc)
	if err != nil {
		return nil, err
	}
	return &Schema{compiled: s}, nil
}

// MustCompileString is CompileString for statically known documents; it
// panics on compile errors.
func MustCompileString(url, doc string) *Schema {
	return &Schema{compiled: sj.MustCompileString(url, doc)}
}

// Parse implements forma.Schema. Validation failures come back as
// forma.FieldErrors with one entry per leaf cause, each located by its
// instance path.
func (s *Schema) Parse(ctx context.Context, v any) (any, error) {
	if err := s.compiled.Validate(v); err != nil {
		var ve *sj.ValidationError
		if errors.As(err, &ve) {
			return nil, leafErrors(ve, v)
		}
		return nil, forma.FieldErrors{{Message: err.Error()}}
	}
	return v, nil
}

// leafErrors flattens the cause tree into field errors. Branch nodes only
// restate which subschema failed, so just the leaves carry messages worth
// attaching to fields.
func leafErrors(ve *sj.ValidationError, root any) forma.FieldErrors {
	var out forma.FieldErrors
	var walk func(e *sj.ValidationError)
	walk = func(e *sj.ValidationError) {
		if len(e.Causes) == 0 {
			out = append(out, forma.FieldError{
				Path:    pointerToPath(root, e.InstanceLocation),
				Message: e.Message,
				Source:  forma.SourceSchema,
			})
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return out
}

// pointerToPath converts a JSON Pointer into a Path, resolving the
// key-versus-index ambiguity of numeric tokens against the instance that was
// validated: a numeric token is an index only where the instance actually
// holds a sequence.
func pointerToPath(root any, ptr string) fieldpath.Path {
	if ptr == "" || ptr == "/" {
		return nil
	}
	p := fieldpath.Root()
	cur := root
	for _, tok := range strings.Split(strings.TrimPrefix(ptr, "/"), "/") {
		tok = strings.ReplaceAll(strings.ReplaceAll(tok, "~1", "/"), "~0", "~")
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
