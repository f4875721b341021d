package forma

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ValuesFromJSON decodes a JSON object into a value tree suitable for
// WithInitialValues and ResetWithValues. Numbers decode as json.Number so no
// precision is lost before the schema sees them. The top-level value must be
// an object.
func ValuesFromJSON(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("forma: decode values: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("forma: decode values: trailing data after top-level object")
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("forma: values must be a JSON object, got %T", v)
	}
	return m, nil
}

// ValuesFromYAML decodes a YAML mapping into a value tree. Decoded nodes are
// normalized into the map[string]any / []any shape the path operations
// expect; mapping entries with non-string keys are dropped.
func ValuesFromYAML(data []byte) (map[string]any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("forma: decode values: %w", err)
	}
	m := yamlToStringMap(v)
	if m == nil {
		return nil, fmt.Errorf("forma: values must be a YAML mapping, got %T", v)
	}
	return m, nil
}

// yamlToStringMap converts YAML-decoded values (which may contain
// map[any]any) into map[string]any recursively. Non-map roots return nil.
func yamlToStringMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = yamlNormalize(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = yamlNormalize(vv)
		}
		return out
	default:
		return nil
	}
}

func yamlNormalize(v any) any {
	switch t := v.(type) {
	case map[string]any, map[any]any:
		return yamlToStringMap(t)
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = yamlNormalize(t[i])
		}
		return arr
	default:
		return v
	}
}
