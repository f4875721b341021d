package forma_test

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	forma "github.com/reoring/forma"
	"github.com/reoring/forma/fieldpath"
)

// TestValuesFromJSON_DecodesWithNumberPrecision checks object decoding and
// that numbers come back as json.Number rather than float64.
func TestValuesFromJSON_DecodesWithNumberPrecision(t *testing.T) {
	data := []byte(`{"name":"ada","age":36,"big":9007199254740993,"tags":["a","b"]}`)
	got, err := forma.ValuesFromJSON(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{
		"name": "ada",
		"age":  json.Number("36"),
		"big":  json.Number("9007199254740993"),
		"tags": []any{"a", "b"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected tree (-want +got):\n%s", diff)
	}

	// the decoded tree feeds straight into a form
	f := forma.New(forma.WithInitialValues(got))
	if v, _ := f.GetValue(fieldpath.MustParse("tags[1]")); v != "b" {
		t.Fatalf("expected the tree to be path-addressable, got: %v", v)
	}
}

// TestValuesFromJSON_RejectsBadInput checks the three failure modes:
// malformed JSON, a non-object top level and trailing data.
func TestValuesFromJSON_RejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"malformed", `{"name":`},
		{"non-object", `[1,2,3]`},
		{"scalar", `"just a string"`},
		{"trailing data", `{"a":1}{"b":2}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := forma.ValuesFromJSON([]byte(tc.data)); err == nil {
				t.Fatalf("expected an error for %s", tc.name)
			}
		})
	}
}

// TestValuesFromYAML_NormalizesMappings checks YAML decoding into the
// map[string]any / []any shape, including nested mappings inside sequences.
func TestValuesFromYAML_NormalizesMappings(t *testing.T) {
	data := []byte(`
name: ada
tags:
  - a
  - b
profile:
  city: london
items:
  - label: first
  - label: second
`)
	got, err := forma.ValuesFromYAML(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got["name"] != "ada" {
		t.Fatalf("expected scalar decoded, got: %v", got["name"])
	}
	if _, ok := got["profile"].(map[string]any); !ok {
		t.Fatalf("expected a string-keyed mapping, got: %T", got["profile"])
	}
	items, ok := got["items"].([]any)
	if !ok || len(items) != 2 {
		t.Fatalf("expected a two-element sequence, got: %v", got["items"])
	}
	if m, ok := items[0].(map[string]any); !ok || m["label"] != "first" {
		t.Fatalf("expected normalized mapping inside the sequence, got: %v", items[0])
	}
}

// TestValuesFromYAML_RejectsNonMappings checks that scalar and sequence
// roots are refused.
func TestValuesFromYAML_RejectsNonMappings(t *testing.T) {
	for _, data := range []string{`just a string`, "- a\n- b"} {
		if _, err := forma.ValuesFromYAML([]byte(data)); err == nil {
			t.Fatalf("expected an error for %q", data)
		}
	}
	if _, err := forma.ValuesFromYAML([]byte(`{{{`)); err == nil {
		t.Fatalf("expected an error for malformed input")
	}
}
