package forma_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	forma "github.com/reoring/forma"
	"github.com/reoring/forma/fieldpath"
)

// TestFieldView_BindingRoundTrip checks the two binding halves: Set writes
// through to the form and Blur marks the field touched.
func TestFieldView_BindingRoundTrip(t *testing.T) {
	f := forma.New(forma.WithInitialValues(map[string]any{"name": "ada"}))
	v := f.Field(fieldpath.MustParse("name"))

	if got := v.Value(); got != "ada" {
		t.Fatalf("expected the current value, got: %v", got)
	}
	if v.Touched() {
		t.Fatalf("expected untouched before any interaction")
	}

	v.Set("grace")
	if got, _ := f.GetValue(fieldpath.MustParse("name")); got != "grace" {
		t.Fatalf("expected the write to reach the form, got: %v", got)
	}

	ghost := f.Field(fieldpath.MustParse("ghost"))
	if got := ghost.Value(); got != nil {
		t.Fatalf("expected nil for a missing field, got: %v", got)
	}
	ghost.Blur()
	if !ghost.Touched() {
		t.Fatalf("expected Blur to mark the field touched")
	}
}

// TestFieldView_SchemaErrorsGateOnTouched checks the display rule: schema
// errors stay hidden until the field was interacted with, server errors
// show immediately, and submission errors never show on a field.
func TestFieldView_SchemaErrorsGateOnTouched(t *testing.T) {
	f := forma.New(forma.WithInitialValues(map[string]any{"name": "x"}))
	name := fieldpath.MustParse("name")
	f.SetErrors(forma.FieldErrors{
		{Path: name, Message: "too short", Source: forma.SourceSchema},
		{Path: name, Message: "taken", Source: forma.SourceServer},
	})
	f.SetClientSubmissionError("network down")

	v := f.Field(name)
	if got := v.Errors(); len(got) != 1 || got[0] != "taken" {
		t.Fatalf("expected only the server error before touch, got: %v", got)
	}

	v.Blur()
	if got := v.Errors(); len(got) != 2 {
		t.Fatalf("expected both errors after touch, got: %v", got)
	}
	if got := v.Error(); got == "" {
		t.Fatalf("expected the first message, got empty")
	}

	// submission errors live at the root and never surface through a view
	root := f.Field(fieldpath.Root())
	f.SetFieldTouched(fieldpath.Root(), true)
	if got := root.Errors(); len(got) != 0 {
		t.Fatalf("expected submission errors excluded, got: %v", got)
	}
}

// TestFieldView_ErrorEmptyWhenClean checks the single-message accessor on a
// field without errors.
func TestFieldView_ErrorEmptyWhenClean(t *testing.T) {
	f := forma.New(forma.WithInitialValues(map[string]any{"name": "ada"}))
	if got := f.Field(fieldpath.MustParse("name")).Error(); got != "" {
		t.Fatalf("expected empty, got: %q", got)
	}
}

// TestArrayView_ItemsAndLen checks the read side against sequences, missing
// fields and non-sequence values.
func TestArrayView_ItemsAndLen(t *testing.T) {
	f := forma.New(forma.WithInitialValues(map[string]any{
		"tags": []any{"a", "b"},
		"name": "not a sequence",
	}))

	tags := f.Array(fieldpath.MustParse("tags"))
	if diff := cmp.Diff([]any{"a", "b"}, tags.Items()); diff != "" {
		t.Fatalf("unexpected items (-want +got):\n%s", diff)
	}
	if tags.Len() != 2 {
		t.Fatalf("expected length 2, got: %d", tags.Len())
	}
	if got := tags.Item(1).Value(); got != "b" {
		t.Fatalf("expected element access through Item, got: %v", got)
	}

	if got := f.Array(fieldpath.MustParse("ghost")).Items(); got != nil {
		t.Fatalf("expected nil for a missing field, got: %v", got)
	}
	if got := f.Array(fieldpath.MustParse("name")).Len(); got != 0 {
		t.Fatalf("expected zero length for a non-sequence, got: %d", got)
	}
}

// TestArrayView_AppendCreatesSequence checks appending to a missing field
// and to an existing sequence, including the touch side effect.
func TestArrayView_AppendCreatesSequence(t *testing.T) {
	f := forma.New()
	tags := f.Array(fieldpath.MustParse("tags"))

	tags.Append("first")
	tags.Append("second")

	if diff := cmp.Diff([]any{"first", "second"}, tags.Items()); diff != "" {
		t.Fatalf("unexpected items (-want +got):\n%s", diff)
	}
	if !f.Touched(fieldpath.MustParse("tags[1]")) || !f.Touched(fieldpath.MustParse("tags")) {
		t.Fatalf("expected the appended path and its ancestors touched")
	}
}

// TestArrayView_RemoveShiftsState checks removal through the view: the
// element, its error and its touched mark disappear and later ones shift.
func TestArrayView_RemoveShiftsState(t *testing.T) {
	items := fieldpath.MustParse("items")
	f := forma.New(forma.WithInitialValues(map[string]any{
		"items": []any{"a", "b"},
	}))
	f.SetServerError(items.At(0), "first bad")
	f.SetServerError(items.At(1), "second bad")

	f.Array(items).Remove(0)

	view := f.Array(items)
	if diff := cmp.Diff([]any{"b"}, view.Items()); diff != "" {
		t.Fatalf("unexpected items (-want +got):\n%s", diff)
	}
	if got := view.Item(0).Errors(); len(got) != 1 || got[0] != "second bad" {
		t.Fatalf("expected the second error shifted down, got: %v", got)
	}
	if got := f.Errors(); len(got) != 1 {
		t.Fatalf("expected the removed element's error gone, got: %v", got)
	}
}

// TestArrayView_MoveCarriesErrors checks that moving an element takes its
// error along: the message stays with the value, not the position.
func TestArrayView_MoveCarriesErrors(t *testing.T) {
	items := fieldpath.MustParse("items")
	f := forma.New(forma.WithInitialValues(map[string]any{
		"items": []any{"a", "bb"},
	}))
	f.SetServerError(items.At(0), "too short")
	f.SetFieldTouched(items.At(0), true)

	f.Array(items).Move(0, 1)

	view := f.Array(items)
	if diff := cmp.Diff([]any{"bb", "a"}, view.Items()); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
	if got := view.Item(1).Errors(); len(got) != 1 || got[0] != "too short" {
		t.Fatalf("expected the error to follow the element, got: %v", got)
	}
	if got := view.Item(0).Errors(); len(got) != 0 {
		t.Fatalf("expected no error at the new front, got: %v", got)
	}
	if !f.Touched(items.At(1)) {
		t.Fatalf("expected the touched mark to follow the element")
	}
}

// TestArrayView_InsertShiftsErrorsUp checks insertion: elements at or after
// the slot move up together with their errors.
func TestArrayView_InsertShiftsErrorsUp(t *testing.T) {
	items := fieldpath.MustParse("items")
	f := forma.New(forma.WithInitialValues(map[string]any{
		"items": []any{"a", "b"},
	}))
	f.SetServerError(items.At(1), "b bad")

	f.Array(items).Insert(1, "between")

	view := f.Array(items)
	if diff := cmp.Diff([]any{"a", "between", "b"}, view.Items()); diff != "" {
		t.Fatalf("unexpected items (-want +got):\n%s", diff)
	}
	if got := view.Item(2).Errors(); len(got) != 1 || got[0] != "b bad" {
		t.Fatalf("expected the error shifted to index 2, got: %v", got)
	}
}

// TestArrayView_SwapExchangesErrors checks the swap rewrite.
func TestArrayView_SwapExchangesErrors(t *testing.T) {
	items := fieldpath.MustParse("items")
	f := forma.New(forma.WithInitialValues(map[string]any{
		"items": []any{"a", "b"},
	}))
	f.SetServerError(items.At(0), "was first")

	f.Array(items).Swap(0, 1)

	view := f.Array(items)
	if diff := cmp.Diff([]any{"b", "a"}, view.Items()); diff != "" {
		t.Fatalf("unexpected items (-want +got):\n%s", diff)
	}
	if got := view.Item(1).Errors(); len(got) != 1 || got[0] != "was first" {
		t.Fatalf("expected the error to ride along, got: %v", got)
	}
}

// TestArrayView_OutOfBoundsOperationsNoOp checks the degradation rule for
// item operations with bad indices.
func TestArrayView_OutOfBoundsOperationsNoOp(t *testing.T) {
	items := fieldpath.MustParse("items")
	f := forma.New(forma.WithInitialValues(map[string]any{
		"items": []any{"a", "b"},
	}))
	view := f.Array(items)

	view.Remove(99)
	view.Move(0, 99)
	view.Move(0, 0)
	view.Insert(-1, "x")
	view.Insert(99, "x")
	view.Swap(0, 5)

	if diff := cmp.Diff([]any{"a", "b"}, view.Items()); diff != "" {
		t.Fatalf("expected the sequence untouched (-want +got):\n%s", diff)
	}
}
