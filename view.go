package forma

import (
	"github.com/reoring/forma/fieldpath"
)

// FieldView is a read-through projection of one field. It holds no state of
// its own; every accessor reads the form at call time, so a view stays valid
// across mutations.
type FieldView struct {
	form *Form
	path fieldpath.Path
}

// Field returns a view over the field at the path.
func (f *Form) Field(p fieldpath.Path) FieldView {
	return FieldView{form: f, path: p.Clone()}
}

// Path returns the path the view projects.
func (v FieldView) Path() fieldpath.Path { return v.path.Clone() }

// Value returns the field's current value, or nil when the path does not
// resolve.
func (v FieldView) Value() any {
	val, _ := v.form.GetValue(v.path)
	return val
}

// Touched reports whether the field has been interacted with.
func (v FieldView) Touched() bool {
	return v.form.Touched(v.path)
}

// Errors returns the messages applicable to the field right now: server
// errors are always visible, schema errors only once the field is touched.
func (v FieldView) Errors() []string {
	f := v.form
	f.mu.Lock()
	defer f.mu.Unlock()
	touched := f.touched[v.path.Key()]
	var msgs []string
	for _, e := range f.errors {
		if !e.Path.Equal(v.path) {
			continue
		}
		switch e.source() {
		case SourceServer:
			msgs = append(msgs, e.Message)
		case SourceSchema:
			if touched {
				msgs = append(msgs, e.Message)
			}
		}
	}
	return msgs
}

// Error returns the first applicable message, or "" when the field has none.
func (v FieldView) Error() string {
	msgs := v.Errors()
	if len(msgs) == 0 {
		return ""
	}
	return msgs[0]
}

// Set writes the field's value through Form.SetValue, the change-handler
// half of a field binding.
func (v FieldView) Set(val any) {
	v.form.SetValue(v.path, val)
}

// Blur marks the field touched, the blur-handler half of a field binding.
func (v FieldView) Blur() {
	v.form.SetFieldTouched(v.path, true)
}

// ArrayView is a read-through projection of one sequence field. Its item
// operations reindex error paths and touched entries together with the
// elements, so per-item state follows the item it belongs to.
type ArrayView struct {
	form *Form
	path fieldpath.Path
}

// Array returns a view over the sequence at the path.
func (f *Form) Array(p fieldpath.Path) ArrayView {
	return ArrayView{form: f, path: p.Clone()}
}

// Path returns the path the view projects.
func (a ArrayView) Path() fieldpath.Path { return a.path.Clone() }

// Items returns a copy of the current sequence, or nil when the path does
// not resolve to one. The elements themselves are shared with the tree and
// must be treated as read-only.
func (a ArrayView) Items() []any {
	f := a.form
	f.mu.Lock()
	defer f.mu.Unlock()
	arr, ok := f.sequenceAtLocked(a.path)
	if !ok {
		return nil
	}
	out := make([]any, len(arr))
	copy(out, arr)
	return out
}

// Len returns the sequence length, or 0 when the path does not resolve to a
// sequence.
func (a ArrayView) Len() int {
	f := a.form
	f.mu.Lock()
	defer f.mu.Unlock()
	arr, _ := f.sequenceAtLocked(a.path)
	return len(arr)
}

// Item returns a field view over the element at index i.
func (a ArrayView) Item(i int) FieldView {
	return a.form.Field(a.path.At(i))
}

// Append adds an item at the end, creating the sequence when the field is
// still missing. Like SetValue it touches the written path.
func (a ArrayView) Append(item any) {
	a.form.apply(func(f *Form) { f.appendItemLocked(a.path, item) })
}

// Remove deletes the element at index i, shifting later elements down and
// carrying their errors and touched state along. Out-of-bounds indices are
// no-ops.
func (a ArrayView) Remove(i int) {
	a.form.DeleteField(a.path.At(i))
}

// Move relocates the element at from to position to, rewriting the error
// paths and touched entries of every element in between. Out-of-bounds or
// equal indices are no-ops.
func (a ArrayView) Move(from, to int) {
	a.form.apply(func(f *Form) { f.moveItemLocked(a.path, from, to) })
}

// Insert places an item at index i, shifting that element and the ones after
// it up by one along with their errors and touched state. Valid positions
// run from 0 through Len.
func (a ArrayView) Insert(i int, item any) {
	a.form.apply(func(f *Form) { f.insertItemLocked(a.path, i, item) })
}

// Swap exchanges the elements at i and j together with their errors and
// touched state.
func (a ArrayView) Swap(i, j int) {
	a.form.apply(func(f *Form) { f.swapItemsLocked(a.path, i, j) })
}
