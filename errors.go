package forma

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/forma/fieldpath"
)

// Source classifies where a field error came from. The error list on a form
// always partitions cleanly by source: schema validation owns SourceSchema
// entries, submit-handler code owns SourceServer entries, and the submission
// machinery owns SourceSubmit entries.
type Source string

const (
	// SourceSchema marks errors produced by schema validation.
	SourceSchema Source = "client"
	// SourceServer marks errors attached by submit-handler code, typically
	// mapped from a server response.
	SourceServer Source = "server"
	// SourceSubmit marks failures of the submission process itself. These
	// are always attached at the root path.
	SourceSubmit Source = "client-form-handler"
)

// FieldError is a single message attached to a location in the values tree.
// An empty Source is treated as SourceSchema.
type FieldError struct {
	Path    fieldpath.Path
	Message string
	Source  Source
}

func (e FieldError) source() Source {
	if e.Source == "" {
		return SourceSchema
	}
	return e.Source
}

// FieldErrors is a collection of field errors that implements error.
type FieldErrors []FieldError

// Error summarizes the first few errors.
func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(fe)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(b, "%s at %s", fe[i].Message, fe[i].Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendFieldErrors appends errors to the destination, initializing the
// slice when needed.
func AppendFieldErrors(dst FieldErrors, more ...FieldError) FieldErrors {
	if dst == nil {
		dst = FieldErrors{}
	}
	dst = append(dst, more...)
	return dst
}

// AsFieldErrors extracts FieldErrors from an error using errors.As
// internally.
func AsFieldErrors(err error) (FieldErrors, bool) {
	if err == nil {
		return nil, false
	}
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// Messages returns just the message strings, in order.
func (fe FieldErrors) Messages() []string {
	if len(fe) == 0 {
		return nil
	}
	out := make([]string, len(fe))
	for i, e := range fe {
		out[i] = e.Message
	}
	return out
}

// At returns the errors attached at exactly the given path.
func (fe FieldErrors) At(p fieldpath.Path) FieldErrors {
	var out FieldErrors
	for _, e := range fe {
		if e.Path.Equal(p) {
			out = append(out, e)
		}
	}
	return out
}

// Under returns the errors attached at the given path or anywhere below it.
func (fe FieldErrors) Under(p fieldpath.Path) FieldErrors {
	var out FieldErrors
	for _, e := range fe {
		if e.Path.HasPrefix(p) {
			out = append(out, e)
		}
	}
	return out
}

// BySource returns the errors whose source matches s.
func (fe FieldErrors) BySource(s Source) FieldErrors {
	var out FieldErrors
	for _, e := range fe {
		if e.source() == s {
			out = append(out, e)
		}
	}
	return out
}

// ReplaceAt returns a new list in which the errors of the given source at
// exactly the given path are replaced by one entry per message. Errors at
// other paths and of other sources are untouched; passing no messages clears
// the slot.
func ReplaceAt(list FieldErrors, p fieldpath.Path, src Source, msgs ...string) FieldErrors {
	var out FieldErrors
	for _, e := range list {
		if e.source() == src && e.Path.Equal(p) {
			continue
		}
		out = append(out, e)
	}
	for _, m := range msgs {
		out = append(out, FieldError{Path: p.Clone(), Message: m, Source: src})
	}
	return out
}

// dropUnder removes entries of the given sources at or below p.
func dropUnder(list FieldErrors, p fieldpath.Path, srcs ...Source) FieldErrors {
	var out FieldErrors
	for _, e := range list {
		if e.Path.HasPrefix(p) && sourceIn(e.source(), srcs) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// dropSource removes every entry of the given source.
func dropSource(list FieldErrors, src Source) FieldErrors {
	var out FieldErrors
	for _, e := range list {
		if e.source() == src {
			continue
		}
		out = append(out, e)
	}
	return out
}

func sourceIn(s Source, in []Source) bool {
	for _, c := range in {
		if s == c {
			return true
		}
	}
	return false
}

// ---- sequence reindexing ----

// ReindexRemove rewrites error paths after the element at index i of the
// sequence at arrayPath was removed: entries for i are dropped and entries
// for later indices shift down by one, mirroring the splice applied to the
// values themselves.
func ReindexRemove(list FieldErrors, arrayPath fieldpath.Path, i int) FieldErrors {
	return reindexErrors(list, arrayPath, removeRewrite(i))
}

// ReindexMove rewrites error paths after the element at from was moved to
// to: entries for from follow the element, and entries between the two
// positions shift by one toward the vacated slot.
func ReindexMove(list FieldErrors, arrayPath fieldpath.Path, from, to int) FieldErrors {
	return reindexErrors(list, arrayPath, moveRewrite(from, to))
}

// ReindexInsert rewrites error paths after an element was inserted at index
// i: entries at i or later shift up by one.
func ReindexInsert(list FieldErrors, arrayPath fieldpath.Path, i int) FieldErrors {
	return reindexErrors(list, arrayPath, insertRewrite(i))
}

// ReindexSwap rewrites error paths after the elements at i and j traded
// places.
func ReindexSwap(list FieldErrors, arrayPath fieldpath.Path, i, j int) FieldErrors {
	return reindexErrors(list, arrayPath, swapRewrite(i, j))
}

// The rewrite functions below map an old element index to its new index,
// returning false when entries for that index must be dropped. They are
// shared with the touched-map reindexing in the form container so both stay
// in lockstep with the splice applied to the values.

func removeRewrite(i int) func(int) (int, bool) {
	return func(idx int) (int, bool) {
		switch {
		case idx == i:
			return 0, false
		case idx > i:
			return idx - 1, true
		default:
			return idx, true
		}
	}
}

func insertRewrite(i int) func(int) (int, bool) {
	return func(idx int) (int, bool) {
		if idx >= i {
			return idx + 1, true
		}
		return idx, true
	}
}

func swapRewrite(i, j int) func(int) (int, bool) {
	return func(idx int) (int, bool) {
		switch idx {
		case i:
			return j, true
		case j:
			return i, true
		default:
			return idx, true
		}
	}
}

func moveRewrite(from, to int) func(int) (int, bool) {
	return func(idx int) (int, bool) {
		switch {
		case idx == from:
			return to, true
		case from < to && idx > from && idx <= to:
			return idx - 1, true
		case to < from && idx >= to && idx < from:
			return idx + 1, true
		default:
			return idx, true
		}
	}
}

func reindexErrors(list FieldErrors, arrayPath fieldpath.Path, rewrite func(int) (int, bool)) FieldErrors {
	var out FieldErrors
	for _, e := range list {
		np, keep := reindexPath(e.Path, arrayPath, rewrite)
		if !keep {
			continue
		}
		e.Path = np
		out = append(out, e)
	}
	return out
}

// reindexPath applies an index rewrite to the path segment directly below
// arrayPath. Paths outside the subtree, the array path itself, and subtrees
// keyed by a non-index segment pass through unchanged.
func reindexPath(p, arrayPath fieldpath.Path, rewrite func(int) (int, bool)) (fieldpath.Path, bool) {
	if !p.HasPrefix(arrayPath) || len(p) == len(arrayPath) {
		return p, true
	}
	seg := p[len(arrayPath)]
	if !seg.IsIndex {
		return p, true
	}
	idx, keep := rewrite(seg.Index)
	if !keep {
		return nil, false
	}
	if idx == seg.Index {
		return p, true
	}
	np := p.Clone()
	np[len(arrayPath)] = fieldpath.Index(idx)
	return np, true
}
