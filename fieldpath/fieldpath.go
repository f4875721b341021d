// Package fieldpath addresses locations inside JSON-like value trees built
// from map[string]any, []any and primitive leaves.
//
// A Path is an ordered list of segments, each either a map key or a sequence
// index. The empty path denotes the root. Key() serializes a path into a
// canonical string so paths can key plain maps without collisions: the key
// segment "1" and the index segment 1 serialize differently. String() renders
// a JSON Pointer style form for logs and error messages.
package fieldpath

import (
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Segment is one step of a Path: a map key or a sequence index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Key returns a map-key segment.
func Key(name string) Segment { return Segment{Key: name} }

// Index returns a sequence-index segment.
func Index(i int) Segment { return Segment{Index: i, IsIndex: true} }

func (s Segment) String() string {
	if s.IsIndex {
		return strconv.Itoa(s.Index)
	}
	return s.Key
}

// Path addresses a location in a value tree. The zero value is the root.
type Path []Segment

// New builds a path from segments.
func New(segs ...Segment) Path {
	if len(segs) == 0 {
		return nil
	}
	out := make(Path, len(segs))
	copy(out, segs)
	return out
}

// Root returns the empty path.
func Root() Path { return nil }

// Field returns a new path with a map-key segment appended. The receiver is
// not modified.
func (p Path) Field(name string) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = Key(name)
	return out
}

// At returns a new path with a sequence-index segment appended. The receiver
// is not modified.
func (p Path) At(i int) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = Index(i)
	return out
}

// IsRoot reports whether the path is empty.
func (p Path) IsRoot() bool { return len(p) == 0 }

// Parent returns the path without its last segment, or the root for the root.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return New(p[:len(p)-1]...)
}

// Last returns the final segment, or false for the root.
func (p Path) Last() (Segment, bool) {
	if len(p) == 0 {
		return Segment{}, false
	}
	return p[len(p)-1], true
}

// Clone returns an independent copy of the path.
func (p Path) Clone() Path { return New(p...) }

// Equal reports whether both paths have the same length and pairwise-equal
// segments.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether p starts with prefix. Every path has the root as
// a prefix.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Key serializes the path into its canonical form: a JSON array whose
// elements are strings for map keys and numbers for sequence indices. The
// encoding is a bijection, so ["a","1"] and ["a",1] never collide as map
// keys. The root serializes to "[]".
func (p Path) Key() string {
	arr := make([]any, len(p))
	for i, s := range p {
		if s.IsIndex {
			arr[i] = s.Index
		} else {
			arr[i] = s.Key
		}
	}
	b, err := json.Marshal(arr)
	if err != nil {
		// strings and ints always encode; keep the signature ergonomic
		panic(fmt.Sprintf("fieldpath: serialize %v: %v", p, err))
	}
	return string(b)
}

// FromKey parses a canonical key produced by Key back into a Path.
func FromKey(key string) (Path, error) {
	dec := json.NewDecoder(strings.NewReader(key))
	dec.UseNumber()
	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("fieldpath: parse key %q: %w", key, err)
	}
	out := make(Path, 0, len(raw))
	for _, e := range raw {
		switch t := e.(type) {
		case string:
			out = append(out, Key(t))
		case json.Number:
			i, err := strconv.Atoi(t.String())
			if err != nil || i < 0 {
				return nil, fmt.Errorf("fieldpath: key %q: bad index %q", key, t.String())
			}
			out = append(out, Index(i))
		default:
			return nil, fmt.Errorf("fieldpath: key %q: unexpected segment %T", key, e)
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// String renders the path in JSON Pointer style for display, escaping '~' as
// '~0' and '/' as '~1' per RFC 6901. The root renders as "/". Unlike Key,
// this form is not a bijection and must not be used as a lookup key.
func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	b := &strings.Builder{}
	for _, s := range p {
		b.WriteByte('/')
		if s.IsIndex {
			b.WriteString(strconv.Itoa(s.Index))
		} else {
			b.WriteString(strings.ReplaceAll(strings.ReplaceAll(s.Key, "~", "~0"), "/", "~1"))
		}
	}
	return b.String()
}
