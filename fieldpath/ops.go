package fieldpath

import (
	"sort"

	json "github.com/goccy/go-json"
)

// Get walks the path and returns the value at its end. It returns false at
// the first missing key, out-of-bounds index, or non-traversable node. A nil
// value stored under an existing key is returned as (nil, true).
func Get(root any, p Path) (any, bool) {
	cur := root
	for _, seg := range p {
		switch t := cur.(type) {
		case map[string]any:
			if seg.IsIndex {
				return nil, false
			}
			v, ok := t[seg.Key]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			if !seg.IsIndex || seg.Index < 0 || seg.Index >= len(t) {
				return nil, false
			}
			cur = t[seg.Index]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Has reports whether the path resolves to a location in root. Fields holding
// nil count as present.
func Has(root any, p Path) bool {
	_, ok := Get(root, p)
	return ok
}

// Set writes v at the path and returns the new root. Containers along the
// path are shallow-copied so untouched branches keep their identity; missing
// or wrong-kind intermediates are created as a sequence when the next segment
// is an index and as a map otherwise. Sequences grow with nil padding when
// the index is past the end. The empty path and paths with negative indices
// are no-ops returning root unchanged.
func Set(root any, p Path, v any) any {
	if len(p) == 0 || !validPath(p) {
		return root
	}
	return setRec(root, p, v)
}

func setRec(node any, p Path, v any) any {
	seg := p[0]
	if seg.IsIndex {
		seq, _ := node.([]any)
		size := len(seq)
		if seg.Index >= size {
			size = seg.Index + 1
		}
		out := make([]any, size)
		copy(out, seq)
		if len(p) == 1 {
			out[seg.Index] = v
		} else {
			out[seg.Index] = setRec(out[seg.Index], p[1:], v)
		}
		return out
	}
	m, _ := node.(map[string]any)
	out := make(map[string]any, len(m)+1)
	for k, val := range m {
		out[k] = val
	}
	if len(p) == 1 {
		out[seg.Key] = v
	} else {
		out[seg.Key] = setRec(out[seg.Key], p[1:], v)
	}
	return out
}

// Delete removes the location at the path and returns the new root. Deleting
// from a map drops the key; deleting from a sequence splices the element out,
// shifting later elements down. Containers along the path are shallow-copied.
// When the path does not resolve, root is returned unchanged.
func Delete(root any, p Path) any {
	if len(p) == 0 || !validPath(p) {
		return root
	}
	out, changed := deleteRec(root, p)
	if !changed {
		return root
	}
	return out
}

func deleteRec(node any, p Path) (any, bool) {
	seg := p[0]
	switch t := node.(type) {
	case map[string]any:
		if seg.IsIndex {
			return node, false
		}
		child, ok := t[seg.Key]
		if !ok {
			return node, false
		}
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = v
		}
		if len(p) == 1 {
			delete(out, seg.Key)
			return out, true
		}
		nc, changed := deleteRec(child, p[1:])
		if !changed {
			return node, false
		}
		out[seg.Key] = nc
		return out, true
	case []any:
		if !seg.IsIndex || seg.Index >= len(t) {
			return node, false
		}
		if len(p) == 1 {
			out := make([]any, 0, len(t)-1)
			out = append(out, t[:seg.Index]...)
			out = append(out, t[seg.Index+1:]...)
			return out, true
		}
		nc, changed := deleteRec(t[seg.Index], p[1:])
		if !changed {
			return node, false
		}
		out := make([]any, len(t))
		copy(out, t)
		out[seg.Index] = nc
		return out, true
	default:
		return node, false
	}
}

func validPath(p Path) bool {
	for _, seg := range p {
		if seg.IsIndex && seg.Index < 0 {
			return false
		}
	}
	return true
}

// Empty returns a value of the same shape with every leaf zeroed: sequences
// become empty, maps keep their keys with recursively emptied values, numbers
// become 0, booleans become false, and everything else (strings, nil) becomes
// the empty string.
func Empty(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Empty(val)
		}
		return out
	case []any:
		return []any{}
	case bool:
		return false
	case json.Number:
		return json.Number("0")
	case float64:
		return float64(0)
	case float32:
		return float32(0)
	case int:
		return 0
	case int8:
		return int8(0)
	case int16:
		return int16(0)
	case int32:
		return int32(0)
	case int64:
		return int64(0)
	case uint:
		return uint(0)
	case uint8:
		return uint8(0)
	case uint16:
		return uint16(0)
	case uint32:
		return uint32(0)
	case uint64:
		return uint64(0)
	default:
		return ""
	}
}

// Clone returns a deep copy of the value tree. Leaves are copied by value.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Clone(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Clone(val)
		}
		return out
	default:
		return v
	}
}

// Collect walks the tree and returns every addressable path: each map key and
// each sequence element at every depth, parents before children, map keys in
// sorted order. The root itself is not included.
func Collect(root any) []Path {
	var out []Path
	collectRec(root, nil, &out)
	return out
}

func collectRec(v any, cur Path, out *[]Path) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			p := cur.Field(k)
			*out = append(*out, p)
			collectRec(t[k], p, out)
		}
	case []any:
		for i, val := range t {
			p := cur.At(i)
			*out = append(*out, p)
			collectRec(val, p, out)
		}
	}
}
