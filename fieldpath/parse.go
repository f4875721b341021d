package fieldpath

import (
	"fmt"
	"strconv"
)

// Parse converts a human-readable path expression into a Path. Segments are
// separated by dots, and sequence indices may be written either in brackets
// or as bare numeric segments:
//
//	Parse("user.profile.name") -> ["user","profile","name"]
//	Parse("items[0].name")     -> ["items",0,"name"]
//	Parse("items.0.name")      -> ["items",0,"name"]
//	Parse("")                  -> the root
//
// A bare all-digit segment always parses as an index; build paths with New,
// Field and At when a literal numeric map key is needed.
func Parse(s string) (Path, error) {
	if s == "" {
		return nil, nil
	}
	var out Path
	var key []rune
	flush := func(wantKey bool) error {
		if len(key) == 0 {
			if wantKey {
				return fmt.Errorf("fieldpath: empty segment in %q", s)
			}
			return nil
		}
		tok := string(key)
		key = key[:0]
		if i, err := strconv.Atoi(tok); err == nil && i >= 0 && tok[0] != '+' {
			out = append(out, Index(i))
			return nil
		}
		out = append(out, Key(tok))
		return nil
	}

	runes := []rune(s)
	i := 0
	for i < len(runes) {
		switch runes[i] {
		case '.':
			// a dot after "]" only separates; elsewhere it must close a key
			if err := flush(i == 0 || runes[i-1] != ']'); err != nil {
				return nil, err
			}
			i++
			if i == len(runes) {
				return nil, fmt.Errorf("fieldpath: trailing dot in %q", s)
			}
		case '[':
			if err := flush(false); err != nil {
				return nil, err
			}
			j := i + 1
			for j < len(runes) && runes[j] != ']' {
				j++
			}
			if j == len(runes) {
				return nil, fmt.Errorf("fieldpath: unclosed bracket in %q", s)
			}
			idx, err := strconv.Atoi(string(runes[i+1 : j]))
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("fieldpath: bad index %q in %q", string(runes[i+1:j]), s)
			}
			out = append(out, Index(idx))
			i = j + 1
			if i < len(runes) && runes[i] != '.' && runes[i] != '[' {
				return nil, fmt.Errorf("fieldpath: unexpected %q after index in %q", string(runes[i]), s)
			}
		default:
			key = append(key, runes[i])
			i++
		}
	}
	if err := flush(len(runes) > 0 && runes[len(runes)-1] == '.'); err != nil {
		return nil, err
	}
	return out, nil
}

// MustParse is Parse for statically known expressions; it panics on error.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}
