package forma

import (
	"github.com/reoring/forma/fieldpath"
)

// Path addresses a location in a values tree. This is an alias to the
// canonical fieldpath type so callers can stay on one import.
type Path = fieldpath.Path

// Segment is one step of a Path.
type Segment = fieldpath.Segment

// RootPath returns the empty path addressing the whole tree.
func RootPath() Path { return fieldpath.Root() }

// NewPath builds a path from segments.
func NewPath(segs ...Segment) Path { return fieldpath.New(segs...) }

// KeySegment returns a map-key segment.
func KeySegment(name string) Segment { return fieldpath.Key(name) }

// IndexSegment returns a sequence-index segment.
func IndexSegment(i int) Segment { return fieldpath.Index(i) }

// ParsePath converts a path expression like "items[0].name" into a Path.
func ParsePath(s string) (Path, error) { return fieldpath.Parse(s) }

// MustParsePath is ParsePath for statically known expressions; it panics on
// error.
func MustParsePath(s string) Path { return fieldpath.MustParse(s) }
