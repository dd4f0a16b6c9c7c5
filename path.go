package vault

import "strings"

// Path is a parsed, validated dotted path: an ordered, non-empty sequence
// of alphanumeric segments. It is a value type — copying a Path is cheap
// and never invalidates the copy's own segment views: copies and the
// results of PopFront/PopBack may share a segment slice, but no operation
// ever modifies one after parsing.
//
// A Path built from an invalid string is still a usable, zero-cost value:
// Valid reports false and every other operation is a documented no-op.
type Path struct {
	str  string
	segs []string
	ok   bool
}

// NewPath parses s once. If s fails the grammar (§6.1: alphanumeric
// segments separated by '.', ≤1024 bytes, ≤32 segments), the returned Path
// has Valid() == false.
func NewPath(s string) Path {
	segs, ok := parsePathSegments(s)
	return Path{str: s, segs: segs, ok: ok}
}

func parsePathSegments(s string) ([]string, bool) {
	if len(s) == 0 || len(s) > maxPathBytes {
		return nil, false
	}
	segs := strings.Split(s, ".")
	if len(segs) > maxPathSegments {
		return nil, false
	}
	for _, seg := range segs {
		if !isValidSegment(seg) {
			return nil, false
		}
	}
	return segs, true
}

func isValidSegment(seg string) bool {
	if seg == "" {
		return false
	}
	for _, c := range seg {
		if !isAlphaNumeric(c) {
			return false
		}
	}
	return true
}

func isAlphaNumeric(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// Valid reports whether the path parsed successfully.
func (p Path) Valid() bool {
	return p.ok
}

// Composite reports whether the path has more than one segment.
func (p Path) Composite() bool {
	return p.ok && len(p.segs) > 1
}

// Size returns the segment count, or 0 for an invalid path.
func (p Path) Size() int {
	if !p.ok {
		return 0
	}
	return len(p.segs)
}

// String returns the original dotted-path string.
func (p Path) String() string {
	return p.str
}

// Front returns the first segment.
func (p Path) Front() (string, bool) {
	if !p.ok || len(p.segs) == 0 {
		return "", false
	}
	return p.segs[0], true
}

// Back returns the last segment.
func (p Path) Back() (string, bool) {
	if !p.ok || len(p.segs) == 0 {
		return "", false
	}
	return p.segs[len(p.segs)-1], true
}

// PopFront returns a new Path with the first segment removed. Calling
// PopFront on a single-segment or invalid path returns an invalid Path.
func (p Path) PopFront() Path {
	if !p.ok || len(p.segs) <= 1 {
		return Path{}
	}
	rest := p.segs[1:]
	return Path{str: strings.Join(rest, "."), segs: rest, ok: true}
}

// PopBack returns a new Path with the last segment removed.
func (p Path) PopBack() Path {
	if !p.ok || len(p.segs) <= 1 {
		return Path{}
	}
	rest := p.segs[:len(p.segs)-1]
	return Path{str: strings.Join(rest, "."), segs: rest, ok: true}
}

// Append returns a new absolute path formed by appending name as a final
// segment: p + name -> "p.str.name", or just name if p is an empty root
// path.
func (p Path) Append(name string) Path {
	if p.str == "" {
		return NewPath(name)
	}
	return NewPath(p.str + "." + name)
}
