package runtime

import "strings"

// Path is a dependency path: the ordered property segments read from a scope
// binding, e.g. user.name is Path{"user", "name"}. Paths are compared by
// segments, so "time" is unrelated to "timestamp".
type Path []string

// ParsePath splits a dotted path.
func ParsePath(s string) Path {
	if s == "" {
		return nil
	}
	return Path(strings.Split(s, "."))
}

func (p Path) String() string {
	return strings.Join(p, ".")
}

// Root returns the binding name the path starts at.
func (p Path) Root() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// Append returns a new path with extra segments.
func (p Path) Append(segs ...string) Path {
	out := make(Path, 0, len(p)+len(segs))
	out = append(out, p...)
	return append(out, segs...)
}

// Equal reports segment-wise equality.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is a leading run of p's segments.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	return p[:len(prefix)].Equal(prefix)
}

// Overlaps reports whether a change at one path can affect the other:
// they are equal or one is an ancestor of the other.
func (p Path) Overlaps(o Path) bool {
	return p.HasPrefix(o) || o.HasPrefix(p)
}

// Resolve walks the segments below the root starting from v. Missing or
// nullish links yield undefined.
func (p Path) Resolve(v *Value) *Value {
	cur := v
	for _, seg := range p {
		if cur.IsNullish() {
			return Undefined
		}
		next, err := GetProperty(cur, seg)
		if err != nil {
			return Undefined
		}
		cur = next
	}
	if cur == nil {
		return Undefined
	}
	return cur
}

// DedupPaths drops repeated paths, keeping first-seen order.
func DedupPaths(paths []Path) []Path {
	var out []Path
	for _, p := range paths {
		if len(p) == 0 {
			continue
		}
		dup := false
		for _, q := range out {
			if q.Equal(p) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, p)
		}
	}
	return out
}
