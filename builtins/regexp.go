package builtins

import (
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/runtime"
)

func createRegExpConstructor() *runtime.Object {
	proto := runtime.RegExpPrototype
	setMethod(proto, "test", 1, regexpTest)
	setMethod(proto, "exec", 1, regexpExec)
	setMethod(proto, "toString", 0, regexpToString)

	return newConstructor("RegExp", 2, proto, regexpConstructorCall, regexpConstructorCall)
}

func regexpConstructorCall(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	pattern, flags := runtime.Arg(args, 0), runtime.Arg(args, 1)
	var src, fl string
	if re, ok := runtime.AsRegExp(pattern); ok {
		src, fl = re.Source, re.Flags
	} else if pattern.Type != runtime.TypeUndefined {
		s, err := toPrimitiveString(pattern)
		if err != nil {
			return nil, err
		}
		src = s
	}
	if flags.Type != runtime.TypeUndefined {
		s, err := toPrimitiveString(flags)
		if err != nil {
			return nil, err
		}
		fl = s
	}
	if src == "" {
		src = "(?:)"
	}
	return runtime.NewRegExp(src, fl)
}

func thisRegExp(this *runtime.Value, method string) (*runtime.RegExp, error) {
	re, ok := runtime.AsRegExp(this)
	if !ok {
		return nil, errors.TypeErrorf("RegExp.prototype.%s called on incompatible receiver %s", method, runtime.Inspect(this))
	}
	return re, nil
}

// match is one regexp2 match translated to UTF-16 offsets.
type match struct {
	start, end int
	groups     []*runtime.Value
	// named groups in pattern order
	names map[string]*runtime.Value
	order []string
}

func (m *match) text() string {
	return m.groups[0].Str
}

// unitOffsets maps each rune offset of runes to its UTF-16 offset. The
// extra last entry is the length of the whole string.
func unitOffsets(runes []rune) []int {
	offs := make([]int, len(runes)+1)
	for i, r := range runes {
		w := 1
		if r > 0xFFFF {
			w = 2
		}
		offs[i+1] = offs[i] + w
	}
	return offs
}

// runeIndex is the first rune offset at or past UTF-16 offset unit.
func runeIndex(offs []int, unit int) int {
	for i, o := range offs {
		if o >= unit {
			return i
		}
	}
	return len(offs) - 1
}

// findAt runs re on s from UTF-16 offset from. It returns nil when nothing
// matches.
func findAt(re *runtime.RegExp, s string, from int) (*match, error) {
	runes := []rune(s)
	offs := unitOffsets(runes)
	if from > offs[len(offs)-1] {
		return nil, nil
	}
	start := runeIndex(offs, from)
	m, err := re.Re.FindRunesMatchStartingAt(runes, start)
	if err != nil {
		return nil, errors.Wrapf(err, "matching /%s/", re.Source)
	}
	if m == nil || (re.Sticky() && m.Index != start) {
		return nil, nil
	}
	return newMatch(m, offs), nil
}

func newMatch(m *regexp2.Match, offs []int) *match {
	res := &match{start: offs[m.Index], end: offs[m.Index+m.Length]}
	for _, g := range m.Groups() {
		v := runtime.Undefined
		if len(g.Captures) > 0 {
			v = runtime.NewString(g.String())
		}
		res.groups = append(res.groups, v)
		if _, err := strconv.Atoi(g.Name); err != nil {
			if res.names == nil {
				res.names = make(map[string]*runtime.Value)
			}
			res.names[g.Name] = v
			res.order = append(res.order, g.Name)
		}
	}
	return res
}

// exec implements RegExp.prototype.exec, updating lastIndex for global and
// sticky expressions.
func exec(rv *runtime.Value, re *runtime.RegExp, s string) (*match, error) {
	from := 0
	tracked := re.Global() || re.Sticky()
	if tracked {
		from = int(runtime.ToIntegerOrInfinity(rv.Object.Get("lastIndex")))
		if from < 0 {
			from = 0
		}
	}
	m, err := findAt(re, s, from)
	if err != nil {
		return nil, err
	}
	if tracked {
		next := 0
		if m != nil {
			next = m.end
		}
		if err := rv.Object.SetE("lastIndex", runtime.NewNumber(float64(next))); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// result builds the array exec returns: the match and its groups, with
// index, input and groups properties.
func (m *match) result(input string) *runtime.Value {
	arr := runtime.NewArrayObject(append([]*runtime.Value(nil), m.groups...))
	arr.Set("index", runtime.NewNumber(float64(m.start)))
	arr.Set("input", runtime.NewString(input))
	groups := runtime.Undefined
	if m.names != nil {
		obj := runtime.NewOrdinaryObject(nil)
		for _, name := range m.order {
			obj.Set(name, m.names[name])
		}
		groups = runtime.NewObject(obj)
	}
	arr.Set("groups", groups)
	return runtime.NewObject(arr)
}

func regexpExec(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	re, err := thisRegExp(this, "exec")
	if err != nil {
		return nil, err
	}
	s, err := toPrimitiveString(runtime.Arg(args, 0))
	if err != nil {
		return nil, err
	}
	m, err := exec(this, re, s)
	if err != nil || m == nil {
		return runtime.Null, err
	}
	return m.result(s), nil
}

func regexpTest(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	re, err := thisRegExp(this, "test")
	if err != nil {
		return nil, err
	}
	s, err := toPrimitiveString(runtime.Arg(args, 0))
	if err != nil {
		return nil, err
	}
	m, err := exec(this, re, s)
	if err != nil {
		return nil, err
	}
	return runtime.NewBool(m != nil), nil
}

func regexpToString(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	re, err := thisRegExp(this, "toString")
	if err != nil {
		return nil, err
	}
	return runtime.NewString("/" + re.Source + "/" + re.Flags), nil
}

// toRegExp accepts a RegExp object or compiles a string pattern, as match
// and search do.
func toRegExp(v *runtime.Value, flags string) (*runtime.Value, *runtime.RegExp, error) {
	if re, ok := runtime.AsRegExp(v); ok {
		return v, re, nil
	}
	src := "(?:)"
	if v.Type != runtime.TypeUndefined {
		s, err := toPrimitiveString(v)
		if err != nil {
			return nil, nil, err
		}
		src = s
	}
	rv, err := runtime.NewRegExp(src, flags)
	if err != nil {
		return nil, nil, err
	}
	re, _ := runtime.AsRegExp(rv)
	return rv, re, nil
}

// allMatches collects every match from the start of s, stepping past empty
// matches.
func allMatches(re *runtime.RegExp, s string) ([]*match, error) {
	var out []*match
	length := runtime.StringLength(s)
	for from := 0; from <= length; {
		m, err := findAt(re, s, from)
		if err != nil {
			return nil, err
		}
		if m == nil {
			break
		}
		out = append(out, m)
		from = m.end
		if m.end == m.start {
			from = advance(s, m.end)
		}
	}
	return out, nil
}

// advance steps one code point past UTF-16 offset i.
func advance(s string, i int) int {
	u := units(s)
	if i < len(u) && u[i] >= 0xD800 && u[i] <= 0xDBFF && i+1 < len(u) {
		return i + 2
	}
	return i + 1
}

// expand substitutes $$, $&, $`, $', $n, $nn and $<name> in a replacement
// template.
func expand(tmpl string, m *match, input []uint16) string {
	if !strings.Contains(tmpl, "$") {
		return tmpl
	}
	var b strings.Builder
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '$' || i+1 >= len(tmpl) {
			b.WriteByte(c)
			continue
		}
		next := tmpl[i+1]
		switch {
		case next == '$':
			b.WriteByte('$')
			i++
		case next == '&':
			b.WriteString(m.text())
			i++
		case next == '`':
			b.WriteString(fromUnits(input[:m.start]))
			i++
		case next == '\'':
			b.WriteString(fromUnits(input[m.end:]))
			i++
		case next >= '0' && next <= '9':
			n, width := groupRef(tmpl[i+1:], len(m.groups))
			if width == 0 {
				b.WriteByte(c)
				continue
			}
			if g := m.groups[n]; g.Type == runtime.TypeString {
				b.WriteString(g.Str)
			}
			i += width
		case next == '<' && m.names != nil:
			end := strings.IndexByte(tmpl[i+2:], '>')
			if end < 0 {
				b.WriteByte(c)
				continue
			}
			if g, ok := m.names[tmpl[i+2:i+2+end]]; ok && g.Type == runtime.TypeString {
				b.WriteString(g.Str)
			}
			i += end + 2
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// groupRef parses the one or two digits after $, preferring two when that
// names an existing group. width is 0 when no group matches.
func groupRef(s string, ngroups int) (n, width int) {
	if len(s) >= 2 && s[1] >= '0' && s[1] <= '9' {
		if n, _ := strconv.Atoi(s[:2]); n > 0 && n < ngroups {
			return n, 2
		}
	}
	if n := int(s[0] - '0'); n > 0 && n < ngroups {
		return n, 1
	}
	return 0, 0
}

// replacement produces the text for one match, calling fn when the
// replacement is a function.
func replacement(repl *runtime.Value, tmpl string, m *match, input string, u []uint16) (string, error) {
	if !repl.IsCallable() {
		return expand(tmpl, m, u), nil
	}
	args := append([]*runtime.Value(nil), m.groups...)
	args = append(args, runtime.NewNumber(float64(m.start)), runtime.NewString(input))
	if m.names != nil {
		groups := runtime.NewPlainObject()
		for _, name := range m.order {
			groups.Set(name, m.names[name])
		}
		args = append(args, runtime.NewObject(groups))
	}
	res, err := runtime.Call(repl, runtime.Undefined, args)
	if err != nil {
		return "", err
	}
	return toPrimitiveString(res)
}

// splice rebuilds s with each match replaced.
func splice(s string, matches []*match, repl *runtime.Value) (string, error) {
	tmpl := ""
	if !repl.IsCallable() {
		var err error
		if tmpl, err = toPrimitiveString(repl); err != nil {
			return "", err
		}
	}
	u := units(s)
	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(fromUnits(u[last:m.start]))
		r, err := replacement(repl, tmpl, m, s, u)
		if err != nil {
			return "", err
		}
		b.WriteString(r)
		last = m.end
	}
	b.WriteString(fromUnits(u[last:]))
	return b.String(), nil
}

// literalMatches finds occurrences of a plain search string, all of them
// or only the first.
func literalMatches(s, search string, all bool) []*match {
	u, su := units(s), units(search)
	var out []*match
	for i := 0; i+len(su) <= len(u); {
		j := indexUnits(u[i:], su)
		if j < 0 {
			break
		}
		start := i + j
		out = append(out, &match{start: start, end: start + len(su), groups: []*runtime.Value{runtime.NewString(search)}})
		if !all {
			break
		}
		i = start + len(su)
		if len(su) == 0 {
			i++
		}
	}
	return out
}
