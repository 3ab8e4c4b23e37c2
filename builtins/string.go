package builtins

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/runtime"
)

func createStringConstructor() *runtime.Object {
	proto := runtime.StringPrototype
	setMethod(proto, "at", 1, stringAt)
	setMethod(proto, "charAt", 1, stringCharAt)
	setMethod(proto, "charCodeAt", 1, stringCharCodeAt)
	setMethod(proto, "codePointAt", 1, stringCodePointAt)
	setMethod(proto, "indexOf", 1, stringIndexOf)
	setMethod(proto, "lastIndexOf", 1, stringLastIndexOf)
	setMethod(proto, "includes", 1, stringIncludes)
	setMethod(proto, "startsWith", 1, stringStartsWith)
	setMethod(proto, "endsWith", 1, stringEndsWith)
	setMethod(proto, "slice", 2, stringSlice)
	setMethod(proto, "substring", 2, stringSubstring)
	setMethod(proto, "substr", 2, stringSubstr)
	setMethod(proto, "toUpperCase", 0, stringToUpperCase)
	setMethod(proto, "toLowerCase", 0, stringToLowerCase)
	setMethod(proto, "trim", 0, stringTrim)
	setMethod(proto, "trimStart", 0, stringTrimStart)
	setMethod(proto, "trimEnd", 0, stringTrimEnd)
	setMethod(proto, "padStart", 2, stringPadStart)
	setMethod(proto, "padEnd", 2, stringPadEnd)
	setMethod(proto, "repeat", 1, stringRepeat)
	setMethod(proto, "concat", 1, stringConcat)
	setMethod(proto, "split", 2, stringSplit)
	setMethod(proto, "replace", 2, stringReplace)
	setMethod(proto, "replaceAll", 2, stringReplaceAll)
	setMethod(proto, "match", 1, stringMatch)
	setMethod(proto, "matchAll", 1, stringMatchAll)
	setMethod(proto, "search", 1, stringSearch)
	setMethod(proto, "localeCompare", 1, stringLocaleCompare)
	setMethod(proto, "toString", 0, stringValueOf)
	setMethod(proto, "valueOf", 0, stringValueOf)

	ctor := newConstructor("String", 1, proto, stringConstructorCall, stringConstructorCall)
	setMethod(ctor, "fromCharCode", 1, stringFromCharCode)
	setMethod(ctor, "fromCodePoint", 1, stringFromCodePoint)
	return ctor
}

func stringConstructorCall(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	if len(args) == 0 {
		return runtime.EmptyStr, nil
	}
	s, err := toPrimitiveString(args[0])
	if err != nil {
		return nil, err
	}
	return runtime.NewString(s), nil
}

// thisString coerces the receiver; methods called on null or undefined fail.
func thisString(this *runtime.Value, method string) (string, error) {
	if this.IsNullish() {
		return "", errors.TypeErrorf("String.prototype.%s called on null or undefined", method)
	}
	if this.Type == runtime.TypeString {
		return this.Str, nil
	}
	return toPrimitiveString(this)
}

// stringArg coerces args[i], treating a missing argument as "undefined".
func stringArg(args []*runtime.Value, i int) (string, error) {
	return toPrimitiveString(runtime.Arg(args, i))
}

func indexUnits(s, sub []uint16) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if unitsEqual(s[i:i+len(sub)], sub) {
			return i
		}
	}
	return -1
}

func unitsEqual(a, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func stringAt(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "at")
	if err != nil {
		return nil, err
	}
	u := units(s)
	i := int(runtime.ToIntegerOrInfinity(runtime.Arg(args, 0)))
	if i < 0 {
		i += len(u)
	}
	if i < 0 || i >= len(u) {
		return runtime.Undefined, nil
	}
	return runtime.NewString(fromUnits(u[i : i+1])), nil
}

func stringCharAt(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "charAt")
	if err != nil {
		return nil, err
	}
	u := units(s)
	i := runtime.ToIntegerOrInfinity(runtime.Arg(args, 0))
	if i < 0 || i >= float64(len(u)) {
		return runtime.EmptyStr, nil
	}
	return runtime.NewString(fromUnits(u[int(i) : int(i)+1])), nil
}

func stringCharCodeAt(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "charCodeAt")
	if err != nil {
		return nil, err
	}
	u := units(s)
	i := runtime.ToIntegerOrInfinity(runtime.Arg(args, 0))
	if i < 0 || i >= float64(len(u)) {
		return runtime.NaN, nil
	}
	return runtime.NewNumber(float64(u[int(i)])), nil
}

func stringCodePointAt(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "codePointAt")
	if err != nil {
		return nil, err
	}
	u := units(s)
	f := runtime.ToIntegerOrInfinity(runtime.Arg(args, 0))
	if f < 0 || f >= float64(len(u)) {
		return runtime.Undefined, nil
	}
	i := int(f)
	if utf16.IsSurrogate(rune(u[i])) && i+1 < len(u) {
		if r := utf16.DecodeRune(rune(u[i]), rune(u[i+1])); r != unicode.ReplacementChar {
			return runtime.NewNumber(float64(r)), nil
		}
	}
	return runtime.NewNumber(float64(u[i])), nil
}

func stringIndexOf(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "indexOf")
	if err != nil {
		return nil, err
	}
	search, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	u, su := units(s), units(search)
	from := clampIndex(runtime.ToIntegerOrInfinity(runtime.Arg(args, 1)), len(u))
	if j := indexUnits(u[from:], su); j >= 0 {
		return runtime.NewNumber(float64(from + j)), nil
	}
	return runtime.NewNumber(-1), nil
}

func stringLastIndexOf(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "lastIndexOf")
	if err != nil {
		return nil, err
	}
	search, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	u, su := units(s), units(search)
	from := len(u) - len(su)
	if pos := runtime.Arg(args, 1); !math.IsNaN(pos.ToNumber()) {
		if p := clampIndex(runtime.ToIntegerOrInfinity(pos), len(u)); p < from {
			from = p
		}
	}
	for i := from; i >= 0; i-- {
		if i+len(su) <= len(u) && unitsEqual(u[i:i+len(su)], su) {
			return runtime.NewNumber(float64(i)), nil
		}
	}
	return runtime.NewNumber(-1), nil
}

// clampIndex clamps a position argument into [0, length].
func clampIndex(f float64, length int) int {
	switch {
	case f < 0:
		return 0
	case f > float64(length):
		return length
	}
	return int(f)
}

func rejectRegExp(v *runtime.Value, method string) error {
	if _, ok := runtime.AsRegExp(v); ok {
		return errors.TypeErrorf("First argument to String.prototype.%s must not be a regular expression", method)
	}
	return nil
}

func stringIncludes(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "includes")
	if err != nil {
		return nil, err
	}
	if err := rejectRegExp(runtime.Arg(args, 0), "includes"); err != nil {
		return nil, err
	}
	idx, err := stringIndexOf(runtime.NewString(s), args)
	if err != nil {
		return nil, err
	}
	return runtime.NewBool(idx.Number >= 0), nil
}

func stringStartsWith(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "startsWith")
	if err != nil {
		return nil, err
	}
	if err := rejectRegExp(runtime.Arg(args, 0), "startsWith"); err != nil {
		return nil, err
	}
	search, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	u, su := units(s), units(search)
	start := clampIndex(runtime.ToIntegerOrInfinity(runtime.Arg(args, 1)), len(u))
	return runtime.NewBool(start+len(su) <= len(u) && unitsEqual(u[start:start+len(su)], su)), nil
}

func stringEndsWith(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "endsWith")
	if err != nil {
		return nil, err
	}
	if err := rejectRegExp(runtime.Arg(args, 0), "endsWith"); err != nil {
		return nil, err
	}
	search, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	u, su := units(s), units(search)
	end := len(u)
	if pos := runtime.Arg(args, 1); pos.Type != runtime.TypeUndefined {
		end = clampIndex(runtime.ToIntegerOrInfinity(pos), len(u))
	}
	start := end - len(su)
	return runtime.NewBool(start >= 0 && unitsEqual(u[start:end], su)), nil
}

func stringSlice(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "slice")
	if err != nil {
		return nil, err
	}
	n := runtime.StringLength(s)
	start := relativeIndex(runtime.Arg(args, 0), n, 0)
	end := relativeIndex(runtime.Arg(args, 1), n, n)
	return runtime.NewString(runtime.Substring(s, start, end)), nil
}

func stringSubstring(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "substring")
	if err != nil {
		return nil, err
	}
	n := runtime.StringLength(s)
	start := clampIndex(runtime.ToIntegerOrInfinity(runtime.Arg(args, 0)), n)
	end := n
	if e := runtime.Arg(args, 1); e.Type != runtime.TypeUndefined {
		end = clampIndex(runtime.ToIntegerOrInfinity(e), n)
	}
	if start > end {
		start, end = end, start
	}
	return runtime.NewString(runtime.Substring(s, start, end)), nil
}

func stringSubstr(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "substr")
	if err != nil {
		return nil, err
	}
	n := runtime.StringLength(s)
	start := relativeIndex(runtime.Arg(args, 0), n, 0)
	length := n - start
	if l := runtime.Arg(args, 1); l.Type != runtime.TypeUndefined {
		length = clampIndex(runtime.ToIntegerOrInfinity(l), n-start)
	}
	return runtime.NewString(runtime.Substring(s, start, start+length)), nil
}

func mapString(method string, fn func(string) string) runtime.CallableFunc {
	return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		s, err := thisString(this, method)
		if err != nil {
			return nil, err
		}
		return runtime.NewString(fn(s)), nil
	}
}

// isSpace matches the script WhiteSpace and LineTerminator sets.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

var (
	stringToUpperCase = mapString("toUpperCase", strings.ToUpper)
	stringToLowerCase = mapString("toLowerCase", strings.ToLower)
	stringTrim        = mapString("trim", func(s string) string { return strings.TrimFunc(s, isSpace) })
	stringTrimStart   = mapString("trimStart", func(s string) string { return strings.TrimLeftFunc(s, isSpace) })
	stringTrimEnd     = mapString("trimEnd", func(s string) string { return strings.TrimRightFunc(s, isSpace) })
	stringValueOf     = mapString("valueOf", func(s string) string { return s })
)

func pad(this *runtime.Value, args []*runtime.Value, method string, atStart bool) (*runtime.Value, error) {
	s, err := thisString(this, method)
	if err != nil {
		return nil, err
	}
	target := int(runtime.ToIntegerOrInfinity(runtime.Arg(args, 0)))
	filler := " "
	if f := runtime.Arg(args, 1); f.Type != runtime.TypeUndefined {
		if filler, err = toPrimitiveString(f); err != nil {
			return nil, err
		}
	}
	u, fu := units(s), units(filler)
	if target <= len(u) || len(fu) == 0 {
		return runtime.NewString(s), nil
	}
	fill := make([]uint16, 0, target-len(u))
	for len(fill) < target-len(u) {
		fill = append(fill, fu[len(fill)%len(fu)])
	}
	if atStart {
		return runtime.NewString(fromUnits(fill) + s), nil
	}
	return runtime.NewString(s + fromUnits(fill)), nil
}

func stringPadStart(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	return pad(this, args, "padStart", true)
}

func stringPadEnd(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	return pad(this, args, "padEnd", false)
}

func stringRepeat(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "repeat")
	if err != nil {
		return nil, err
	}
	n := runtime.ToIntegerOrInfinity(runtime.Arg(args, 0))
	if n < 0 || math.IsInf(n, 1) {
		return nil, errors.RangeErrorf("Invalid count value: %s", runtime.FormatNumber(n))
	}
	if s == "" {
		return runtime.EmptyStr, nil
	}
	return runtime.NewString(strings.Repeat(s, int(n))), nil
}

func stringConcat(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "concat")
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString(s)
	for _, a := range args {
		part, err := toPrimitiveString(a)
		if err != nil {
			return nil, err
		}
		b.WriteString(part)
	}
	return runtime.NewString(b.String()), nil
}

func stringSplit(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "split")
	if err != nil {
		return nil, err
	}
	limit := -1
	if l := runtime.Arg(args, 1); l.Type != runtime.TypeUndefined {
		limit = int(runtime.ToUint32(l))
	}
	sep := runtime.Arg(args, 0)
	var parts []*runtime.Value
	switch re, isRegExp := runtime.AsRegExp(sep); {
	case limit == 0:
	case sep.Type == runtime.TypeUndefined:
		parts = []*runtime.Value{runtime.NewString(s)}
	case isRegExp:
		parts, err = splitRegExp(re, s)
	default:
		var str string
		if str, err = toPrimitiveString(sep); err == nil {
			parts = splitString(s, str)
		}
	}
	if err != nil {
		return nil, err
	}
	if limit >= 0 && len(parts) > limit {
		parts = parts[:limit]
	}
	return runtime.NewArray(parts), nil
}

func splitString(s, sep string) []*runtime.Value {
	u, su := units(s), units(sep)
	var out []*runtime.Value
	if len(su) == 0 {
		for i := range u {
			out = append(out, runtime.NewString(fromUnits(u[i:i+1])))
		}
		return out
	}
	for {
		j := indexUnits(u, su)
		if j < 0 {
			return append(out, runtime.NewString(fromUnits(u)))
		}
		out = append(out, runtime.NewString(fromUnits(u[:j])))
		u = u[j+len(su):]
	}
}

// splitRegExp splits around matches, splicing captured groups into the
// result. Empty matches at the edges do not split.
func splitRegExp(re *runtime.RegExp, s string) ([]*runtime.Value, error) {
	u := units(s)
	if len(u) == 0 {
		m, err := findAt(re, s, 0)
		if err != nil {
			return nil, err
		}
		if m != nil && m.end == 0 {
			return nil, nil
		}
		return []*runtime.Value{runtime.EmptyStr}, nil
	}
	matches, err := allMatches(re, s)
	if err != nil {
		return nil, err
	}
	var out []*runtime.Value
	last := 0
	for _, m := range matches {
		if m.end == m.start && (m.start == last || m.start >= len(u)) {
			continue
		}
		out = append(out, runtime.NewString(fromUnits(u[last:m.start])))
		out = append(out, m.groups[1:]...)
		last = m.end
	}
	return append(out, runtime.NewString(fromUnits(u[last:]))), nil
}

func stringReplace(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	return replace(this, args, "replace", false)
}

func stringReplaceAll(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	return replace(this, args, "replaceAll", true)
}

func replace(this *runtime.Value, args []*runtime.Value, method string, all bool) (*runtime.Value, error) {
	s, err := thisString(this, method)
	if err != nil {
		return nil, err
	}
	pattern, repl := runtime.Arg(args, 0), runtime.Arg(args, 1)
	var matches []*match
	if re, ok := runtime.AsRegExp(pattern); ok {
		if all && !re.Global() {
			return nil, errors.TypeErrorf("replaceAll must be called with a global RegExp")
		}
		if re.Global() {
			matches, err = allMatches(re, s)
			if err == nil {
				err = pattern.Object.SetE("lastIndex", runtime.Zero)
			}
		} else {
			var m *match
			if m, err = exec(pattern, re, s); m != nil {
				matches = []*match{m}
			}
		}
	} else {
		var search string
		if search, err = toPrimitiveString(pattern); err == nil {
			matches = literalMatches(s, search, all)
		}
	}
	if err != nil {
		return nil, err
	}
	out, err := splice(s, matches, repl)
	if err != nil {
		return nil, err
	}
	return runtime.NewString(out), nil
}

func stringMatch(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "match")
	if err != nil {
		return nil, err
	}
	rv, re, err := toRegExp(runtime.Arg(args, 0), "")
	if err != nil {
		return nil, err
	}
	if !re.Global() {
		return regexpExec(rv, []*runtime.Value{runtime.NewString(s)})
	}
	matches, err := allMatches(re, s)
	if err != nil {
		return nil, err
	}
	if err := rv.Object.SetE("lastIndex", runtime.Zero); err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return runtime.Null, nil
	}
	out := make([]*runtime.Value, len(matches))
	for i, m := range matches {
		out[i] = m.groups[0]
	}
	return runtime.NewArray(out), nil
}

func stringMatchAll(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "matchAll")
	if err != nil {
		return nil, err
	}
	_, re, err := toRegExp(runtime.Arg(args, 0), "g")
	if err != nil {
		return nil, err
	}
	if !re.Global() {
		return nil, errors.TypeErrorf("String.prototype.matchAll called with a non-global RegExp argument")
	}
	matches, err := allMatches(re, s)
	if err != nil {
		return nil, err
	}
	i := 0
	return runtime.NewIterator(func() (*runtime.Value, bool) {
		if i >= len(matches) {
			return nil, false
		}
		m := matches[i]
		i++
		return m.result(s), true
	}), nil
}

func stringSearch(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "search")
	if err != nil {
		return nil, err
	}
	_, re, err := toRegExp(runtime.Arg(args, 0), "")
	if err != nil {
		return nil, err
	}
	m, err := findAt(re, s, 0)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return runtime.NewNumber(-1), nil
	}
	return runtime.NewNumber(float64(m.start)), nil
}

func stringLocaleCompare(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "localeCompare")
	if err != nil {
		return nil, err
	}
	other, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	switch {
	case s == other:
		return runtime.Zero, nil
	case lessUTF16(s, other):
		return runtime.NewNumber(-1), nil
	}
	return runtime.NewNumber(1), nil
}

func stringFromCharCode(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	u := make([]uint16, len(args))
	for i, a := range args {
		n, err := toNumber(a)
		if err != nil {
			return nil, err
		}
		u[i] = uint16(runtime.ToUint32(runtime.NewNumber(n)))
	}
	return runtime.NewString(fromUnits(u)), nil
}

func stringFromCodePoint(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	var b strings.Builder
	for _, a := range args {
		n, err := toNumber(a)
		if err != nil {
			return nil, err
		}
		if !isIntegral(n) || n < 0 || n > unicode.MaxRune {
			return nil, errors.RangeErrorf("Invalid code point %s", runtime.FormatNumber(n))
		}
		b.WriteRune(rune(n))
	}
	return runtime.NewString(b.String()), nil
}
