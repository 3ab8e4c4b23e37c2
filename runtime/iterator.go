package runtime

import (
	"unicode/utf16"

	"github.com/example/jsexpr/errors"
)

func utf16Units(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

func unitsToString(u []uint16) string {
	return string(utf16.Decode(u))
}

// StringLength returns the length of s in UTF-16 code units.
func StringLength(s string) int {
	return len(utf16Units(s))
}

// Substring slices s by UTF-16 code unit offsets, clamping to bounds.
func Substring(s string, start, end int) string {
	u := utf16Units(s)
	if start < 0 {
		start = 0
	}
	if end > len(u) {
		end = len(u)
	}
	if start >= end {
		return ""
	}
	return unitsToString(u[start:end])
}

// NewIterator creates an iterable object backed by next.
func NewIterator(next func() (*Value, bool)) *Value {
	obj := NewPlainObject()
	obj.Kind = KindIterator
	obj.IteratorNext = next
	return NewObject(obj)
}

// Iterate returns a pull function over an iterable value: arrays, strings,
// iterator objects and objects exposing a callable next().
func Iterate(v *Value) (func() (*Value, bool, error), error) {
	switch {
	case v.IsArray():
		arr := v.Object
		i := 0
		return func() (*Value, bool, error) {
			if i >= len(arr.ArrayData) {
				return nil, false, nil
			}
			el := arr.ArrayData[i]
			i++
			if el == nil {
				el = Undefined
			}
			return el, true, nil
		}, nil
	case v != nil && v.Type == TypeString:
		runes := []rune(v.Str)
		i := 0
		return func() (*Value, bool, error) {
			if i >= len(runes) {
				return nil, false, nil
			}
			r := runes[i]
			i++
			return NewString(string(r)), true, nil
		}, nil
	case v.IsObject() && v.Object.IteratorNext != nil:
		next := v.Object.IteratorNext
		return func() (*Value, bool, error) {
			el, ok := next()
			return el, ok, nil
		}, nil
	case v.IsObject():
		next, err := v.Object.GetE("next")
		if err != nil {
			return nil, err
		}
		if next.IsCallable() {
			return func() (*Value, bool, error) {
				res, err := Call(next, v, nil)
				if err != nil {
					return nil, false, err
				}
				if !res.IsObject() {
					return nil, false, errors.TypeErrorf("Iterator result %s is not an object", res.ToString())
				}
				if res.Object.Get("done").ToBoolean() {
					return nil, false, nil
				}
				return res.Object.Get("value"), true, nil
			}, nil
		}
	}
	return nil, errors.TypeErrorf("%s is not iterable", describe(v))
}

// Collect drains an iterable into a slice.
func Collect(v *Value) ([]*Value, error) {
	if v.IsArray() {
		return append([]*Value(nil), v.Object.ArrayData...), nil
	}
	next, err := Iterate(v)
	if err != nil {
		return nil, err
	}
	var out []*Value
	for {
		el, ok, err := next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, el)
	}
}
