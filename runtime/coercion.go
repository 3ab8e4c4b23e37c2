package runtime

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/example/jsexpr/errors"
)

// Hint selects the preferred primitive type in ToPrimitive.
type Hint int

const (
	HintDefault Hint = iota
	HintNumber
	HintString
)

// ToPrimitive converts an object to a primitive by calling valueOf/toString.
func ToPrimitive(v *Value, hint Hint) (*Value, error) {
	if !v.IsObject() {
		return v, nil
	}
	order := []string{"valueOf", "toString"}
	if hint == HintString {
		order = []string{"toString", "valueOf"}
	}
	for _, name := range order {
		fn, err := v.Object.GetE(name)
		if err != nil {
			return nil, err
		}
		if !fn.IsCallable() {
			continue
		}
		res, err := Call(fn, v, nil)
		if err != nil {
			return nil, err
		}
		if !res.IsObject() {
			return res, nil
		}
	}
	return defaultPrimitive(v.Object), nil
}

// defaultPrimitive is used when no valueOf/toString is reachable, e.g. before
// the builtins are installed.
func defaultPrimitive(o *Object) *Value {
	switch o.Kind {
	case KindArray:
		parts := make([]string, len(o.ArrayData))
		for i, el := range o.ArrayData {
			if !el.IsNullish() {
				parts[i] = el.ToString()
			}
		}
		return NewString(strings.Join(parts, ","))
	case KindError:
		return NewString(ErrorString(o))
	case KindFunction:
		if o.Source != "" {
			return NewString(o.Source)
		}
		return NewString("function " + o.Get("name").ToString() + "() { [native code] }")
	}
	return NewString("[object Object]")
}

// ErrorString renders an error object as "Name: message".
func ErrorString(o *Object) string {
	name := "Error"
	if n := o.Get("name"); n.Type == TypeString && n.Str != "" {
		name = n.Str
	}
	msg := o.Get("message")
	if msg.IsNullish() || msg.ToString() == "" {
		return name
	}
	return name + ": " + msg.ToString()
}

// ToNumber implements the ECMAScript ToNumber abstract operation.
func (v *Value) ToNumber() float64 {
	if v == nil {
		return math.NaN()
	}
	switch v.Type {
	case TypeNull:
		return 0
	case TypeBoolean:
		if v.Bool {
			return 1
		}
		return 0
	case TypeNumber:
		return v.Number
	case TypeString:
		return StringToNumber(v.Str)
	case TypeBigInt:
		f, _ := new(big.Float).SetInt(v.BigInt).Float64()
		return f
	case TypeObject:
		p, err := ToPrimitive(v, HintNumber)
		if err != nil || p.IsObject() {
			return math.NaN()
		}
		return p.ToNumber()
	default:
		return math.NaN()
	}
}

// StringToNumber parses numeric strings the way Number("...") does.
func StringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}
	// ParseFloat accepts forms like "inf", "0x1p4" and "1_000" that scripts reject.
	for _, r := range s {
		if !(r >= '0' && r <= '9') && !strings.ContainsRune("+-.eE", r) {
			return math.NaN()
		}
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return n
}

// ToNumeric converts to a number or keeps a BigInt.
func ToNumeric(v *Value) (*Value, error) {
	p, err := ToPrimitive(v, HintNumber)
	if err != nil {
		return nil, err
	}
	if p.Type == TypeBigInt {
		return p, nil
	}
	return NewNumber(p.ToNumber()), nil
}

// ToInt32 implements the ECMAScript ToInt32 abstract operation.
func ToInt32(v *Value) int32 {
	return int32(ToUint32(v))
}

// ToUint32 implements the ECMAScript ToUint32 abstract operation.
func ToUint32(v *Value) uint32 {
	n := v.ToNumber()
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	n = math.Trunc(n)
	n = math.Mod(n, 4294967296)
	if n < 0 {
		n += 4294967296
	}
	return uint32(n)
}

// ToIntegerOrInfinity truncates toward zero, mapping NaN to 0.
func ToIntegerOrInfinity(v *Value) float64 {
	n := v.ToNumber()
	if math.IsNaN(n) {
		return 0
	}
	return math.Trunc(n)
}

// ToPropertyKey converts a computed member key into a property name.
func ToPropertyKey(v *Value) (string, error) {
	p, err := ToPrimitive(v, HintString)
	if err != nil {
		return "", err
	}
	return p.ToString(), nil
}

// StrictEquals implements === comparison.
func StrictEquals(a, b *Value) bool {
	if a == nil {
		a = Undefined
	}
	if b == nil {
		b = Undefined
	}
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case TypeUndefined, TypeNull:
		return true
	case TypeBoolean:
		return a.Bool == b.Bool
	case TypeNumber:
		return a.Number == b.Number
	case TypeString:
		return a.Str == b.Str
	case TypeBigInt:
		return a.BigInt.Cmp(b.BigInt) == 0
	case TypeObject:
		return a.Object == b.Object
	default:
		return false
	}
}

// SameValueZero is StrictEquals except NaN equals NaN.
func SameValueZero(a, b *Value) bool {
	if a != nil && b != nil && a.Type == TypeNumber && b.Type == TypeNumber &&
		math.IsNaN(a.Number) && math.IsNaN(b.Number) {
		return true
	}
	return StrictEquals(a, b)
}

// LooseEquals implements == comparison.
func LooseEquals(a, b *Value) (bool, error) {
	if a == nil {
		a = Undefined
	}
	if b == nil {
		b = Undefined
	}
	if a.Type == b.Type {
		return StrictEquals(a, b), nil
	}
	if a.IsNullish() && b.IsNullish() {
		return true, nil
	}
	if a.IsNullish() || b.IsNullish() {
		return false, nil
	}
	switch {
	case a.Type == TypeNumber && b.Type == TypeString:
		return a.Number == b.ToNumber(), nil
	case a.Type == TypeString && b.Type == TypeNumber:
		return a.ToNumber() == b.Number, nil
	case a.Type == TypeBigInt && b.Type == TypeString:
		n, ok := new(big.Int).SetString(strings.TrimSpace(b.Str), 10)
		return ok && n.Cmp(a.BigInt) == 0, nil
	case a.Type == TypeString && b.Type == TypeBigInt:
		return LooseEquals(b, a)
	case a.Type == TypeBoolean:
		return LooseEquals(NewNumber(a.ToNumber()), b)
	case b.Type == TypeBoolean:
		return LooseEquals(a, NewNumber(b.ToNumber()))
	case a.Type == TypeObject && b.Type != TypeObject:
		p, err := ToPrimitive(a, HintDefault)
		if err != nil {
			return false, err
		}
		return LooseEquals(p, b)
	case b.Type == TypeObject && a.Type != TypeObject:
		p, err := ToPrimitive(b, HintDefault)
		if err != nil {
			return false, err
		}
		return LooseEquals(a, p)
	case a.Type == TypeBigInt && b.Type == TypeNumber:
		return bigEqualsFloat(a.BigInt, b.Number), nil
	case a.Type == TypeNumber && b.Type == TypeBigInt:
		return bigEqualsFloat(b.BigInt, a.Number), nil
	}
	return false, nil
}

func bigEqualsFloat(b *big.Int, f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return false
	}
	bf := new(big.Float).SetInt(b)
	return bf.Cmp(big.NewFloat(f)) == 0
}

// ParseBigInt parses a BigInt literal body (decimal, 0x, 0o, 0b).
func ParseBigInt(lit string) (*big.Int, bool) {
	lit = strings.ReplaceAll(lit, "_", "")
	n := new(big.Int)
	if len(lit) > 2 && lit[0] == '0' {
		switch lit[1] {
		case 'x', 'X':
			return n.SetString(lit[2:], 16)
		case 'o', 'O':
			return n.SetString(lit[2:], 8)
		case 'b', 'B':
			return n.SetString(lit[2:], 2)
		}
	}
	return n.SetString(lit, 10)
}

// ToBigInt converts booleans, strings and BigInts; numbers must be integral.
func ToBigInt(v *Value) (*big.Int, error) {
	p, err := ToPrimitive(v, HintNumber)
	if err != nil {
		return nil, err
	}
	switch p.Type {
	case TypeBigInt:
		return p.BigInt, nil
	case TypeBoolean:
		if p.Bool {
			return big.NewInt(1), nil
		}
		return big.NewInt(0), nil
	case TypeNumber:
		if p.Number != math.Trunc(p.Number) || math.IsInf(p.Number, 0) || math.IsNaN(p.Number) {
			return nil, errors.RangeErrorf("The number %s cannot be converted to a BigInt because it is not an integer", FormatNumber(p.Number))
		}
		b, _ := big.NewFloat(p.Number).Int(nil)
		return b, nil
	case TypeString:
		if n, ok := ParseBigInt(strings.TrimSpace(p.Str)); ok {
			return n, nil
		}
		return nil, &errors.EvaluationError{Kind: "SyntaxError", Msg: "Cannot convert " + p.Str + " to a BigInt"}
	}
	return nil, errors.TypeErrorf("Cannot convert %s to a BigInt", p.ToString())
}
