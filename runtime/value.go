package runtime

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// ValueType represents the type of a script value.
type ValueType int

const (
	TypeUndefined ValueType = iota
	TypeNull
	TypeBoolean
	TypeNumber
	TypeString
	TypeBigInt
	TypeObject
)

func (t ValueType) String() string {
	switch t {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		return "boolean"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeBigInt:
		return "bigint"
	case TypeObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value represents a script value. Values are shared by pointer and never
// mutated after construction; objects are mutated through Object.
type Value struct {
	Type   ValueType
	Bool   bool
	Number float64
	Str    string
	BigInt *big.Int
	Object *Object
}

var (
	Undefined = &Value{Type: TypeUndefined}
	Null      = &Value{Type: TypeNull}
	True      = &Value{Type: TypeBoolean, Bool: true}
	False     = &Value{Type: TypeBoolean, Bool: false}
	NaN       = &Value{Type: TypeNumber, Number: math.NaN()}
	PosInf    = &Value{Type: TypeNumber, Number: math.Inf(1)}
	NegInf    = &Value{Type: TypeNumber, Number: math.Inf(-1)}
	Zero      = &Value{Type: TypeNumber, Number: 0}
	EmptyStr  = &Value{Type: TypeString}
)

func NewNumber(n float64) *Value {
	return &Value{Type: TypeNumber, Number: n}
}

func NewString(s string) *Value {
	return &Value{Type: TypeString, Str: s}
}

func NewBool(b bool) *Value {
	if b {
		return True
	}
	return False
}

func NewBigInt(n *big.Int) *Value {
	return &Value{Type: TypeBigInt, BigInt: n}
}

func NewObject(obj *Object) *Value {
	return &Value{Type: TypeObject, Object: obj}
}

// IsNullish reports whether v is null or undefined. A nil pointer counts as undefined.
func (v *Value) IsNullish() bool {
	return v == nil || v.Type == TypeUndefined || v.Type == TypeNull
}

// IsCallable reports whether v can be called.
func (v *Value) IsCallable() bool {
	return v != nil && v.Type == TypeObject && v.Object != nil && v.Object.Callable != nil
}

// IsArray reports whether v is an array object.
func (v *Value) IsArray() bool {
	return v != nil && v.Type == TypeObject && v.Object != nil && v.Object.Kind == KindArray
}

// IsObject reports whether v is any object.
func (v *Value) IsObject() bool {
	return v != nil && v.Type == TypeObject && v.Object != nil
}

// ToBoolean implements the ECMAScript ToBoolean abstract operation.
func (v *Value) ToBoolean() bool {
	if v == nil {
		return false
	}
	switch v.Type {
	case TypeBoolean:
		return v.Bool
	case TypeNumber:
		return v.Number != 0 && !math.IsNaN(v.Number)
	case TypeString:
		return len(v.Str) > 0
	case TypeBigInt:
		return v.BigInt.Sign() != 0
	case TypeObject:
		return true
	default:
		return false
	}
}

// ToString implements the ECMAScript ToString abstract operation.
// Objects are converted through ToPrimitive with a string hint.
func (v *Value) ToString() string {
	if v == nil {
		return "undefined"
	}
	switch v.Type {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		if v.Bool {
			return "true"
		}
		return "false"
	case TypeNumber:
		return FormatNumber(v.Number)
	case TypeString:
		return v.Str
	case TypeBigInt:
		return v.BigInt.String()
	case TypeObject:
		p, err := ToPrimitive(v, HintString)
		if err != nil || p.Type == TypeObject {
			return "[object Object]"
		}
		return p.ToString()
	default:
		return "undefined"
	}
}

// TypeOf returns the result of the typeof operator.
func (v *Value) TypeOf() string {
	if v == nil {
		return "undefined"
	}
	switch v.Type {
	case TypeNull:
		return "object"
	case TypeObject:
		if v.Object.Callable != nil {
			return "function"
		}
		return "object"
	default:
		return v.Type.String()
	}
}

// FormatNumber renders a float the way Number.prototype.toString does for radix 10.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}
	abs := math.Abs(n)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	s := strconv.FormatFloat(n, 'g', -1, 64)
	// Go writes e-07 and e+21; script engines drop the padding zero.
	if i := strings.IndexByte(s, 'e'); i >= 0 {
		mant, exp := s[:i], s[i+1:]
		sign := exp[0]
		digits := strings.TrimLeft(exp[1:], "0")
		if digits == "" {
			digits = "0"
		}
		s = mant + "e" + string(sign) + digits
	}
	return s
}
