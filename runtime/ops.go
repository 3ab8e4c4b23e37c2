package runtime

import (
	"math"
	"math/big"
	"strings"

	"github.com/example/jsexpr/errors"
)

// BinaryOp evaluates a non-logical binary operator. It is the single
// implementation shared by evaluation and parse-time constant folding.
func BinaryOp(op string, l, r *Value) (*Value, error) {
	switch op {
	case "===":
		return NewBool(StrictEquals(l, r)), nil
	case "!==":
		return NewBool(!StrictEquals(l, r)), nil
	case "==", "!=":
		eq, err := LooseEquals(l, r)
		if err != nil {
			return nil, err
		}
		if op == "!=" {
			eq = !eq
		}
		return NewBool(eq), nil
	case "<", ">", "<=", ">=":
		return compare(op, l, r)
	case "in":
		if !r.IsObject() {
			return nil, errors.TypeErrorf("Cannot use 'in' operator to search for '%s' in %s", l.ToString(), r.ToString())
		}
		key, err := ToPropertyKey(l)
		if err != nil {
			return nil, err
		}
		return NewBool(r.Object.HasProperty(key)), nil
	case "instanceof":
		return instanceOf(l, r)
	case "+":
		return add(l, r)
	}
	return arithmetic(op, l, r)
}

func add(l, r *Value) (*Value, error) {
	lp, err := ToPrimitive(l, HintDefault)
	if err != nil {
		return nil, err
	}
	rp, err := ToPrimitive(r, HintDefault)
	if err != nil {
		return nil, err
	}
	if lp.Type == TypeString || rp.Type == TypeString {
		return NewString(lp.ToString() + rp.ToString()), nil
	}
	return arithmetic("+", lp, rp)
}

func arithmetic(op string, l, r *Value) (*Value, error) {
	ln, err := ToNumeric(l)
	if err != nil {
		return nil, err
	}
	rn, err := ToNumeric(r)
	if err != nil {
		return nil, err
	}
	if ln.Type == TypeBigInt || rn.Type == TypeBigInt {
		if ln.Type != rn.Type {
			return nil, errors.TypeErrorf("Cannot mix BigInt and other types, use explicit conversions")
		}
		return bigArithmetic(op, ln.BigInt, rn.BigInt)
	}
	a, b := ln.Number, rn.Number
	switch op {
	case "+":
		return NewNumber(a + b), nil
	case "-":
		return NewNumber(a - b), nil
	case "*":
		return NewNumber(a * b), nil
	case "/":
		return NewNumber(a / b), nil
	case "%":
		if b == 0 || math.IsInf(a, 0) || math.IsNaN(a) || math.IsNaN(b) {
			return NaN, nil
		}
		if math.IsInf(b, 0) {
			return NewNumber(a), nil
		}
		return NewNumber(math.Mod(a, b)), nil
	case "**":
		if math.IsNaN(b) || ((a == 1 || a == -1) && math.IsInf(b, 0)) {
			return NaN, nil
		}
		return NewNumber(math.Pow(a, b)), nil
	case "&":
		return NewNumber(float64(ToInt32(ln) & ToInt32(rn))), nil
	case "|":
		return NewNumber(float64(ToInt32(ln) | ToInt32(rn))), nil
	case "^":
		return NewNumber(float64(ToInt32(ln) ^ ToInt32(rn))), nil
	case "<<":
		return NewNumber(float64(ToInt32(ln) << (ToUint32(rn) & 31))), nil
	case ">>":
		return NewNumber(float64(ToInt32(ln) >> (ToUint32(rn) & 31))), nil
	case ">>>":
		return NewNumber(float64(ToUint32(ln) >> (ToUint32(rn) & 31))), nil
	}
	return nil, errors.NotImplemented("binary operator %q", op)
}

func bigArithmetic(op string, a, b *big.Int) (*Value, error) {
	z := new(big.Int)
	switch op {
	case "+":
		z.Add(a, b)
	case "-":
		z.Sub(a, b)
	case "*":
		z.Mul(a, b)
	case "/":
		if b.Sign() == 0 {
			return nil, errors.RangeErrorf("Division by zero")
		}
		z.Quo(a, b)
	case "%":
		if b.Sign() == 0 {
			return nil, errors.RangeErrorf("Division by zero")
		}
		z.Rem(a, b)
	case "**":
		if b.Sign() < 0 {
			return nil, errors.RangeErrorf("Exponent must be non-negative")
		}
		z.Exp(a, b, nil)
	case "&":
		z.And(a, b)
	case "|":
		z.Or(a, b)
	case "^":
		z.Xor(a, b)
	case "<<":
		z.Lsh(a, uint(b.Uint64()))
	case ">>":
		z.Rsh(a, uint(b.Uint64()))
	case ">>>":
		return nil, errors.TypeErrorf("BigInts have no unsigned right shift, use >> instead")
	default:
		return nil, errors.NotImplemented("BigInt operator %q", op)
	}
	return NewBigInt(z), nil
}

func compare(op string, l, r *Value) (*Value, error) {
	lp, err := ToPrimitive(l, HintNumber)
	if err != nil {
		return nil, err
	}
	rp, err := ToPrimitive(r, HintNumber)
	if err != nil {
		return nil, err
	}
	var c int
	switch {
	case lp.Type == TypeString && rp.Type == TypeString:
		c = strings.Compare(lp.Str, rp.Str)
	case lp.Type == TypeBigInt || rp.Type == TypeBigInt:
		lf, rf := bigFloat(lp), bigFloat(rp)
		if lf == nil || rf == nil {
			return False, nil
		}
		c = lf.Cmp(rf)
	default:
		a, b := lp.ToNumber(), rp.ToNumber()
		if math.IsNaN(a) || math.IsNaN(b) {
			return False, nil
		}
		switch {
		case a < b:
			c = -1
		case a > b:
			c = 1
		}
	}
	switch op {
	case "<":
		return NewBool(c < 0), nil
	case ">":
		return NewBool(c > 0), nil
	case "<=":
		return NewBool(c <= 0), nil
	default:
		return NewBool(c >= 0), nil
	}
}

func bigFloat(v *Value) *big.Float {
	if v.Type == TypeBigInt {
		return new(big.Float).SetInt(v.BigInt)
	}
	n := v.ToNumber()
	if math.IsNaN(n) {
		return nil
	}
	return big.NewFloat(n)
}

func instanceOf(l, r *Value) (*Value, error) {
	if !r.IsCallable() {
		return nil, errors.TypeErrorf("Right-hand side of 'instanceof' is not callable")
	}
	if !l.IsObject() {
		return False, nil
	}
	proto, err := r.Object.GetE("prototype")
	if err != nil {
		return nil, err
	}
	if !proto.IsObject() {
		return False, nil
	}
	for p := l.Object.Prototype; p != nil; p = p.Prototype {
		if p == proto.Object {
			return True, nil
		}
	}
	return False, nil
}

// UnaryOp evaluates a prefix operator other than delete and await.
func UnaryOp(op string, v *Value) (*Value, error) {
	switch op {
	case "!":
		return NewBool(!v.ToBoolean()), nil
	case "typeof":
		return NewString(v.TypeOf()), nil
	case "void":
		return Undefined, nil
	case "+":
		if v.Type == TypeBigInt {
			return nil, errors.TypeErrorf("Cannot convert a BigInt value to a number")
		}
		return NewNumber(v.ToNumber()), nil
	case "-":
		n, err := ToNumeric(v)
		if err != nil {
			return nil, err
		}
		if n.Type == TypeBigInt {
			return NewBigInt(new(big.Int).Neg(n.BigInt)), nil
		}
		return NewNumber(-n.Number), nil
	case "~":
		n, err := ToNumeric(v)
		if err != nil {
			return nil, err
		}
		if n.Type == TypeBigInt {
			return NewBigInt(new(big.Int).Not(n.BigInt)), nil
		}
		return NewNumber(float64(^ToInt32(n))), nil
	}
	return nil, errors.NotImplemented("unary operator %q", op)
}

// Increment applies ++ (delta 1) or -- (delta -1) to a numeric value.
func Increment(v *Value, delta int64) (*Value, error) {
	n, err := ToNumeric(v)
	if err != nil {
		return nil, err
	}
	if n.Type == TypeBigInt {
		return NewBigInt(new(big.Int).Add(n.BigInt, big.NewInt(delta))), nil
	}
	return NewNumber(n.Number + float64(delta)), nil
}
