package builtins

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/runtime"
)

const (
	uriUnreserved = "-_.!~*'()"
	uriReserved   = ";/?:@&=+$,#"
)

func globalFunctions() []global {
	fn := func(name string, arity int, call runtime.CallableFunc) global {
		return global{name, runtime.NewFunction(name, arity, call)}
	}
	return []global{
		fn("parseInt", 2, globalParseInt),
		fn("parseFloat", 1, globalParseFloat),
		fn("isNaN", 1, globalIsNaN),
		fn("isFinite", 1, globalIsFinite),
		fn("encodeURI", 1, uriEncoder(uriUnreserved+uriReserved)),
		fn("encodeURIComponent", 1, uriEncoder(uriUnreserved)),
		fn("decodeURI", 1, uriDecoder(uriReserved)),
		fn("decodeURIComponent", 1, uriDecoder("")),
		{"undefined", runtime.Undefined},
		{"NaN", runtime.NaN},
		{"Infinity", runtime.PosInf},
	}
}

func uriError(msg string) error {
	return &errors.EvaluationError{Kind: "URIError", Msg: msg}
}

func globalParseInt(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := toPrimitiveString(runtime.Arg(args, 0))
	if err != nil {
		return nil, err
	}
	s = strings.TrimLeftFunc(s, isSpace)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	radix := int(runtime.ToInt32(runtime.Arg(args, 1)))
	hex := len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
	switch {
	case radix == 0 && hex, radix == 16 && hex:
		radix = 16
		s = s[2:]
	case radix == 0:
		radix = 10
	case radix < 2 || radix > 36:
		return runtime.NaN, nil
	}
	end := 0
	for end < len(s) && digitValue(s[end]) < radix {
		end++
	}
	if end == 0 {
		return runtime.NaN, nil
	}
	var n float64
	if i, ok := new(big.Int).SetString(s[:end], radix); ok {
		n, _ = new(big.Float).SetInt(i).Float64()
	}
	if neg {
		n = -n
	}
	return runtime.NewNumber(n), nil
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	}
	return 36
}

func globalParseFloat(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := toPrimitiveString(runtime.Arg(args, 0))
	if err != nil {
		return nil, err
	}
	s = strings.TrimLeftFunc(s, isSpace)
	body := strings.TrimLeft(s, "+-")
	if strings.HasPrefix(body, "Infinity") && len(s)-len(body) <= 1 {
		if s[0] == '-' {
			return runtime.NegInf, nil
		}
		return runtime.PosInf, nil
	}
	end := floatPrefix(s)
	if end == 0 {
		return runtime.NaN, nil
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return runtime.NaN, nil
	}
	return runtime.NewNumber(f), nil
}

// floatPrefix is the length of the longest decimal literal at the start of
// s. It is 0 when s has no digits before any exponent.
func floatPrefix(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	end := i
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		start := i
		for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		}
		if i > start {
			end = i
		}
	}
	return end
}

func globalIsNaN(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	n, err := toNumber(runtime.Arg(args, 0))
	if err != nil {
		return nil, err
	}
	return runtime.NewBool(math.IsNaN(n)), nil
}

func globalIsFinite(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	n, err := toNumber(runtime.Arg(args, 0))
	if err != nil {
		return nil, err
	}
	return runtime.NewBool(!math.IsNaN(n) && !math.IsInf(n, 0)), nil
}

// uriEncoder percent-encodes the UTF-8 bytes of every rune outside
// alphanumerics and keep.
func uriEncoder(keep string) runtime.CallableFunc {
	return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		s, err := toPrimitiveString(runtime.Arg(args, 0))
		if err != nil {
			return nil, err
		}
		var b strings.Builder
		for i, r := range s {
			if r < utf8.RuneSelf && (isAlnum(byte(r)) || strings.IndexByte(keep, byte(r)) >= 0) {
				b.WriteRune(r)
				continue
			}
			if r == utf8.RuneError {
				if _, size := utf8.DecodeRuneInString(s[i:]); size <= 1 {
					return nil, uriError("URI malformed")
				}
			}
			var buf [utf8.UTFMax]byte
			for _, c := range buf[:utf8.EncodeRune(buf[:], r)] {
				b.WriteByte('%')
				b.WriteString(strings.ToUpper(strconv.FormatUint(uint64(c)|0x100, 16)[1:]))
			}
		}
		return runtime.NewString(b.String()), nil
	}
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// uriDecoder reverses percent-encoding. Escapes that decode to a character
// in preserve are left as written.
func uriDecoder(preserve string) runtime.CallableFunc {
	return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		s, err := toPrimitiveString(runtime.Arg(args, 0))
		if err != nil {
			return nil, err
		}
		var b strings.Builder
		for i := 0; i < len(s); {
			if s[i] != '%' {
				b.WriteByte(s[i])
				i++
				continue
			}
			c, ok := hexByte(s, i)
			if !ok {
				return nil, uriError("URI malformed")
			}
			if c < utf8.RuneSelf {
				if strings.IndexByte(preserve, c) >= 0 {
					b.WriteString(s[i : i+3])
				} else {
					b.WriteByte(c)
				}
				i += 3
				continue
			}
			// Gather the continuation bytes of a multi-byte sequence.
			seq := []byte{c}
			i += 3
			for len(seq) < utf8.UTFMax && !utf8.FullRune(seq) {
				next, ok := hexByte(s, i)
				if !ok {
					return nil, uriError("URI malformed")
				}
				seq = append(seq, next)
				i += 3
			}
			r, size := utf8.DecodeRune(seq)
			if r == utf8.RuneError || size != len(seq) {
				return nil, uriError("URI malformed")
			}
			b.WriteRune(r)
		}
		return runtime.NewString(b.String()), nil
	}
}

// hexByte decodes the %XX escape at s[i].
func hexByte(s string, i int) (byte, bool) {
	if i+2 >= len(s) || s[i] != '%' {
		return 0, false
	}
	n, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
	if err != nil {
		return 0, false
	}
	return byte(n), true
}
