package builtins

import (
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/runtime"
)

func createJSONObject() *runtime.Object {
	j := runtime.NewPlainObject()
	setMethod(j, "parse", 2, jsonParse)
	setMethod(j, "stringify", 3, jsonStringify)
	return j
}

func jsonSyntaxError(err error) error {
	return &errors.EvaluationError{Kind: "SyntaxError", Msg: "JSON.parse: " + err.Error(), Err: err}
}

func jsonParse(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	text, err := toPrimitiveString(runtime.Arg(args, 0))
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	result, err := decodeValue(dec)
	if err != nil {
		return nil, jsonSyntaxError(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, jsonSyntaxError(errors.New("unexpected data after top-level value"))
	}
	if reviver := runtime.Arg(args, 1); reviver.IsCallable() {
		root := runtime.NewPlainObject()
		root.Set("", result)
		return revive(reviver, runtime.NewObject(root), "")
	}
	return result, nil
}

// decodeValue reads one value token by token so that object keys keep
// their source order.
func decodeValue(dec *json.Decoder) (*runtime.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	switch t := tok.(type) {
	case nil:
		return runtime.Null, nil
	case bool:
		return runtime.NewBool(t), nil
	case string:
		return runtime.NewString(t), nil
	case json.Number:
		f, err := strconv.ParseFloat(string(t), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, err
		}
		return runtime.NewNumber(f), nil
	case json.Delim:
		if t == '[' {
			var elems []*runtime.Value
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				elems = append(elems, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return runtime.NewArray(elems), nil
		}
		obj := runtime.NewPlainObject()
		for dec.More() {
			key, err := dec.Token()
			if err != nil {
				return nil, err
			}
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj.Set(key.(string), v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return runtime.NewObject(obj), nil
	}
	return nil, errors.Errorf("unexpected token %v", tok)
}

// revive walks the parsed value bottom-up, replacing each property with
// what reviver returns and deleting those it maps to undefined.
func revive(reviver, holder *runtime.Value, key string) (*runtime.Value, error) {
	val := holder.Object.Get(key)
	if val.IsObject() {
		var keys []string
		if val.IsArray() {
			for i := 0; i < val.Object.Len(); i++ {
				keys = append(keys, strconv.Itoa(i))
			}
		} else {
			keys = val.Object.OwnKeys()
		}
		for _, k := range keys {
			nv, err := revive(reviver, val, k)
			if err != nil {
				return nil, err
			}
			if nv.Type == runtime.TypeUndefined && !val.IsArray() {
				val.Object.Delete(k)
				continue
			}
			if err := val.Object.SetE(k, nv); err != nil {
				return nil, err
			}
		}
	}
	return runtime.Call(reviver, holder, []*runtime.Value{runtime.NewString(key), val})
}

type stringifier struct {
	replacer *runtime.Value
	// allow lists the keys to serialize when the replacer is an array.
	allow  []string
	indent string
	stack  []*runtime.Object
}

func jsonStringify(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s := &stringifier{}
	if r := runtime.Arg(args, 1); r.IsCallable() {
		s.replacer = r
	} else if r.IsArray() {
		seen := map[string]bool{}
		for _, el := range r.Object.ArrayData {
			if el == nil || (el.Type != runtime.TypeString && el.Type != runtime.TypeNumber) {
				continue
			}
			k := el.ToString()
			if !seen[k] {
				seen[k] = true
				s.allow = append(s.allow, k)
			}
		}
		if s.allow == nil {
			s.allow = []string{}
		}
	}
	switch space := runtime.Arg(args, 2); space.Type {
	case runtime.TypeNumber:
		n := int(math.Min(10, runtime.ToIntegerOrInfinity(space)))
		if n > 0 {
			s.indent = strings.Repeat(" ", n)
		}
	case runtime.TypeString:
		s.indent = space.Str
		if len(s.indent) > 10 {
			s.indent = runtime.Substring(s.indent, 0, 10)
		}
	}

	root := runtime.NewPlainObject()
	root.Set("", runtime.Arg(args, 0))
	var b strings.Builder
	ok, err := s.property(&b, runtime.NewObject(root), "", "")
	if err != nil {
		return nil, err
	}
	if !ok {
		return runtime.Undefined, nil
	}
	return runtime.NewString(b.String()), nil
}

// property writes holder[key]. It reports false when the value has no
// JSON form, so that objects skip the key.
func (s *stringifier) property(b *strings.Builder, holder *runtime.Value, key, gap string) (bool, error) {
	val, err := holder.Object.GetE(key)
	if err != nil {
		return false, err
	}
	if val.IsObject() || val.Type == runtime.TypeBigInt {
		toJSON, err := runtime.GetProperty(val, "toJSON")
		if err != nil {
			return false, err
		}
		if toJSON.IsCallable() {
			if val, err = runtime.Call(toJSON, val, []*runtime.Value{runtime.NewString(key)}); err != nil {
				return false, err
			}
		}
	}
	if s.replacer != nil {
		if val, err = runtime.Call(s.replacer, holder, []*runtime.Value{runtime.NewString(key), val}); err != nil {
			return false, err
		}
	}

	switch val.Type {
	case runtime.TypeNull:
		b.WriteString("null")
	case runtime.TypeBoolean, runtime.TypeNumber:
		if val.Type == runtime.TypeNumber && (math.IsNaN(val.Number) || math.IsInf(val.Number, 0)) {
			b.WriteString("null")
		} else {
			b.WriteString(val.ToString())
		}
	case runtime.TypeString:
		quoteJSON(b, val.Str)
	case runtime.TypeBigInt:
		return false, errors.TypeErrorf("Do not know how to serialize a BigInt")
	case runtime.TypeObject:
		if val.IsCallable() {
			return false, nil
		}
		return true, s.object(b, val, gap)
	default:
		return false, nil
	}
	return true, nil
}

func (s *stringifier) object(b *strings.Builder, val *runtime.Value, gap string) error {
	for _, o := range s.stack {
		if o == val.Object {
			return errors.TypeErrorf("Converting circular structure to JSON")
		}
	}
	s.stack = append(s.stack, val.Object)
	defer func() { s.stack = s.stack[:len(s.stack)-1] }()

	inner := gap + s.indent
	lbrace, rbrace := "{", "}"
	var keys []string
	if val.IsArray() {
		lbrace, rbrace = "[", "]"
		for i := 0; i < val.Object.Len(); i++ {
			keys = append(keys, strconv.Itoa(i))
		}
	} else if s.allow != nil {
		keys = s.allow
	} else {
		keys = val.Object.OwnKeys()
	}

	b.WriteString(lbrace)
	n := 0
	for _, k := range keys {
		var item strings.Builder
		ok, err := s.property(&item, val, k, inner)
		if err != nil {
			return err
		}
		if !ok {
			if !val.IsArray() {
				continue
			}
			item.WriteString("null")
		}
		if n > 0 {
			b.WriteByte(',')
		}
		if s.indent != "" {
			b.WriteString("\n" + inner)
		}
		if !val.IsArray() {
			quoteJSON(b, k)
			b.WriteByte(':')
			if s.indent != "" {
				b.WriteByte(' ')
			}
		}
		b.WriteString(item.String())
		n++
	}
	if n > 0 && s.indent != "" {
		b.WriteString("\n" + gap)
	}
	b.WriteString(rbrace)
	return nil
}

// quoteJSON writes s as a JSON string literal. Unlike encoding/json it
// leaves <, > and & alone.
func quoteJSON(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				b.WriteString(`\u00`)
				b.WriteString(strconv.FormatUint(uint64(r)|0x100, 16)[1:])
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}
