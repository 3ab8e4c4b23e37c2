package runtime

import (
	"fmt"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// FromGo converts a host value into a script value. Maps with string keys
// and structs become objects, slices and arrays become arrays. Values that
// are already *Value or *Object pass through unchanged.
func FromGo(x interface{}) *Value {
	switch t := x.(type) {
	case nil:
		return Null
	case *Value:
		if t == nil {
			return Undefined
		}
		return t
	case *Object:
		return NewObject(t)
	case CallableFunc:
		return NewFunction("", 0, t)
	case func(this *Value, args []*Value) (*Value, error):
		return NewFunction("", 0, t)
	case bool:
		return NewBool(t)
	case string:
		return NewString(t)
	case float64:
		return NewNumber(t)
	case float32:
		return NewNumber(float64(t))
	case int:
		return NewNumber(float64(t))
	case int64:
		return NewNumber(float64(t))
	case int32:
		return NewNumber(float64(t))
	case uint:
		return NewNumber(float64(t))
	case uint64:
		return NewNumber(float64(t))
	case uint32:
		return NewNumber(float64(t))
	case *big.Int:
		return NewBigInt(t)
	case *Future:
		return NewFutureValue(t)
	case []interface{}:
		els := make([]*Value, len(t))
		for i, el := range t {
			els[i] = FromGo(el)
		}
		return NewArray(els)
	case map[string]interface{}:
		obj := NewPlainObject()
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			obj.Set(k, FromGo(t[k]))
		}
		return NewObject(obj)
	}
	return fromReflect(reflect.ValueOf(x))
}

func fromReflect(rv reflect.Value) *Value {
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return Null
		}
		return FromGo(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NewNumber(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return NewNumber(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return NewNumber(rv.Float())
	case reflect.Bool:
		return NewBool(rv.Bool())
	case reflect.String:
		return NewString(rv.String())
	case reflect.Slice, reflect.Array:
		els := make([]*Value, rv.Len())
		for i := range els {
			els[i] = FromGo(rv.Index(i).Interface())
		}
		return NewArray(els)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		obj := NewPlainObject()
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, k := range keys {
			obj.Set(k.String(), FromGo(rv.MapIndex(k).Interface()))
		}
		return NewObject(obj)
	case reflect.Struct:
		obj := NewPlainObject()
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			f := rt.Field(i)
			if f.PkgPath != "" {
				continue
			}
			name := f.Name
			if tag, ok := f.Tag.Lookup("json"); ok {
				tagName := strings.Split(tag, ",")[0]
				if tagName == "-" {
					continue
				}
				if tagName != "" {
					name = tagName
				}
			}
			obj.Set(name, FromGo(rv.Field(i).Interface()))
		}
		return NewObject(obj)
	}
	return Undefined
}

// Export converts a script value into plain Go data: nil, bool, float64,
// string, *big.Int, []interface{} and map[string]interface{}. Functions and
// other exotic objects are returned as *Value.
func Export(v *Value) interface{} {
	if v == nil {
		return nil
	}
	switch v.Type {
	case TypeUndefined, TypeNull:
		return nil
	case TypeBoolean:
		return v.Bool
	case TypeNumber:
		return v.Number
	case TypeString:
		return v.Str
	case TypeBigInt:
		return v.BigInt
	}
	switch v.Object.Kind {
	case KindArray:
		out := make([]interface{}, len(v.Object.ArrayData))
		for i, el := range v.Object.ArrayData {
			out[i] = Export(el)
		}
		return out
	case KindOrdinary, KindError:
		out := make(map[string]interface{})
		for _, k := range v.Object.OwnKeys() {
			out[k] = Export(v.Object.Get(k))
		}
		return out
	}
	return v
}

// Inspect renders a value for diagnostics, quoting strings inside containers.
func Inspect(v *Value) string {
	var b strings.Builder
	inspect(&b, v, 0, map[*Object]bool{})
	return b.String()
}

func inspect(b *strings.Builder, v *Value, depth int, seen map[*Object]bool) {
	if v == nil {
		b.WriteString("undefined")
		return
	}
	switch v.Type {
	case TypeString:
		if depth == 0 {
			b.WriteString(v.Str)
		} else {
			b.WriteString(strconv.Quote(v.Str))
		}
		return
	case TypeBigInt:
		b.WriteString(v.BigInt.String() + "n")
		return
	case TypeObject:
	default:
		b.WriteString(v.ToString())
		return
	}
	obj := v.Object
	if seen[obj] {
		b.WriteString("[Circular]")
		return
	}
	seen[obj] = true
	defer delete(seen, obj)
	switch obj.Kind {
	case KindArray:
		b.WriteString("[")
		for i, el := range obj.ArrayData {
			if i > 0 {
				b.WriteString(", ")
			}
			inspect(b, el, depth+1, seen)
		}
		b.WriteString("]")
	case KindFunction:
		fmt.Fprintf(b, "[Function: %s]", obj.Get("name").ToString())
	case KindError:
		b.WriteString(ErrorString(obj))
	case KindRegExp:
		b.WriteString("/" + obj.Get("source").ToString() + "/" + obj.Get("flags").ToString())
	case KindFuture:
		b.WriteString("Promise { ")
		if f, ok := obj.Internal.(*Future); ok {
			b.WriteString(f.State().String())
		}
		b.WriteString(" }")
	default:
		keys := obj.OwnKeys()
		if len(keys) == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{ ")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteString(": ")
			inspect(b, obj.Get(k), depth+1, seen)
		}
		b.WriteString(" }")
	}
}
