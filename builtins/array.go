package builtins

import (
	"math"
	"sort"
	"strings"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/runtime"
)

func createArrayConstructor() *runtime.Object {
	proto := runtime.ArrayPrototype
	setMethod(proto, "at", 1, arrayAt)
	setMethod(proto, "push", 1, arrayPush)
	setMethod(proto, "pop", 0, arrayPop)
	setMethod(proto, "shift", 0, arrayShift)
	setMethod(proto, "unshift", 1, arrayUnshift)
	setMethod(proto, "splice", 2, arraySplice)
	setMethod(proto, "slice", 2, arraySlice)
	setMethod(proto, "concat", 1, arrayConcat)
	setMethod(proto, "indexOf", 1, arrayIndexOf)
	setMethod(proto, "lastIndexOf", 1, arrayLastIndexOf)
	setMethod(proto, "includes", 1, arrayIncludes)
	setMethod(proto, "find", 1, arrayFind)
	setMethod(proto, "findIndex", 1, arrayFindIndex)
	setMethod(proto, "findLast", 1, arrayFindLast)
	setMethod(proto, "findLastIndex", 1, arrayFindLastIndex)
	setMethod(proto, "forEach", 1, arrayForEach)
	setMethod(proto, "map", 1, arrayMap)
	setMethod(proto, "filter", 1, arrayFilter)
	setMethod(proto, "reduce", 1, arrayReduce)
	setMethod(proto, "reduceRight", 1, arrayReduceRight)
	setMethod(proto, "every", 1, arrayEvery)
	setMethod(proto, "some", 1, arraySome)
	setMethod(proto, "sort", 1, arraySort)
	setMethod(proto, "reverse", 0, arrayReverse)
	setMethod(proto, "fill", 1, arrayFill)
	setMethod(proto, "join", 1, arrayJoin)
	setMethod(proto, "toString", 0, arrayToString)
	setMethod(proto, "keys", 0, arrayKeys)
	setMethod(proto, "values", 0, arrayValues)
	setMethod(proto, "entries", 0, arrayEntries)
	setMethod(proto, "flat", 0, arrayFlat)
	setMethod(proto, "flatMap", 1, arrayFlatMap)

	ctor := newConstructor("Array", 1, proto, arrayConstructorCall, arrayConstructorCall)
	setMethod(ctor, "isArray", 1, arrayIsArray)
	setMethod(ctor, "from", 1, arrayFrom)
	setMethod(ctor, "of", 0, arrayOf)
	return ctor
}

func thisArray(this *runtime.Value, method string) (*runtime.Object, error) {
	if !this.IsArray() {
		return nil, errors.TypeErrorf("Array.prototype.%s called on %s", method, runtime.Inspect(this))
	}
	return this.Object, nil
}

// elem reads arr[i], mapping holes and out-of-range reads to undefined.
func elem(arr *runtime.Object, i int) *runtime.Value {
	if i < 0 || i >= len(arr.ArrayData) || arr.ArrayData[i] == nil {
		return runtime.Undefined
	}
	return arr.ArrayData[i]
}

func arrayConstructorCall(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	if len(args) == 1 && args[0].Type == runtime.TypeNumber {
		n := args[0].Number
		if n < 0 || !isIntegral(n) || n > math.MaxUint32 {
			return nil, errors.RangeErrorf("Invalid array length")
		}
		data := make([]*runtime.Value, int(n))
		for i := range data {
			data[i] = runtime.Undefined
		}
		return runtime.NewArray(data), nil
	}
	return runtime.NewArray(append([]*runtime.Value(nil), args...)), nil
}

func arrayIsArray(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	return runtime.NewBool(runtime.Arg(args, 0).IsArray()), nil
}

func arrayFrom(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	src := runtime.Arg(args, 0)
	if src.IsNullish() {
		return nil, errors.TypeErrorf("%s is not iterable", src.ToString())
	}
	items, err := runtime.Collect(src)
	if err != nil {
		if !src.IsObject() {
			return nil, err
		}
		// Array-likes such as { length: 2, 0: 'a', 1: 'b' }.
		if items, err = arrayLike(src.Object); err != nil {
			return nil, err
		}
	}
	mapFn := runtime.Arg(args, 1)
	if mapFn.Type == runtime.TypeUndefined {
		return runtime.NewArray(items), nil
	}
	if !mapFn.IsCallable() {
		return nil, errors.TypeErrorf("%s is not a function", runtime.Inspect(mapFn))
	}
	for i, v := range items {
		if items[i], err = runtime.Call(mapFn, runtime.Arg(args, 2), []*runtime.Value{v, runtime.NewNumber(float64(i))}); err != nil {
			return nil, err
		}
	}
	return runtime.NewArray(items), nil
}

func arrayOf(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	return runtime.NewArray(append([]*runtime.Value(nil), args...)), nil
}

func arrayAt(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	arr, err := thisArray(this, "at")
	if err != nil {
		return nil, err
	}
	i := int(runtime.ToIntegerOrInfinity(runtime.Arg(args, 0)))
	if i < 0 {
		i += len(arr.ArrayData)
	}
	return elem(arr, i), nil
}

func arrayPush(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	arr, err := thisArray(this, "push")
	if err != nil {
		return nil, err
	}
	arr.ArrayData = append(arr.ArrayData, args...)
	return runtime.NewNumber(float64(len(arr.ArrayData))), nil
}

func arrayPop(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	arr, err := thisArray(this, "pop")
	if err != nil {
		return nil, err
	}
	n := len(arr.ArrayData)
	if n == 0 {
		return runtime.Undefined, nil
	}
	last := elem(arr, n-1)
	arr.ArrayData = arr.ArrayData[:n-1]
	return last, nil
}

func arrayShift(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	arr, err := thisArray(this, "shift")
	if err != nil {
		return nil, err
	}
	if len(arr.ArrayData) == 0 {
		return runtime.Undefined, nil
	}
	first := elem(arr, 0)
	arr.ArrayData = append(arr.ArrayData[:0:0], arr.ArrayData[1:]...)
	return first, nil
}

func arrayUnshift(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	arr, err := thisArray(this, "unshift")
	if err != nil {
		return nil, err
	}
	arr.ArrayData = append(append([]*runtime.Value(nil), args...), arr.ArrayData...)
	return runtime.NewNumber(float64(len(arr.ArrayData))), nil
}

func arraySplice(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	arr, err := thisArray(this, "splice")
	if err != nil {
		return nil, err
	}
	n := len(arr.ArrayData)
	start := relativeIndex(runtime.Arg(args, 0), n, 0)
	count := n - start
	switch {
	case len(args) == 0:
		count = 0
	case len(args) > 1:
		c := runtime.ToIntegerOrInfinity(args[1])
		if c < 0 {
			c = 0
		}
		if c < float64(count) {
			count = int(c)
		}
	}
	var insert []*runtime.Value
	if len(args) > 2 {
		insert = args[2:]
	}
	removed := append([]*runtime.Value(nil), arr.ArrayData[start:start+count]...)
	data := make([]*runtime.Value, 0, n-count+len(insert))
	data = append(data, arr.ArrayData[:start]...)
	data = append(data, insert...)
	data = append(data, arr.ArrayData[start+count:]...)
	arr.ArrayData = data
	return runtime.NewArray(removed), nil
}

func arraySlice(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	arr, err := thisArray(this, "slice")
	if err != nil {
		return nil, err
	}
	n := len(arr.ArrayData)
	start := relativeIndex(runtime.Arg(args, 0), n, 0)
	end := relativeIndex(runtime.Arg(args, 1), n, n)
	if start >= end {
		return runtime.NewArray(nil), nil
	}
	return runtime.NewArray(append([]*runtime.Value(nil), arr.ArrayData[start:end]...)), nil
}

func arrayConcat(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	arr, err := thisArray(this, "concat")
	if err != nil {
		return nil, err
	}
	out := append([]*runtime.Value(nil), arr.ArrayData...)
	for _, a := range args {
		if a.IsArray() {
			out = append(out, a.Object.ArrayData...)
		} else {
			out = append(out, a)
		}
	}
	return runtime.NewArray(out), nil
}

func arrayIndexOf(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	arr, err := thisArray(this, "indexOf")
	if err != nil {
		return nil, err
	}
	target := runtime.Arg(args, 0)
	for i := relativeIndex(runtime.Arg(args, 1), len(arr.ArrayData), 0); i < len(arr.ArrayData); i++ {
		if runtime.StrictEquals(elem(arr, i), target) {
			return runtime.NewNumber(float64(i)), nil
		}
	}
	return runtime.NewNumber(-1), nil
}

func arrayLastIndexOf(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	arr, err := thisArray(this, "lastIndexOf")
	if err != nil {
		return nil, err
	}
	n := len(arr.ArrayData)
	from := n - 1
	if len(args) > 1 {
		f := runtime.ToIntegerOrInfinity(args[1])
		if f < 0 {
			f += float64(n)
		}
		if f < float64(from) {
			from = int(f)
		}
	}
	target := runtime.Arg(args, 0)
	for i := from; i >= 0; i-- {
		if runtime.StrictEquals(elem(arr, i), target) {
			return runtime.NewNumber(float64(i)), nil
		}
	}
	return runtime.NewNumber(-1), nil
}

func arrayIncludes(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	arr, err := thisArray(this, "includes")
	if err != nil {
		return nil, err
	}
	target := runtime.Arg(args, 0)
	for i := relativeIndex(runtime.Arg(args, 1), len(arr.ArrayData), 0); i < len(arr.ArrayData); i++ {
		if runtime.SameValueZero(elem(arr, i), target) {
			return runtime.True, nil
		}
	}
	return runtime.False, nil
}

// visit calls fn(element, index, array) for each index present when the
// walk started, front to back or back to front, until stop returns true.
func visit(this *runtime.Value, args []*runtime.Value, method string, reverse bool, stop func(i int, el, res *runtime.Value) bool) error {
	arr, err := thisArray(this, method)
	if err != nil {
		return err
	}
	fn, err := callback(args, 0)
	if err != nil {
		return err
	}
	thisArg := runtime.Arg(args, 1)
	n := len(arr.ArrayData)
	for k := 0; k < n; k++ {
		i := k
		if reverse {
			i = n - 1 - k
		}
		el := elem(arr, i)
		res, err := runtime.Call(fn, thisArg, []*runtime.Value{el, runtime.NewNumber(float64(i)), this})
		if err != nil {
			return err
		}
		if stop(i, el, res) {
			return nil
		}
	}
	return nil
}

func findWith(this *runtime.Value, args []*runtime.Value, method string, reverse, index bool) (*runtime.Value, error) {
	var found *runtime.Value
	err := visit(this, args, method, reverse, func(i int, el, res *runtime.Value) bool {
		if !res.ToBoolean() {
			return false
		}
		found = el
		if index {
			found = runtime.NewNumber(float64(i))
		}
		return true
	})
	switch {
	case err != nil:
		return nil, err
	case found != nil:
		return found, nil
	case index:
		return runtime.NewNumber(-1), nil
	}
	return runtime.Undefined, nil
}

func arrayFind(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	return findWith(this, args, "find", false, false)
}

func arrayFindIndex(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	return findWith(this, args, "findIndex", false, true)
}

func arrayFindLast(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	return findWith(this, args, "findLast", true, false)
}

func arrayFindLastIndex(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	return findWith(this, args, "findLastIndex", true, true)
}

func arrayForEach(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	err := visit(this, args, "forEach", false, func(int, *runtime.Value, *runtime.Value) bool { return false })
	if err != nil {
		return nil, err
	}
	return runtime.Undefined, nil
}

func arrayMap(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	var out []*runtime.Value
	err := visit(this, args, "map", false, func(_ int, _, res *runtime.Value) bool {
		out = append(out, res)
		return false
	})
	if err != nil {
		return nil, err
	}
	return runtime.NewArray(out), nil
}

func arrayFilter(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	var out []*runtime.Value
	err := visit(this, args, "filter", false, func(_ int, el, res *runtime.Value) bool {
		if res.ToBoolean() {
			out = append(out, el)
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	return runtime.NewArray(out), nil
}

func arrayEvery(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	all := true
	err := visit(this, args, "every", false, func(_ int, _, res *runtime.Value) bool {
		all = res.ToBoolean()
		return !all
	})
	if err != nil {
		return nil, err
	}
	return runtime.NewBool(all), nil
}

func arraySome(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	found := false
	err := visit(this, args, "some", false, func(_ int, _, res *runtime.Value) bool {
		found = res.ToBoolean()
		return found
	})
	if err != nil {
		return nil, err
	}
	return runtime.NewBool(found), nil
}

func reduceWith(this *runtime.Value, args []*runtime.Value, method string, reverse bool) (*runtime.Value, error) {
	arr, err := thisArray(this, method)
	if err != nil {
		return nil, err
	}
	fn, err := callback(args, 0)
	if err != nil {
		return nil, err
	}
	n := len(arr.ArrayData)
	order := make([]int, n)
	for k := range order {
		order[k] = k
		if reverse {
			order[k] = n - 1 - k
		}
	}
	var acc *runtime.Value
	if len(args) > 1 {
		acc = args[1]
	} else {
		if n == 0 {
			return nil, errors.TypeErrorf("Reduce of empty array with no initial value")
		}
		acc = elem(arr, order[0])
		order = order[1:]
	}
	for _, i := range order {
		acc, err = runtime.Call(fn, runtime.Undefined, []*runtime.Value{acc, elem(arr, i), runtime.NewNumber(float64(i)), this})
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func arrayReduce(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	return reduceWith(this, args, "reduce", false)
}

func arrayReduceRight(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	return reduceWith(this, args, "reduceRight", true)
}

// arraySort sorts in place. Undefined sorts last and never reaches the
// comparator. Without one, elements compare as strings.
func arraySort(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	arr, err := thisArray(this, "sort")
	if err != nil {
		return nil, err
	}
	cmp := runtime.Arg(args, 0)
	if cmp.Type != runtime.TypeUndefined && !cmp.IsCallable() {
		return nil, errors.TypeErrorf("The comparison function must be either a function or undefined")
	}
	var defined, undefined []*runtime.Value
	for i := range arr.ArrayData {
		if el := elem(arr, i); el.Type == runtime.TypeUndefined {
			undefined = append(undefined, el)
		} else {
			defined = append(defined, el)
		}
	}
	var sortErr error
	sort.SliceStable(defined, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		a, b := defined[i], defined[j]
		if cmp.IsCallable() {
			res, err := runtime.Call(cmp, runtime.Undefined, []*runtime.Value{a, b})
			if err != nil {
				sortErr = err
				return false
			}
			return res.ToNumber() < 0
		}
		as, err := toPrimitiveString(a)
		if err != nil {
			sortErr = err
			return false
		}
		bs, err := toPrimitiveString(b)
		if err != nil {
			sortErr = err
			return false
		}
		return lessUTF16(as, bs)
	})
	if sortErr != nil {
		return nil, sortErr
	}
	arr.ArrayData = append(defined, undefined...)
	return this, nil
}

// lessUTF16 orders strings by UTF-16 code units, as script comparison does.
func lessUTF16(a, b string) bool {
	ua, ub := units(a), units(b)
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			return ua[i] < ub[i]
		}
	}
	return len(ua) < len(ub)
}

func arrayReverse(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	arr, err := thisArray(this, "reverse")
	if err != nil {
		return nil, err
	}
	d := arr.ArrayData
	for i, j := 0, len(d)-1; i < j; i, j = i+1, j-1 {
		d[i], d[j] = d[j], d[i]
	}
	return this, nil
}

func arrayFill(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	arr, err := thisArray(this, "fill")
	if err != nil {
		return nil, err
	}
	n := len(arr.ArrayData)
	v := runtime.Arg(args, 0)
	end := relativeIndex(runtime.Arg(args, 2), n, n)
	for i := relativeIndex(runtime.Arg(args, 1), n, 0); i < end; i++ {
		arr.ArrayData[i] = v
	}
	return this, nil
}

func join(arr *runtime.Object, sep string) (string, error) {
	parts := make([]string, len(arr.ArrayData))
	for i := range arr.ArrayData {
		el := elem(arr, i)
		if el.IsNullish() {
			continue
		}
		s, err := toPrimitiveString(el)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, sep), nil
}

func arrayJoin(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	arr, err := thisArray(this, "join")
	if err != nil {
		return nil, err
	}
	sep := ","
	if s := runtime.Arg(args, 0); s.Type != runtime.TypeUndefined {
		if sep, err = toPrimitiveString(s); err != nil {
			return nil, err
		}
	}
	out, err := join(arr, sep)
	if err != nil {
		return nil, err
	}
	return runtime.NewString(out), nil
}

func arrayToString(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	if !this.IsArray() {
		return objectProtoToString(this, args)
	}
	out, err := join(this.Object, ",")
	if err != nil {
		return nil, err
	}
	return runtime.NewString(out), nil
}

// arrayIterator walks arr lazily, so elements pushed during iteration are
// visited.
func arrayIterator(this *runtime.Value, method string, item func(i int, el *runtime.Value) *runtime.Value) (*runtime.Value, error) {
	arr, err := thisArray(this, method)
	if err != nil {
		return nil, err
	}
	i := 0
	return runtime.NewIterator(func() (*runtime.Value, bool) {
		if i >= len(arr.ArrayData) {
			return nil, false
		}
		v := item(i, elem(arr, i))
		i++
		return v, true
	}), nil
}

func arrayKeys(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	return arrayIterator(this, "keys", func(i int, _ *runtime.Value) *runtime.Value {
		return runtime.NewNumber(float64(i))
	})
}

func arrayValues(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	return arrayIterator(this, "values", func(_ int, el *runtime.Value) *runtime.Value {
		return el
	})
}

func arrayEntries(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	return arrayIterator(this, "entries", func(i int, el *runtime.Value) *runtime.Value {
		return runtime.NewArray([]*runtime.Value{runtime.NewNumber(float64(i)), el})
	})
}

func flatten(data []*runtime.Value, depth float64) []*runtime.Value {
	var out []*runtime.Value
	for _, el := range data {
		if el.IsArray() && depth >= 1 {
			out = append(out, flatten(el.Object.ArrayData, depth-1)...)
			continue
		}
		if el == nil {
			el = runtime.Undefined
		}
		out = append(out, el)
	}
	return out
}

func arrayFlat(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	arr, err := thisArray(this, "flat")
	if err != nil {
		return nil, err
	}
	depth := 1.0
	if d := runtime.Arg(args, 0); d.Type != runtime.TypeUndefined {
		depth = runtime.ToIntegerOrInfinity(d)
	}
	return runtime.NewArray(flatten(arr.ArrayData, depth)), nil
}

func arrayFlatMap(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	mapped, err := arrayMap(this, args)
	if err != nil {
		return nil, err
	}
	return runtime.NewArray(flatten(mapped.Object.ArrayData, 1)), nil
}
