package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/runtime"
)

func TestFunctionPrototype(t *testing.T) {
	checkAll(t, []evalCase{
		{"function f(a, b) { return this.x + a + b } f.call({x: 1}, 2, 3)", 6.0},
		{"function f(a, b) { return this.x + a + b } f.apply({x: 1}, [2, 3])", 6.0},
		{"function f(a, b) { return this.x + a + b } var g = f.bind({x: 1}, 2); g(3)", 6.0},
		{"function f(a, b) {} f.bind(null, 1).length", 1.0},
		{"function add(a, b) {} add.bind(null).name", "bound add"},
		{"function f() {} f.name", "f"},
		{"Math.max.toString()", "function max() { [native code] }"},
		{"function Point(x) { this.x = x } var B = Point.bind(null, 4); new B().x", 4.0},
	})
	assert.Equal(t, "TypeError", evalError(t, "Function.prototype.call.call(1)").Kind)
}

func TestFunctionConstructorNotImplemented(t *testing.T) {
	_, err := run("Function('return 1')")
	assert.True(t, errors.Is(err, errors.ErrNotImplemented), "%v", err)
}

func TestArrayLike(t *testing.T) {
	obj := runtime.NewPlainObject()
	obj.Set("length", runtime.NewNumber(2))
	obj.Set("0", runtime.NewString("a"))
	items, err := arrayLike(obj)
	assert.NoError(t, err)
	assert.Equal(t, []interface{}{"a", nil}, runtime.Export(runtime.NewArray(items)))
}
