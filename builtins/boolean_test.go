package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/jsexpr/runtime"
)

func TestBooleanConstructor(t *testing.T) {
	tests := []struct {
		arg  *runtime.Value
		want bool
	}{
		{runtime.Undefined, false},
		{runtime.NewNumber(0), false},
		{runtime.NewNumber(1), true},
		{runtime.NewString(""), false},
		{runtime.NewString("false"), true},
		{runtime.NewObject(runtime.NewPlainObject()), true},
	}
	for _, tt := range tests {
		v, err := booleanConstructorCall(runtime.Undefined, []*runtime.Value{tt.arg})
		assert.NoError(t, err)
		assert.Equal(t, tt.want, v.Bool, runtime.Inspect(tt.arg))
	}
}

func TestBooleanPrototype(t *testing.T) {
	checkAll(t, []evalCase{
		{"true.toString()", "true"},
		{"false.valueOf()", false},
		{"Boolean('')", false},
	})
	_, err := booleanToString(runtime.NewNumber(1), nil)
	assert.Error(t, err)
}
