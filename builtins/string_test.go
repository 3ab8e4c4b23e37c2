package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringMethods(t *testing.T) {
	checkAll(t, []evalCase{
		{"'abc'.at(-1)", "c"},
		{"'abc'.charAt(1)", "b"},
		{"'abc'.charAt(9)", ""},
		{"'abc'.charCodeAt(0)", 97.0},
		{"'😀'.length", 2.0},
		{"'😀'.codePointAt(0)", 128512.0},
		{"'😀'.charCodeAt(1)", 56832.0},
		{"'banana'.indexOf('an')", 1.0},
		{"'banana'.indexOf('an', 2)", 3.0},
		{"'banana'.lastIndexOf('an')", 3.0},
		{"'banana'.lastIndexOf('an', 2)", 1.0},
		{"'banana'.includes('nan')", true},
		{"'banana'.startsWith('ban')", true},
		{"'banana'.startsWith('an', 1)", true},
		{"'banana'.endsWith('na')", true},
		{"'banana'.endsWith('an', 5)", true},
		{"'hello'.slice(1, -1)", "ell"},
		{"'hello'.slice(-3)", "llo"},
		{"'hello'.substring(3, 1)", "el"},
		{"'hello'.substr(-4, 2)", "el"},
		{"'Hello'.toUpperCase()", "HELLO"},
		{"'Hello'.toLowerCase()", "hello"},
		{"'  hi  '.trim()", "hi"},
		{"'  hi  '.trimStart()", "hi  "},
		{"'  hi  '.trimEnd()", "  hi"},
		{"'5'.padStart(3, '0')", "005"},
		{"'abc'.padEnd(6, '12')", "abc121"},
		{"'ab'.repeat(3)", "ababab"},
		{"'a'.concat('b', 1)", "ab1"},
		{"'a,b,,c'.split(',')", []interface{}{"a", "b", "", "c"}},
		{"'a,b,c'.split(',', 2)", []interface{}{"a", "b"}},
		{"'abc'.split('')", []interface{}{"a", "b", "c"}},
		{"'abc'.split()", []interface{}{"abc"}},
		{"'a1b22c'.split(/\\d+/)", []interface{}{"a", "b", "c"}},
		{"'a1b'.split(/(\\d)/)", []interface{}{"a", "1", "b"}},
		{"'aaa'.replace('a', 'b')", "baa"},
		{"'aaa'.replaceAll('a', 'b')", "bbb"},
		{"'john smith'.replace(/(\\w+)\\s(\\w+)/, '$2, $1')", "smith, john"},
		{"'abc'.replace(/b/, '[$&]')", "a[b]c"},
		{"'abc'.replace(/b/, \"$`$'\")", "aacc"},
		{"'a-b-c'.replace(/-/g, (m, off) => off)", "a1b3c"},
		{"'2020-01'.replace(/(?<y>\\d+)-(?<m>\\d+)/, '$<m>/$<y>')", "01/2020"},
		{"'x'.replace(/x/, '$$')", "$"},
		{"'aXbX'.match(/x/gi)", []interface{}{"X", "X"}},
		{"'abc'.match(/z/g)", nil},
		{"'abc'.match(/b(c)/)[1]", "c"},
		{"'abc'.match(/b/).index", 1.0},
		{"Array.from('a1b2'.matchAll(/\\d/g), m => m[0])", []interface{}{"1", "2"}},
		{"'abc'.search(/c/)", 2.0},
		{"'abc'.search('z')", -1.0},
		{"'a'.localeCompare('b')", -1.0},
		{"String.fromCharCode(72, 105)", "Hi"},
		{"String.fromCodePoint(128512)", "😀"},
		{"String(null)", "null"},
		{"String([1, 2])", "1,2"},
	})
}

func TestStringErrors(t *testing.T) {
	assert.Equal(t, "RangeError", evalError(t, "'a'.repeat(-1)").Kind)
	assert.Equal(t, "TypeError", evalError(t, "'a'.startsWith(/a/)").Kind)
	assert.Equal(t, "TypeError", evalError(t, "'a'.replaceAll(/a/, 'b')").Kind)
	assert.Equal(t, "TypeError", evalError(t, "'a'.matchAll(/a/)").Kind)
	assert.Equal(t, "RangeError", evalError(t, "String.fromCodePoint(-1)").Kind)
}
