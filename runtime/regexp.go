package runtime

import (
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/example/jsexpr/errors"
)

// RegExp is the compiled state behind a regular expression object.
type RegExp struct {
	Source string
	Flags  string
	Re     *regexp2.Regexp
}

// Global reports the g flag.
func (r *RegExp) Global() bool { return strings.Contains(r.Flags, "g") }

// Sticky reports the y flag.
func (r *RegExp) Sticky() bool { return strings.Contains(r.Flags, "y") }

const regexpFlags = "dgimsuy"

// NewRegExp compiles pattern with ECMAScript semantics.
func NewRegExp(pattern, flags string) (*Value, error) {
	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	for i, f := range flags {
		if !strings.ContainsRune(regexpFlags, f) || strings.ContainsRune(flags[i+1:], f) {
			return nil, &errors.EvaluationError{Kind: "SyntaxError", Msg: "Invalid regular expression flags '" + flags + "'"}
		}
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's', 'u':
			// ECMAScript mode only combines with i and m, and rejects the
			// \p classes unicode mode allows.
			opts &^= regexp2.ECMAScript
			if f == 's' {
				opts |= regexp2.Singleline
			}
		}
	}
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, &errors.EvaluationError{Kind: "SyntaxError", Msg: "Invalid regular expression: /" + pattern + "/: " + err.Error()}
	}
	obj := NewOrdinaryObject(RegExpPrototype)
	obj.Kind = KindRegExp
	obj.Internal = &RegExp{Source: pattern, Flags: flags, Re: re}
	obj.DefineHidden("source", NewString(pattern))
	obj.DefineHidden("flags", NewString(flags))
	obj.DefineHidden("global", NewBool(strings.Contains(flags, "g")))
	obj.DefineHidden("ignoreCase", NewBool(strings.Contains(flags, "i")))
	obj.DefineHidden("multiline", NewBool(strings.Contains(flags, "m")))
	obj.DefineProperty("lastIndex", &Property{Value: Zero, Writable: true})
	return NewObject(obj), nil
}

// AsRegExp unwraps a regular expression object.
func AsRegExp(v *Value) (*RegExp, bool) {
	if !v.IsObject() || v.Object.Kind != KindRegExp {
		return nil, false
	}
	r, ok := v.Object.Internal.(*RegExp)
	return r, ok
}
