// Package builtins provides the host globals visible to evaluated code:
// Object, Array, String, Number, Boolean, the Error constructors, RegExp,
// Promise, Math, JSON, console and the global functions.
package builtins

import (
	"sync"

	"go.uber.org/zap"

	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/runtime"
)

type global struct {
	name  string
	value *runtime.Value
}

var (
	setupOnce  sync.Once
	intrinsics []global
)

// setup fills the shared prototypes and builds the constructors. The
// prototypes are process-wide, so this runs once.
func setup() {
	add := func(name string, obj *runtime.Object) {
		intrinsics = append(intrinsics, global{name, runtime.NewObject(obj)})
	}
	add("Object", createObjectConstructor())
	add("Function", createFunctionConstructor())
	add("Array", createArrayConstructor())
	add("String", createStringConstructor())
	add("Number", createNumberConstructor())
	add("Boolean", createBooleanConstructor())
	add("Error", createErrorConstructor())
	for _, kind := range errorKinds {
		add(kind, createErrorSubtype(kind))
	}
	add("RegExp", createRegExpConstructor())
	add("Promise", createPromiseConstructor())
	add("Math", createMathObject())
	add("JSON", createJSONObject())
	intrinsics = append(intrinsics, globalFunctions()...)
}

// Install declares the globals on scope. console writes to logger; a nil
// logger discards the output.
func Install(scope runtime.Scope, logger *zap.SugaredLogger) error {
	setupOnce.Do(setup)
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	globals := append([]global{
		{"console", runtime.NewObject(createConsoleObject(logger))},
		{"globalThis", runtime.NewObject(scope.Context())},
	}, intrinsics...)
	for _, g := range globals {
		if err := scope.Declare(g.name, runtime.DeclVar, g.value); err != nil {
			return errors.Wrapf(err, "declaring %s", g.name)
		}
	}
	return nil
}

// Globals returns a new function scope holding the globals.
func Globals(logger *zap.SugaredLogger) *runtime.BaseScope {
	scope := runtime.Scopes.FunctionScope()
	if err := Install(scope, logger); err != nil {
		// A fresh scope has no lexical bindings to collide with.
		panic(err)
	}
	return scope
}

// Names lists the globals Install declares.
func Names() []string {
	setupOnce.Do(setup)
	names := []string{"console", "globalThis"}
	for _, g := range intrinsics {
		names = append(names, g.name)
	}
	return names
}
