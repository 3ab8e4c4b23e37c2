// Package engine ties the parser, the runtime and the builtins together
// behind one configured entry point with a parse cache.
package engine

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"github.com/example/jsexpr/ast"
	"github.com/example/jsexpr/builtins"
	"github.com/example/jsexpr/config"
	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/parser"
	"github.com/example/jsexpr/runtime"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. Script console output goes to it too.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// Engine parses and evaluates source text. Parsed trees are immutable and
// cached by source, so an Engine may be shared between goroutines; the
// stacks it hands out may not.
type Engine struct {
	cfg   config.Config
	log   *zap.Logger
	cache *lru.Cache
	opts  []parser.Option
}

// New creates an engine. A zero cache size disables caching.
func New(cfg config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid engine config")
	}
	e := &Engine{
		cfg:  cfg,
		log:  zap.NewNop(),
		opts: []parser.Option{parser.WithConstantFolding(cfg.Parser.FoldConstants)},
	}
	for _, opt := range opts {
		opt(e)
	}
	if cfg.Cache.Size > 0 {
		c, err := lru.New(cfg.Cache.Size)
		if err != nil {
			return nil, errors.Wrap(err, "creating parse cache")
		}
		e.cache = c
	}
	return e, nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// Logger returns the engine logger.
func (e *Engine) Logger() *zap.Logger {
	return e.log
}

type cacheKey struct {
	mode string
	src  string
}

func (e *Engine) cached(mode, src string, parse func() (ast.Node, error)) (ast.Node, error) {
	key := cacheKey{mode, src}
	if e.cache != nil {
		if n, ok := e.cache.Get(key); ok {
			e.log.Debug("parse cache hit", zap.String("mode", mode), zap.Int("bytes", len(src)))
			return n.(ast.Node), nil
		}
	}
	n, err := parse()
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.log.Debug("parse cache miss", zap.String("mode", mode), zap.Int("bytes", len(src)))
		e.cache.Add(key, n)
	}
	return n, nil
}

// Parse parses src as a single expression.
func (e *Engine) Parse(src string) (ast.Node, error) {
	return e.cached("expression", src, func() (ast.Node, error) {
		return parser.Parse(src, e.opts...)
	})
}

// ParseProgram parses src as a statement list.
func (e *Engine) ParseProgram(src string) (*ast.Program, error) {
	n, err := e.cached("program", src, func() (ast.Node, error) {
		return parser.ParseProgram(src, e.opts...)
	})
	if err != nil {
		return nil, err
	}
	return n.(*ast.Program), nil
}

// Compile parses src as an expression when it is one and as a program
// otherwise. A syntax error reports the program parse.
func (e *Engine) Compile(src string) (ast.Node, error) {
	return e.cached("compile", src, func() (ast.Node, error) {
		if n, err := parser.Parse(src, e.opts...); err == nil {
			return n, nil
		}
		return parser.ParseProgram(src, e.opts...)
	})
}

// Add stores a tree compiled elsewhere, such as one read from a bundle,
// so that Compile(src) returns it.
func (e *Engine) Add(src string, n ast.Node) {
	if e.cache != nil {
		e.cache.Add(cacheKey{"compile", src}, n)
	}
}

func (e *Engine) globals() []runtime.Scope {
	if !e.cfg.Globals {
		return nil
	}
	return []runtime.Scope{builtins.Globals(e.log.Sugar().Named("console"))}
}

// NewStack returns a stack of the globals scope, when enabled, and a scope
// over data, the host values visible to scripts by name.
func (e *Engine) NewStack(data interface{}) *runtime.Stack {
	return runtime.NewStack(append(e.globals(), runtime.Scopes.For(data))...)
}

// NewReactiveStack is NewStack with a reactive data scope, so that
// subscribers see writes made by evaluated code.
func (e *Engine) NewReactiveStack(data interface{}) (*runtime.Stack, *runtime.ReactiveScope) {
	rs := runtime.Scopes.ReactiveScopeFor(data)
	return runtime.NewStack(append(e.globals(), rs)...), rs
}

// Eval compiles src and evaluates it against data. An await on a
// promise that has not settled fails with a *runtime.PendingError; use
// EvalAsync for such code.
func (e *Engine) Eval(src string, data interface{}) (*runtime.Value, error) {
	n, err := e.Compile(src)
	if err != nil {
		return nil, err
	}
	return e.Run(n, e.NewStack(data))
}

// Run evaluates a compiled tree on stack.
func (e *Engine) Run(n ast.Node, stack *runtime.Stack) (*runtime.Value, error) {
	v, err := n.Get(stack)
	if err != nil {
		e.log.Debug("evaluation failed", zap.String("node", n.Type()), zap.Error(err))
		return nil, err
	}
	return v, nil
}

// EvalAsync evaluates src as the body of an async function and waits for
// the result. A rejection comes back as a *runtime.ThrowError carrying the
// reason. Cancelling ctx stops the wait, not the evaluation.
func (e *Engine) EvalAsync(ctx context.Context, src string, data interface{}) (*runtime.Value, error) {
	n, err := e.Compile(src)
	if err != nil {
		return nil, err
	}
	f := ast.Async(e.NewStack(data), n)
	select {
	case <-f.Done():
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "waiting for evaluation")
	}
	v, reason, state := f.Result()
	if state == runtime.Rejected {
		err := &runtime.ThrowError{Value: reason}
		e.log.Debug("async evaluation rejected", zap.Error(err))
		return nil, err
	}
	return v, nil
}

// Dependencies lists the context paths src reads, deduplicated.
func (e *Engine) Dependencies(src string) ([]runtime.Path, error) {
	n, err := e.Compile(src)
	if err != nil {
		return nil, err
	}
	return runtime.DedupPaths(n.Events()), nil
}
