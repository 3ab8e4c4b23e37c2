package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"sort"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/kr/pretty"
	"go.uber.org/zap"

	"github.com/example/jsexpr/bundle"
	"github.com/example/jsexpr/config"
	"github.com/example/jsexpr/engine"
	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/lexer"
	"github.com/example/jsexpr/runtime"
)

type sourceArgs struct {
	Source string `arg:"positional" help:"source text, or - to read stdin"`
	File   string `arg:"-f" help:"read the source from a file"`
}

func (s sourceArgs) read() (string, error) {
	switch {
	case s.File != "":
		buf, err := ioutil.ReadFile(s.File)
		return string(buf), errors.Wrapf(err, "reading %s", s.File)
	case s.Source == "-":
		buf, err := ioutil.ReadAll(os.Stdin)
		return string(buf), errors.Wrap(err, "reading stdin")
	case s.Source == "":
		return "", errors.New("no source given")
	}
	return s.Source, nil
}

type evalCmd struct {
	sourceArgs
	Data    string        `help:"JSON object the source evaluates against"`
	Async   bool          `help:"evaluate as the body of an async function"`
	Timeout time.Duration `default:"10s" help:"how long to wait for an async result"`
	Inspect bool          `help:"print the exported Go value instead of the JS rendering"`
}

type parseCmd struct {
	sourceArgs
	JSON    bool `help:"print the tagged JSON tree"`
	Inspect bool `help:"print the Go structure of the tree"`
}

type tokensCmd struct {
	sourceArgs
}

type depsCmd struct {
	sourceArgs
}

type compileCmd struct {
	Out   string   `arg:"-o,required" help:"bundle file to write"`
	Files []string `arg:"positional,required" help:"source files to compile"`
}

type decodeCmd struct {
	In string `arg:"positional,required" help:"bundle file to read"`
}

type args struct {
	Config  string      `help:"path to a YAML config file"`
	Eval    *evalCmd    `arg:"subcommand:eval" help:"evaluate an expression or program"`
	Parse   *parseCmd   `arg:"subcommand:parse" help:"parse and print the tree"`
	Tokens  *tokensCmd  `arg:"subcommand:tokens" help:"print the token stream"`
	Deps    *depsCmd    `arg:"subcommand:deps" help:"list the context paths the source reads"`
	Compile *compileCmd `arg:"subcommand:compile" help:"compile sources into a bundle"`
	Decode  *decodeCmd  `arg:"subcommand:decode" help:"print the sources stored in a bundle"`
}

func (args) Description() string {
	return "jsexpr evaluates JavaScript expressions against JSON data"
}

func fail(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func main() {
	var a args
	p := arg.MustParse(&a)
	if p.Subcommand() == nil {
		p.Fail("missing subcommand")
	}

	cfg := config.Default()
	if a.Config != "" {
		var err error
		cfg, err = config.Load(a.Config)
		fail(err)
	}
	logger, err := cfg.Log.NewLogger()
	fail(err)
	defer logger.Sync()

	e, err := engine.New(cfg, engine.WithLogger(logger))
	fail(err)

	switch {
	case a.Eval != nil:
		fail(runEval(e, a.Eval))
	case a.Parse != nil:
		fail(runParse(e, a.Parse))
	case a.Tokens != nil:
		fail(runTokens(a.Tokens))
	case a.Deps != nil:
		fail(runDeps(e, a.Deps))
	case a.Compile != nil:
		fail(runCompile(e, logger, a.Compile))
	case a.Decode != nil:
		fail(runDecode(a.Decode))
	}
}

func runEval(e *engine.Engine, cmd *evalCmd) error {
	src, err := cmd.read()
	if err != nil {
		return err
	}
	var data interface{}
	if cmd.Data != "" {
		if err := json.Unmarshal([]byte(cmd.Data), &data); err != nil {
			return errors.Wrap(err, "parsing --data")
		}
	}

	var v *runtime.Value
	if cmd.Async {
		ctx, cancel := context.WithTimeout(context.Background(), cmd.Timeout)
		defer cancel()
		v, err = e.EvalAsync(ctx, src, data)
	} else {
		v, err = e.Eval(src, data)
	}
	if err != nil {
		return err
	}
	if cmd.Inspect {
		pretty.Println(runtime.Export(v))
		return nil
	}
	if v.Type != runtime.TypeUndefined {
		fmt.Println(runtime.Inspect(v))
	}
	return nil
}

func runParse(e *engine.Engine, cmd *parseCmd) error {
	src, err := cmd.read()
	if err != nil {
		return err
	}
	n, err := e.Compile(src)
	if err != nil {
		return err
	}
	switch {
	case cmd.JSON:
		raw, err := json.Marshal(n)
		if err != nil {
			return err
		}
		var out bytes.Buffer
		if err := json.Indent(&out, raw, "", "  "); err != nil {
			return err
		}
		fmt.Println(out.String())
	case cmd.Inspect:
		pretty.Println(n)
	default:
		fmt.Println(n.String())
	}
	return nil
}

func runTokens(cmd *tokensCmd) error {
	src, err := cmd.read()
	if err != nil {
		return err
	}
	for _, tok := range lexer.Tokenize(src) {
		fmt.Printf("%d:%d\t%s\t%q\n", tok.Line, tok.Column, tok.Type, tok.Literal)
	}
	return nil
}

func runDeps(e *engine.Engine, cmd *depsCmd) error {
	src, err := cmd.read()
	if err != nil {
		return err
	}
	paths, err := e.Dependencies(src)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

func runCompile(e *engine.Engine, logger *zap.Logger, cmd *compileCmd) error {
	var sources []string
	for _, name := range cmd.Files {
		buf, err := ioutil.ReadFile(name)
		if err != nil {
			return errors.Wrapf(err, "reading %s", name)
		}
		sources = append(sources, string(buf))
	}
	trees, err := bundle.Build(e.Compile, sources)
	if err != nil {
		return err
	}

	f, err := os.Create(cmd.Out)
	if err != nil {
		return err
	}
	if err := bundle.Write(f, trees); err != nil {
		f.Close()
		return err
	}
	logger.Info("bundle written", zap.String("path", cmd.Out), zap.Int("entries", len(trees)))
	return f.Close()
}

func runDecode(cmd *decodeCmd) error {
	f, err := os.Open(cmd.In)
	if err != nil {
		return err
	}
	defer f.Close()

	trees, err := bundle.Read(f)
	if err != nil {
		return errors.Wrapf(err, "reading %s", cmd.In)
	}
	sources := make([]string, 0, len(trees))
	for src := range trees {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	for _, src := range sources {
		fmt.Printf("%s\t%s\n", trees[src].Type(), trees[src])
	}
	return nil
}
