// Package testrunner runs conformance fixtures against the engine. A fixture
// is a .js file whose YAML front matter, between /*--- and ---*/, describes
// the data the script sees and the result or error it must produce.
package testrunner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kr/pretty"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/example/jsexpr/config"
	"github.com/example/jsexpr/engine"
	"github.com/example/jsexpr/errors"
	"github.com/example/jsexpr/runtime"
)

type Result int

const (
	Pass Result = iota
	Fail
	Skip
	Error
)

func (r Result) String() string {
	switch r {
	case Pass:
		return "PASS"
	case Fail:
		return "FAIL"
	case Skip:
		return "SKIP"
	case Error:
		return "ERROR"
	}
	return "UNKNOWN"
}

type TestResult struct {
	Path    string
	Result  Result
	Message string
	Elapsed time.Duration
}

type Summary struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
	Errors  int
	Elapsed time.Duration
}

// PassRate is the share of passed fixtures among those not skipped.
func (s Summary) PassRate() float64 {
	ran := s.Total - s.Skipped
	if ran == 0 {
		return 0
	}
	return float64(s.Passed) / float64(ran) * 100
}

type Config struct {
	Dir     string
	Filter  string
	Limit   int
	Timeout time.Duration
	// Engine runs the fixtures. A default engine is built when nil.
	Engine *engine.Engine
	Logger *zap.Logger
}

// Metadata is the front matter of a fixture.
type Metadata struct {
	Description string                 `yaml:"description"`
	Features    []string               `yaml:"features"`
	Flags       []string               `yaml:"flags"`
	Context     map[string]interface{} `yaml:"context"`
	// Expected is compared with the exported result. When it is absent only
	// success is checked.
	Expected interface{}          `yaml:"expected"`
	Negative *NegativeExpectation `yaml:"negative"`
}

type NegativeExpectation struct {
	Phase string `yaml:"phase"` // "parse" or "runtime"
	Type  string `yaml:"type"`  // "SyntaxError", "TypeError", etc.
}

func (m Metadata) hasFlag(flag string) bool {
	for _, f := range m.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// unsupported lists features the engine leaves out on purpose.
var unsupported = map[string]bool{
	"class":     true,
	"generator": true,
	"Symbol":    true,
	"Proxy":     true,
	"Date":      true,
	"Map":       true,
	"Set":       true,
	"modules":   true,
}

// Run discovers and runs the fixtures under cfg.Dir.
func Run(cfg Config) ([]TestResult, Summary, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Engine == nil {
		e, err := engine.New(config.Default(), engine.WithLogger(cfg.Logger))
		if err != nil {
			return nil, Summary{}, err
		}
		cfg.Engine = e
	}

	files, err := discover(cfg.Dir, cfg.Filter)
	if err != nil {
		return nil, Summary{}, err
	}
	if cfg.Limit > 0 && len(files) > cfg.Limit {
		files = files[:cfg.Limit]
	}

	start := time.Now()
	var results []TestResult
	summary := Summary{Total: len(files)}
	for _, path := range files {
		rel, _ := filepath.Rel(cfg.Dir, path)
		tr := runFixture(cfg, path, rel)
		results = append(results, tr)

		switch tr.Result {
		case Pass:
			summary.Passed++
		case Fail:
			summary.Failed++
		case Skip:
			summary.Skipped++
		case Error:
			summary.Errors++
		}
		cfg.Logger.Debug("fixture done",
			zap.String("path", rel),
			zap.Stringer("result", tr.Result),
			zap.String("message", tr.Message),
			zap.Duration("elapsed", tr.Elapsed))
	}
	summary.Elapsed = time.Since(start)
	return results, summary, nil
}

func discover(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".js") {
			return nil
		}
		if filter != "" {
			rel, _ := filepath.Rel(dir, path)
			if !strings.Contains(rel, filter) {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walking %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

type evalResult struct {
	val *runtime.Value
	err error
}

func runFixture(cfg Config, path, rel string) TestResult {
	source, err := os.ReadFile(path)
	if err != nil {
		return TestResult{Path: rel, Result: Error, Message: "read error: " + err.Error()}
	}
	meta, err := ParseMetadata(string(source))
	if err != nil {
		return TestResult{Path: rel, Result: Error, Message: err.Error()}
	}
	for _, feat := range meta.Features {
		if unsupported[feat] {
			return TestResult{Path: rel, Result: Skip, Message: "unsupported feature: " + feat}
		}
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	resultCh := make(chan evalResult, 1)
	go func() {
		var res evalResult
		if meta.hasFlag("async") {
			res.val, res.err = cfg.Engine.EvalAsync(ctx, string(source), meta.Context)
		} else {
			res.val, res.err = cfg.Engine.Eval(string(source), meta.Context)
		}
		resultCh <- res
	}()

	timeout := TestResult{Path: rel, Result: Error, Message: fmt.Sprintf("timeout (%s)", cfg.Timeout)}
	var res evalResult
	select {
	case res = <-resultCh:
	case <-ctx.Done():
		timeout.Elapsed = time.Since(start)
		return timeout
	}
	elapsed := time.Since(start)
	if errors.Is(res.err, context.DeadlineExceeded) {
		timeout.Elapsed = elapsed
		return timeout
	}

	if meta.Negative != nil {
		if msg := checkNegative(*meta.Negative, res.err); msg != "" {
			return TestResult{Path: rel, Result: Fail, Message: msg, Elapsed: elapsed}
		}
		return TestResult{Path: rel, Result: Pass, Elapsed: elapsed}
	}
	if res.err != nil {
		return TestResult{Path: rel, Result: Fail, Message: res.err.Error(), Elapsed: elapsed}
	}
	if meta.Expected != nil {
		want, got := meta.Expected, runtime.Export(res.val)
		if !reflect.DeepEqual(want, got) {
			return TestResult{
				Path:    rel,
				Result:  Fail,
				Message: "result mismatch: " + strings.Join(pretty.Diff(want, got), "; "),
				Elapsed: elapsed,
			}
		}
	}
	return TestResult{Path: rel, Result: Pass, Elapsed: elapsed}
}

// checkNegative returns why err does not meet neg, or "" when it does.
func checkNegative(neg NegativeExpectation, err error) string {
	if err == nil {
		return fmt.Sprintf("expected %s error in %s phase", neg.Type, neg.Phase)
	}
	var syntax *errors.SyntaxError
	isParse := errors.As(err, &syntax)
	switch {
	case neg.Phase == "parse" && !isParse:
		return "expected a parse error, got " + err.Error()
	case neg.Phase == "runtime" && isParse:
		return "expected a runtime error, got " + err.Error()
	}
	if neg.Type == "" || isParse {
		return ""
	}
	kind := errorKind(err)
	if kind != neg.Type {
		return fmt.Sprintf("expected %s, got %s: %v", neg.Type, kind, err)
	}
	return ""
}

// errorKind is the name a catch clause would see on the error object.
func errorKind(err error) string {
	v := runtime.ErrorValue(err)
	if v.IsObject() {
		return v.Object.Get("name").ToString()
	}
	return runtime.Inspect(v)
}

// ParseMetadata reads the front matter of a fixture. A fixture without one
// has empty metadata.
func ParseMetadata(source string) (Metadata, error) {
	var meta Metadata
	startIdx := strings.Index(source, "/*---")
	if startIdx < 0 {
		return meta, nil
	}
	endIdx := strings.Index(source[startIdx:], "---*/")
	if endIdx < 0 {
		return meta, errors.New("unterminated front matter")
	}
	if err := yaml.UnmarshalStrict([]byte(source[startIdx+5:startIdx+endIdx]), &meta); err != nil {
		return meta, errors.Wrap(err, "parsing front matter")
	}
	if meta.Context != nil {
		ctx, err := normalize(meta.Context)
		if err != nil {
			return meta, errors.Wrap(err, "context")
		}
		meta.Context = ctx.(map[string]interface{})
	}
	expected, err := normalize(meta.Expected)
	if err != nil {
		return meta, errors.Wrap(err, "expected")
	}
	meta.Expected = expected
	return meta, nil
}

// normalize rewrites decoded YAML into the shapes runtime.Export produces:
// string-keyed maps and float64 numbers. YAML 1.1 reads bare keys such as
// y, n or on as booleans, so a key that is neither a string nor an integer
// is an error rather than a silently renamed property.
func normalize(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, el := range t {
			var key string
			switch kt := k.(type) {
			case string:
				key = kt
			case int:
				key = strconv.Itoa(kt)
			default:
				return nil, errors.Errorf("key %v decoded as %T, quote it", k, k)
			}
			n, err := normalize(el)
			if err != nil {
				return nil, errors.Wrapf(err, "at %q", key)
			}
			out[key] = n
		}
		return out, nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, el := range t {
			n, err := normalize(el)
			if err != nil {
				return nil, errors.Wrapf(err, "at %q", k)
			}
			out[k] = n
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, el := range t {
			n, err := normalize(el)
			if err != nil {
				return nil, errors.Wrapf(err, "at [%d]", i)
			}
			out[i] = n
		}
		return out, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case uint64:
		return float64(t), nil
	}
	return v, nil
}
