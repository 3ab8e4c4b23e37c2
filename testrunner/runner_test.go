package testrunner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/example/jsexpr/errors"
)

func TestRunTestdata(t *testing.T) {
	results, summary, err := Run(Config{Dir: "testdata"})
	require.NoError(t, err)
	require.Len(t, results, summary.Total)

	for _, r := range results {
		want := Pass
		if filepath.Dir(r.Path) == "skipped" {
			want = Skip
		}
		assert.Equal(t, want, r.Result, "%s: %s", r.Path, r.Message)
	}
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, summary.Total-1, summary.Passed)
	assert.Equal(t, 100.0, summary.PassRate())
}

func TestRunFilterAndLimit(t *testing.T) {
	results, summary, err := Run(Config{Dir: "testdata", Filter: "errors"})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	for _, r := range results {
		assert.Contains(t, r.Path, "errors")
	}

	_, summary, err = Run(Config{Dir: "testdata", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
}

func TestRunMissingDir(t *testing.T) {
	_, _, err := Run(Config{Dir: filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}

func writeFixture(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestRunFailures(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "mismatch.js", "/*---\nexpected: [1, 2]\n---*/\n[1, 3]\n")
	writeFixture(t, dir, "no_error.js", "/*---\nnegative:\n  phase: runtime\n  type: TypeError\n---*/\n1\n")
	writeFixture(t, dir, "wrong_kind.js", "/*---\nnegative:\n  phase: runtime\n  type: TypeError\n---*/\nnope\n")
	writeFixture(t, dir, "wrong_phase.js", "/*---\nnegative:\n  phase: runtime\n---*/\n(\n")
	writeFixture(t, dir, "bad_yaml.js", "/*---\nexpected: [\n---*/\n1\n")
	writeFixture(t, dir, "throws.js", "throw new Error('boom')\n")

	core, logs := observer.New(zap.DebugLevel)
	results, summary, err := Run(Config{Dir: dir, Logger: zap.New(core)})
	require.NoError(t, err)
	assert.Equal(t, 6, logs.FilterMessage("fixture done").Len())

	byPath := map[string]TestResult{}
	for _, r := range results {
		byPath[r.Path] = r
	}
	assert.Equal(t, Error, byPath["bad_yaml.js"].Result)
	assert.Equal(t, Fail, byPath["mismatch.js"].Result)
	assert.Contains(t, byPath["mismatch.js"].Message, "result mismatch")
	assert.Contains(t, byPath["no_error.js"].Message, "expected TypeError error")
	assert.Contains(t, byPath["wrong_kind.js"].Message, "expected TypeError, got ReferenceError")
	assert.Contains(t, byPath["wrong_phase.js"].Message, "expected a runtime error")
	assert.Contains(t, byPath["throws.js"].Message, "boom")
	assert.Equal(t, 5, summary.Failed)
	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, 0.0, summary.PassRate())
}

func TestRunTimeout(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "pending.js", "/*---\nflags: [async]\n---*/\nawait new Promise(() => {})\n")

	results, summary, err := Run(Config{Dir: dir, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, Error, results[0].Result)
	assert.Contains(t, results[0].Message, "timeout")
	assert.Equal(t, 1, summary.Errors)
}

func TestParseMetadata(t *testing.T) {
	meta, err := ParseMetadata(`/*---
description: sample
flags: [async]
features: [Date]
context:
  a: {b: 1}
expected: {x: [1, "two"]}
negative:
  phase: parse
  type: SyntaxError
---*/
a.b`)
	require.NoError(t, err)
	assert.Equal(t, "sample", meta.Description)
	assert.True(t, meta.hasFlag("async"))
	assert.False(t, meta.hasFlag("module"))
	assert.Equal(t, []string{"Date"}, meta.Features)
	assert.Equal(t, map[string]interface{}{"a": map[string]interface{}{"b": 1.0}}, meta.Context)
	assert.Equal(t, map[string]interface{}{"x": []interface{}{1.0, "two"}}, meta.Expected)
	assert.Equal(t, &NegativeExpectation{Phase: "parse", Type: "SyntaxError"}, meta.Negative)

	meta, err = ParseMetadata("1 + 1")
	require.NoError(t, err)
	assert.Nil(t, meta.Expected)

	_, err = ParseMetadata("/*---\ndescription: x\n")
	assert.Error(t, err)

	_, err = ParseMetadata("/*---\nunknown: x\n---*/")
	assert.Error(t, err)
}

func TestParseMetadataKeys(t *testing.T) {
	meta, err := ParseMetadata("/*---\nexpected: {\"y\": 5, x: [1]}\ncontext: {\"n\": {\"on\": 2}}\n---*/")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"y": 5.0, "x": []interface{}{1.0}}, meta.Expected)
	assert.Equal(t, map[string]interface{}{"n": map[string]interface{}{"on": 2.0}}, meta.Context)

	meta, err = ParseMetadata("/*---\nexpected: {1: a}\n---*/")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"1": "a"}, meta.Expected)

	for _, src := range []string{
		"/*---\nexpected:\n  y: 5\n---*/",
		"/*---\nexpected: [{yes: a}]\n---*/",
		"/*---\ncontext:\n  a: {on: 1}\n---*/",
	} {
		_, err := ParseMetadata(src)
		assert.Error(t, err, src)
	}
}

func TestCheckNegative(t *testing.T) {
	syntax := &errors.SyntaxError{Msg: "unexpected token"}
	typeErr := errors.TypeErrorf("x is not a function")

	assert.Empty(t, checkNegative(NegativeExpectation{Phase: "parse", Type: "SyntaxError"}, syntax))
	assert.Empty(t, checkNegative(NegativeExpectation{Phase: "runtime", Type: "TypeError"}, typeErr))
	assert.Empty(t, checkNegative(NegativeExpectation{Phase: "runtime"}, typeErr))
	assert.NotEmpty(t, checkNegative(NegativeExpectation{Phase: "parse"}, typeErr))
	assert.NotEmpty(t, checkNegative(NegativeExpectation{Phase: "runtime", Type: "RangeError"}, typeErr))
	assert.NotEmpty(t, checkNegative(NegativeExpectation{Phase: "runtime"}, nil))
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "PASS", Pass.String())
	assert.Equal(t, "SKIP", Skip.String())
	assert.Equal(t, "UNKNOWN", Result(42).String())
}
