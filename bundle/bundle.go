// Package bundle stores precompiled trees keyed by their source text, so
// that templates can ship parsed. A bundle is a snappy stream holding one
// JSON document.
package bundle

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/golang/snappy"

	"github.com/example/jsexpr/ast"
	"github.com/example/jsexpr/errors"
)

// Version is written into every bundle. Read rejects other versions.
const Version = 1

type document struct {
	Version int     `json:"version"`
	Entries []entry `json:"entries"`
}

type entry struct {
	Source string          `json:"source"`
	Tree   json.RawMessage `json:"tree"`
}

// Compiler turns source text into a tree, as engine.Engine.Compile does.
type Compiler func(src string) (ast.Node, error)

// Build compiles every source. The first failure stops the build.
func Build(compile Compiler, sources []string) (map[string]ast.Node, error) {
	trees := make(map[string]ast.Node, len(sources))
	for _, src := range sources {
		n, err := compile(src)
		if err != nil {
			return nil, errors.Wrapf(err, "compiling %q", src)
		}
		trees[src] = n
	}
	return trees, nil
}

// Write encodes trees to w, ordered by source.
func Write(w io.Writer, trees map[string]ast.Node) error {
	doc := document{Version: Version}
	sources := make([]string, 0, len(trees))
	for src := range trees {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	for _, src := range sources {
		tree, err := json.Marshal(trees[src])
		if err != nil {
			return errors.Wrapf(err, "encoding tree for %q", src)
		}
		doc.Entries = append(doc.Entries, entry{Source: src, Tree: tree})
	}

	sw := snappy.NewBufferedWriter(w)
	if err := json.NewEncoder(sw).Encode(doc); err != nil {
		return errors.Wrap(err, "writing bundle")
	}
	return errors.Wrap(sw.Close(), "flushing bundle")
}

// Read decodes a bundle written by Write.
func Read(r io.Reader) (map[string]ast.Node, error) {
	var doc document
	if err := json.NewDecoder(snappy.NewReader(r)).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "reading bundle")
	}
	if doc.Version != Version {
		return nil, errors.Errorf("bundle version %d, want %d", doc.Version, Version)
	}
	trees := make(map[string]ast.Node, len(doc.Entries))
	for _, e := range doc.Entries {
		n, err := ast.Deserialize(e.Tree)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding tree for %q", e.Source)
		}
		trees[e.Source] = n
	}
	return trees, nil
}
