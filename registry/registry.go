// Package registry maps type tags to decoders for tagged JSON envelopes of
// the form {"type": "<tag>", "node": {...}}. Registration happens once from
// init functions; a registry is read-only afterwards.
package registry

import (
	"bytes"
	"encoding/json"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/example/jsexpr/errors"
)

// Envelope is the wire shape of one tagged value.
type Envelope struct {
	Type string          `json:"type"`
	Node json.RawMessage `json:"node"`
}

// Decoder decodes a child envelope. Decoding JSON null yields the zero T.
type Decoder[T any] interface {
	Decode(data json.RawMessage) (T, error)
}

// DecodeFunc rebuilds a value from the body of its envelope, using d for
// nested envelopes.
type DecodeFunc[T any] func(node json.RawMessage, d Decoder[T]) (T, error)

// Registry is a tag to decoder table.
type Registry[T any] struct {
	name    string
	mu      sync.RWMutex
	entries map[string]DecodeFunc[T]
	log     *zap.Logger
}

// New creates an empty registry. The name appears in errors and logs.
func New[T any](name string) *Registry[T] {
	return &Registry[T]{
		name:    name,
		entries: make(map[string]DecodeFunc[T]),
		log:     zap.NewNop(),
	}
}

// SetLogger replaces the registry logger.
func (r *Registry[T]) SetLogger(l *zap.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = l.Named("registry").With(zap.String("registry", r.name))
}

// Register adds a decoder under tag. Registering a tag twice is an error.
func (r *Registry[T]) Register(tag string, fn DecodeFunc[T]) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tag == "" || fn == nil {
		return &errors.RegistryError{Registry: r.name, Op: "register", Tag: tag, Err: errors.New("empty tag or nil decoder")}
	}
	if _, ok := r.entries[tag]; ok {
		r.log.Error("duplicate registration", zap.String("tag", tag))
		return &errors.RegistryError{Registry: r.name, Op: "register", Tag: tag, Err: errors.ErrDuplicateTag}
	}
	r.entries[tag] = fn
	return nil
}

// MustRegister is Register for init functions: it panics on error.
func (r *Registry[T]) MustRegister(tag string, fn DecodeFunc[T]) {
	if err := r.Register(tag, fn); err != nil {
		panic(err)
	}
}

// Lookup returns the decoder registered under tag.
func (r *Registry[T]) Lookup(tag string) (DecodeFunc[T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.entries[tag]
	return fn, ok
}

// Tags lists the registered tags in sorted order.
func (r *Registry[T]) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.entries))
	for t := range r.entries {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Decode rebuilds a value from its envelope.
func (r *Registry[T]) Decode(data json.RawMessage) (T, error) {
	var zero T
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return zero, nil
	}
	var env Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return zero, &errors.RegistryError{Registry: r.name, Op: "decode", Err: errors.Wrap(err, "malformed envelope")}
	}
	if env.Type == "" {
		return zero, &errors.RegistryError{Registry: r.name, Op: "decode", Err: errors.New("missing type tag")}
	}
	fn, ok := r.Lookup(env.Type)
	if !ok {
		return zero, &errors.RegistryError{Registry: r.name, Op: "decode", Tag: env.Type, Err: errors.ErrUnknownTag}
	}
	v, err := fn(env.Node, r)
	if err != nil {
		var regErr *errors.RegistryError
		if errors.As(err, &regErr) {
			return zero, err
		}
		return zero, &errors.RegistryError{Registry: r.name, Op: "decode", Tag: env.Type, Err: err}
	}
	return v, nil
}

// Marshal wraps an already encoded body in an envelope.
func Marshal(tag string, body interface{}) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding %s", tag)
	}
	return json.Marshal(Envelope{Type: tag, Node: raw})
}
