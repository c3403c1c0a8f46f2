package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"sampass-core/sam"

	"sampass/internal/reference"
)

// Consumer receives every delivered record once, between one Initialize and
// one Finalize call. ProcessOne may be called concurrently for records of
// different batches.
type Consumer interface {
	Initialize(hdr *sam.Header, sourceFile string) error
	ProcessOne(rec *sam.Record, ref *reference.Window) error
	Finalize() error
}

// TailUser is implemented by consumers that can say whether they need the
// unmapped records at the end of a coordinate-sorted file. Consumers that do
// not implement it are assumed to need them.
type TailUser interface {
	UsesUnmappedTail() bool
}

// Named gives a consumer a display name for logs and errors.
type Named interface {
	Name() string
}

// Wrapper is implemented by consumer decorators such as Serialized.
type Wrapper interface {
	Unwrap() Consumer
}

// NameOf returns c's name, or its Go type when it has none.
func NameOf(c Consumer) string {
	if n, ok := c.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", c)
}

// Unwrap strips all decorators from c.
func Unwrap(c Consumer) Consumer {
	for {
		w, ok := c.(Wrapper)
		if !ok {
			return c
		}
		c = w.Unwrap()
	}
}

func usesTail(c Consumer) bool {
	if t, ok := c.(TailUser); ok {
		return t.UsesUnmappedTail()
	}
	return true
}

// Serialized wraps c so that its ProcessOne is never entered by two
// goroutines at once.
func Serialized(c Consumer) Consumer {
	return &serialized{inner: c}
}

type serialized struct {
	mu    sync.Mutex
	inner Consumer
}

func (s *serialized) Initialize(hdr *sam.Header, sourceFile string) error {
	return s.inner.Initialize(hdr, sourceFile)
}

func (s *serialized) ProcessOne(rec *sam.Record, ref *reference.Window) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.ProcessOne(rec, ref)
}

func (s *serialized) Finalize() error        { return s.inner.Finalize() }
func (s *serialized) UsesUnmappedTail() bool { return usesTail(s.inner) }
func (s *serialized) Name() string           { return NameOf(s.inner) }
func (s *serialized) Unwrap() Consumer       { return s.inner }

// Registry is the ordered, fixed set of consumers of one pass.
type Registry struct {
	consumers []Consumer
	names     []string
}

// NewRegistry returns a Registry over cs in registration order. It rejects an
// empty set and nil entries.
func NewRegistry(cs ...Consumer) (*Registry, error) {
	if len(cs) == 0 {
		return nil, errors.New("no consumers registered")
	}
	r := &Registry{consumers: make([]Consumer, len(cs)), names: make([]string, len(cs))}
	for i, c := range cs {
		if c == nil {
			return nil, fmt.Errorf("consumer #%d is nil", i+1)
		}
		r.consumers[i] = c
		r.names[i] = NameOf(c)
	}
	return r, nil
}

// Len returns the number of consumers.
func (r *Registry) Len() int { return len(r.consumers) }

// Names returns the consumer names in registration order.
func (r *Registry) Names() []string { return append([]string(nil), r.names...) }

// UsesUnmappedTail reports whether any consumer wants the unmapped tail.
func (r *Registry) UsesUnmappedTail() bool {
	for _, c := range r.consumers {
		if usesTail(c) {
			return true
		}
	}
	return false
}

// Initialize initializes the consumers in order and stops at the first failure.
func (r *Registry) Initialize(hdr *sam.Header, sourceFile string) error {
	for i, c := range r.consumers {
		if err := c.Initialize(hdr, sourceFile); err != nil {
			return &ConsumerError{Consumer: r.names[i], Op: "initialize", Err: err}
		}
	}
	return nil
}

// Deliver hands every pair of b, in order, to every consumer, in
// registration order. The first failure ends the batch.
func (r *Registry) Deliver(b Batch) error {
	for _, p := range b.Pairs {
		for i, c := range r.consumers {
			if err := c.ProcessOne(p.Rec, p.Ref); err != nil {
				return &ConsumerError{Consumer: r.names[i], Op: "process", Record: p.Rec.Position(), Err: err}
			}
		}
	}
	return nil
}

// Finalize finalizes every consumer, in order, even when an earlier one
// fails. All failures are returned joined.
func (r *Registry) Finalize() error {
	var errs []error
	for i, c := range r.consumers {
		if err := c.Finalize(); err != nil {
			errs = append(errs, &ConsumerError{Consumer: r.names[i], Op: "finalize", Err: err})
		}
	}
	return errors.Join(errs...)
}
