package testfixtures

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces deterministic identifiers for tests.
type IDGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter uint64
	format  func(prefix string, n uint64) string
}

// NewIDGenerator constructs a generator that yields "<prefix>-<n>". When
// prefix is empty, "id" is used.
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix, format: func(prefix string, n uint64) string {
		return fmt.Sprintf("%s-%d", prefix, n)
	}}
}

// NewUUIDGenerator constructs a generator of name-based UUIDs. The sequence
// is the same on every run for the same prefix.
func NewUUIDGenerator(prefix string) *IDGenerator {
	gen := NewIDGenerator(prefix)
	gen.format = func(prefix string, n uint64) string {
		return uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "%s-%d", prefix, n)).String()
	}
	return gen
}

// Next returns the next identifier in the sequence.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return g.format(g.prefix, g.counter)
}

// NextFunc exposes Next as a function suitable for dependency injection.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// Reset restarts the sequence.
func (g *IDGenerator) Reset() {
	g.mu.Lock()
	g.counter = 0
	g.mu.Unlock()
}
