// Package id provides order identifier generation behind a small
// interface so tests can substitute deterministic sequences.
package id

import "github.com/oklog/ulid/v2"

// Generator produces unique order identifiers.
type Generator interface {
	NewOrderID() string
}

// GeneratorFunc adapts ordinary functions to Generator.
type GeneratorFunc func() string

// NewOrderID returns the next identifier from the wrapped function.
func (f GeneratorFunc) NewOrderID() string {
	return f()
}

// ULIDGenerator issues ULIDs: lexicographically sortable and collision
// safe across concurrently created checkout sessions.
type ULIDGenerator struct{}

// NewOrderID implements the Generator interface.
func (ULIDGenerator) NewOrderID() string {
	return ulid.Make().String()
}
