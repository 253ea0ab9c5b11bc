// Package mock provides test doubles for parley interfaces using function fields.
package mock

import (
	"context"

	"github.com/fwojciec/parley"
)

// Interface compliance checks.
var (
	_ parley.Completer = (*Completer)(nil)
	_ parley.Generator = (*Generator)(nil)
)

// Completer is a test double for parley.Completer.
// Set StreamFn before calling Stream.
type Completer struct {
	StreamFn func(ctx context.Context, req parley.ChatRequest) (parley.FragmentStream, error)
}

// Stream delegates to StreamFn.
func (c *Completer) Stream(ctx context.Context, req parley.ChatRequest) (parley.FragmentStream, error) {
	return c.StreamFn(ctx, req)
}

// Generator is a test double for parley.Generator.
// Set GenerateFn before calling Generate.
type Generator struct {
	GenerateFn func(ctx context.Context, req parley.GenerateRequest, onDelta func(string) error) error
}

// Generate delegates to GenerateFn.
func (g *Generator) Generate(ctx context.Context, req parley.GenerateRequest, onDelta func(string) error) error {
	return g.GenerateFn(ctx, req, onDelta)
}
