// Package embedding defines the external embedding provider surface used
// by the vector retrieval backend. The harness performs no model calls
// itself; a provider maps text to fixed-dimension vectors over HTTP.
// Absence or misconfiguration of a provider is never fatal; the harness
// degrades to the lexical backend.
package embedding

import (
	"context"
)

// Provider maps texts to fixed-length numeric vectors.
type Provider interface {
	// Embed generates one vector per input text, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the vector dimension the provider produces.
	Dimension() int

	// Ping checks that the provider is reachable.
	Ping(ctx context.Context) error
}
