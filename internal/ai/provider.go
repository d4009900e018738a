package ai

import "context"

// Provider is a text-generation backend. Generate returns the raw model
// output; callers are responsible for parsing structure out of it.
type Provider interface {
	Name() string

	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)

	// Test performs a minimal round trip to verify connectivity and credentials.
	Test(ctx context.Context) error
}
