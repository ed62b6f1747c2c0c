package ai

import (
	"context"
	"fmt"
	"log"
)

// Message is one turn of a conversation sent to a provider.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Request describes a single text-generation call.
type Request struct {
	System      string
	Prompt      string
	History     []Message // prior turns, oldest first; Prompt is appended last
	MaxTokens   int
	Temperature float64
}

// TextGenerator sends a prompt to a text-generation backend and returns the
// raw reply. Implementations do not parse or clean the output; that is the
// recovery layer's job.
type TextGenerator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}

// Chain tries each configured provider in order and returns the first
// successful reply. Failures are logged and the next provider is tried;
// there is no retry against a provider that already answered with an error.
type Chain struct {
	generators []TextGenerator
}

// NewChain builds a provider chain, skipping nil entries so callers can pass
// clients that may not be configured.
func NewChain(gens ...TextGenerator) *Chain {
	c := &Chain{}
	for _, g := range gens {
		if g != nil {
			c.generators = append(c.generators, g)
		}
	}
	return c
}

// Name implements TextGenerator.
func (c *Chain) Name() string { return "chain" }

// Generate implements TextGenerator.
func (c *Chain) Generate(ctx context.Context, req Request) (string, error) {
	if len(c.generators) == 0 {
		return "", fmt.Errorf("no text providers configured")
	}

	var lastErr error
	for _, g := range c.generators {
		out, err := g.Generate(ctx, req)
		if err == nil {
			return out, nil
		}
		log.Printf("AI: %s generation failed: %v", g.Name(), err)
		lastErr = err
	}
	return "", lastErr
}
