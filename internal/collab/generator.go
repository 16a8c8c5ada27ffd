// Package collab holds the generation-backed collaborators the turn
// supervisor and executors depend on.
package collab

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/user/debatecoach/internal/prompt"
	"github.com/user/debatecoach/internal/types"
	"github.com/user/debatecoach/pkg/llm"
)

var (
	_ types.Generator        = (*Generator)(nil)
	_ types.ClaimExtractor   = (*ClaimExtractor)(nil)
	_ types.Triager          = (*Triager)(nil)
	_ types.CommandDecider   = (*CommandDecider)(nil)
	_ types.Planner          = (*Planner)(nil)
	_ types.FallacyDetector  = (*FallacyDetector)(nil)
	_ types.SourceClassifier = (*SourceClassifier)(nil)
	_ types.BackupScorer     = (*BackupScorer)(nil)
)

// Generator adapts an llm.Provider to a single system+user call.
type Generator struct {
	provider llm.Provider
	model    string
}

// NewGenerator wraps provider. An empty model uses the provider's default.
func NewGenerator(provider llm.Provider, model string) *Generator {
	return &Generator{provider: provider, model: model}
}

func (g *Generator) Generate(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error) {
	msgs := make([]llm.Message, 0, 2)
	if system != "" {
		msgs = append(msgs, llm.Message{Role: "system", Content: system})
	}
	msgs = append(msgs, llm.Message{Role: "user", Content: user})

	opts := []llm.Option{llm.WithTemperature(temperature)}
	if maxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(maxTokens))
	}
	if g.model != "" {
		opts = append(opts, llm.WithModel(g.model))
	}
	resp, err := g.provider.Complete(ctx, msgs, opts...)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return resp.Content, nil
}

// caller renders one named prompt and sends it through a Generator.
type caller struct {
	gen     types.Generator
	prompts *prompt.Engine
}

func (c caller) call(ctx context.Context, name prompt.Name, data prompt.Data, temperature float32, maxTokens int) (string, error) {
	sys, user, err := c.prompts.Render(name, data)
	if err != nil {
		return "", err
	}
	return c.gen.Generate(ctx, sys, user, temperature, maxTokens)
}

// attempt binds a rendered prompt for repair.Retry.
func (c caller) attempt(name prompt.Name, data prompt.Data, maxTokens int) (func(context.Context, float32) (string, error), error) {
	sys, user, err := c.prompts.Render(name, data)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, temp float32) (string, error) {
		return c.gen.Generate(ctx, sys, user, temp, maxTokens)
	}, nil
}

func flagsJSON(f types.Flags) string {
	b, err := json.Marshal(f)
	if err != nil {
		return "{}"
	}
	return string(b)
}
