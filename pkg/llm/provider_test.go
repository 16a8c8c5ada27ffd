package llm

import (
	"context"
	"testing"
)

// MockProvider is a test double that satisfies the Provider interface.
type MockProvider struct {
	CompleteFunc func(ctx context.Context, messages []Message, opts Options) (*Response, error)
}

func (m *MockProvider) Complete(ctx context.Context, messages []Message, opts ...Option) (*Response, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, messages, Resolve(&Config{}, opts...))
	}
	return &Response{Content: "mock response"}, nil
}

func TestProviderInterface(t *testing.T) {
	var provider Provider = &MockProvider{}
	ctx := context.Background()
	messages := []Message{{Role: "user", Content: "test"}}

	resp, err := provider.Complete(ctx, messages)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content == "" {
		t.Error("expected non-empty response")
	}
}

func TestResolveDefaults(t *testing.T) {
	cfg := &Config{Model: "gpt-4o-mini", MaxTokens: 2000, Temperature: 0.7}
	o := Resolve(cfg)
	if o.Model != "gpt-4o-mini" || o.MaxTokens != 2000 {
		t.Errorf("expected config defaults, got %+v", o)
	}
	if o.Temperature == nil || *o.Temperature != 0.7 {
		t.Errorf("expected temperature 0.7, got %v", o.Temperature)
	}
}

func TestResolveZeroTemperatureOverride(t *testing.T) {
	cfg := &Config{Model: "m", Temperature: 0.7}
	o := Resolve(cfg, WithTemperature(0), WithMaxTokens(300), WithModel("cheap"))
	if o.Temperature == nil || *o.Temperature != 0 {
		t.Errorf("expected explicit zero temperature, got %v", o.Temperature)
	}
	if o.MaxTokens != 300 || o.Model != "cheap" {
		t.Errorf("expected overrides applied, got %+v", o)
	}
}

func TestResolveUnsetTemperature(t *testing.T) {
	o := Resolve(&Config{})
	if o.Temperature != nil {
		t.Errorf("expected nil temperature, got %v", *o.Temperature)
	}
}

func TestMockProviderReceivesOptions(t *testing.T) {
	var got Options
	provider := &MockProvider{
		CompleteFunc: func(_ context.Context, _ []Message, opts Options) (*Response, error) {
			got = opts
			return &Response{Content: "ok"}, nil
		},
	}
	if _, err := provider.Complete(context.Background(), nil, WithMaxTokens(900)); err != nil {
		t.Fatal(err)
	}
	if got.MaxTokens != 900 {
		t.Errorf("expected max tokens 900, got %d", got.MaxTokens)
	}
}
