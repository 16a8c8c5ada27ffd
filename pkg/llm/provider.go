package llm

import "context"

// Provider defines the interface for interacting with LLM backends.
// Implementations handle protocol-specific details such as request formatting,
// authentication, and response parsing.
type Provider interface {
	// Complete sends a chat completion request and returns the full response.
	Complete(ctx context.Context, messages []Message, opts ...Option) (*Response, error)
}

// Config holds common configuration for LLM providers.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
}

// Options are per-call overrides of the provider Config.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature *float32
}

// Option configures a single Complete call.
type Option func(*Options)

// WithTemperature sets the sampling temperature, including zero.
func WithTemperature(t float32) Option {
	return func(o *Options) { o.Temperature = &t }
}

// WithMaxTokens caps the response length.
func WithMaxTokens(n int) Option {
	return func(o *Options) { o.MaxTokens = n }
}

// WithModel overrides the configured model for one call.
func WithModel(model string) Option {
	return func(o *Options) { o.Model = model }
}

// Resolve merges call options over the provider config.
func Resolve(cfg *Config, opts ...Option) Options {
	o := Options{Model: cfg.Model, MaxTokens: cfg.MaxTokens}
	if cfg.Temperature != 0 {
		t := cfg.Temperature
		o.Temperature = &t
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
