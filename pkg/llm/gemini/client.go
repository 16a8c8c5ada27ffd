package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/user/debatecoach/pkg/llm"
)

// DefaultModel is used when the config leaves Model empty.
const DefaultModel = "gemini-2.5-flash"

// Client implements llm.Provider on top of the Gemini API.
type Client struct {
	config *llm.Config
	client *genai.Client
}

// New creates a Gemini-backed provider.
func New(ctx context.Context, config *llm.Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Client{config: config, client: client}, nil
}

// Complete sends the conversation as a single GenerateContent call.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, opts ...llm.Option) (*llm.Response, error) {
	o := llm.Resolve(c.config, opts...)
	contents, gc := buildRequest(messages, o)

	resp, err := c.client.Models.GenerateContent(ctx, o.Model, contents, gc)
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	out := &llm.Response{Content: resp.Text()}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = llm.Usage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
			TotalTokens:  int(u.TotalTokenCount),
		}
	}
	return out, nil
}

// buildRequest maps chat messages onto Gemini contents. System messages
// are joined into the system instruction; assistant turns become "model".
func buildRequest(messages []llm.Message, o llm.Options) ([]*genai.Content, *genai.GenerateContentConfig) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			system = append(system, m.Content)
		case "assistant", "model":
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	gc := &genai.GenerateContentConfig{Temperature: o.Temperature}
	if o.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(o.MaxTokens)
	}
	if len(system) > 0 {
		gc.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	return contents, gc
}
