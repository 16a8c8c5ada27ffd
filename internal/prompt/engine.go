// Package prompt renders token-budgeted prompts for each generation call.
package prompt

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/pkoukk/tiktoken-go"
	"gopkg.in/yaml.v3"
)

// Engine renders named prompts and keeps user prompts within a token budget.
type Engine struct {
	tokenizer *tiktoken.Tiktoken
	maxTokens int
	templates map[Name]*compiled
}

type compiled struct {
	system string
	user   *template.Template
}

// New creates an engine for the given model. maxTokens bounds the rendered
// user prompt; zero disables trimming.
func New(model string, maxTokens int) (*Engine, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Fallback to cl100k_base for unknown models
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	e := &Engine{
		tokenizer: enc,
		maxTokens: maxTokens,
		templates: make(map[Name]*compiled, len(Defaults)),
	}
	for name, tpl := range Defaults {
		if err := e.set(name, tpl); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Engine) set(name Name, tpl Template) error {
	t, err := template.New(string(name)).Option("missingkey=zero").Parse(tpl.User)
	if err != nil {
		return fmt.Errorf("parse prompt %s: %w", name, err)
	}
	e.templates[name] = &compiled{system: tpl.System, user: t}
	return nil
}

// LoadOverrides replaces prompts with those in a YAML file keyed by prompt
// name. Fields left empty keep the built-in text.
func (e *Engine) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read prompt overrides: %w", err)
	}
	var overrides map[string]Template
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("parse prompt overrides: %w", err)
	}
	for key, tpl := range overrides {
		name := Name(key)
		base, ok := Defaults[name]
		if !ok {
			return fmt.Errorf("unknown prompt %q", name)
		}
		if tpl.System == "" {
			tpl.System = base.System
		}
		if tpl.User == "" {
			tpl.User = base.User
		}
		if err := e.set(name, tpl); err != nil {
			return err
		}
	}
	return nil
}

// Render returns the system and user prompts for name.
func (e *Engine) Render(name Name, data Data) (string, string, error) {
	c, ok := e.templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown prompt %q", name)
	}
	var buf bytes.Buffer
	if err := c.user.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return c.system, e.Fit(buf.String(), e.maxTokens), nil
}

// Fit trims text to at most budget tokens, keeping the head.
func (e *Engine) Fit(text string, budget int) string {
	if budget <= 0 {
		return text
	}
	tokens := e.tokenizer.Encode(text, nil, nil)
	if len(tokens) <= budget {
		return text
	}
	return e.tokenizer.Decode(tokens[:budget])
}

// CountTokens returns the token count for a string.
func (e *Engine) CountTokens(text string) int {
	return len(e.tokenizer.Encode(text, nil, nil))
}
