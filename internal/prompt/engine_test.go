package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestEngine(t *testing.T, maxTokens int) *Engine {
	t.Helper()
	e, err := New("gpt-4", maxTokens)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestEveryDefaultRenders(t *testing.T) {
	e := newTestEngine(t, 0)
	data := Data{Mode: "debate", Text: "cash bans reduce crime", Intent: "evaluate_argument", Flags: "{}", Sources: "[]"}
	for name := range Defaults {
		sys, user, err := e.Render(name, data)
		if err != nil {
			t.Errorf("render %s: %v", name, err)
			continue
		}
		if sys == "" || user == "" {
			t.Errorf("render %s: expected non-empty prompts", name)
		}
	}
}

func TestRenderIncludesText(t *testing.T) {
	e := newTestEngine(t, 0)
	_, user, err := e.Render(Evaluation, Data{Text: "banning cash will reduce crime"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(user, "banning cash will reduce crime") {
		t.Errorf("expected claim in prompt, got %q", user)
	}
}

func TestRenderUnknown(t *testing.T) {
	e := newTestEngine(t, 0)
	if _, _, err := e.Render("nope", Data{}); err == nil {
		t.Error("expected error for unknown prompt")
	}
}

func TestFitTrimsToBudget(t *testing.T) {
	e := newTestEngine(t, 0)
	long := strings.Repeat("argument ", 500)
	fitted := e.Fit(long, 50)
	if n := e.CountTokens(fitted); n > 50 {
		t.Errorf("expected at most 50 tokens, got %d", n)
	}
	if !strings.HasPrefix(long, fitted) {
		t.Error("expected Fit to keep the head of the text")
	}
	if e.Fit("short", 50) != "short" {
		t.Error("expected short text unchanged")
	}
}

func TestRenderRespectsMaxTokens(t *testing.T) {
	e := newTestEngine(t, 40)
	_, user, err := e.Render(Objections, Data{Text: strings.Repeat("claim ", 400)})
	if err != nil {
		t.Fatal(err)
	}
	if n := e.CountTokens(user); n > 40 {
		t.Errorf("expected user prompt within 40 tokens, got %d", n)
	}
}

func TestLoadOverrides(t *testing.T) {
	e := newTestEngine(t, 0)
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	yamlDoc := `
evaluation:
  user: "Rate this: {{.Text}}"
triage:
  system: "Custom triage system"
`
	if err := os.WriteFile(path, []byte(yamlDoc), 0644); err != nil {
		t.Fatal(err)
	}
	if err := e.LoadOverrides(path); err != nil {
		t.Fatal(err)
	}

	sys, user, _ := e.Render(Evaluation, Data{Text: "x"})
	if user != "Rate this: x" {
		t.Errorf("expected overridden user prompt, got %q", user)
	}
	if sys != Defaults[Evaluation].System {
		t.Errorf("expected default system prompt kept, got %q", sys)
	}
	sys, _, _ = e.Render(Triage, Data{})
	if sys != "Custom triage system" {
		t.Errorf("expected overridden system prompt, got %q", sys)
	}
}

func TestLoadOverridesUnknownName(t *testing.T) {
	e := newTestEngine(t, 0)
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	os.WriteFile(path, []byte("bogus:\n  user: x\n"), 0644)
	if err := e.LoadOverrides(path); err == nil {
		t.Error("expected error for unknown prompt name")
	}
}
