package executor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/user/debatecoach/internal/prompt"
	"github.com/user/debatecoach/internal/types"
)

type mockGenerator struct {
	fn    func(system, user string, temperature float32) (string, error)
	calls int
}

func (m *mockGenerator) Generate(_ context.Context, system, user string, temperature float32, _ int) (string, error) {
	m.calls++
	return m.fn(system, user, temperature)
}

type mockFallacies struct {
	fn    func(text string) ([]types.Fallacy, error)
	calls int
}

func (m *mockFallacies) Detect(_ context.Context, text string) ([]types.Fallacy, error) {
	m.calls++
	return m.fn(text)
}

type mockGatherer struct {
	fn func(query string) ([]types.Candidate, error)
}

func (m *mockGatherer) Gather(_ context.Context, query string) ([]types.Candidate, error) {
	return m.fn(query)
}

type mockClassifier struct {
	fn func(claim string, cands []types.Candidate) ([]types.Source, error)
}

func (m *mockClassifier) Classify(_ context.Context, claim string, cands []types.Candidate) ([]types.Source, error) {
	return m.fn(claim, cands)
}

type mockScorer struct {
	fn func(claim string) (types.Score, error)
}

func (m *mockScorer) Score(_ context.Context, claim string) (types.Score, error) {
	return m.fn(claim)
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newPrompts(t *testing.T) *prompt.Engine {
	t.Helper()
	e, err := prompt.New("gpt-4", 0)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func reply(out string) *mockGenerator {
	return &mockGenerator{fn: func(_, _ string, _ float32) (string, error) { return out, nil }}
}

func slipperySlope() *mockFallacies {
	return &mockFallacies{fn: func(string) ([]types.Fallacy, error) {
		f := types.Fallacy{Code: "slippery_slope", Label: "Slippery slope", Emoji: "⛷️", Why: "Assumes an unlikely chain."}
		return []types.Fallacy{f, f}, nil
	}}
}

func newExec(t *testing.T, p Profile, deps Deps) *Executor {
	t.Helper()
	deps.Prompts = newPrompts(t)
	deps.Clock = func() time.Time { return fixedNow }
	return New(p, deps)
}

func TestDebateEvaluate(t *testing.T) {
	gen := &mockGenerator{fn: func(system, user string, temp float32) (string, error) {
		if temp != generateTemperature {
			t.Errorf("expected temperature %v, got %v", generateTemperature, temp)
		}
		if !strings.Contains(user, "Ban cash") {
			t.Errorf("expected subject in prompt, got %q", user)
		}
		return `{"bullets":["Ignores displacement","No data"],"score":{"value":42,"reasons":["Plausible but unsupported"]}}`, nil
	}}
	fd := slipperySlope()
	ex := newExec(t, Debate, Deps{Generator: gen, Fallacies: fd})

	res := ex.Execute(context.Background(), types.IntentEvaluate, "Ban cash", true)

	if res.Reply != Debate.EvaluateReply {
		t.Errorf("expected evaluate reply, got %q", res.Reply)
	}
	if res.Score == nil || res.Score.Value != 42 {
		t.Fatalf("expected score 42, got %+v", res.Score)
	}
	if !res.FallacyChecked || len(res.Fallacies) != 1 {
		t.Errorf("expected one deduplicated fallacy, got %+v", res.Fallacies)
	}
	if len(res.Con) != 1 {
		t.Fatalf("expected 1 CON event, got %d", len(res.Con))
	}
	want := "Score: 42/100\nShort evaluation: Plausible but unsupported\n- Ignores displacement\n- No data\nDETECTED FALLACIES:\n⛷️ Slippery slope: Assumes an unlikely chain."
	if diff := cmp.Diff(want, res.Con[0].Payload); diff != "" {
		t.Errorf("CON text mismatch (-want +got):\n%s", diff)
	}
	if res.Con[0].Column != types.ColumnCon || !res.Con[0].At.Equal(fixedNow) {
		t.Errorf("unexpected event metadata %+v", res.Con[0])
	}
}

func TestEvaluateSkipsFallaciesWhenNotNeeded(t *testing.T) {
	fd := slipperySlope()
	ex := newExec(t, Debate, Deps{Generator: reply(`{"bullets":["x"]}`), Fallacies: fd})

	res := ex.Execute(context.Background(), types.IntentEvaluate, "claim", false)

	if fd.calls != 0 {
		t.Errorf("expected no fallacy call, got %d", fd.calls)
	}
	if res.FallacyChecked {
		t.Error("expected FallacyChecked false")
	}
	if diff := cmp.Diff(&types.Score{Value: 0, Reasons: []string{"fallback"}}, res.Score); diff != "" {
		t.Errorf("score mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluateMalformedUsesBackupScorer(t *testing.T) {
	gen := reply("Here is my critique:\n- Too vague\n- No numbers")
	scorer := &mockScorer{fn: func(string) (types.Score, error) {
		return types.Score{Value: 35, Reasons: []string{"weak"}}, nil
	}}
	ex := newExec(t, Debate, Deps{Generator: gen, Scorer: scorer})

	res := ex.Execute(context.Background(), types.IntentEvaluate, "claim", false)

	if gen.calls != 2 {
		t.Errorf("expected one retry, got %d calls", gen.calls)
	}
	if res.Score == nil || res.Score.Value != 35 {
		t.Fatalf("expected backup score 35, got %+v", res.Score)
	}
	want := "Score: 35/100\nShort evaluation: weak\n- Too vague\n- No numbers"
	if diff := cmp.Diff(want, res.Con[0].Payload); diff != "" {
		t.Errorf("CON text mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluateGeneratorAndScorerFail(t *testing.T) {
	gen := &mockGenerator{fn: func(_, _ string, _ float32) (string, error) {
		return "", errors.New("timeout")
	}}
	scorer := &mockScorer{fn: func(string) (types.Score, error) { return types.Score{}, errors.New("down") }}
	ex := newExec(t, Debate, Deps{Generator: gen, Scorer: scorer})

	res := ex.Execute(context.Background(), types.IntentEvaluate, "claim", false)

	if gen.calls != 1 {
		t.Errorf("expected transport errors not to be retried, got %d calls", gen.calls)
	}
	if diff := cmp.Diff(&types.Score{Value: 0, Reasons: []string{"backup"}}, res.Score); diff != "" {
		t.Errorf("score mismatch (-want +got):\n%s", diff)
	}
	if res.Reply != Debate.EvaluateReply {
		t.Errorf("expected evaluate reply, got %q", res.Reply)
	}
}

func TestPitchImpressionMapsEvaluate(t *testing.T) {
	gen := &mockGenerator{fn: func(system, _ string, _ float32) (string, error) {
		if !strings.Contains(system, "pitch harshly") {
			t.Errorf("expected impression prompt, got system %q", system)
		}
		return `{"bullets":["Crowded market"]}`, nil
	}}
	ex := newExec(t, Pitch, Deps{Generator: gen})

	res := ex.Execute(context.Background(), types.IntentEvaluate, "Uber for dogs", false)

	if res.Reply != Pitch.EvaluateReply {
		t.Errorf("expected impression reply, got %q", res.Reply)
	}
	if diff := cmp.Diff(&types.Score{Value: 50, Reasons: []string{"fallback"}}, res.Score); diff != "" {
		t.Errorf("score mismatch (-want +got):\n%s", diff)
	}
}

func TestObjections(t *testing.T) {
	gen := reply(`{"ranked":[{"title":"Privacy","why":"Every purchase is tracked."},{"why":"Excludes the unbanked."}]}`)
	ex := newExec(t, Debate, Deps{Generator: gen, Fallacies: slipperySlope()})

	res := ex.Execute(context.Background(), types.IntentObjections, "Ban cash", true)

	if res.Score != nil {
		t.Errorf("expected no score for objections, got %+v", res.Score)
	}
	want := "Privacy: Every purchase is tracked.\nExcludes the unbanked.\nDETECTED FALLACIES:\n⛷️ Slippery slope: Assumes an unlikely chain."
	if diff := cmp.Diff(want, res.Con[0].Payload); diff != "" {
		t.Errorf("CON text mismatch (-want +got):\n%s", diff)
	}
	if res.Reply != Debate.ObjectionsReply {
		t.Errorf("expected objections reply, got %q", res.Reply)
	}
}

func TestPitchObjectionsEmpty(t *testing.T) {
	ex := newExec(t, Pitch, Deps{Generator: reply(`{"ranked":[]}`)})

	res := ex.Execute(context.Background(), types.IntentObjections, "pitch", false)

	if res.Con[0].Payload != noObjections {
		t.Errorf("expected %q, got %v", noObjections, res.Con[0].Payload)
	}
	if res.Reply != Pitch.ObjectionsReply {
		t.Errorf("expected pitch objections reply, got %q", res.Reply)
	}
}

func TestResearch(t *testing.T) {
	cands := []types.Candidate{{Title: "A", URL: "https://a", Snippet: "a"}}
	g := &mockGatherer{fn: func(q string) ([]types.Candidate, error) {
		if q != "Ban cash" {
			t.Errorf("expected subject as query, got %q", q)
		}
		return cands, nil
	}}
	c := &mockClassifier{fn: func(_ string, in []types.Candidate) ([]types.Source, error) {
		return []types.Source{{Title: "A", URL: "https://a", Reliability: types.ReliabilityHigh, Relation: "supports"}}, nil
	}}
	ex := newExec(t, Debate, Deps{Generator: reply(""), Gatherer: g, Classifier: c})

	res := ex.Execute(context.Background(), types.IntentResearch, "Ban cash", false)

	if res.Reply != Debate.ResearchReply {
		t.Errorf("expected research reply, got %q", res.Reply)
	}
	if len(res.Con) != 0 {
		t.Errorf("expected no CON events, got %d", len(res.Con))
	}
	if len(res.Sources) != 1 || res.Sources[0].Reliability != types.ReliabilityHigh {
		t.Errorf("unexpected sources %+v", res.Sources)
	}
}

func TestResearchClassifierFailure(t *testing.T) {
	g := &mockGatherer{fn: func(string) ([]types.Candidate, error) {
		return []types.Candidate{{Title: "A", URL: "https://a", Snippet: "a"}}, nil
	}}
	c := &mockClassifier{fn: func(string, []types.Candidate) ([]types.Source, error) {
		return nil, errors.New("malformed")
	}}
	ex := newExec(t, Pitch, Deps{Generator: reply(""), Gatherer: g, Classifier: c})

	res := ex.Execute(context.Background(), types.IntentResearch, "pitch", false)

	want := []types.Source{{Title: "A", URL: "https://a", Note: "a", Reliability: types.ReliabilityMedium}}
	if diff := cmp.Diff(want, res.Sources); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
	if res.Reply != Pitch.ResearchReply {
		t.Errorf("expected pitch research reply, got %q", res.Reply)
	}
}

func TestResearchUnsupported(t *testing.T) {
	ex := newExec(t, Debate, Deps{Generator: reply("")})
	res := ex.Execute(context.Background(), types.IntentResearch, "x", false)
	if res.Reply != types.ReplyResearchUnsupported {
		t.Errorf("expected unsupported reply, got %q", res.Reply)
	}
}

func TestUnsupportedIntent(t *testing.T) {
	ex := newExec(t, Pitch, Deps{Generator: reply("")})
	res := ex.Execute(context.Background(), types.Intent("offer_actions"), "x", false)
	if res.Reply != "Unsupported intent for pitch executor." {
		t.Errorf("unexpected reply %q", res.Reply)
	}
}

func TestExecuteRecoversPanic(t *testing.T) {
	gen := &mockGenerator{fn: func(_, _ string, _ float32) (string, error) {
		panic("boom")
	}}
	ex := newExec(t, Debate, Deps{Generator: gen})

	res := ex.Execute(context.Background(), types.IntentEvaluate, "x", false)

	if res.Reply != types.ReplyFallback {
		t.Errorf("expected fallback reply, got %q", res.Reply)
	}
}

func TestFallacyBlockWithoutEmoji(t *testing.T) {
	got := FallacyBlock([]types.Fallacy{{Label: "Ad hominem", Why: "Attacks the person."}})
	if got != "DETECTED FALLACIES:\nAd hominem: Attacks the person." {
		t.Errorf("unexpected block %q", got)
	}
	if FallacyBlock(nil) != "" {
		t.Error("expected empty block for no findings")
	}
}

func TestProfileFor(t *testing.T) {
	if ProfileFor(types.ModePitch).Name != "pitch" {
		t.Error("expected pitch profile")
	}
	if ProfileFor(types.ModeDebate).Name != "debate" {
		t.Error("expected debate profile")
	}
	if got := Pitch.Resolve(types.IntentObjections); got != types.IntentPitchObjections {
		t.Errorf("expected objections, got %q", got)
	}
	if got := Debate.Resolve(types.IntentPitchObjections); got != types.IntentObjections {
		t.Errorf("expected give_objections, got %q", got)
	}
}
