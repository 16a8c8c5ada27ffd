package repair

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/user/debatecoach/internal/types"
)

var fallbackScore = types.Score{Value: 0, Reasons: []string{"fallback"}}

func TestDecodeEvaluation(t *testing.T) {
	v := Parse(`{"bullets":["ignores displacement","no data"],"score":{"value":140,"reasons":["overclaims"]}}`)
	got := DecodeEvaluation(v, fallbackScore)

	want := EvaluationResult{
		Bullets:    []string{"ignores displacement", "no data"},
		Score:      types.Score{Value: 100, Reasons: []string{"overclaims"}},
		HasBullets: true,
		HasScore:   true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeEvaluation mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeEvaluationOversizedScore(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{`{"score":{"value":1e20}}`, 100},
		{`{"score":"1e300"}`, 100},
		{`{"score":"1e400"}`, 100},
		{`{"score":{"value":-1e20}}`, 0},
		{`{"score":{"value":150}}`, 100},
	}
	for _, tt := range tests {
		got := DecodeEvaluation(Parse(tt.raw), fallbackScore)
		if !got.HasScore || got.Score.Value != tt.want {
			t.Errorf("%s: expected score %d, got %+v", tt.raw, tt.want, got.Score)
		}
	}
}

func TestDecodeEvaluationMissingKeys(t *testing.T) {
	got := DecodeEvaluation(Parse("no json here"), fallbackScore)
	if got.Valid() {
		t.Error("expected invalid result for prose")
	}
	if got.Score.Value != 0 || got.Score.Reasons[0] != "fallback" {
		t.Errorf("expected fallback score, got %+v", got.Score)
	}
}

func TestDecodeEvaluationStringScore(t *testing.T) {
	got := DecodeEvaluation(Parse(`{"score":"72/100"}`), fallbackScore)
	if !got.HasScore || got.Score.Value != 72 {
		t.Errorf("expected score 72, got %+v", got)
	}
}

func TestDecodeObjections(t *testing.T) {
	v := Parse(`{"ranked":[{"title":"Displacement","why":"crime moves online"},{"why":"hurts the unbanked"},"bare string",{"title":"only title"}]}`)
	got := DecodeObjections(v)
	want := ObjectionsResult{
		Ranked: []Objection{
			{Title: "Displacement", Why: "crime moves online"},
			{Why: "hurts the unbanked"},
			{Why: "bare string"},
			{Why: "only title"},
		},
		HasRanked: true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeObjections mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeObjectionsBareArray(t *testing.T) {
	got := DecodeObjections(Parse(`[{"why":"a"}]`))
	if !got.Valid() || len(got.Ranked) != 1 {
		t.Errorf("expected one objection from bare array, got %+v", got)
	}
}

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		in   string
		want CommandResult
	}{
		{`{"command":"RUN_PIPELINE","reason":"user asked","plan_steps":["FALLACY_CHECK"]}`,
			CommandResult{Command: types.CommandRunPipeline, Reason: "user asked", PlanSteps: []string{"FALLACY_CHECK"}}},
		{`{"command":"nudge"}`, CommandResult{Command: types.CommandNudge}},
		{`{"command":"DANCE"}`, CommandResult{Command: types.CommandOfferActions, Reason: "fallback"}},
		{`garbage`, CommandResult{Command: types.CommandOfferActions, Reason: "fallback"}},
	}
	for _, tt := range tests {
		got := DecodeCommand(Parse(tt.in))
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("DecodeCommand(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestDecodePlan(t *testing.T) {
	steps, ok := DecodePlan(Parse(`{"plan_steps":["FALLACY_CHECK","EXECUTOR:evaluate_argument"]}`))
	if !ok || len(steps) != 2 {
		t.Errorf("expected 2 steps, got %v", steps)
	}
	if _, ok := DecodePlan(Parse(`{"plan_steps":[]}`)); ok {
		t.Error("expected empty plan to be rejected")
	}
	steps, ok = DecodePlan(Parse(`["SCORE"]`))
	if !ok || steps[0] != "SCORE" {
		t.Errorf("expected bare array plan, got %v", steps)
	}
}

func TestDecodeClaim(t *testing.T) {
	got := DecodeClaim(Parse(`{"original_text":"My claim: banning cash will reduce crime.","normalized":"Banning cash will reduce crime."}`))
	if got.Empty() {
		t.Fatal("expected claim")
	}
	if got.Normalized != "Banning cash will reduce crime." {
		t.Errorf("unexpected normalized %q", got.Normalized)
	}
	if !DecodeClaim(Parse(`{"normalized":"x"}`)).Empty() {
		t.Error("expected claim without original text to be empty")
	}
	if c := DecodeClaim(Parse(`{"original_text":"x"}`)); c.Normalized != "x" {
		t.Errorf("expected normalized to default to original, got %q", c.Normalized)
	}
}

func TestDecodeTriage(t *testing.T) {
	got, ok := DecodeTriage(Parse(`{"intent":"give_objections","has_new_claim":true}`))
	if !ok || got.Intent != types.IntentObjections || !got.HasNewClaim {
		t.Errorf("unexpected triage %+v ok=%v", got, ok)
	}
	got, ok = DecodeTriage(Parse(`{"intent":"research"}`))
	if ok || got.Intent != types.IntentNone {
		t.Errorf("expected fallback triage, got %+v ok=%v", got, ok)
	}
}

func TestDecodeFallacies(t *testing.T) {
	got := DecodeFallacies(Parse(`[{"code":"slippery_slope","label":"Slippery slope","emoji":"🛝","why":"chain of unlikely steps"},{"label":"no reason"},"junk"]`))
	want := []types.Fallacy{{Code: "slippery_slope", Label: "Slippery slope", Emoji: "🛝", Why: "chain of unlikely steps"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeFallacies mismatch (-want +got):\n%s", diff)
	}
	if got := DecodeFallacies(Parse("nothing")); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}

func TestDecodeClassifications(t *testing.T) {
	got := DecodeClassifications(Parse(`[{"url":"https://a","title":"A","relation":"Supports","reliability":"HIGH","tag":"corroborated","note":"n"},{"url":"https://b","reliability":"??","tag":"maybe"},{"title":"no url"}]`))
	want := []types.Source{
		{URL: "https://a", Title: "A", Relation: "supports", Reliability: types.ReliabilityHigh, Tag: types.TagCorroborated, Note: "n"},
		{URL: "https://b", Relation: "neutral", Reliability: types.ReliabilityMedium},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeClassifications mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeSummary(t *testing.T) {
	long := ""
	for i := 0; i < 100; i++ {
		long += "word "
	}
	got, ok := DecodeSummary(Parse(`{"pro_summary":"` + long + `","pro_strength":250,"pro_impression":"bold","con_summary":"weak evidence"}`))
	if !ok {
		t.Fatal("expected summary")
	}
	if n := len([]rune(got.ProSummary)); n > ProSummaryBudget {
		t.Errorf("pro summary exceeds budget: %d", n)
	}
	if got.ProStrength != 100 {
		t.Errorf("expected clamped strength 100, got %d", got.ProStrength)
	}
	if got.ProImpression != NoImpression {
		t.Errorf("expected impression replacement, got %q", got.ProImpression)
	}
	huge, ok := DecodeSummary(Parse(`{"pro_summary":"fine","pro_strength":1e20}`))
	if !ok || huge.ProStrength != 100 {
		t.Errorf("expected oversized strength clamped to 100, got %+v", huge)
	}
	huge, ok = DecodeSummary(Parse(`{"pro_summary":"fine","pro_strength":"1e300"}`))
	if !ok || huge.ProStrength != 100 {
		t.Errorf("expected oversized string strength clamped to 100, got %+v", huge)
	}
	if _, ok := DecodeSummary(Parse(`{}`)); ok {
		t.Error("expected empty summary to be rejected")
	}
}
