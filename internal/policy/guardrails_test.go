package policy

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/user/debatecoach/internal/types"
)

func TestRequireFallacyFirst(t *testing.T) {
	tests := []struct {
		name   string
		steps  []string
		intent types.Intent
		want   []string
	}{
		{"already first", []string{"FALLACY_CHECK", "EXECUTOR:evaluate_argument"}, types.IntentEvaluate,
			[]string{"FALLACY_CHECK", "EXECUTOR:evaluate_argument"}},
		{"second is fine", []string{"SCORE", "FALLACY_CHECK", "EXECUTOR:evaluate_argument"}, types.IntentEvaluate,
			[]string{"SCORE", "FALLACY_CHECK", "EXECUTOR:evaluate_argument"}},
		{"missing", []string{"EXECUTOR:give_objections", "SUGGEST_NEXT"}, types.IntentObjections,
			[]string{"FALLACY_CHECK", "EXECUTOR:give_objections", "SUGGEST_NEXT"}},
		{"late occurrence moved", []string{"EXECUTOR:evaluate_argument", "SCORE", "FALLACY_CHECK", "FALLACY_CHECK"}, types.IntentEvaluate,
			[]string{"FALLACY_CHECK", "EXECUTOR:evaluate_argument", "SCORE"}},
		{"research untouched", []string{"EXECUTOR:research"}, types.IntentResearch,
			[]string{"EXECUTOR:research"}},
		{"empty", nil, types.IntentEvaluate, []string{"FALLACY_CHECK"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RequireFallacyFirst(tt.steps, tt.intent)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("RequireFallacyFirst mismatch (-want +got):\n%s", diff)
			}
			again := RequireFallacyFirst(got, tt.intent)
			if diff := cmp.Diff(got, again); diff != "" {
				t.Errorf("RequireFallacyFirst not idempotent (-once +twice):\n%s", diff)
			}
		})
	}
}

func TestRequireFallacyFirstPosition(t *testing.T) {
	plans := [][]string{
		{},
		{"SCORE", "SUGGEST_NEXT", "FALLACY_CHECK"},
		{"EXECUTOR:evaluate_argument", "EXECUTOR:give_objections"},
		{"SCORE", "FALLACY_CHECK"},
	}
	for _, intent := range []types.Intent{types.IntentEvaluate, types.IntentObjections} {
		for _, p := range plans {
			got := RequireFallacyFirst(p, intent)
			idx := -1
			for i, s := range got {
				if s == types.StepFallacyCheck {
					idx = i
					break
				}
			}
			if idx != 0 && idx != 1 {
				t.Errorf("intent %s plan %v: FALLACY_CHECK at %d in %v", intent, p, idx, got)
			}
		}
	}
}

func TestRequireFallacyFirstDoesNotAlias(t *testing.T) {
	in := []string{"SCORE", "FALLACY_CHECK"}
	out := RequireFallacyFirst(in, types.IntentResearch)
	out[0] = "changed"
	if in[0] != "SCORE" {
		t.Error("output aliases input")
	}
}

func TestOnlyOneExecutor(t *testing.T) {
	tests := []struct {
		name  string
		steps []string
		want  []string
	}{
		{"none", []string{"FALLACY_CHECK", "SCORE"}, []string{"FALLACY_CHECK", "SCORE"}},
		{"one", []string{"FALLACY_CHECK", "EXECUTOR:research"}, []string{"FALLACY_CHECK", "EXECUTOR:research"}},
		{"three", []string{"EXECUTOR:a", "SCORE", "EXECUTOR:b", "SUGGEST_NEXT", "EXECUTOR:c"},
			[]string{"EXECUTOR:a", "SCORE", "SUGGEST_NEXT"}},
		{"first not leading", []string{"FALLACY_CHECK", "EXECUTOR:give_objections", "EXECUTOR:evaluate_argument", "SCORE"},
			[]string{"FALLACY_CHECK", "EXECUTOR:give_objections", "SCORE"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OnlyOneExecutor(tt.steps)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("OnlyOneExecutor mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(got, OnlyOneExecutor(got)); diff != "" {
				t.Errorf("OnlyOneExecutor not idempotent:\n%s", diff)
			}
		})
	}
}

func TestOnlyOneExecutorKeepsFirstPosition(t *testing.T) {
	for k := 1; k <= 4; k++ {
		steps := []string{"SCORE"}
		for i := 0; i < k; i++ {
			steps = append(steps, fmt.Sprintf("EXECUTOR:%d", i), "SUGGEST_NEXT")
		}
		got := OnlyOneExecutor(steps)
		count := 0
		for i, s := range got {
			if types.IsExecutorStep(s) {
				count++
				if i != 1 || s != "EXECUTOR:0" {
					t.Errorf("k=%d: expected EXECUTOR:0 at index 1, got %s at %d", k, s, i)
				}
			}
		}
		if count != 1 {
			t.Errorf("k=%d: expected exactly one executor, got %d", k, count)
		}
		if len(got) != 1+1+k {
			t.Errorf("k=%d: expected %d steps, got %v", k, 2+k, got)
		}
	}
}

func TestApply(t *testing.T) {
	got := Apply([]string{"EXECUTOR:evaluate_argument", "EXECUTOR:research", "SCORE"}, types.IntentEvaluate)
	want := []string{"FALLACY_CHECK", "EXECUTOR:evaluate_argument", "SCORE"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Apply mismatch (-want +got):\n%s", diff)
	}
}
