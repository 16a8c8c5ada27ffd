// Package policy holds the pure rules applied to each turn: plan step
// guardrails and the explicit keyword override.
package policy

import (
	"github.com/user/debatecoach/internal/types"
)

// RequireFallacyFirst guarantees FALLACY_CHECK sits in the first two steps
// for critique intents. When it does not, every occurrence is removed and a
// single FALLACY_CHECK is prepended.
func RequireFallacyFirst(steps []string, intent types.Intent) []string {
	out := append([]string{}, steps...)
	if intent != types.IntentEvaluate && intent != types.IntentObjections {
		return out
	}
	for i := 0; i < len(out) && i < 2; i++ {
		if out[i] == types.StepFallacyCheck {
			return out
		}
	}
	fixed := make([]string, 0, len(out)+1)
	fixed = append(fixed, types.StepFallacyCheck)
	for _, s := range out {
		if s != types.StepFallacyCheck {
			fixed = append(fixed, s)
		}
	}
	return fixed
}

// OnlyOneExecutor keeps the first EXECUTOR:* step and drops the rest.
// Relative order of everything else is preserved.
func OnlyOneExecutor(steps []string) []string {
	out := make([]string, 0, len(steps))
	seen := false
	for _, s := range steps {
		if types.IsExecutorStep(s) {
			if seen {
				continue
			}
			seen = true
		}
		out = append(out, s)
	}
	return out
}

// Apply runs both guardrails in order.
func Apply(steps []string, intent types.Intent) []string {
	return OnlyOneExecutor(RequireFallacyFirst(steps, intent))
}

// HasStep reports whether step appears in steps.
func HasStep(steps []string, step string) bool {
	for _, s := range steps {
		if s == step {
			return true
		}
	}
	return false
}
