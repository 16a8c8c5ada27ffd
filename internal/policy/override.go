package policy

import (
	"strings"

	"github.com/user/debatecoach/internal/types"
)

// Rule maps a family of explicit user phrases to an intent.
type Rule struct {
	Intent   types.Intent
	Keywords []string
}

// DefaultRules are evaluated in order; the first family with a matching
// keyword wins.
var DefaultRules = []Rule{
	{Intent: types.IntentEvaluate, Keywords: []string{"evaluate_argument", "evaluate it", "evaluate", "critique", "score it", "review"}},
	{Intent: types.IntentObjections, Keywords: []string{"give_objections", "objections", "counter", "refute", "rebut"}},
	{Intent: types.IntentResearch, Keywords: []string{"research"}},
}

// Override scans text for an explicit action request using DefaultRules.
func Override(text string) (types.Intent, bool) {
	return MatchRules(DefaultRules, text)
}

// MatchRules returns the intent of the first rule whose keyword occurs in
// text, case-insensitively.
func MatchRules(rules []Rule, text string) (types.Intent, bool) {
	t := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.Keywords {
			if strings.Contains(t, kw) {
				return r.Intent, true
			}
		}
	}
	return types.IntentNone, false
}
