// Package executor runs one heavy action per turn for a coaching mode and
// projects the generated output into column events.
package executor

import (
	"github.com/user/debatecoach/internal/prompt"
	"github.com/user/debatecoach/internal/types"
)

// Profile parameterizes the executor for one mode.
type Profile struct {
	Name string

	// EvaluateIntent is the intent that runs the scored critique.
	EvaluateIntent   types.Intent
	EvaluatePrompt   prompt.Name
	ObjectionsIntent types.Intent
	DefaultScore     types.Score

	EvaluateReply    string
	ObjectionsReply  string
	ResearchReply    string
	UnsupportedReply string

	// Aliases maps supervisor intents onto this profile's vocabulary.
	Aliases map[types.Intent]types.Intent
}

// Debate critiques arguments and gathers sources for both sides.
var Debate = Profile{
	Name:             "debate",
	EvaluateIntent:   types.IntentEvaluate,
	EvaluatePrompt:   prompt.Evaluation,
	ObjectionsIntent: types.IntentObjections,
	DefaultScore:     types.Score{Value: 0, Reasons: []string{"fallback"}},
	EvaluateReply:    "I've provided a concise critique, score, and summary in the CON column.",
	ObjectionsReply:  "I've added counter-arguments and fallacy analysis to the CON column.",
	ResearchReply:    "I've gathered relevant sources and summarized them.",
	UnsupportedReply: "Unsupported intent for debate executor.",
	Aliases: map[types.Intent]types.Intent{
		types.IntentPitchObjections: types.IntentObjections,
	},
}

// Pitch gives a brutal first impression of a product pitch.
var Pitch = Profile{
	Name:             "pitch",
	EvaluateIntent:   types.IntentImpression,
	EvaluatePrompt:   prompt.Impression,
	ObjectionsIntent: types.IntentPitchObjections,
	DefaultScore:     types.Score{Value: 50, Reasons: []string{"fallback"}},
	EvaluateReply:    "Brutal first impression added to CON with a score.",
	ObjectionsReply:  "I've added objections and fallacy analysis to the CON column.",
	ResearchReply:    "I've gathered neutral market/analogs/competitor sources and summarized them.",
	UnsupportedReply: "Unsupported intent for pitch executor.",
	Aliases: map[types.Intent]types.Intent{
		types.IntentObjections: types.IntentPitchObjections,
		types.IntentEvaluate:   types.IntentImpression,
	},
}

// ProfileFor returns the profile for mode.
func ProfileFor(mode types.Mode) Profile {
	if mode == types.ModePitch {
		return Pitch
	}
	return Debate
}

// Resolve maps an intent into the profile's vocabulary.
func (p Profile) Resolve(intent types.Intent) types.Intent {
	if mapped, ok := p.Aliases[intent]; ok {
		return mapped
	}
	return intent
}

func (p Profile) defaultScore() types.Score {
	return types.Score{Value: p.DefaultScore.Value, Reasons: append([]string(nil), p.DefaultScore.Reasons...)}
}
