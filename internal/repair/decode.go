package repair

import (
	"strings"

	"github.com/user/debatecoach/internal/types"
)

// Field budgets for the summarized column update.
const (
	ProSummaryBudget = 280
	ConSummaryBudget = 280
	MinImpression    = 2
	MaxImpression    = 6
	NoImpression     = "-"
)

// EvaluationResult is the repaired output of a critique call.
type EvaluationResult struct {
	Bullets    []string
	Score      types.Score
	HasBullets bool
	HasScore   bool
}

// Valid reports whether at least one of the expected keys was present.
func (r EvaluationResult) Valid() bool {
	return r.HasBullets || r.HasScore
}

// DecodeEvaluation reads {bullets[], score{value, reasons[]}}. A missing
// score falls back to the given default; values are clamped to [0,100].
func DecodeEvaluation(v Value, fallback types.Score) EvaluationResult {
	m := v.Object()
	res := EvaluationResult{Score: fallback}
	res.Bullets, res.HasBullets = stringList(m, "bullets")

	if sc, ok := object(m, "score"); ok {
		res.HasScore = true
		if n, ok := integer(sc, "value"); ok {
			res.Score.Value = Clamp(n, 0, 100)
		}
		if reasons, ok := stringList(sc, "reasons"); ok && len(reasons) > 0 {
			res.Score.Reasons = reasons
		}
	} else if n, ok := integer(m, "score"); ok {
		res.HasScore = true
		res.Score.Value = Clamp(n, 0, 100)
	}
	if res.Score.Reasons == nil {
		res.Score.Reasons = []string{}
	}
	return res
}

// Objection is one ranked counter-argument.
type Objection struct {
	Title string
	Why   string
}

// ObjectionsResult is the repaired output of an objections call.
type ObjectionsResult struct {
	Ranked    []Objection
	HasRanked bool
}

func (r ObjectionsResult) Valid() bool {
	return r.HasRanked
}

// DecodeObjections reads {ranked: [{title?, why}]}. A bare array is
// accepted as the ranked list.
func DecodeObjections(v Value) ObjectionsResult {
	var raw []any
	var res ObjectionsResult
	if v.IsArray() {
		raw, res.HasRanked = v.Array(), true
	} else {
		m := v.Object()
		for _, key := range []string{"ranked", "objections", "counters"} {
			if list, ok := m[key].([]any); ok {
				raw, res.HasRanked = list, true
				break
			}
		}
	}
	for _, item := range raw {
		switch t := item.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				res.Ranked = append(res.Ranked, Objection{Why: s})
			}
		case map[string]any:
			o := Objection{Title: str(t, "title"), Why: str(t, "why")}
			if o.Why == "" {
				o.Why = str(t, "text")
			}
			if o.Why == "" && o.Title != "" {
				o.Why, o.Title = o.Title, ""
			}
			if o.Why != "" {
				res.Ranked = append(res.Ranked, o)
			}
		}
	}
	return res
}

// CommandResult is the repaired output of the command decider.
type CommandResult struct {
	Command   types.Command
	Reason    string
	PlanSteps []string
}

// DecodeCommand reads {command, reason, plan_steps?}. Unknown or missing
// commands fall back to OFFER_ACTIONS.
func DecodeCommand(v Value) CommandResult {
	m := v.Object()
	res := CommandResult{Command: types.CommandOfferActions, Reason: "fallback"}
	switch c := types.Command(strings.ToUpper(str(m, "command"))); c {
	case types.CommandNudge, types.CommandOfferActions, types.CommandUpdateProOnly, types.CommandRunPipeline:
		res.Command = c
		res.Reason = str(m, "reason")
	default:
		return res
	}
	res.PlanSteps, _ = stringList(m, "plan_steps")
	return res
}

// DecodePlan reads {plan_steps: [...]}, or a bare array of steps. ok is
// false when no non-empty step list was found.
func DecodePlan(v Value) (steps []string, ok bool) {
	if v.IsArray() {
		steps, _ = stringList(map[string]any{"s": v.Array()}, "s")
	} else {
		steps, _ = stringList(v.Object(), "plan_steps")
	}
	return steps, len(steps) > 0
}

// DecodeClaim reads {original_text, normalized}. A missing normalized form
// defaults to the original text; a missing original yields an empty claim.
func DecodeClaim(v Value) types.Claim {
	m := v.Object()
	c := types.Claim{Original: str(m, "original_text"), Normalized: str(m, "normalized")}
	if c.Original == "" {
		return types.Claim{}
	}
	if c.Normalized == "" {
		c.Normalized = c.Original
	}
	return c
}

// DecodeTriage reads {intent, has_new_claim}. Both keys are required.
func DecodeTriage(v Value) (types.Triage, bool) {
	m := v.Object()
	_, hasIntent := m["intent"]
	claim, hasClaim := boolean(m, "has_new_claim")
	if !hasIntent || !hasClaim {
		return types.Triage{Intent: types.IntentNone}, false
	}
	return types.Triage{Intent: types.ParseIntent(str(m, "intent")), HasNewClaim: claim}, true
}

// DecodeFallacies reads a list of {code, label, emoji, why, span}, either
// bare or under a "fallacies" key. Entries without a label or reason are
// dropped.
func DecodeFallacies(v Value) []types.Fallacy {
	raw := v.Array()
	if raw == nil {
		raw, _ = v.Object()["fallacies"].([]any)
	}
	out := []types.Fallacy{}
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		f := types.Fallacy{
			Code:  str(m, "code"),
			Label: str(m, "label"),
			Emoji: str(m, "emoji"),
			Why:   str(m, "why"),
			Span:  str(m, "span"),
		}
		if f.Why == "" {
			f.Why = str(m, "because")
		}
		if f.Label == "" {
			f.Label = f.Code
		}
		if f.Code == "" {
			f.Code = strings.ToLower(strings.ReplaceAll(f.Label, " ", "_"))
		}
		if f.Label == "" || f.Why == "" {
			continue
		}
		out = append(out, f)
	}
	return out
}

// DecodeClassifications reads the classifier's list of sources. Reliability
// defaults to medium; unknown evidence tags are cleared.
func DecodeClassifications(v Value) []types.Source {
	raw := v.Array()
	if raw == nil {
		raw, _ = v.Object()["sources"].([]any)
	}
	out := []types.Source{}
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		src := types.Source{
			Title:       str(m, "title"),
			URL:         str(m, "url"),
			Note:        str(m, "note"),
			Relation:    relation(str(m, "relation")),
			Reliability: reliability(str(m, "reliability")),
			Tag:         evidenceTag(str(m, "tag")),
		}
		if src.Note == "" {
			src.Note = str(m, "summary")
		}
		if src.URL == "" {
			continue
		}
		out = append(out, src)
	}
	return out
}

func relation(s string) string {
	switch s = strings.ToLower(s); s {
	case "supports", "challenges", "neutral":
		return s
	}
	return "neutral"
}

func reliability(s string) types.Reliability {
	switch r := types.Reliability(strings.ToLower(s)); r {
	case types.ReliabilityHigh, types.ReliabilityMedium, types.ReliabilityLow:
		return r
	}
	return types.ReliabilityMedium
}

func evidenceTag(s string) types.EvidenceTag {
	switch t := types.EvidenceTag(strings.ToLower(s)); t {
	case types.TagCorroborated, types.TagRefuted, types.TagDisputed, types.TagUnverifiable:
		return t
	}
	return ""
}

// Summary is the condensed two-column update.
type Summary struct {
	ProSummary    string `json:"pro_summary"`
	ProStrength   int    `json:"pro_strength"`
	ProImpression string `json:"pro_impression"`
	ConSummary    string `json:"con_summary"`
}

// DecodeSummary validates {pro_summary, pro_strength, pro_impression,
// con_summary} against the field budgets. ok is false when neither summary
// is present.
func DecodeSummary(v Value) (Summary, bool) {
	m := v.Object()
	s := Summary{
		ProSummary:    Truncate(str(m, "pro_summary"), ProSummaryBudget),
		ConSummary:    Truncate(str(m, "con_summary"), ConSummaryBudget),
		ProImpression: WordBounds(str(m, "pro_impression"), MinImpression, MaxImpression, NoImpression),
	}
	if n, ok := integer(m, "pro_strength"); ok {
		s.ProStrength = Clamp(n, 0, 100)
	}
	return s, s.ProSummary != "" || s.ConSummary != ""
}
