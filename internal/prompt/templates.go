package prompt

// Name identifies a prompt used by one call site.
type Name string

const (
	ExtractClaim Name = "extract_claim"
	Triage       Name = "triage"
	Supervisor   Name = "supervisor"
	Planner      Name = "planner"
	Fallacies    Name = "fallacies"
	Evaluation   Name = "evaluation"
	Impression   Name = "impression"
	Objections   Name = "objections"
	Classify     Name = "research_classify"
	Score        Name = "score"
	Summary      Name = "summary"
)

// Template is a system prompt plus a text/template user prompt.
type Template struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// Data is the union of fields the user templates may reference.
type Data struct {
	Mode        string
	Text        string
	Intent      string
	Flags       string
	Sources     string
	Sections    string
	FallacyHint string
}

// Defaults are the built-in prompts. A YAML overrides file may replace any
// of them by name.
var Defaults = map[Name]Template{
	ExtractClaim: {
		System: "Extract the claim/pitch from user's text. Reply JSON only.",
		User: `Decide whether the user's message states a position, argument or pitch.
If it does, return {"original_text": "<the claim as written>", "normalized": "<one clear sentence>"}.
If the message is only a command or question (for example "evaluate it" or "give objections"), return {}.

USER:
{{.Text}}`,
	},
	Triage: {
		System: "You are TRIAGE. Reply JSON ONLY.",
		User: `Classify the user's request.
intent is one of: evaluate_argument, give_objections, research, none.
has_new_claim is true when the message introduces a new claim or pitch.
Return {"intent": "...", "has_new_claim": true|false}.

MODE: {{.Mode}}
USER:
{{.Text}}`,
	},
	Supervisor: {
		System: "You are Supervisor. Output JSON command ONLY.",
		User: `Choose the next command for a debate/pitch coaching turn.
Commands:
- NUDGE: no claim is available yet; ask the user for one.
- OFFER_ACTIONS: a claim exists but the user gave no clear instruction.
- UPDATE_PRO_ONLY: the user only stated or refined a claim.
- RUN_PIPELINE: the user asked for an evaluation, objections or research.
Return {"command": "...", "reason": "<short reason>"}.

MODE: {{.Mode}}
USER:
{{.Text}}

SESSION_FLAGS: {{.Flags}}`,
	},
	Planner: {
		System: "You are PLANNER. Return JSON ONLY.",
		User: `Produce the ordered plan steps for this turn.
Allowed steps: FALLACY_CHECK, EXECUTOR:<intent>, SCORE, SUGGEST_NEXT, research.
Use exactly one EXECUTOR step. Critique intents start with FALLACY_CHECK.
Return {"plan_steps": [...]}.

MODE: {{.Mode}}
INTENT: {{.Intent}}
FLAGS: {{.Flags}}`,
	},
	Fallacies: {
		System: "You detect fallacies. Reply JSON ONLY as a list.",
		User: `List the logical fallacies in the text. Return [] when there are none.
Each item: {"code": "snake_case_code", "label": "Human label", "emoji": "one emoji", "why": "one sentence", "span": "short quote"}.

TEXT:
{{.Text}}`,
	},
	Evaluation: {
		System: "You provide critique and a strength score. JSON only.",
		User: `Critique the claim in 3-6 short bullets and score its strength from 0 to 100.
Return {"bullets": ["..."], "score": {"value": 0-100, "reasons": ["one-line summary", "..."]}}.

CLAIM:
{{.Text}}`,
	},
	Impression: {
		System: "You critique a pitch harshly. JSON only.",
		User: `Give a brutal first impression of the pitch in 3-6 short bullets and score it from 0 to 100.
Return {"bullets": ["..."], "score": {"value": 0-100, "reasons": ["one-line summary", "..."]}}.

PITCH:
{{.Text}}`,
	},
	Objections: {
		System: "You produce ranked counter-arguments. JSON only.",
		User: `List the strongest objections, most damaging first.
Return {"ranked": [{"title": "short title", "why": "one or two sentences"}]}.

CLAIM:
{{.Text}}`,
	},
	Classify: {
		System: "Classify sources relative to claim. Reply JSON list.",
		User: `For each source decide how it relates to the claim.
Return a list of {"url": "...", "title": "...", "relation": "supports|challenges|neutral",
"reliability": "high|medium|low", "tag": "corroborated|refuted|disputed|unverifiable", "note": "one sentence"}.
Never invent urls.

CLAIM:
{{.Text}}

SOURCES:
{{.Sources}}`,
	},
	Score: {
		System: "Evaluate strength concisely. Return JSON with bullets + score.",
		User: `Score the claim's strength from 0 to 100.
Return {"bullets": ["..."], "score": {"value": 0-100, "reasons": ["..."]}}.

CLAIM:
{{.Text}}`,
	},
	Summary: {
		System: "You condense coaching notes into two column entries. JSON only.",
		User: `Summarize the user's position and the critique.
Return {"pro_summary": "<=280 chars", "pro_strength": 0-100, "pro_impression": "2-6 words", "con_summary": "<=280 chars"}.

USER:
{{.Text}}

NOTES:
{{.Sections}}

FALLACIES:
{{.FallacyHint}}`,
	},
}
