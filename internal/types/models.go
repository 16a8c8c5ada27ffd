package types

import (
	"fmt"
	"strings"
	"time"
)

type Mode string

const (
	ModeDebate Mode = "debate"
	ModePitch  Mode = "pitch"
)

// ParseMode accepts the canonical mode names and a few aliases used by clients.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "debate", "debate_counter":
		return ModeDebate, nil
	case "pitch", "pitch_objection":
		return ModePitch, nil
	default:
		return "", fmt.Errorf("unknown mode: %s", s)
	}
}

type Column string

const (
	ColumnPro     Column = "PRO"
	ColumnCon     Column = "CON"
	ColumnSources Column = "SOURCES"
)

type Intent string

const (
	IntentEvaluate   Intent = "evaluate_argument"
	IntentObjections Intent = "give_objections"
	IntentResearch   Intent = "research"
	IntentNone       Intent = "none"

	// Pitch executor vocabulary.
	IntentPitchObjections Intent = "objections"
	IntentImpression      Intent = "ruthless_impression"
)

// Actionable reports whether the intent names a user-facing action.
func (i Intent) Actionable() bool {
	switch i {
	case IntentEvaluate, IntentObjections, IntentResearch:
		return true
	}
	return false
}

// ParseIntent maps free text to a known intent, returning IntentNone otherwise.
func ParseIntent(s string) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(s))) {
	case IntentEvaluate:
		return IntentEvaluate
	case IntentObjections, IntentPitchObjections:
		return IntentObjections
	case IntentResearch:
		return IntentResearch
	}
	return IntentNone
}

type Command string

const (
	CommandNudge         Command = "NUDGE"
	CommandOfferActions  Command = "OFFER_ACTIONS"
	CommandUpdateProOnly Command = "UPDATE_PRO_ONLY"
	CommandRunPipeline   Command = "RUN_PIPELINE"
)

// Plan step vocabulary.
const (
	StepFallacyCheck = "FALLACY_CHECK"
	StepScore        = "SCORE"
	StepSuggestNext  = "SUGGEST_NEXT"
	StepResearch     = "research"
	ExecutorPrefix   = "EXECUTOR:"
)

func ExecutorStep(intent Intent) string {
	return ExecutorPrefix + string(intent)
}

func IsExecutorStep(step string) bool {
	return strings.HasPrefix(step, ExecutorPrefix)
}

type Reliability string

const (
	ReliabilityHigh   Reliability = "high"
	ReliabilityMedium Reliability = "medium"
	ReliabilityLow    Reliability = "low"
)

type EvidenceTag string

const (
	TagCorroborated EvidenceTag = "corroborated"
	TagRefuted      EvidenceTag = "refuted"
	TagDisputed     EvidenceTag = "disputed"
	TagUnverifiable EvidenceTag = "unverifiable"
)

// Event is one entry in a column. Payload is either a string or a
// structured map and is treated as immutable once appended.
type Event struct {
	ID      EventID   `json:"id"`
	At      time.Time `json:"ts"`
	Column  Column    `json:"column"`
	Payload any       `json:"payload"`
}

type Source struct {
	ID          SourceID    `json:"sid"`
	Title       string      `json:"title"`
	URL         string      `json:"url"`
	Note        string      `json:"note,omitempty"`
	Relation    string      `json:"relation,omitempty"`
	Reliability Reliability `json:"reliability"`
	Tag         EvidenceTag `json:"tag,omitempty"`
}

type Fallacy struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	Emoji string `json:"emoji,omitempty"`
	Why   string `json:"why"`
	Span  string `json:"span,omitempty"`
}

type Score struct {
	Value   int      `json:"value"`
	Reasons []string `json:"reasons"`
}

type Claim struct {
	Original   string `json:"original_text"`
	Normalized string `json:"normalized"`
}

func (c Claim) Empty() bool {
	return strings.TrimSpace(c.Original) == "" || strings.TrimSpace(c.Normalized) == ""
}

type Triage struct {
	Intent      Intent `json:"intent"`
	HasNewClaim bool   `json:"has_new_claim"`
}

// Flags is the per-turn state handed to the command decider and planner.
type Flags struct {
	DidFallacyOnThisClaim bool   `json:"did_fallacy_on_this_claim"`
	LastIntent            Intent `json:"last_intent,omitempty"`
	HasNewClaimThisTurn   bool   `json:"has_new_claim_this_turn"`
	HasLastClaim          bool   `json:"has_last_claim"`
	TriageIntent          Intent `json:"triage_intent,omitempty"`
}

// Candidate is an unclassified search hit.
type Candidate struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Hints carries explicit caller direction for a turn.
type Hints struct {
	Intent Intent
}

type TurnResult struct {
	Reply     string    `json:"chat_reply"`
	Events    []Event   `json:"events"`
	Score     *Score    `json:"score,omitempty"`
	Fallacies []Fallacy `json:"fallacies"`
}

type Columns struct {
	Pro     []Event  `json:"PRO"`
	Con     []Event  `json:"CON"`
	Sources []Source `json:"SOURCES"`
}

type Session struct {
	ID                    SessionID `json:"session_id"`
	Mode                  Mode      `json:"mode"`
	Pro                   []Event   `json:"pro"`
	Con                   []Event   `json:"con"`
	Sources               []Source  `json:"sources"`
	LastClaimRaw          string    `json:"last_claim_raw,omitempty"`
	LastIntent            Intent    `json:"last_intent,omitempty"`
	LastScore             *Score    `json:"last_score,omitempty"`
	HasNewClaimThisTurn   bool      `json:"has_new_claim_this_turn"`
	DidFallacyOnThisClaim bool      `json:"did_fallacy_on_this_claim"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Flags projects the session state into the decider's flag set.
func (s *Session) Flags() Flags {
	return Flags{
		DidFallacyOnThisClaim: s.DidFallacyOnThisClaim,
		LastIntent:            s.LastIntent,
		HasNewClaimThisTurn:   s.HasNewClaimThisTurn,
		HasLastClaim:          s.LastClaimRaw != "",
	}
}

type SessionSummary struct {
	ID        SessionID `json:"session_id"`
	Mode      Mode      `json:"mode"`
	Pro       int       `json:"pro"`
	Con       int       `json:"con"`
	Sources   int       `json:"sources"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExecResult is an executor's output for one turn. Con holds events ready to
// append; Sources are classified but not yet deduplicated against the
// session.
type ExecResult struct {
	Reply          string
	Con            []Event
	Sources        []Source
	Score          *Score
	Fallacies      []Fallacy
	FallacyChecked bool
}
