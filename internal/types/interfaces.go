package types

import "context"

// SessionStore owns all session state. Mutations on a single session are
// serialized by the implementation.
type SessionStore interface {
	Create(ctx context.Context, mode Mode) (SessionID, error)
	Get(ctx context.Context, id SessionID) (*Session, error)
	AppendPro(ctx context.Context, id SessionID, text string) (Event, error)
	AppendCon(ctx context.Context, id SessionID, event Event) error
	AddSources(ctx context.Context, id SessionID, sources []Source) ([]SourceID, error)
	Export(ctx context.Context, id SessionID) (Columns, error)
	Update(ctx context.Context, id SessionID, fn func(*Session)) error
	List(ctx context.Context) ([]SessionSummary, error)
	Delete(ctx context.Context, id SessionID) error
}

type ClaimExtractor interface {
	Extract(ctx context.Context, text string) (Claim, error)
}

type Triager interface {
	Triage(ctx context.Context, mode Mode, text string) (Triage, error)
}

// CommandDecider returns raw generated text; callers repair it.
type CommandDecider interface {
	Decide(ctx context.Context, mode Mode, text string, flags Flags) (string, error)
}

type Planner interface {
	Plan(ctx context.Context, mode Mode, intent Intent, flags Flags) ([]string, error)
}

type FallacyDetector interface {
	Detect(ctx context.Context, text string) ([]Fallacy, error)
}

type Generator interface {
	Generate(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error)
}

type SourceGatherer interface {
	Gather(ctx context.Context, query string) ([]Candidate, error)
}

type SourceClassifier interface {
	Classify(ctx context.Context, claim string, candidates []Candidate) ([]Source, error)
}

type BackupScorer interface {
	Score(ctx context.Context, claim string) (Score, error)
}
