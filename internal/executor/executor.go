package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/user/debatecoach/internal/prompt"
	"github.com/user/debatecoach/internal/repair"
	"github.com/user/debatecoach/internal/types"
)

const (
	generateTemperature = 0.3
	generateMaxTokens   = 900
)

// Deps are the collaborators an Executor calls. Gatherer, Classifier and
// Scorer may be nil.
type Deps struct {
	Generator  types.Generator
	Prompts    *prompt.Engine
	Fallacies  types.FallacyDetector
	Gatherer   types.SourceGatherer
	Classifier types.SourceClassifier
	Scorer     types.BackupScorer
	Clock      func() time.Time
}

// Executor runs the heavy action for one turn.
type Executor struct {
	profile Profile
	deps    Deps
	retry   repair.RetryPolicy
}

func New(profile Profile, deps Deps) *Executor {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Executor{profile: profile, deps: deps, retry: repair.DefaultRetryPolicy()}
}

func (e *Executor) Profile() Profile { return e.profile }

// Execute runs intent against subject. It never returns an error: failed or
// malformed generation degrades to salvaged or static output, and a panic
// becomes the fallback reply.
func (e *Executor) Execute(ctx context.Context, intent types.Intent, subject string, needFallacy bool) (res types.ExecResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("executor panic", "profile", e.profile.Name, "intent", intent, "panic", r)
			res = types.ExecResult{Reply: types.ReplyFallback}
		}
	}()

	intent = e.profile.Resolve(intent)
	fallacies, checked := e.screen(ctx, subject, needFallacy)
	res = types.ExecResult{Fallacies: fallacies, FallacyChecked: checked}

	switch intent {
	case e.profile.EvaluateIntent:
		score, text := e.evaluate(ctx, subject, fallacies)
		res.Score = &score
		res.Con = []types.Event{e.conEvent(text)}
		res.Reply = e.profile.EvaluateReply
	case e.profile.ObjectionsIntent:
		res.Con = []types.Event{e.conEvent(e.objections(ctx, subject, fallacies))}
		res.Reply = e.profile.ObjectionsReply
	case types.IntentResearch:
		if e.deps.Gatherer == nil {
			res.Reply = types.ReplyResearchUnsupported
			return res
		}
		res.Sources = e.research(ctx, subject)
		res.Reply = e.profile.ResearchReply
	default:
		res.Reply = e.profile.UnsupportedReply
	}
	return res
}

func (e *Executor) screen(ctx context.Context, subject string, need bool) ([]types.Fallacy, bool) {
	if !need || e.deps.Fallacies == nil {
		return []types.Fallacy{}, false
	}
	fs, err := e.deps.Fallacies.Detect(ctx, subject)
	if err != nil {
		slog.Warn("fallacy detection failed", "profile", e.profile.Name, "error", err)
		return []types.Fallacy{}, false
	}
	return DedupeFallacies(fs), true
}

func (e *Executor) evaluate(ctx context.Context, subject string, fallacies []types.Fallacy) (types.Score, string) {
	decode := func(v repair.Value) (repair.EvaluationResult, bool) {
		r := repair.DecodeEvaluation(v, e.profile.defaultScore())
		return r, r.Valid()
	}
	out, raw, err := repair.Retry(ctx, e.retry, generateTemperature, e.attempt(e.profile.EvaluatePrompt, subject), decode)
	if err == nil {
		return out.Score, EvaluationText(out.Score, out.Bullets, fallacies)
	}

	slog.Warn("evaluation output unusable, salvaging", "profile", e.profile.Name, "error", err)
	score := e.backupScore(ctx, subject)
	return score, EvaluationText(score, dashedLines(raw), fallacies)
}

func (e *Executor) backupScore(ctx context.Context, subject string) types.Score {
	backup := types.Score{Value: 0, Reasons: []string{"backup"}}
	if e.deps.Scorer == nil {
		return backup
	}
	score, err := e.deps.Scorer.Score(ctx, subject)
	if err != nil {
		slog.Warn("backup scorer failed", "error", err)
		return backup
	}
	score.Value = repair.Clamp(score.Value, 0, 100)
	return score
}

func (e *Executor) objections(ctx context.Context, subject string, fallacies []types.Fallacy) string {
	decode := func(v repair.Value) (repair.ObjectionsResult, bool) {
		r := repair.DecodeObjections(v)
		return r, r.Valid()
	}
	out, raw, err := repair.Retry(ctx, e.retry, generateTemperature, e.attempt(prompt.Objections, subject), decode)
	if err != nil {
		slog.Warn("objections output unusable, salvaging", "profile", e.profile.Name, "error", err)
		for _, line := range dashedLines(raw) {
			out.Ranked = append(out.Ranked, repair.Objection{Why: line})
		}
	}
	return ObjectionsText(out.Ranked, fallacies)
}

// research returns classified sources. A classifier failure keeps the
// candidates unclassified at medium reliability.
func (e *Executor) research(ctx context.Context, subject string) []types.Source {
	cands, err := e.deps.Gatherer.Gather(ctx, subject)
	if err != nil {
		slog.Warn("source gathering failed", "error", err)
		return []types.Source{}
	}
	if len(cands) == 0 {
		return []types.Source{}
	}
	if e.deps.Classifier != nil {
		srcs, err := e.deps.Classifier.Classify(ctx, subject, cands)
		if err == nil {
			return srcs
		}
		slog.Warn("source classification failed", "error", err)
	}
	srcs := make([]types.Source, 0, len(cands))
	for _, c := range cands {
		srcs = append(srcs, types.Source{
			Title:       c.Title,
			URL:         c.URL,
			Note:        c.Snippet,
			Reliability: types.ReliabilityMedium,
		})
	}
	return srcs
}

// attempt renders name once and returns a generation attempt for it. A
// render failure surfaces as an attempt error.
func (e *Executor) attempt(name prompt.Name, subject string) repair.Attempt {
	sys, user, err := e.deps.Prompts.Render(name, prompt.Data{Mode: e.profile.Name, Text: subject})
	return func(ctx context.Context, temp float32) (string, error) {
		if err != nil {
			return "", fmt.Errorf("render %s: %w", name, err)
		}
		return e.deps.Generator.Generate(ctx, sys, user, temp, generateMaxTokens)
	}
}

func (e *Executor) conEvent(text string) types.Event {
	return types.Event{
		ID:      types.NewEventID(),
		At:      e.deps.Clock().UTC(),
		Column:  types.ColumnCon,
		Payload: text,
	}
}
