// Package supervisor runs the per-turn state machine: claim capture,
// triage, command selection, guardrails and dispatch to the mode executor.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/user/debatecoach/internal/bus"
	"github.com/user/debatecoach/internal/distill"
	"github.com/user/debatecoach/internal/policy"
	"github.com/user/debatecoach/internal/repair"
	"github.com/user/debatecoach/internal/types"
)

// Executor runs the heavy action of a turn.
type Executor interface {
	Execute(ctx context.Context, intent types.Intent, subject string, needFallacy bool) types.ExecResult
}

// Deps wires the supervisor's collaborators. Summarizer, Bus and Clock are
// optional.
type Deps struct {
	Store      types.SessionStore
	Extractor  types.ClaimExtractor
	Triager    types.Triager
	Decider    types.CommandDecider
	Planner    types.Planner
	Executors  map[types.Mode]Executor
	Summarizer *distill.Summarizer
	Bus        *bus.Hub
	Clock      func() time.Time
}

type Supervisor struct {
	deps Deps
}

func New(deps Deps) *Supervisor {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Supervisor{deps: deps}
}

// turn carries the state of one ProcessTurn call between steps.
type turn struct {
	id         types.SessionID
	mode       types.Mode
	text       string
	newClaim   bool
	claimRaw   string
	flags      types.Flags
	intent     types.Intent
	overridden bool
	cmd        repair.CommandResult
	result     types.TurnResult
}

// ProcessTurn handles one user message for session id. An empty mode uses
// the session's own. The only errors returned are session store failures,
// including state.ErrSessionNotFound; every collaborator failure degrades to
// a static reply.
func (s *Supervisor) ProcessTurn(ctx context.Context, id types.SessionID, mode types.Mode, text string, hints types.Hints) (types.TurnResult, error) {
	sess, err := s.deps.Store.Get(ctx, id)
	if err != nil {
		return types.TurnResult{}, fmt.Errorf("load session: %w", err)
	}
	if mode == "" {
		mode = sess.Mode
	}
	t := &turn{
		id:     id,
		mode:   mode,
		text:   text,
		result: types.TurnResult{Events: []types.Event{}, Fallacies: []types.Fallacy{}},
	}

	if err := s.captureClaim(ctx, t); err != nil {
		return types.TurnResult{}, err
	}
	s.triage(ctx, t, hints)
	s.decide(ctx, t)

	if t.intent.Actionable() {
		if err := s.deps.Store.Update(ctx, id, func(sess *types.Session) { sess.LastIntent = t.intent }); err != nil {
			return types.TurnResult{}, fmt.Errorf("record intent: %w", err)
		}
	}

	if err := s.dispatch(ctx, t); err != nil {
		return types.TurnResult{}, err
	}

	slog.Info("turn processed",
		"session_id", id,
		"mode", mode,
		"intent", t.intent,
		"command", t.cmd.Command,
		"override", t.overridden,
		"events", len(t.result.Events))
	s.publish(t)
	return t.result, nil
}

// ExportColumns returns a snapshot of the session's columns.
func (s *Supervisor) ExportColumns(ctx context.Context, id types.SessionID) (types.Columns, error) {
	cols, err := s.deps.Store.Export(ctx, id)
	if err != nil {
		return types.Columns{}, fmt.Errorf("export columns: %w", err)
	}
	return cols, nil
}

// captureClaim appends an extracted claim to PRO. Without one the previous
// claim stays current.
func (s *Supervisor) captureClaim(ctx context.Context, t *turn) error {
	claim, err := s.deps.Extractor.Extract(ctx, t.text)
	if err != nil {
		slog.Warn("claim extraction failed", "session_id", t.id, "error", err)
		claim = types.Claim{}
	}

	t.newClaim = !claim.Empty()
	if t.newClaim {
		ev, err := s.deps.Store.AppendPro(ctx, t.id, claim.Normalized)
		if err != nil {
			return fmt.Errorf("append claim: %w", err)
		}
		t.result.Events = append(t.result.Events, ev)
	}

	err = s.deps.Store.Update(ctx, t.id, func(sess *types.Session) {
		sess.HasNewClaimThisTurn = t.newClaim
		if t.newClaim {
			sess.LastClaimRaw = claim.Original
			sess.DidFallacyOnThisClaim = false
		}
		t.claimRaw = sess.LastClaimRaw
		t.flags = sess.Flags()
	})
	if err != nil {
		return fmt.Errorf("update claim flags: %w", err)
	}
	return nil
}

// triage classifies the request, then lets an explicit hint or keyword
// override the classification.
func (s *Supervisor) triage(ctx context.Context, t *turn, hints types.Hints) {
	tr, err := s.deps.Triager.Triage(ctx, t.mode, t.text)
	if err != nil {
		slog.Warn("triage failed", "session_id", t.id, "error", err)
		tr = types.Triage{Intent: types.IntentNone}
	}
	t.intent = tr.Intent
	t.flags.TriageIntent = tr.Intent

	if hint := types.ParseIntent(string(hints.Intent)); hint.Actionable() {
		t.intent, t.overridden = hint, true
		return
	}
	if intent, ok := policy.Override(t.text); ok {
		t.intent, t.overridden = intent, true
	}
}

// decide selects the command. An override forces RUN_PIPELINE without
// consulting the decider.
func (s *Supervisor) decide(ctx context.Context, t *turn) {
	if t.overridden {
		t.cmd = repair.CommandResult{
			Command:   types.CommandRunPipeline,
			Reason:    "explicit request",
			PlanSteps: []string{types.StepFallacyCheck},
		}
		return
	}

	raw, err := s.deps.Decider.Decide(ctx, t.mode, t.text, t.flags)
	if err != nil {
		slog.Warn("command decision failed", "session_id", t.id, "error", err)
		t.cmd = repair.CommandResult{Command: types.CommandOfferActions, Reason: "fallback"}
	} else {
		t.cmd = repair.DecodeCommand(repair.Parse(raw))
	}

	if t.newClaim {
		switch t.cmd.Command {
		case "", types.CommandOfferActions, types.CommandNudge:
			t.cmd = repair.CommandResult{Command: types.CommandUpdateProOnly, Reason: "new claim captured"}
		}
	}
}

func (s *Supervisor) dispatch(ctx context.Context, t *turn) error {
	if t.newClaim && t.cmd.Command == types.CommandRunPipeline && t.intent != types.IntentResearch && !t.overridden {
		t.result.Reply = types.ReplyClarify
		return nil
	}

	switch t.cmd.Command {
	case types.CommandNudge:
		if t.newClaim {
			t.result.Reply = types.ReplyClarify
		} else {
			t.result.Reply = types.ReplyNudge
		}
	case types.CommandOfferActions:
		t.result.Reply = types.ReplyMenu
	case types.CommandUpdateProOnly:
		if len(t.cmd.PlanSteps) == 0 {
			t.result.Reply = types.ReplyClarify
		} else {
			t.result.Reply = types.ReplyFallback
		}
	case types.CommandRunPipeline:
		return s.runPipeline(ctx, t)
	default:
		t.result.Reply = types.ReplyFallback
	}
	return nil
}

func (s *Supervisor) runPipeline(ctx context.Context, t *turn) error {
	steps, err := s.deps.Planner.Plan(ctx, t.mode, t.intent, t.flags)
	if err != nil {
		slog.Warn("planner failed", "session_id", t.id, "error", err)
	}
	if t.overridden && !policy.HasStep(steps, types.StepFallacyCheck) {
		steps = append([]string{types.StepFallacyCheck}, steps...)
	}
	steps = policy.Apply(steps, t.intent)
	t.cmd.PlanSteps = steps
	needFallacy := policy.HasStep(steps, types.StepFallacyCheck)

	ex, ok := s.deps.Executors[t.mode]
	if !ok {
		slog.Error("no executor for mode", "mode", t.mode)
		t.result.Reply = types.ReplyFallback
		return nil
	}

	subject := t.claimRaw
	if subject == "" {
		subject = t.text
	}
	res := ex.Execute(ctx, t.intent, subject, needFallacy)

	for _, ev := range res.Con {
		if err := s.deps.Store.AppendCon(ctx, t.id, ev); err != nil {
			return fmt.Errorf("append critique: %w", err)
		}
		ev.Column = types.ColumnCon
		t.result.Events = append(t.result.Events, ev)
	}

	if res.Sources != nil {
		added, err := s.addSources(ctx, t.id, res.Sources)
		if err != nil {
			return err
		}
		t.result.Events = append(t.result.Events, types.Event{
			ID:      sourcesEventID(added),
			At:      s.deps.Clock().UTC(),
			Column:  types.ColumnSources,
			Payload: map[string]any{"added": added},
		})
	}

	err = s.deps.Store.Update(ctx, t.id, func(sess *types.Session) {
		if res.Score != nil {
			score := *res.Score
			sess.LastScore = &score
		}
		if res.FallacyChecked {
			sess.DidFallacyOnThisClaim = true
		}
	})
	if err != nil {
		return fmt.Errorf("update turn flags: %w", err)
	}

	t.result.Reply = res.Reply
	t.result.Score = res.Score
	if res.Fallacies != nil {
		t.result.Fallacies = res.Fallacies
	}
	return nil
}

// addSources stores sources and returns only those that were new to the
// session, with their assigned ids.
func (s *Supervisor) addSources(ctx context.Context, id types.SessionID, sources []types.Source) ([]types.Source, error) {
	ids, err := s.deps.Store.AddSources(ctx, id, sources)
	if err != nil {
		return nil, fmt.Errorf("add sources: %w", err)
	}
	added := []types.Source{}
	if len(ids) == 0 {
		return added, nil
	}
	cols, err := s.deps.Store.Export(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("export sources: %w", err)
	}
	want := make(map[types.SourceID]bool, len(ids))
	for _, sid := range ids {
		want[sid] = true
	}
	for _, src := range cols.Sources {
		if want[src.ID] {
			added = append(added, src)
		}
	}
	return added, nil
}

// sourcesEventID hashes the added URLs so the same additions always carry
// the same id.
func sourcesEventID(added []types.Source) types.EventID {
	urls := make([]string, len(added))
	for i, src := range added {
		urls[i] = src.URL
	}
	return types.EventID(types.StableID(string(types.ColumnSources), strings.Join(urls, "\n")))
}

func (s *Supervisor) publish(t *turn) {
	if s.deps.Bus == nil {
		return
	}
	s.deps.Bus.Publish(bus.Update{
		SessionID: t.id,
		Kind:      bus.KindTurn,
		At:        s.deps.Clock().UTC(),
		Reply:     t.result.Reply,
		Events:    t.result.Events,
	})
}
