package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/debatecoach/internal/types"
)

var errGatewayNotStarted = errors.New("gateway not started")

// TurnProcessor runs one turn against a session.
type TurnProcessor interface {
	ProcessTurn(ctx context.Context, id types.SessionID, mode types.Mode, text string, hints types.Hints) (types.TurnResult, error)
}

// Gateway orchestrates inbound messages into turns. Each message is wrapped
// in a Run and queued on its session's lane, so turns for one session never
// overlap.
type Gateway struct {
	sessions types.SessionStore
	turns    TurnProcessor
	Queue    *Queue

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Gateway with the given concurrency limit for simultaneous
// turn processing across sessions.
func New(sessions types.SessionStore, turns TurnProcessor, maxConcurrent ...int64) *Gateway {
	var concurrency int64 = 2
	if len(maxConcurrent) > 0 && maxConcurrent[0] > 0 {
		concurrency = maxConcurrent[0]
	}
	g := &Gateway{
		sessions: sessions,
		turns:    turns,
		Queue:    NewQueue(concurrency),
	}
	g.Queue.SetProcessor(g.process)
	return g
}

// Start initialises the gateway's context and starts the internal queue.
func (g *Gateway) Start(ctx context.Context) {
	g.ctx, g.cancel = context.WithCancel(ctx)
	g.Queue.Start(g.ctx)
}

// Stop cancels the gateway context and stops the queue, waiting for
// in-flight turns to finish.
func (g *Gateway) Stop() {
	if g.cancel != nil {
		g.cancel()
	}
	g.Queue.Stop()
}

// RunOption configures optional behavior on a Run.
type RunOption func(*Run)

// WithOnComplete sets a callback invoked when the turn finishes.
func WithOnComplete(fn func(types.TurnResult, error)) RunOption {
	return func(r *Run) { r.OnComplete = fn }
}

// WithContext runs the turn under ctx instead of the gateway's context.
func WithContext(ctx context.Context) RunOption {
	return func(r *Run) { r.Ctx = ctx }
}

// Submit queues a turn and returns without waiting for it. Unknown sessions
// are rejected before a lane is opened for them.
func (g *Gateway) Submit(id types.SessionID, mode types.Mode, text string, hints types.Hints, opts ...RunOption) error {
	if _, err := g.sessions.Get(context.Background(), id); err != nil {
		return err
	}
	run := NewRun(id, mode, text, hints)
	for _, opt := range opts {
		opt(run)
	}
	if err := g.Queue.Enqueue(run); err != nil {
		return fmt.Errorf("enqueue turn: %w", err)
	}
	return nil
}

// Do queues a turn and waits for its result.
func (g *Gateway) Do(ctx context.Context, id types.SessionID, mode types.Mode, text string, hints types.Hints) (types.TurnResult, error) {
	type outcome struct {
		res types.TurnResult
		err error
	}
	if g.ctx == nil {
		return types.TurnResult{}, errGatewayNotStarted
	}
	done := make(chan outcome, 1)
	err := g.Submit(id, mode, text, hints,
		WithContext(ctx),
		WithOnComplete(func(res types.TurnResult, err error) { done <- outcome{res, err} }),
	)
	if err != nil {
		return types.TurnResult{}, err
	}

	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		return types.TurnResult{}, ctx.Err()
	case <-g.ctx.Done():
		return types.TurnResult{}, fmt.Errorf("gateway stopped")
	}
}

// CreateSession starts a new session in mode.
func (g *Gateway) CreateSession(ctx context.Context, mode types.Mode) (types.SessionID, error) {
	id, err := g.sessions.Create(ctx, mode)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

// DeleteSession removes a session and closes its lane.
func (g *Gateway) DeleteSession(ctx context.Context, id types.SessionID) error {
	if err := g.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	g.Queue.CloseLane(id)
	return nil
}

// FailureResult is the reply sent when a turn fails outright.
func FailureResult(err error) types.TurnResult {
	return types.TurnResult{
		Reply:     types.ReplyErrorPrefix + err.Error(),
		Events:    []types.Event{},
		Fallacies: []types.Fallacy{},
	}
}

func (g *Gateway) process(run *Run) error {
	run.start()
	res, err := g.turns.ProcessTurn(run.Ctx, run.SessionID, run.Mode, run.Text, run.Hints)
	run.finish(res, err)
	return err
}
