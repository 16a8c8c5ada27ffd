package gateway

import (
	"context"
	"time"

	"github.com/user/debatecoach/internal/types"
)

// RunStatus represents the lifecycle state of a Run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run tracks one user turn queued against a session.
type Run struct {
	ID        types.TurnID
	SessionID types.SessionID
	Mode      types.Mode
	Text      string
	Hints     types.Hints
	Status    RunStatus
	CreatedAt time.Time
	StartedAt *time.Time
	EndedAt   *time.Time
	Result    types.TurnResult
	Error     error

	// Ctx is the context the processor runs under. The queue fills it in
	// when the submitter left it nil.
	Ctx        context.Context
	OnComplete func(types.TurnResult, error)
}

// NewRun creates a Run in the Queued state.
func NewRun(sessionID types.SessionID, mode types.Mode, text string, hints types.Hints) *Run {
	return &Run{
		ID:        types.NewTurnID(),
		SessionID: sessionID,
		Mode:      mode,
		Text:      text,
		Hints:     hints,
		Status:    RunStatusQueued,
		CreatedAt: time.Now(),
	}
}

func (r *Run) start() {
	now := time.Now()
	r.StartedAt = &now
	r.Status = RunStatusRunning
}

func (r *Run) finish(res types.TurnResult, err error) {
	now := time.Now()
	r.EndedAt = &now
	r.Result, r.Error = res, err
	if err != nil {
		r.Status = RunStatusFailed
	} else {
		r.Status = RunStatusComplete
	}
	if r.OnComplete != nil {
		r.OnComplete(res, err)
	}
}
