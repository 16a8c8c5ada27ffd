package collab

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/user/debatecoach/internal/prompt"
	"github.com/user/debatecoach/internal/repair"
	"github.com/user/debatecoach/internal/types"
)

const (
	deciderMaxTokens = 300
	plannerMaxTokens = 200
)

// FallbackPlan is used whenever the planner output is unusable.
var FallbackPlan = []string{"EXECUTOR:offer_actions"}

// CommandDecider asks the supervisor prompt for the next command. The raw
// text is returned; the turn supervisor repairs it.
type CommandDecider struct{ caller }

func NewCommandDecider(gen types.Generator, prompts *prompt.Engine) *CommandDecider {
	return &CommandDecider{caller{gen: gen, prompts: prompts}}
}

func (d *CommandDecider) Decide(ctx context.Context, mode types.Mode, text string, flags types.Flags) (string, error) {
	out, err := d.call(ctx, prompt.Supervisor, prompt.Data{
		Mode:  string(mode),
		Text:  text,
		Flags: flagsJSON(flags),
	}, 0, deciderMaxTokens)
	if err != nil {
		return "", fmt.Errorf("decide command: %w", err)
	}
	return out, nil
}

// Planner produces ordered plan steps. It never fails: any error or
// malformed output yields FallbackPlan.
type Planner struct{ caller }

func NewPlanner(gen types.Generator, prompts *prompt.Engine) *Planner {
	return &Planner{caller{gen: gen, prompts: prompts}}
}

func (p *Planner) Plan(ctx context.Context, mode types.Mode, intent types.Intent, flags types.Flags) ([]string, error) {
	out, err := p.call(ctx, prompt.Planner, prompt.Data{
		Mode:   string(mode),
		Intent: string(intent),
		Flags:  flagsJSON(flags),
	}, 0, plannerMaxTokens)
	if err != nil {
		slog.Warn("planner failed, using fallback plan", "error", err)
		return fallbackPlan(), nil
	}
	steps, ok := repair.DecodePlan(repair.Parse(out))
	if !ok {
		slog.Warn("planner output malformed, using fallback plan")
		return fallbackPlan(), nil
	}
	return steps, nil
}

func fallbackPlan() []string {
	return append([]string(nil), FallbackPlan...)
}
