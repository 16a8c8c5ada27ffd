package collab

import (
	"context"
	"fmt"

	"github.com/user/debatecoach/internal/prompt"
	"github.com/user/debatecoach/internal/repair"
	"github.com/user/debatecoach/internal/types"
)

const fallacyMaxTokens = 600

// FallacyDetector screens a claim for logical fallacies.
type FallacyDetector struct{ caller }

func NewFallacyDetector(gen types.Generator, prompts *prompt.Engine) *FallacyDetector {
	return &FallacyDetector{caller{gen: gen, prompts: prompts}}
}

// Detect returns an empty, non-nil list when nothing is found or the output
// cannot be repaired.
func (d *FallacyDetector) Detect(ctx context.Context, text string) ([]types.Fallacy, error) {
	out, err := d.call(ctx, prompt.Fallacies, prompt.Data{Text: text}, 0, fallacyMaxTokens)
	if err != nil {
		return []types.Fallacy{}, fmt.Errorf("detect fallacies: %w", err)
	}
	return repair.DecodeFallacies(repair.Parse(out)), nil
}
