package collab

import (
	"context"
	"fmt"

	"github.com/user/debatecoach/internal/prompt"
	"github.com/user/debatecoach/internal/repair"
	"github.com/user/debatecoach/internal/types"
)

const (
	extractMaxTokens = 300
	triageMaxTokens  = 150
)

// ClaimExtractor pulls the user's position out of a free-form message.
type ClaimExtractor struct{ caller }

func NewClaimExtractor(gen types.Generator, prompts *prompt.Engine) *ClaimExtractor {
	return &ClaimExtractor{caller{gen: gen, prompts: prompts}}
}

// Extract returns an empty claim when the message carries no position.
func (e *ClaimExtractor) Extract(ctx context.Context, text string) (types.Claim, error) {
	out, err := e.call(ctx, prompt.ExtractClaim, prompt.Data{Text: text}, 0, extractMaxTokens)
	if err != nil {
		return types.Claim{}, fmt.Errorf("extract claim: %w", err)
	}
	return repair.DecodeClaim(repair.Parse(out)), nil
}

// Triager classifies what the user is asking for.
type Triager struct{ caller }

func NewTriager(gen types.Generator, prompts *prompt.Engine) *Triager {
	return &Triager{caller{gen: gen, prompts: prompts}}
}

// Triage returns {none, false} alongside any error.
func (t *Triager) Triage(ctx context.Context, mode types.Mode, text string) (types.Triage, error) {
	fallback := types.Triage{Intent: types.IntentNone}
	attempt, err := t.attempt(prompt.Triage, prompt.Data{Mode: string(mode), Text: text}, triageMaxTokens)
	if err != nil {
		return fallback, err
	}
	tr, _, err := repair.RetryOnce(ctx, 0, attempt, repair.DecodeTriage)
	if err != nil {
		return fallback, fmt.Errorf("triage: %w", err)
	}
	return tr, nil
}
