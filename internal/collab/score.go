package collab

import (
	"context"
	"fmt"

	"github.com/user/debatecoach/internal/prompt"
	"github.com/user/debatecoach/internal/repair"
	"github.com/user/debatecoach/internal/types"
)

const (
	scoreTemperature = 0.2
	scoreMaxTokens   = 400
)

// BackupScorer is the last resort score when the executor's own critique
// output could not be repaired.
type BackupScorer struct{ caller }

func NewBackupScorer(gen types.Generator, prompts *prompt.Engine) *BackupScorer {
	return &BackupScorer{caller{gen: gen, prompts: prompts}}
}

// Score returns {50, ["fallback"]} when the output holds no usable score.
func (s *BackupScorer) Score(ctx context.Context, claim string) (types.Score, error) {
	fallback := types.Score{Value: 50, Reasons: []string{"fallback"}}
	out, err := s.call(ctx, prompt.Score, prompt.Data{Text: claim}, scoreTemperature, scoreMaxTokens)
	if err != nil {
		return types.Score{}, fmt.Errorf("backup score: %w", err)
	}
	res := repair.DecodeEvaluation(repair.Parse(out), fallback)
	if !res.HasScore {
		return fallback, nil
	}
	return res.Score, nil
}
