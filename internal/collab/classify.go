package collab

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/debatecoach/internal/prompt"
	"github.com/user/debatecoach/internal/repair"
	"github.com/user/debatecoach/internal/types"
)

const classifyMaxTokens = 1200

// SourceClassifier labels gathered sources against the claim.
type SourceClassifier struct{ caller }

func NewSourceClassifier(gen types.Generator, prompts *prompt.Engine) *SourceClassifier {
	return &SourceClassifier{caller{gen: gen, prompts: prompts}}
}

// Classify returns one source per candidate the model recognized. URLs not
// present among the candidates are discarded.
func (c *SourceClassifier) Classify(ctx context.Context, claim string, candidates []types.Candidate) ([]types.Source, error) {
	if len(candidates) == 0 {
		return []types.Source{}, nil
	}
	byURL := make(map[string]types.Candidate, len(candidates))
	for _, cand := range candidates {
		byURL[cand.URL] = cand
	}

	attempt, err := c.attempt(prompt.Classify, prompt.Data{Text: claim, Sources: renderCandidates(candidates)}, classifyMaxTokens)
	if err != nil {
		return nil, err
	}
	decode := func(v repair.Value) ([]types.Source, bool) {
		srcs := repair.DecodeClassifications(v)
		return srcs, len(srcs) > 0
	}
	srcs, _, err := repair.RetryOnce(ctx, 0, attempt, decode)
	if err != nil {
		return nil, fmt.Errorf("classify sources: %w", err)
	}

	out := make([]types.Source, 0, len(srcs))
	for _, s := range srcs {
		cand, ok := byURL[s.URL]
		if !ok {
			continue
		}
		if s.Title == "" {
			s.Title = cand.Title
		}
		if s.Note == "" {
			s.Note = cand.Snippet
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("classify sources: %w", repair.ErrMalformed)
	}
	return out, nil
}

func renderCandidates(candidates []types.Candidate) string {
	var b strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s\n   url: %s\n", i+1, c.Title, c.URL)
		if c.Snippet != "" {
			fmt.Fprintf(&b, "   snippet: %s\n", repair.Truncate(c.Snippet, 400))
		}
	}
	return b.String()
}
