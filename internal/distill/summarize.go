package distill

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/user/debatecoach/internal/prompt"
	"github.com/user/debatecoach/internal/repair"
	"github.com/user/debatecoach/internal/types"
)

const (
	fallacyHintBudget  = 300
	fallacyCodesBudget = 180
	summaryMaxTokens   = 400

	naiveStrength   = 60
	naiveImpression = "baseline"
)

// Summarizer condenses a turn's generated notes into one PRO and one CON
// item with a single generation call.
type Summarizer struct {
	gen     types.Generator
	prompts *prompt.Engine
	retry   repair.RetryPolicy
}

func NewSummarizer(gen types.Generator, prompts *prompt.Engine) *Summarizer {
	return &Summarizer{gen: gen, prompts: prompts, retry: repair.DefaultRetryPolicy()}
}

// Summarize returns the condensed items. When generation fails or stays
// malformed after one retry it falls back to FromSections, truncated to the
// same budgets.
func (s *Summarizer) Summarize(ctx context.Context, userText, sectionsMD string, fallacies []types.Fallacy) (Distilled, repair.Summary) {
	sys, user, err := s.prompts.Render(prompt.Summary, prompt.Data{
		Text:        userText,
		Sections:    sectionsMD,
		FallacyHint: FallacyHint(fallacies),
	})
	if err == nil {
		attempt := func(ctx context.Context, temp float32) (string, error) {
			return s.gen.Generate(ctx, sys, user, temp, summaryMaxTokens)
		}
		sum, _, rerr := repair.Retry(ctx, s.retry, 0, attempt, repair.DecodeSummary)
		if rerr == nil {
			return summaryItems(sum), sum
		}
		err = rerr
	}
	slog.Warn("summary generation failed, using naive distillation", "error", err)
	sum := naiveSummary(userText, sectionsMD, fallacies)
	return summaryItems(sum), sum
}

// FallacyHint renders findings as `code: "span"` pairs for the summary prompt.
func FallacyHint(fallacies []types.Fallacy) string {
	parts := make([]string, 0, len(fallacies))
	for _, f := range fallacies {
		span := f.Span
		if span == "" {
			span = f.Why
		}
		parts = append(parts, fmt.Sprintf("%s: %q", f.Code, span))
	}
	return repair.Truncate(strings.Join(parts, "; "), fallacyHintBudget)
}

// naiveSummary builds the fallback summary from the user's text, the mapped
// note sections and the fallacy codes found this turn.
func naiveSummary(userText, md string, fallacies []types.Fallacy) repair.Summary {
	d := FromSections(md)

	var pro []string
	if t := strings.TrimSpace(userText); t != "" {
		pro = append(pro, t)
	}
	for _, it := range d.Pro {
		pro = append(pro, it.Body)
	}

	con := make([]string, 0, len(d.Con)+1)
	for _, it := range d.Con {
		con = append(con, it.Body)
	}
	if codes := fallacyCodes(fallacies); codes != "" {
		con = append(con, repair.Truncate("fallacies: "+codes, fallacyCodesBudget))
	}

	return repair.Summary{
		ProSummary:    repair.Truncate(strings.Join(pro, "; "), repair.ProSummaryBudget),
		ProStrength:   naiveStrength,
		ProImpression: naiveImpression,
		ConSummary:    repair.Truncate(strings.Join(con, "; "), repair.ConSummaryBudget),
	}
}

// fallacyCodes lists the distinct codes in readable form, sorted.
func fallacyCodes(fallacies []types.Fallacy) string {
	seen := make(map[string]bool, len(fallacies))
	var codes []string
	for _, f := range fallacies {
		code := strings.ReplaceAll(f.Code, "_", " ")
		if code == "" {
			code = "fallacy"
		}
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return strings.Join(codes, ", ")
}

func summaryItems(sum repair.Summary) Distilled {
	d := Distilled{Pro: []Item{}, Con: []Item{}}
	if sum.ProSummary != "" {
		body := fmt.Sprintf("%s - Strength: %d/100; Impression: %s", sum.ProSummary, sum.ProStrength, sum.ProImpression)
		d.Pro = append(d.Pro, newItem("PRO_", "summary", body, "position"))
	}
	if sum.ConSummary != "" {
		d.Con = append(d.Con, newItem("CON_", "summary", sum.ConSummary, "critique"))
	}
	return d
}
