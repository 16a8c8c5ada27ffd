package executor

import (
	"fmt"
	"strings"

	"github.com/user/debatecoach/internal/repair"
	"github.com/user/debatecoach/internal/types"
)

const (
	fallacyHeader = "DETECTED FALLACIES:"
	noObjections  = "No objections generated."
)

// DedupeFallacies keeps the first finding for each (code, label, why).
func DedupeFallacies(fs []types.Fallacy) []types.Fallacy {
	type key struct{ code, label, why string }
	seen := make(map[key]bool, len(fs))
	out := make([]types.Fallacy, 0, len(fs))
	for _, f := range fs {
		k := key{f.Code, f.Label, f.Why}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, f)
	}
	return out
}

// FallacyBlock renders findings for the CON column. It is empty when there
// are none.
func FallacyBlock(fs []types.Fallacy) string {
	if len(fs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(fallacyHeader)
	for _, f := range fs {
		b.WriteString("\n")
		line := fmt.Sprintf("%s: %s", f.Label, f.Why)
		if f.Emoji != "" {
			line = f.Emoji + " " + line
		}
		b.WriteString(line)
	}
	return b.String()
}

// EvaluationText renders a scored critique.
func EvaluationText(score types.Score, bullets []string, fallacies []types.Fallacy) string {
	lines := []string{fmt.Sprintf("Score: %d/100", score.Value)}
	if len(score.Reasons) > 0 {
		lines = append(lines, "Short evaluation: "+score.Reasons[0])
	}
	for _, b := range bullets {
		lines = append(lines, "- "+b)
	}
	return withFallacies(strings.Join(lines, "\n"), fallacies)
}

// ObjectionsText renders ranked objections one per line.
func ObjectionsText(ranked []repair.Objection, fallacies []types.Fallacy) string {
	lines := make([]string, 0, len(ranked))
	for _, o := range ranked {
		if o.Title != "" {
			lines = append(lines, o.Title+": "+o.Why)
		} else {
			lines = append(lines, o.Why)
		}
	}
	text := noObjections
	if len(lines) > 0 {
		text = strings.Join(lines, "\n")
	}
	return withFallacies(text, fallacies)
}

func withFallacies(text string, fallacies []types.Fallacy) string {
	if block := FallacyBlock(fallacies); block != "" {
		return text + "\n" + block
	}
	return text
}

// dashedLines salvages "- item" lines from unstructured output.
func dashedLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		for _, prefix := range []string{"- ", "* ", "• "} {
			if strings.HasPrefix(line, prefix) {
				if item := strings.TrimSpace(line[len(prefix):]); item != "" {
					out = append(out, item)
				}
				break
			}
		}
	}
	return out
}
