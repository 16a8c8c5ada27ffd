package repair

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// WordBounds returns s when its word count lies in [min, max] and
// replacement otherwise.
func WordBounds(s string, min, max int, replacement string) string {
	n := len(strings.Fields(s))
	if n < min || n > max {
		return replacement
	}
	return strings.TrimSpace(s)
}

// Truncate cuts s to at most budget runes, preferring the last word
// boundary inside the budget. Without a boundary the cut is raw.
func Truncate(s string, budget int) string {
	s = strings.TrimSpace(s)
	if budget <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= budget {
		return s
	}
	cut := runes[:budget]
	if unicode.IsSpace(runes[budget]) {
		return strings.TrimRightFunc(string(cut), unicode.IsSpace)
	}
	for i := len(cut) - 1; i > 0; i-- {
		if unicode.IsSpace(cut[i]) {
			return strings.TrimRightFunc(string(cut[:i]), unicode.IsSpace)
		}
	}
	return string(cut)
}

func str(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// integer reads a numeric field, accepting numbers and numeric strings.
func integer(m map[string]any, key string) (int, bool) {
	switch v := m[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return roundInt(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return roundInt(f), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "/100"), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, false
		}
		if math.IsNaN(f) {
			return 0, false
		}
		return roundInt(f), true
	}
	return 0, false
}

// roundInt rounds v and saturates at the int32 range so oversized values
// keep their sign through a later Clamp.
func roundInt(v float64) int {
	v = math.Max(math.MinInt32, math.Min(math.MaxInt32, v))
	return int(math.Round(v))
}

func boolean(m map[string]any, key string) (bool, bool) {
	switch v := m[key].(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return b, err == nil
	}
	return false, false
}

func object(m map[string]any, key string) (map[string]any, bool) {
	v, ok := m[key].(map[string]any)
	return v, ok
}

// stringList reads a list field as strings, flattening {"text": ...} items.
func stringList(m map[string]any, key string) ([]string, bool) {
	raw, ok := m[key].([]any)
	if !ok {
		if s, isStr := m[key].(string); isStr && strings.TrimSpace(s) != "" {
			return []string{strings.TrimSpace(s)}, true
		}
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				out = append(out, s)
			}
		case map[string]any:
			for _, k := range []string{"text", "bullet", "point", "why"} {
				if s := str(v, k); s != "" {
					out = append(out, s)
					break
				}
			}
		}
	}
	return out, true
}
