// Package distill converts freeform headered markdown and fallacy findings
// into deduplicated column items.
package distill

import (
	"regexp"
	"strings"
	"time"

	"github.com/user/debatecoach/internal/types"
)

const (
	paragraphBudget = 240
	fallacyBudget   = 280
)

var headerRe = regexp.MustCompile(`^#+\s+(.*)$`)

var (
	proSections = map[string]bool{
		"refined claim":   true,
		"pros":            true,
		"rebuttals":       true,
		"improvements":    true,
		"recommendations": true,
		"value prop":      true,
	}
	conSections = map[string]bool{
		"critique":   true,
		"objections": true,
		"risks":      true,
		"weaknesses": true,
	}
)

// Item is one distilled column entry. ID is stable for identical content.
type Item struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag"`
}

// Distilled holds the items extracted for each column.
type Distilled struct {
	Pro []Item `json:"pro"`
	Con []Item `json:"con"`
}

// Update is a batch of items for one column.
type Update struct {
	Column    types.Column `json:"column"`
	Items     []Item       `json:"items"`
	Timestamp time.Time    `json:"timestamp"`
}

// FromSections splits markdown on header lines and maps known section names
// to PRO or CON items. Sections with unknown names are ignored.
func FromSections(md string) Distilled {
	d := Distilled{Pro: []Item{}, Con: []Item{}}
	for _, sec := range splitSections(md) {
		switch {
		case proSections[sec.name]:
			for _, b := range bullets(sec.body) {
				d.Pro = append(d.Pro, newItem("PRO_", sec.name, b, proTag(sec.name)))
			}
		case conSections[sec.name]:
			for _, b := range bullets(sec.body) {
				d.Con = append(d.Con, newItem("CON_", sec.name, b, conTag(sec.name)))
			}
		}
	}
	d.Pro = dedupe(d.Pro)
	d.Con = dedupe(d.Con)
	return d
}

// FallacyItems projects fallacy findings into CON items.
func FallacyItems(fallacies []types.Fallacy) []Item {
	items := make([]Item, 0, len(fallacies))
	for _, f := range fallacies {
		code := f.Code
		if code == "" {
			code = "fallacy"
		}
		body := f.Why
		if f.Span != "" {
			body += ` - "` + f.Span + `"`
		}
		items = append(items, Item{
			ID:    "CON_" + types.StableID(code, f.Why),
			Title: code,
			Body:  truncateRunes(body, fallacyBudget),
			Tag:   "fallacy:" + code,
		})
	}
	return dedupe(items)
}

// MakeUpdate wraps items for a column, keeping the first item per id.
func MakeUpdate(column types.Column, items []Item, ts time.Time) Update {
	return Update{Column: column, Items: dedupe(items), Timestamp: ts.UTC()}
}

type section struct {
	name string
	body string
}

// splitSections keeps section order; a repeated header extends the earlier
// section.
func splitSections(md string) []section {
	var out []section
	index := map[string]int{}
	cur := -1
	for _, line := range strings.Split(md, "\n") {
		if m := headerRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			name := strings.ToLower(strings.TrimSpace(m[1]))
			if i, ok := index[name]; ok {
				cur = i
				continue
			}
			out = append(out, section{name: name})
			cur = len(out) - 1
			index[name] = cur
			continue
		}
		if cur >= 0 {
			out[cur].body += line + "\n"
		}
	}
	return out
}

func bullets(block string) []string {
	var out []string
	for _, line := range strings.Split(block, "\n") {
		s := strings.TrimSpace(line)
		if strings.HasPrefix(s, "- ") || strings.HasPrefix(s, "• ") || strings.HasPrefix(s, "*") {
			s = strings.TrimSpace(strings.TrimLeft(s, "-*• "))
			if s != "" {
				out = append(out, s)
			}
		}
	}
	if len(out) == 0 {
		para := strings.TrimSpace(strings.ReplaceAll(strings.TrimSpace(block), "\n", " "))
		if para != "" {
			out = append(out, truncateRunes(para, paragraphBudget))
		}
	}
	return out
}

func proTag(name string) string {
	switch {
	case strings.Contains(name, "refined"), strings.Contains(name, "value prop"):
		return "position"
	case strings.Contains(name, "rebuttal"):
		return "rebuttal"
	case strings.Contains(name, "improve"), strings.Contains(name, "recommend"):
		return "improvement"
	}
	return "support"
}

func conTag(name string) string {
	if strings.Contains(name, "objection") {
		return "objection"
	}
	return "critique"
}

func newItem(prefix, section, body, tag string) Item {
	return Item{
		ID:    prefix + types.StableID(section, body),
		Title: titleCase(section),
		Body:  body,
		Tag:   tag,
	}
}

func dedupe(items []Item) []Item {
	seen := make(map[string]bool, len(items))
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		out = append(out, it)
	}
	return out
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// truncateRunes is a raw cut; distilled bodies keep their original wording.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
