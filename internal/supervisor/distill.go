package supervisor

import (
	"context"
	"fmt"

	"github.com/user/debatecoach/internal/bus"
	"github.com/user/debatecoach/internal/distill"
	"github.com/user/debatecoach/internal/types"
)

// Distill turns headered markdown notes and fallacy findings into PRO and
// CON column updates and publishes them. With summarize set and a Summarizer
// configured the notes are condensed to one item per column. Updates are not
// persisted.
func (s *Supervisor) Distill(ctx context.Context, id types.SessionID, userText, markdown string, fallacies []types.Fallacy, summarize bool) ([]distill.Update, error) {
	if _, err := s.deps.Store.Get(ctx, id); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var d distill.Distilled
	if summarize && s.deps.Summarizer != nil {
		d, _ = s.deps.Summarizer.Summarize(ctx, userText, markdown, fallacies)
	} else {
		d = distill.FromSections(markdown)
		d.Con = append(d.Con, distill.FallacyItems(fallacies)...)
	}

	now := s.deps.Clock()
	updates := []distill.Update{}
	if len(d.Pro) > 0 {
		updates = append(updates, distill.MakeUpdate(types.ColumnPro, d.Pro, now))
	}
	if len(d.Con) > 0 {
		updates = append(updates, distill.MakeUpdate(types.ColumnCon, d.Con, now))
	}

	if s.deps.Bus != nil && len(updates) > 0 {
		s.deps.Bus.Publish(bus.Update{
			SessionID: id,
			Kind:      bus.KindDistill,
			At:        now.UTC(),
			Data:      updates,
		})
	}
	return updates, nil
}
