// internal/state/janitor.go
package state

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type janitor struct {
	cron *cron.Cron
}

// StartJanitor sweeps idle sessions on the given cron schedule. An empty
// schedule or a store without an idle ttl leaves eviction disabled.
func (s *MemoryStore) StartJanitor(schedule string) error {
	if schedule == "" || s.idleTTL <= 0 {
		return nil
	}
	if s.janitor != nil {
		return fmt.Errorf("janitor already running")
	}

	c := cron.New(cron.WithParser(cronParser))
	_, err := c.AddFunc(schedule, func() {
		if n := s.Sweep(); n > 0 {
			slog.Info("evicted idle sessions", "count", n, "idle_ttl", s.idleTTL)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	c.Start()
	s.janitor = &janitor{cron: c}
	slog.Info("session janitor started", "schedule", schedule, "idle_ttl", s.idleTTL)
	return nil
}

// StopJanitor stops the sweep ticker and waits for a running sweep.
func (s *MemoryStore) StopJanitor() {
	if s.janitor == nil {
		return
	}
	<-s.janitor.cron.Stop().Done()
	s.janitor = nil
}
