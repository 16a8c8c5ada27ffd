// internal/state/session.go
package state

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/user/debatecoach/internal/types"
)

// ErrSessionNotFound is returned for unknown session ids.
var ErrSessionNotFound = errors.New("session not found")

// proPrefix is prepended to the normalized claim stored in PRO.
const proPrefix = "Your current statement: "

type entry struct {
	mu   sync.Mutex
	sess *types.Session
}

// MemoryStore is an in-memory session registry. Every mutation of a session
// runs under that session's own mutex, so writers on different sessions never
// contend while writers on the same session are serialized.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[types.SessionID]*entry
	idleTTL  time.Duration
	now      func() time.Time
	onEvict  func(types.SessionID)
	janitor  *janitor
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithIdleTTL enables eviction of sessions untouched for longer than ttl.
// A zero ttl disables eviction.
func WithIdleTTL(ttl time.Duration) Option {
	return func(s *MemoryStore) { s.idleTTL = ttl }
}

// WithOnEvict registers fn to run for every session Sweep removes.
func WithOnEvict(fn func(types.SessionID)) Option {
	return func(s *MemoryStore) { s.onEvict = fn }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[types.SessionID]*entry),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// getEntry returns the session entry or ErrSessionNotFound.
func (s *MemoryStore) getEntry(id types.SessionID) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return e, nil
}

// withSession runs fn while holding the session lock.
func (s *MemoryStore) withSession(id types.SessionID, fn func(*types.Session) error) error {
	e, err := s.getEntry(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.sess)
}

// Create registers a new session in the given mode.
func (s *MemoryStore) Create(_ context.Context, mode types.Mode) (types.SessionID, error) {
	if mode != types.ModeDebate && mode != types.ModePitch {
		return "", fmt.Errorf("unknown mode: %s", mode)
	}
	now := s.now().UTC()
	id := types.NewSessionID()
	sess := &types.Session{
		ID:        id,
		Mode:      mode,
		Pro:       []types.Event{},
		Con:       []types.Event{},
		Sources:   []types.Source{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.sessions[id] = &entry{sess: sess}
	s.mu.Unlock()
	return id, nil
}

// Get returns a copy of the session.
func (s *MemoryStore) Get(_ context.Context, id types.SessionID) (*types.Session, error) {
	var out *types.Session
	err := s.withSession(id, func(sess *types.Session) error {
		out = cloneSession(sess)
		return nil
	})
	return out, err
}

// AppendPro records a captured claim. PRO is append-only.
func (s *MemoryStore) AppendPro(_ context.Context, id types.SessionID, text string) (types.Event, error) {
	event := types.Event{
		ID:      types.NewEventID(),
		At:      s.now().UTC(),
		Column:  types.ColumnPro,
		Payload: proPrefix + strings.TrimSpace(text),
	}
	err := s.withSession(id, func(sess *types.Session) error {
		sess.Pro = append(sess.Pro, event)
		sess.UpdatedAt = event.At
		return nil
	})
	if err != nil {
		return types.Event{}, err
	}
	return event, nil
}

// AppendCon appends an event to CON, filling in id and timestamp if unset.
func (s *MemoryStore) AppendCon(_ context.Context, id types.SessionID, event types.Event) error {
	if event.ID == "" {
		event.ID = types.NewEventID()
	}
	if event.At.IsZero() {
		event.At = s.now().UTC()
	}
	event.Column = types.ColumnCon
	return s.withSession(id, func(sess *types.Session) error {
		sess.Con = append(sess.Con, event)
		sess.UpdatedAt = s.now().UTC()
		return nil
	})
}

// AddSources appends sources whose URL is not yet known to the session and
// returns the ids of only the newly added ones.
func (s *MemoryStore) AddSources(_ context.Context, id types.SessionID, sources []types.Source) ([]types.SourceID, error) {
	var added []types.SourceID
	err := s.withSession(id, func(sess *types.Session) error {
		seen := make(map[string]bool, len(sess.Sources))
		for _, src := range sess.Sources {
			seen[src.URL] = true
		}
		for _, src := range sources {
			if src.URL == "" || seen[src.URL] {
				continue
			}
			seen[src.URL] = true
			if src.ID == "" {
				src.ID = types.NewSourceID()
			}
			if src.Reliability == "" {
				src.Reliability = types.ReliabilityMedium
			}
			sess.Sources = append(sess.Sources, src)
			added = append(added, src.ID)
		}
		if len(added) > 0 {
			sess.UpdatedAt = s.now().UTC()
		}
		return nil
	})
	return added, err
}

// Export returns a read-only snapshot of the three columns.
func (s *MemoryStore) Export(_ context.Context, id types.SessionID) (types.Columns, error) {
	var cols types.Columns
	err := s.withSession(id, func(sess *types.Session) error {
		cols = types.Columns{
			Pro:     append([]types.Event{}, sess.Pro...),
			Con:     append([]types.Event{}, sess.Con...),
			Sources: append([]types.Source{}, sess.Sources...),
		}
		return nil
	})
	return cols, err
}

// Update mutates per-turn session fields under the session lock. Column
// slices must be changed through the Append and AddSources operations;
// changes fn makes to them are discarded.
func (s *MemoryStore) Update(_ context.Context, id types.SessionID, fn func(*types.Session)) error {
	return s.withSession(id, func(sess *types.Session) error {
		pro, con, sources := sess.Pro, sess.Con, sess.Sources
		fn(sess)
		sess.Pro, sess.Con, sess.Sources = pro, con, sources
		sess.UpdatedAt = s.now().UTC()
		return nil
	})
}

// List returns a summary per session, most recently updated first.
func (s *MemoryStore) List(_ context.Context) ([]types.SessionSummary, error) {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.sessions))
	for _, e := range s.sessions {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]types.SessionSummary, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, types.SessionSummary{
			ID:        e.sess.ID,
			Mode:      e.sess.Mode,
			Pro:       len(e.sess.Pro),
			Con:       len(e.sess.Con),
			Sources:   len(e.sess.Sources),
			CreatedAt: e.sess.CreatedAt,
			UpdatedAt: e.sess.UpdatedAt,
		})
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Delete removes a session.
func (s *MemoryStore) Delete(_ context.Context, id types.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	return nil
}

// Sweep evicts sessions idle for longer than the configured ttl and returns
// how many were removed.
func (s *MemoryStore) Sweep() int {
	if s.idleTTL <= 0 {
		return 0
	}
	cutoff := s.now().UTC().Add(-s.idleTTL)

	s.mu.Lock()
	var evicted []types.SessionID
	for id, e := range s.sessions {
		e.mu.Lock()
		idle := e.sess.UpdatedAt.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			evicted = append(evicted, id)
		}
	}
	s.mu.Unlock()

	if s.onEvict != nil {
		for _, id := range evicted {
			s.onEvict(id)
		}
	}
	return len(evicted)
}

func cloneSession(sess *types.Session) *types.Session {
	c := *sess
	c.Pro = append([]types.Event{}, sess.Pro...)
	c.Con = append([]types.Event{}, sess.Con...)
	c.Sources = append([]types.Source{}, sess.Sources...)
	if sess.LastScore != nil {
		score := *sess.LastScore
		score.Reasons = append([]string(nil), sess.LastScore.Reasons...)
		c.LastScore = &score
	}
	return &c
}
