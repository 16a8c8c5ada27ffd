// Package state provides the process-resident session store.
package state

import "github.com/user/debatecoach/internal/types"

// Compile-time interface compliance checks.
var _ types.SessionStore = (*MemoryStore)(nil)
