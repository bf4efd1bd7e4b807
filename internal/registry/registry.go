// Package registry keeps per-session in-memory conversation transcripts.
package registry

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/asedra/attila/internal/domain"
)

// DefaultSession is the transcript key used when a caller supplies no
// session ID.
const DefaultSession = ""

// transcript is the ordered list of turns for one session. Appends are
// serialized by the transcript's own mutex so two racing requests for the
// same session cannot interleave or lose turns.
type transcript struct {
	mu    sync.Mutex
	turns []domain.Turn
}

// Registry maps session IDs to transcripts. Transcripts are created lazily on
// first access and live for the process lifetime; there is no eviction.
type Registry struct {
	mu          sync.RWMutex
	transcripts map[string]*transcript
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		transcripts: make(map[string]*transcript),
	}
}

// get returns the transcript for a session, creating it on first access.
func (r *Registry) get(sessionID string) *transcript {
	r.mu.RLock()
	t, ok := r.transcripts[sessionID]
	r.mu.RUnlock()
	if ok {
		return t
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.transcripts[sessionID]; ok {
		return t
	}
	t = &transcript{}
	r.transcripts[sessionID] = t
	return t
}

// Append adds a role-tagged turn to a session's transcript.
func (r *Registry) Append(sessionID, role, content string, extra json.RawMessage) {
	t := r.get(sessionID)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = append(t.turns, domain.Turn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Extra:     extra,
	})
}

// RecentWindow returns a copy of the most recent n turns in order.
func (r *Registry) RecentWindow(sessionID string, n int) []domain.Turn {
	t := r.get(sessionID)
	t.mu.Lock()
	defer t.mu.Unlock()

	start := 0
	if n > 0 && len(t.turns) > n {
		start = len(t.turns) - n
	}
	window := make([]domain.Turn, len(t.turns)-start)
	copy(window, t.turns[start:])
	return window
}

// Len returns the number of turns recorded for a session.
func (r *Registry) Len(sessionID string) int {
	t := r.get(sessionID)
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.turns)
}

// Clear drops the transcript for a session.
func (r *Registry) Clear(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.transcripts, sessionID)
}
