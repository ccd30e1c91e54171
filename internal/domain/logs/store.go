package logs

import (
	"sync"
	"time"
)

// Backend is the surface shared by the single-lock and sharded stores.
type Backend interface {
	Write(userID int64, p Payload)
	ReadSeverity(userID int64, s Severity) []LogEntry
	ReadUnified(userID int64) []ServiceLog
	EnableCapture(userID int64)
	DisableCapture(userID int64)
	ListUsers() []int64
}

// Archiver receives entries discarded by a capture toggle.
// It runs after the store lock is released.
type Archiver interface {
	Archive(userID int64, discarded []ServiceLog)
}

// ArchiverFunc adapts a function to Archiver.
type ArchiverFunc func(userID int64, discarded []ServiceLog)

// Archive implements Archiver.
func (f ArchiverFunc) Archive(userID int64, discarded []ServiceLog) { f(userID, discarded) }

// Observer is notified of write outcomes. Callers of Write never see them.
type Observer interface {
	Captured(s Severity)
	Dropped(s Severity)
	GroupCreated()
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the capture-time clock.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithArchiver installs a hook for entries cleared by EnableCapture/DisableCapture.
func WithArchiver(a Archiver) Option {
	return func(s *Store) { s.archiver = a }
}

// WithObserver installs a write outcome observer.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// Store maps user ids to their log groups behind a single mutex.
type Store struct {
	mu       sync.Mutex
	groups   map[int64]*UserLogGroup
	now      func() time.Time
	archiver Archiver
	observer Observer
}

var _ Backend = (*Store)(nil)

// NewStore builds an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		groups: make(map[int64]*UserLogGroup),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Write appends p for userID, creating the group on first sight.
// Writes for users without capture enabled are dropped silently.
// The payload is copied, so the caller may reuse its buffers afterwards.
func (s *Store) Write(userID int64, payload Payload) {
	if payload == nil {
		return
	}
	p := detach(payload)
	s.mu.Lock()
	g, ok := s.groups[userID]
	if !ok {
		g = NewUserLogGroup()
		s.groups[userID] = g
	}
	kept := g.Append(s.now().Unix(), p)
	s.mu.Unlock()

	if s.observer == nil {
		return
	}
	if !ok {
		s.observer.GroupCreated()
	}
	if kept {
		s.observer.Captured(p.Severity())
	} else {
		s.observer.Dropped(p.Severity())
	}
}

// ReadSeverity copies one buffer. Unknown users yield an empty slice.
func (s *Store) ReadSeverity(userID int64, sev Severity) []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[userID]
	if !ok {
		return []LogEntry{}
	}
	return g.Entries(sev)
}

// ReadUnified returns errors, debugs then warnings for userID.
func (s *Store) ReadUnified(userID int64) []ServiceLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[userID]
	if !ok {
		return []ServiceLog{}
	}
	return g.Unified()
}

// EnableCapture clears and enables capture. No-op for unknown users.
func (s *Store) EnableCapture(userID int64) {
	s.toggle(userID, true)
}

// DisableCapture clears and disables capture. No-op for unknown users.
func (s *Store) DisableCapture(userID int64) {
	s.toggle(userID, false)
}

// ListUsers returns every known user id in no particular order.
func (s *Store) ListUsers() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.groups))
	for id := range s.groups {
		out = append(out, id)
	}
	return out
}

// Capturing reports the capture flag for userID; false for unknown users.
func (s *Store) Capturing(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[userID]
	return ok && g.Capturing()
}

func (s *Store) toggle(userID int64, enabled bool) {
	s.mu.Lock()
	g, ok := s.groups[userID]
	if !ok {
		s.mu.Unlock()
		return
	}
	discarded := g.SetCapture(enabled)
	s.mu.Unlock()

	if s.archiver == nil || len(discarded) == 0 {
		return
	}
	flat := make([]ServiceLog, len(discarded))
	for i, e := range discarded {
		flat[i] = e.ToServiceLog()
	}
	s.archiver.Archive(userID, flat)
}
