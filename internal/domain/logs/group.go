package logs

// UserLogGroup holds one user's capture flag and severity buffers.
// It is not safe for concurrent use; the owning Store serializes access.
type UserLogGroup struct {
	capture  bool
	errors   []LogEntry
	warnings []LogEntry
	debugs   []LogEntry
}

// NewUserLogGroup returns a group with capture disabled.
func NewUserLogGroup() *UserLogGroup {
	return &UserLogGroup{}
}

// Capturing reports whether appends are currently retained.
func (g *UserLogGroup) Capturing() bool {
	return g.capture
}

// SetCapture clears every buffer and then sets the flag. Toggling in either
// direction discards history; the discarded entries are returned in unified order.
func (g *UserLogGroup) SetCapture(enabled bool) []LogEntry {
	discarded := g.clear()
	g.capture = enabled
	return discarded
}

// Append stamps and stores p when capture is on and reports whether it was kept.
func (g *UserLogGroup) Append(now int64, p Payload) bool {
	if !g.capture || p == nil {
		return false
	}
	entry := LogEntry{Time: now, Inner: p}
	switch p.Severity() {
	case Error:
		g.errors = append(g.errors, entry)
	case Warning:
		g.warnings = append(g.warnings, entry)
	case Debug:
		g.debugs = append(g.debugs, entry)
	default:
		return false
	}
	return true
}

// Entries returns a deep copy of one buffer in insertion order.
func (g *UserLogGroup) Entries(s Severity) []LogEntry {
	src := g.buffer(s)
	out := make([]LogEntry, len(src))
	for i, e := range src {
		out[i] = LogEntry{Time: e.Time, Inner: detach(e.Inner)}
	}
	return out
}

// Len is the total number of buffered entries.
func (g *UserLogGroup) Len() int {
	return len(g.errors) + len(g.warnings) + len(g.debugs)
}

// Unified concatenates errors, then debugs, then warnings. Timestamps are not consulted.
func (g *UserLogGroup) Unified() []ServiceLog {
	out := make([]ServiceLog, 0, g.Len())
	for _, buf := range [][]LogEntry{g.errors, g.debugs, g.warnings} {
		for _, e := range buf {
			out = append(out, e.ToServiceLog())
		}
	}
	return out
}

func (g *UserLogGroup) buffer(s Severity) []LogEntry {
	switch s {
	case Error:
		return g.errors
	case Warning:
		return g.warnings
	case Debug:
		return g.debugs
	}
	return nil
}

func (g *UserLogGroup) clear() []LogEntry {
	var discarded []LogEntry
	if n := g.Len(); n > 0 {
		discarded = make([]LogEntry, 0, n)
		discarded = append(discarded, g.errors...)
		discarded = append(discarded, g.debugs...)
		discarded = append(discarded, g.warnings...)
	}
	g.errors = nil
	g.warnings = nil
	g.debugs = nil
	return discarded
}
