package logs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors raised while decoding transport input. The store itself never fails.
var (
	ErrInvalidUserID    = errors.New("invalid user id")
	ErrUnknownSeverity  = errors.New("unknown severity")
	ErrMalformedPayload = errors.New("malformed log payload")
)

// Severity routes an entry into one of the three per-user buffers.
type Severity uint8

const (
	Error Severity = iota
	Warning
	Debug
)

var severityNames = [...]string{"Error", "Warning", "Debug"}

// Severities lists every level in declaration order.
func Severities() []Severity {
	return []Severity{Error, Warning, Debug}
}

// Valid reports whether s is one of the declared levels.
func (s Severity) Valid() bool {
	return s <= Debug
}

func (s Severity) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Severity(%d)", uint8(s))
	}
	return severityNames[s]
}

// ParseSeverity accepts level names case-insensitively; "warn" is an alias of warning.
func ParseSeverity(raw string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "error":
		return Error, nil
	case "warning", "warn":
		return Warning, nil
	case "debug":
		return Debug, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSeverity, raw)
}

// SeverityFromInt maps the persisted integer column back to a level.
func SeverityFromInt(v int64) (Severity, error) {
	if v < 0 || v > int64(Debug) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownSeverity, v)
	}
	return Severity(v), nil
}

// MarshalJSON encodes the level by name.
func (s Severity) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSeverity, uint8(s))
	}
	return json.Marshal(severityNames[s])
}

// UnmarshalJSON accepts either the level name or its integer variant.
func (s *Severity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		parsed, err := ParseSeverity(name)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownSeverity, string(data))
	}
	parsed, err := SeverityFromInt(n)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Payload is what callers hand to the store. The store only ever reads these three accessors.
type Payload interface {
	Message() string
	Data() []byte
	Severity() Severity
}

// Log is the payload shape accepted over the wire.
// The lte tag guards callers that build a Log in code; decoders reject bad levels earlier.
type Log struct {
	Level Severity `json:"level" validate:"lte=2"`
	Text  string   `json:"message"`
	Blob  []byte   `json:"data,omitempty"`
}

// Message implements Payload.
func (l Log) Message() string { return l.Text }

// Data implements Payload.
func (l Log) Data() []byte { return l.Blob }

// Severity implements Payload.
func (l Log) Severity() Severity { return l.Level }

// LogEntry is a captured payload stamped with unix seconds at capture time.
type LogEntry struct {
	Time  int64   `json:"time"`
	Inner Payload `json:"inner"`
}

// ServiceLog is the flattened record returned by the unified view.
type ServiceLog struct {
	Level   Severity `json:"level"`
	Message string   `json:"message"`
	Data    []byte   `json:"data"`
	Time    int64    `json:"time"`
}

// ToServiceLog flattens an entry. The data slice is copied so callers cannot reach stored bytes.
func (e LogEntry) ToServiceLog() ServiceLog {
	out := ServiceLog{Time: e.Time}
	if e.Inner == nil {
		return out
	}
	out.Level = e.Inner.Severity()
	out.Message = e.Inner.Message()
	if data := e.Inner.Data(); data != nil {
		out.Data = bytes.Clone(data)
	}
	return out
}

// detach copies p into a Log that shares no memory with the caller.
func detach(p Payload) Log {
	l := AsLog(p)
	l.Blob = bytes.Clone(l.Blob)
	return l
}

// AsLog converts any payload into the wire shape.
func AsLog(p Payload) Log {
	if l, ok := p.(Log); ok {
		return l
	}
	return Log{Level: p.Severity(), Text: p.Message(), Blob: p.Data()}
}
