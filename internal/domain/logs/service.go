package logs

import (
	"fmt"
	"strconv"

	"github.com/valyala/fastjson"
	"go.uber.org/zap"
)

// Service decodes transport payloads and delegates to the capture backend.
type Service struct {
	store   Backend
	parsers fastjson.ParserPool
	logger  *zap.Logger
}

// NewService wires a Service.
func NewService(store Backend, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// ParseUserID parses a signed 64-bit user id.
func ParseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidUserID, raw)
	}
	return id, nil
}

// Ingest decodes a JSON object or array and writes every entry.
// The returned count is the number of entries handed to the store, captured or not.
func (s *Service) Ingest(userID int64, body []byte) (int, error) {
	batch, err := ParseBatch(&s.parsers, body)
	if err != nil {
		return 0, err
	}
	for _, l := range batch {
		s.store.Write(userID, l)
	}
	s.logger.Debug("logs ingested", zap.Int64("user_id", userID), zap.Int("count", len(batch)))
	return len(batch), nil
}

// IngestSerialized decodes one binary-encoded log, optionally zstd-compressed, and writes it.
func (s *Service) IngestSerialized(userID int64, env Envelope, compressed bool) (Log, error) {
	raw := env.Serialized
	if compressed {
		var err error
		if raw, err = Decompress(raw); err != nil {
			return Log{}, err
		}
	}
	l, err := DecodeLog(raw)
	if err != nil {
		return Log{}, err
	}
	s.store.Write(userID, l)
	s.logger.Debug("log ingested",
		zap.Int64("user_id", userID),
		zap.Stringer("level", l.Level),
		zap.String("message", l.Text),
	)
	return l, nil
}

// ReadSeverity returns one buffer for userID.
func (s *Service) ReadSeverity(userID int64, sev Severity) []LogEntry {
	return s.store.ReadSeverity(userID, sev)
}

// ReadUnified returns the flattened view for userID.
func (s *Service) ReadUnified(userID int64) []ServiceLog {
	return s.store.ReadUnified(userID)
}

// EnableCapture clears history and starts capturing for a known user.
func (s *Service) EnableCapture(userID int64) {
	s.store.EnableCapture(userID)
	s.logger.Info("capture enabled", zap.Int64("user_id", userID))
}

// DisableCapture clears history and stops capturing for a known user.
func (s *Service) DisableCapture(userID int64) {
	s.store.DisableCapture(userID)
	s.logger.Info("capture disabled", zap.Int64("user_id", userID))
}

// ListUsers returns every user with a group.
func (s *Service) ListUsers() []int64 {
	return s.store.ListUsers()
}
