package logs

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/valyala/fastjson"
	"go.uber.org/zap"
)

// Repository defines the relational persistence boundary.
type Repository interface {
	Setup(ctx context.Context, reset bool) error
	Write(ctx context.Context, userID int64, timestamp int64, log Log) error
	ReadUser(ctx context.Context, userID int64) ([]LogEntry, error)
}

// ArchiveReader serves entries previously handed to an Archiver, oldest first.
type ArchiveReader interface {
	Archived(ctx context.Context, userID int64) ([]ServiceLog, error)
}

// PersistService stores every write, without capture gating.
type PersistService struct {
	repo      Repository
	validator *validator.Validate
	parsers   fastjson.ParserPool
	now       func() time.Time
	logger    *zap.Logger
}

// NewPersistService wires a PersistService.
func NewPersistService(repo Repository, logger *zap.Logger) *PersistService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PersistService{
		repo:      repo,
		validator: validator.New(),
		now:       time.Now,
		logger:    logger,
	}
}

// Write stamps l with the current unix second and persists it.
func (s *PersistService) Write(ctx context.Context, userID int64, l Log) error {
	if err := s.validator.Struct(l); err != nil {
		return err
	}
	if err := s.repo.Write(ctx, userID, s.now().Unix(), l); err != nil {
		s.logger.Error("persist log failed", zap.Int64("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

// Ingest decodes one JSON log object and persists it. A missing or unknown level is rejected.
func (s *PersistService) Ingest(ctx context.Context, userID int64, body []byte) (Log, error) {
	l, err := ParseLog(&s.parsers, body)
	if err != nil {
		return Log{}, err
	}
	if err := s.Write(ctx, userID, l); err != nil {
		return Log{}, err
	}
	return l, nil
}

// Read returns every persisted entry for userID.
func (s *PersistService) Read(ctx context.Context, userID int64) ([]LogEntry, error) {
	entries, err := s.repo.ReadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []LogEntry{}
	}
	return entries, nil
}
