package db

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xycloo/multiuser-logging-service/internal/domain/logs"
)

// Archiver copies entries cleared by a capture toggle into user_logs_archive.
type Archiver struct {
	repo    *LogRepository
	timeout time.Duration
	logger  *zap.Logger
}

var (
	_ logs.Archiver      = (*Archiver)(nil)
	_ logs.ArchiveReader = (*Archiver)(nil)
)

// NewArchiver builds a SQL-backed archive hook.
func NewArchiver(repo *LogRepository, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{repo: repo, timeout: 5 * time.Second, logger: logger}
}

// Archive implements logs.Archiver. Failures are logged and otherwise ignored.
func (a *Archiver) Archive(userID int64, discarded []logs.ServiceLog) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	if err := a.repo.ArchiveBatch(ctx, userID, time.Now().Unix(), discarded); err != nil {
		a.logger.Warn("archive discarded logs failed",
			zap.Int64("user_id", userID),
			zap.Int("count", len(discarded)),
			zap.Error(err),
		)
	}
}

// Archived implements logs.ArchiveReader.
func (a *Archiver) Archived(ctx context.Context, userID int64) ([]logs.ServiceLog, error) {
	return a.repo.ReadArchive(ctx, userID)
}
