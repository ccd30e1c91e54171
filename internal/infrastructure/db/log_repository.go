package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/xycloo/multiuser-logging-service/internal/domain/logs"
)

const logsTable = "user_logs"

var schemas = map[string][]string{
	"pgx": {
		`CREATE TABLE IF NOT EXISTS user_logs (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			timestamp BIGINT NOT NULL,
			loglevel BIGINT NOT NULL,
			message TEXT NOT NULL,
			data BYTEA
		)`,
		`CREATE INDEX IF NOT EXISTS user_logs_user_id_idx ON user_logs (user_id)`,
		`CREATE TABLE IF NOT EXISTS user_logs_archive (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			timestamp BIGINT NOT NULL,
			loglevel BIGINT NOT NULL,
			message TEXT NOT NULL,
			data BYTEA,
			archived_at BIGINT NOT NULL
		)`,
	},
	"mysql": {
		`CREATE TABLE IF NOT EXISTS user_logs (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			timestamp BIGINT NOT NULL,
			loglevel BIGINT NOT NULL,
			message TEXT NOT NULL,
			data BLOB,
			INDEX user_logs_user_id_idx (user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS user_logs_archive (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			timestamp BIGINT NOT NULL,
			loglevel BIGINT NOT NULL,
			message TEXT NOT NULL,
			data BLOB,
			archived_at BIGINT NOT NULL
		)`,
	},
}

// logRow is the column mapping shared by user_logs and user_logs_archive.
type logRow struct {
	UserID     int64  `db:"user_id"`
	Timestamp  int64  `db:"timestamp"`
	Level      int64  `db:"loglevel"`
	Message    string `db:"message"`
	Data       []byte `db:"data"`
	ArchivedAt int64  `db:"archived_at"`
}

func (r logRow) entry() (logs.LogEntry, error) {
	sev, err := logs.SeverityFromInt(r.Level)
	if err != nil {
		return logs.LogEntry{}, err
	}
	return logs.LogEntry{
		Time:  r.Timestamp,
		Inner: logs.Log{Level: sev, Text: r.Message, Blob: r.Data},
	}, nil
}

// LogRepository implements logs.Repository using sqlx.
type LogRepository struct {
	write *sqlx.DB
	read  *sqlx.DB
}

var _ logs.Repository = (*LogRepository)(nil)

// NewLogRepository constructs the repo. read may be nil to reuse write.
func NewLogRepository(write, read *sqlx.DB) *LogRepository {
	if read == nil {
		read = write
	}
	return &LogRepository{write: write, read: read}
}

// Setup creates the tables and, when reset is set, empties user_logs.
func (r *LogRepository) Setup(ctx context.Context, reset bool) error {
	stmts, ok := schemas[r.write.DriverName()]
	if !ok {
		return fmt.Errorf("no schema for driver %s", r.write.DriverName())
	}
	for _, stmt := range stmts {
		if _, err := r.write.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	if reset {
		if _, err := r.write.ExecContext(ctx, "DELETE FROM "+logsTable); err != nil {
			return fmt.Errorf("reset logs: %w", err)
		}
	}
	return nil
}

// Write inserts one row stamped with timestamp; the level is stored as its integer variant.
func (r *LogRepository) Write(ctx context.Context, userID int64, timestamp int64, l logs.Log) error {
	query := `INSERT INTO user_logs (user_id, timestamp, loglevel, message, data)
		VALUES (:user_id, :timestamp, :loglevel, :message, :data)`
	_, err := r.write.NamedExecContext(ctx, query, logRow{
		UserID:    userID,
		Timestamp: timestamp,
		Level:     int64(l.Level),
		Message:   l.Text,
		Data:      l.Blob,
	})
	return err
}

// ReadUser returns every row for userID in insertion order.
func (r *LogRepository) ReadUser(ctx context.Context, userID int64) ([]logs.LogEntry, error) {
	query := r.read.Rebind(`SELECT user_id, timestamp, loglevel, message, data FROM user_logs
		WHERE user_id = ? ORDER BY timestamp, id`)
	var rows []logRow
	if err := r.read.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}
	out := make([]logs.LogEntry, 0, len(rows))
	for _, row := range rows {
		e, err := row.entry()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// ArchiveBatch stores entries discarded by a capture toggle in one transaction.
func (r *LogRepository) ArchiveBatch(ctx context.Context, userID, archivedAt int64, discarded []logs.ServiceLog) error {
	if len(discarded) == 0 {
		return nil
	}
	query := `INSERT INTO user_logs_archive (user_id, timestamp, loglevel, message, data, archived_at)
		VALUES (:user_id, :timestamp, :loglevel, :message, :data, :archived_at)`
	tx, err := r.write.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	for _, l := range discarded {
		row := logRow{
			UserID:     userID,
			Timestamp:  l.Time,
			Level:      int64(l.Level),
			Message:    l.Message,
			Data:       l.Data,
			ArchivedAt: archivedAt,
		}
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// ReadArchive returns archived rows for userID, oldest archive batch first.
func (r *LogRepository) ReadArchive(ctx context.Context, userID int64) ([]logs.ServiceLog, error) {
	query := r.read.Rebind(`SELECT user_id, timestamp, loglevel, message, data, archived_at FROM user_logs_archive
		WHERE user_id = ? ORDER BY archived_at, id`)
	var rows []logRow
	if err := r.read.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}
	out := make([]logs.ServiceLog, 0, len(rows))
	for _, row := range rows {
		e, err := row.entry()
		if err != nil {
			return nil, err
		}
		out = append(out, e.ToServiceLog())
	}
	return out, nil
}
