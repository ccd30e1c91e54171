package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xycloo/multiuser-logging-service/internal/domain/logs"
)

// Archiver pushes entries cleared by a capture toggle onto a per-user list.
type Archiver struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	timeout time.Duration
	logger  *zap.Logger
}

var (
	_ logs.Archiver      = (*Archiver)(nil)
	_ logs.ArchiveReader = (*Archiver)(nil)
)

// NewArchiver builds a redis-backed archive hook. ttl <= 0 keeps lists forever.
func NewArchiver(client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefix == "" {
		prefix = "archive"
	}
	return &Archiver{client: client, prefix: prefix, ttl: ttl, timeout: 5 * time.Second, logger: logger}
}

// Key returns the list holding archived entries for userID.
func (a *Archiver) Key(userID int64) string {
	return a.prefix + ":" + strconv.FormatInt(userID, 10)
}

// Archive implements logs.Archiver. Failures are logged and otherwise ignored.
func (a *Archiver) Archive(userID int64, discarded []logs.ServiceLog) {
	if len(discarded) == 0 {
		return
	}
	values := make([]interface{}, 0, len(discarded))
	for _, l := range discarded {
		raw, err := json.Marshal(l)
		if err != nil {
			a.logger.Warn("encode archived log failed", zap.Int64("user_id", userID), zap.Error(err))
			continue
		}
		values = append(values, raw)
	}
	if len(values) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	key := a.Key(userID)
	pipe := a.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	if a.ttl > 0 {
		pipe.Expire(ctx, key, a.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		a.logger.Warn("archive discarded logs failed",
			zap.Int64("user_id", userID),
			zap.Int("count", len(values)),
			zap.Error(err),
		)
	}
}

// Archived reads back every archived entry for userID, oldest first.
func (a *Archiver) Archived(ctx context.Context, userID int64) ([]logs.ServiceLog, error) {
	raw, err := a.client.LRange(ctx, a.Key(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]logs.ServiceLog, 0, len(raw))
	for _, item := range raw {
		var l logs.ServiceLog
		if err := json.Unmarshal([]byte(item), &l); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}
