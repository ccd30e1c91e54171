package db

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/xycloo/multiuser-logging-service/internal/config"
)

// Manager coordinates read/write connections.
type Manager struct {
	Write *sqlx.DB
	Read  *sqlx.DB
}

// DriverName maps the configured driver onto the registered database/sql driver.
// "postgres" is served by the pgx stdlib driver, which registers as "pgx".
func DriverName(driver string) string {
	if driver == "postgres" {
		return "pgx"
	}
	return driver
}

// Connect opens the write pool and, when configured, a separate read pool.
// A failing read replica is logged and the write pool serves reads instead.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	write, err := open(ctx, cfg, cfg.DSN)
	if err != nil {
		return nil, err
	}
	mgr := &Manager{Write: write, Read: write}

	if cfg.ReadOnlyDSN != "" {
		read, err := open(ctx, cfg, cfg.ReadOnlyDSN)
		if err != nil {
			logger.Warn("read-only db unavailable, reading from primary", zap.Error(err))
		} else {
			mgr.Read = read
		}
	}
	logger.Info("db connected",
		zap.String("driver", write.DriverName()),
		zap.Bool("read_replica", mgr.Read != mgr.Write),
	)
	return mgr, nil
}

func open(ctx context.Context, cfg config.DatabaseConfig, dsn string) (*sqlx.DB, error) {
	conn, err := sqlx.Open(DriverName(cfg.Driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return conn, nil
}

// Close closes all DB handles.
func (m *Manager) Close() error {
	if m == nil || m.Write == nil {
		return nil
	}
	if err := m.Write.Close(); err != nil {
		return err
	}
	if m.Read != nil && m.Read != m.Write {
		return m.Read.Close()
	}
	return nil
}
