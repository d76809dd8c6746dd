// internal/infra/database/connection.go
package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

type DB struct {
	Client *sql.DB
}

// NewConnection は DATABASE_URL (postgres://...) から PostgreSQL 接続を初期化します。
func NewConnection(ctx context.Context, url string, logger *zap.Logger) (*DB, error) {
	if url == "" {
		return nil, errors.New("database: empty DATABASE_URL")
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, errors.Wrap(err, "database: open")
	}

	// Connection pool tuning
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "database: ping")
	}

	if logger != nil {
		logger.Named("database").Info("connected to PostgreSQL")
	}
	return &DB{Client: db}, nil
}

// Graceful shutdown
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
