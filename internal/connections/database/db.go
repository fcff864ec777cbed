package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"comanda-core/internal/config"
)

// Connect opens a pooled connection through the pgx stdlib driver,
// retrying while the database comes up.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	const (
		maxRetries = 10
		retryDelay = 2 * time.Second
		pingTTL    = 5 * time.Second
	)

	var err error
	for i := 1; i <= maxRetries; i++ {
		var db *sqlx.DB
		db, err = sqlx.Open("pgx", cfg.DSN())
		if err == nil {
			pctx, cancel := context.WithTimeout(ctx, pingTTL)
			err = db.PingContext(pctx)
			cancel()
			if err == nil {
				return db, nil
			}
			_ = db.Close()
		}

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return nil, fmt.Errorf("db connect canceled: %w", ctx.Err())
		}
	}
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", maxRetries, err)
}
