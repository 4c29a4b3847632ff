package util

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgschema/supaextract/internal/logger"
)

// ApplicationName identifies supaextract sessions in pg_stat_activity.
const ApplicationName = "supaextract"

// Connect opens a database connection for the given postgres:// URL and
// verifies it with a ping bounded by timeout.
func Connect(ctx context.Context, dsn *url.URL, timeout time.Duration) (*sql.DB, error) {
	log := logger.Get()

	log.Debug("Attempting database connection",
		"host", dsn.Hostname(),
		"port", dsn.Port(),
		"database", dsn.Path,
		"user", dsn.User.Username(),
	)

	conn, err := sql.Open("pgx", withApplicationName(dsn).String())
	if err != nil {
		log.Debug("Database connection failed", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// Test the connection
	if err := conn.PingContext(ctx); err != nil {
		log.Debug("Database ping failed", "error", err)
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Debug("Database connection established successfully")
	return conn, nil
}

// withApplicationName returns a copy of dsn with application_name set unless
// the caller already chose one.
func withApplicationName(dsn *url.URL) *url.URL {
	u := *dsn
	q := u.Query()
	if q.Get("application_name") == "" {
		q.Set("application_name", ApplicationName)
	}
	u.RawQuery = q.Encode()
	return &u
}
