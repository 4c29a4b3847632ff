package util

import (
	"context"
	"database/sql"

	"github.com/pgschema/supaextract/internal/logger"
)

// ExecContextWithLogging executes SQL with debug logging if debug mode is enabled.
// It logs the SQL statement before execution and the result/error after execution.
func ExecContextWithLogging(ctx context.Context, db *sql.DB, sqlStmt string, description string) (sql.Result, error) {
	isDebug := logger.IsDebug()
	if isDebug {
		logger.Get().Debug("Executing SQL", "description", description, "sql", sqlStmt)
	}

	result, err := db.ExecContext(ctx, sqlStmt)

	if isDebug {
		if err != nil {
			logger.Get().Debug("SQL execution failed", "description", description, "error", err)
		} else {
			logger.Get().Debug("SQL execution succeeded", "description", description)
		}
	}

	return result, err
}

// QueryScalarWithLogging runs a query returning a single column of a single
// row and scans it into dest, logging like ExecContextWithLogging.
func QueryScalarWithLogging(ctx context.Context, db *sql.DB, query string, description string, dest any, args ...any) error {
	isDebug := logger.IsDebug()
	if isDebug {
		logger.Get().Debug("Executing query", "description", description, "sql", query)
	}

	err := db.QueryRowContext(ctx, query, args...).Scan(dest)

	if isDebug {
		if err != nil {
			logger.Get().Debug("Query failed", "description", description, "error", err)
		} else {
			logger.Get().Debug("Query succeeded", "description", description)
		}
	}

	return err
}
