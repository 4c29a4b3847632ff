package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/pgschema/supaextract/cmd/util"
)

// PostgresClient calls the procedures over a direct database connection.
type PostgresClient struct {
	db     *sql.DB
	schema string
}

// NewPostgresClient wraps an open database handle.
func NewPostgresClient(db *sql.DB) *PostgresClient {
	return &PostgresClient{db: db, schema: ProcedureSchema}
}

// OpenPostgres connects to dsn. When the URL carries no password, key is
// used as the password.
func OpenPostgres(ctx context.Context, dsn *url.URL, key string, timeout time.Duration) (*PostgresClient, error) {
	u := *dsn
	if u.User == nil {
		return nil, fmt.Errorf("%w: postgres URL must name a user", ErrInvalidURL)
	}
	if _, ok := u.User.Password(); !ok && key != "" {
		u.User = url.UserPassword(u.User.Username(), key)
	}

	db, err := util.Connect(ctx, &u, timeout)
	if err != nil {
		return nil, mapPgError(err)
	}
	return NewPostgresClient(db), nil
}

// Call implements Client. exec_sql is executed directly on the connection so
// that a database without the setup functions can still be bootstrapped.
func (c *PostgresClient) Call(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	if name == ProcExecSQL {
		stmt, ok := args["sql"].(string)
		if !ok {
			return nil, fmt.Errorf("%s requires a string \"sql\" argument", ProcExecSQL)
		}
		if _, err := util.ExecContextWithLogging(ctx, c.db, stmt, ProcExecSQL); err != nil {
			return nil, mapPgError(err)
		}
		return json.RawMessage("null"), nil
	}

	query, params := c.buildCall(name, args)
	var raw []byte
	if err := util.QueryScalarWithLogging(ctx, c.db, query, name, &raw, params...); err != nil {
		return nil, mapPgError(err)
	}
	return json.RawMessage(raw), nil
}

// Close implements Client.
func (c *PostgresClient) Close() error {
	return c.db.Close()
}

// buildCall renders SELECT json_agg(...) FROM schema.name(arg => $n, ...).
// Arguments are bound in key order so the statement text is stable.
func (c *PostgresClient) buildCall(name string, args map[string]any) (string, []any) {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	named := make([]string, len(keys))
	params := make([]any, len(keys))
	for i, k := range keys {
		named[i] = fmt.Sprintf("%s => $%d", pq.QuoteIdentifier(k), i+1)
		params[i] = args[k]
	}

	query := fmt.Sprintf("SELECT coalesce(json_agg(r), '[]'::json) FROM %s.%s(%s) r",
		pq.QuoteIdentifier(c.schema), pq.QuoteIdentifier(name), strings.Join(named, ", "))
	return query, params
}

// mapPgError turns a server reported error into *Error and keeps the chain
// for everything else (network failures, context errors).
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	return &Error{
		Code:    pgErr.Code,
		Message: pgErr.Message,
		Details: pgErr.Detail,
		Hint:    pgErr.Hint,
	}
}
