// Package remote talks to the backend that hosts the metadata procedures.
//
// Two transports are supported. An http(s) URL is treated as a Supabase
// project and procedures are invoked through PostgREST's /rest/v1/rpc
// endpoint. A postgres:// URL opens a direct connection and calls the same
// procedures with SELECT.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Procedure names installed by the setup script.
const (
	ProcGetPolicies  = "get_policies"
	ProcGetFunctions = "get_functions"
	ProcGetTriggers  = "get_triggers"
	ProcExecSQL      = "exec_sql"
)

// ProcedureSchema is the schema every procedure is created in. PostgREST
// exposes public by default.
const ProcedureSchema = "public"

// ErrInvalidURL is returned when the backend URL cannot be used at all.
var ErrInvalidURL = errors.New("invalid backend URL")

// Client invokes remote procedures. Call returns the raw JSON produced by the
// procedure so that callers can tell null apart from an empty list.
type Client interface {
	Call(ctx context.Context, name string, args map[string]any) (json.RawMessage, error)
	Close() error
}

// Credentials identify the backend. Key is the API key for http(s) URLs and
// the password for postgres URLs that do not carry one.
type Credentials struct {
	URL string
	Key string
}

// Validate reports whether both fields are present.
func (c Credentials) Validate() bool {
	return strings.TrimSpace(c.URL) != "" && strings.TrimSpace(c.Key) != ""
}

// Options tune the transports.
type Options struct {
	// HTTPClient is used by the REST transport. http.DefaultClient when nil.
	HTTPClient *http.Client
	// ConnectTimeout bounds opening a direct Postgres connection.
	ConnectTimeout time.Duration
}

// Error is a failure reported by the backend itself, as opposed to a
// transport failure. Code is a PostgREST error code (PGRSTxxx) or a SQLSTATE.
type Error struct {
	Status  int // HTTP status, zero for direct connections
	Code    string
	Message string
	Details string
	Hint    string
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Code != "" {
		fmt.Fprintf(&b, "%s: ", e.Code)
	} else if e.Status != 0 {
		fmt.Fprintf(&b, "HTTP %d: ", e.Status)
	}
	b.WriteString(e.Message)
	if e.Details != "" {
		fmt.Fprintf(&b, " (%s)", e.Details)
	}
	return b.String()
}

// Dial returns a Client for the transport selected by the URL scheme.
func Dial(ctx context.Context, creds Credentials, opts Options) (Client, error) {
	u, err := parseURL(creds.URL)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return NewRESTClient(u, creds.Key, opts.HTTPClient), nil
	case "postgres", "postgresql":
		return OpenPostgres(ctx, u, creds.Key, opts.ConnectTimeout)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
}

func parseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not an absolute URL", ErrInvalidURL, raw)
	}
	return u, nil
}
