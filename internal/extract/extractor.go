// Package extract runs an extraction against a backend: it calls the three
// metadata procedures in order, validates what they return and classifies
// failures so the caller can tell the user what to do next.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pgschema/supaextract/internal/ir"
	"github.com/pgschema/supaextract/internal/logger"
	"github.com/pgschema/supaextract/internal/remote"
)

// DefaultCallTimeout bounds each procedure call.
const DefaultCallTimeout = 30 * time.Second

// Dialer opens a client for the given credentials.
type Dialer func(ctx context.Context, creds remote.Credentials, opts remote.Options) (remote.Client, error)

// Options configure an Extractor.
type Options struct {
	// CallTimeout bounds each procedure call. DefaultCallTimeout when zero.
	CallTimeout time.Duration
	// Remote is passed to the Dialer.
	Remote remote.Options
}

// Extractor fetches policies, functions and triggers from a backend.
type Extractor struct {
	dial Dialer
	opts Options
}

// New creates an Extractor. A nil dial uses remote.Dial.
func New(dial Dialer, opts Options) *Extractor {
	if dial == nil {
		dial = remote.Dial
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	if opts.Remote.ConnectTimeout <= 0 {
		opts.Remote.ConnectTimeout = opts.CallTimeout
	}
	return &Extractor{dial: dial, opts: opts}
}

// Extract calls get_policies, get_functions and get_triggers in that order.
// The first failure stops the sequence and is returned as an *Error. On
// success every slice of the result is non-nil.
func (e *Extractor) Extract(ctx context.Context, creds remote.Credentials) (*ir.Result, error) {
	if !creds.Validate() {
		return nil, &Error{Kind: KindMissingCredentials}
	}

	client, err := e.dial(ctx, creds, e.opts.Remote)
	if err != nil {
		return nil, Classify("", err)
	}
	defer client.Close()

	return e.ExtractWith(ctx, client)
}

// ExtractWith runs the extraction on an already open client.
func (e *Extractor) ExtractWith(ctx context.Context, client remote.Client) (*ir.Result, error) {
	log := logger.Get()

	var policies []ir.Policy
	if err := e.fetch(ctx, client, remote.ProcGetPolicies, &policies); err != nil {
		return nil, err
	}
	var functions []ir.Function
	if err := e.fetch(ctx, client, remote.ProcGetFunctions, &functions); err != nil {
		return nil, err
	}
	var triggers []ir.Trigger
	if err := e.fetch(ctx, client, remote.ProcGetTriggers, &triggers); err != nil {
		return nil, err
	}

	result := ir.NewResult(policies, functions, triggers)
	counts := result.Counts()
	log.Debug("Extraction finished", "policies", counts.Policies, "functions", counts.Functions, "triggers", counts.Triggers)
	return result, nil
}

// fetch calls one procedure and decodes its rows into dest, which must point
// to a slice.
func (e *Extractor) fetch(ctx context.Context, client remote.Client, procedure string, dest any) error {
	callCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()

	raw, err := client.Call(callCtx, procedure, nil)
	if err != nil {
		return Classify(procedure, err)
	}
	return decodeRows(procedure, raw, dest)
}

// decodeRows validates the payload shape. A missing or null payload means
// the caller is not allowed to see the rows; anything other than an array of
// objects matching the row type is rejected.
func decodeRows(procedure string, raw json.RawMessage, dest any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return &Error{Kind: KindPermissionDenied, Procedure: procedure}
	}
	if raw[0] != '[' {
		return &Error{Kind: KindInvalidShape, Procedure: procedure, Err: fmt.Errorf("expected a JSON array, got %s", describeJSON(raw))}
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return &Error{Kind: KindInvalidShape, Procedure: procedure, Err: fmt.Errorf("failed to decode rows: %w", err)}
	}
	return nil
}

func describeJSON(raw []byte) string {
	switch raw[0] {
	case '{':
		return "an object"
	case '"':
		return "a string"
	case 't', 'f':
		return "a boolean"
	default:
		return "a scalar"
	}
}

// ApplySetup sends script to the backend through exec_sql.
func (e *Extractor) ApplySetup(ctx context.Context, creds remote.Credentials, script string) error {
	if !creds.Validate() {
		return &Error{Kind: KindMissingCredentials}
	}

	client, err := e.dial(ctx, creds, e.opts.Remote)
	if err != nil {
		return Classify("", err)
	}
	defer client.Close()

	callCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()

	logger.Get().Debug("Applying setup script", "bytes", len(script))
	if _, err := client.Call(callCtx, remote.ProcExecSQL, map[string]any{"sql": script}); err != nil {
		return Classify(remote.ProcExecSQL, err)
	}
	return nil
}
