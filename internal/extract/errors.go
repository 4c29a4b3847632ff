package extract

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/pgschema/supaextract/internal/remote"
)

// Kind classifies why an extraction failed.
type Kind int

const (
	KindRemote Kind = iota
	KindMissingCredentials
	KindSetupRequired
	KindPermissionDenied
	KindInvalidShape
	KindConnection
	KindAuthentication
	KindTimeout
)

var kindNames = map[Kind]string{
	KindRemote:             "remote",
	KindMissingCredentials: "missing_credentials",
	KindSetupRequired:      "setup_required",
	KindPermissionDenied:   "permission_denied",
	KindInvalidShape:       "invalid_shape",
	KindConnection:         "connection",
	KindAuthentication:     "authentication",
	KindTimeout:            "timeout",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified extraction failure. Procedure is empty when the
// failure happened before any procedure was called.
type Error struct {
	Kind      Kind
	Procedure string
	Err       error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil && e.Procedure == "":
		return e.Kind.String()
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Procedure, e.Kind)
	case e.Procedure == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Procedure, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Title is the short heading shown to the user.
func (e *Error) Title() string {
	switch e.Kind {
	case KindMissingCredentials:
		return "Missing credentials"
	case KindSetupRequired:
		return "Setup required"
	case KindPermissionDenied:
		return "Permission denied"
	case KindInvalidShape:
		return "Unexpected response"
	case KindConnection:
		return "Connection failed"
	case KindAuthentication:
		return "Authentication failed"
	case KindTimeout:
		return "Request timed out"
	default:
		return "Error"
	}
}

// Message is the user facing explanation.
func (e *Error) Message() string {
	switch e.Kind {
	case KindMissingCredentials:
		return "Please provide both URL and API key"
	case KindSetupRequired:
		return fmt.Sprintf("The %s function is not installed. Run the setup script on your database first", e.procedure())
	case KindPermissionDenied:
		return fmt.Sprintf("No data returned from %s. Check that the API key is allowed to execute it", e.procedure())
	case KindInvalidShape:
		return fmt.Sprintf("%s returned data in an unexpected format: %v", e.procedure(), e.Err)
	case KindConnection:
		return fmt.Sprintf("Could not reach the database: %v", e.Err)
	case KindAuthentication:
		return fmt.Sprintf("The database rejected the credentials: %v", e.Err)
	case KindTimeout:
		return fmt.Sprintf("%s did not answer in time", e.procedure())
	default:
		if e.Err == nil {
			return "Failed to extract database information"
		}
		return e.Err.Error()
	}
}

func (e *Error) procedure() string {
	if e.Procedure == "" {
		return "the database"
	}
	return e.Procedure + "()"
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Classify wraps a failed call of procedure into an *Error. Rules are tried
// in order; the first match wins.
func Classify(procedure string, err error) *Error {
	var existing *Error
	if errors.As(err, &existing) {
		return existing
	}
	return &Error{Kind: classifyKind(procedure, err), Procedure: procedure, Err: err}
}

func classifyKind(procedure string, err error) Kind {
	var remoteErr *remote.Error
	isRemote := errors.As(err, &remoteErr)
	msg := strings.ToLower(err.Error())

	// setup
	if isRemote && (remoteErr.Code == "42883" || remoteErr.Code == "PGRST202") {
		return KindSetupRequired
	}
	if isMissingFunctionMessage(procedure, msg) {
		return KindSetupRequired
	}

	if errors.Is(err, context.Canceled) {
		return KindRemote
	}

	// connection
	if isConnectionError(err) {
		return KindConnection
	}
	if isRemote && strings.HasPrefix(remoteErr.Code, "08") {
		return KindConnection
	}
	if containsAny(msg, "invalid url", "failed to fetch", "connection refused", "no such host") {
		return KindConnection
	}

	// authentication
	if isRemote {
		if remoteErr.Status == http.StatusUnauthorized || remoteErr.Status == http.StatusForbidden {
			return KindAuthentication
		}
		switch remoteErr.Code {
		case "PGRST301", "PGRST302", "28000", "28P01":
			return KindAuthentication
		case "42501":
			return KindPermissionDenied
		}
	}
	if containsAny(msg, "invalid api key", "jwt", "password authentication failed") {
		return KindAuthentication
	}

	// timeout
	if isTimeout(err) {
		return KindTimeout
	}
	if isRemote && remoteErr.Code == "57014" {
		return KindTimeout
	}
	if containsAny(msg, "timeout", "timed out") {
		return KindTimeout
	}

	return KindRemote
}

func isMissingFunctionMessage(procedure, msg string) bool {
	if procedure != "" && strings.Contains(msg, strings.ToLower(procedure)+"() does not exist") {
		return true
	}
	if strings.Contains(msg, "could not find the function") {
		return true
	}
	return strings.Contains(msg, "function ") && strings.Contains(msg, "does not exist")
}

// isConnectionError matches transport failures that are not timeouts.
func isConnectionError(err error) bool {
	if errors.Is(err, remote.ErrInvalidURL) {
		return true
	}
	if isTimeout(err) {
		return false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
