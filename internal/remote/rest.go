package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pgschema/supaextract/internal/logger"
)

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 64 << 20

// RESTClient calls procedures through PostgREST (POST /rest/v1/rpc/<name>).
type RESTClient struct {
	baseURL    string
	key        string
	httpClient *http.Client
}

// NewRESTClient creates a client for the project at base. The key is sent
// both as the apikey header and as a bearer token, as the Supabase gateway
// expects.
func NewRESTClient(base *url.URL, key string, httpClient *http.Client) *RESTClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RESTClient{
		baseURL:    strings.TrimRight(base.String(), "/"),
		key:        key,
		httpClient: httpClient,
	}
}

// restError mirrors the JSON error body PostgREST returns.
type restError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// Call implements Client.
func (c *RESTClient) Call(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	log := logger.Get()

	if args == nil {
		args = map[string]any{}
	}
	body, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode arguments for %s: %w", name, err)
	}

	endpoint := c.baseURL + "/rest/v1/rpc/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log.Debug("Calling remote procedure", "transport", "rest", "procedure", name, "endpoint", endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug("Remote procedure call failed", "procedure", name, "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", name, err)
	}

	log.Debug("Remote procedure returned", "procedure", name, "status", resp.StatusCode, "bytes", len(payload))

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeRESTError(resp.StatusCode, payload)
	}
	return json.RawMessage(bytes.TrimSpace(payload)), nil
}

// Close implements Client. Idle connections belong to the shared http.Client.
func (c *RESTClient) Close() error {
	return nil
}

func decodeRESTError(status int, payload []byte) *Error {
	e := &Error{Status: status}

	var body restError
	if err := json.Unmarshal(payload, &body); err == nil && (body.Message != "" || body.Code != "") {
		e.Code = body.Code
		e.Message = body.Message
		e.Details = body.Details
		e.Hint = body.Hint
		return e
	}

	// Gateways in front of PostgREST answer with {"message": ...} or plain text
	e.Message = strings.TrimSpace(string(payload))
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}
