package extract

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pgschema/supaextract/internal/remote"
)

// fakeResponse is what fakeClient answers for one procedure.
type fakeResponse struct {
	raw string
	err error
}

// fakeClient records every call and answers from a fixed table. A procedure
// missing from the table returns an empty array.
type fakeClient struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	calls     []string
	args      []map[string]any
	closed    bool
	block     chan struct{}
}

func newFakeClient(responses map[string]fakeResponse) *fakeClient {
	return &fakeClient{responses: responses}
}

func (c *fakeClient) Call(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	c.mu.Lock()
	c.calls = append(c.calls, name)
	c.args = append(c.args, args)
	block := c.block
	c.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	resp, ok := c.responses[name]
	if !ok {
		return json.RawMessage("[]"), nil
	}
	if resp.err != nil {
		return nil, resp.err
	}
	return json.RawMessage(resp.raw), nil
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeClient) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

// fakeDialer hands out client and counts dials.
type fakeDialer struct {
	client *fakeClient
	err    error
	dials  int
}

func (d *fakeDialer) Dial(ctx context.Context, creds remote.Credentials, opts remote.Options) (remote.Client, error) {
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	return d.client, nil
}

var validCreds = remote.Credentials{URL: "https://example.supabase.co", Key: "anon-key"}
