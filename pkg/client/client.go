// Package client is the public surface for driving a joind server over
// HTTP: loading a declarative schema, emitting molecules, reading a
// bag snapshot, and streaming decision-cycle events. It wraps the
// internal dsl and join types so callers outside this module never
// need to import internal packages directly.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arcflow/joincore/internal/diagnostics"
	"github.com/arcflow/joincore/internal/dsl"
	"github.com/arcflow/joincore/internal/join"
)

// Re-exported so callers can build a schema without importing internal/dsl.
type (
	SchemaConfig   = dsl.SchemaConfig
	SpeciesConfig  = dsl.SpeciesConfig
	SpeciesKind    = dsl.SpeciesKind
	ReactionConfig = dsl.ReactionConfig
	InputConfig    = dsl.InputConfig
	WhereCondition = dsl.WhereCondition
	ComparisonOp   = dsl.ComparisonOp
	EmitEffect     = dsl.EmitEffect
	ReplyEffect    = dsl.ReplyEffect
	Snapshot       = join.Snapshot
	Event          = diagnostics.Event
)

const (
	KindAsync = dsl.KindAsync
	KindSync  = dsl.KindSync

	OpEq  = dsl.OpEq
	OpNe  = dsl.OpNe
	OpGt  = dsl.OpGt
	OpGte = dsl.OpGte
	OpLt  = dsl.OpLt
	OpLte = dsl.OpLte
)

// NewSchema starts a fluent schema builder; see SchemaBuilder's methods for
// declaring species and reactions before calling Build.
func NewSchema(name string) *dsl.SchemaBuilder {
	return dsl.NewSchemaBuilder(name)
}

// Where is a convenience constructor for a WhereCondition.
func Where(field string, op ComparisonOp, value any) WhereCondition {
	return dsl.Where(field, op, value)
}

// Client talks to one joind HTTP server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New constructs a Client against baseURL, e.g. "http://localhost:8080".
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// ApplySchema posts cfg to activate (or replace) the named definition.
func (c *Client) ApplySchema(ctx context.Context, defID string, cfg SchemaConfig) error {
	body, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("client: marshal schema: %w", err)
	}

	u, err := url.JoinPath(c.baseURL, "def", defID, "schema")
	if err != nil {
		return fmt.Errorf("client: build url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusErr(resp)
	}
	return nil
}

// EmitAsync posts value to a non-blocking species and returns once the
// decision cycle has run; it does not wait for the matched reaction's
// body to finish.
func (c *Client) EmitAsync(ctx context.Context, defID, species string, value any) error {
	resp, err := c.postEmit(ctx, defID, species, value)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return statusErr(resp)
	}
	return nil
}

// EmitSync posts value to a blocking species and waits for the matched
// reaction's reply, decoding it into out (a pointer).
func (c *Client) EmitSync(ctx context.Context, defID, species string, value any, out any) error {
	resp, err := c.postEmit(ctx, defID, species, value)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusErr(resp)
	}

	var wrapper struct {
		Reply json.RawMessage `json:"reply"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wrapper); err != nil {
		return fmt.Errorf("client: decode reply envelope: %w", err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(wrapper.Reply, out); err != nil {
		return fmt.Errorf("client: decode reply value: %w", err)
	}
	return nil
}

func (c *Client) postEmit(ctx context.Context, defID, species string, value any) (*http.Response, error) {
	var body []byte
	if value != nil {
		b, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("client: marshal value: %w", err)
		}
		body = b
	}

	u, err := url.JoinPath(c.baseURL, "def", defID, "emit", species)
	if err != nil {
		return nil, fmt.Errorf("client: build url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: send request: %w", err)
	}
	return resp, nil
}

// Contents fetches the current bag snapshot of the named definition.
func (c *Client) Contents(ctx context.Context, defID string) (Snapshot, error) {
	u, err := url.JoinPath(c.baseURL, "def", defID, "contents")
	if err != nil {
		return Snapshot{}, fmt.Errorf("client: build url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("client: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("client: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, statusErr(resp)
	}

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("client: decode snapshot: %w", err)
	}
	return snap, nil
}

// Watch opens a WebSocket stream of decision-cycle events for the named
// definition and delivers them on the returned channel until ctx is
// canceled or the connection drops, at which point the channel closes.
func (c *Client) Watch(ctx context.Context, defID string) (<-chan Event, error) {
	wsURL, err := httpToWS(c.baseURL, defID)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("client: dial watch socket: %w", err)
	}

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		defer conn.Close()
		go func() {
			<-ctx.Done()
			conn.Close()
		}()
		for {
			var evt Event
			if err := conn.ReadJSON(&evt); err != nil {
				return
			}
			select {
			case events <- evt:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

func httpToWS(baseURL, defID string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("client: parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path, err = url.JoinPath(u.Path, "def", defID, "watch")
	if err != nil {
		return "", fmt.Errorf("client: build watch url: %w", err)
	}
	return u.String(), nil
}

func statusErr(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("client: server returned status %d: %s", resp.StatusCode, string(body))
}
