package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mcpflow/mcpflow/config"
	"github.com/mcpflow/mcpflow/logging"
)

// ConnectionError is returned when a server stays unreachable after its
// configured retry budget. It is fatal to that server's participation in the
// workflow, never to the system as a whole.
type ConnectionError struct {
	Server   string
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to mcp server %s after %d attempts: %v", e.Server, e.Attempts, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Response is the normalized outcome of one HTTP exchange with a tool server.
// Failures are values: callers inspect Success and Err instead of handling
// transport errors themselves.
type Response struct {
	Success    bool
	Data       any
	Err        string
	StatusCode int
}

// ClientOptions configure a Client beyond its server descriptor.
type ClientOptions struct {
	// HTTPClient overrides the underlying transport, mainly for tests.
	HTTPClient *http.Client
	Logger     logging.Logger
}

// Client is one HTTP-reachable tool server connection. It owns the connection
// lifecycle for that server: retrying health checks on Connect, invoking tools
// and releasing transport resources on Close. Safe for concurrent use after
// Connect.
type Client struct {
	cfg    config.ServerConfig
	http   *http.Client
	logger logging.Logger

	mu        sync.Mutex
	connected bool
	closed    bool
}

// NewClient constructs a Client for the given server descriptor.
func NewClient(cfg config.ServerConfig, optFns ...func(o *ClientOptions)) *Client {
	opts := ClientOptions{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: opts.HTTPClient, logger: opts.Logger}
}

// Name returns the unique server name this client is bound to.
func (c *Client) Name() string { return c.cfg.Name }

// Config returns the immutable server descriptor.
func (c *Client) Config() config.ServerConfig { return c.cfg }

// Connected reports whether Connect has succeeded.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Connect verifies the server is reachable by probing its health endpoint up
// to the configured attempt count, sleeping the configured delay between
// attempts. It returns a *ConnectionError only after exhausting all attempts.
func (c *Client) Connect(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.RetryAttempts; attempt++ {
		if err := c.checkHealth(ctx); err == nil {
			c.mu.Lock()
			c.connected = true
			c.mu.Unlock()
			c.logger.Info("connected to mcp server", "server", c.cfg.Name, "url", c.cfg.URL)
			return nil
		} else {
			lastErr = err
		}

		if attempt == c.cfg.RetryAttempts {
			break
		}
		c.logger.Warn("connection attempt failed", "server", c.cfg.Name, "attempt", attempt, "error", lastErr)

		select {
		case <-ctx.Done():
			return &ConnectionError{Server: c.cfg.Name, Attempts: attempt, Err: ctx.Err()}
		case <-time.After(c.cfg.RetryDelay):
		}
	}
	return &ConnectionError{Server: c.cfg.Name, Attempts: c.cfg.RetryAttempts, Err: lastErr}
}

// Healthy reports whether the server's health endpoint currently answers with
// HTTP 200. Network failures are reported as unhealthy, never as errors.
func (c *Client) Healthy(ctx context.Context) bool {
	if err := c.checkHealth(ctx); err != nil {
		c.logger.Debug("health check failed", "server", c.cfg.Name, "error", err)
		return false
	}
	return true
}

func (c *Client) checkHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL+c.cfg.HealthPath, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Invoke calls the named tool with the given parameter mapping via
// POST <toolsPath>/<toolName>/call. The outcome is always a Response value;
// transport and decode failures are folded into it.
func (c *Client) Invoke(ctx context.Context, toolName string, params map[string]any) Response {
	endpoint := fmt.Sprintf("%s/%s/call", strings.TrimSuffix(c.cfg.ToolsPath, "/"), toolName)
	return c.send(ctx, http.MethodPost, endpoint, params)
}

// FetchJSON issues a GET against an arbitrary server path and decodes the
// JSON body. Used by catalog discovery to probe candidate listing endpoints.
func (c *Client) FetchJSON(ctx context.Context, path string) (any, error) {
	resp := c.send(ctx, http.MethodGet, path, nil)
	if !resp.Success {
		return nil, fmt.Errorf("request to %s failed: %s", path, resp.Err)
	}
	return resp.Data, nil
}

func (c *Client) send(ctx context.Context, method, path string, body map[string]any) Response {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return Response{Success: false, Err: fmt.Sprintf("failed to encode request body: %v", err)}
		}
		reader = bytes.NewReader(payload)
	}

	url := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		url = c.cfg.URL + path
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return Response{Success: false, Err: err.Error()}
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "server", c.cfg.Name, "path", path, "error", err)
		return Response{Success: false, Err: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{Success: false, StatusCode: resp.StatusCode, Err: err.Error()}
	}

	var data any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			data = string(raw)
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return Response{Success: false, Data: data, StatusCode: resp.StatusCode, Err: string(raw)}
	}
	return Response{Success: true, Data: data, StatusCode: resp.StatusCode}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
}

// Close releases the client's transport resources. Idempotent.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.connected = false
	c.http.CloseIdleConnections()
	c.logger.Debug("mcp client closed", "server", c.cfg.Name)
}
