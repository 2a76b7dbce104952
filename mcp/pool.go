package mcp

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mcpflow/mcpflow/config"
	"github.com/mcpflow/mcpflow/logging"
)

// PoolOptions configure a Pool.
type PoolOptions struct {
	Logger logging.Logger
	// ClientFactory overrides client construction, mainly for tests.
	ClientFactory func(cfg config.ServerConfig) *Client
}

// Pool manages the active set of connected tool server clients. Servers are
// independent, so initial connects run in parallel; a server that fails its
// retry budget is dropped from the pool and logged, never failing the others.
// Pool preserves the configured server order, which discovery relies on for
// deterministic registry iteration.
type Pool struct {
	logger  logging.Logger
	factory func(cfg config.ServerConfig) *Client

	mu      sync.RWMutex
	order   []string
	clients map[string]*Client
}

// NewPool constructs an empty Pool.
func NewPool(optFns ...func(o *PoolOptions)) *Pool {
	opts := PoolOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.ClientFactory == nil {
		logger := opts.Logger
		opts.ClientFactory = func(cfg config.ServerConfig) *Client {
			return NewClient(cfg, func(o *ClientOptions) { o.Logger = logger })
		}
	}
	return &Pool{
		logger:  opts.Logger,
		factory: opts.ClientFactory,
		clients: make(map[string]*Client),
	}
}

// Connect establishes connections to every enabled server in parallel and
// registers the ones that succeed. Per-server connect failures are logged and
// skipped; Connect only returns an error when the context is cancelled.
func (p *Pool) Connect(ctx context.Context, servers []config.ServerConfig) error {
	type result struct {
		name   string
		client *Client
	}

	g, gctx := errgroup.WithContext(ctx)
	results := make([]result, len(servers))

	for i, cfg := range servers {
		if !cfg.Enabled {
			p.logger.Warn("mcp server is disabled", "server", cfg.Name)
			continue
		}
		g.Go(func() error {
			client := p.factory(cfg)
			if err := client.Connect(gctx); err != nil {
				p.logger.Error("failed to connect to mcp server", "server", cfg.Name, "error", err)
				client.Close()
				return nil
			}
			results[i] = result{name: cfg.Name, client: client}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range results {
		if r.client == nil {
			continue
		}
		if _, exists := p.clients[r.name]; exists {
			r.client.Close()
			continue
		}
		p.order = append(p.order, r.name)
		p.clients[r.name] = r.client
	}
	p.logger.Info("mcp pool initialized", "servers", len(p.clients))
	return nil
}

// Get returns the client for the named server.
func (p *Pool) Get(name string) (*Client, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.clients[name]
	return c, ok
}

// Clients returns the connected clients in configured server order.
func (p *Pool) Clients() []*Client {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Client, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, p.clients[name])
	}
	return out
}

// Len returns the number of connected clients.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.clients)
}

// Healthy reports whether at least one pooled server currently passes its
// health check.
func (p *Pool) Healthy(ctx context.Context) bool {
	for _, c := range p.Clients() {
		if c.Healthy(ctx) {
			return true
		}
		p.logger.Warn("server health check failed", "server", c.Name())
	}
	return false
}

// Close closes every pooled client and empties the pool. Idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.clients {
		c.Close()
	}
	p.clients = make(map[string]*Client)
	p.order = nil
}
