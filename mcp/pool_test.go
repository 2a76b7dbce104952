package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpflow/mcpflow/config"
)

func healthyServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func poolServerConfig(name, url string) config.ServerConfig {
	return config.ServerConfig{
		Name:          name,
		URL:           url,
		Enabled:       true,
		Timeout:       5 * time.Second,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
		HealthPath:    "/health",
		ToolsPath:     "/mcp/tools",
		Tools:         []string{"*"},
	}
}

func TestPool_ConnectAll(t *testing.T) {
	a := healthyServer(t)
	b := healthyServer(t)

	p := NewPool()
	err := p.Connect(context.Background(), []config.ServerConfig{
		poolServerConfig("alpha", a.URL),
		poolServerConfig("beta", b.URL),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, p.Len())
	_, ok := p.Get("alpha")
	assert.True(t, ok)
	_, ok = p.Get("beta")
	assert.True(t, ok)
}

func TestPool_PreservesConfiguredOrder(t *testing.T) {
	a := healthyServer(t)
	b := healthyServer(t)
	c := healthyServer(t)

	p := NewPool()
	err := p.Connect(context.Background(), []config.ServerConfig{
		poolServerConfig("third", c.URL),
		poolServerConfig("first", a.URL),
		poolServerConfig("second", b.URL),
	})
	require.NoError(t, err)

	var names []string
	for _, cl := range p.Clients() {
		names = append(names, cl.Name())
	}
	assert.Equal(t, []string{"third", "first", "second"}, names)
}

func TestPool_UnreachableServerIsSkipped(t *testing.T) {
	good := healthyServer(t)
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	p := NewPool()
	err := p.Connect(context.Background(), []config.ServerConfig{
		poolServerConfig("good", good.URL),
		poolServerConfig("bad", bad.URL),
	})
	// A failed server never fails pool construction.
	require.NoError(t, err)

	assert.Equal(t, 1, p.Len())
	_, ok := p.Get("bad")
	assert.False(t, ok)
}

func TestPool_DisabledServerIsSkipped(t *testing.T) {
	ts := healthyServer(t)
	cfg := poolServerConfig("off", ts.URL)
	cfg.Enabled = false

	p := NewPool()
	err := p.Connect(context.Background(), []config.ServerConfig{cfg})
	require.NoError(t, err)
	assert.Equal(t, 0, p.Len())
}

func TestPool_ConnectCancelledContext(t *testing.T) {
	ts := healthyServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPool()
	err := p.Connect(ctx, []config.ServerConfig{poolServerConfig("only", ts.URL)})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, p.Len())
}

func TestPool_Healthy(t *testing.T) {
	ts := healthyServer(t)

	p := NewPool()
	require.NoError(t, p.Connect(context.Background(), []config.ServerConfig{
		poolServerConfig("only", ts.URL),
	}))

	assert.True(t, p.Healthy(context.Background()))

	p.Close()
	assert.Equal(t, 0, p.Len())
	assert.False(t, p.Healthy(context.Background()))
}
