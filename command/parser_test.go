package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpflow/mcpflow/catalog"
)

// fakeRegistry satisfies Registry with a fixed entry list.
type fakeRegistry struct {
	entries []catalog.Entry
}

func (f fakeRegistry) LookupName(tool string) (catalog.Entry, bool) {
	for _, e := range f.entries {
		if e.Name == tool {
			return e, true
		}
	}
	return catalog.Entry{}, false
}

func (f fakeRegistry) First() (catalog.Entry, bool) {
	if len(f.entries) == 0 {
		return catalog.Entry{}, false
	}
	return f.entries[0], true
}

// -------------------- Marker Tests --------------------

func TestParse_NoMarker(t *testing.T) {
	p := NewParser()
	inv, err := p.Parse("just a normal sentence with no command", fakeRegistry{})
	assert.NoError(t, err)
	assert.Nil(t, inv)
}

func TestParse_EmptyPayload(t *testing.T) {
	p := NewParser()
	inv, err := p.Parse("please run MCP:", fakeRegistry{})
	assert.Nil(t, inv)
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestParse_MarkerMidText(t *testing.T) {
	p := NewParser()
	inv, err := p.Parse("I will check that now. MCP:k8s:get_pods:{}", fakeRegistry{})
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, "k8s", inv.Server)
	assert.Equal(t, "get_pods", inv.Tool)
}

// -------------------- Triple Form Tests --------------------

func TestParseTripleForm_RoundTrip(t *testing.T) {
	p := NewParser()
	inv, err := p.Parse(`MCP:srvA:toolX:{"a":1}`, fakeRegistry{})
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, "srvA", inv.Server)
	assert.Equal(t, "toolX", inv.Tool)
	assert.Equal(t, map[string]any{"a": float64(1)}, inv.Params)
}

func TestParseTripleForm_NonJSONParams(t *testing.T) {
	p := NewParser()
	inv, err := p.Parse("MCP:search:web_search:latest go release", fakeRegistry{})
	require.NoError(t, err)
	require.NotNil(t, inv)
	// Unparsable params text degrades to a single query parameter.
	assert.Equal(t, map[string]any{"query": "latest go release"}, inv.Params)
}

func TestParseTripleForm_EmptyParams(t *testing.T) {
	inv, err := ParseTripleForm("srv:tool:", nil)
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Empty(t, inv.Params)
}

func TestParseTripleForm_WhitespaceNamesRejected(t *testing.T) {
	// A server or tool token with spaces is not the triple form.
	inv, err := ParseTripleForm("not a server:tool:{}", nil)
	assert.NoError(t, err)
	assert.Nil(t, inv)
}

// -------------------- Dotted Form Tests --------------------

func TestParseDottedForm(t *testing.T) {
	p := NewParser()
	inv, err := p.Parse("MCP:k8s.get_pods production cluster", fakeRegistry{})
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, "k8s", inv.Server)
	assert.Equal(t, "get_pods", inv.Tool)
	assert.Equal(t, map[string]any{"query": "production cluster"}, inv.Params)
}

func TestParseDottedForm_NoDot(t *testing.T) {
	inv, err := ParseDottedForm("plaintool something", nil)
	assert.NoError(t, err)
	assert.Nil(t, inv)
}

// -------------------- Generic Form Tests --------------------

func TestParseGenericForm_KnownTool(t *testing.T) {
	reg := fakeRegistry{entries: []catalog.Entry{
		{Name: "get_pods", Server: "k8s"},
	}}

	p := NewParser()
	inv, err := p.Parse("MCP:get_pods -n default web", reg)
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, "k8s", inv.Server)
	assert.Equal(t, "get_pods", inv.Tool)
	assert.Equal(t, "default", inv.Params["namespace"])
	assert.Equal(t, "web", inv.Params["resource"])
	assert.Equal(t, "-n default web", inv.Params["query"])
}

func TestParseGenericForm_UnknownToolFallsBackToFirstServer(t *testing.T) {
	reg := fakeRegistry{entries: []catalog.Entry{
		{Name: "deploy", Server: "infra"},
	}}

	p := NewParser()
	inv, err := p.Parse("MCP:scale_up web", reg)
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, "infra", inv.Server)
	assert.Equal(t, "scale_up", inv.Tool)
}

func TestParseGenericForm_EmptyRegistry(t *testing.T) {
	p := NewParser()
	inv, err := p.Parse("MCP:unknown_tool", fakeRegistry{})
	assert.Nil(t, inv)
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestParseGenericForm_ExtraTokensBecomeArgs(t *testing.T) {
	reg := fakeRegistry{entries: []catalog.Entry{
		{Name: "logs", Server: "k8s"},
	}}

	inv, err := ParseGenericForm("logs web extra --follow", reg)
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, "web", inv.Params["resource"])
	assert.Equal(t, "extra --follow", inv.Params["args"])
}

// -------------------- Strategy Order Tests --------------------

func TestParse_TripleFormWinsOverDotted(t *testing.T) {
	// The payload matches both forms; the explicit triple form runs first.
	p := NewParser()
	inv, err := p.Parse(`MCP:srv:tool:{"x":true}`, fakeRegistry{})
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, "srv", inv.Server)
	assert.Equal(t, "tool", inv.Tool)
}

func TestParse_CustomStrategyChain(t *testing.T) {
	p := NewParser(func(o *ParserOptions) {
		o.Strategies = []Strategy{ParseTripleForm}
	})

	// Dotted form no longer matches with the trimmed chain.
	inv, err := p.Parse("MCP:k8s.get_pods", fakeRegistry{})
	assert.Nil(t, inv)
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}
