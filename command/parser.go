// Package command converts free-text agent output into structured tool
// invocations. Parsing is gated on a marker substring; when the marker is
// present the text after it runs through an ordered chain of format
// strategies, first match wins. Each strategy is a pure function from text to
// an optional invocation, which keeps the fallback behavior auditable and
// testable in isolation.
package command

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mcpflow/mcpflow/catalog"
	"github.com/mcpflow/mcpflow/core"
	"github.com/mcpflow/mcpflow/logging"
)

// DefaultMarker is the substring whose presence triggers command parsing.
const DefaultMarker = "MCP:"

// ParseError reports malformed command text. At the workflow layer it
// degrades to "no invocation detected"; the conversation turn continues.
type ParseError struct {
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse command %q: %s", e.Text, e.Reason)
}

// Registry is the catalog surface the parser needs for reverse lookups.
// Satisfied by *catalog.Catalog.
type Registry interface {
	LookupName(tool string) (catalog.Entry, bool)
	First() (catalog.Entry, bool)
}

// Strategy attempts one command format against the marker payload. A (nil,
// nil) return means "format does not apply, try the next one"; an error means
// the format applied but the text is unusable.
type Strategy func(payload string, reg Registry) (*core.ToolInvocation, error)

// ParserOptions configure a Parser.
type ParserOptions struct {
	Marker string
	// Strategies overrides the default ordered chain.
	Strategies []Strategy
	Logger     logging.Logger
}

// Parser extracts tool invocations from agent output.
type Parser struct {
	marker     string
	strategies []Strategy
	logger     logging.Logger
}

// NewParser constructs a Parser with the default strategy chain: explicit
// triple form, dotted form, then the generic whitespace form.
func NewParser(optFns ...func(o *ParserOptions)) *Parser {
	opts := ParserOptions{
		Marker:     DefaultMarker,
		Strategies: []Strategy{ParseTripleForm, ParseDottedForm, ParseGenericForm},
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Parser{marker: opts.Marker, strategies: opts.Strategies, logger: opts.Logger}
}

// Parse scans the agent text for the marker and, when present, runs the
// strategy chain over the payload that follows it. A missing marker returns
// (nil, nil): no invocation is not an error. A *ParseError is returned when
// the marker is present but no strategy can produce an invocation; callers
// treat that as "no invocation detected" too.
func (p *Parser) Parse(text string, reg Registry) (*core.ToolInvocation, error) {
	idx := strings.Index(text, p.marker)
	if idx < 0 {
		return nil, nil
	}

	payload := strings.TrimSpace(text[idx+len(p.marker):])
	if payload == "" {
		return nil, &ParseError{Text: text, Reason: "empty command after marker"}
	}

	for _, strategy := range p.strategies {
		inv, err := strategy(payload, reg)
		if err != nil {
			return nil, err
		}
		if inv != nil {
			p.logger.Debug("command parsed", "server", inv.Server, "tool", inv.Tool)
			return inv, nil
		}
	}
	return nil, &ParseError{Text: payload, Reason: "no command format matched"}
}

// ParseTripleForm handles the explicit form <server>:<tool>:<paramsText>
// (following the marker, i.e. MCP:<server>:<tool>:<paramsText>). The params
// text is attempted as JSON; on parse failure the whole params text becomes a
// single "query" parameter.
func ParseTripleForm(payload string, _ Registry) (*core.ToolInvocation, error) {
	parts := strings.SplitN(payload, ":", 3)
	if len(parts) < 3 {
		return nil, nil
	}
	server, tool, paramsText := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2])
	if server == "" || tool == "" || strings.ContainsAny(server, " \t") || strings.ContainsAny(tool, " \t") {
		return nil, nil
	}

	params := map[string]any{}
	if paramsText != "" {
		if err := json.Unmarshal([]byte(paramsText), &params); err != nil {
			params = map[string]any{"query": paramsText}
		}
	}
	return &core.ToolInvocation{Server: server, Tool: tool, Params: params}, nil
}

// ParseDottedForm handles <server>.<tool> <restOfText>; the rest of the text
// becomes a single "query" parameter.
func ParseDottedForm(payload string, _ Registry) (*core.ToolInvocation, error) {
	head, rest, _ := strings.Cut(payload, " ")
	server, tool, found := strings.Cut(head, ".")
	if !found || server == "" || tool == "" {
		return nil, nil
	}
	return &core.ToolInvocation{
		Server: server,
		Tool:   tool,
		Params: map[string]any{"query": strings.TrimSpace(rest)},
	}, nil
}

// ParseGenericForm handles <tool> [-n <namespace>] [<resource>] [freeArgs...].
// It heuristically extracts a namespace flag and one bare positional token as
// a secondary resource identifier, folds anything unmatched into "args", and
// always retains the full remainder as a raw "query" field for servers that
// prefer unstructured input. The owning server comes from a reverse registry
// lookup; an empty registry is a hard parse failure rather than a guess.
func ParseGenericForm(payload string, reg Registry) (*core.ToolInvocation, error) {
	fields := strings.Fields(payload)
	if len(fields) == 0 {
		return nil, nil
	}
	tool := fields[0]

	params := map[string]any{
		"query": strings.TrimSpace(strings.TrimPrefix(payload, tool)),
	}

	var args []string
	var resource string
	for i := 1; i < len(fields); i++ {
		switch {
		case fields[i] == "-n" && i+1 < len(fields):
			params["namespace"] = fields[i+1]
			i++
		case strings.HasPrefix(fields[i], "-"):
			args = append(args, fields[i])
		case resource == "":
			resource = fields[i]
		default:
			args = append(args, fields[i])
		}
	}
	if resource != "" {
		params["resource"] = resource
	}
	if len(args) > 0 {
		params["args"] = strings.Join(args, " ")
	}

	server, err := resolveServer(tool, reg)
	if err != nil {
		return nil, err
	}
	return &core.ToolInvocation{Server: server, Tool: tool, Params: params}, nil
}

// resolveServer finds the owning server for an unqualified tool name: the
// registered owner when the name is known, otherwise the server of the first
// registered tool.
func resolveServer(tool string, reg Registry) (string, error) {
	if entry, ok := reg.LookupName(tool); ok {
		return entry.Server, nil
	}
	if first, ok := reg.First(); ok {
		return first.Server, nil
	}
	return "", &ParseError{Text: tool, Reason: "no server found for tool"}
}
