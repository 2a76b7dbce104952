package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mcpflow/mcpflow/config"
)

// DiscoveryError reports that one server yielded no usable tool listing.
// It degrades that server to its allow-list placeholders (or nothing);
// discovery of other servers continues unaffected.
type DiscoveryError struct {
	Server string
	Err    error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("tool discovery failed for server %s: %v", e.Server, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// Lister is the slice of the mcp client surface discovery needs. Satisfied by
// *mcp.Client.
type Lister interface {
	Name() string
	Config() config.ServerConfig
	FetchJSON(ctx context.Context, path string) (any, error)
}

// candidatePaths returns the ordered listing endpoints probed for one server:
// the conventional paths first, then the configured tools path if it is not
// already among them.
func candidatePaths(cfg config.ServerConfig) []string {
	paths := []string{"/mcp/tools/list", "/mcp/tools", "/tools/list", "/tools", "/api/tools"}
	for _, p := range paths {
		if p == cfg.ToolsPath {
			return paths
		}
	}
	return append(paths, cfg.ToolsPath)
}

// discoverServer probes the candidate endpoints in order, stopping at the
// first one that yields a non-empty, parseable tool set. It returns the tool
// entries after the server's own allow-list has been applied, and a
// *DiscoveryError when no endpoint produced a usable listing. Allow-listed
// names are still synthesized as placeholders in that case.
func (s *Store) discoverServer(ctx context.Context, src Lister) ([]Entry, error) {
	cfg := src.Config()

	var discovered []Entry
	var lastErr error
	for _, path := range candidatePaths(cfg) {
		data, err := src.FetchJSON(ctx, path)
		if err != nil {
			s.logger.Debug("tool discovery endpoint failed", "server", cfg.Name, "path", path, "error", err)
			lastErr = err
			continue
		}
		tools := parseToolListing(data, cfg)
		if len(tools) == 0 {
			continue
		}
		s.logger.Info("discovered tools", "server", cfg.Name, "path", path, "count", len(tools))
		discovered = tools
		break
	}

	if len(discovered) == 0 {
		if lastErr == nil {
			lastErr = errors.New("no endpoint produced a parseable tool listing")
		}
		return applyAllowList(cfg, nil), &DiscoveryError{Server: cfg.Name, Err: lastErr}
	}
	return applyAllowList(cfg, discovered), nil
}

// parseToolListing normalizes the tolerated response shapes into entries:
//
//  1. {"tools": [{name, description, inputSchema}, ...]}, also accepted with
//     a map value instead of a list
//  2. a flat map of {toolName: {description, schema}}, including one level of
//     nesting where a map value itself carries a "tools" list
//  3. a bare list of tool names or tool objects
//
// Anything unparseable yields an empty slice, which the caller treats as
// "try the next endpoint".
func parseToolListing(data any, cfg config.ServerConfig) []Entry {
	switch v := data.(type) {
	case map[string]any:
		if tools, ok := v["tools"]; ok {
			return parseToolsValue(tools, cfg)
		}
		return parseFlatMap(v, cfg)
	case []any:
		return parseToolList(v, cfg)
	default:
		return nil
	}
}

func parseToolsValue(tools any, cfg config.ServerConfig) []Entry {
	switch tv := tools.(type) {
	case []any:
		return parseToolList(tv, cfg)
	case map[string]any:
		return parseFlatMap(tv, cfg)
	default:
		return nil
	}
}

// metaKeys are flat-map keys that describe the server, not a tool.
var metaKeys = map[string]struct{}{"server": {}, "status": {}, "version": {}}

func parseFlatMap(m map[string]any, cfg config.ServerConfig) []Entry {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// JSON maps carry no order; sort so the registry is deterministic.
	sort.Strings(keys)

	var entries []Entry
	for _, key := range keys {
		value, ok := m[key].(map[string]any)
		if !ok {
			continue
		}
		// One level of nesting: {"serverName": {"tools": [...]}}.
		if nested, ok := value["tools"].([]any); ok {
			entries = append(entries, parseToolList(nested, cfg)...)
			continue
		}
		if _, meta := metaKeys[key]; meta {
			continue
		}
		entries = append(entries, newEntry(cfg, key, stringField(value, "description"), schemaField(value)))
	}
	return entries
}

func parseToolList(list []any, cfg config.ServerConfig) []Entry {
	var entries []Entry
	for _, item := range list {
		switch tool := item.(type) {
		case string:
			entries = append(entries, newEntry(cfg, tool, "", nil))
		case map[string]any:
			name, _ := tool["name"].(string)
			if name == "" {
				continue
			}
			entries = append(entries, newEntry(cfg, name, stringField(tool, "description"), schemaField(tool)))
		}
	}
	return entries
}

func newEntry(cfg config.ServerConfig, name, description string, schema map[string]any) Entry {
	return Entry{
		Name:        name,
		Server:      cfg.Name,
		Description: description,
		Schema:      schema,
		Endpoint:    fmt.Sprintf("%s/%s/call", strings.TrimSuffix(cfg.ToolsPath, "/"), name),
		Available:   true,
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func schemaField(m map[string]any) map[string]any {
	for _, key := range []string{"inputSchema", "schema", "parameters"} {
		if schema, ok := m[key].(map[string]any); ok {
			return schema
		}
	}
	return nil
}

// applyAllowList applies the server's own tool allow-list. A "*" entry keeps
// everything. Otherwise only listed names survive, and a listed name absent
// from the raw discovery is synthesized as a placeholder; remote catalogs
// may be incomplete relative to static configuration.
func applyAllowList(cfg config.ServerConfig, discovered []Entry) []Entry {
	for _, name := range cfg.Tools {
		if name == "*" {
			return discovered
		}
	}

	byName := make(map[string]Entry, len(discovered))
	for _, e := range discovered {
		byName[e.Name] = e
	}

	var filtered []Entry
	for _, name := range cfg.Tools {
		if e, ok := byName[name]; ok {
			filtered = append(filtered, e)
			continue
		}
		filtered = append(filtered, newEntry(cfg, name, "", nil))
	}
	return filtered
}
