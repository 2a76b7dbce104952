// Package catalog discovers tools from a pool of mcp servers and normalizes
// the heterogeneous listing shapes remote servers answer with into a uniform
// registry. A Catalog is an immutable snapshot tagged with a generation
// counter; the Store rebuilds snapshots on demand so readers never observe a
// half-updated registry.
package catalog

import "fmt"

// Entry describes one discovered (or allow-list synthesized) tool.
type Entry struct {
	// Name is the tool name as the server advertises it.
	Name string `json:"name"`
	// Server is the configured name of the owning server.
	Server string `json:"server"`
	// Description is the human description from discovery, possibly empty.
	Description string `json:"description"`
	// Schema is the opaque parameter schema blob from discovery.
	Schema map[string]any `json:"schema,omitempty"`
	// Endpoint is the invocation path on the owning server.
	Endpoint string `json:"endpoint"`
	// Available is true for discovered tools and for allow-list placeholders
	// synthesized when the remote listing was incomplete.
	Available bool `json:"available"`
}

// Key identifies a tool uniquely across servers. Two servers may expose the
// same tool name; the registry keys entries by (server, tool) and keeps a
// separate unqualified-name index for command forms that do not name a server.
type Key struct {
	Server string
	Tool   string
}

func (k Key) String() string { return fmt.Sprintf("%s:%s", k.Server, k.Tool) }

// Catalog is one consistent snapshot of the merged tool registry produced by
// a single discovery pass. It is immutable after construction; a refresh
// produces a new Catalog with a higher generation.
type Catalog struct {
	generation uint64
	entries    []Entry
	byKey      map[Key]int
	// byName resolves an unqualified tool name to the most recently
	// discovered owner.
	byName map[string]int
}

func newCatalog(generation uint64, entries []Entry) *Catalog {
	c := &Catalog{
		generation: generation,
		entries:    entries,
		byKey:      make(map[Key]int, len(entries)),
		byName:     make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		c.byKey[Key{Server: e.Server, Tool: e.Name}] = i
		c.byName[e.Name] = i
	}
	return c
}

// Generation returns the snapshot's generation counter.
func (c *Catalog) Generation() uint64 { return c.generation }

// Entries returns every entry in discovery order. The returned slice is a
// copy safe for the caller to retain.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of registered tools.
func (c *Catalog) Len() int { return len(c.entries) }

// Lookup returns the entry for an exact (server, tool) key.
func (c *Catalog) Lookup(server, tool string) (Entry, bool) {
	i, ok := c.byKey[Key{Server: server, Tool: tool}]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// LookupName resolves an unqualified tool name to its most recently
// discovered owner.
func (c *Catalog) LookupName(tool string) (Entry, bool) {
	i, ok := c.byName[tool]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// First returns the first registered entry in discovery order, used as the
// deterministic fallback server for unqualified generic commands.
func (c *Catalog) First() (Entry, bool) {
	if len(c.entries) == 0 {
		return Entry{}, false
	}
	return c.entries[0], true
}
