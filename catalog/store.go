package catalog

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mcpflow/mcpflow/config"
	"github.com/mcpflow/mcpflow/logging"
)

// StoreOptions configure a Store.
type StoreOptions struct {
	Logger logging.Logger
}

// Store holds the current catalog snapshot and rebuilds it on demand. A
// refresh assembles a complete new Catalog before swapping it in, so a
// conversation turn that already read a snapshot keeps seeing that
// generation; readers never observe a partial merge. Per-agent filter results
// are cached against the snapshot's generation and dropped on refresh.
type Store struct {
	logger logging.Logger

	mu          sync.RWMutex
	generation  uint64
	current     *Catalog
	agentFilter map[string][]Entry
}

// NewStore constructs an empty Store. Current() returns an empty generation
// zero Catalog until the first Refresh.
func NewStore(optFns ...func(o *StoreOptions)) *Store {
	opts := StoreOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{
		logger:      opts.Logger,
		current:     newCatalog(0, nil),
		agentFilter: make(map[string][]Entry),
	}
}

// Refresh runs one discovery pass over the given sources and atomically
// installs the merged result as the new current snapshot. Sources are
// queried in parallel; the merge preserves the given source order so the
// snapshot is deterministic for a fixed configuration. Per-server failures
// degrade to an empty tool set for that server; Refresh itself only fails on
// context cancellation. The per-agent filter cache is invalidated.
func (s *Store) Refresh(ctx context.Context, sources []Lister) (*Catalog, error) {
	perSource := make([][]Entry, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			entries, err := s.discoverServer(gctx, src)
			if err != nil {
				s.logger.Warn("no tools discovered", "server", src.Name(), "error", err)
			}
			perSource[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var merged []Entry
	for _, entries := range perSource {
		merged = append(merged, entries...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	owners := make(map[string]string, len(merged))
	for _, e := range merged {
		if prev, seen := owners[e.Name]; seen && prev != e.Server {
			s.logger.Warn("tool name collision across servers",
				"tool", e.Name, "kept", e.Server, "shadowed", prev)
		}
		owners[e.Name] = e.Server
	}
	s.current = newCatalog(s.generation, merged)
	s.agentFilter = make(map[string][]Entry)

	s.logger.Info("tool catalog refreshed", "generation", s.generation, "tools", s.current.Len())
	return s.current, nil
}

// Current returns the latest complete snapshot.
func (s *Store) Current() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// ForAgent returns the agent's visible tool entries from the current
// snapshot, caching the result until the next refresh.
func (s *Store) ForAgent(agent config.AgentConfig) []Entry {
	s.mu.RLock()
	cached, ok := s.agentFilter[agent.Name]
	s.mu.RUnlock()
	if ok {
		return cached
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.agentFilter[agent.Name]; ok {
		return cached
	}
	filtered := FilterForAgent(agent, s.current)
	s.agentFilter[agent.Name] = filtered
	return filtered
}
