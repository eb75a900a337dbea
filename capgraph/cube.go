package capgraph

import (
	"sync"

	"github.com/filegrind/capdag-go/cap"
	"github.com/filegrind/capdag-go/capdagerr"
	"golang.org/x/sync/singleflight"
)

// namedRegistry pairs a cap.Registry with the name it is attributed under
// in graph edges.
type namedRegistry struct {
	name     string
	registry cap.Registry
}

// Cube is a composite view over several named cap registries. It builds a
// combined Graph snapshot across all of them and collapses concurrent
// path/plan queries sharing the same (source, target) key into a single
// computation, so that multiple planning calls against the same immutable
// registry snapshot never race to rebuild the graph or duplicate a BFS.
type Cube struct {
	mu          sync.RWMutex
	registries  []namedRegistry
	snapshot    *Graph
	snapshotGen int
	group       singleflight.Group
}

// NewCube creates an empty composite registry.
func NewCube() *Cube {
	return &Cube{}
}

// AddRegistry attaches a named registry. The combined graph adds each
// registry's caps in order of addition. Invalidates any cached graph snapshot.
func (c *Cube) AddRegistry(name string, registry cap.Registry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registries = append(c.registries, namedRegistry{name: name, registry: registry})
	c.snapshot = nil
	c.snapshotGen++
}

// RegistryNames returns the names of all attached registries, in addition
// order.
func (c *Cube) RegistryNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, len(c.registries))
	for i, r := range c.registries {
		names[i] = r.name
	}
	return names
}

// Graph returns the combined, read-only graph across all attached
// registries, building and caching it on first use. The cached snapshot is
// invalidated the next time AddRegistry is called.
func (c *Cube) Graph() (*Graph, error) {
	c.mu.RLock()
	if c.snapshot != nil {
		g := c.snapshot
		c.mu.RUnlock()
		return g, nil
	}
	c.mu.RUnlock()

	g, err := c.buildGraph()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.snapshot == nil {
		c.snapshot = g
	}
	result := c.snapshot
	c.mu.Unlock()
	return result, nil
}

func (c *Cube) buildGraph() (*Graph, error) {
	c.mu.RLock()
	registries := append([]namedRegistry(nil), c.registries...)
	c.mu.RUnlock()

	g := &Graph{
		edges:    make([]Edge, 0),
		outgoing: make(map[string][]int),
		incoming: make(map[string][]int),
		nodes:    make(map[string]struct{}),
	}
	seen := make(map[string]struct{})
	for _, r := range registries {
		for _, c := range r.registry.GetCachedCaps() {
			if err := g.addCap(c, r.name, seen); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// FindPath finds a conversion path from "from" to "to" across the combined
// graph of all attached registries. Concurrent calls sharing the same
// (from, to) pair share one BFS.
func (c *Cube) FindPath(from, to string) ([]Edge, error) {
	key := from + "\x00" + to
	v, err, _ := c.group.Do("path:"+key, func() (interface{}, error) {
		g, err := c.Graph()
		if err != nil {
			return nil, err
		}
		return g.FindPath(from, to)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Edge), nil
}

// WithGraph runs fn against the combined graph, deduplicating concurrent
// calls sharing the same key via the Cube's singleflight group. Used by
// callers (e.g. the planner's conformance-terminated search) that need the
// same no-duplicate-BFS guarantee as FindPath/FindBestPath but apply a
// different termination rule than exact to_spec equality.
func (c *Cube) WithGraph(key string, fn func(*Graph) (interface{}, error)) (interface{}, error) {
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		g, err := c.Graph()
		if err != nil {
			return nil, err
		}
		return fn(g)
	})
	return v, err
}

// FindBestPath finds the highest-specificity conversion path from "from" to
// "to" up to maxDepth, deduplicating concurrent identical calls.
func (c *Cube) FindBestPath(from, to string, maxDepth int) ([]Edge, error) {
	const op = "capgraph.Cube.FindBestPath"
	if maxDepth <= 0 {
		return nil, capdagerr.HardFailf(op, "maxDepth must be positive, got %d", maxDepth)
	}
	key := from + "\x00" + to + "\x00best"
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		g, err := c.Graph()
		if err != nil {
			return nil, err
		}
		return g.FindBestPath(from, to, maxDepth)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Edge), nil
}
