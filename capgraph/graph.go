// Package capgraph builds a directed multigraph of capability conversions
// over media-URN nodes and finds conversion paths through it.
package capgraph

import (
	"sort"

	"github.com/filegrind/capdag-go/cap"
	"github.com/filegrind/capdag-go/capdagerr"
	"github.com/filegrind/capdag-go/urn"
)

// Edge is a single capability's contribution to the graph: a conversion
// from one media-URN spec to another.
type Edge struct {
	FromSpec     string
	ToSpec       string
	Cap          *cap.Cap
	RegistryName string
	Specificity  int
}

// Graph is a directed graph where nodes are canonical media-URN strings and
// edges are caps. Built once per registry snapshot, then read-only.
type Graph struct {
	edges    []Edge
	outgoing map[string][]int
	incoming map[string][]int
	nodes    map[string]struct{}
}

// New builds a graph from a set of caps, all attributed to registryName.
// Raises an invariant violation if two caps share the same (from_spec, cap_urn)
// pair, which indicates stale or duplicated registry data.
func New(caps []*cap.Cap, registryName string) (*Graph, error) {
	g := &Graph{
		edges:    make([]Edge, 0, len(caps)),
		outgoing: make(map[string][]int),
		incoming: make(map[string][]int),
		nodes:    make(map[string]struct{}),
	}
	seen := make(map[string]struct{}, len(caps))
	for _, c := range caps {
		if err := g.addCap(c, registryName, seen); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *Graph) addCap(c *cap.Cap, registryName string, seen map[string]struct{}) error {
	const op = "capgraph.New"
	fromSpec := c.Urn.InSpec()
	toSpec := c.Urn.OutSpec()

	dupKey := fromSpec + "\x00" + c.Urn.String()
	if _, ok := seen[dupKey]; ok {
		return capdagerr.InvariantViolationf(op, "Duplicate cap_urn %q for from_spec %q: stale caps in registry data", c.Urn.String(), fromSpec)
	}
	seen[dupKey] = struct{}{}

	g.nodes[fromSpec] = struct{}{}
	g.nodes[toSpec] = struct{}{}

	idx := len(g.edges)
	g.edges = append(g.edges, Edge{
		FromSpec:     fromSpec,
		ToSpec:       toSpec,
		Cap:          c,
		RegistryName: registryName,
		Specificity:  c.Urn.Specificity(),
	})
	g.outgoing[fromSpec] = append(g.outgoing[fromSpec], idx)
	g.incoming[toSpec] = append(g.incoming[toSpec], idx)
	return nil
}

// Merge folds the caps of another registry's snapshot into a new graph
// sharing this graph's accumulated edges, attributed under a distinct
// registry name.
func (g *Graph) Merge(caps []*cap.Cap, registryName string) (*Graph, error) {
	merged := &Graph{
		edges:    append([]Edge(nil), g.edges...),
		outgoing: cloneIndex(g.outgoing),
		incoming: cloneIndex(g.incoming),
		nodes:    cloneSet(g.nodes),
	}
	seen := make(map[string]struct{}, len(g.edges))
	for _, e := range g.edges {
		seen[e.FromSpec+"\x00"+e.Cap.Urn.String()] = struct{}{}
	}
	for _, c := range caps {
		if err := merged.addCap(c, registryName, seen); err != nil {
			return nil, err
		}
	}
	return merged, nil
}

func cloneIndex(m map[string][]int) map[string][]int {
	out := make(map[string][]int, len(m))
	for k, v := range m {
		out[k] = append([]int(nil), v...)
	}
	return out
}

func cloneSet(m map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

// Nodes returns every canonical media-URN spec appearing as an edge endpoint.
func (g *Graph) Nodes() []string {
	nodes := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		nodes = append(nodes, n)
	}
	return nodes
}

// Edges returns every edge in the graph.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// GetOutgoing returns every edge whose from_spec is matched by query, i.e.
// query (as a tagged URN) satisfies the edge's from_spec requirement. This
// is a scan, not an outgoing[query] lookup, so a concrete query such as
// "media:png;bytes" can traverse an edge whose from_spec is the wildcarding
// "media:bytes". Results are sorted by descending specificity.
func (g *Graph) GetOutgoing(query string) ([]Edge, error) {
	queryUrn, err := urn.NewMediaUrnFromString(query)
	if err != nil {
		return nil, capdagerr.Wrap(capdagerr.SchemaError, "capgraph.GetOutgoing", "invalid query media URN", err)
	}

	var matched []Edge
	for _, e := range g.edges {
		fromUrn, err := urn.NewMediaUrnFromString(e.FromSpec)
		if err != nil {
			continue
		}
		if queryUrn.ConformsTo(fromUrn) {
			matched = append(matched, e)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Specificity > matched[j].Specificity
	})
	return matched, nil
}

// GetIncoming returns every edge targeting spec exactly.
func (g *Graph) GetIncoming(spec string) []Edge {
	indices := g.incoming[spec]
	out := make([]Edge, len(indices))
	for i, idx := range indices {
		out[i] = g.edges[idx]
	}
	return out
}

// HasDirectEdge reports whether there is a direct edge from fromSpec whose
// to_spec equals toSpec exactly.
func (g *Graph) HasDirectEdge(fromSpec, toSpec string) (bool, error) {
	edges, err := g.GetOutgoing(fromSpec)
	if err != nil {
		return false, err
	}
	for _, e := range edges {
		if e.ToSpec == toSpec {
			return true, nil
		}
	}
	return false, nil
}

// Stats summarizes the shape of the graph.
type Stats struct {
	NodeCount       int
	EdgeCount       int
	InputSpecCount  int
	OutputSpecCount int
}

// Stats returns summary statistics about the graph.
func (g *Graph) Stats() Stats {
	return Stats{
		NodeCount:       len(g.nodes),
		EdgeCount:       len(g.edges),
		InputSpecCount:  len(g.outgoing),
		OutputSpecCount: len(g.incoming),
	}
}
