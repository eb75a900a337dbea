package planner

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	capdef "github.com/filegrind/capdag-go/cap"
	"github.com/filegrind/capdag-go/capdagerr"
	"github.com/filegrind/capdag-go/capgraph"
	"github.com/filegrind/capdag-go/cardinality"
	"github.com/filegrind/capdag-go/urn"
)

// Planner is the public entry point over a combined cap registry: it finds
// conversion paths, analyzes their cardinality, and compiles them into
// executable plans. It holds no mutable state beyond the underlying Cube's
// cached graph snapshot, so the same Planner can safely serve concurrent
// calls.
type Planner struct {
	cube *capgraph.Cube
}

// NewPlanner creates a Planner with no attached registries.
func NewPlanner() *Planner {
	return &Planner{cube: capgraph.NewCube()}
}

// AddRegistry attaches a named cap registry.
func (p *Planner) AddRegistry(name string, registry capdef.Registry) {
	p.cube.AddRegistry(name, registry)
}

func isIdentity(source, target string) (bool, error) {
	const op = "planner.isIdentity"
	srcUrn, err := urn.NewMediaUrnFromString(source)
	if err != nil {
		return false, capdagerr.Wrap(capdagerr.SchemaError, op, "invalid source media URN", err)
	}
	tgtUrn, err := urn.NewMediaUrnFromString(target)
	if err != nil {
		return false, capdagerr.Wrap(capdagerr.SchemaError, op, "invalid target media URN", err)
	}
	return srcUrn.ConformsTo(tgtUrn), nil
}

func specConformsTo(spec string, target *urn.MediaUrn) (bool, error) {
	specUrn, err := urn.NewMediaUrnFromString(spec)
	if err != nil {
		return false, capdagerr.Wrap(capdagerr.SchemaError, "planner.specConformsTo", "invalid media URN", err)
	}
	return specUrn.ConformsTo(target), nil
}

// findConformingPath runs a breadth-first search over g starting at from,
// terminating the FIRST TIME any visited node's media URN conforms to
// target — not merely when a node is string-equal to it. This is the
// planner-level search: the graph's own FindPath (capgraph/pathfinder.go)
// only terminates on exact to_spec equality, since at the graph level "the
// target" is a concrete node, not a wildcarding pattern. Here target may be
// a wildcarding media URN (e.g. "media:bytes"), so a path that arrives at a
// more specific conforming node (e.g. "media:png;bytes;form=list") after
// one or more hops must be recognized as already satisfying it, exactly as
// the up-front identity shortcut recognizes it at zero hops.
func findConformingPath(g *capgraph.Graph, from string, target *urn.MediaUrn) ([]capgraph.Edge, error) {
	const op = "planner.findConformingPath"

	type step struct {
		prevNode string
		viaEdge  capgraph.Edge
	}
	backtrack := map[string]*step{from: nil}
	queue := []string{from}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		edges, err := g.GetOutgoing(current)
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			if _, visited := backtrack[e.ToSpec]; visited {
				continue
			}
			backtrack[e.ToSpec] = &step{prevNode: current, viaEdge: e}

			conforms, err := specConformsTo(e.ToSpec, target)
			if err != nil {
				return nil, err
			}
			if conforms {
				path := []capgraph.Edge{e}
				back := current
				for backtrack[back] != nil {
					s := backtrack[back]
					path = append(path, s.viaEdge)
					back = s.prevNode
				}
				reverseEdges(path)
				return path, nil
			}
			queue = append(queue, e.ToSpec)
		}
	}

	return nil, capdagerr.Unreachablef(op, "no path from %q conforming to %q", from, target.String())
}

func reverseEdges(edges []capgraph.Edge) {
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}
}

// chainForPath resolves the ordered caps from source to target, or an empty
// chain if source already conforms to target (identity). Every subsequent
// node visited during the search is checked against target with the same
// conformance rule (see findConformingPath), not exact string equality.
func (p *Planner) chainForPath(source, target string) ([]*capdef.Cap, error) {
	identity, err := isIdentity(source, target)
	if err != nil {
		return nil, err
	}
	if identity {
		log.Debug().Str("source", source).Str("target", target).
			Msg("source conforms to target, treating as identity path")
		return nil, nil
	}

	tgtUrn, err := urn.NewMediaUrnFromString(target)
	if err != nil {
		return nil, capdagerr.Wrap(capdagerr.SchemaError, "planner.chainForPath", "invalid target media URN", err)
	}

	key := "conform:" + source + "\x00" + target
	v, err := p.cube.WithGraph(key, func(g *capgraph.Graph) (interface{}, error) {
		return findConformingPath(g, source, tgtUrn)
	})
	if err != nil {
		log.Debug().Str("source", source).Str("target", target).Err(err).
			Msg("path finding failed")
		return nil, err
	}
	edges := v.([]capgraph.Edge)
	chain := make([]*capdef.Cap, len(edges))
	for i, e := range edges {
		chain[i] = e.Cap
	}
	log.Trace().Str("source", source).Str("target", target).Int("hops", len(chain)).
		Msg("resolved conversion path")
	return chain, nil
}

// FindPath returns the ordered cap URNs converting source to target, or an
// empty slice if source already conforms to target.
func (p *Planner) FindPath(source, target string) ([]string, error) {
	chain, err := p.chainForPath(source, target)
	if err != nil {
		return nil, err
	}
	return capUrnStrings(chain), nil
}

// FindAllPaths returns every path (as ordered cap URNs) from source to
// target up to maxDepth hops, sorted ascending by length.
func (p *Planner) FindAllPaths(source, target string, maxDepth int) ([][]string, error) {
	identity, err := isIdentity(source, target)
	if err != nil {
		return nil, err
	}
	if identity {
		return [][]string{{}}, nil
	}

	g, err := p.cube.Graph()
	if err != nil {
		return nil, err
	}
	paths, err := g.FindAllPaths(source, target, maxDepth)
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(paths))
	for i, path := range paths {
		out[i] = capUrnStrings(edgeCaps(path))
	}
	return out, nil
}

// GetReachableTargets returns every distinct media-URN spec reachable from
// source within maxDepth hops.
func (p *Planner) GetReachableTargets(source string, maxDepth int) ([]string, error) {
	g, err := p.cube.Graph()
	if err != nil {
		return nil, err
	}
	return g.GetReachableTargets(source, maxDepth)
}

// AnalyzePathCardinality resolves the path from source to target and
// classifies its cardinality, given how many input files will be supplied.
func (p *Planner) AnalyzePathCardinality(source, target string, inputFileCount int) (*cardinality.Analysis, error) {
	chain, err := p.chainForPath(source, target)
	if err != nil {
		return nil, err
	}
	inputCardinality, err := cardinality.InputCardinality(inputFileCount, source)
	if err != nil {
		return nil, err
	}
	return cardinality.Analyze(chain, inputCardinality)
}

// BuildPlan resolves the path from source to target, analyzes its
// cardinality against inputFileCount input files, and compiles a validated
// Plan. Unlike the pure BuildPlan function, this stamps a fresh PlanID for
// execution-time correlation/logging; the DAG shape itself remains
// deterministic given identical inputs.
func (p *Planner) BuildPlan(source, target string, inputFileCount int) (*Plan, error) {
	chain, err := p.chainForPath(source, target)
	if err != nil {
		return nil, err
	}
	inputCardinality, err := cardinality.InputCardinality(inputFileCount, source)
	if err != nil {
		return nil, err
	}
	analysis, err := cardinality.Analyze(chain, inputCardinality)
	if err != nil {
		return nil, err
	}
	plan, err := BuildPlan(source, target, chain, analysis, inputFileCount)
	if err != nil {
		return nil, err
	}
	plan.Metadata.PlanID = uuid.NewString()
	log.Debug().Str("plan_id", plan.Metadata.PlanID).Str("source", source).Str("target", target).
		Int("cap_count", plan.Metadata.CapCount).Bool("requires_fan_out", plan.Metadata.RequiresFanOut).
		Msg("compiled plan")
	return plan, nil
}

func capUrnStrings(chain []*capdef.Cap) []string {
	out := make([]string, len(chain))
	for i, c := range chain {
		out[i] = c.Urn.String()
	}
	return out
}

func edgeCaps(edges []capgraph.Edge) []*capdef.Cap {
	out := make([]*capdef.Cap, len(edges))
	for i, e := range edges {
		out[i] = e.Cap
	}
	return out
}
