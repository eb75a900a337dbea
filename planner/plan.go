// Package planner compiles a chosen capability path into a validated,
// topologically-ordered data-flow plan, handling fan-out/fan-in for
// sequence inputs and choosing stdin-chaining vs. file-path binding per
// step.
package planner

import (
	"github.com/filegrind/capdag-go/binding"
	"github.com/filegrind/capdag-go/capdagerr"
)

// NodeKind discriminates the five plan node variants.
type NodeKind int

const (
	NodeInputSlot NodeKind = iota
	NodeCap
	NodeForEach
	NodeCollect
	NodeOutput
)

// InputCardinality mirrors cardinality.Cardinality without importing it, so
// that Plan's external shape (InputSlot.Cardinality) matches spec.md's
// {Single, Sequence} vocabulary exactly.
type InputCardinality int

const (
	Single InputCardinality = iota
	Sequence
)

// Node is a tagged union over the five plan node variants. Only the fields
// relevant to Kind are meaningful.
type Node struct {
	ID   string
	Kind NodeKind

	// NodeInputSlot
	Name        string
	MediaUrn    string
	Cardinality InputCardinality

	// NodeCap
	CapUrn        string
	Bindings      map[string]binding.ArgumentBinding
	PreferredCap  *string

	// NodeForEach
	InputNode string
	BodyEntry string
	BodyExit  string

	// NodeCollect
	InputNodes []string

	// NodeOutput
	SourceNode string
}

// EdgeKind discriminates the five plan edge variants.
type EdgeKind int

const (
	EdgeDirect EdgeKind = iota
	EdgeIteration
	EdgeCollection
	EdgeJsonField
	EdgeJsonPath
)

// Edge connects two plan nodes by ID.
type Edge struct {
	From  string
	To    string
	Kind  EdgeKind
	Field string // EdgeJsonField
	Path  string // EdgeJsonPath
}

// Metadata summarizes how a plan was built. PlanID is left empty by the pure
// builder (BuildPlan is deterministic given identical inputs, so it must not
// mint random identifiers); a caller orchestrating execution may stamp one
// afterward for logging/correlation purposes.
type Metadata struct {
	SourceMedia    string
	TargetMedia    string
	CapCount       int
	RequiresFanOut bool
	PlanID         string
}

// Plan is an immutable, labelled DAG of cap invocations.
type Plan struct {
	Name     string
	Metadata Metadata
	Nodes    map[string]Node
	Edges    []Edge
}

func newPlan(name string, metadata Metadata) *Plan {
	return &Plan{
		Name:     name,
		Metadata: metadata,
		Nodes:    make(map[string]Node),
	}
}

func (p *Plan) addNode(n Node) {
	p.Nodes[n.ID] = n
}

func (p *Plan) addEdge(e Edge) {
	p.Edges = append(p.Edges, e)
}

// Validate checks that every edge endpoint exists as a node.
func (p *Plan) Validate() error {
	const op = "planner.Plan.Validate"
	for _, e := range p.Edges {
		if _, ok := p.Nodes[e.From]; !ok {
			return capdagerr.HardFailf(op, "edge references missing node %q", e.From)
		}
		if _, ok := p.Nodes[e.To]; !ok {
			return capdagerr.HardFailf(op, "edge references missing node %q", e.To)
		}
	}
	return nil
}

// TopologicalOrder returns the plan's node IDs in a topological order,
// failing with an invariant violation if the node graph contains a cycle.
func (p *Plan) TopologicalOrder() ([]string, error) {
	const op = "planner.Plan.TopologicalOrder"

	adjacency := make(map[string][]string, len(p.Nodes))
	inDegree := make(map[string]int, len(p.Nodes))
	for id := range p.Nodes {
		inDegree[id] = 0
	}
	for _, e := range p.Edges {
		adjacency[e.From] = append(adjacency[e.From], e.To)
		inDegree[e.To]++
	}

	var queue []string
	for id := range p.Nodes {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	// Deterministic order: the caller-visible order only matters for testing
	// convenience, so sort the initial ready set.
	sortStrings(queue)

	var order []string
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)

		var freed []string
		for _, next := range adjacency[current] {
			inDegree[next]--
			if inDegree[next] == 0 {
				freed = append(freed, next)
			}
		}
		sortStrings(freed)
		queue = append(queue, freed...)
	}

	if len(order) != len(p.Nodes) {
		return nil, capdagerr.InvariantViolationf(op, "plan node graph contains a cycle")
	}
	return order, nil
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
