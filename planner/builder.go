package planner

import (
	"fmt"

	"github.com/filegrind/capdag-go/binding"
	"github.com/filegrind/capdag-go/capdagerr"
	"github.com/filegrind/capdag-go/cardinality"

	capdef "github.com/filegrind/capdag-go/cap"
)

// BuildPlan compiles a chosen chain of caps, together with its cardinality
// analysis, into a validated Plan. It is a pure function: the same inputs
// always produce the same plan, node IDs included, matching the concurrency
// model's determinism requirement.
//
// If chain is empty (source already conforms to target), an identity plan
// is emitted: just InputSlot -> Output.
func BuildPlan(sourceMedia, targetMedia string, chain []*capdef.Cap, analysis *cardinality.Analysis, inputFileCount int) (*Plan, error) {
	const op = "planner.BuildPlan"

	metadata := Metadata{
		SourceMedia:    sourceMedia,
		TargetMedia:    targetMedia,
		CapCount:       len(chain),
		RequiresFanOut: analysis != nil && analysis.RequiresFanOut(),
	}
	plan := newPlan(fmt.Sprintf("Transform: %s -> %s", sourceMedia, targetMedia), metadata)

	inputCardinality := Single
	if inputFileCount != 1 {
		inputCardinality = Sequence
	}
	plan.addNode(Node{
		ID:          "input_slot",
		Kind:        NodeInputSlot,
		Name:        "input",
		MediaUrn:    sourceMedia,
		Cardinality: inputCardinality,
	})

	if len(chain) == 0 {
		return finishIdentityPlan(plan)
	}

	if analysis == nil || len(analysis.Cardinalities) != len(chain) {
		return nil, capdagerr.HardFailf(op, "cardinality analysis does not match chain length")
	}

	regionStart := make(map[int]cardinality.FanOutRegion, len(analysis.FanOutRegions))
	inRegion := make(map[int]bool)
	for _, r := range analysis.FanOutRegions {
		regionStart[r.Start] = r
		for j := r.Start; j <= r.End; j++ {
			inRegion[j] = true
		}
	}

	prev := "input_slot"
	for i := 0; i < len(chain); {
		if region, ok := regionStart[i]; ok {
			var err error
			prev, err = addFanOutRegion(plan, chain, region, prev)
			if err != nil {
				return nil, err
			}
			i = region.End + 1
			continue
		}

		var err error
		prev, err = addLinearStep(plan, chain[i], i, prev)
		if err != nil {
			return nil, err
		}
		i++
	}

	plan.addNode(Node{ID: "output", Kind: NodeOutput, Name: "result", SourceNode: prev})
	plan.addEdge(Edge{From: prev, To: "output", Kind: EdgeDirect})

	return finishPlan(plan)
}

func finishIdentityPlan(plan *Plan) (*Plan, error) {
	plan.addNode(Node{ID: "output", Kind: NodeOutput, Name: "result", SourceNode: "input_slot"})
	plan.addEdge(Edge{From: "input_slot", To: "output", Kind: EdgeDirect})
	return finishPlan(plan)
}

func finishPlan(plan *Plan) (*Plan, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if _, err := plan.TopologicalOrder(); err != nil {
		return nil, err
	}
	return plan, nil
}

func capNodeID(i int) string {
	return fmt.Sprintf("cap_%d", i)
}

// addLinearStep emits the Cap node for a non-fan-out step i and wires it to
// prev, returning the new "prev" (this step's node ID).
func addLinearStep(plan *Plan, c *capdef.Cap, i int, prev string) (string, error) {
	const op = "planner.addLinearStep"
	if c.Urn == nil {
		return "", capdagerr.HardFailf(op, "step %d has no cap URN", i)
	}

	bindings := map[string]binding.ArgumentBinding{}
	if argName, ok := cardinality.FilePathArgName(c); ok {
		if i == 0 {
			bindings[argName] = binding.NewInputFilePath()
		} else if cardinality.FilePathIsStdinChainable(c) {
			bindings[argName] = binding.NewPreviousOutput(prev, nil)
		} else {
			bindings[argName] = binding.NewInputFilePath()
		}
	}

	id := capNodeID(i)
	plan.addNode(Node{ID: id, Kind: NodeCap, CapUrn: c.Urn.String(), Bindings: bindings})
	plan.addEdge(Edge{From: prev, To: id, Kind: EdgeDirect})
	return id, nil
}

// addFanOutRegion emits a ForEach wrapping every step in [region.Start,
// region.End] chained together, followed by a Collect, and returns the
// Collect node's ID as the new "prev".
func addFanOutRegion(plan *Plan, chain []*capdef.Cap, region cardinality.FanOutRegion, prev string) (string, error) {
	const op = "planner.addFanOutRegion"

	foreachID := fmt.Sprintf("foreach_%d", region.Start)
	collectID := fmt.Sprintf("collect_%d", region.Start)

	entryCapID := capNodeID(region.Start)
	exitCapID := capNodeID(region.End)

	plan.addNode(Node{ID: foreachID, Kind: NodeForEach, InputNode: prev, BodyEntry: entryCapID, BodyExit: exitCapID})
	plan.addEdge(Edge{From: prev, To: foreachID, Kind: EdgeDirect})

	bodyPrev := ""
	for j := region.Start; j <= region.End; j++ {
		c := chain[j]
		if c.Urn == nil {
			return "", capdagerr.HardFailf(op, "step %d has no cap URN", j)
		}

		bindings := map[string]binding.ArgumentBinding{}
		if argName, ok := cardinality.FilePathArgName(c); ok {
			if j == region.Start {
				bindings[argName] = binding.NewInputFilePath()
			} else if cardinality.FilePathIsStdinChainable(c) {
				bindings[argName] = binding.NewPreviousOutput(bodyPrev, nil)
			} else {
				bindings[argName] = binding.NewInputFilePath()
			}
		}

		id := capNodeID(j)
		plan.addNode(Node{ID: id, Kind: NodeCap, CapUrn: c.Urn.String(), Bindings: bindings})
		if j == region.Start {
			plan.addEdge(Edge{From: foreachID, To: id, Kind: EdgeIteration})
		} else {
			plan.addEdge(Edge{From: bodyPrev, To: id, Kind: EdgeDirect})
		}
		bodyPrev = id
	}

	plan.addNode(Node{ID: collectID, Kind: NodeCollect, InputNodes: []string{exitCapID}})
	plan.addEdge(Edge{From: exitCapID, To: collectID, Kind: EdgeCollection})

	return collectID, nil
}
