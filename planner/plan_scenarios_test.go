package planner

import (
	"testing"

	"github.com/filegrind/capdag-go/binding"
	"github.com/filegrind/capdag-go/cap"
	"github.com/filegrind/capdag-go/capgraph"
	"github.com/filegrind/capdag-go/cardinality"
	"github.com/filegrind/capdag-go/urn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCapFor(t *testing.T, inSpec, outSpec, title, command string) *cap.Cap {
	t.Helper()
	capUrn, err := urn.NewCapUrnFromString(`cap:in="` + inSpec + `";out="` + outSpec + `"`)
	require.NoError(t, err)
	return cap.NewCap(capUrn, title, command)
}

// fakeRegistry is a minimal in-memory cap.Registry, grounded on cube_test.go.
type fakeRegistry struct {
	caps []*cap.Cap
}

func (r *fakeRegistry) GetCachedCaps() []*cap.Cap { return r.caps }
func (r *fakeRegistry) GetCap(urnStr string) (*cap.Cap, error) {
	for _, c := range r.caps {
		if c.Urn.String() == urnStr {
			return c, nil
		}
	}
	return nil, assert.AnError
}
func (r *fakeRegistry) CapExists(urnStr string) bool {
	_, err := r.GetCap(urnStr)
	return err == nil
}

// Scenario 1: identity.
func TestScenarioIdentity(t *testing.T) {
	source := "media:textable;form=scalar"
	target := "media:textable;form=scalar"

	plan, err := BuildPlan(source, target, nil, &cardinality.Analysis{}, 1)
	require.NoError(t, err)

	assert.Equal(t, 0, plan.Metadata.CapCount)
	assert.False(t, plan.Metadata.RequiresFanOut)
	assert.Contains(t, plan.Nodes, "input_slot")
	assert.Contains(t, plan.Nodes, "output")
	assert.Len(t, plan.Nodes, 2)
	require.Len(t, plan.Edges, 1)
	assert.Equal(t, Edge{From: "input_slot", To: "output", Kind: EdgeDirect}, plan.Edges[0])
}

// Scenario 2: linear two-step.
func TestScenarioLinearTwoStep(t *testing.T) {
	stepA := mustCapFor(t, "media:pdf;bytes", "media:md;textable", "A", "cmd-a")
	cliFlag := "--in"
	stepA.AddArg(cap.CapArg{MediaUrn: "media:pdf;bytes;file-path", Required: true, Sources: []cap.ArgSource{{CliFlag: &cliFlag}}})

	stepB := mustCapFor(t, "media:md;textable", "media:json;textable;form=map", "B", "cmd-b")
	stdinUrn := "media:md;textable"
	stepB.AddArg(cap.CapArg{MediaUrn: "media:md;textable;file-path", Required: true, Sources: []cap.ArgSource{{Stdin: &stdinUrn}}})

	chain := []*cap.Cap{stepA, stepB}
	analysis, err := cardinality.Analyze(chain, cardinality.Single)
	require.NoError(t, err)
	require.False(t, analysis.RequiresFanOut())

	plan, err := BuildPlan("media:pdf;bytes", "media:json;textable;form=map", chain, analysis, 1)
	require.NoError(t, err)

	require.Contains(t, plan.Nodes, "cap_0")
	require.Contains(t, plan.Nodes, "cap_1")
	assert.Equal(t, binding.NewInputFilePath(), plan.Nodes["cap_0"].Bindings["media:pdf;bytes;file-path"])
	assert.Equal(t, binding.NewPreviousOutput("cap_0", nil), plan.Nodes["cap_1"].Bindings["media:md;textable;file-path"])

	order, err := plan.TopologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"input_slot", "cap_0", "cap_1", "output"}, order)

	for _, e := range plan.Edges {
		assert.Equal(t, EdgeDirect, e.Kind)
	}
}

// Scenario 2b: B does not declare a chainable stdin source -> InputFilePath.
func TestScenarioLinearTwoStepNotStdinChainable(t *testing.T) {
	stepA := mustCapFor(t, "media:pdf;bytes", "media:md;textable", "A", "cmd-a")
	stepB := mustCapFor(t, "media:md;textable", "media:json;textable;form=map", "B", "cmd-b")
	cliFlag := "--in"
	stepB.AddArg(cap.CapArg{MediaUrn: "media:md;textable;file-path", Required: true, Sources: []cap.ArgSource{{CliFlag: &cliFlag}}})

	chain := []*cap.Cap{stepA, stepB}
	analysis, err := cardinality.Analyze(chain, cardinality.Single)
	require.NoError(t, err)

	plan, err := BuildPlan("media:pdf;bytes", "media:json;textable;form=map", chain, analysis, 1)
	require.NoError(t, err)

	assert.Equal(t, binding.NewInputFilePath(), plan.Nodes["cap_1"].Bindings["media:md;textable;file-path"])
}

// Scenario 3: fan-out.
func TestScenarioFanOut(t *testing.T) {
	stepS := mustCapFor(t, "media:zip;bytes", "media:pdf;bytes;form=list", "S", "cmd-s")
	stepE := mustCapFor(t, "media:pdf;bytes", "media:md;textable", "E", "cmd-e")

	chain := []*cap.Cap{stepS, stepE}
	analysis, err := cardinality.Analyze(chain, cardinality.Single)
	require.NoError(t, err)
	require.True(t, analysis.RequiresFanOut())
	require.Equal(t, []cardinality.FanOutRegion{{Start: 1, End: 1}}, analysis.FanOutRegions)

	plan, err := BuildPlan("media:zip;bytes", "media:md;textable", chain, analysis, 1)
	require.NoError(t, err)

	require.Contains(t, plan.Nodes, "foreach_1")
	require.Contains(t, plan.Nodes, "collect_1")
	require.Contains(t, plan.Nodes, "cap_0")
	require.Contains(t, plan.Nodes, "cap_1")

	wantEdges := []Edge{
		{From: "input_slot", To: "cap_0", Kind: EdgeDirect},
		{From: "cap_0", To: "foreach_1", Kind: EdgeDirect},
		{From: "foreach_1", To: "cap_1", Kind: EdgeIteration},
		{From: "cap_1", To: "collect_1", Kind: EdgeCollection},
		{From: "collect_1", To: "output", Kind: EdgeDirect},
	}
	assert.Equal(t, wantEdges, plan.Edges)

	order, err := plan.TopologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"input_slot", "cap_0", "foreach_1", "cap_1", "collect_1", "output"}, order)
}

// Scenario 4: duplicate-edge guard.
func TestScenarioDuplicateEdgeGuard(t *testing.T) {
	capUrn, err := urn.NewCapUrnFromString(`cap:in="media:bytes";out="media:textable"`)
	require.NoError(t, err)
	c1 := cap.NewCap(capUrn, "dup1", "cmd")
	c2 := cap.NewCap(capUrn, "dup2", "cmd")

	_, err = capgraph.New([]*cap.Cap{c1, c2}, "registry-a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Duplicate cap_urn")
	assert.Contains(t, err.Error(), "stale caps")
}

// Scenario 5: wildcard target reachability.
func TestScenarioWildcardTargetReachability(t *testing.T) {
	registry := &fakeRegistry{caps: []*cap.Cap{
		mustCapFor(t, "media:image;png;bytes", "media:image;png;bytes;thumbnail", "thumb", "cmd-thumb"),
	}}
	p := NewPlanner()
	p.AddRegistry("r", registry)

	path, err := p.FindPath("media:png;bytes", "media:bytes")
	require.NoError(t, err)
	assert.Empty(t, path)
}

// Scenario 5b: wildcard target reached after one hop, not at the identity
// check. The target "media:image;bytes" does not string-equal the
// intermediate node "media:image;png;bytes;form=list" reached after the first
// cap, but that node conforms to it, so the planner must stop there rather
// than continuing to search for a node string-equal to "media:image;bytes".
func TestScenarioWildcardTargetReachableAfterOneHop(t *testing.T) {
	zipToList := mustCapFor(t, "media:zip;bytes", "media:image;png;bytes;form=list", "unzip", "cmd-unzip")
	listToThumbs := mustCapFor(t, "media:image;png;bytes;form=list", "media:image;png;bytes;thumbnail;form=list", "thumb-all", "cmd-thumb-all")
	registry := &fakeRegistry{caps: []*cap.Cap{zipToList, listToThumbs}}
	p := NewPlanner()
	p.AddRegistry("r", registry)

	path, err := p.FindPath("media:zip;bytes", "media:image;bytes")
	require.NoError(t, err)
	require.Len(t, path, 1)
	assert.Equal(t, zipToList.Urn.String(), path[0])
}

// Scenario 6: slot fallback.
func TestScenarioSlotFallback(t *testing.T) {
	argDef := &cap.CapArg{Required: false, DefaultValue: float64(42)}
	resolved, err := binding.Resolve(binding.NewSlot("A", nil), "A", argDef, `cap:in="media:void";out="media:void"`, &binding.ResolutionContext{})
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, "42", string(resolved.Value))
	assert.Equal(t, binding.SourceCapDefault, resolved.Source)
}
