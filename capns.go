// Package capns provides flat re-exports of the module's submodules, so
// callers can depend on the root package path alone instead of reaching
// into urn/cap/capgraph/planner/wire directly.
package capns

import (
	"github.com/filegrind/capdag-go/binding"
	"github.com/filegrind/capdag-go/cap"
	"github.com/filegrind/capdag-go/capgraph"
	"github.com/filegrind/capdag-go/cardinality"
	"github.com/filegrind/capdag-go/media"
	"github.com/filegrind/capdag-go/planner"
	"github.com/filegrind/capdag-go/standard"
	"github.com/filegrind/capdag-go/urn"
	"github.com/filegrind/capdag-go/wire"
)

// URN types and constructors
type CapUrn = urn.CapUrn
type MediaUrn = urn.MediaUrn

var NewCapUrnFromString = urn.NewCapUrnFromString
var NewCapUrnFromTags = urn.NewCapUrnFromTags
var NewMediaUrnFromString = urn.NewMediaUrnFromString

// Cap types and constructors
type Cap = cap.Cap
type CapArg = cap.CapArg
type ArgSource = cap.ArgSource
type CapOutput = cap.CapOutput
type Registry = cap.Registry
type CapRegistry = cap.CapRegistry

var NewCap = cap.NewCap
var NewCapRegistry = cap.NewCapRegistry

// Media spec resolution
type MediaSpecDef = media.MediaSpecDef
type MediaUrnRegistry = media.MediaUrnRegistry
type ResolvedMediaSpec = media.ResolvedMediaSpec

// Cap graph and path finding
type Graph = capgraph.Graph
type Cube = capgraph.Cube
type Edge = capgraph.Edge

var NewGraph = capgraph.New
var NewCube = capgraph.NewCube

// Cardinality analysis
type Cardinality = cardinality.Cardinality
type Analysis = cardinality.Analysis
type FanOutRegion = cardinality.FanOutRegion

var AnalyzeCardinality = cardinality.Analyze

// Planning
type Planner = planner.Planner
type Plan = planner.Plan
type Node = planner.Node

var NewPlanner = planner.NewPlanner
var BuildPlan = planner.BuildPlan

// Argument binding
type ArgumentBinding = binding.ArgumentBinding

// Wire encoding
var EncodePlan = wire.EncodePlan
var DecodePlan = wire.DecodePlan

// Standard media and cap constants
const MediaVoid = standard.MediaVoid
const MediaString = standard.MediaString
const MediaBinary = standard.MediaBinary
const CapIdentity = standard.CapIdentity
const CapDiscard = standard.CapDiscard
