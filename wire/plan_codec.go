// Package wire implements CBOR serialization of a compiled Plan, so a built
// plan can cross a process boundary to an execution engine. It follows the
// same map-with-discriminator-field approach the teacher's frame codec uses
// for its own tagged-union wire format.
package wire

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/filegrind/capdag-go/binding"
	"github.com/filegrind/capdag-go/capdagerr"
	"github.com/filegrind/capdag-go/planner"
)

// EncodePlan serializes a Plan to CBOR bytes.
func EncodePlan(plan *planner.Plan) ([]byte, error) {
	const op = "wire.EncodePlan"

	nodes := make([]map[string]interface{}, 0, len(plan.Nodes))
	for _, n := range plan.Nodes {
		nodes = append(nodes, encodeNode(n))
	}

	edges := make([]map[string]interface{}, 0, len(plan.Edges))
	for _, e := range plan.Edges {
		edges = append(edges, map[string]interface{}{
			"from": e.From,
			"to":   e.To,
			"kind": uint8(e.Kind),
			"field": e.Field,
			"path":  e.Path,
		})
	}

	m := map[string]interface{}{
		"name": plan.Name,
		"metadata": map[string]interface{}{
			"source_media":     plan.Metadata.SourceMedia,
			"target_media":     plan.Metadata.TargetMedia,
			"cap_count":        plan.Metadata.CapCount,
			"requires_fan_out": plan.Metadata.RequiresFanOut,
			"plan_id":          plan.Metadata.PlanID,
		},
		"nodes": nodes,
		"edges": edges,
	}

	data, err := cbor.Marshal(m)
	if err != nil {
		return nil, capdagerr.Wrap(capdagerr.HardFail, op, "cbor encode failed", err)
	}
	return data, nil
}

func encodeNode(n planner.Node) map[string]interface{} {
	m := map[string]interface{}{
		"id":   n.ID,
		"kind": uint8(n.Kind),
	}
	switch n.Kind {
	case planner.NodeInputSlot:
		m["name"] = n.Name
		m["media_urn"] = n.MediaUrn
		m["cardinality"] = uint8(n.Cardinality)
	case planner.NodeCap:
		m["cap_urn"] = n.CapUrn
		m["bindings"] = encodeBindings(n.Bindings)
		if n.PreferredCap != nil {
			m["preferred_cap"] = *n.PreferredCap
		}
	case planner.NodeForEach:
		m["input_node"] = n.InputNode
		m["body_entry"] = n.BodyEntry
		m["body_exit"] = n.BodyExit
	case planner.NodeCollect:
		m["input_nodes"] = n.InputNodes
	case planner.NodeOutput:
		m["name"] = n.Name
		m["source_node"] = n.SourceNode
	}
	return m
}

func encodeBindings(bindings map[string]binding.ArgumentBinding) map[string]interface{} {
	out := make(map[string]interface{}, len(bindings))
	for argName, b := range bindings {
		bm := map[string]interface{}{"kind": uint8(b.Kind)}
		switch b.Kind {
		case binding.InputFileAtIndex:
			bm["index"] = b.Index
		case binding.PreviousOutput:
			bm["node_id"] = b.NodeID
			if b.Field != nil {
				bm["field"] = *b.Field
			}
		case binding.CapSetting:
			bm["setting_urn"] = b.SettingUrn
		case binding.Literal:
			bm["literal_value"] = b.LiteralValue
		case binding.Slot:
			bm["slot_name"] = b.SlotName
			bm["slot_schema"] = b.SlotSchema
		case binding.PlanMetadata:
			bm["metadata_key"] = b.MetadataKey
		}
		out[argName] = bm
	}
	return out
}

// DecodePlan deserializes CBOR bytes produced by EncodePlan back into a Plan.
func DecodePlan(data []byte) (*planner.Plan, error) {
	const op = "wire.DecodePlan"

	var m map[string]interface{}
	if err := cbor.Unmarshal(data, &m); err != nil {
		return nil, capdagerr.Wrap(capdagerr.HardFail, op, "cbor decode failed", err)
	}

	name, _ := m["name"].(string)
	metadata, err := decodeMetadata(m["metadata"])
	if err != nil {
		return nil, err
	}

	nodesRaw, _ := m["nodes"].([]interface{})
	nodes := make(map[string]planner.Node, len(nodesRaw))
	for _, raw := range nodesRaw {
		nm, ok := raw.(map[interface{}]interface{})
		if !ok {
			return nil, capdagerr.HardFailf(op, "malformed node entry")
		}
		n, err := decodeNode(nm)
		if err != nil {
			return nil, err
		}
		nodes[n.ID] = n
	}

	edgesRaw, _ := m["edges"].([]interface{})
	edges := make([]planner.Edge, 0, len(edgesRaw))
	for _, raw := range edgesRaw {
		em, ok := raw.(map[interface{}]interface{})
		if !ok {
			return nil, capdagerr.HardFailf(op, "malformed edge entry")
		}
		edges = append(edges, planner.Edge{
			From:  str(em["from"]),
			To:    str(em["to"]),
			Kind:  planner.EdgeKind(u8(em["kind"])),
			Field: str(em["field"]),
			Path:  str(em["path"]),
		})
	}

	plan := &planner.Plan{Name: name, Metadata: metadata, Nodes: nodes, Edges: edges}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return plan, nil
}

func decodeMetadata(raw interface{}) (planner.Metadata, error) {
	const op = "wire.decodeMetadata"
	mm, ok := raw.(map[interface{}]interface{})
	if !ok {
		return planner.Metadata{}, capdagerr.HardFailf(op, "malformed metadata")
	}
	return planner.Metadata{
		SourceMedia:    str(mm["source_media"]),
		TargetMedia:    str(mm["target_media"]),
		CapCount:       int(i64(mm["cap_count"])),
		RequiresFanOut: boolv(mm["requires_fan_out"]),
		PlanID:         str(mm["plan_id"]),
	}, nil
}

func decodeNode(nm map[interface{}]interface{}) (planner.Node, error) {
	const op = "wire.decodeNode"
	n := planner.Node{
		ID:   str(nm["id"]),
		Kind: planner.NodeKind(u8(nm["kind"])),
	}
	switch n.Kind {
	case planner.NodeInputSlot:
		n.Name = str(nm["name"])
		n.MediaUrn = str(nm["media_urn"])
		n.Cardinality = planner.InputCardinality(u8(nm["cardinality"]))
	case planner.NodeCap:
		n.CapUrn = str(nm["cap_urn"])
		bindings, err := decodeBindings(nm["bindings"])
		if err != nil {
			return planner.Node{}, err
		}
		n.Bindings = bindings
		if v, ok := nm["preferred_cap"]; ok {
			s := str(v)
			n.PreferredCap = &s
		}
	case planner.NodeForEach:
		n.InputNode = str(nm["input_node"])
		n.BodyEntry = str(nm["body_entry"])
		n.BodyExit = str(nm["body_exit"])
	case planner.NodeCollect:
		n.InputNodes = strSlice(nm["input_nodes"])
	case planner.NodeOutput:
		n.Name = str(nm["name"])
		n.SourceNode = str(nm["source_node"])
	default:
		return planner.Node{}, capdagerr.HardFailf(op, "unknown node kind %d", n.Kind)
	}
	return n, nil
}

func decodeBindings(raw interface{}) (map[string]binding.ArgumentBinding, error) {
	const op = "wire.decodeBindings"
	bm, ok := raw.(map[interface{}]interface{})
	if !ok {
		return nil, capdagerr.HardFailf(op, "malformed bindings map")
	}
	out := make(map[string]binding.ArgumentBinding, len(bm))
	for k, v := range bm {
		argName := str(k)
		entry, ok := v.(map[interface{}]interface{})
		if !ok {
			return nil, capdagerr.HardFailf(op, "malformed binding entry for arg %q", argName)
		}
		b := binding.ArgumentBinding{Kind: binding.Kind(u8(entry["kind"]))}
		switch b.Kind {
		case binding.InputFileAtIndex:
			b.Index = int(i64(entry["index"]))
		case binding.PreviousOutput:
			b.NodeID = str(entry["node_id"])
			if fv, ok := entry["field"]; ok {
				f := str(fv)
				b.Field = &f
			}
		case binding.CapSetting:
			b.SettingUrn = str(entry["setting_urn"])
		case binding.Literal:
			b.LiteralValue = entry["literal_value"]
		case binding.Slot:
			b.SlotName = str(entry["slot_name"])
			b.SlotSchema = entry["slot_schema"]
		case binding.PlanMetadata:
			b.MetadataKey = str(entry["metadata_key"])
		}
		out[argName] = b
	}
	return out, nil
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

func strSlice(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, len(raw))
	for i, e := range raw {
		out[i] = str(e)
	}
	return out
}

func u8(v interface{}) uint8 {
	switch n := v.(type) {
	case uint64:
		return uint8(n)
	case int64:
		return uint8(n)
	default:
		return 0
	}
}

func i64(v interface{}) int64 {
	switch n := v.(type) {
	case uint64:
		return int64(n)
	case int64:
		return n
	default:
		return 0
	}
}

func boolv(v interface{}) bool {
	b, _ := v.(bool)
	return b
}
