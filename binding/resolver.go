package binding

import (
	"encoding/json"
	"fmt"

	"github.com/filegrind/capdag-go/cap"
	"github.com/filegrind/capdag-go/capdagerr"
)

// jsonToBytes implements the JSON-to-bytes rule used by every binding
// variant that carries a JSON value: a JSON string becomes its raw UTF-8
// bytes (no surrounding quotes); any other JSON value becomes its canonical
// JSON serialization.
func jsonToBytes(value interface{}) ([]byte, error) {
	if s, ok := value.(string); ok {
		return []byte(s), nil
	}
	return json.Marshal(value)
}

// Resolve resolves a single ArgumentBinding for the cap arg named argName,
// using the accompanying CapArg definition (for CapDefault) and capUrn (for
// CapSetting, Slot, and error reporting). A nil *ResolvedArgument with a nil
// error means an optional Slot binding had nothing to resolve to.
func Resolve(binding ArgumentBinding, argName string, argDef *cap.CapArg, capUrn string, ctx *ResolutionContext) (*ResolvedArgument, error) {
	const op = "binding.Resolve"

	switch binding.Kind {
	case InputFileAtIndex:
		if binding.Index < 0 || binding.Index >= len(ctx.InputFiles) {
			return nil, capdagerr.HardFailf(op, "InputFileAtIndex(%d) out of bounds (have %d input files)", binding.Index, len(ctx.InputFiles))
		}
		return &ResolvedArgument{Name: argName, Value: []byte(ctx.InputFiles[binding.Index].Path), Source: SourceInputFile}, nil

	case InputFilePath:
		f, ok := ctx.CurrentFile()
		if !ok {
			return nil, capdagerr.HardFailf(op, "InputFilePath: no current file")
		}
		return &ResolvedArgument{Name: argName, Value: []byte(f.Path), Source: SourceInputFile}, nil

	case InputMediaUrn:
		f, ok := ctx.CurrentFile()
		if !ok {
			return nil, capdagerr.HardFailf(op, "InputMediaUrn: no current file")
		}
		return &ResolvedArgument{Name: argName, Value: []byte(f.MediaUrn), Source: SourceInputFile}, nil

	case PreviousOutput:
		value, ok := ctx.PreviousOutputs[binding.NodeID]
		if !ok {
			return nil, capdagerr.HardFailf(op, "PreviousOutput: missing node %q", binding.NodeID)
		}
		if binding.Field != nil {
			obj, ok := value.(map[string]interface{})
			if !ok {
				return nil, capdagerr.HardFailf(op, "PreviousOutput: node %q output is not an object, cannot select field %q", binding.NodeID, *binding.Field)
			}
			fieldValue, ok := obj[*binding.Field]
			if !ok {
				return nil, capdagerr.HardFailf(op, "PreviousOutput: node %q output is missing field %q", binding.NodeID, *binding.Field)
			}
			value = fieldValue
		}
		bytes, err := jsonToBytes(value)
		if err != nil {
			return nil, capdagerr.Wrap(capdagerr.HardFail, op, "failed to encode previous output", err)
		}
		return &ResolvedArgument{Name: argName, Value: bytes, Source: SourcePreviousOutput}, nil

	case CapDefault:
		if argDef == nil || argDef.DefaultValue == nil {
			return nil, capdagerr.HardFailf(op, "CapDefault: arg %q has no default", argName)
		}
		bytes, err := jsonToBytes(argDef.DefaultValue)
		if err != nil {
			return nil, capdagerr.Wrap(capdagerr.HardFail, op, "failed to encode default", err)
		}
		return &ResolvedArgument{Name: argName, Value: bytes, Source: SourceCapDefault}, nil

	case CapSetting:
		settings, ok := ctx.CapSettings[capUrn]
		if !ok {
			return nil, capdagerr.HardFailf(op, "CapSetting: no settings registered for cap %q", capUrn)
		}
		value, ok := settings[binding.SettingUrn]
		if !ok {
			return nil, capdagerr.HardFailf(op, "CapSetting: cap %q has no setting %q", capUrn, binding.SettingUrn)
		}
		bytes, err := jsonToBytes(value)
		if err != nil {
			return nil, capdagerr.Wrap(capdagerr.HardFail, op, "failed to encode cap setting", err)
		}
		return &ResolvedArgument{Name: argName, Value: bytes, Source: SourceCapSetting}, nil

	case Literal:
		bytes, err := jsonToBytes(binding.LiteralValue)
		if err != nil {
			return nil, capdagerr.Wrap(capdagerr.HardFail, op, "failed to encode literal", err)
		}
		return &ResolvedArgument{Name: argName, Value: bytes, Source: SourceLiteral}, nil

	case Slot:
		slotKey := fmt.Sprintf("%s:%s", capUrn, binding.SlotName)
		if raw, ok := ctx.SlotValues[slotKey]; ok {
			return &ResolvedArgument{Name: argName, Value: raw, Source: SourceSlot}, nil
		}
		if settings, ok := ctx.CapSettings[capUrn]; ok {
			if value, ok := settings[binding.SlotName]; ok {
				bytes, err := jsonToBytes(value)
				if err != nil {
					return nil, capdagerr.Wrap(capdagerr.HardFail, op, "failed to encode slot value from cap settings", err)
				}
				return &ResolvedArgument{Name: argName, Value: bytes, Source: SourceCapSetting}, nil
			}
		}
		if argDef != nil && argDef.DefaultValue != nil {
			if binding.SlotSchema != nil {
				if err := cap.NewSchemaValidator().ValidateArgumentWithSchema(argDef, binding.SlotSchema, argDef.DefaultValue); err != nil {
					return nil, capdagerr.Wrap(capdagerr.SchemaError, op, "slot default fails its declared schema", err)
				}
			}
			bytes, err := jsonToBytes(argDef.DefaultValue)
			if err != nil {
				return nil, capdagerr.Wrap(capdagerr.HardFail, op, "failed to encode slot default", err)
			}
			return &ResolvedArgument{Name: argName, Value: bytes, Source: SourceCapDefault}, nil
		}
		if argDef != nil && argDef.Required {
			return nil, capdagerr.HardFailf(op, "Slot %q is required but has no value, setting, or default", binding.SlotName)
		}
		return nil, nil

	case PlanMetadata:
		value, ok := ctx.PlanMetadata[binding.MetadataKey]
		if !ok {
			return nil, capdagerr.HardFailf(op, "PlanMetadata: missing key %q", binding.MetadataKey)
		}
		bytes, err := jsonToBytes(value)
		if err != nil {
			return nil, capdagerr.Wrap(capdagerr.HardFail, op, "failed to encode plan metadata", err)
		}
		return &ResolvedArgument{Name: argName, Value: bytes, Source: SourcePlanMetadata}, nil

	default:
		return nil, capdagerr.HardFailf(op, "unknown binding kind %v", binding.Kind)
	}
}
