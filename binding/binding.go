package binding

// Kind discriminates the nine argument-binding variants.
type Kind int

const (
	InputFileAtIndex Kind = iota
	InputFilePath
	InputMediaUrn
	PreviousOutput
	CapDefault
	CapSetting
	Literal
	Slot
	PlanMetadata
)

func (k Kind) String() string {
	switch k {
	case InputFileAtIndex:
		return "InputFileAtIndex"
	case InputFilePath:
		return "InputFilePath"
	case InputMediaUrn:
		return "InputMediaUrn"
	case PreviousOutput:
		return "PreviousOutput"
	case CapDefault:
		return "CapDefault"
	case CapSetting:
		return "CapSetting"
	case Literal:
		return "Literal"
	case Slot:
		return "Slot"
	case PlanMetadata:
		return "PlanMetadata"
	default:
		return "Unknown"
	}
}

// ArgumentBinding is a tagged union of the nine ways an argument's runtime
// value can be sourced. Only the fields relevant to Kind are meaningful.
type ArgumentBinding struct {
	Kind Kind

	Index int // InputFileAtIndex

	NodeID string  // PreviousOutput
	Field  *string // PreviousOutput: optional field within the node's JSON output

	SettingUrn string // CapSetting

	LiteralValue interface{} // Literal

	SlotName   string      // Slot
	SlotSchema interface{} // Slot: optional JSON schema a cap default is validated against

	MetadataKey string // PlanMetadata
}

func NewInputFileAtIndex(index int) ArgumentBinding {
	return ArgumentBinding{Kind: InputFileAtIndex, Index: index}
}

func NewInputFilePath() ArgumentBinding {
	return ArgumentBinding{Kind: InputFilePath}
}

func NewInputMediaUrn() ArgumentBinding {
	return ArgumentBinding{Kind: InputMediaUrn}
}

func NewPreviousOutput(nodeID string, field *string) ArgumentBinding {
	return ArgumentBinding{Kind: PreviousOutput, NodeID: nodeID, Field: field}
}

func NewCapDefault() ArgumentBinding {
	return ArgumentBinding{Kind: CapDefault}
}

func NewCapSetting(settingUrn string) ArgumentBinding {
	return ArgumentBinding{Kind: CapSetting, SettingUrn: settingUrn}
}

func NewLiteral(value interface{}) ArgumentBinding {
	return ArgumentBinding{Kind: Literal, LiteralValue: value}
}

func NewSlot(name string, schema interface{}) ArgumentBinding {
	return ArgumentBinding{Kind: Slot, SlotName: name, SlotSchema: schema}
}

func NewPlanMetadata(key string) ArgumentBinding {
	return ArgumentBinding{Kind: PlanMetadata, MetadataKey: key}
}

// SourceTag identifies where a ResolvedArgument's bytes actually came from.
type SourceTag int

const (
	SourceInputFile SourceTag = iota
	SourcePreviousOutput
	SourceCapDefault
	SourceCapSetting
	SourceLiteral
	SourceSlot
	SourcePlanMetadata
)

func (s SourceTag) String() string {
	switch s {
	case SourceInputFile:
		return "InputFile"
	case SourcePreviousOutput:
		return "PreviousOutput"
	case SourceCapDefault:
		return "CapDefault"
	case SourceCapSetting:
		return "CapSetting"
	case SourceLiteral:
		return "Literal"
	case SourceSlot:
		return "Slot"
	case SourcePlanMetadata:
		return "PlanMetadata"
	default:
		return "Unknown"
	}
}

// ResolvedArgument is the outcome of resolving one ArgumentBinding.
type ResolvedArgument struct {
	Name   string
	Value  []byte
	Source SourceTag
}
