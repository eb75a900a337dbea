package planner

import (
	capdef "github.com/filegrind/capdag-go/cap"
	"github.com/filegrind/capdag-go/cardinality"
)

// ResolutionKind classifies how a step's argument will ultimately be bound,
// without yet resolving it against a concrete ResolutionContext.
type ResolutionKind int

const (
	FromInputFile ResolutionKind = iota
	FromPreviousOutput
	HasDefault
	RequiresUserInput
)

func (r ResolutionKind) String() string {
	switch r {
	case FromInputFile:
		return "from_input_file"
	case FromPreviousOutput:
		return "from_previous_output"
	case HasDefault:
		return "has_default"
	case RequiresUserInput:
		return "requires_user_input"
	default:
		return "unknown"
	}
}

// ArgumentInfo summarizes one cap argument's static shape, ahead of binding
// resolution against a concrete evaluation context.
type ArgumentInfo struct {
	Name       string
	MediaUrn   string
	Required   bool
	Default    interface{}
	Resolution ResolutionKind
}

// StepArguments is one step's cap URN together with the static shape of its
// arguments.
type StepArguments struct {
	CapUrn    string
	Arguments []ArgumentInfo
}

// PathArguments is the result of AnalyzePathArguments: the static argument
// shape of every step in a path, plus the distinct set of Slot names that
// will require a user-supplied value across the whole path.
type PathArguments struct {
	Steps    []StepArguments
	AllSlots []string
}

// AnalyzePathArguments inspects a chain of caps (as returned by FindPath /
// chainForPath) and summarizes, per step, how each argument will be bound:
// from the current input file, from the previous step's output (when the
// file-path arg is stdin-chainable), from the cap's own default, or as a
// slot requiring user input.
func AnalyzePathArguments(chain []*capdef.Cap) PathArguments {
	result := PathArguments{Steps: make([]StepArguments, len(chain))}
	slotSeen := make(map[string]struct{})

	for i, c := range chain {
		filePathArg, hasFilePathArg := cardinality.FilePathArgName(c)

		step := StepArguments{
			CapUrn:    "",
			Arguments: make([]ArgumentInfo, 0, len(c.GetArgs())),
		}
		if c.Urn != nil {
			step.CapUrn = c.Urn.String()
		}

		for _, arg := range c.GetArgs() {
			info := ArgumentInfo{
				Name:     arg.MediaUrn,
				MediaUrn: arg.MediaUrn,
				Required: arg.Required,
				Default:  arg.DefaultValue,
			}

			switch {
			case hasFilePathArg && arg.MediaUrn == filePathArg:
				if i > 0 && cardinality.FilePathIsStdinChainable(c) {
					info.Resolution = FromPreviousOutput
				} else {
					info.Resolution = FromInputFile
				}
			case arg.DefaultValue != nil:
				info.Resolution = HasDefault
			default:
				info.Resolution = RequiresUserInput
				slotSeen[arg.MediaUrn] = struct{}{}
			}

			step.Arguments = append(step.Arguments, info)
		}

		result.Steps[i] = step
	}

	for name := range slotSeen {
		result.AllSlots = append(result.AllSlots, name)
	}
	sortStrings(result.AllSlots)

	return result
}
