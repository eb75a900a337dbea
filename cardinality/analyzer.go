// Package cardinality classifies the Single/Many shape of each step in a
// capability chain and locates the points where a sequence of inputs must
// fan out into per-item processing.
package cardinality

import (
	"github.com/filegrind/capdag-go/cap"
	"github.com/filegrind/capdag-go/capdagerr"
	"github.com/filegrind/capdag-go/urn"
)

// Cardinality is whether a media value carries one item or a sequence.
type Cardinality int

const (
	Single Cardinality = iota
	Many
)

func (c Cardinality) String() string {
	if c == Many {
		return "many"
	}
	return "single"
}

// StepCardinality is the classification of a single chain step.
type StepCardinality struct {
	InCardinality  Cardinality
	OutCardinality Cardinality
	// FilePathArgIsList is true if the step's file-path arg (if any) carries
	// form=list, i.e. the arg itself is an array of paths rather than one.
	FilePathArgIsList bool
}

// FanOutRegion is a maximal run of chain steps that must run inside a single
// ForEach/Collect pair: Start is the first Single-in step reached while the
// live cardinality is Many, End is the first step at or after Start whose
// output is Many again (closing the run), or the chain's last step if no
// such step exists.
type FanOutRegion struct {
	Start int
	End   int
}

// Analysis is the result of walking a chain of caps.
type Analysis struct {
	Cardinalities []StepCardinality
	FanOutRegions []FanOutRegion
}

// RequiresFanOut reports whether any step in the chain needs a ForEach/Collect
// wrapping.
func (a *Analysis) RequiresFanOut() bool {
	return len(a.FanOutRegions) > 0
}

func classify(mediaUrnString string) (Cardinality, error) {
	m, err := urn.NewMediaUrnFromString(mediaUrnString)
	if err != nil {
		return Single, capdagerr.Wrap(capdagerr.SchemaError, "cardinality.classify", "invalid media URN", err)
	}
	if m.IsList() {
		return Many, nil
	}
	return Single, nil
}

// Analyze classifies every step of chain, then finds the maximal runs where
// the cumulative cardinality of input flowing through the chain forces a
// fan-out: a fan-out region starts at the first Single-in step reached while
// the live cardinality is Many, and is closed by the next Many-out step (its
// result collects back into a sequence) or by the end of the chain.
//
// inputCardinality is the cardinality of the chain's own input, derived by
// the caller from the supplied input-file count and the source media's
// list-ness.
func Analyze(chain []*cap.Cap, inputCardinality Cardinality) (*Analysis, error) {
	const op = "cardinality.Analyze"

	analysis := &Analysis{
		Cardinalities: make([]StepCardinality, 0, len(chain)),
	}

	seen := make(map[string]struct{})
	for i, c := range chain {
		if c.Urn == nil {
			return nil, capdagerr.HardFailf(op, "step %d has no cap URN", i)
		}

		dupKey := c.Urn.InSpec() + "\x00" + c.Urn.String()
		if _, ok := seen[dupKey]; ok {
			return nil, capdagerr.InvariantViolationf(op, "duplicate (input_canonical=%q, cap_urn=%q) at step %d", c.Urn.InSpec(), c.Urn.String(), i)
		}
		seen[dupKey] = struct{}{}

		inC, err := classify(c.Urn.InSpec())
		if err != nil {
			return nil, err
		}
		outC, err := classify(c.Urn.OutSpec())
		if err != nil {
			return nil, err
		}

		analysis.Cardinalities = append(analysis.Cardinalities, StepCardinality{
			InCardinality:     inC,
			OutCardinality:    outC,
			FilePathArgIsList: filePathArgIsList(c),
		})
	}

	live := inputCardinality
	for i := 0; i < len(analysis.Cardinalities); {
		step := analysis.Cardinalities[i]
		if live == Many && step.InCardinality == Single {
			end := i
			for end < len(analysis.Cardinalities) && analysis.Cardinalities[end].OutCardinality != Many {
				end++
			}
			if end >= len(analysis.Cardinalities) {
				end = len(analysis.Cardinalities) - 1
			}
			analysis.FanOutRegions = append(analysis.FanOutRegions, FanOutRegion{Start: i, End: end})
			live = Many
			i = end + 1
			continue
		}
		live = step.OutCardinality
		i++
	}

	return analysis, nil
}

// InputCardinality derives the cardinality of a chain's source, given how
// many input files were supplied and whether the source media itself is a
// list form.
func InputCardinality(inputFileCount int, sourceMediaUrn string) (Cardinality, error) {
	if inputFileCount > 1 {
		return Many, nil
	}
	m, err := urn.NewMediaUrnFromString(sourceMediaUrn)
	if err != nil {
		return Single, capdagerr.Wrap(capdagerr.SchemaError, "cardinality.InputCardinality", "invalid source media URN", err)
	}
	if m.IsList() {
		return Many, nil
	}
	return Single, nil
}

// FilePathArgName returns the name of the first arg whose media URN carries
// the file-path tag, and whether it was found.
func FilePathArgName(c *cap.Cap) (string, bool) {
	for _, arg := range c.GetArgs() {
		m, err := urn.NewMediaUrnFromString(arg.MediaUrn)
		if err != nil {
			continue
		}
		if m.IsFilePath() || m.IsFilePathArray() {
			return arg.MediaUrn, true
		}
	}
	return "", false
}

func filePathArgIsList(c *cap.Cap) bool {
	for _, arg := range c.GetArgs() {
		m, err := urn.NewMediaUrnFromString(arg.MediaUrn)
		if err != nil {
			continue
		}
		if m.IsFilePathArray() {
			return true
		}
	}
	return false
}

// FilePathIsStdinChainable reports whether c's file-path arg has a Stdin
// source whose media URN equals c's own in_spec, meaning the previous
// step's output can be piped directly into this step via stdin instead of
// a materialized file path.
func FilePathIsStdinChainable(c *cap.Cap) bool {
	argName, ok := FilePathArgName(c)
	if !ok {
		return false
	}
	for _, arg := range c.GetArgs() {
		if arg.MediaUrn != argName {
			continue
		}
		stdinUrn := arg.GetStdinMediaUrn()
		return stdinUrn != nil && *stdinUrn == c.Urn.InSpec()
	}
	return false
}
