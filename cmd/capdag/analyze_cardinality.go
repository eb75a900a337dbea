package main

import (
	"encoding/json"
	"fmt"

	"github.com/filegrind/capdag-go/planner"
	"github.com/spf13/cobra"
)

var analyzeCardinalityCmd = &cobra.Command{
	Use:   "analyze-cardinality <source-media-urn> <target-media-urn>",
	Short: "Classify the input/output cardinality of a conversion path",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyzeCardinality,
}

func init() {
	analyzeCardinalityCmd.Flags().Bool("json", false, "output as structured JSON")
	analyzeCardinalityCmd.Flags().Int("input-file-count", 1, "number of input files supplied")
	rootCmd.AddCommand(analyzeCardinalityCmd)
}

func runAnalyzeCardinality(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	inputFileCount, _ := cmd.Flags().GetInt("input-file-count")
	capsDir, _ := cmd.Flags().GetString("caps-dir")

	registry, err := loadCapsDir(capsDir)
	if err != nil {
		return err
	}

	p := planner.NewPlanner()
	p.AddRegistry("local", registry)

	analysis, err := p.AnalyzePathCardinality(args[0], args[1], inputFileCount)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(analysis)
	}

	fmt.Fprintf(out, "requires fan-out: %t\n", analysis.RequiresFanOut())
	for i, step := range analysis.Cardinalities {
		fmt.Fprintf(out, "  step %d: %s -> %s\n", i, step.InCardinality, step.OutCardinality)
	}
	for _, region := range analysis.FanOutRegions {
		fmt.Fprintf(out, "  fan-out region: [%d, %d]\n", region.Start, region.End)
	}
	return nil
}
