package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/filegrind/capdag-go/planner"
	"github.com/filegrind/capdag-go/wire"
	"github.com/spf13/cobra"
)

var buildPlanCmd = &cobra.Command{
	Use:   "build-plan <source-media-urn> <target-media-urn>",
	Short: "Compile a validated, topologically-ordered plan for a conversion",
	Args:  cobra.ExactArgs(2),
	RunE:  runBuildPlan,
}

func init() {
	buildPlanCmd.Flags().Int("input-file-count", 1, "number of input files supplied")
	buildPlanCmd.Flags().String("cbor-out", "", "write the CBOR-encoded plan to this file instead of printing JSON")
	rootCmd.AddCommand(buildPlanCmd)
}

func runBuildPlan(cmd *cobra.Command, args []string) error {
	inputFileCount, _ := cmd.Flags().GetInt("input-file-count")
	cborOut, _ := cmd.Flags().GetString("cbor-out")
	capsDir, _ := cmd.Flags().GetString("caps-dir")

	registry, err := loadCapsDir(capsDir)
	if err != nil {
		return err
	}

	p := planner.NewPlanner()
	p.AddRegistry("local", registry)

	plan, err := p.BuildPlan(args[0], args[1], inputFileCount)
	if err != nil {
		return err
	}

	if cborOut != "" {
		data, err := wire.EncodePlan(plan)
		if err != nil {
			return err
		}
		return os.WriteFile(cborOut, data, 0644)
	}

	out := cmd.OutOrStdout()
	order, err := plan.TopologicalOrder()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "plan: %s (id=%s)\n", plan.Name, plan.Metadata.PlanID)
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Metadata planner.Metadata `json:"metadata"`
		Order    []string         `json:"topological_order"`
		Edges    []planner.Edge   `json:"edges"`
	}{plan.Metadata, order, plan.Edges})
}
