package main

import (
	"encoding/json"
	"fmt"

	"github.com/filegrind/capdag-go/planner"
	"github.com/spf13/cobra"
)

var reachableCmd = &cobra.Command{
	Use:   "reachable <source-media-urn>",
	Short: "List media specs reachable from a source within a hop limit",
	Args:  cobra.ExactArgs(1),
	RunE:  runReachable,
}

func init() {
	reachableCmd.Flags().Bool("json", false, "output as structured JSON")
	reachableCmd.Flags().Int("max-depth", 5, "maximum number of hops to explore")
	rootCmd.AddCommand(reachableCmd)
}

func runReachable(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	maxDepth, _ := cmd.Flags().GetInt("max-depth")
	capsDir, _ := cmd.Flags().GetString("caps-dir")

	registry, err := loadCapsDir(capsDir)
	if err != nil {
		return err
	}

	p := planner.NewPlanner()
	p.AddRegistry("local", registry)

	targets, err := p.GetReachableTargets(args[0], maxDepth)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(targets)
	}
	for _, t := range targets {
		fmt.Fprintln(out, t)
	}
	return nil
}
