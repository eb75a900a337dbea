package main

import (
	"encoding/json"
	"fmt"

	"github.com/filegrind/capdag-go/planner"
	"github.com/spf13/cobra"
)

var findPathCmd = &cobra.Command{
	Use:   "find-path <source-media-urn> <target-media-urn>",
	Short: "Find the shortest cap chain converting source to target",
	Args:  cobra.ExactArgs(2),
	RunE:  runFindPath,
}

func init() {
	findPathCmd.Flags().Bool("json", false, "output as structured JSON")
	rootCmd.AddCommand(findPathCmd)
}

func runFindPath(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	capsDir, _ := cmd.Flags().GetString("caps-dir")

	registry, err := loadCapsDir(capsDir)
	if err != nil {
		return err
	}

	p := planner.NewPlanner()
	p.AddRegistry("local", registry)

	path, err := p.FindPath(args[0], args[1])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(path)
	}

	if len(path) == 0 {
		fmt.Fprintln(out, "identity: source already conforms to target")
		return nil
	}
	for i, capUrn := range path {
		fmt.Fprintf(out, "%d: %s\n", i, capUrn)
	}
	return nil
}
