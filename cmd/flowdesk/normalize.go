package main

import (
	"fmt"
	"strings"

	"github.com/jPabloBC/ingenit-flows/internal/cli"
	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/jPabloBC/ingenit-flows/pkg/serialization"
	"github.com/spf13/cobra"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <file>",
	Short: "Rewrite a flow document in canonical form",
	Long: `Loads a flow document, repairs what the loader repairs (missing option ids,
derived connections, stale option edges) and prints the canonical document.
With --write the file is replaced in place. A summary of the changes goes to
stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		write, _ := cmd.Flags().GetBool("write")
		asYAML, _ := cmd.Flags().GetBool("yaml")
		path := args[0]

		before, _, err := serialization.ReadFile(path)
		if err != nil {
			return err
		}
		ed, err := openFile(path)
		if err != nil {
			return err
		}
		after := ed.Flow()

		diff := domain.Diff(before, after)
		if diff.IsEmpty() {
			cli.PrintSystemMessage(cmd.ErrOrStderr(), "%s is already canonical", path)
		} else {
			cli.PrintSystemMessage(cmd.ErrOrStderr(), "%s: %s", path, summarize(diff))
		}

		if write {
			return serialization.WriteFile(path, after)
		}
		var data []byte
		if asYAML {
			data, err = serialization.EncodeYAML(after)
		} else {
			data, err = serialization.Encode(after)
		}
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
	normalizeCmd.Flags().BoolP("write", "w", false, "Replace the file instead of printing")
	normalizeCmd.Flags().Bool("yaml", false, "Print YAML instead of JSON")
}

func summarize(d *domain.FlowDiff) string {
	var parts []string
	add := func(n int, what string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, what))
		}
	}
	add(len(d.NodesAdded), "node(s) added")
	add(len(d.NodesRemoved), "node(s) removed")
	add(len(d.NodesChanged), "node(s) changed")
	add(len(d.EdgesAdded), "connection(s) added")
	add(len(d.EdgesRemoved), "connection(s) removed")
	add(len(d.EdgesChanged), "connection(s) changed")
	if d.MetadataChanged {
		parts = append(parts, "metadata changed")
	}
	return strings.Join(parts, ", ")
}
