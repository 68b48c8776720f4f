package main

import (
	"fmt"

	flows "github.com/jPabloBC/ingenit-flows"
	"github.com/jPabloBC/ingenit-flows/internal/presentation/graph"
	"github.com/jPabloBC/ingenit-flows/internal/validator"
	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [file]",
	Short: "Export the flow as a Mermaid diagram",
	Long: `Prints a Mermaid flowchart (graph TD) of the flow. Nodes with error findings
are highlighted and connection labels carry their test status.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stored, _ := cmd.Flags().GetString("stored")
		selected, _ := cmd.Flags().GetString("selected")

		var ed *flows.Editor
		switch {
		case stored != "":
			manager, backend, err := openManager(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeBackend(backend)
			if ed, err = manager.Open(cmd.Context(), stored); err != nil {
				return err
			}
		case len(args) == 1:
			var err error
			if ed, err = openFile(args[0], flows.WithReadOnly(true)); err != nil {
				return err
			}
		default:
			return fmt.Errorf("graph needs a file or --stored <flow id>")
		}

		overlay := &graph.Overlay{SelectedNode: selected}
		for _, f := range validator.Validate(ed.Graph()) {
			if f.Level == domain.LevelError && f.NodeID != "" {
				overlay.Highlight = append(overlay.Highlight, f.NodeID)
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(ed.Graph(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("stored", "", "Render the stored flow with this id")
	graphCmd.Flags().String("selected", "", "Node id to mark as selected")
}
