package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/jPabloBC/ingenit-flows/internal/presentation/tui"
	"github.com/jPabloBC/ingenit-flows/pkg/serialization"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored flows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, backend, err := openManager(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer closeBackend(backend)

		ids, err := manager.List(cmd.Context())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tUPDATED")
		for _, id := range ids {
			flow, err := manager.Load(cmd.Context(), id)
			if err != nil {
				logger.Warn("skipping unreadable flow", "flow", id, "err", err)
				continue
			}
			updated := "-"
			if !flow.UpdatedAt.IsZero() {
				updated = flow.UpdatedAt.Format("2006-01-02 15:04")
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", flow.ID, flow.Name, tui.Status(flow.ValidationStatus), updated)
		}
		return tw.Flush()
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Store flow documents in the configured backend",
	Long: `Reads each document, normalizes it the same way the editor does and saves it
under its own id. Existing flows with the same id are replaced.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, backend, err := openManager(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer closeBackend(backend)

		for _, path := range args {
			ed, err := openFile(path)
			if err != nil {
				return err
			}
			if err := manager.Save(cmd.Context(), ed.Flow()); err != nil {
				return fmt.Errorf("import %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s from %s\n", ed.ID(), path)
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <flow id> [file]",
	Short: "Write a stored flow to a file or stdout",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, backend, err := openManager(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer closeBackend(backend)

		flow, err := manager.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(args) == 2 {
			return serialization.WriteFile(args[1], flow)
		}
		data, err := serialization.Encode(flow)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <flow id>",
	Short: "Remove a stored flow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, backend, err := openManager(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer closeBackend(backend)
		return manager.Delete(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(listCmd, importCmd, exportCmd, deleteCmd)
}
