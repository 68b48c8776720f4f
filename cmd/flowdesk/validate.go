package main

import (
	"context"
	"encoding/json"
	"fmt"

	flows "github.com/jPabloBC/ingenit-flows"
	"github.com/jPabloBC/ingenit-flows/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a flow for structural problems",
	Long: `Runs the structural checks on a flow document and prints the findings.
With --stored the flow is read from the configured store and its validation
status is saved back. The command fails when any error finding is reported.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stored, _ := cmd.Flags().GetString("stored")
		asJSON, _ := cmd.Flags().GetBool("json")
		plain, _ := cmd.Flags().GetBool("plain")

		var (
			id     string
			report *flows.Report
			err    error
		)
		switch {
		case stored != "":
			id = stored
			report, err = validateStored(cmd.Context(), stored)
		case len(args) == 1:
			id, report, err = validateFile(cmd.Context(), args[0])
		default:
			return fmt.Errorf("validate needs a file or --stored <flow id>")
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
		} else {
			title := fmt.Sprintf("Flow %s: %s", id, report.Status)
			if err := tui.PrintReport(out, title, report.Findings, markdownRenderer(out, plain)); err != nil {
				return err
			}
		}
		if !report.Passed() {
			return errFlowInvalid(id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("stored", "", "Validate the stored flow with this id and save its status")
	validateCmd.Flags().Bool("json", false, "Print the report as JSON")
	validateCmd.Flags().Bool("plain", false, "Print raw markdown even on a terminal")
}

func validateFile(ctx context.Context, path string) (string, *flows.Report, error) {
	ed, err := openFile(path, flows.WithReadOnly(true))
	if err != nil {
		return "", nil, err
	}
	report, err := ed.Validate(ctx)
	return ed.ID(), report, err
}

func validateStored(ctx context.Context, id string) (*flows.Report, error) {
	manager, backend, err := openManager(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer closeBackend(backend)
	return manager.Validate(ctx, id)
}
