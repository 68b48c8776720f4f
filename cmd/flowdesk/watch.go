package main

import (
	"errors"
	"fmt"
	"io/fs"

	flows "github.com/jPabloBC/ingenit-flows"
	"github.com/jPabloBC/ingenit-flows/internal/cli"
	"github.com/jPabloBC/ingenit-flows/internal/presentation/tui"
	"github.com/jPabloBC/ingenit-flows/pkg/serialization"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-validate a flow document every time it changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		debounce, _ := cmd.Flags().GetDuration("debounce")
		plain, _ := cmd.Flags().GetBool("plain")
		path := args[0]
		out := cmd.OutOrStdout()
		render := markdownRenderer(out, plain)

		opts, err := editorOptions()
		if err != nil {
			return err
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		tui.PrintBanner(cmd.ErrOrStderr())
		cli.PrintSystemMessage(cmd.ErrOrStderr(), "watching %s (Ctrl+C to stop)", path)

		err = cli.Watch(ctx, path, debounce, logger, func(data []byte, err error) {
			if errors.Is(err, fs.ErrNotExist) {
				cli.PrintSystemMessage(out, "%s does not exist yet", path)
				return
			}
			if err != nil {
				cli.PrintSystemMessage(out, "read failed: %v", err)
				return
			}
			decode := serialization.Decode
			if serialization.IsYAML(path) {
				decode = serialization.DecodeYAML
			}
			flow, _, err := decode(data)
			if err != nil {
				cli.PrintSystemMessage(out, "invalid document: %v", err)
				return
			}
			ed := flows.New(flow, append(opts, flows.WithReadOnly(true))...)
			report, err := ed.Validate(ctx)
			if err != nil {
				cli.PrintSystemMessage(out, "validation failed: %v", err)
				return
			}
			title := fmt.Sprintf("Flow %s: %s", ed.ID(), tui.Status(report.Status))
			if err := tui.PrintReport(out, title, report.Findings, render); err != nil {
				logger.Warn("failed to print report", "err", err)
			}
		})
		return err
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Duration("debounce", cli.DefaultWatchDebounce, "Wait for file events to settle before re-validating")
	watchCmd.Flags().Bool("plain", false, "Print raw markdown even on a terminal")
}
