package main

import (
	"fmt"
	"strings"

	flows "github.com/jPabloBC/ingenit-flows"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of flowdesk",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "flowdesk version %s\n", strings.TrimSpace(flows.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
