package main

import (
	"fmt"
	"log/slog"
	"os"

	flows "github.com/jPabloBC/ingenit-flows"
	"github.com/jPabloBC/ingenit-flows/internal/cli"
	"github.com/jPabloBC/ingenit-flows/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	debug   bool

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "flowdesk",
	Short: "Flowdesk edits and checks conversational flows",
	Long: `Flowdesk keeps conversational bot flows (menus, messages, decisions, delays)
as documents, checks them for structural problems and serves them to editors
over HTTP and to agents over MCP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		l, err := cli.NewLogger(c.Log, debug)
		if err != nil {
			return err
		}
		cfg, logger = c, l
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Configuration file (yaml or json)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log at debug level")
}

// editorOptions returns the facade options derived from the loaded configuration.
func editorOptions() ([]flows.Option, error) {
	return cli.EditorOptions(cfg.Editor, logger)
}
