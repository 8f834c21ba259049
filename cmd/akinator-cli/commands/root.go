package commands

import (
	"context"
	"fmt"
	"os"

	"akiclient/lib/telemetry"

	"github.com/spf13/cobra"
)

const globalsKey = "akinator-cli.ctx"

// Globals is what every subcommand gets from the root command.
type Globals struct {
	Config    Config
	Telemetry telemetry.API
}

func getGlobals(ctx context.Context) *Globals {
	return ctx.Value(globalsKey).(*Globals)
}

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "akinator-cli",
	Short: "akinator-cli plays the akinator guessing game from the terminal.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		cfg.Verbose = cfg.Verbose || verbose
		telemetry.InitSlog(cfg.Verbose)

		cmd.SetContext(context.WithValue(cmd.Context(), globalsKey, &Globals{
			Config:    cfg,
			Telemetry: telemetry.SlogAPI{},
		}))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "akiclient.json5", "The config file to read.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug records.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
