package commands

import (
	"context"
	"fmt"
	"os"

	"acreview/lib/conference"
	"acreview/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	debug      *bool
)

var rootCmd = &cobra.Command{
	Use:   "acreview",
	Short: "acreview collects review scores from an area chair console.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*debug)
	},
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", conference.DefaultPath, "The conference configuration file (yaml or json5).")
	debug = rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
