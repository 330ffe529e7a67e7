package commands

import (
	"fmt"
	"io"
	"os"

	"acreview/lib/conference"
	"acreview/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(conferencesCmd)
}

// printConferences writes one "name: url" line per conference, sorted by name.
func printConferences(out io.Writer, loader *conference.Loader) error {
	for _, name := range loader.List() {
		conf, err := loader.Get(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %s\n", name, conf.URL)
	}
	return nil
}

var conferencesCmd = &cobra.Command{
	Use:   "conferences [--config <path/to/conf.yaml>]",
	Short: "Lists the conferences available in the configuration file.",
	Run: func(cmd *cobra.Command, args []string) {
		loader, err := conference.Load(*configPath)
		if err != nil {
			serviceutil.Fatal("failed to load conferences", err)
		}
		err = printConferences(os.Stdout, loader)
		if err != nil {
			serviceutil.Fatal("failed to list conferences", err)
		}
	},
}
