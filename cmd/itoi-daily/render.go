package main

import (
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Regenerate the feed from the archive",
	Long:  "Rebuilds the RSS feed from the archive on disk. No network access and no API keys are needed.",
	Args:  cobra.NoArgs,
	RunE:  runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	a, err := newApp(false, false)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.service.RenderOnly(cmd.Context())
	a.exportMetrics()
	if err != nil {
		return err
	}

	printResult(cmd, res)
	return nil
}
