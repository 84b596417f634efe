package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"itoi-daily/internal/observability/metrics"
	"itoi-daily/internal/usecase/publish"
)

var runDryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, translate and publish today's essay once",
	Long: "Fetches today's essay and, if it is not yet archived, translates it, prepends it " +
		"to the archive and regenerates the feed. An already archived essay is a no-op " +
		"and exits with status 0.",
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Do everything except writing the archive and feed and notifying")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	a, err := newApp(runDryRun, true)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.service.Run(cmd.Context())
	a.exportMetrics()
	if err != nil {
		return err
	}

	printResult(cmd, res)
	return nil
}

// exportMetrics writes the node-exporter textfile when configured.
func (a *app) exportMetrics() {
	path := a.cfg.Observability.MetricsTextfile
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path); err != nil {
		a.logger.Warn("failed to export metrics", slog.String("path", path), slog.Any("error", err))
	}
}

func printResult(cmd *cobra.Command, res *publish.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "status: %s\n", res.Status)
	if res.Fingerprint != "" {
		fmt.Fprintf(out, "fingerprint: %s\n", res.Fingerprint)
	}
	if res.Entry != nil {
		fmt.Fprintf(out, "title: %s\n", res.Entry.Title)
	}
	fmt.Fprintf(out, "archive entries: %d\nfeed items: %d\n", res.ArchiveSize, res.FeedItems)
	if res.Quarantined > 0 {
		fmt.Fprintf(out, "quarantined records: %d\n", res.Quarantined)
	}
}
