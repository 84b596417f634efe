// Command itoi-daily fetches the daily essay, translates it, archives it and
// republishes the archive as an RSS feed.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "itoi-daily",
	Short: "Translate today's essay and publish it as an RSS feed",
	Long: "itoi-daily scrapes the daily essay, translates it with an LLM, skips essays " +
		"already in the archive, and regenerates the RSS feed from the archive.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to the YAML configuration file (default $ITOI_CONFIG)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
