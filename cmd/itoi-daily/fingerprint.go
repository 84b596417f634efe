package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"itoi-daily/internal/domain/entity"
)

var fingerprintRaw bool

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint [file]",
	Short: "Print the archive fingerprint of an essay body",
	Long: "Reads an essay body from file, or stdin when no file is given, and prints the " +
		"fingerprint used to detect already published essays. Surrounding whitespace is " +
		"trimmed like the scraper does unless --raw is set.",
	Args: cobra.MaximumNArgs(1),
	RunE: runFingerprint,
}

func init() {
	fingerprintCmd.Flags().BoolVar(&fingerprintRaw, "raw", false, "Hash the input exactly as read")
	rootCmd.AddCommand(fingerprintCmd)
}

func runFingerprint(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("read essay body: %w", err)
	}

	body := string(data)
	if !fingerprintRaw {
		body = strings.TrimSpace(body)
	}
	fmt.Fprintln(cmd.OutOrStdout(), entity.Fingerprint(body))
	return nil
}
