// Package main provides the permitindex CLI: the static site generator, its
// validators and the feedback proxy.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/permitindex/internal/logging"
)

var (
	logFormat string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "permitindex",
	Short: "Permit Index static site generator",
	Long: `Permit Index turns a CSV dataset of government permit records into a static website
with one page per permit, jurisdiction hub pages, a sitemap and a JSON export.
It also validates the generated site and runs the stateless feedback proxy.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log encoder: dev or prod (defaults to LOG_MODE env var, then dev)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug logs")
}

// newLogger builds the logger selected by --log-format, LOG_MODE and --verbose.
// fileMode and fileVerbose come from a config file and sit between the flag and
// the environment.
func newLogger(fileMode string, fileVerbose bool) (*logging.Logger, error) {
	mode := logFormat
	if mode == "" {
		mode = fileMode
	}
	if mode == "" {
		mode = os.Getenv("LOG_MODE")
	}
	return logging.New(mode, verbose || fileVerbose)
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
