package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/permitindex/internal/favicon"
)

var faviconsCmd = &cobra.Command{
	Use:   "favicons",
	Short: "Write the favicon PNG set",
	Long:  "Draws a white letter on a navy square at every size browsers and home screens ask for.",
	RunE:  runFavicons,
}

var (
	faviconsOut    string
	faviconsLetter string
)

func init() {
	faviconsCmd.Flags().StringVarP(&faviconsOut, "out", "o", "output", "Directory to write icons into")
	faviconsCmd.Flags().StringVar(&faviconsLetter, "letter", "P", "Letter drawn on the icon")

	rootCmd.AddCommand(faviconsCmd)
}

func runFavicons(_ *cobra.Command, _ []string) error {
	gen, err := favicon.New(faviconsLetter)
	if err != nil {
		return err
	}
	files, err := gen.All()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(faviconsOut, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, f := range files {
		path := filepath.Join(faviconsOut, f.Name)
		if err := os.WriteFile(path, f.Data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		_, _ = fmt.Fprintf(os.Stdout, "Wrote %s\n", path)
	}
	return nil
}
