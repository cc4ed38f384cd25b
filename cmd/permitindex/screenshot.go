package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/permitindex/internal/fetch"
)

var screenshotCmd = &cobra.Command{
	Use:   "screenshot",
	Short: "Capture a full-page screenshot of the site",
	Long: `Opens a page in headless Chrome and saves a full-page capture. Defaults to the
homepage of the configured base URL at 1920x1080. Requires Chrome or Chromium.`,
	RunE: runScreenshot,
}

var (
	screenshotSite    siteFlags
	screenshotURL     string
	screenshotOut     string
	screenshotWidth   int64
	screenshotHeight  int64
	screenshotQuality int
	screenshotTimeout time.Duration
)

func init() {
	screenshotSite.register(screenshotCmd, false)
	screenshotCmd.Flags().StringVarP(&screenshotURL, "url", "u", "", "Page to capture (defaults to the base URL)")
	screenshotCmd.Flags().StringVar(&screenshotOut, "out", "homepage.png", "Path to the image file to write")
	screenshotCmd.Flags().Int64Var(&screenshotWidth, "width", fetch.DefaultScreenshotWidth, "Viewport width")
	screenshotCmd.Flags().Int64Var(&screenshotHeight, "height", fetch.DefaultScreenshotHeight, "Viewport height")
	screenshotCmd.Flags().IntVar(&screenshotQuality, "quality", fetch.DefaultScreenshotQuality, "Image quality; 100 writes PNG, lower values JPEG")
	screenshotCmd.Flags().DurationVar(&screenshotTimeout, "timeout", 60*time.Second, "Time allowed for the capture")

	rootCmd.AddCommand(screenshotCmd)
}

func runScreenshot(cmd *cobra.Command, _ []string) error {
	target := screenshotURL
	if target == "" {
		cfg, err := screenshotSite.resolve(cmd)
		if err != nil {
			return err
		}
		if err := cfg.RequireBaseURL(); err != nil {
			return fmt.Errorf("either --url or a base URL must be provided: %w", err)
		}
		target = strings.TrimRight(cfg.BaseURL, "/") + "/"
	}

	log, err := newLogger("", false)
	if err != nil {
		return err
	}
	defer log.Sync()

	img, err := fetch.Screenshot(cmd.Context(), target, fetch.ScreenshotOptions{
		Width:   screenshotWidth,
		Height:  screenshotHeight,
		Quality: screenshotQuality,
		Timeout: screenshotTimeout,
		Log:     log,
	})
	if err != nil {
		return err
	}

	if dir := filepath.Dir(screenshotOut); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(screenshotOut, img, 0644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}

	_, _ = fmt.Fprintf(os.Stdout, "Saved %s (%d bytes) from %s\n", screenshotOut, len(img), target)
	return nil
}
