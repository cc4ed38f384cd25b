package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/jonathan/permitindex/internal/config"
	"github.com/jonathan/permitindex/internal/feedback"
	"github.com/jonathan/permitindex/internal/logging"
	"github.com/jonathan/permitindex/internal/server"
)

var serveFeedbackCmd = &cobra.Command{
	Use:   "serve-feedback",
	Short: "Start the feedback proxy",
	Long: `Start a stateless HTTP server that accepts POST /feedback from permit pages and
files each submission as a GitHub issue. Reads GITHUB_TOKEN, GITHUB_REPO,
GITHUB_API_URL, FEEDBACK_ALLOWED_ORIGIN, PORT and TRACKER_TIMEOUT from the environment.`,
	RunE: runServeFeedback,
}

var (
	serveFeedbackPort    int
	serveFeedbackSiteURL string
)

func init() {
	serveFeedbackCmd.Flags().IntVar(&serveFeedbackPort, "port", 0, "Port to listen on (overrides PORT)")
	serveFeedbackCmd.Flags().StringVar(&serveFeedbackSiteURL, "site-url", "", "Public site URL; issues link back to the permit page when set")

	rootCmd.AddCommand(serveFeedbackCmd)
}

func runServeFeedback(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FeedbackFromEnv(os.Getenv)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = serveFeedbackPort
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	log, err := newLogger("", false)
	if err != nil {
		return err
	}
	defer log.Sync()

	srv, err := newFeedbackServer(cfg, serveFeedbackSiteURL, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting feedback proxy", "config", cfg.String())
	return srv.Start(ctx)
}

// newFeedbackServer wires the tracker, handler, metrics registry and HTTP server.
func newFeedbackServer(cfg config.FeedbackConfig, siteURL string, log *logging.Logger) (*server.Server, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := feedback.NewMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	tracker := feedback.NewGitHubTracker(cfg, &http.Client{Timeout: cfg.TrackerTimeout})
	handler := feedback.NewHandler(tracker, feedback.HandlerOptions{
		AllowedOrigin: cfg.AllowedOrigin,
		SiteURL:       siteURL,
		Log:           log,
		Metrics:       metrics,
	})

	srv, err := server.New(server.Config{
		Port:     cfg.Port,
		Feedback: handler,
		Gatherer: reg,
		Log:      log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}
	return srv, nil
}
