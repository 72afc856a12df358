package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vterm/internal/app"
	"vterm/internal/config"
	"vterm/internal/logging"
	"vterm/internal/metrics"
	"vterm/internal/ui"
)

var (
	version     = "0.1.0"
	cfgFile     string
	logLevel    string
	metricsAddr string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vterm",
		Short: "In-memory terminal over a project, with an AI patch engine",
		Long: `vterm mirrors a project's files into an in-memory Unix-like file tree and
gives you a shell over it. Ask a model for changes and review, accept or
reject the patches it proposes before they are written back.`,
		SilenceUsage: true,
		RunE:         runApp,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/vterm/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	rootCmd.AddCommand(
		newExecCmd(),
		newPatchCmd(),
		newAskCmd(),
		newResetCmd(),
		newInitCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("vterm version %s\n", version)
			},
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Close()
	if err != nil {
		os.Exit(1)
	}
}

func runApp(cmd *cobra.Command, args []string) error {
	w, err := openWorkspace(cmd.Context())
	if err != nil {
		return err
	}
	defer w.Close()

	return ui.Run(cmd.Context(), w)
}

// loadConfig reads the config and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Version = version
	if logLevel != "" {
		cfg.Logging.Level = logLevel
		cfg.Logging.File = true
	}
	if metricsAddr != "" {
		cfg.Metrics.Listen = metricsAddr
	}
	return cfg, nil
}

// openWorkspace loads the config, starts logging and metrics and opens the
// workspace they describe.
func openWorkspace(ctx context.Context) (*app.Workspace, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if cfg.Logging.File {
		if err := logging.EnableFileLogging(config.DataDir(), logging.ParseLevel(cfg.Logging.Level)); err != nil {
			return nil, fmt.Errorf("failed to enable logging: %w", err)
		}
	}

	if cfg.Metrics.Listen != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Listen); err != nil {
				logging.Error("metrics server stopped", "addr", cfg.Metrics.Listen, "error", err)
			}
		}()
	}

	w, err := app.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace: %w", err)
	}
	logging.Info("workspace opened", "project", cfg.Project.Name, "backend", cfg.Project.Backend, "version", version)
	return w, nil
}
