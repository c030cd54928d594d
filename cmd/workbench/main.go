package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rflorenc/intune-workbench/internal/api"
	"github.com/rflorenc/intune-workbench/internal/config"
	"github.com/rflorenc/intune-workbench/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func versionString() string {
	return fmt.Sprintf("workbench %s (commit: %s, built: %s)", version, commit, date)
}

// newRootCommand returns the workbench CLI.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "workbench",
		Short:        "Intune configuration workbench",
		Long:         `workbench loads a tenant's device management configuration and exports it as JSON, an HTML report or a ZIP archive.`,
		Version:      version,
		SilenceUsage: true,
	}
	cmd.SetVersionTemplate(versionString() + "\n")

	cmd.AddCommand(
		newServeCommand(),
		newExportCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), versionString())
			},
		},
	)
	return cmd
}

func newServeCommand() *cobra.Command {
	cfg := config.Default()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP console backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cfg.BindFlags(cmd.Flags())
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	server := api.NewServer(cfg, log)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.NewRouter(server),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Sugar().Infof("%s starting on %s", versionString(), cfg.Listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("server stopped")
	return nil
}
