// Package main provides the summeval binary: a web dashboard and a terminal command
// that score a generated summary against a reference with ROUGE, BLEU and BERTScore.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/datar-psa/summeval/accuracy"
	"github.com/datar-psa/summeval/internal/app"
	"github.com/datar-psa/summeval/internal/config"
	"github.com/datar-psa/summeval/internal/dashboard"
	"github.com/datar-psa/summeval/internal/logger"
	"github.com/datar-psa/summeval/internal/metrics"
	"github.com/datar-psa/summeval/internal/report"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "summeval",
		Short: "Summary accuracy evaluation with ROUGE, BLEU and BERTScore",
		Long: `summeval scores a generated summary against a human reference summary.

Examples:
  summeval serve --addr :8080
  summeval evaluate --generated "The cat sat." --reference "The cat sat on the mat."`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path (defaults to $SUMMEVAL_CONFIG)")

	rootCmd.AddCommand(newServeCmd(), newEvaluateCmd())
	return rootCmd
}

// loadConfig loads the configuration and sets up the global logger from it
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cmd.Context(), path)
	if err != nil {
		return nil, err
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)
	return cfg, nil
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web dashboard",
		RunE:  runServe,
	}
	cmd.Flags().String("addr", "", "listen address (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Addr = addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	// Backends may come up after the dashboard; a failed attempt is retried on the first evaluation.
	if err := a.Calculator.Prepare(ctx); err != nil {
		logger.Log.Warn("Scorers not ready", "error", err)
	}

	recorder := metrics.NewRecorder(metrics.WithRuntimeCollectors())
	handler := dashboard.NewHandler(a.Calculator, recorder, logger.Log)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Dashboard listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Log.Info("Server stopped")
	return nil
}

func newEvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score one generated summary against a reference and print the results",
		RunE:  runEvaluate,
	}
	cmd.Flags().StringP("generated", "g", "", "generated summary text")
	cmd.Flags().StringP("reference", "r", "", "reference summary text")
	cmd.Flags().String("generated-file", "", "read the generated summary from a file")
	cmd.Flags().String("reference-file", "", "read the reference summary from a file")
	cmd.Flags().Bool("json", false, "print the raw metrics as JSON")
	return cmd
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	generated, err := textFlag(cmd, "generated")
	if err != nil {
		return err
	}
	reference, err := textFlag(cmd, "reference")
	if err != nil {
		return err
	}
	if err := accuracy.Validate(generated, reference); err != nil {
		return errors.New(report.EmptyInputMsg)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	result, err := a.Calculator.Calculate(cmd.Context(), generated, reference)
	if err != nil {
		logger.Log.Error("Evaluation failed", "error", err)
		return errors.New(report.FailureMessage(err))
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return report.WriteText(cmd.OutOrStdout(), result)
}

// textFlag returns the --name flag, or the contents of --name-file when set
func textFlag(cmd *cobra.Command, name string) (string, error) {
	if path, _ := cmd.Flags().GetString(name + "-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s summary: %w", name, err)
		}
		return string(data), nil
	}
	return cmd.Flags().GetString(name)
}
