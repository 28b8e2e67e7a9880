// Command opsmeshd runs the orchestrator daemon: it discovers the configured
// agents and tool servers, then serves the task delegation endpoint.
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

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hupe1980/opsmesh"
	"github.com/hupe1980/opsmesh/config"
	"github.com/hupe1980/opsmesh/logging"
	"github.com/hupe1980/opsmesh/model/anthropic"
	"github.com/hupe1980/opsmesh/model/openai"
	"github.com/hupe1980/opsmesh/workflow"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logFormat  string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:          "opsmeshd",
		Short:        "Multi-agent workflow orchestrator",
		Long:         "opsmeshd discovers remote agents and tool servers, plans multi-step operational workflows and executes them with incident tracking.",
		Version:      opsmesh.Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath, logFormat, debug)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the YAML configuration file")
	cmd.Flags().StringVar(&logFormat, "log-format", "json", "log output format (json or text)")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")

	return cmd
}

func run(ctx context.Context, configPath, logFormat string, debug bool) error {
	// Optional .env for local development; a missing file is not an error.
	_ = godotenv.Load()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	level := logging.LogLevelInfo
	if debug {
		level = logging.LogLevelDebug
	}
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    logFormat,
		Output:    os.Stdout,
		Component: "opsmeshd",
	})

	planner, err := buildPlanner(cfg)
	if err != nil {
		return err
	}

	mesh := opsmesh.New(func(o *opsmesh.Options) {
		o.Agents = cfg.Agents
		o.ToolServers = cfg.ToolServers
		o.Planner = planner
		o.TrackingAgent = cfg.Workflow.TrackingAgent
		o.StepTimeout = cfg.Workflow.StepTimeout.Std()
		o.Deadline = cfg.Workflow.Deadline.Std()
		o.MaxSteps = cfg.Workflow.MaxSteps
		o.Logger = logger
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mesh.Discover(ctx); err != nil {
		return fmt.Errorf("discovery: %w", err)
	}

	baseURL := "http://localhost" + cfg.Server.Listen

	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           mesh.Handler(baseURL),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("orchestrator listening", "addr", cfg.Server.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// buildPlanner selects the planning strategy from configuration.
func buildPlanner(cfg *config.Config) (workflow.Planner, error) {
	switch cfg.Model.Provider {
	case "anthropic":
		m := anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Model.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Model.Name)
			}
			o.MaxTokens = cfg.Model.MaxTokens
			o.Temperature = cfg.Model.Temperature
		})
		return workflow.NewLLMPlanner(m), nil
	case "openai":
		m := openai.NewModel(func(o *openai.Options) {
			if cfg.Model.Name != "" {
				o.Model = cfg.Model.Name
			}
			o.MaxCompletionTokens = cfg.Model.MaxTokens
			o.Temperature = cfg.Model.Temperature
		})
		return workflow.NewLLMPlanner(m), nil
	case "none":
		return workflow.NewDeploymentPlanner(), nil
	default:
		return nil, fmt.Errorf("unknown model provider: %q", cfg.Model.Provider)
	}
}
