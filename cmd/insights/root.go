package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"post-call-insights-go/internal/config"
	"post-call-insights-go/internal/extractor"
	"post-call-insights-go/internal/llm"
	"post-call-insights-go/internal/logger"
	"post-call-insights-go/internal/processor"
	"post-call-insights-go/internal/rounded"
)

type rootFlags struct {
	mock bool
	mode string
}

// app is the wiring shared by every subcommand.
type app struct {
	cfg   config.Config
	log   *logger.Logger
	calls *rounded.Client
	svc   *processor.Service
}

func newRootCmd() *cobra.Command {
	var flags rootFlags
	root := &cobra.Command{
		Use:   "insights",
		Short: "Post-call analysis for voice agent calls",
		Long: `insights fetches calls from Call Rounded and extracts per-call statistics
(call reason, sentiment, failure reasons, questions, tags) with an LLM.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&flags.mock, "mock", false, "use the offline mock LLM")
	root.PersistentFlags().StringVar(&flags.mode, "mode", "", "extraction mode: sequential, parallel or batched")

	root.AddCommand(
		newAnalyzeCmd(&flags),
		newBatchCmd(&flags),
		newCallsCmd(&flags),
		newRawCmd(&flags),
		newModelsCmd(),
	)
	return root
}

// newApp loads the configuration and builds the clients. Logs go to
// stderr so stdout stays clean for results.
func newApp(flags *rootFlags, stderr io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if flags.mock {
		cfg.UseMockLLM = true
	}
	if flags.mode != "" {
		mode, err := extractor.ParseMode(flags.mode)
		if err != nil {
			return nil, err
		}
		cfg.ExtractionMode = mode
	}

	log := logger.NewWithOptions(logger.Options{Environment: cfg.Environment, Level: cfg.LogLevel, Output: stderr})
	calls := rounded.NewClient(cfg.RoundedAPIKey, cfg.RoundedAPIURL, 30*time.Second, log)
	settings := cfg.LLMSettings()
	svc, err := processor.New(processor.Settings{
		Source: calls,
		Generators: func(model string) (llm.Generator, error) {
			return llm.New(model, settings, log)
		},
		Extraction:   cfg.ExtractorOptions(),
		DefaultModel: cfg.DefaultModel,
	}, log)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, calls: calls, svc: svc}, nil
}

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models that can be passed to --model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range config.ModelNames() {
				fmt.Fprintf(out, "%-20s %s\n", name, config.AvailableModels[name])
			}
			return nil
		},
	}
}
