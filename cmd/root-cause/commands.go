package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ollrogge/hoedur-root-cause/cmd/root-cause/internal/config"
	"github.com/Ollrogge/hoedur-root-cause/cmd/root-cause/internal/telemetry"
)

var (
	cfg               *config.Config
	telemetryShutdown func(context.Context) error

	// Persistent flags
	cfgPath        string
	verbose        bool
	metricsEnabled bool

	// Crash identification flags, shared by run/explore
	crashID   int
	crashFile string

	// Stage tuning flags
	exploreDuration time.Duration
	traceWorkers    int
	errorPolicy     string

	rootCmd = &cobra.Command{
		Use:   "root-cause",
		Short: "Drive the hoedur fuzzer to produce root-cause traces for a crash",
		Long: `root-cause reproduces a crashing input, re-explores the state space
around it, and regenerates deterministic execution traces for every input
discovered, ready for downstream root-cause analysis.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogger(verbose)
			var err error
			cfg, err = config.Load(cfgPath)
			if err != nil {
				return err
			}
			telemetryShutdown, err = telemetry.Init(metricsEnabled)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if telemetryShutdown == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return telemetryShutdown(ctx)
		},
	}

	runCmd = &cobra.Command{
		Use:   "run CORPUS_ARCHIVE [OUTPUT_DIR]",
		Short: "Run the full pipeline: crash archive, exploration, parallel tracing",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runPipeline, // Defined in cmd_run.go
	}

	exploreCmd = &cobra.Command{
		Use:   "explore CORPUS_ARCHIVE [OUTPUT_DIR]",
		Short: "Produce the crash archive and explore around the crash, without tracing",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runExplore, // Defined in cmd_run.go
	}

	traceCmd = &cobra.Command{
		Use:   "trace OUTPUT_DIR",
		Short: "Regenerate root-cause traces for already-explored inputs",
		Args:  cobra.ExactArgs(1),
		RunE:  runTraceStage, // Defined in cmd_trace.go
	}

	genConfigCmd = &cobra.Command{
		Use:   "gen-config DIR",
		Short: "Generate an engine config from the firmware image in DIR",
		Args:  cobra.ExactArgs(1),
		RunE:  runGenConfig, // Defined in cmd_genconfig.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to a pipeline config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&metricsEnabled, "metrics", false, "Export trace stage metrics to stdout")

	for _, cmd := range []*cobra.Command{runCmd, exploreCmd} {
		cmd.Flags().IntVar(&crashID, "crash-id", 0, "Corpus index of the crashing input")
		cmd.Flags().StringVar(&crashFile, "crash-file", "", "Path to a standalone crashing input")
		cmd.Flags().DurationVar(&exploreDuration, "duration", 10*time.Minute, "Exploration duration budget")
	}
	runCmd.Flags().IntVar(&traceWorkers, "workers", 0, "Trace worker pool size (0 = CPU count minus one)")
	runCmd.Flags().StringVar(&errorPolicy, "error-policy", "", "Trace failure policy: continue or abort")
	traceCmd.Flags().IntVar(&crashID, "crash-id", 0, "Crash id the crash archive was produced for")
	traceCmd.Flags().IntVar(&traceWorkers, "workers", 0, "Trace worker pool size (0 = CPU count minus one)")
	traceCmd.Flags().StringVar(&errorPolicy, "error-policy", "", "Trace failure policy: continue or abort")

	rootCmd.AddCommand(runCmd, exploreCmd, traceCmd, genConfigCmd)
}
