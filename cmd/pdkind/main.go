// Command pdkind is the CLI frontend over pkg/embed: a driving program
// exercising the embedding surface of spec.md §6.1/§6.2 from a
// terminal, grounded in codenerd/cmd/nerd/main.go's rootCmd/subcommand
// registration and PersistentPreRunE logger-setup pattern.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	flagSolver            string
	flagSolverLogic       string
	flagMaxFrames         int
	flagMaxFrame          int
	flagMaxInductionDepth int
	flagConfig            string
	flagVerbose           bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pdkind",
	Short: "Property-directed reachability plus k-induction model checker",
	Long: `pdkind decides whether a safety property holds of a transition
system, using property-directed reachability strengthened by bounded
k-induction at every frame.

Run "pdkind query <file>" to check a property, or "pdkind lemma <file>"
to pipe command-language text (lemma/ilemma/query forms) into a running
context.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if flagVerbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagSolver, "solver", "ref", "solver backend (ref)")
	rootCmd.PersistentFlags().StringVar(&flagSolverLogic, "solver-logic", "", "solver logic hint passed through to the backend")
	rootCmd.PersistentFlags().IntVar(&flagMaxFrames, "ic3-max-frames", 0, "frame count ceiling (0 uses the engine default)")
	rootCmd.PersistentFlags().IntVar(&flagMaxFrame, "ic3-max-frame-size", 0, "per-frame lemma count ceiling (0 uses the engine default)")
	rootCmd.PersistentFlags().IntVar(&flagMaxInductionDepth, "induction-max-depth", 0, "induction depth ceiling an obligation may escalate to (0 uses the engine default)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML file populating the option table")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug-level logging")

	rootCmd.AddCommand(queryCmd, lemmaCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
