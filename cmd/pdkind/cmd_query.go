package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gitrdm/pdkind/pkg/embed"
	"github.com/gitrdm/pdkind/pkg/pdkind"
	"github.com/gitrdm/pdkind/pkg/ts"
)

var flagDialect string

var queryCmd = &cobra.Command{
	Use:   "query <file>",
	Short: "Check the property declared in a transition-system file",
	Long: `Parses <file> as an MCMT (default) or CHC transition system,
registers it under the system id "main", and runs the property it
declares to a verdict.

Example:
  pdkind query system.mcmt
  pdkind query --dialect chc system.chc`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&flagDialect, "dialect", "mcmt", "input dialect (mcmt|chc)")
	queryCmd.Flags().Bool("show-trace", false, "print the counterexample trace on an invalid verdict")
	queryCmd.Flags().Bool("show-invariant", false, "print the learned invariant on a valid verdict")
}

func runQuery(cmd *cobra.Command, args []string) error {
	raw, err := buildOptions()
	if err != nil {
		return err
	}
	showTrace, _ := cmd.Flags().GetBool("show-trace")
	showInvariant, _ := cmd.Flags().GetBool("show-invariant")
	if showTrace {
		raw["show-trace"] = "true"
	}
	if showInvariant {
		raw["show-invariant"] = "true"
	}

	ctx, err := embed.CreateContext(raw)
	if err != nil {
		return err
	}
	defer embed.DeleteContext(ctx)

	const systemID = "main"
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dialect := ts.MCMT
	if flagDialect == "chc" {
		dialect = ts.CHC
	}
	parsed, err := ctx.RunOnSource(systemID, string(data), dialect)
	if err != nil {
		return err
	}
	logger.Info("checking property",
		zap.String("system", systemID),
		zap.String("property", ctx.TermToString(parsed.Property)))

	result, err := ctx.RunQuery(cmd.Context(), systemID, parsed.Property)
	if err != nil {
		return err
	}
	printResult(ctx, result, showTrace, showInvariant)
	return nil
}

func printResult(ctx *embed.Context, result *pdkind.Result, showTrace, showInvariant bool) {
	fmt.Println(result.Verdict)
	switch result.Verdict {
	case pdkind.VerdictValid:
		if showInvariant {
			fmt.Println(ctx.TermToString(result.Invariant))
		}
	case pdkind.VerdictInvalid:
		if showTrace {
			for i, state := range result.Trace {
				fmt.Printf("%d: %s\n", i, ctx.TermToString(state))
			}
		}
	case pdkind.VerdictUnknown:
		if result.Cause != nil {
			fmt.Println(result.Cause)
		}
	}
}
