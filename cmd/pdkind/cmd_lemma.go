package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitrdm/pdkind/pkg/embed"
	"github.com/gitrdm/pdkind/pkg/ts"
)

var lemmaSystemID string

var lemmaCmd = &cobra.Command{
	Use:   "lemma <file>",
	Short: "Load a system, then feed lemma/ilemma/query commands from stdin",
	Long: `Registers <file> under --system-id and reads one
lemma/ilemma/query command per line from stdin, applying each through
the same command-language channel a host's add_lemma(Context, text)
call uses. A "query" line prints its verdict; "lemma"/"ilemma" lines
are silent on success.

Example:
  printf '(query main (not bad))\n' | pdkind lemma system.mcmt`,
	Args: cobra.ExactArgs(1),
	RunE: runLemma,
}

func init() {
	lemmaCmd.Flags().StringVar(&lemmaSystemID, "system-id", "main", "system id lines in stdin should reference")
}

func runLemma(cmd *cobra.Command, args []string) error {
	raw, err := buildOptions()
	if err != nil {
		return err
	}
	ctx, err := embed.CreateContext(raw)
	if err != nil {
		return err
	}
	defer embed.DeleteContext(ctx)

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	dialect := ts.MCMT
	if strings.HasSuffix(args[0], ".chc") {
		dialect = ts.CHC
	}
	if _, err := ctx.RunOnSource(lemmaSystemID, string(data), dialect); err != nil {
		return err
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		result, err := ctx.AddLemma(line)
		if err != nil {
			return fmt.Errorf("command %q: %w", line, err)
		}
		if result != nil {
			fmt.Println(result.Verdict)
		}
	}
	return scanner.Err()
}
