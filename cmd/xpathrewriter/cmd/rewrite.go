// cmd/xpathrewriter/cmd/rewrite.go
package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/solatis/xpathrewriter/internal/catalog"
	"github.com/solatis/xpathrewriter/internal/rewrite"
)

// newRewriteCmd rewrites one request offline with the configured static
// rules, any --rules-file and any --rule, in that order.
func newRewriteCmd(opts *globalOptions) *cobra.Command {
	var (
		input     string
		ruleFiles []string
		extra     []string
		text      bool
	)

	rewriteCmd := &cobra.Command{
		Use:   "rewrite",
		Short: "Rewrite a query request read as JSON and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			cfg.XPath.RuleFiles = append(cfg.XPath.RuleFiles, ruleFiles...)
			raw, err := cfg.XPath.StaticRules()
			if err != nil {
				return err
			}
			raw = append(raw, extra...)

			in, err := openInput(cmd, input)
			if err != nil {
				return err
			}
			defer in.Close()
			data, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("failed to read request: %w", err)
			}
			req, err := catalog.DecodeRequest(data)
			if err != nil {
				return fmt.Errorf("failed to decode request: %w", err)
			}

			rewriter := rewrite.New()
			rewriter.Configure(raw)

			out, err := rewriter.Rewrite(req)
			if err != nil {
				return err
			}

			if text {
				if out == nil || out.Query == nil || out.Query.Filter == nil {
					return fmt.Errorf("request has no filter")
				}
				fmt.Fprintln(cmd.OutOrStdout(), out.Query.Filter.String())
				return nil
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	rewriteCmd.Flags().StringVar(&input, "input", "-", "request JSON file, - for stdin")
	rewriteCmd.Flags().StringArrayVar(&ruleFiles, "rules-file", nil, "YAML rule file (repeatable)")
	rewriteCmd.Flags().StringArrayVar(&extra, "rule", nil, `raw rule "<pattern>":"<replacement>" (repeatable)`)
	rewriteCmd.Flags().BoolVar(&text, "text", false, "print only the rewritten filter in bracketed form")
	return rewriteCmd
}
