// cmd/xpathrewriter/cmd/rules.go
package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/solatis/xpathrewriter/internal/core/api"
	"github.com/solatis/xpathrewriter/internal/core/config"
	"github.com/solatis/xpathrewriter/internal/types"
)

func newRulesCmd(opts *globalOptions) *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage stored xpath replacement rules",
	}

	var all bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored rules in table order",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, store, err := opts.openRuleStore()
			if err != nil {
				return err
			}
			defer database.Close()

			stored, err := store.List(cmd.Context(), !all)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "POSITION\tID\tENABLED\tCREATED\tRULE")
			for _, r := range stored {
				fmt.Fprintf(w, "%d\t%s\t%t\t%s\t%s\n",
					r.Position, r.RuleID, r.Enabled, r.CreatedAt.UTC().Format(time.RFC3339), r.Expression)
			}
			return w.Flush()
		},
	}
	listCmd.Flags().BoolVar(&all, "all", false, "include disabled rules")

	addCmd := &cobra.Command{
		Use:   "add RULE",
		Short: `Append a rule, written "<pattern>":"<replacement>"`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, store, err := opts.openRuleStore()
			if err != nil {
				return err
			}
			defer database.Close()

			rule, err := store.Add(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added rule %s at position %d\n", rule.RuleID, rule.Position)
			return nil
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove RULE_ID",
		Short: "Delete a stored rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := types.ParseRuleID(args[0])
			if err != nil {
				return fmt.Errorf("invalid rule id: %w", err)
			}
			database, store, err := opts.openRuleStore()
			if err != nil {
				return err
			}
			defer database.Close()

			if err := store.Remove(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed rule %s\n", id)
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace all stored rules with the rules of a YAML rule file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := config.LoadRuleFile(args[0])
			if err != nil {
				return err
			}
			database, store, err := opts.openRuleStore()
			if err != nil {
				return err
			}
			defer database.Close()

			stored, err := store.Replace(cmd.Context(), raw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d rules\n", len(stored))
			return nil
		},
	}

	rulesCmd.AddCommand(listCmd, addCmd, removeCmd, importCmd,
		newSetEnabledCmd(opts, "enable", true),
		newSetEnabledCmd(opts, "disable", false),
		newReloadCmd(),
	)
	return rulesCmd
}

func newSetEnabledCmd(opts *globalOptions, use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " RULE_ID",
		Short: fmt.Sprintf("%s a stored rule without moving it", use),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := types.ParseRuleID(args[0])
			if err != nil {
				return fmt.Errorf("invalid rule id: %w", err)
			}
			database, store, err := opts.openRuleStore()
			if err != nil {
				return err
			}
			defer database.Close()

			if err := store.SetEnabled(cmd.Context(), id, enabled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rule %s %sd\n", id, use)
			return nil
		},
	}
}

// newReloadCmd asks a running server to rebuild its table from its sources.
func newReloadCmd() *cobra.Command {
	var addr, apiKey string

	reloadCmd := &cobra.Command{
		Use:   "reload",
		Short: "Ask a running server to reload its rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiKey == "" {
				return fmt.Errorf("--api-key required")
			}
			conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
			if err != nil {
				return fmt.Errorf("failed to connect to %s: %w", addr, err)
			}
			defer conn.Close()

			ctx := metadata.AppendToOutgoingContext(cmd.Context(), "x-api-key", apiKey)
			out, err := api.NewRewriteClient(conn).ReloadRules(ctx, nil)
			if err != nil {
				return err
			}
			m := out.AsMap()
			fmt.Fprintf(cmd.OutOrStdout(), "active rules: %v (etag %v)\n", m["accepted"], m["etag"])
			return nil
		},
	}
	reloadCmd.Flags().StringVar(&addr, "server", "localhost:50061", "server address")
	reloadCmd.Flags().StringVar(&apiKey, "api-key", "", "administrative API key (xr-v1-...)")
	return reloadCmd
}
