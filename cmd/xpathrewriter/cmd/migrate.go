// cmd/xpathrewriter/cmd/migrate.go
package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/solatis/xpathrewriter/internal/core/db"
)

func newMigrateCmd(opts *globalOptions) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := opts.openDatabase()
			if err != nil {
				return err
			}
			defer database.Close()

			if err := db.MigrateUp(database); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and whether each is applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := opts.openDatabase()
			if err != nil {
				return err
			}
			defer database.Close()

			statuses, err := db.MigrateStatus(database)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MIGRATION\tAPPLIED\tAPPLIED AT\tDURATION")
			for _, s := range statuses {
				appliedAt := "-"
				if s.AppliedAt != nil {
					appliedAt = s.AppliedAt.UTC().Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%s\t%t\t%s\t%dms\n", s.ID, s.Applied, appliedAt, s.ExecutionMs)
			}
			return w.Flush()
		},
	})

	return migrateCmd
}

// openDatabase connects using --db-url or the configured database.url.
func (o *globalOptions) openDatabase() (*sqlx.DB, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	url, err := o.requireDatabaseURL(cfg)
	if err != nil {
		return nil, err
	}
	return db.Open(url)
}

// openRuleStore connects and returns a rule store over the loaded queries.
func (o *globalOptions) openRuleStore() (*sqlx.DB, *db.RuleStore, error) {
	database, err := o.openDatabase()
	if err != nil {
		return nil, nil, err
	}
	queries, err := db.LoadQueries(database)
	if err != nil {
		database.Close()
		return nil, nil, err
	}
	store, err := db.NewRuleStore(queries)
	if err != nil {
		database.Close()
		return nil, nil, err
	}
	return database, store, nil
}
