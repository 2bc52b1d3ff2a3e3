// Package cmd holds the xpathrewriter command tree.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/solatis/xpathrewriter/internal/core/config"
)

// Version is reported by serve at startup.
const Version = "0.1.0"

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configFile string
	dbURL      string
	logLevel   string
	logFormat  string
}

// NewRootCmd assembles the command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "xpathrewriter",
		Short: "Rewrite XPath predicates in catalog queries into attribute predicates",
		Long: `xpathrewriter translates filter trees that address document content by XPath
into equivalent trees over indexed attribute names, using an ordered table of
"<pattern>":"<replacement>" rules.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(opts.logLevel, opts.logFormat, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file path")
	root.PersistentFlags().StringVar(&opts.dbURL, "db-url", "", "database connection URL (sqlite://path or postgres://...)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "json", "log format (json, text)")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newRulesCmd(opts),
		newKeysCmd(opts),
		newRewriteCmd(opts),
	)
	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func newLogger(level, format string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q (expected debug, info, warn, error)", level)
	}
	handlerOpts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q (expected json or text)", format)
	}
}

// loadConfig reads the config file and applies --db-url.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if o.dbURL != "" {
		cfg.DatabaseURL = o.dbURL
	}
	return cfg, nil
}

func (o *globalOptions) requireDatabaseURL(cfg *config.Config) (string, error) {
	if cfg.DatabaseURL == "" {
		return "", fmt.Errorf("database URL required (--db-url, database.url or XR_DATABASE_URL)")
	}
	return cfg.DatabaseURL, nil
}

// openInput opens path, or the command's stdin for "" and "-".
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(path)
}
