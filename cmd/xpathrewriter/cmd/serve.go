// cmd/xpathrewriter/cmd/serve.go
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/solatis/xpathrewriter/internal/core/api"
	"github.com/solatis/xpathrewriter/internal/core/auth"
	"github.com/solatis/xpathrewriter/internal/core/config"
	"github.com/solatis/xpathrewriter/internal/core/db"
	"github.com/solatis/xpathrewriter/internal/core/server"
	"github.com/solatis/xpathrewriter/internal/rewrite"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gRPC rewrite service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
	serveCmd.Flags().String("host", "0.0.0.0", "gRPC server host")
	serveCmd.Flags().Int("port", 50061, "gRPC server port")
	return serveCmd
}

func runServe(cmd *cobra.Command, opts *globalOptions) error {
	ctx := cmd.Context()
	logger := slog.Default()

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}

	rewriter := rewrite.New(rewrite.WithLogger(logger))

	var (
		store         *db.RuleStore
		authenticator *auth.Authenticator
	)
	if cfg.DatabaseURL != "" {
		database, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()

		if err := db.MigrateUp(database); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		queries, err := db.LoadQueries(database)
		if err != nil {
			return fmt.Errorf("failed to load queries: %w", err)
		}
		if store, err = db.NewRuleStore(queries); err != nil {
			return err
		}

		secrets, err := config.HMACSecrets()
		if err != nil {
			return fmt.Errorf("failed to load HMAC secrets: %w", err)
		}
		if len(secrets) > 0 {
			authenticator = auth.NewAuthenticator(secrets, queries, api.AdminMethods()...)
		} else {
			logger.Warn("no HMAC secrets configured; administrative methods are disabled")
		}
	} else if cfg.XPath.LoadFromDB {
		logger.Warn("xpath.load_from_db is set but no database is configured; using static rules only")
	}

	source := api.NewConfiguredSource(cfg.XPath, ruleLister(store))
	var writer api.RuleWriter
	if store != nil {
		writer = store
	}

	service, err := api.NewRewriteService(rewriter, source, writer, logger)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	active, err := service.Reload(ctx)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(cfg.Server, service, authenticator, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("starting xpathrewriter",
		"version", Version,
		"addr", cfg.Server.Address(),
		"active_rules", active,
		"admin_enabled", authenticator != nil)

	errChan := make(chan error, 1)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		logger.Info("shutting down", "signal", sig.String())
		return grpcServer.Shutdown(context.Background())
	}
}

// ruleLister keeps a nil store from becoming a non-nil interface.
func ruleLister(store *db.RuleStore) api.ExpressionLister {
	if store == nil {
		return nil
	}
	return store
}
