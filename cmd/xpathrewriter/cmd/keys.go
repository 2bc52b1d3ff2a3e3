// cmd/xpathrewriter/cmd/keys.go
package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/solatis/xpathrewriter/internal/core/auth"
	"github.com/solatis/xpathrewriter/internal/core/config"
	"github.com/solatis/xpathrewriter/internal/core/db"
)

func newKeysCmd(opts *globalOptions) *cobra.Command {
	keysCmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage administrative API keys",
	}

	var operatorID, secretID string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key for an operator and print it once",
		RunE: func(cmd *cobra.Command, args []string) error {
			secrets, err := config.HMACSecrets()
			if err != nil {
				return fmt.Errorf("failed to load HMAC secrets: %w", err)
			}
			id, err := pickSecretID(secrets, secretID)
			if err != nil {
				return err
			}

			apiKey, keyHash, err := auth.GenerateAPIKey(id, secrets[id])
			if err != nil {
				return err
			}

			database, err := opts.openDatabase()
			if err != nil {
				return err
			}
			defer database.Close()

			queries, err := db.LoadQueries(database)
			if err != nil {
				return err
			}
			store, err := db.NewAPIKeyStore(queries)
			if err != nil {
				return err
			}
			record, err := store.Create(cmd.Context(), operatorID, keyHash)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "created key %s for operator %s; it is not shown again\n", record.APIKeyID, operatorID)
			fmt.Fprintln(cmd.OutOrStdout(), apiKey)
			return nil
		},
	}
	createCmd.Flags().StringVar(&operatorID, "operator", "", "operator that owns the key")
	createCmd.Flags().StringVar(&secretID, "secret-id", "", "HMAC secret id to bind the key to (required with several secrets)")
	createCmd.MarkFlagRequired("operator")

	revokeCmd := &cobra.Command{
		Use:   "revoke API_KEY_ID",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := opts.openDatabase()
			if err != nil {
				return err
			}
			defer database.Close()

			queries, err := db.LoadQueries(database)
			if err != nil {
				return err
			}
			store, err := db.NewAPIKeyStore(queries)
			if err != nil {
				return err
			}
			if err := store.Revoke(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked key %s\n", args[0])
			return nil
		},
	}

	keysCmd.AddCommand(createCmd, revokeCmd)
	return keysCmd
}

// pickSecretID returns want when set, else the only configured secret.
func pickSecretID(secrets map[string][]byte, want string) (string, error) {
	if want != "" {
		if _, ok := secrets[want]; !ok {
			return "", fmt.Errorf("secret id %s not configured", want)
		}
		return want, nil
	}

	switch len(secrets) {
	case 0:
		return "", fmt.Errorf("no HMAC secrets configured (set XR_HMAC_SECRET environment variable)")
	case 1:
		for id := range secrets {
			return id, nil
		}
	}

	ids := make([]string, 0, len(secrets))
	for id := range secrets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return "", fmt.Errorf("several HMAC secrets configured, choose one with --secret-id (%v)", ids)
}
