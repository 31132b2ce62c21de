package cmd

import (
	"crypto/rand"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/solatis/stemkeeper/internal/core/auth"
	"github.com/solatis/stemkeeper/internal/core/config"
	"github.com/solatis/stemkeeper/internal/types"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys for the gRPC service",
}

var keysCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue a new API key",
	Args:  cobra.NoArgs,
	RunE:  runKeysCreate,
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke KEY_ID",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		database, queries, err := openJournalDB(ctx)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := auth.RevokeKey(ctx, queries, types.APIKeyID(args[0])); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", args[0])
		return nil
	},
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List API keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		database, queries, err := openJournalDB(ctx)
		if err != nil {
			return err
		}
		defer database.Close()

		keys, err := auth.ListKeys(ctx, queries)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY ID\tNAME\tSECRET ID\tCREATED\tLAST USED\tREVOKED")
		for _, k := range keys {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				k.ID, k.Name, k.SecretID, k.CreatedAt.UTC().Format(time.RFC3339),
				formatNullTime(k.LastUsedAt.Valid, k.LastUsedAt.Time),
				formatNullTime(k.RevokedAt.Valid, k.RevokedAt.Time))
		}
		return w.Flush()
	},
}

var keysSecretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Generate a value for SK_HMAC_SECRET",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), config.FormatHMACSecret(types.NewSecretID(), secret))
		return nil
	},
}

func init() {
	keysCreateCmd.Flags().String("name", "", "human readable key name")
	keysCreateCmd.Flags().String("secret-id", "", "HMAC secret to bind the key to (default: the only configured secret)")
	_ = keysCreateCmd.MarkFlagRequired("name")

	keysCmd.AddCommand(keysCreateCmd, keysRevokeCmd, keysListCmd, keysSecretCmd)
	rootCmd.AddCommand(keysCmd)
}

func runKeysCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	name, _ := cmd.Flags().GetString("name")
	secretID, _ := cmd.Flags().GetString("secret-id")

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if secretID == "" {
		if len(secrets) != 1 {
			ids := make([]string, 0, len(secrets))
			for id := range secrets {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			return fmt.Errorf("--secret-id required: %d HMAC secrets configured %v", len(secrets), ids)
		}
		for id := range secrets {
			secretID = id
		}
	}
	secret, ok := secrets[secretID]
	if !ok {
		return fmt.Errorf("HMAC secret %s not configured (set %s_HMAC_SECRET)", secretID, config.EnvPrefix)
	}

	database, queries, err := openJournalDB(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	id, key, err := auth.CreateKey(ctx, queries, name, secretID, secret)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "key id: %s\n", id)
	fmt.Fprintf(out, "api key: %s\n", key)
	fmt.Fprintln(out, "the API key is shown once and cannot be recovered")
	return nil
}

func formatNullTime(valid bool, t time.Time) string {
	if !valid {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
