package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/solatis/stemkeeper/internal/core/api"
	"github.com/solatis/stemkeeper/internal/core/config"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Stream stem records from stdin to a running server",
	Long: `feed sends each stem record read from stdin to a stemkeeper server and
prints the bouquet records it returns. Input ends at an empty line or EOF.`,
	Args: cobra.NoArgs,
	RunE: runFeed,
}

var stockCmd = &cobra.Command{
	Use:   "stock SIZE",
	Short: "Print the per-species counters of a running server's S or L pool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dialWarehouse(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		out, err := client.GetStock(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		data, err := protojson.MarshalOptions{Multiline: true}.Marshal(out)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{feedCmd, stockCmd} {
		c.Flags().String("addr", "localhost:50051", "server address")
		c.Flags().String("api-key", "", "API key (default $"+config.EnvPrefix+"_API_KEY)")
		rootCmd.AddCommand(c)
	}
}

func dialWarehouse(cmd *cobra.Command) (*api.Client, error) {
	addr, _ := cmd.Flags().GetString("addr")
	key, _ := cmd.Flags().GetString("api-key")
	if key == "" {
		key = os.Getenv(config.EnvPrefix + "_API_KEY")
	}
	return api.NewClient(addr, key)
}

func runFeed(cmd *cobra.Command, args []string) error {
	client, err := dialWarehouse(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := cmd.Context()
	out := bufio.NewWriter(cmd.OutOrStdout())
	defer out.Flush()

	sc := bufio.NewScanner(cmd.InOrStdin())
	for line := 1; sc.Scan(); line++ {
		record := strings.TrimSuffix(sc.Text(), "\r")
		if record == "" {
			break
		}
		bouquet, err := client.AddStem(ctx, record)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if bouquet != "" {
			fmt.Fprintln(out, bouquet)
			// Flush per bouquet so a piped consumer sees it immediately.
			if err := out.Flush(); err != nil {
				return err
			}
		}
	}
	return sc.Err()
}
