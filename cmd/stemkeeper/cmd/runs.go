package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/solatis/stemkeeper/internal/core/journal"
	"github.com/solatis/stemkeeper/internal/types"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect journaled assembly runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			return fmt.Errorf("--limit must be positive, got %d", limit)
		}

		database, queries, err := openJournalDB(ctx)
		if err != nil {
			return err
		}
		defer database.Close()

		runs, err := journal.ListRuns(ctx, queries, limit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RUN ID\tSTATUS\tRECLIP\tSTEMS\tBOUQUETS\tSTARTED")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
				r.ID, r.Status, r.Reclip, r.Stems, r.Bouquets, r.StartedAt.UTC().Format(time.RFC3339))
		}
		return w.Flush()
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show RUN_ID",
	Short: "Print a run's designs and bouquets",
	Long: `show prints the run summary, then its design records and its bouquet
records in emission order, one per line.`,
	Args: cobra.ExactArgs(1),
	RunE: runRunsShow,
}

func init() {
	runsListCmd.Flags().Int("limit", 20, "maximum number of runs")
	runsCmd.AddCommand(runsListCmd, runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id, err := types.ParseRunID(args[0])
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", args[0], err)
	}

	database, queries, err := openJournalDB(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	run, err := journal.GetRun(ctx, queries, id)
	if err != nil {
		return fmt.Errorf("run %s: %w", id, err)
	}
	designs, err := journal.ListDesigns(ctx, queries, id)
	if err != nil {
		return err
	}
	bouquets, err := journal.ListBouquets(ctx, queries, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run:      %s\n", run.ID)
	fmt.Fprintf(out, "status:   %s\n", run.Status)
	fmt.Fprintf(out, "reclip:   %s\n", run.Reclip)
	fmt.Fprintf(out, "started:  %s\n", run.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(out, "finished: %s\n", formatNullTime(run.FinishedAt.Valid, run.FinishedAt.Time))
	fmt.Fprintf(out, "stems:    %d\n", run.Stems)
	fmt.Fprintf(out, "bouquets: %d\n", run.Bouquets)

	fmt.Fprintln(out, "\ndesigns:")
	for _, d := range designs {
		fmt.Fprintln(out, d.Record)
	}
	fmt.Fprintln(out, "\nbouquets:")
	for _, b := range bouquets {
		fmt.Fprintln(out, b.Record)
	}
	return nil
}
