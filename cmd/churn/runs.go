package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/churn/internal/config"
	"github.com/JaimeStill/churn/internal/pipeline"
	"github.com/JaimeStill/churn/pkg/formatting"
	"github.com/JaimeStill/churn/pkg/pagination"
)

func runsCmd() *cobra.Command {
	var (
		model     string
		rebalance string
		since     string
		page      int
		pageSize  int
		sort      string
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded training runs",
		Long: `List training runs recorded in the churn_runs table.

Requires a configured database. Sort accepts comma-separated fields with an
optional "-" prefix for descending order.

Examples:
  churn runs --model xgboost
  churn runs --sort -auc_roc,started_at --page_size 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter pipeline.RunFilter
			if cmd.Flags().Changed("model") {
				filter.Model = &model
			}
			if cmd.Flags().Changed("rebalance") {
				filter.Rebalance = &rebalance
			}
			if since != "" {
				t, err := time.Parse(config.CutoffLayout, since)
				if err != nil {
					return fmt.Errorf("%w: since: %w", config.ErrInvalidConfiguration, err)
				}
				filter.Since = &t
			}

			return run(cmd.Context(), nil, func(ctx context.Context, app *App) error {
				if app.infra.Database == nil {
					return fmt.Errorf("%w: run history requires a configured database", config.ErrInvalidConfiguration)
				}

				req := pagination.NewPageRequest(page, pageSize, sort, app.cfg.History)
				result, err := pipeline.NewHistory(app.infra.Database).List(ctx, filter, req)
				if err != nil {
					return err
				}

				writeRuns(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&model, "model", "", "only runs of this model family")
	flags.StringVar(&rebalance, "rebalance", "", "only runs with this rebalancing method")
	flags.StringVar(&since, "since", "", "only runs started on or after this date (YYYY-MM-DD)")
	flags.IntVar(&page, "page", 1, "page number")
	flags.IntVar(&pageSize, "page_size", 0, "runs per page (default from [history])")
	flags.StringVar(&sort, "sort", "", "sort fields (default -started_at)")

	return cmd
}

func writeRuns(w io.Writer, result pagination.PageResult[pipeline.RunSummary]) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tMODEL\tREBALANCE\tCV\tCUSTOMERS\tACCURACY\tF1 MACRO\tAUC-ROC")
	for _, r := range result.Data {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Model,
			r.Rebalance,
			r.CV,
			r.Customers,
			formatting.Fixed(r.Accuracy, 4),
			formatting.Fixed(r.F1Macro, 4),
			formatting.Fixed(r.AUCROC, 4),
		)
	}
	tw.Flush()

	fmt.Fprintf(w, "\npage %d of %d (%d runs)\n", result.Page, result.TotalPages, result.Total)
}
