package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/churn/internal/report"
	"github.com/JaimeStill/churn/pkg/formatting"
)

func reportCmd() *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the headline figures of the saved analysis report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), nil, func(ctx context.Context, app *App) error {
				bundle, err := app.LoadBundle(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if full {
					fmt.Fprint(out, bundle.Report)
					return nil
				}

				h, err := report.ParseHeadline(bundle.Report)
				if err != nil {
					return err
				}
				writeHeadline(out, h)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "print the complete report text")

	return cmd
}

func writeHeadline(w io.Writer, h *report.Headline) {
	fmt.Fprintf(w, "Clientes retidos: %d\n", h.Retained)
	fmt.Fprintf(w, "Clientes churn: %d\n", h.Churned)
	fmt.Fprintf(w, "Taxa de churn: %s\n\n", h.ChurnRate)

	rows := []struct {
		name  string
		value float64
	}{
		{"Acurácia", h.Accuracy},
		{"Precisão (weighted)", h.PrecisionWeighted},
		{"Recall (weighted)", h.RecallWeighted},
		{"F1-score (macro)", h.F1Macro},
		{"F1-score (weighted)", h.F1Weighted},
		{"AUC-ROC", h.AUCROC},
		{"Average Precision", h.AveragePrecision},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%-20s %s\n", r.name+":", formatting.Fixed(r.value, 4))
	}

	fmt.Fprintf(w, "\nMatriz de confusão:\n%s\n", h.Confusion)

	if len(h.Importances) > 0 {
		fmt.Fprintln(w, "\nPrincipais features:")
		for i, imp := range h.Importances {
			if i == 5 {
				break
			}
			fmt.Fprintf(w, "  %s: %s\n", imp.Display, formatting.Fixed(imp.Value, 4))
		}
	}
}
