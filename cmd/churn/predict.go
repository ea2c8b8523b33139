package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/churn/internal/predictor"
	"github.com/JaimeStill/churn/pkg/formatting"
)

func predictCmd() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score one customer with the saved model",
		Long: `Score one customer's engineered features with the saved model bundle.

The input is a JSON object keyed by feature column. It may be given inline,
inside a markdown json fence, as a file path, or as "-" for stdin.

Examples:
  churn predict --input customer.json
  echo '{"recency": 120, ...}' | churn predict --input -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			row, err := decodeRow(content)
			if err != nil {
				return err
			}

			return run(cmd.Context(), nil, func(ctx context.Context, app *App) error {
				bundle, err := app.LoadBundle(ctx)
				if err != nil {
					return err
				}
				p, err := predictor.New(bundle)
				if err != nil {
					return err
				}
				prob, err := p.Predict(row)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Probabilidade de churn: %s\n", formatting.Fixed(prob, 4))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&input, "input", "-", "customer features: JSON, a file path, or - for stdin")

	return cmd
}

// readInput resolves the --input value to its JSON content.
func readInput(input string, stdin io.Reader) (string, error) {
	if input == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}

	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "```") {
		return trimmed, nil
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}

// decodeRow parses the customer features. A JSON null becomes NaN so the
// predictor reports the column as missing instead of scoring it as zero.
func decodeRow(content string) (map[string]float64, error) {
	raw, err := formatting.Parse[map[string]*float64](content)
	if err != nil {
		return nil, err
	}
	row := make(map[string]float64, len(raw))
	for col, v := range raw {
		if v == nil {
			row[col] = math.NaN()
			continue
		}
		row[col] = *v
	}
	return row, nil
}
