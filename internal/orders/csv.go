package orders

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

var nullTokens = []string{"", "NA", "NaN", "nan", "NULL", "null", "None", "NaT"}

// CSV loads orders from a comma-separated file with a header row.
type CSV struct {
	path   string
	logger *slog.Logger
}

// NewCSV creates a CSV source reading from path.
func NewCSV(path string, logger *slog.Logger) *CSV {
	return &CSV{
		path:   path,
		logger: logger.With("source", "csv"),
	}
}

func (s *CSV) Load(ctx context.Context) ([]Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open orders csv: %w", err)
	}
	defer f.Close()

	rows, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}

	s.logger.Info("orders loaded", "path", s.path, "rows", len(rows))
	return rows, nil
}

// ReadCSV parses an order table. Every column is read as text so that values
// are parsed with the same rules as the SQL source; null tokens become nil cells.
func ReadCSV(r io.Reader) ([]Order, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nullTokens),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("read orders csv: %w", df.Err)
	}

	names := df.Names()
	cols := make([][]*string, len(Columns))
	for i, name := range Columns {
		if !slices.Contains(names, name) {
			return nil, contractError(0, name, "missing column")
		}

		col := df.Col(name)
		records := col.Records()
		nulls := col.IsNaN()

		cells := make([]*string, len(records))
		for j := range records {
			if !nulls[j] {
				cells[j] = &records[j]
			}
		}
		cols[i] = cells
	}

	n := df.Nrow()
	result := make([]Order, 0, n)
	row := make([]*string, len(Columns))
	for j := range n {
		for i := range Columns {
			row[i] = cols[i][j]
		}
		o, err := parseRow(j+1, row)
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}

	return result, nil
}
