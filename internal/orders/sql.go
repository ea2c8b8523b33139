package orders

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JaimeStill/churn/pkg/database"
	"github.com/JaimeStill/churn/pkg/repository"
)

// SQL loads orders from a PostgreSQL or MySQL table carrying the upstream columns.
type SQL struct {
	db     database.System
	table  string
	logger *slog.Logger
}

// NewSQL creates a SQL source over table. The table name must already be
// validated as a plain identifier.
func NewSQL(db database.System, table string, logger *slog.Logger) *SQL {
	return &SQL{
		db:     db,
		table:  table,
		logger: logger.With("source", "sql", "driver", db.Driver()),
	}
}

func (s *SQL) Load(ctx context.Context) ([]Order, error) {
	query := selectQuery(s.table)

	row := 0
	scan := func(sc repository.Scanner) (Order, error) {
		row++
		return scanOrder(row, sc)
	}

	rows, err := repository.QueryMany(ctx, s.db.Connection(), query, nil, scan)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}

	s.logger.Info("orders loaded", "table", s.table, "rows", len(rows))
	return rows, nil
}

func selectQuery(table string) string {
	return fmt.Sprintf(
		"SELECT %s FROM %s ORDER BY %s, %s",
		strings.Join(Columns, ", "), table, ColPurchaseTimestamp, ColOrderID,
	)
}

func scanOrder(row int, sc repository.Scanner) (Order, error) {
	raw := make([]sql.NullString, len(Columns))
	dest := make([]any, len(Columns))
	for i := range raw {
		dest[i] = &raw[i]
	}

	if err := sc.Scan(dest...); err != nil {
		return Order{}, err
	}

	cells := make([]*string, len(Columns))
	for i := range raw {
		if raw[i].Valid {
			cells[i] = &raw[i].String
		}
	}

	return parseRow(row, cells)
}
