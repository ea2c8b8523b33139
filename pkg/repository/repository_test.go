package repository_test

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/churn/pkg/repository"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate")
)

func TestMapError(t *testing.T) {
	other := errors.New("some other error")
	pgFK := &pgconn.PgError{Code: "23503"}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, errNotFound},
		{"pg unique violation", &pgconn.PgError{Code: "23505"}, errDuplicate},
		{"mysql duplicate entry", &mysql.MySQLError{Number: 1062}, errDuplicate},
		{"pg non-duplicate passes through", pgFK, pgFK},
		{"other passes through", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repository.MapError(tt.err, errNotFound, errDuplicate)
			if got != tt.want {
				t.Errorf("MapError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRebind(t *testing.T) {
	query := "INSERT INTO churn_runs(id, model) VALUES ($1, $2)"

	tests := []struct {
		driver string
		want   string
	}{
		{"pgx", query},
		{"mysql", "INSERT INTO churn_runs(id, model) VALUES (?, ?)"},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			if got := repository.Rebind(tt.driver, query); got != tt.want {
				t.Errorf("Rebind(%s) = %q, want %q", tt.driver, got, tt.want)
			}
		})
	}
}
