package database_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/JaimeStill/churn/pkg/database"
)

func TestNewReturnsSystem(t *testing.T) {
	tests := []struct {
		name string
		cfg  database.Config
	}{
		{
			name: "postgres",
			cfg: database.Config{
				Driver: database.DriverPostgres, Host: "localhost", Port: 5432,
				Name: "orders", User: "churn", SSLMode: "disable",
				MaxOpenConns: 4, MaxIdleConns: 2, ConnMaxLifetime: "15m", ConnTimeout: "5s",
			},
		},
		{
			name: "mysql",
			cfg: database.Config{
				Driver: database.DriverMySQL, Host: "localhost", Port: 3306,
				Name: "orders", User: "churn",
				MaxOpenConns: 4, MaxIdleConns: 2, ConnMaxLifetime: "15m", ConnTimeout: "5s",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys, err := database.New(&tt.cfg, slog.Default())
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if sys.Driver() != tt.cfg.Driver {
				t.Errorf("Driver() = %s, want %s", sys.Driver(), tt.cfg.Driver)
			}
			if sys.Connection() == nil {
				t.Fatal("Connection() returned nil")
			}

			// sql.Open is lazy, Close succeeds without a server
			sys.Connection().Close()
		})
	}
}

func TestNewSetsPoolParams(t *testing.T) {
	cfg := database.Config{
		Driver: database.DriverPostgres, Host: "localhost", Port: 5432,
		Name: "orders", User: "churn", SSLMode: "disable",
		MaxOpenConns: 42, MaxIdleConns: 7, ConnMaxLifetime: "10m", ConnTimeout: "3s",
	}

	sys, err := database.New(&cfg, slog.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer sys.Connection().Close()

	if got := sys.Connection().Stats().MaxOpenConnections; got != 42 {
		t.Errorf("MaxOpenConnections = %d, want 42", got)
	}
}

func TestErrNotConfigured(t *testing.T) {
	if !errors.Is(database.ErrNotConfigured, database.ErrNotConfigured) {
		t.Error("ErrNotConfigured should match itself")
	}
	if database.ErrNotConfigured.Error() != "database not configured" {
		t.Errorf("ErrNotConfigured.Error() = %q", database.ErrNotConfigured.Error())
	}
}
