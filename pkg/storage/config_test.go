package storage_test

import (
	"strings"
	"testing"

	"github.com/JaimeStill/churn/pkg/storage"
)

func TestFinalizeDefaults(t *testing.T) {
	cfg := storage.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.ContainerName != "churn-artifacts" {
		t.Errorf("container_name: got %s, want churn-artifacts", cfg.ContainerName)
	}
	if cfg.Prefix != "models" {
		t.Errorf("prefix: got %s, want models", cfg.Prefix)
	}
	if cfg.Configured() {
		t.Error("storage without a connection string should not be configured")
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_CONTAINER", "bundles")
	t.Setenv("TEST_CONN", "override-connection")
	t.Setenv("TEST_PREFIX", "churn/v1")

	env := &storage.Env{
		ContainerName:    "TEST_CONTAINER",
		ConnectionString: "TEST_CONN",
		Prefix:           "TEST_PREFIX",
	}

	cfg := storage.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.ContainerName != "bundles" {
		t.Errorf("container_name: got %s, want bundles", cfg.ContainerName)
	}
	if cfg.ConnectionString != "override-connection" {
		t.Errorf("connection_string: got %s, want override-connection", cfg.ConnectionString)
	}
	if cfg.Prefix != "churn/v1" {
		t.Errorf("prefix: got %s, want churn/v1", cfg.Prefix)
	}
	if !cfg.Configured() {
		t.Error("storage with a connection string should be configured")
	}
}

func TestFinalizeRejectsTraversalPrefix(t *testing.T) {
	cfg := storage.Config{Prefix: "../escape"}
	err := cfg.Finalize(nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "invalid prefix") {
		t.Errorf("error %q does not contain %q", err.Error(), "invalid prefix")
	}
}

func TestMerge(t *testing.T) {
	base := storage.Config{
		ContainerName:    "churn-artifacts",
		ConnectionString: "base-conn",
	}

	overlay := storage.Config{ConnectionString: "overlay-conn"}
	base.Merge(&overlay)

	if base.ContainerName != "churn-artifacts" {
		t.Errorf("container_name should remain churn-artifacts, got %s", base.ContainerName)
	}
	if base.ConnectionString != "overlay-conn" {
		t.Errorf("connection_string: got %s, want overlay-conn", base.ConnectionString)
	}
}
