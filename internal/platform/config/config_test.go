package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithEnvMap(map[string]string{
			"UPSTREAM_BASE_URL": "http://upstream.local",
		}),
	)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Fatalf("unexpected read timeout %v", cfg.Server.ReadTimeout)
	}
	if cfg.Upstream.Timeout != 15*time.Second {
		t.Fatalf("unexpected upstream timeout %v", cfg.Upstream.Timeout)
	}
	if cfg.Workflow.AttemptTTL != 15*time.Minute {
		t.Fatalf("unexpected attempt ttl %v", cfg.Workflow.AttemptTTL)
	}
	if cfg.Workflow.ReceiptTimeout != 10*time.Second {
		t.Fatalf("unexpected receipt timeout %v", cfg.Workflow.ReceiptTimeout)
	}
	if cfg.Workflow.IdempotencyTTL != 24*time.Hour {
		t.Fatalf("unexpected idempotency ttl %v", cfg.Workflow.IdempotencyTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithEnvMap(map[string]string{
			"PORT":                   "9000",
			"UPSTREAM_BASE_URL":      "http://upstream.local",
			"UPSTREAM_TIMEOUT":       "5s",
			"SUBMISSION_ATTEMPT_TTL": "30m",
			"RECEIPT_TIMEOUT":        "3s",
			"IDEMPOTENCY_TTL":        "48h",
		}),
	)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9000" {
		t.Fatalf("expected port 9000, got %s", cfg.Server.Port)
	}
	if cfg.Upstream.Timeout != 5*time.Second {
		t.Fatalf("expected upstream timeout 5s, got %v", cfg.Upstream.Timeout)
	}
	if cfg.Workflow.AttemptTTL != 30*time.Minute {
		t.Fatalf("expected attempt ttl 30m, got %v", cfg.Workflow.AttemptTTL)
	}
	if cfg.Workflow.ReceiptTimeout != 3*time.Second {
		t.Fatalf("expected receipt timeout 3s, got %v", cfg.Workflow.ReceiptTimeout)
	}
	if cfg.Workflow.IdempotencyTTL != 48*time.Hour {
		t.Fatalf("expected idempotency ttl 48h, got %v", cfg.Workflow.IdempotencyTTL)
	}
}

func TestLoadValidation(t *testing.T) {
	_, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithEnvMap(map[string]string{
			"PORT": "not-a-number",
		}),
	)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	fields := validation.Fields()
	if len(fields) != 2 || fields[0] != "PORT" || fields[1] != "UPSTREAM_BASE_URL" {
		t.Fatalf("expected sorted fields [PORT UPSTREAM_BASE_URL], got %v", fields)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nexport PORT=9100\nUPSTREAM_BASE_URL=\"http://file.local\"\n\nBROKEN LINE\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(WithoutSystemEnv(), WithEnvFile(path))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9100" {
		t.Fatalf("expected port from env file, got %s", cfg.Server.Port)
	}
	if cfg.Upstream.BaseURL != "http://file.local" {
		t.Fatalf("expected unquoted base url, got %s", cfg.Upstream.BaseURL)
	}
}

func TestLoadEnvMapPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("PORT=9100\nUPSTREAM_BASE_URL=http://file.local\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(path),
		WithEnvMap(map[string]string{"PORT": "9200"}),
	)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9200" {
		t.Fatalf("expected env map to win over file, got %s", cfg.Server.Port)
	}
}

func TestLoadMissingEnvFileIgnored(t *testing.T) {
	_, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(filepath.Join(t.TempDir(), "absent.env")),
		WithEnvMap(map[string]string{"UPSTREAM_BASE_URL": "http://upstream.local"}),
	)
	if err != nil {
		t.Fatalf("expected missing env file to be ignored, got %v", err)
	}
}
