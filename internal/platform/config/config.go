package config

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile         = ".env"
	defaultPort            = "8080"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultUpstreamTimeout = 15 * time.Second
	defaultAttemptTTL      = 15 * time.Minute
	defaultReceiptTimeout  = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Workflow WorkflowConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// UpstreamConfig points at the remote business API that owns catalogs,
// stock projections, order persistence, and receipt rendering.
type UpstreamConfig struct {
	BaseURL string
	Timeout time.Duration
}

// WorkflowConfig tunes order submission behaviour.
type WorkflowConfig struct {
	// AttemptTTL bounds how long a parked shortage confirmation stays valid.
	AttemptTTL time.Duration
	// ReceiptTimeout bounds the fire-and-forget receipt render call.
	ReceiptTimeout time.Duration
	// IdempotencyTTL bounds how long submitted-order responses are retained
	// for replay against repeated idempotency keys.
	IdempotencyTTL time.Duration
}

// ValidationError reports configuration fields that failed validation.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: invalid fields: %s", strings.Join(e.fields, ", "))
}

// Fields lists the offending configuration keys.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

type options struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// Option customises configuration loading.
type Option func(*options)

// WithEnvFile overrides the .env file path consulted before system env vars.
func WithEnvFile(path string) Option {
	return func(o *options) {
		o.envFile = path
	}
}

// WithEnvMap supplies explicit values taking precedence over all other sources.
func WithEnvMap(values map[string]string) Option {
	return func(o *options) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables fallback to os.Getenv, mainly for tests.
func WithoutSystemEnv() Option {
	return func(o *options) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration from the env map, .env file, and system
// environment, applying defaults and validating the result.
func Load(opts ...Option) (Config, error) {
	o := options{envFile: defaultEnvFile, useSystemEnv: true}
	for _, opt := range opts {
		opt(&o)
	}

	fileValues, err := loadDotEnv(o.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if v, ok := o.envMap[key]; ok {
			return v, true
		}
		if v, ok := fileValues[key]; ok {
			return v, true
		}
		if o.useSystemEnv {
			if v, ok := os.LookupEnv(key); ok {
				return v, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Upstream: UpstreamConfig{
			BaseURL: stringWithDefault(lookup, "UPSTREAM_BASE_URL", ""),
			Timeout: durationWithDefault(lookup, "UPSTREAM_TIMEOUT", defaultUpstreamTimeout),
		},
		Workflow: WorkflowConfig{
			AttemptTTL:     durationWithDefault(lookup, "SUBMISSION_ATTEMPT_TTL", defaultAttemptTTL),
			ReceiptTimeout: durationWithDefault(lookup, "RECEIPT_TIMEOUT", defaultReceiptTimeout),
			IdempotencyTTL: durationWithDefault(lookup, "IDEMPOTENCY_TTL", defaultIdempotencyTTL),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var invalid []string
	if strings.TrimSpace(cfg.Server.Port) == "" {
		invalid = append(invalid, "PORT")
	} else if _, err := strconv.Atoi(cfg.Server.Port); err != nil {
		invalid = append(invalid, "PORT")
	}
	if strings.TrimSpace(cfg.Upstream.BaseURL) == "" {
		invalid = append(invalid, "UPSTREAM_BASE_URL")
	}
	if cfg.Upstream.Timeout <= 0 {
		invalid = append(invalid, "UPSTREAM_TIMEOUT")
	}
	if cfg.Workflow.AttemptTTL <= 0 {
		invalid = append(invalid, "SUBMISSION_ATTEMPT_TTL")
	}
	if cfg.Workflow.ReceiptTimeout <= 0 {
		invalid = append(invalid, "RECEIPT_TIMEOUT")
	}
	if cfg.Workflow.IdempotencyTTL <= 0 {
		invalid = append(invalid, "IDEMPOTENCY_TTL")
	}

	if len(invalid) > 0 {
		sort.Strings(invalid)
		return &ValidationError{fields: invalid}
	}
	return nil
}

// loadDotEnv parses KEY=VALUE lines, ignoring blanks, comments, and export
// prefixes. A missing file is not an error.
func loadDotEnv(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: open env file %s: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: read env file %s: %w", path, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	v, ok := lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return parsed
}
